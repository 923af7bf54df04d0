package events

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Render drains ch until a Close event arrives or ch closes, drawing a
// header bar (done/total files) and a per-file sub-bar for every name
// currently in flight, then finalizes the header with "<action>: Done.". It
// is meant to run in its own goroutine; callers synchronize on its
// return rather than on channel closure, since the renderer itself may
// still be flushing terminal output after the last event arrives.
func Render(ch <-chan Event, action string, total int) {
	header := progressbar.NewOptions(total,
		progressbar.OptionSetDescription(action),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	bars := make(map[string]*progressbar.ProgressBar)

loop:
	for ev := range ch {
		switch ev.Kind {
		case Started:
			b := progressbar.NewOptions64(ev.Size,
				progressbar.OptionSetDescription(ev.Name),
				progressbar.OptionSetWriter(os.Stderr),
			)
			bars[ev.Name] = b
		case Progress:
			if b, ok := bars[ev.Name]; ok {
				_ = b.Add64(ev.Delta)
			}
		case Done:
			if b, ok := bars[ev.Name]; ok {
				_ = b.Finish()
				delete(bars, ev.Name)
			}
			_ = header.Add(1)
		case Close:
			break loop
		}
	}
	_ = header.Finish()
	fmt.Fprintf(os.Stderr, "%s: Done.\n", action)
}

// jsonEvent is the wire shape of the teacher's machine-readable progress
// stream, kept as an alternative to the live renderer rather than a
// replacement for it.
type jsonEvent struct {
	Event string `json:"event"`
	Name  string `json:"name,omitempty"`
	Size  int64  `json:"size,omitempty"`
	Delta int64  `json:"delta,omitempty"`
	Error string `json:"error,omitempty"`
}

// RenderJSON drains ch until it closes, writing one JSON object per line
// to w. Used when --progress-json is set, so scripts can consume
// progress without parsing terminal escape codes.
func RenderJSON(ch <-chan Event, w io.Writer) {
	enc := json.NewEncoder(w)
	for ev := range ch {
		je := jsonEvent{Name: ev.Name, Size: ev.Size, Delta: ev.Delta}
		switch ev.Kind {
		case Started:
			je.Event = "started"
		case Progress:
			je.Event = "progress"
		case Done:
			je.Event = "done"
			if ev.Err != nil {
				je.Error = ev.Err.Error()
			}
		case Close:
			je.Event = "close"
		}
		_ = enc.Encode(je)
	}
}
