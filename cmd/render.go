package cmd

import (
	"os"
	"sync"

	"github.com/bsundsrud/comstar/internal/events"
)

// withRenderer runs fn with an events.Sink backed by a live bus, starts
// the matching renderer (JSON lines or the terminal multi-bar display)
// in its own goroutine, and waits for it to finish draining before
// returning. action and total label the header bar.
func withRenderer(action string, total int, fn func(events.Sink) error) error {
	bus := events.NewBus(50)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if progJSON {
			events.RenderJSON(bus.Events(), os.Stdout)
		} else {
			events.Render(bus.Events(), action, total)
		}
	}()

	err := fn(bus)
	bus.CloseBus()
	wg.Wait()
	return err
}
