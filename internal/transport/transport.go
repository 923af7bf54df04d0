// Package transport implements the scheme-dispatched fetch/write surface
// comstar's orchestrators use to talk to a manifest's source: http(s) and
// file for reads, file/gs/s3 object stores for writes. It generalizes
// the teacher's storage.Client (one fixed S3 bucket) into a URL-scheme
// dispatcher, matching the original implementation's own http/file split
// in sync.rs and push/gcs.rs.
package transport

import (
	"compress/gzip"
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/bsundsrud/comstar/internal/comstarerr"
	"github.com/bsundsrud/comstar/internal/events"
	"github.com/bsundsrud/comstar/internal/manifest"
	"github.com/bsundsrud/comstar/internal/ratelimit"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"
)

const chunkSize = 64 * 1024

// HTTPClient is the client used for http(s) reads. Overridable in tests.
var HTTPClient = http.DefaultClient

// BandwidthLimiter, when non-nil, throttles the aggregate throughput of
// every FetchFile download and UploadObject upload to its configured
// rate. nil (the default) means unlimited. Set from
// internal/config.Defaults.BandwidthLimit by the CLI layer before any
// transfer runs.
var BandwidthLimiter *ratelimit.Limiter

// FetchManifest retrieves and parses the manifest at rawURL. The second
// return value reports whether the manifest exists at all: an http(s)
// 404 or a missing local file is "not found, nil error" rather than a
// hard failure, since a missing remote manifest is the expected
// first-push state, not a bug.
func FetchManifest(ctx context.Context, rawURL string) (*manifest.Manifest, bool, error) {
	data, found, err := fetchBytes(ctx, rawURL)
	if err != nil || !found {
		return nil, found, err
	}
	m, err := manifest.Parse(data)
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}

func fetchBytes(ctx context.Context, rawURL string) ([]byte, bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, false, comstarerr.Parse("invalid URL "+rawURL, err)
	}

	switch u.Scheme {
	case "http", "https":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, false, comstarerr.Network("building request for "+rawURL, err)
		}
		resp, err := HTTPClient.Do(req)
		if err != nil {
			return nil, false, comstarerr.Network("fetching "+rawURL, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusNotFound {
			return nil, false, nil
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, false, comstarerr.Network("fetching "+rawURL, errors.New(resp.Status))
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, false, comstarerr.Network("reading response from "+rawURL, err)
		}
		return data, true, nil

	case "file":
		path := u.Path
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, false, nil
			}
			return nil, false, comstarerr.IO("reading "+path, err)
		}
		return data, true, nil

	default:
		return nil, false, &comstarerr.Error{Kind: comstarerr.KindUnknown, Op: "fetching " + rawURL, Err: comstarerr.ErrUnsupportedScheme}
	}
}

// chunkReader picks a chunking-only or throttling-and-chunking reader
// depending on whether BandwidthLimiter is configured.
func chunkReader(r io.Reader, onChunk func(n int)) io.Reader {
	if BandwidthLimiter != nil {
		return ratelimit.NewLimitedReader(r, chunkSize, BandwidthLimiter, onChunk)
	}
	return ratelimit.NewChunkedReader(r, chunkSize, onChunk)
}

// FetchFile downloads the object at rawURL into destPath, creating
// parent directories as needed. name is the identifier events are
// reported under — distinct from destPath, which is an OS-specific
// filesystem path, since callers generally want events keyed by the
// entry's canonical manifest path. FetchFile owns the full
// Started/Progress*/Done bracket for name on every exit path, including
// failures before any byte is transferred; callers must not also emit
// Started/Done around a call to FetchFile. http(s) streams the body in
// chunkSize reads (optionally throttled by BandwidthLimiter) through
// sink; file does a direct copy, still reporting a single
// Started/Progress/Done bracket so callers see every name they
// dispatched go through the same lifecycle regardless of scheme.
func FetchFile(ctx context.Context, rawURL, destPath, name string, sink events.Sink) (err error) {
	if sink == nil {
		sink = events.NopSink{}
	}
	started := false
	start := func(size int64) {
		started = true
		sink.Started(name, size)
	}
	defer func() {
		if !started {
			sink.Started(name, 0)
			sink.Done(name, err)
		}
	}()
	u, err := url.Parse(rawURL)
	if err != nil {
		return comstarerr.Parse("invalid URL "+rawURL, err)
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return comstarerr.IO("creating directory for "+destPath, err)
	}

	switch u.Scheme {
	case "http", "https":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return comstarerr.Network("building request for "+rawURL, err)
		}
		resp, err := HTTPClient.Do(req)
		if err != nil {
			return comstarerr.Network("fetching "+rawURL, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return comstarerr.Network("fetching "+rawURL, errors.New(resp.Status))
		}

		f, err := os.Create(destPath)
		if err != nil {
			return comstarerr.IO("creating "+destPath, err)
		}
		defer f.Close()

		start(resp.ContentLength)
		r := chunkReader(resp.Body, func(n int) {
			sink.Progress(name, int64(n))
		})
		if _, err := io.Copy(f, r); err != nil {
			err = comstarerr.Network("streaming "+rawURL, err)
			sink.Done(name, err)
			return err
		}
		sink.Done(name, nil)
		return nil

	case "file":
		src, err := os.Open(u.Path)
		if err != nil {
			return comstarerr.IO("opening "+u.Path, err)
		}
		defer src.Close()

		info, err := src.Stat()
		if err != nil {
			return comstarerr.IO("stat "+u.Path, err)
		}

		dst, err := os.Create(destPath)
		if err != nil {
			return comstarerr.IO("creating "+destPath, err)
		}
		defer dst.Close()

		start(info.Size())
		if _, err := io.Copy(dst, src); err != nil {
			err = comstarerr.IO("copying "+u.Path, err)
			sink.Done(name, err)
			return err
		}
		sink.Progress(name, info.Size())
		sink.Done(name, nil)
		return nil

	default:
		return &comstarerr.Error{Kind: comstarerr.KindUnknown, Op: "fetching " + rawURL, Err: comstarerr.ErrUnsupportedScheme}
	}
}

// DeleteFile removes a local file. A missing file is not an error: sync
// tolerates a file already having been removed out of band.
func DeleteFile(localPath string) error {
	if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
		return comstarerr.IO("deleting "+localPath, err)
	}
	return nil
}

// openBucket opens a gocloud.dev/blob bucket at bucket (e.g.
// "s3://my-bucket" or "gs://my-bucket"), then narrows it to
// bucketPath (a key prefix) via blob.PrefixedBucket when bucketPath is
// non-empty. PrefixedBucket is a driver-agnostic wrapper, so the prefix
// applies uniformly across fileblob/gcsblob/s3blob rather than relying
// on a backend's own interpretation of a URL path. The scheme-specific
// driver is selected by blank-importing fileblob/gcsblob/s3blob above,
// the same registration pattern a blob-backend abstraction uses to stay
// provider-agnostic.
func openBucket(ctx context.Context, bucket, bucketPath string) (*blob.Bucket, error) {
	u, err := url.Parse(bucket)
	if err != nil {
		return nil, comstarerr.Parse("invalid bucket URL "+bucket, err)
	}
	switch u.Scheme {
	case "file", "gs", "s3":
	default:
		return nil, &comstarerr.Error{Kind: comstarerr.KindUnknown, Op: "opening bucket " + bucket, Err: comstarerr.ErrUnsupportedScheme}
	}
	b, err := blob.OpenBucket(ctx, bucket)
	if err != nil {
		return nil, comstarerr.Network("opening bucket "+bucket, err)
	}
	if bucketPath != "" {
		b = blob.PrefixedBucket(b, strings.Trim(bucketPath, "/")+"/")
	}
	return b, nil
}

// UploadObject gzip-compresses localPath and writes it to objectKey
// within bucketPath in the bucket at bucket, setting Content-Encoding
// and a best-guess Content-Type, matching the original implementation's
// GCS upload path. The upload is throttled by BandwidthLimiter when set.
func UploadObject(ctx context.Context, bucket, bucketPath, objectKey, localPath string) error {
	b, err := openBucket(ctx, bucket, bucketPath)
	if err != nil {
		return err
	}
	defer b.Close()

	f, err := os.Open(localPath)
	if err != nil {
		return comstarerr.IO("opening "+localPath, err)
	}
	defer f.Close()

	contentType := mime.TypeByExtension(filepath.Ext(localPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w, err := b.NewWriter(ctx, objectKey, &blob.WriterOptions{
		ContentType:     contentType,
		ContentEncoding: "gzip",
	})
	if err != nil {
		return comstarerr.Network("opening writer for "+objectKey, err)
	}

	var src io.Reader = f
	if BandwidthLimiter != nil {
		src = ratelimit.NewLimitedReader(f, chunkSize, BandwidthLimiter, nil)
	}

	gz := gzip.NewWriter(w)
	if _, err := io.Copy(gz, src); err != nil {
		w.Close()
		return comstarerr.Network("uploading "+objectKey, err)
	}
	if err := gz.Close(); err != nil {
		w.Close()
		return comstarerr.Network("finishing gzip stream for "+objectKey, err)
	}
	if err := w.Close(); err != nil {
		return comstarerr.Network("closing writer for "+objectKey, err)
	}
	return nil
}

// DeleteObject removes objectKey, within bucketPath, from the bucket at
// bucket.
func DeleteObject(ctx context.Context, bucket, bucketPath, objectKey string) error {
	b, err := openBucket(ctx, bucket, bucketPath)
	if err != nil {
		return err
	}
	defer b.Close()

	if err := b.Delete(ctx, objectKey); err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil
		}
		return comstarerr.Network("deleting "+objectKey, err)
	}
	return nil
}

// UploadManifest uploads already-serialized manifest JSON to objectKey
// within bucketPath, uncompressed (the manifest itself is small and
// fetched uncompressed by FetchManifest/FetchFile, so it is never
// gzipped on the way up either).
func UploadManifest(ctx context.Context, bucket, bucketPath, objectKey string, data []byte) error {
	b, err := openBucket(ctx, bucket, bucketPath)
	if err != nil {
		return err
	}
	defer b.Close()

	if err := b.WriteAll(ctx, objectKey, data, &blob.WriterOptions{ContentType: "application/json"}); err != nil {
		return comstarerr.Network("uploading "+objectKey, err)
	}
	return nil
}
