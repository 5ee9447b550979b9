package dataset

import (
	"context"
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/linkatlas/pkg/atlas"
)

// DefaultDebounce is how long a file must be quiet before it is reloaded.
const DefaultDebounce = 150 * time.Millisecond

// Reload is one result of re-reading a watched dataset file. Exactly one of
// Atlas and Err is set.
type Reload struct {
	Path        string
	Atlas       *atlas.Atlas
	Fingerprint string
	Err         error
}

// Watcher reloads a dataset file whenever it changes on disk.
//
// The parent directory is watched rather than the file itself so that
// editors which save by rename keep triggering events.
type Watcher struct {
	Path     string
	Debounce time.Duration
	Logger   *log.Logger

	// Reloads delivers results; it is closed when Run returns.
	Reloads <-chan Reload

	reloads chan Reload
	fw      *fsnotify.Watcher
}

// NewWatcher creates a watcher for the dataset file at path.
func NewWatcher(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	ch := make(chan Reload, 4)
	return &Watcher{
		Path:     abs,
		Debounce: DefaultDebounce,
		Reloads:  ch,
		reloads:  ch,
		fw:       fw,
	}, nil
}

// Run watches until ctx is cancelled. Failed reloads are delivered with Err
// set so the caller can keep serving the previous dataset.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.reloads)
	defer w.fw.Close()

	logger := w.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if err := w.fw.Add(filepath.Dir(w.Path)); err != nil {
		return err
	}

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	ticker := time.NewTicker(debounce)
	defer ticker.Stop()

	var pending time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.Path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				logger.Debug("dataset changed", "path", w.Path, "op", event.Op.String())
				pending = time.Now()
			}

		case <-ticker.C:
			if pending.IsZero() || time.Since(pending) < debounce {
				continue
			}
			pending = time.Time{}
			r := w.reload()
			if r.Err != nil {
				logger.Warn("dataset reload failed", "path", w.Path, "error", r.Err)
			} else {
				logger.Info("dataset reloaded", "path", w.Path, "fingerprint", r.Fingerprint[:12])
			}
			select {
			case w.reloads <- r:
			case <-ctx.Done():
				return nil
			}

		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) reload() Reload {
	doc, err := ReadFile(w.Path)
	if err != nil {
		return Reload{Path: w.Path, Err: err}
	}
	a, err := Build(doc)
	if err != nil {
		return Reload{Path: w.Path, Err: err}
	}
	return Reload{Path: w.Path, Atlas: a, Fingerprint: Fingerprint(doc)}
}
