package colortable

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// Holder publishes the current table to concurrent readers. Writers replace
// the whole table; readers never observe a table being edited.
type Holder struct {
	mu sync.Mutex // serializes writers
	p  atomic.Pointer[Table]
}

// NewHolder returns a holder that starts out with t, which may be nil.
func NewHolder(t *Table) *Holder {
	h := &Holder{}
	if t != nil {
		h.p.Store(t)
	}
	return h
}

// Load returns the current table, or nil if none has been stored.
func (h *Holder) Load() *Table {
	return h.p.Load()
}

// Store replaces the current table.
func (h *Holder) Store(t *Table) {
	h.mu.Lock()
	h.p.Store(t)
	h.mu.Unlock()
}

// Update applies fn to a copy of the current table (or to a new empty table
// if none is set) and publishes the copy if fn succeeds.
func (h *Holder) Update(fn func(*Table) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	var next *Table
	if cur := h.p.Load(); cur != nil {
		next = cur.Clone()
	} else {
		next = New()
	}
	if err := fn(next); err != nil {
		return err
	}
	h.p.Store(next)
	return nil
}

// Watcher reloads a table file into a Holder whenever the file changes.
//
// The parent directory is watched rather than the file itself so that
// replace-by-rename saves (as done by Table.Save) are picked up.
type Watcher struct {
	path   string
	holder *Holder
	fsw    *fsnotify.Watcher

	onReload func(*Table)
	onError  func(error)

	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
	wg        sync.WaitGroup
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// OnReload sets a callback invoked from the watcher goroutine after each
// successful reload.
func OnReload(fn func(*Table)) WatchOption {
	return func(w *Watcher) { w.onReload = fn }
}

// OnError sets a callback invoked from the watcher goroutine when a reload or
// the underlying watch fails. The previous table stays in place.
func OnError(fn func(error)) WatchOption {
	return func(w *Watcher) { w.onError = fn }
}

// Watch starts watching path and storing reloaded tables into h.
// The file is not loaded up front; call Load first if the holder is empty.
func Watch(path string, h *Holder, opts ...WatchOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{
		path:   abs,
		holder: h,
		fsw:    fsw,
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			w.reload()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.fail(fmt.Errorf("watch %s: %w", w.path, err))
		}
	}
}

func (w *Watcher) reload() {
	t, err := Load(w.path)
	if err != nil {
		// a writer that does not rename may still be mid-write; the next
		// write event retries
		w.fail(err)
		return
	}
	w.holder.Store(t)
	if w.onReload != nil {
		w.onReload(t)
	}
}

func (w *Watcher) fail(err error) {
	if w.onError != nil {
		w.onError(err)
	}
}

// Close stops the watcher and waits for its goroutine to exit. Calls after
// the first return the first call's result.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		close(w.done)
		w.closeErr = w.fsw.Close()
		w.wg.Wait()
	})
	return w.closeErr
}
