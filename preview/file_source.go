package preview

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/koturn/shaderview/internal/logx"
)

// FileSource serves shader content from a file on disk. Probe stats the
// file; an optional fsnotify watcher marks the source dirty between polls
// so unchanged files skip the stat. Polling remains the source of truth,
// the watcher is only a short-circuit hint.
type FileSource struct {
	path string
	log  *slog.Logger

	watcher *fsnotify.Watcher
	dirty   atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup

	mu     sync.Mutex
	cached Meta
	valid  bool
}

// NewFileSource creates a source reading from path. The path is made
// absolute so Meta.Name stays stable regardless of the working directory.
func NewFileSource(path string) (*FileSource, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("preview: resolve %s: %w", path, err)
	}
	return &FileSource{path: abs, log: logx.Default()}, nil
}

// Path returns the absolute file path.
func (s *FileSource) Path() string { return s.path }

// Watch starts an fsnotify watcher on the file's directory. Events only
// mark the source dirty; Probe keeps working without the watcher.
func (s *FileSource) Watch() error {
	if s.watcher != nil {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("preview: create watcher: %w", err)
	}
	// Watch the directory, not the file: editors that save via rename
	// would otherwise drop the watch on every write.
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		w.Close()
		return fmt.Errorf("preview: watch %s: %w", filepath.Dir(s.path), err)
	}
	s.watcher = w
	s.done = make(chan struct{})
	s.dirty.Store(true)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Name == s.path {
					s.dirty.Store(true)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.log.Warn("file watch error", "path", s.path, "err", err)
				// Fail open: force the next poll to stat.
				s.dirty.Store(true)
			case <-s.done:
				return
			}
		}
	}()
	return nil
}

// Probe stats the file and derives the change-detection keys. When the
// watcher is active and no event arrived since the last probe, the cached
// result is returned without touching the filesystem.
func (s *FileSource) Probe(ctx context.Context) (Meta, error) {
	if err := ctx.Err(); err != nil {
		return Meta{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watcher != nil && s.valid && !s.dirty.Swap(false) {
		return s.cached, nil
	}

	info, err := os.Stat(s.path)
	if err != nil {
		s.valid = false
		return Meta{}, fmt.Errorf("preview: stat %s: %w", s.path, err)
	}
	s.cached = Meta{
		Name:     s.path,
		FileType: fileTypeOf(s.path),
		ModStamp: info.ModTime().Format(time.RFC3339Nano),
	}
	s.valid = true
	return s.cached, nil
}

// Text reads the file and normalizes line endings to \n.
func (s *FileSource) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", fmt.Errorf("preview: read %s: %w", s.path, err)
	}
	return normalizeNewlines(string(data)), nil
}

// Close stops the watcher, if any.
func (s *FileSource) Close() error {
	if s.watcher == nil {
		return nil
	}
	close(s.done)
	err := s.watcher.Close()
	s.wg.Wait()
	s.watcher = nil
	return err
}

// fileTypeOf maps a file extension to a renderer variant tag.
func fileTypeOf(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".wgsl") {
		return "wgsl"
	}
	return "glsl"
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
