package file

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/YX-UOM/Plithos/internal/core/ports/driven"
	"github.com/YX-UOM/Plithos/internal/logger"
)

var _ driven.PromptStore = (*PromptStore)(nil)

// defaults holds the shipped prompts and the README copied next to them.
//
//go:embed defaults
var defaults embed.FS

const promptExt = ".txt"

// defaultPrompt returns the shipped text for name.
func defaultPrompt(name string) (string, bool) {
	raw, err := defaults.ReadFile(path.Join("defaults", name+promptExt))
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(raw)), true
}

// ShippedPrompts serves the embedded defaults and never touches the disk.
type ShippedPrompts struct{}

var _ driven.PromptStore = ShippedPrompts{}

func (ShippedPrompts) Load(name string) (string, error) {
	if text, ok := defaultPrompt(name); ok {
		return text, nil
	}
	return "", fmt.Errorf("prompt %q: %w", name, fs.ErrNotExist)
}

func (ShippedPrompts) Reload() {}

// PromptStore serves prompts from a directory the user can edit. The
// directory is seeded from the shipped defaults on first use; files that
// already exist are left alone. Reads are cached until Reload.
type PromptStore struct {
	dir string

	seedOnce sync.Once
	seedErr  error

	mu    sync.RWMutex
	cache map[string]string
}

// NewPromptStore returns a store rooted at dir, or HomeDir()/prompts when
// dir is empty. Nothing touches the disk until the first Load.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := HomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, "prompts")
	}
	return &PromptStore{dir: dir, cache: make(map[string]string)}, nil
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

// Load returns the named prompt, trimmed. A missing or unreadable file
// falls back to the shipped text; a name with no shipped text is an error.
func (s *PromptStore) Load(name string) (string, error) {
	s.seedOnce.Do(s.seed)

	s.mu.RLock()
	cached, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	text, err := s.read(name)
	if err != nil {
		if fallback, ok := defaultPrompt(name); ok {
			return fallback, nil
		}
		if s.seedErr != nil {
			return "", fmt.Errorf("prompt %q: %w", name, s.seedErr)
		}
		return "", fmt.Errorf("prompt %q: %w", name, err)
	}

	s.mu.Lock()
	if existing, ok := s.cache[name]; ok {
		text = existing
	} else {
		s.cache[name] = text
	}
	s.mu.Unlock()
	return text, nil
}

// Reload forgets cached prompts.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Watch calls Reload whenever a prompt file in the directory changes,
// until ctx is done. The returned channel gets a value per reload and is
// closed when watching stops.
func (s *PromptStore) Watch(ctx context.Context) (<-chan struct{}, error) {
	s.seedOnce.Do(s.seed)
	if s.seedErr != nil {
		return nil, s.seedErr
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("prompt watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", s.dir, err)
	}

	reloaded := make(chan struct{}, 1)
	go s.watch(ctx, watcher, reloaded)
	return reloaded, nil
}

func (s *PromptStore) watch(ctx context.Context, watcher *fsnotify.Watcher, reloaded chan<- struct{}) {
	defer close(reloaded)
	defer watcher.Close()

	const relevant = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("prompts: watcher: %v", err)
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Ext(event.Name) != promptExt || !event.Has(relevant) {
				continue
			}
			s.Reload()
			logger.Info("prompts: %s changed, cache cleared", filepath.Base(event.Name))
			select {
			case reloaded <- struct{}{}:
			default:
			}
		}
	}
}

// seed copies every shipped file that is missing from the directory.
func (s *PromptStore) seed() {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		s.seedErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	s.seedErr = fs.WalkDir(defaults, "defaults", func(name string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		target := filepath.Join(s.dir, d.Name())
		if _, err := os.Stat(target); !errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		raw, err := defaults.ReadFile(name)
		if err != nil {
			return err
		}
		if err := os.WriteFile(target, raw, 0600); err != nil {
			return fmt.Errorf("seed %s: %w", d.Name(), err)
		}
		return nil
	})
}

func (s *PromptStore) read(name string) (string, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, name+promptExt))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}
