package prompts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

var ErrNotFound = errors.New("prompt not found")

// Loader resolves prompt templates from <dir>/<name>.md or <dir>/<name>.txt
// and caches them per name. The cache lives until restart, same as a deploy
// of the prompt files themselves.
type Loader struct {
	dir string

	mu    sync.RWMutex
	cache map[string]string
}

func NewLoader(dir string) *Loader {
	return &Loader{
		dir:   dir,
		cache: make(map[string]string),
	}
}

func (l *Loader) Load(name string) (string, error) {
	if name == "" {
		return "", ErrNotFound
	}

	l.mu.RLock()
	cached, ok := l.cache[name]
	l.mu.RUnlock()
	if ok {
		return cached, nil
	}

	for _, ext := range []string{".md", ".txt"} {
		data, err := os.ReadFile(filepath.Join(l.dir, name+ext))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return "", fmt.Errorf("read prompt %s: %w", name, err)
		}

		text := string(data)
		l.mu.Lock()
		l.cache[name] = text
		l.mu.Unlock()
		return text, nil
	}

	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}

func (l *Loader) List() []string {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".md" && ext != ".txt" {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ext))
	}

	sort.Strings(names)
	return names
}
