// Package file provides a TOML-backed access directory. The file lists
// knowledge spaces, their visibility, and their members, and is reloaded
// automatically when it changes on disk.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"

	"github.com/corpora-labs/corpora/internal/core/domain"
	"github.com/corpora-labs/corpora/internal/core/ports/driven"
	"github.com/corpora-labs/corpora/internal/logger"
)

// Ensure Directory implements the interface.
var _ driven.AccessDirectory = (*Directory)(nil)

// spaceEntry is the TOML representation of one space.
type spaceEntry struct {
	ID         string   `toml:"id"`
	Name       string   `toml:"name"`
	Visibility string   `toml:"visibility"`
	Members    []string `toml:"members"`
}

// directoryFile is the TOML file layout.
type directoryFile struct {
	Spaces []spaceEntry `toml:"spaces"`
}

// Directory resolves space visibility from a TOML file. The file is
// watched with fsnotify so membership edits take effect without a
// restart.
type Directory struct {
	mu       sync.RWMutex
	filePath string
	spaces   map[string]domain.Space

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewDirectory creates a directory backed by the given TOML file and
// starts watching it for changes.
func NewDirectory(filePath string) (*Directory, error) {
	d := &Directory{
		filePath: filePath,
		spaces:   make(map[string]domain.Space),
		done:     make(chan struct{}),
	}

	if err := d.Load(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	// Watch the parent directory: editors often replace the file, which
	// drops a watch placed on the file itself.
	if err := watcher.Add(filepath.Dir(filePath)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching access file directory: %w", err)
	}

	d.watcher = watcher
	go d.watch()

	return d, nil
}

// Load reads and parses the TOML file, replacing the in-memory state.
func (d *Directory) Load() error {
	data, err := os.ReadFile(d.filePath)
	if err != nil {
		return fmt.Errorf("reading access file: %w", err)
	}

	var parsed directoryFile
	if err := toml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("parsing access file: %w", err)
	}

	spaces := make(map[string]domain.Space, len(parsed.Spaces))
	for _, entry := range parsed.Spaces {
		if entry.ID == "" {
			continue
		}
		visibility := domain.Visibility(entry.Visibility)
		if visibility != domain.VisibilityPublic && visibility != domain.VisibilityPrivate {
			return fmt.Errorf("space %q: unknown visibility %q", entry.ID, entry.Visibility)
		}
		spaces[entry.ID] = domain.Space{
			ID:         entry.ID,
			Name:       entry.Name,
			Visibility: visibility,
			Members:    entry.Members,
		}
	}

	d.mu.Lock()
	d.spaces = spaces
	d.mu.Unlock()
	return nil
}

// watch reloads the file on write or create events until Close.
func (d *Directory) watch() {
	for {
		select {
		case <-d.done:
			return
		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if event.Name != d.filePath {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := d.Load(); err != nil {
				// Keep the last good state on parse errors.
				logger.Warn("access file reload failed: %v", err)
				continue
			}
			logger.Debug("access file reloaded: %s", d.filePath)
		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("access file watcher: %v", err)
		}
	}
}

// VisibleSpaces returns the IDs of all spaces the user may read: every
// public space plus the private spaces the user is a member of.
func (d *Directory) VisibleSpaces(_ context.Context, userID string) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var visible []string
	for id, space := range d.spaces {
		if space.Readable(userID) {
			visible = append(visible, id)
		}
	}
	sort.Strings(visible)
	return visible, nil
}

// Space returns a space definition by ID.
func (d *Directory) Space(id string) (domain.Space, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	space, ok := d.spaces[id]
	return space, ok
}

// Spaces returns all space definitions sorted by ID.
func (d *Directory) Spaces() []domain.Space {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]domain.Space, 0, len(d.spaces))
	for _, space := range d.spaces {
		out = append(out, space)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Path returns the access file path.
func (d *Directory) Path() string {
	return d.filePath
}

// Close stops the file watcher.
func (d *Directory) Close() error {
	close(d.done)
	if d.watcher != nil {
		return d.watcher.Close()
	}
	return nil
}
