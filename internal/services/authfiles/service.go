// Package authfiles provides a read-only view of the stored auth-file directory
// that follows changes on disk.
package authfiles

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/j-veylop/authquota/internal/logger"
	"github.com/j-veylop/authquota/internal/models"
	"github.com/j-veylop/authquota/internal/services/dirwatch"
)

// Event represents an auth-file service event.
type Event struct {
	Error error
	Type  EventType
}

// EventType defines the type of auth-file event.
type EventType int

const (
	// EventAuthFilesLoaded fires after the initial load.
	EventAuthFilesLoaded EventType = iota
	// EventAuthFilesChanged fires after the directory changed on disk.
	EventAuthFilesChanged
	// EventError reports a watcher or reload failure.
	EventError
)

// Service keeps the auth files in a directory loaded.
type Service struct {
	watcher   *dirwatch.Watcher
	eventChan chan Event
	dir       string
	files     []models.AuthFile
	mu        sync.RWMutex
}

// New loads dir and starts watching it.
func New(dir string) (*Service, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create auth directory: %w", err)
	}

	s := &Service{
		dir:       dir,
		eventChan: make(chan Event, 100),
	}

	if err := s.Reload(); err != nil {
		return nil, fmt.Errorf("failed to load auth files: %w", err)
	}

	w, err := dirwatch.Start(dir, ".json", dirwatch.DefaultDebounce, s.handleChange, func(err error) {
		s.sendEvent(Event{Type: EventError, Error: err})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start file watcher: %w", err)
	}
	s.watcher = w

	s.sendEvent(Event{Type: EventAuthFilesLoaded})
	return s, nil
}

// Events returns the event channel for subscribing to auth-file changes.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// Files returns a copy of all auth files sorted by name.
func (s *Service) Files() []models.AuthFile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	files := make([]models.AuthFile, len(s.files))
	for i := range s.files {
		files[i] = s.files[i].Clone()
	}
	return files
}

// Get returns the auth file with the given name or id.
func (s *Service) Get(key string) (models.AuthFile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.files {
		if s.files[i].Name == key || s.files[i].ID == key {
			return s.files[i].Clone(), true
		}
	}
	return models.AuthFile{}, false
}

// Count returns the number of loaded auth files.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

// Reload re-reads the directory. Files that fail to parse are skipped.
func (s *Service) Reload() error {
	files, err := LoadDir(s.dir)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.files = files
	s.mu.Unlock()
	return nil
}

// LoadDir reads every *.json auth file in dir, sorted by name.
func LoadDir(dir string) ([]models.AuthFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read auth directory: %w", err)
	}

	files := make([]models.AuthFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		file, err := loadFile(path)
		if err != nil {
			logger.Warn("skipping auth file", "path", path, "error", err)
			continue
		}
		files = append(files, file)
	}

	sort.SliceStable(files, func(i, j int) bool {
		return strings.ToLower(files[i].Name) < strings.ToLower(files[j].Name)
	})
	return files, nil
}

func loadFile(path string) (models.AuthFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.AuthFile{}, err
	}

	var file models.AuthFile
	if err := json.Unmarshal(data, &file); err != nil {
		return models.AuthFile{}, err
	}

	file.Path = path
	if file.Name == "" {
		file.Name = filepath.Base(path)
	}
	if info, err := os.Stat(path); err == nil {
		file.ModTime = info.ModTime()
	}
	return file, nil
}

func (s *Service) handleChange() {
	if err := s.Reload(); err != nil {
		s.sendEvent(Event{Type: EventError, Error: err})
		return
	}
	s.sendEvent(Event{Type: EventAuthFilesChanged})
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Service) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
		// Channel full, drop oldest event
		select {
		case <-s.eventChan:
		default:
		}
		select {
		case s.eventChan <- event:
		default:
		}
	}
}

// Close stops the file watcher.
func (s *Service) Close() error {
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}
