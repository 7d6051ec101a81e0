package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	apperrors "github.com/GriffinCanCode/alertwatch/internal/errors"
)

// Store persists the Configuration to a YAML file and notifies observers on change.
type Store struct {
	path string

	mu        sync.Mutex
	current   Configuration
	observers map[int]func(Configuration)
	nextID    int
}

func NewStore(path string) *Store {
	return &Store{
		path:      path,
		current:   Default(),
		observers: make(map[int]func(Configuration)),
	}
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Current returns the last loaded or saved configuration.
func (s *Store) Current() Configuration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// Load reads the file. A missing file yields the defaults. Missing or invalid
// fields fall back to their defaults; the problems are returned as a
// ConfigInvalid error alongside the usable configuration.
func (s *Store) Load() (Configuration, error) {
	cfg, err := s.read()
	s.mu.Lock()
	s.current = cfg
	s.mu.Unlock()
	return cfg.Clone(), err
}

func (s *Store) read() (Configuration, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Default(), apperrors.Wrapf(err, apperrors.ConfigMissing, "read %s", s.path)
	}
	return decode(data)
}

// errUnparsable marks a file that is not a YAML mapping at all, as opposed to
// one with individual bad fields.
var errUnparsable = errors.New("settings file is not a YAML mapping")

func decode(data []byte) (Configuration, error) {
	raw, problems, err := parseRaw(data)
	if err != nil {
		return Default(), apperrors.Wrap(err, apperrors.ConfigInvalid, "parse settings")
	}
	cfg, invalid := raw.resolve()
	problems = append(problems, invalid...)
	if len(problems) > 0 {
		return cfg, apperrors.New(apperrors.ConfigInvalid, strings.Join(problems, "; "))
	}
	return cfg, nil
}

// Save validates cfg, writes it atomically and notifies observers.
func (s *Store) Save(cfg Configuration) error {
	s.mu.Lock()
	err := s.saveLocked(cfg)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify(cfg.Clone())
	return nil
}

// Update applies fn to a copy of the current configuration and saves the result.
func (s *Store) Update(fn func(*Configuration) error) (Configuration, error) {
	s.mu.Lock()
	next := s.current.Clone()
	if err := fn(&next); err != nil {
		s.mu.Unlock()
		return Configuration{}, err
	}
	err := s.saveLocked(next)
	s.mu.Unlock()
	if err != nil {
		return Configuration{}, err
	}
	s.notify(next.Clone())
	return next.Clone(), nil
}

func (s *Store) saveLocked(cfg Configuration) error {
	if err := cfg.Validate(); err != nil {
		return apperrors.Wrap(err, apperrors.ConfigInvalid, "invalid settings")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := writeAtomic(s.path, data); err != nil {
		return apperrors.Wrapf(err, apperrors.Internal, "write %s", s.path)
	}
	s.current = cfg.Clone()
	return nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// OnChange registers fn for every saved or reloaded configuration.
// The returned func unregisters it.
func (s *Store) OnChange(fn func(Configuration)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify(cfg Configuration) {
	s.mu.Lock()
	fns := make([]func(Configuration), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(cfg.Clone())
	}
}

// Reload re-reads the file and notifies observers if the content changed.
// A file that is not valid YAML, for example one caught mid-write, leaves the
// current configuration in place.
func (s *Store) Reload() error {
	cfg, err := s.read()
	if err != nil && (errors.Is(err, errUnparsable) || !apperrors.IsCode(err, apperrors.ConfigInvalid)) {
		return err
	}
	s.mu.Lock()
	changed := !s.current.Equal(cfg)
	s.current = cfg
	s.mu.Unlock()
	if changed {
		s.notify(cfg.Clone())
	}
	return err
}

// Watch reloads the file on external edits until ctx is done. The directory
// is watched so that editors replacing the file by rename are seen.
func (s *Store) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	dir := filepath.Dir(s.path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	name := filepath.Clean(s.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != name || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			if err := s.Reload(); err != nil {
				slog.Warn("Settings reload had problems", "path", s.path, "error", err)
			} else {
				slog.Debug("Settings reloaded", "path", s.path)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Error("Settings watcher error", "error", err)
		}
	}
}
