// Package jobconfig holds the editable scraping job configuration of one session.
package jobconfig

import (
	"sync"

	"github.com/law-makers/scrapejob/pkg/models"
	"github.com/rs/zerolog/log"
)

// Store holds a JobConfig and applies list-safe edits to it.
//
// Every effective mutation installs a new snapshot (fresh Fields slice) so observers
// comparing snapshots by identity see the change. Mutations that do nothing, such as
// removing the first row or touching an index out of range, leave the snapshot and the
// version untouched and notify nobody. Setting a value it already has is such a no-op.
type Store struct {
	mu          sync.Mutex
	cfg         models.JobConfig
	version     uint64
	subscribers map[int]func(models.JobConfig)
	nextSubID   int
}

// NewStore creates a store holding a blank configuration with one empty field
func NewStore() *Store {
	return &Store{
		cfg:         models.NewJobConfig(),
		subscribers: make(map[int]func(models.JobConfig)),
	}
}

// Snapshot returns a copy of the current configuration
func (s *Store) Snapshot() models.JobConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Clone()
}

// Version returns the number of effective mutations applied so far
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Subscribe registers fn to receive every new snapshot. The returned func removes it.
func (s *Store) Subscribe(fn func(models.JobConfig)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// SetURL replaces the target page address
func (s *Store) SetURL(value string) models.JobConfig {
	return s.mutate(func(cfg models.JobConfig) (models.JobConfig, bool) {
		changed := cfg.URL != value
		cfg.URL = value
		return cfg, changed
	})
}

// SetRootSelector replaces the selector identifying each repeated item
func (s *Store) SetRootSelector(value string) models.JobConfig {
	return s.mutate(func(cfg models.JobConfig) (models.JobConfig, bool) {
		changed := cfg.RootSelector != value
		cfg.RootSelector = value
		return cfg, changed
	})
}

// AddField appends an empty extractor to the end of the list
func (s *Store) AddField() models.JobConfig {
	return s.mutate(func(cfg models.JobConfig) (models.JobConfig, bool) {
		cfg.Fields = append(cfg.Fields, models.FieldExtractor{})
		return cfg, true
	})
}

// RemoveField removes the extractor at index, shifting later ones left.
// Index 0 is never removed; out-of-range indexes are ignored.
func (s *Store) RemoveField(index int) models.JobConfig {
	return s.mutate(func(cfg models.JobConfig) (models.JobConfig, bool) {
		if index <= 0 || index >= len(cfg.Fields) {
			log.Debug().Int("index", index).Int("fields", len(cfg.Fields)).Msg("Ignoring field removal")
			return cfg, false
		}
		cfg.Fields = append(cfg.Fields[:index], cfg.Fields[index+1:]...)
		return cfg, true
	})
}

// UpdateField replaces one property of the extractor at index
func (s *Store) UpdateField(index int, property models.FieldProperty, value string) models.JobConfig {
	return s.mutate(func(cfg models.JobConfig) (models.JobConfig, bool) {
		if index < 0 || index >= len(cfg.Fields) {
			log.Debug().Int("index", index).Msg("Ignoring update of missing field")
			return cfg, false
		}
		f := &cfg.Fields[index]
		switch property {
		case models.FieldName:
			if f.Name == value {
				return cfg, false
			}
			f.Name = value
		case models.FieldSelector:
			if f.Selector == value {
				return cfg, false
			}
			f.Selector = value
		default:
			log.Debug().Str("property", string(property)).Msg("Ignoring update of unknown property")
			return cfg, false
		}
		return cfg, true
	})
}

// Replace installs a whole configuration, e.g. one read from a job file.
// An empty field list is normalised to a single blank extractor.
func (s *Store) Replace(cfg models.JobConfig) models.JobConfig {
	return s.mutate(func(models.JobConfig) (models.JobConfig, bool) {
		next := cfg.Clone()
		if len(next.Fields) == 0 {
			next.Fields = []models.FieldExtractor{{}}
		}
		return next, true
	})
}

// mutate runs fn against a private copy and publishes it if fn reports a change.
// Subscribers are called outside the lock.
func (s *Store) mutate(fn func(models.JobConfig) (models.JobConfig, bool)) models.JobConfig {
	s.mu.Lock()
	next, changed := fn(s.cfg.Clone())
	if !changed {
		current := s.cfg.Clone()
		s.mu.Unlock()
		return current
	}

	s.cfg = next
	s.version++
	subs := make([]func(models.JobConfig), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(next.Clone())
	}
	return next.Clone()
}
