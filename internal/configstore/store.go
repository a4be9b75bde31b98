package configstore

import (
	"sync"

	"github.com/namba3/patrol/internal/domain"
)

// Store is the single-writer, single-owner config store. It is intended to
// be driven exclusively by the engine's tick goroutine, but the internal
// mutex guards the shared map even so, since report rendering and tests may
// read concurrently with a tick in progress.
type Store struct {
	path string

	mu      sync.RWMutex
	configs map[domain.Id]domain.Config
}

// Open loads path (creating an empty store in memory if it does not yet
// exist; the file itself is created on first Update).
func Open(path string) (*Store, error) {
	configs, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	return &Store{path: path, configs: configs}, nil
}

// GetAll returns a snapshot of the current configuration. Change detection
// and tick scheduling depend only on this returning a consistent view of all
// currently known targets.
func (s *Store) GetAll() map[domain.Id]domain.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[domain.Id]domain.Config, len(s.configs))
	for id, cfg := range s.configs {
		out[id] = cfg
	}
	return out
}

// Update upserts config for id. On a persistence failure the in-memory map
// is restored to its pre-call value before the error is returned.
func (s *Store) Update(id domain.Id, cfg domain.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prior, had := s.configs[id]
	s.configs[id] = cfg

	if err := saveFile(s.path, s.configs); err != nil {
		if had {
			s.configs[id] = prior
		} else {
			delete(s.configs, id)
		}
		return err
	}
	return nil
}

// Delete removes id's config, returning the prior value if one existed. On a
// persistence failure the in-memory map is restored before the error is
// returned.
func (s *Store) Delete(id domain.Id) (*domain.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prior, had := s.configs[id]
	if !had {
		return nil, nil
	}
	delete(s.configs, id)

	if err := saveFile(s.path, s.configs); err != nil {
		s.configs[id] = prior
		return nil, err
	}
	return &prior, nil
}
