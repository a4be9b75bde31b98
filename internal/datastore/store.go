package datastore

import (
	"sync"

	"github.com/namba3/patrol/internal/domain"
)

// Store is the crash-safe, single-process data store. No concurrent writers
// may touch it directly outside of the Actor (see actor.go) that mediates
// concurrent access.
type Store struct {
	path string

	mu   sync.RWMutex
	data map[domain.Id]domain.Data
}

// Open loads path into memory, treating a missing file as an empty store.
func Open(path string) (*Store, error) {
	data, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	return &Store{path: path, data: data}, nil
}

// Get returns a copy of id's record, if present.
func (s *Store) Get(id domain.Id) (domain.Data, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.data[id]
	return d, ok
}

// GetMultiple returns copies of every present record among ids.
func (s *Store) GetMultiple(ids []domain.Id) map[domain.Id]domain.Data {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[domain.Id]domain.Data, len(ids))
	for _, id := range ids {
		if d, ok := s.data[id]; ok {
			out[id] = d
		}
	}
	return out
}

// GetAll returns a snapshot of every record in the store.
func (s *Store) GetAll() map[domain.Id]domain.Data {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[domain.Id]domain.Data, len(s.data))
	for id, d := range s.data {
		out[id] = d
	}
	return out
}

// Update records a new digest for id, observed at the current instant. It
// returns the new last_updated timestamp iff this call caused last_updated
// to advance: the prior hash was absent, or differed from h. last_checked is
// always advanced to now. On a persistence failure the in-memory map is
// restored to its pre-call value and the error is returned.
func (s *Store) Update(id domain.Id, h domain.Hash) (*domain.Timestamp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prior, had := s.data[id]
	now := domain.Now()

	next := s.computeNext(prior, had, h, now)
	s.data[id] = next

	if err := saveFile(s.path, s.data); err != nil {
		if had {
			s.data[id] = prior
		} else {
			delete(s.data, id)
		}
		return nil, err
	}

	if next.LastUpdated != nil && (!had || prior.LastUpdated == nil || prior.LastUpdated.Time() != next.LastUpdated.Time()) {
		ts := *next.LastUpdated
		return &ts, nil
	}
	return nil, nil
}

// computeNext applies the change-detection rule: last_updated advances
// exactly when the prior hash was absent or differed from h.
func (s *Store) computeNext(prior domain.Data, had bool, h domain.Hash, now domain.Timestamp) domain.Data {
	changed := !had || prior.Hash == nil || !prior.Hash.Equal(h)

	next := domain.Data{LastChecked: now}
	hh := h
	next.Hash = &hh

	if changed {
		ts := now
		next.LastUpdated = &ts
	} else {
		next.LastUpdated = prior.LastUpdated
	}
	return next
}

// updateEntry is one (id, hash) pair. UpdateMultiple takes its batch as a
// map and does not use this type.
type updateEntry struct {
	Id   domain.Id
	Hash domain.Hash
}

// UpdateMultiple applies Update's rule to every entry in updates with a
// single persistence call. On failure every entry in the batch is restored.
func (s *Store) UpdateMultiple(updates map[domain.Id]domain.Hash) (map[domain.Id]domain.Timestamp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type priorEntry struct {
		data domain.Data
		had  bool
	}
	priors := make(map[domain.Id]priorEntry, len(updates))
	results := make(map[domain.Id]domain.Timestamp, len(updates))
	now := domain.Now()

	for id, h := range updates {
		prior, had := s.data[id]
		priors[id] = priorEntry{data: prior, had: had}

		next := s.computeNext(prior, had, h, now)
		s.data[id] = next

		if next.LastUpdated != nil && (!had || prior.LastUpdated == nil || prior.LastUpdated.Time() != next.LastUpdated.Time()) {
			results[id] = *next.LastUpdated
		}
	}

	if err := saveFile(s.path, s.data); err != nil {
		for id, p := range priors {
			if p.had {
				s.data[id] = p.data
			} else {
				delete(s.data, id)
			}
		}
		return nil, err
	}

	return results, nil
}

// Delete removes id's record, returning the prior value if one existed. On a
// persistence failure the in-memory map is restored before the error is
// returned.
func (s *Store) Delete(id domain.Id) (*domain.Data, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prior, had := s.data[id]
	if !had {
		return nil, nil
	}
	delete(s.data, id)

	if err := saveFile(s.path, s.data); err != nil {
		s.data[id] = prior
		return nil, err
	}
	return &prior, nil
}
