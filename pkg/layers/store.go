package layers

import (
	"fmt"
	"sync"

	log "github.com/apex/log"
	xxhash3 "github.com/zeebo/xxh3"
	yaml "gopkg.in/yaml.v3"
)

type Snapshot[T any] struct {
	Name    string     `yaml:"name"`
	Entries []Entry[T] `yaml:"entries"`
}

// Store keeps named lists in a Database as YAML snapshots. It remembers the
// digest of the last snapshot written or read for every name and skips
// writes that would not change the stored bytes.
type Store[T any] struct {
	db      Database
	digests map[string]uint64
	mtx     sync.Mutex
	logger  *log.Entry
}

func NewStore[T any](db Database) *Store[T] {
	return &Store[T]{
		db:      db,
		digests: make(map[string]uint64),
		logger:  log.WithField("module", "store"),
	}
}

func (s *Store[T]) Encode(name string, l *List[T]) ([]byte, error) {
	return yaml.Marshal(Snapshot[T]{Name: name, Entries: l.Entries()})
}

// Save writes l under name and reports whether anything was written.
func (s *Store[T]) Save(name string, l *List[T]) (bool, error) {
	// encode under the lock so concurrent savers write in snapshot order
	s.mtx.Lock()
	defer s.mtx.Unlock()
	buf, err := s.Encode(name, l)
	if err != nil {
		return false, fmt.Errorf("layers: encode %q: %w", name, err)
	}
	sum := xxhash3.Hash(buf)
	if last, ok := s.digests[name]; ok && last == sum {
		return false, nil
	}
	if err := s.db.Set([]byte(name), buf); err != nil {
		return false, fmt.Errorf("layers: save %q: %w", name, err)
	}
	s.digests[name] = sum
	s.logger.WithFields(log.Fields{"list": name, "bytes": len(buf)}).Debug("Saved.")
	return true, nil
}

// Load returns the list stored under name, or an empty list if there is none.
func (s *Store[T]) Load(name string) (*List[T], error) {
	buf, err := s.db.Get([]byte(name))
	if err != nil {
		return nil, fmt.Errorf("layers: read %q: %w", name, err)
	}
	if buf == nil {
		return NewList[T](), nil
	}
	var snap Snapshot[T]
	if err := yaml.Unmarshal(buf, &snap); err != nil {
		return nil, fmt.Errorf("layers: decode %q: %w", name, err)
	}
	l, err := NewListFrom(snap.Entries)
	if err != nil {
		return nil, fmt.Errorf("layers: load %q: %w", name, err)
	}
	s.mtx.Lock()
	s.digests[name] = xxhash3.Hash(buf)
	s.mtx.Unlock()
	return l, nil
}

func (s *Store[T]) Drop(name string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	delete(s.digests, name)
	return s.db.Remove([]byte(name))
}

// Persist saves l under name after every commit.
func (s *Store[T]) Persist(name string, l *List[T]) *Subscription[T] {
	return l.Subscribe(func(ch Change[T]) {
		if _, err := s.Save(name, l); err != nil {
			s.logger.WithError(err).WithField("revision", ch.Revision).Error("Unable to persist list.")
		}
	})
}
