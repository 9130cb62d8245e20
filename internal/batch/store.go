package batch

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a record id does not exist in the store.
var ErrNotFound = errors.New("record not found")

// ErrAtEdge is returned when a record cannot move further in the
// requested direction.
var ErrAtEdge = errors.New("record already at edge")

// Store holds the ordered record collection for one batch. It is not
// safe for concurrent use; the owning layer serializes mutations and
// never mutates while a build consumes a snapshot.
type Store struct {
	id   string
	recs []Record
}

// NewStore creates an empty store with a fresh batch id.
func NewStore() *Store {
	return &Store{id: NewBatchID(time.Now())}
}

// BatchID returns the current batch id.
func (s *Store) BatchID() string { return s.id }

// Len returns the number of records in the store.
func (s *Store) Len() int { return len(s.recs) }

// Append adds a record, assigning an id when absent and defaulting the
// sort key to the insertion index.
func (s *Store) Append(r Record) Record {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Order < 0 {
		r.Order = len(s.recs)
	}
	s.recs = append(s.recs, r)
	return r
}

// Snapshot returns an immutable copy of the batch, records stable-sorted
// by ascending Order (ties keep insertion order). Record bytes are shared,
// never copied: they are immutable by contract.
func (s *Store) Snapshot() Batch {
	out := make([]Record, len(s.recs))
	copy(out, s.recs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return Batch{ID: s.id, Records: out}
}

// Move shifts the record one position up (delta -1) or down (delta +1)
// in the sorted sequence by swapping the two records' Order values in a
// single operation.
func (s *Store) Move(id string, delta int) error {
	snap := s.Snapshot().Records
	idx := -1
	for i, r := range snap {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNotFound
	}
	other := idx + delta
	if other < 0 || other >= len(snap) {
		return ErrAtEdge
	}
	a := s.find(snap[idx].ID)
	b := s.find(snap[other].ID)
	a.Order, b.Order = b.Order, a.Order
	return nil
}

// SetTitle updates the display title of a record.
func (s *Store) SetTitle(id, title string) error {
	r := s.find(id)
	if r == nil {
		return ErrNotFound
	}
	r.Title = title
	return nil
}

// Remove deletes a record from the batch.
func (s *Store) Remove(id string) error {
	for i := range s.recs {
		if s.recs[i].ID == id {
			s.recs = append(s.recs[:i], s.recs[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// ResetOrder reassigns contiguous Order values following the records'
// insertion sequence.
func (s *Store) ResetOrder() {
	for i := range s.recs {
		s.recs[i].Order = i
	}
}

// Reset clears all records and starts a new batch with a fresh id.
func (s *Store) Reset() {
	s.recs = nil
	s.id = NewBatchID(time.Now())
}

func (s *Store) find(id string) *Record {
	for i := range s.recs {
		if s.recs[i].ID == id {
			return &s.recs[i]
		}
	}
	return nil
}
