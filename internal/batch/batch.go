// Package batch keeps the products a user has accepted for export, in the
// order they were added.
package batch

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/maltedev/markaz-exporter/internal/expand"
	"github.com/maltedev/markaz-exporter/internal/models"
)

var (
	ErrNotSuccessful   = errors.New("only successfully scraped products can be added")
	ErrIndexOutOfRange = errors.New("product index out of range")
)

type Entry struct {
	Product     *models.ProductRecord `json:"product"`
	Adjustments expand.Adjustments    `json:"adjustments"`
	AddedAt     time.Time             `json:"added_at"`
}

type Store struct {
	mu       sync.RWMutex
	entries  []Entry
	expander *expand.Expander
}

func New(expander *expand.Expander) *Store {
	return &Store{expander: expander}
}

// Add appends a successful record with its price adjustments and returns
// its index.
func (s *Store) Add(rec *models.ProductRecord, adj expand.Adjustments) (int, error) {
	if !rec.Succeeded() {
		return -1, ErrNotSuccessful
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, Entry{
		Product:     rec,
		Adjustments: adj,
		AddedAt:     time.Now(),
	})
	return len(s.entries) - 1, nil
}

func (s *Store) Remove(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.entries) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	s.entries = append(s.entries[:index], s.entries[index+1:]...)
	return nil
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Entries returns a copy of the current entries.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *Store) Products() []*models.ProductRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.ProductRecord, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Product
	}
	return out
}

// Rows expands every entry in insertion order. The entry index feeds the
// handle fallback for products without title or base SKU.
func (s *Store) Rows() []models.FlatRow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []models.FlatRow
	for i, e := range s.entries {
		rows = append(rows, s.expander.Expand(e.Product, e.Adjustments, i)...)
	}
	return rows
}
