package catalog

import (
	"fmt"
	"sort"
	"sync"
)

// Store holds the book catalog and the stock ledger. Books never change after
// construction; stock is guarded by mu.
type Store struct {
	books map[int]Book

	mu    sync.RWMutex
	stock map[int]int
}

func NewStore(books []Book, stock map[int]int) (*Store, error) {
	s := &Store{
		books: make(map[int]Book, len(books)),
		stock: make(map[int]int, len(stock)),
	}
	for _, b := range books {
		if _, dup := s.books[b.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate book id %d", b.ID)
		}
		s.books[b.ID] = b
	}
	for id, n := range stock {
		if n < 0 {
			return nil, fmt.Errorf("catalog: negative stock %d for book %d", n, id)
		}
		s.stock[id] = n
	}
	return s, nil
}

// Books returns every book ordered by id.
func (s *Store) Books() []Book {
	out := make([]Book, 0, len(s.books))
	for _, b := range s.books {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) Book(id int) (Book, bool) {
	b, ok := s.books[id]
	return b, ok
}

// Stock returns the units on hand, 0 for books without a stock entry.
func (s *Store) Stock(id int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stock[id]
}

func (s *Store) Titles() []string {
	books := s.Books()
	out := make([]string, 0, len(books))
	for _, b := range books {
		out = append(out, b.Title)
	}
	return out
}

func (s *Store) Len() int { return len(s.books) }
