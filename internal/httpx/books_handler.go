package httpx

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/ariefcatur/go-realtime-bookorders/internal/catalog"
	"github.com/go-chi/chi/v5"
)

type BookLister interface {
	Books() []catalog.Book
	Book(id int) (catalog.Book, bool)
}

type BooksHandler struct {
	Catalog BookLister
}

func (h *BooksHandler) Register(r chi.Router) {
	r.Get("/books", h.listBooks)
	r.Get("/books/{id}", h.getBook)
}

func (h *BooksHandler) listBooks(w http.ResponseWriter, r *http.Request) {
	books := h.Catalog.Books()
	if len(books) == 0 {
		writeError(w, http.StatusNotFound, "books not found")
		return
	}
	writeJSON(w, http.StatusOK, books)
}

func (h *BooksHandler) getBook(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("book with ID %s not found.", raw))
		return
	}
	b, ok := h.Catalog.Book(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("book with ID %d not found.", id))
		return
	}
	writeJSON(w, http.StatusOK, b)
}
