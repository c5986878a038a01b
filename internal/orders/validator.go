package orders

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ariefcatur/go-realtime-bookorders/internal/catalog"
	"github.com/shopspring/decimal"
)

// Catalog is the read side the validator needs.
type Catalog interface {
	Book(id int) (catalog.Book, bool)
	Stock(id int) int
}

type Validator struct {
	catalog Catalog
}

func NewValidator(c Catalog) *Validator {
	return &Validator{catalog: c}
}

// Validate checks lines in order and stops at the first bad one.
//
// The stock check reads the current level without reserving anything: two
// concurrent orders for the same book can both pass even when their combined
// quantity exceeds what is on hand.
func (v *Validator) Validate(lines []LineRequest) (Draft, error) {
	var (
		items = make([]LineDetail, 0, len(lines))
		total = decimal.Zero
	)
	for _, ln := range lines {
		id, err := parseBookID(ln.BookID)
		var rangeErr *idRangeError
		switch {
		case errors.As(err, &rangeErr):
			return Draft{}, invalid(CodeUnknownBookID, fmt.Sprintf("Invalid book_id: %s", rangeErr.digits))
		case err != nil:
			return Draft{}, invalid(CodeInvalidBookIDFormat,
				fmt.Sprintf("Invalid book_id format: %s", displayRaw(ln.BookID)))
		}
		book, ok := v.catalog.Book(id)
		if !ok {
			return Draft{}, invalid(CodeUnknownBookID, fmt.Sprintf("Invalid book_id: %d", id))
		}
		qty, ok := parseQuantity(ln.Quantity)
		if !ok {
			return Draft{}, invalid(CodeInvalidQuantity,
				fmt.Sprintf("Invalid quantity (%s) for book_id: %d", displayRaw(ln.Quantity), id))
		}
		if stock := v.catalog.Stock(id); stock < qty {
			return Draft{}, invalid(CodeInsufficientStock,
				fmt.Sprintf("Not enough stock for '%s' (ID: %d). Available: %d", book.Title, id, stock))
		}

		items = append(items, LineDetail{
			BookID:       id,
			Title:        book.Title,
			Quantity:     qty,
			PricePerItem: book.Price,
		})
		total = total.Add(book.Price.Mul(decimal.NewFromInt(int64(qty))))
	}
	return Draft{Items: items, Total: total.Round(2)}, nil
}

var errBookIDFormat = errors.New("book_id is not an integer")

// idRangeError is a well-formed integer id that no catalog entry can have.
type idRangeError struct {
	digits string
}

func (e *idRangeError) Error() string { return "book_id out of range: " + e.digits }

// parseBookID accepts a JSON integer or a JSON string holding one.
func parseBookID(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, errBookIDFormat
	}
	s := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, errBookIDFormat
		}
		s = strings.TrimSpace(s)
	}
	id, err := strconv.Atoi(s)
	if errors.Is(err, strconv.ErrRange) {
		n, _ := new(big.Int).SetString(s, 10)
		return 0, &idRangeError{digits: n.String()}
	}
	if err != nil {
		return 0, errBookIDFormat
	}
	return id, nil
}

// parseQuantity defaults to 1 when the field is absent. Anything present must
// be a positive JSON integer.
func parseQuantity(raw json.RawMessage) (int, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 1, true
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func displayRaw(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "null"
	}
	var s string
	if raw[0] == '"' && json.Unmarshal(raw, &s) == nil {
		return s
	}
	return string(raw)
}
