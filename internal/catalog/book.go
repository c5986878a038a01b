package catalog

import "github.com/shopspring/decimal"

type Book struct {
	ID     int             `json:"id"`
	Title  string          `json:"title"`
	Author string          `json:"author"`
	Year   int             `json:"year"`
	ISBN   string          `json:"isbn"`
	Price  decimal.Decimal `json:"price"`
}
