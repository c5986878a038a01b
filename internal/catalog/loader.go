package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

type fileCatalog struct {
	Books []Book         `json:"books"`
	Stock map[string]int `json:"stock"`
}

// Load reads a catalog file of the form
//
//	{"books": [{"id": 1, "title": "...", "price": "10.00"}], "stock": {"1": 5}}
//
// An empty path yields the built-in seed catalog.
func Load(path string) (*Store, error) {
	if path == "" {
		return Seed()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(b)
}

func Parse(b []byte) (*Store, error) {
	var fc fileCatalog
	if err := json.Unmarshal(b, &fc); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	stock := make(map[int]int, len(fc.Stock))
	for k, n := range fc.Stock {
		id, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("catalog: stock key %q is not a book id", k)
		}
		stock[id] = n
	}
	return NewStore(fc.Books, stock)
}
