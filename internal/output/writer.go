package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"lenta/parser/internal/domain"
)

// SaveProducts writes the product list as one pretty-printed UTF-8 JSON
// array. HTML escaping is off so Cyrillic titles stay literal in the file.
func SaveProducts(filename string, products []domain.Product) error {
	if err := ensureDir(filename); err != nil {
		return err
	}

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "    ")
	if err := encoder.Encode(products); err != nil {
		return fmt.Errorf("encode products: %w", err)
	}

	return nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
