package catalog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jcmexdev/storefront-cart/internal/pkg/money"
)

var xlsxColumns = []string{"id", "name", "price", "category"}

// LoadXLSX reads the first sheet of a workbook. The first row is a header
// naming the id, name, price and category columns in any order, optionally
// followed by description and image. Blank rows are skipped.
func LoadXLSX(r io.Reader) (*Catalog, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("catalog: open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("catalog: workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("catalog: read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("catalog: sheet %q is empty", sheets[0])
	}

	col := make(map[string]int, len(xlsxColumns))
	for i, h := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range xlsxColumns {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("catalog: sheet %q is missing the %q column", sheets[0], name)
		}
	}

	cell := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var products []Product
	for n, row := range rows[1:] {
		if strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}
		price, err := money.Parse(cell(row, "price"))
		if err != nil {
			cellName, _ := excelize.CoordinatesToCellName(col["price"]+1, n+2)
			return nil, fmt.Errorf("catalog: bad price in %s: %w", cellName, err)
		}
		products = append(products, Product{
			ID:          ProductID(cell(row, "id")),
			Name:        cell(row, "name"),
			Price:       price,
			Category:    cell(row, "category"),
			Description: cell(row, "description"),
			Image:       cell(row, "image"),
		})
	}
	return New(products)
}

// Load picks a loader from the file extension. An empty path yields Default.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %q: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return LoadHTML(f)
	case ".xlsx":
		return LoadXLSX(f)
	default:
		return nil, fmt.Errorf("catalog: unsupported catalog file %q", path)
	}
}
