package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"gmb-scraper/models"
	"gmb-scraper/utils"
)

const listingsSheet = "Listings"

// Exporter writes the run's result set in one go.
type Exporter interface {
	Write(listings []models.Listing) error
}

// NewExporter picks the writer from the output file extension (.xlsx or .csv).
func NewExporter(path string, log *utils.Logger) (Exporter, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return NewExcelWriter(path, log), nil
	case ".csv":
		return NewCSVWriter(path, log), nil
	default:
		return nil, fmt.Errorf("unsupported export format for %s", path)
	}
}

// ExcelWriter saves listings to an .xlsx workbook with a single sheet.
type ExcelWriter struct {
	path string
	log  *utils.Logger
}

func NewExcelWriter(path string, log *utils.Logger) *ExcelWriter {
	return &ExcelWriter{path: path, log: log}
}

// Write overwrites the workbook at path. Absent fields become empty cells;
// rating and review count are stored as numbers.
func (w *ExcelWriter) Write(listings []models.Listing) error {
	if len(listings) == 0 {
		w.log.Warn("No listings to write")
		return nil
	}
	if err := ensureDir(w.path); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", listingsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for col, name := range models.ExportColumns {
		if err := setCell(f, col+1, 1, name); err != nil {
			return err
		}
	}

	for i, l := range listings {
		row := i + 2
		for col, v := range listingCells(l) {
			if v == nil {
				continue
			}
			if err := setCell(f, col+1, row, v); err != nil {
				return err
			}
		}
	}

	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}

	w.log.Success("Saved %d listings → %s", len(listings), w.path)
	return nil
}

func setCell(f *excelize.File, col, row int, v interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetCellValue(listingsSheet, cell, v); err != nil {
		return fmt.Errorf("set cell %s: %w", cell, err)
	}
	return nil
}

// listingCells returns one value per export column; nil marks an absent field.
func listingCells(l models.Listing) []interface{} {
	cells := []interface{}{l.Keyword, nil, nil, nil, nil, nil, nil, nil}
	if l.Name != nil {
		cells[1] = *l.Name
	}
	if l.Rating != nil {
		cells[2] = *l.Rating
	}
	if l.ReviewCount != nil {
		cells[3] = *l.ReviewCount
	}
	if l.Category != nil {
		cells[4] = *l.Category
	}
	if l.YearsInBusiness != nil {
		cells[5] = *l.YearsInBusiness
	}
	if l.Address != nil {
		cells[6] = *l.Address
	}
	if l.Phone != nil {
		cells[7] = *l.Phone
	}
	return cells
}

func listingRow(l models.Listing) []string {
	cells := listingCells(l)
	row := make([]string, len(cells))
	for i, v := range cells {
		switch x := v.(type) {
		case nil:
		case float64:
			row[i] = strconv.FormatFloat(x, 'f', -1, 64)
		case int:
			row[i] = strconv.Itoa(x)
		case string:
			row[i] = x
		}
	}
	return row
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("could not create output dir: %w", err)
	}
	return nil
}
