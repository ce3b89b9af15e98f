package storage

import (
	"encoding/csv"
	"fmt"
	"os"

	"gmb-scraper/models"
	"gmb-scraper/utils"
)

// CSVWriter saves listings to a CSV file with the same columns as the xlsx export.
type CSVWriter struct {
	path string
	log  *utils.Logger
}

func NewCSVWriter(path string, log *utils.Logger) *CSVWriter {
	return &CSVWriter{path: path, log: log}
}

// Write replaces the file at path with a header row plus one row per listing.
func (w *CSVWriter) Write(listings []models.Listing) error {
	if len(listings) == 0 {
		w.log.Warn("No listings to write")
		return nil
	}

	if err := ensureDir(w.path); err != nil {
		return err
	}

	file, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("could not create file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write(models.ExportColumns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, l := range listings {
		if err := writer.Write(listingRow(l)); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}

	// must flush or data stays in buffer
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("csv write error: %w", err)
	}

	w.log.Success("Saved %d listings → %s", len(listings), w.path)
	return nil
}
