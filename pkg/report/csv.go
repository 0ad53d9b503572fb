// Package report renders duplicate groups for offline review
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/Ramsey-B/fern/pkg/models"
)

const (
	// ContentType is the media type of the CSV export
	ContentType = "text/csv; charset=utf-8"
	// StatusPossibleDuplicate marks every exported row
	StatusPossibleDuplicate = "Possible duplicate"
)

// Header is the first row of the export
var Header = []string{"Name", "Email", "Phone", "Tax ID", "Status"}

// Filename returns the download name for an export taken at t
func Filename(t time.Time) string {
	return fmt.Sprintf("possible-duplicates-%s.csv", t.UTC().Format("20060102-150405"))
}

// WriteCSV writes one row per client in any group, groups in the given order
func WriteCSV(w io.Writer, groups []models.DuplicateGroup) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, g := range groups {
		for _, c := range g.Clients {
			if err := writer.Write([]string{c.Name, c.Email, c.Phone, c.TaxID, StatusPossibleDuplicate}); err != nil {
				return fmt.Errorf("failed to write csv row for client %s: %w", c.ID, err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}
