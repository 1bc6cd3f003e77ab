package output

import (
	"encoding/csv"
	"html"
	"io"
	"strconv"
	"time"

	"github.com/law-makers/screengrab/pkg/models"
)

var csvHeader = []string{"id", "name", "source_url", "logo_url", "date_added", "date_updated", "index", "screen_url"}

// WriteCSV writes one row per screen. Collection columns repeat on every
// row so the file can be filtered without joins.
func WriteCSV(w io.Writer, collections []models.ScreenCollection) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return err
	}

	for _, c := range collections {
		added := formatMillis(c.DateAdded)
		updated := formatMillis(c.DateUpdated)
		for i, screen := range c.Screens {
			row := []string{
				c.ID,
				html.UnescapeString(c.Name),
				c.SourceURL,
				c.LogoURL,
				added,
				updated,
				strconv.Itoa(i + 1),
				screen,
			}
			if err := writer.Write(row); err != nil {
				return err
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatMillis(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
