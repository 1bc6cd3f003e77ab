package output

import (
	"encoding/json"
	"io"

	"github.com/law-makers/screengrab/pkg/models"
)

// WriteJSON writes the collections as an indented JSON array in the persisted shape
func WriteJSON(w io.Writer, collections []models.ScreenCollection) error {
	if collections == nil {
		collections = []models.ScreenCollection{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(collections)
}
