package store

import (
	"time"

	urlutil "github.com/law-makers/screengrab/internal/utils/url"
	"github.com/law-makers/screengrab/pkg/models"
)

// CollectionID derives a collection id from the last non-empty path segment
// of sourceURL, falling back to a slug of name
func CollectionID(sourceURL, name string) string {
	if seg := urlutil.LastPathSegment(sourceURL); seg != "" {
		return seg
	}
	return urlutil.Slugify(name)
}

// Upsert merges incoming into existing and returns the new sequence.
// An entry matches when its name or its id equals the incoming one; the
// first match is replaced in place, keeping its dateAdded. Without a match
// incoming is prepended. existing is not modified.
func Upsert(existing []models.ScreenCollection, incoming models.ScreenCollection, now time.Time) ([]models.ScreenCollection, bool) {
	ts := now.UnixMilli()
	incoming.ScreenCount = len(incoming.Screens)
	incoming.DateUpdated = ts

	for i, c := range existing {
		if c.Name != incoming.Name && c.ID != incoming.ID {
			continue
		}
		incoming.DateAdded = c.DateAdded
		out := make([]models.ScreenCollection, len(existing))
		copy(out, existing)
		out[i] = incoming
		return out, true
	}

	incoming.DateAdded = ts
	out := make([]models.ScreenCollection, 0, len(existing)+1)
	out = append(out, incoming)
	out = append(out, existing...)
	return out, false
}
