// internal/engine/metadata/extractor.go
package metadata

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/law-makers/screengrab/internal/config"
	"github.com/law-makers/screengrab/internal/engine"
	urlutil "github.com/law-makers/screengrab/internal/utils/url"
	"github.com/law-makers/screengrab/pkg/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
)

// Extractor derives a collection's name and logo from a page snapshot
type Extractor struct {
	h config.Heuristics
}

// NewExtractor creates an Extractor using the given heuristics
func NewExtractor(h config.Heuristics) *Extractor {
	return &Extractor{h: h}
}

// Extract reads the page snapshot and resolves name, logo and source URL.
// It has no side effects on the page. A page without a detectable name
// fails with NO_NAME.
func (e *Extractor) Extract(ctx context.Context, page engine.Page) (models.ScreenCollectionMeta, error) {
	snap, err := page.Snapshot(ctx)
	if err != nil {
		return models.ScreenCollectionMeta{}, engine.NewEngineError(engine.ErrCodeInvalidPage, "failed to read page metadata", err)
	}
	return e.FromSnapshot(snap)
}

// FromSnapshot resolves metadata from an already captured snapshot
func (e *Extractor) FromSnapshot(snap *engine.Snapshot) (models.ScreenCollectionMeta, error) {
	if snap == nil {
		return models.ScreenCollectionMeta{}, engine.NewEngineError(engine.ErrCodeNoName, engine.MsgNoName, nil)
	}

	raw := e.rawName(snap)
	if raw == "" {
		return models.ScreenCollectionMeta{}, engine.NewEngineError(engine.ErrCodeNoName, engine.MsgNoName, nil).
			WithDetail("url", snap.URL)
	}

	meta := models.ScreenCollectionMeta{
		Name:      html.EscapeString(raw),
		LogoURL:   e.Logo(snap.Logos, raw),
		SourceURL: snap.URL,
	}

	log.Debug().
		Str("name", meta.Name).
		Str("logo", meta.LogoURL).
		Msg("Extracted page metadata")

	return meta, nil
}

// rawName returns the unescaped name from the heading, falling back to the document title
func (e *Extractor) rawName(snap *engine.Snapshot) string {
	for _, text := range []string{snap.HeadingText, snap.DocumentTitle} {
		if name := e.cleanName(text); name != "" {
			return name
		}
	}
	return ""
}

func (e *Extractor) cleanName(text string) string {
	if sep := e.h.NameSeparator; sep != "" {
		text, _, _ = strings.Cut(text, sep)
	}
	return strings.TrimSpace(text)
}

// Logo applies the logo strategies in order: largest component image,
// first container image, first large-enough heading image. The first
// strategy with a match decides; its URL is validated and a failed
// validation yields the placeholder built from the first letter of name.
func (e *Extractor) Logo(candidates []engine.LogoCandidate, name string) string {
	match, ok := e.largestComponent(candidates)
	if !ok {
		match, ok = e.firstContainer(candidates)
	}
	if !ok {
		match, ok = e.firstHeading(candidates)
	}
	if ok {
		if u, valid := validLogo(match.URL); valid {
			return u
		}
		log.Debug().Str("strategy", string(match.Strategy)).Str("url", match.URL).Msg("Logo URL rejected, using placeholder")
	}
	return e.Placeholder(name)
}

func (e *Extractor) largestComponent(candidates []engine.LogoCandidate) (engine.LogoCandidate, bool) {
	var best engine.LogoCandidate
	found := false
	for _, c := range candidates {
		if c.Strategy != engine.LogoComponent || c.Excluded {
			continue
		}
		if !found || c.Area() > best.Area() {
			best, found = c, true
		}
	}
	return best, found
}

func (e *Extractor) firstContainer(candidates []engine.LogoCandidate) (engine.LogoCandidate, bool) {
	for _, c := range candidates {
		if c.Strategy == engine.LogoContainer && !c.Excluded {
			return c, true
		}
	}
	return engine.LogoCandidate{}, false
}

func (e *Extractor) firstHeading(candidates []engine.LogoCandidate) (engine.LogoCandidate, bool) {
	for _, c := range candidates {
		if c.Strategy != engine.LogoHeading {
			continue
		}
		if c.Width >= e.h.MinHeadingLogoSize && c.Height >= e.h.MinHeadingLogoSize {
			return c, true
		}
	}
	return engine.LogoCandidate{}, false
}

// Placeholder builds the fallback logo URL embedding the upper-cased first letter of name
func (e *Extractor) Placeholder(name string) string {
	letter := "?"
	if r, _ := utf8.DecodeRuneInString(strings.TrimSpace(name)); r != utf8.RuneError {
		letter = string(unicode.ToUpper(r))
	}
	tmpl := e.h.PlaceholderLogoURL
	if tmpl == "" {
		tmpl = config.DefaultHeuristics().PlaceholderLogoURL
	}
	return fmt.Sprintf(tmpl, url.QueryEscape(letter))
}

func validLogo(raw string) (string, bool) {
	u := urlutil.Normalize(raw)
	if u == "" || urlutil.ValidateURL(u) != nil {
		return "", false
	}
	return u, true
}
