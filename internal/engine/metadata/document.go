package metadata

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/screengrab/internal/config"
	"github.com/law-makers/screengrab/internal/engine"
	urlutil "github.com/law-makers/screengrab/internal/utils/url"
)

// SnapshotFromDocument reads heading, title and logo candidates from a parsed
// document. Rendered sizes are unknown outside a browser, so the width and
// height attributes stand in for the bounding box.
func SnapshotFromDocument(doc *goquery.Document, pageURL string, h config.Heuristics) *engine.Snapshot {
	snap := &engine.Snapshot{URL: pageURL}
	if doc == nil {
		return snap
	}

	if h.HeadingSelector != "" {
		snap.HeadingText = strings.TrimSpace(doc.Find(h.HeadingSelector).First().Text())
	}
	snap.DocumentTitle = strings.TrimSpace(doc.Find("title").First().Text())

	collect := func(strategy engine.LogoStrategy, selector string) {
		if selector == "" {
			return
		}
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			src := imageSource(sel)
			if src == "" {
				return
			}
			snap.Logos = append(snap.Logos, engine.LogoCandidate{
				Strategy: strategy,
				URL:      urlutil.ResolveURL(pageURL, src),
				Width:    dimension(sel, "width"),
				Height:   dimension(sel, "height"),
				Excluded: within(sel, h.ExcludedRegions),
			})
		})
	}

	collect(engine.LogoComponent, h.LogoComponentSelector())
	collect(engine.LogoContainer, h.LogoContainerSelector)
	collect(engine.LogoHeading, h.HeadingLogoSelector)

	return snap
}

// ImagesFromDocument returns the screen image candidates of a parsed document in DOM order
func ImagesFromDocument(doc *goquery.Document, pageURL string, h config.Heuristics) []engine.Image {
	if doc == nil {
		return nil
	}
	var images []engine.Image
	doc.Find(h.ScreenSelector()).Each(func(_ int, sel *goquery.Selection) {
		src := imageSource(sel)
		if src == "" {
			return
		}
		images = append(images, engine.Image{
			Src:        urlutil.ResolveURL(pageURL, src),
			InListItem: within(sel, h.ListItemSelector),
		})
	})
	return images
}

// imageSource prefers src and falls back to the common lazy-load attribute
func imageSource(sel *goquery.Selection) string {
	if src := strings.TrimSpace(sel.AttrOr("src", "")); src != "" {
		return src
	}
	return strings.TrimSpace(sel.AttrOr("data-src", ""))
}

func dimension(sel *goquery.Selection, attr string) float64 {
	v := strings.TrimSuffix(strings.TrimSpace(sel.AttrOr(attr, "")), "px")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

func within(sel *goquery.Selection, selector string) bool {
	if selector == "" {
		return false
	}
	return sel.Parent().Closest(selector).Length() > 0
}
