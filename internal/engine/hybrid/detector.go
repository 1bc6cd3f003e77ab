// internal/engine/hybrid/detector.go
package hybrid

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/screengrab/pkg/models"
)

// Framework markers looked for in the static document, checked in order
var frameworkMarkers = []struct {
	name     string
	selector string
}{
	{"Next.js", "script#__NEXT_DATA__, #__next"},
	{"Nuxt", "#__nuxt, script#__NUXT_DATA__"},
	{"React", "[data-reactroot], #root:empty"},
	{"Vue", "[data-v-app], [data-server-rendered]"},
	{"Angular", "[ng-version], [ng-app]"},
	{"Svelte", "[class*='svelte-']"},
}

// DetectFramework names the client-side framework the document was built
// with, or "Unknown"
func DetectFramework(doc *goquery.Document) string {
	for _, m := range frameworkMarkers {
		if doc.Find(m.selector).Length() > 0 {
			return m.name
		}
	}
	return "Unknown"
}

// NeedsBrowser reports whether a statically fetched page has to be rendered
// in Chrome. A page whose static HTML already lists screens never does.
func NeedsBrowser(doc *goquery.Document, screenCount int) bool {
	if screenCount > 0 {
		return false
	}

	scripts := doc.Find("script[src]").Length()
	if scripts > 5 {
		return true
	}
	if DetectFramework(doc) != "Unknown" {
		return true
	}

	// An almost empty body with scripts is a client-rendered shell
	body := strings.TrimSpace(doc.Find("body").Text())
	return scripts > 0 && doc.Find("body div").Length() < 3 && len(body) < 200
}

// Decide picks the driver for a page given its static document and the
// number of screens found in it
func Decide(doc *goquery.Document, screenCount int) models.ScraperMode {
	if NeedsBrowser(doc, screenCount) {
		return models.ModeSPA
	}
	return models.ModeStatic
}
