package hybrid

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/screengrab/pkg/models"
)

func doc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return d
}

func TestDetectFramework(t *testing.T) {
	tests := []struct {
		html string
		want string
	}{
		{`<div id="__next"></div><script id="__NEXT_DATA__">{}</script>`, "Next.js"},
		{`<div ng-version="17.0.0"></div>`, "Angular"},
		{`<div data-v-app></div>`, "Vue"},
		{`<main><p>plain</p></main>`, "Unknown"},
	}
	for _, tt := range tests {
		if got := DetectFramework(doc(t, tt.html)); got != tt.want {
			t.Errorf("DetectFramework(%q) = %q, want %q", tt.html, got, tt.want)
		}
	}
}

func TestDecide(t *testing.T) {
	shell := `<html><body><div id="__next"></div><script src="/app.js"></script></body></html>`
	if got := Decide(doc(t, shell), 0); got != models.ModeSPA {
		t.Errorf("empty SPA shell: got %s, want spa", got)
	}
	if got := Decide(doc(t, shell), 3); got != models.ModeStatic {
		t.Errorf("screens already present: got %s, want static", got)
	}

	plain := `<html><body><div><div><div><p>` + strings.Repeat("text ", 60) + `</p></div></div></div></body></html>`
	if got := Decide(doc(t, plain), 0); got != models.ModeStatic {
		t.Errorf("server-rendered page: got %s, want static", got)
	}
}
