package engine

import "context"

// Page is the narrow surface a page driver exposes to the metadata extractor
// and the scroll loop. Page structure is treated as unstable input: drivers
// report raw observations and all decisions are made by the callers.
type Page interface {
	// URL returns the address of the page as currently loaded
	URL() string

	// Snapshot reads the heading, document title and logo candidates
	Snapshot(ctx context.Context) (*Snapshot, error)

	// CandidateImages returns every image matching the screen selectors in DOM order
	CandidateImages(ctx context.Context) ([]Image, error)

	// ScrollMetrics reports the scroll position and scrollable height
	ScrollMetrics(ctx context.Context) (ScrollMetrics, error)

	// ScrollBy scrolls forward by dy pixels
	ScrollBy(ctx context.Context, dy float64) error

	// ScrollToTop resets the scroll position
	ScrollToTop(ctx context.Context) error
}

// Image is a screen thumbnail candidate
type Image struct {
	Src string `json:"src"`
	// InListItem marks images nested in a list-item container (footer/secondary thumbnails)
	InListItem bool `json:"inListItem"`
}

// LogoStrategy names one logo extraction strategy
type LogoStrategy string

const (
	LogoComponent LogoStrategy = "component"
	LogoContainer LogoStrategy = "container"
	LogoHeading   LogoStrategy = "heading"
)

// LogoCandidate is an image that might be the app logo
type LogoCandidate struct {
	Strategy LogoStrategy `json:"strategy"`
	URL      string       `json:"url"`
	Width    float64      `json:"width"`
	Height   float64      `json:"height"`
	// Excluded is true when the image sits inside a nav/header/banner region
	Excluded bool `json:"excluded"`
}

// Area returns the rendered bounding-box area
func (c LogoCandidate) Area() float64 {
	return c.Width * c.Height
}

// Snapshot is the raw metadata read from a page
type Snapshot struct {
	URL           string          `json:"url"`
	HeadingText   string          `json:"heading"`
	DocumentTitle string          `json:"title"`
	Logos         []LogoCandidate `json:"logos"`
}

// ScrollMetrics describes the viewport relative to the scrollable content
type ScrollMetrics struct {
	ScrollY        float64 `json:"scrollY"`
	ViewportHeight float64 `json:"viewportHeight"`
	ScrollHeight   float64 `json:"scrollHeight"`
}

// AtBottom reports whether the viewport is within threshold pixels of the end of content
func (m ScrollMetrics) AtBottom(threshold float64) bool {
	return m.ScrollY+m.ViewportHeight >= m.ScrollHeight-threshold
}
