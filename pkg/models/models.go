package models

import "time"

// ScreenCollection is one scraped app's worth of screens.
// JSON field names are the persisted shape and must not change.
type ScreenCollection struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	LogoURL     string   `json:"logoUrl"`
	SourceURL   string   `json:"sourceUrl"`
	Screens     []string `json:"screens"`
	ScreenCount int      `json:"screenCount"`
	DateAdded   int64    `json:"dateAdded"`
	DateUpdated int64    `json:"dateUpdated"`
}

// ScreenCollectionMeta is the page metadata captured before scrolling starts
type ScreenCollectionMeta struct {
	Name      string `json:"name"`
	LogoURL   string `json:"logoUrl"`
	SourceURL string `json:"sourceUrl"`
}

// SaveResult describes the outcome of a store upsert
type SaveResult struct {
	ID       string `json:"id"`
	AppName  string `json:"appName"`
	Count    int    `json:"count"`
	IsUpdate bool   `json:"isUpdate"`
}

// StorageUsage reports how much of the store quota is in use
type StorageUsage struct {
	BytesInUse  int64   `json:"bytesInUse"`
	QuotaBytes  int64   `json:"quotaBytes"`
	PercentUsed float64 `json:"percentUsed"`
	NearLimit   bool    `json:"nearLimit"`
}

// Action names a request sent from a trigger to a page agent
type Action string

const (
	ActionPing         Action = "ping"
	ActionGetMeta      Action = "get_meta"
	ActionStartScrape  Action = "start_scrape"
	ActionAbortScrape  Action = "abort_scrape"
	ActionCheckStorage Action = "check_storage"
)

// Status is the status field of an agent response
type Status string

const (
	StatusOK      Status = "ok"
	StatusSuccess Status = "success"
	StatusAborted Status = "aborted"
	StatusError   Status = "error"
)

// Message is a request to a page agent
type Message struct {
	Action Action `json:"action"`
}

// Response is the reply to a Message. Only the fields relevant to the
// action are populated; get_meta and check_storage replies carry the
// embedded structs flattened into the same object.
type Response struct {
	Status   Status `json:"status,omitempty"`
	Count    int    `json:"count,omitempty"`
	AppName  string `json:"appName,omitempty"`
	IsUpdate bool   `json:"isUpdate,omitempty"`
	Message  string `json:"message,omitempty"`
	Code     string `json:"code,omitempty"`

	*ScreenCollectionMeta
	*StorageUsage
}

// ProgressEvent is a fire-and-forget notification emitted during a scan
type ProgressEvent struct {
	Event string    `json:"event"`
	Text  string    `json:"text"`
	Count int       `json:"count"`
	At    time.Time `json:"at"`
}

// ScraperMode selects the page driver
type ScraperMode string

const (
	ModeStatic ScraperMode = "static"
	ModeSPA    ScraperMode = "spa"
	// ModeAuto fetches statically and switches to Chrome for client-rendered pages
	ModeAuto ScraperMode = "auto"
)

// PageOptions contains options for opening a page context
type PageOptions struct {
	URL         string
	Mode        ScraperMode
	Headers     map[string]string
	SessionName string
	Timeout     time.Duration
	Proxy       string
}
