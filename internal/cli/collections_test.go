package cli

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/law-makers/screengrab/internal/engine"
	"github.com/law-makers/screengrab/internal/store"
	"github.com/law-makers/screengrab/pkg/models"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCollectionID(t *testing.T) {
	meta := models.ScreenCollectionMeta{Name: "Acme Notes", SourceURL: "https://example.com/"}
	if got := collectionID(meta); got != "acme-notes" {
		t.Errorf("collectionID = %q", got)
	}

	meta.SourceURL = "https://example.com/apps/ios/acme-notes?ref=home"
	if got := collectionID(meta); got != "acme-notes" {
		t.Errorf("collectionID = %q, want acme-notes", got)
	}
}

func TestNotFound(t *testing.T) {
	err := notFound(fmt.Errorf("%w: x", store.ErrCollectionNotFound), "acme")
	if !strings.Contains(err.Error(), `"acme"`) {
		t.Errorf("unexpected message: %v", err)
	}

	other := errors.New("disk on fire")
	if notFound(other, "acme") != other {
		t.Error("unrelated errors must pass through")
	}
}

func TestConfirm_AssumeYes(t *testing.T) {
	assumeYes = true
	defer func() { assumeYes = false }()
	if !confirm("Delete everything?") {
		t.Error("--yes must skip the prompt")
	}
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	printError(&buf, engine.NewEngineError(engine.ErrCodeQuota, engine.MsgQuota, errors.New("too big")))
	out := buf.String()
	if !strings.Contains(out, engine.MsgQuota) || !strings.Contains(out, "(QUOTA)") {
		t.Errorf("coded error output = %q", out)
	}
	if strings.Contains(out, "too big") {
		t.Errorf("underlying error leaked into user message: %q", out)
	}

	buf.Reset()
	printError(&buf, errors.New("plain failure"))
	if !strings.Contains(buf.String(), "plain failure") {
		t.Errorf("plain error output = %q", buf.String())
	}
}
