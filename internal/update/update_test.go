package update

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func feedServer(t *testing.T, tag string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"tag_name":%q,"html_url":"https://example.com/releases"}`, tag)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestCheckReportsNewerVersion(t *testing.T) {
	ts := feedServer(t, "v1.3.0")
	c := NewChecker(ts.URL, "1.2.0", time.Nanosecond)

	rel, err := c.Check(context.Background())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !rel.Newer {
		t.Error("expected a newer release")
	}
	if rel.Version != "1.3.0" {
		t.Errorf("expected 1.3.0, got %q", rel.Version)
	}
	if rel.URL != "https://example.com/releases" {
		t.Errorf("release URL lost: %q", rel.URL)
	}
}

func TestCheckSameVersionIsNotNewer(t *testing.T) {
	ts := feedServer(t, "v1.2.0")
	c := NewChecker(ts.URL, "1.2.0", time.Nanosecond)

	rel, err := c.Check(context.Background())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if rel.Newer {
		t.Error("same version must not be reported as newer")
	}
}

func TestCheckOlderFeedIsNotNewer(t *testing.T) {
	ts := feedServer(t, "v1.1.9")
	c := NewChecker(ts.URL, "1.2.0", time.Nanosecond)

	rel, err := c.Check(context.Background())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if rel.Newer {
		t.Error("older release must not be reported as newer")
	}
}

func TestCheckRejectsBadTag(t *testing.T) {
	ts := feedServer(t, "not-a-version")
	c := NewChecker(ts.URL, "1.2.0", time.Nanosecond)

	if _, err := c.Check(context.Background()); err == nil {
		t.Error("expected error for unparseable tag")
	}
}

func TestCheckRejectsBadCurrentVersion(t *testing.T) {
	ts := feedServer(t, "v1.3.0")
	c := NewChecker(ts.URL, "dev", time.Nanosecond)

	if _, err := c.Check(context.Background()); err == nil {
		t.Error("expected error for unparseable running version")
	}
}

func TestCheckSurfacesFeedErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(ts.Close)

	c := NewChecker(ts.URL, "1.2.0", time.Nanosecond)
	if _, err := c.Check(context.Background()); err == nil {
		t.Error("expected error for non-200 feed response")
	}
}

func TestCheckThrottles(t *testing.T) {
	ts := feedServer(t, "v1.3.0")
	c := NewChecker(ts.URL, "1.2.0", time.Hour)

	if _, err := c.Check(context.Background()); err != nil {
		t.Fatalf("first check: %v", err)
	}
	if _, err := c.Check(context.Background()); !errors.Is(err, ErrThrottled) {
		t.Errorf("expected ErrThrottled, got %v", err)
	}
}
