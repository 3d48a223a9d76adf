// Package update checks a releases feed for newer versions.
//
// The check is advisory: failures are reported to the caller for logging
// and never block anything. Polling is rate-limited so menu-driven and
// timer-driven checks cannot hammer the feed.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/time/rate"
)

// ErrThrottled is returned when a check is requested before the rate
// limiter allows another one.
var ErrThrottled = errors.New("update check throttled")

// Release describes the latest published release.
type Release struct {
	Version string `json:"version"`
	URL     string `json:"url,omitempty"`
	Newer   bool   `json:"newer"`
}

// feedResponse is the subset of the GitHub releases API we read.
type feedResponse struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// Checker polls a releases feed and compares against the running version.
type Checker struct {
	feedURL string
	current string
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewChecker creates a checker for the given feed. At most one check per
// minInterval reaches the network; callers beyond that get ErrThrottled.
func NewChecker(feedURL, current string, minInterval time.Duration) *Checker {
	return &Checker{
		feedURL: feedURL,
		current: current,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Every(minInterval), 1),
		logger:  slog.With("component", "update"),
	}
}

// Check fetches the latest release and reports whether it is newer than
// the running version.
func (c *Checker) Check(ctx context.Context) (*Release, error) {
	if !c.limiter.Allow() {
		return nil, ErrThrottled
	}

	current, err := semver.NewVersion(strings.TrimPrefix(c.current, "v"))
	if err != nil {
		return nil, fmt.Errorf("parsing running version %q: %w", c.current, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "roost-update-check")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching release feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("release feed returned status %d", resp.StatusCode)
	}

	var feed feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing release feed: %w", err)
	}

	latest, err := semver.NewVersion(strings.TrimPrefix(feed.TagName, "v"))
	if err != nil {
		return nil, fmt.Errorf("parsing release tag %q: %w", feed.TagName, err)
	}

	rel := &Release{
		Version: latest.String(),
		URL:     feed.HTMLURL,
		Newer:   latest.GreaterThan(current),
	}
	c.logger.Info("update check complete", "current", current, "latest", latest, "newer", rel.Newer)
	return rel, nil
}

// Poll runs Check on a ticker until the context is cancelled, invoking
// onNewer whenever a newer release is seen.
func (c *Checker) Poll(ctx context.Context, every time.Duration, onNewer func(Release)) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rel, err := c.Check(ctx)
			if err != nil {
				if !errors.Is(err, ErrThrottled) {
					c.logger.Warn("update check failed", "error", err)
				}
				continue
			}
			if rel.Newer && onNewer != nil {
				onNewer(*rel)
			}
		}
	}
}
