// Package updater checks a release feed for a newer penc version.
package updater

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/mod/semver"
)

// ErrNoRelease means the feed answered without a usable release.
var ErrNoRelease = errors.New("release feed has no tagged release")

// Release is the subset of the feed document penc reads.
type Release struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
	Name    string `json:"name,omitempty"`
}

// Result describes one check.
type Result struct {
	Current         string
	Latest          string
	URL             string
	UpdateAvailable bool
}

// Options configures a Checker.
type Options struct {
	FeedURL        string
	CurrentVersion string
	RetryMax       int
	RetryWaitMin   time.Duration
	RetryWaitMax   time.Duration
	Timeout        time.Duration
	Logger         *zap.Logger
}

// Checker fetches the feed and compares versions.
type Checker struct {
	client  *retryablehttp.Client
	feedURL string
	current string
	logger  *zap.Logger
}

// New builds a Checker. Zero retry settings take conservative defaults.
func New(opts Options) *Checker {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.RetryMax == 0 {
		opts.RetryMax = 3
	}
	if opts.RetryWaitMin == 0 {
		opts.RetryWaitMin = 500 * time.Millisecond
	}
	if opts.RetryWaitMax == 0 {
		opts.RetryWaitMax = 5 * time.Second
	}
	if opts.Timeout == 0 {
		opts.Timeout = 15 * time.Second
	}

	client := retryablehttp.NewClient()
	client.RetryMax = opts.RetryMax
	client.RetryWaitMin = opts.RetryWaitMin
	client.RetryWaitMax = opts.RetryWaitMax
	client.HTTPClient.Timeout = opts.Timeout
	client.Logger = leveledLogger{opts.Logger.Sugar()}

	return &Checker{
		client:  client,
		feedURL: opts.FeedURL,
		current: opts.CurrentVersion,
		logger:  opts.Logger,
	}
}

// CheckForUpdates fetches the latest release and compares it with the
// running version.
func (c *Checker) CheckForUpdates(ctx context.Context) (Result, error) {
	res := Result{Current: c.current}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return res, fmt.Errorf("build update request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "penc/"+c.current)

	resp, err := c.client.Do(req)
	if err != nil {
		return res, fmt.Errorf("fetch %s: %w", c.feedURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return res, fmt.Errorf("fetch %s: unexpected status %s", c.feedURL, resp.Status)
	}

	var rel Release
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&rel); err != nil {
		return res, fmt.Errorf("decode release feed: %w", err)
	}
	if rel.TagName == "" {
		return res, ErrNoRelease
	}

	res.Latest = rel.TagName
	res.URL = rel.HTMLURL
	res.UpdateAvailable = IsNewer(rel.TagName, c.current)

	c.logger.Info("update check finished",
		zap.String("current", res.Current),
		zap.String("latest", res.Latest),
		zap.Bool("update_available", res.UpdateAvailable),
	)
	return res, nil
}

// IsNewer reports whether latest is a higher semantic version than
// current. Unparseable versions, such as development builds, never
// compare as older.
func IsNewer(latest, current string) bool {
	l, cur := canonical(latest), canonical(current)
	if !semver.IsValid(l) || !semver.IsValid(cur) {
		return false
	}
	return semver.Compare(l, cur) > 0
}

func canonical(v string) string {
	v = strings.TrimSpace(v)
	if v != "" && !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// Message renders r for a dialog.
func (r Result) Message() string {
	if r.UpdateAvailable {
		msg := fmt.Sprintf("Penc %s is available (you have %s).", strings.TrimPrefix(r.Latest, "v"), strings.TrimPrefix(r.Current, "v"))
		if r.URL != "" {
			msg += "\n" + r.URL
		}
		return msg
	}
	return fmt.Sprintf("Penc %s is the latest version.", strings.TrimPrefix(r.Current, "v"))
}

// leveledLogger routes retryablehttp's logging through zap.
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
