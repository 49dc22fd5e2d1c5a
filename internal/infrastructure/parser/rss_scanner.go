package parser

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"ContentCurator/internal/domain"
	"ContentCurator/internal/scanner"
	"ContentCurator/internal/textutil"
)

const (
	defaultUserAgent = "ContentCurator/1.0"
	httpPrefix       = "http"
)

// RSSScanner reads RSS and Atom feeds.
type RSSScanner struct {
	client    *http.Client
	tagger    *textutil.Tagger
	userAgent string
	logger    *slog.Logger
}

var _ scanner.Scanner = (*RSSScanner)(nil)

// NewRSSScanner wires an HTTP client and an optional keyword tagger used when
// a feed item carries no categories.
func NewRSSScanner(client *http.Client, tagger *textutil.Tagger, logger *slog.Logger) *RSSScanner {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &RSSScanner{client: client, tagger: tagger, userAgent: defaultUserAgent, logger: logger}
}

// Name identifies the strategy inside the registry.
func (s *RSSScanner) Name() string {
	return "rss"
}

// Scan downloads the feed at req.Source.Target and maps up to req.Limit items.
func (s *RSSScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Entry, error) {
	feedURL := strings.TrimSpace(req.Source.Target)
	if feedURL == "" {
		return nil, fmt.Errorf("source %s has no feed url", req.Source.Name)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, scanner.NetworkError(feedURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, scanner.StatusError(feedURL, resp.StatusCode)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, scanner.MalformedError(feedURL, err)
	}

	host := feedHost(feedURL)
	sourceName := "RSS Feed - " + host

	limit := req.Limit
	if limit <= 0 || limit > len(feed.Items) {
		limit = len(feed.Items)
	}

	entries := make([]domain.Entry, 0, limit)
	for _, item := range feed.Items[:limit] {
		if item == nil {
			continue
		}
		entries = append(entries, s.toEntry(item, feedURL, host, sourceName))
	}

	s.logger.Debug("feed parsed", "feed", feedURL, "items", len(feed.Items), "returned", len(entries))
	return entries, nil
}

func (s *RSSScanner) toEntry(item *gofeed.Item, feedURL, host, sourceName string) domain.Entry {
	description := textutil.StripHTML(item.Description)
	content := textutil.StripHTML(item.Content)

	tags := make([]string, 0, len(item.Categories))
	for _, c := range item.Categories {
		if c = strings.TrimSpace(c); c != "" {
			tags = append(tags, c)
		}
	}
	if len(tags) == 0 && s.tagger != nil {
		tags = s.tagger.Tags(item.Title, description, content)
	}

	return domain.Entry{
		Title:        strings.TrimSpace(item.Title),
		Link:         itemLink(item),
		Description:  description,
		Content:      content,
		Author:       itemAuthor(item),
		ExternalID:   item.GUID,
		Published:    itemPublished(item),
		Tags:         tags,
		SourceType:   domain.SourceTypeFeedItem,
		SourceURL:    feedURL,
		SourceDomain: host,
		SourceName:   sourceName,
	}
}

// itemLink prefers the explicit link, falling back to a GUID that looks like a URL.
func itemLink(item *gofeed.Item) string {
	if item.Link != "" {
		return item.Link
	}
	if strings.HasPrefix(item.GUID, httpPrefix) {
		return item.GUID
	}
	return ""
}

func itemAuthor(item *gofeed.Item) string {
	if item.Author != nil && item.Author.Name != "" {
		return item.Author.Name
	}
	for _, a := range item.Authors {
		if a != nil && a.Name != "" {
			return a.Name
		}
	}
	return ""
}

// itemPublished returns the published date, then the updated date, then nil.
func itemPublished(item *gofeed.Item) *time.Time {
	switch {
	case item.PublishedParsed != nil:
		t := item.PublishedParsed.UTC()
		return &t
	case item.UpdatedParsed != nil:
		t := item.UpdatedParsed.UTC()
		return &t
	default:
		return nil
	}
}

func feedHost(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return raw
	}
	return parsed.Host
}
