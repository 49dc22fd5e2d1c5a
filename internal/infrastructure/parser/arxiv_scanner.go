package parser

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ContentCurator/internal/domain"
	"ContentCurator/internal/scanner"
	"ContentCurator/internal/textutil"
)

const (
	arxivBaseURL = "https://arxiv.org"
)

var dateExpr = regexp.MustCompile(`\d{1,2} [A-Za-z]{3} \d{4}`)

// ArxivScanner crawls category listing pages, newest first.
type ArxivScanner struct {
	client   *http.Client
	tagger   *textutil.Tagger
	pageSize int
	logger   *slog.Logger
}

var _ scanner.Scanner = (*ArxivScanner)(nil)

// NewArxivScanner wires an HTTP client; pageSize defaults to 200.
func NewArxivScanner(client *http.Client, tagger *textutil.Tagger, logger *slog.Logger) *ArxivScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ArxivScanner{client: client, tagger: tagger, pageSize: 200, logger: logger}
}

// Name identifies the strategy inside the registry.
func (a *ArxivScanner) Name() string {
	return "arxiv"
}

// Scan walks the listing at req.Source.Target page by page until req.Limit
// entries are collected or the listing ends.
func (a *ArxivScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Entry, error) {
	listURL := strings.TrimSpace(req.Source.Target)
	if listURL == "" {
		return nil, fmt.Errorf("source %s has no listing url", req.Source.Name)
	}

	category := req.Option("category", categoryFromURL(listURL))
	sourceName := "arXiv"
	if category != "" {
		sourceName = "arXiv - " + category
	}

	pageSize := a.pageSize
	if req.Limit > 0 && req.Limit < pageSize {
		pageSize = req.Limit
	}

	results := make([]domain.Entry, 0)
	seen := map[string]struct{}{}
	skip := 0

	for {
		pageURL, err := buildPageURL(listURL, skip, pageSize)
		if err != nil {
			return nil, err
		}

		doc, err := a.fetchDocument(ctx, pageURL)
		if err != nil {
			return nil, err
		}

		pageEntries, processed := a.extractEntries(doc, listURL, sourceName)
		for _, entry := range pageEntries {
			if _, ok := seen[entry.ExternalID]; ok {
				continue
			}
			seen[entry.ExternalID] = struct{}{}
			results = append(results, entry)
			if req.Limit > 0 && len(results) >= req.Limit {
				return results, nil
			}
		}

		if processed < pageSize {
			break
		}
		skip += pageSize
	}

	a.logger.Debug("arxiv listing scanned", "listing", listURL, "entries", len(results))
	return results, nil
}

func (a *ArxivScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, scanner.NetworkError(pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, scanner.StatusError(pageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, scanner.MalformedError(pageURL, err)
	}

	return doc, nil
}

func (a *ArxivScanner) extractEntries(doc *goquery.Document, listURL, sourceName string) ([]domain.Entry, int) {
	var (
		collected []domain.Entry
		processed int
	)

	doc.Find("dl > dt").Each(func(_ int, dt *goquery.Selection) {
		processed++
		entry := parseEntry(dt, dt.Next())
		if entry.Link == "" {
			return
		}
		entry.SourceURL = listURL
		entry.SourceDomain = feedHost(listURL)
		entry.SourceName = sourceName
		if a.tagger != nil {
			entry.Tags = a.tagger.Tags(entry.Title, entry.Description)
		}
		collected = append(collected, entry)
	})

	return collected, processed
}

func parseEntry(dt, dd *goquery.Selection) domain.Entry {
	anchor := dt.Find("a[href*=\"/abs/\"]").First()

	id := strings.TrimSpace(anchor.Text())
	href, _ := anchor.Attr("href")
	if id == "" {
		id = strings.TrimPrefix(href, "/abs/")
	}
	if href != "" && !strings.HasPrefix(href, "http") {
		href = strings.TrimSuffix(arxivBaseURL, "/") + href
	}

	title := strings.TrimSpace(dd.Find(".list-title").First().Text())
	title = strings.TrimPrefix(title, "Title:")
	title = strings.TrimSpace(title)

	summary := dd.Find(".mathjax").Not(".list-title").First().Text()
	summary = strings.TrimPrefix(strings.TrimSpace(summary), "Abstract:")
	summary = textutil.NormalizeSpace(summary)

	authors := strings.TrimSpace(dd.Find(".list-authors").First().Text())
	authors = textutil.NormalizeSpace(strings.TrimPrefix(authors, "Authors:"))

	dateText := strings.TrimSpace(dd.Find(".list-date").First().Text())
	if dateText == "" {
		dateText = strings.TrimSpace(dd.Find(".list-dateline").First().Text())
	}

	var published *time.Time
	if match := dateExpr.FindString(dateText); match != "" {
		if parsed, err := time.Parse("2 Jan 2006", match); err == nil {
			published = &parsed
		}
	}

	if id == "" {
		id = href
	}

	return domain.Entry{
		Title:       title,
		Link:        href,
		Description: summary,
		Author:      authors,
		ExternalID:  id,
		Published:   published,
		SourceType:  domain.SourceTypeFeedItem,
	}
}

func buildPageURL(base string, skip, pageSize int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid listing url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set("skip", strconv.Itoa(skip))
	query.Set("show", strconv.Itoa(pageSize))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// categoryFromURL extracts "cs.AI" from ".../list/cs.AI/pastweek".
func categoryFromURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	for i, part := range parts {
		if part == "list" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}
