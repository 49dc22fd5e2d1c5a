package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"ContentCurator/internal/config"
	"ContentCurator/internal/domain"
	"ContentCurator/internal/scanner"
	"ContentCurator/internal/textutil"
)

const (
	redditPublicURL      = "https://www.reddit.com"
	redditOAuthURL       = "https://oauth.reddit.com"
	redditTokenURL       = "https://www.reddit.com/api/v1/access_token"
	redditPermalinkBase  = "https://reddit.com"
	redditDomain         = "reddit.com"
	redditDescriptionMax = 500
	redditDeletedAuthor  = "[deleted]"
)

// RedditScanner reads subreddit listings through the Reddit JSON API.
type RedditScanner struct {
	client     *http.Client
	baseURL    string
	userAgent  string
	listing    string
	timeFilter string
	tagger     *textutil.Tagger
	logger     *slog.Logger
}

var _ scanner.Scanner = (*RedditScanner)(nil)

// NewRedditScanner builds the adapter. With client credentials configured,
// requests go to the OAuth host using an application-only token; otherwise
// the public JSON listing is used.
func NewRedditScanner(cfg config.RedditConfig, base *http.Client, tagger *textutil.Tagger, logger *slog.Logger) *RedditScanner {
	if base == nil {
		base = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	uaClient := &http.Client{
		Timeout:   base.Timeout,
		Transport: &userAgentTransport{base: base.Transport, userAgent: userAgent},
	}

	client := uaClient
	baseURL := redditPublicURL
	if cfg.ClientID != "" && cfg.ClientSecret != "" {
		tokenURL := cfg.TokenURL
		if tokenURL == "" {
			tokenURL = redditTokenURL
		}
		cc := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, uaClient)
		client = cc.Client(ctx)
		client.Timeout = base.Timeout
		baseURL = redditOAuthURL
	}
	if cfg.BaseURL != "" {
		baseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	return &RedditScanner{
		client:     client,
		baseURL:    baseURL,
		userAgent:  userAgent,
		listing:    strings.TrimSpace(textutil.FirstNonEmpty(cfg.Listing, "hot")),
		timeFilter: strings.TrimSpace(textutil.FirstNonEmpty(cfg.TimeFilter, "day")),
		tagger:     tagger,
		logger:     logger,
	}
}

// Name identifies the strategy inside the registry.
func (r *RedditScanner) Name() string {
	return "reddit"
}

type redditListing struct {
	Data struct {
		Children []struct {
			Kind string     `json:"kind"`
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Selftext   string  `json:"selftext"`
	Permalink  string  `json:"permalink"`
	Author     string  `json:"author"`
	CreatedUTC float64 `json:"created_utc"`
}

// Scan reads up to req.Limit posts from the subreddit named by req.Source.Target.
// Source options "listing" and "time_filter" override the adapter defaults.
func (r *RedditScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Entry, error) {
	subreddit := strings.TrimPrefix(strings.TrimSpace(textutil.FirstNonEmpty(req.Source.Target, req.Source.Name)), "r/")
	if subreddit == "" {
		return nil, fmt.Errorf("source %s has no subreddit", req.Source.Name)
	}

	listingURL := r.listingURL(subreddit, req.Option("listing", r.listing), req.Option("time_filter", r.timeFilter), req.Limit)
	sourceLabel := "r/" + subreddit

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, listingURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, scanner.NetworkError(sourceLabel, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, scanner.StatusError(sourceLabel, resp.StatusCode)
	}

	var listing redditListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, scanner.MalformedError(sourceLabel, err)
	}

	entries := make([]domain.Entry, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		if child.Kind != "" && child.Kind != "t3" {
			continue
		}
		entries = append(entries, r.toEntry(child.Data, sourceLabel))
		if req.Limit > 0 && len(entries) >= req.Limit {
			break
		}
	}

	r.logger.Debug("subreddit listing fetched", "subreddit", sourceLabel, "posts", len(entries))
	return entries, nil
}

func (r *RedditScanner) listingURL(subreddit, listing, timeFilter string, limit int) string {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if timeFilter != "" {
		query.Set("t", timeFilter)
	}
	query.Set("raw_json", "1")
	return fmt.Sprintf("%s/r/%s/%s.json?%s", r.baseURL, url.PathEscape(subreddit), url.PathEscape(listing), query.Encode())
}

func (r *RedditScanner) toEntry(post redditPost, sourceLabel string) domain.Entry {
	content := textutil.StripMarkdown(post.Selftext)
	link := redditPermalinkBase + post.Permalink

	author := post.Author
	if author == "" {
		author = redditDeletedAuthor
	}

	var published *time.Time
	if post.CreatedUTC > 0 {
		t := time.Unix(int64(post.CreatedUTC), 0).UTC()
		published = &t
	}

	var tags []string
	if r.tagger != nil {
		tags = r.tagger.Tags(post.Title, content)
	}

	return domain.Entry{
		Title:        post.Title,
		Link:         link,
		Description:  textutil.Truncate(content, redditDescriptionMax),
		Content:      content,
		Author:       author,
		ExternalID:   post.ID,
		Published:    published,
		Tags:         tags,
		SourceType:   domain.SourceTypeSocialPost,
		SourceURL:    link,
		SourceDomain: redditDomain,
		SourceName:   sourceLabel,
	}
}

type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.userAgent)
	return base.RoundTrip(clone)
}
