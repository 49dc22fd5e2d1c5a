package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ContentCurator/internal/config"
	"ContentCurator/internal/domain"
	"ContentCurator/internal/scanner"
	"ContentCurator/internal/textutil"
)

const sampleListing = `{
  "kind": "Listing",
  "data": {
    "children": [
      {"kind": "t3", "data": {
        "id": "abc123",
        "title": "New open source LLM beats GPT",
        "selftext": "Check **this** [paper](https://example.com/paper) about machine learning.",
        "permalink": "/r/MachineLearning/comments/abc123/new_open_source_llm/",
        "author": "researcher",
        "created_utc": 1736157600.0
      }},
      {"kind": "t3", "data": {
        "id": "def456",
        "title": "Link post",
        "selftext": "",
        "permalink": "/r/MachineLearning/comments/def456/link_post/",
        "author": "",
        "created_utc": 1736150000.0
      }},
      {"kind": "t1", "data": {"id": "comment"}}
    ]
  }
}`

func TestRedditScannerPublicListing(t *testing.T) {
	t.Parallel()

	var gotPath, gotQuery, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery, gotUA = r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(sampleListing))
	}))
	defer srv.Close()

	sc := NewRedditScanner(config.RedditConfig{BaseURL: srv.URL, UserAgent: "curator-test/1.0"}, srv.Client(), textutil.NewTagger(nil, 10), nil)

	entries, err := sc.Scan(context.Background(), scanner.Request{
		Source: domain.Source{Name: "ml", Scanner: "reddit", Target: "r/MachineLearning"},
		Limit:  10,
	})
	require.NoError(t, err)

	assert.Equal(t, "/r/MachineLearning/hot.json", gotPath)
	assert.Contains(t, gotQuery, "limit=10")
	assert.Contains(t, gotQuery, "t=day")
	assert.Equal(t, "curator-test/1.0", gotUA)

	require.Len(t, entries, 2)
	post := entries[0]
	assert.Equal(t, "abc123", post.ExternalID)
	assert.Equal(t, "https://reddit.com/r/MachineLearning/comments/abc123/new_open_source_llm/", post.Link)
	assert.Equal(t, post.Link, post.SourceURL)
	assert.Equal(t, "Check this paper about machine learning.", post.Content)
	assert.Equal(t, post.Content, post.Description)
	assert.Equal(t, "researcher", post.Author)
	assert.Equal(t, "r/MachineLearning", post.SourceName)
	assert.Equal(t, "reddit.com", post.SourceDomain)
	assert.Equal(t, domain.SourceTypeSocialPost, post.SourceType)
	require.NotNil(t, post.Published)
	assert.True(t, post.Published.Equal(time.Unix(1736157600, 0)))
	assert.Contains(t, post.Tags, "Machine Learning")
	assert.Contains(t, post.Tags, "Gpt")

	assert.Equal(t, "[deleted]", entries[1].Author)
	assert.Empty(t, entries[1].Content)
}

func TestRedditScannerSourceOptions(t *testing.T) {
	t.Parallel()

	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		_, _ = w.Write([]byte(sampleListing))
	}))
	defer srv.Close()

	sc := NewRedditScanner(config.RedditConfig{BaseURL: srv.URL}, srv.Client(), nil, nil)
	entries, err := sc.Scan(context.Background(), scanner.Request{
		Source: domain.Source{Name: "golang", Options: map[string]string{"listing": "top", "time_filter": "week"}},
		Limit:  1,
	})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, "/r/golang/top.json", gotPath)
	assert.Contains(t, gotQuery, "t=week")
}

func TestRedditScannerTruncatesDescription(t *testing.T) {
	t.Parallel()

	sc := NewRedditScanner(config.RedditConfig{}, nil, nil, nil)
	entry := sc.toEntry(redditPost{ID: "x", Title: "long", Selftext: strings.Repeat("a", 600)}, "r/test")

	assert.Len(t, entry.Content, 600)
	assert.Equal(t, strings.Repeat("a", 500)+"...", entry.Description)
	assert.Nil(t, entry.Published)
}

func TestRedditScannerOAuth(t *testing.T) {
	t.Parallel()

	var tokenCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "client-id", user)
		assert.Equal(t, "client-secret", pass)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"token-1","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/r/golang/hot.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(sampleListing))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	sc := NewRedditScanner(config.RedditConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		BaseURL:      srv.URL,
		TokenURL:     srv.URL + "/api/v1/access_token",
	}, srv.Client(), nil, nil)

	for i := 0; i < 2; i++ {
		entries, err := sc.Scan(context.Background(), scanner.Request{Source: domain.Source{Target: "golang"}, Limit: 5})
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	}
	assert.Equal(t, int32(1), tokenCalls.Load())
}

func TestRedditScannerStatusError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	sc := NewRedditScanner(config.RedditConfig{BaseURL: srv.URL}, srv.Client(), nil, nil)
	_, err := sc.Scan(context.Background(), scanner.Request{Source: domain.Source{Target: "private"}})
	assert.Equal(t, scanner.KindStatus, scanner.KindOf(err))
}
