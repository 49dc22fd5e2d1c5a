package domain

import "time"

// SourceType tells which fetch adapter family produced an item.
type SourceType string

const (
	SourceTypeFeedItem   SourceType = "feed_item"
	SourceTypeSocialPost SourceType = "social_post"
)

// Entry is a raw record returned by a fetch adapter, before fingerprinting.
type Entry struct {
	Title       string
	Link        string
	Description string
	Content     string
	Author      string
	// ExternalID is the upstream post id for social sources.
	ExternalID string
	// Published is nil when the source date is missing or unparsable.
	Published    *time.Time
	Tags         []string
	SourceType   SourceType
	SourceURL    string
	SourceDomain string
	SourceName   string
}

// ContentItem is the canonical curated unit, keyed by its fingerprint.
type ContentItem struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Content         string     `json:"content"`
	Link            string     `json:"link"`
	Author          string     `json:"author"`
	Published       *time.Time `json:"published"`
	SourceType      SourceType `json:"source_type"`
	SourceURL       string     `json:"source_url"`
	SourceDomain    string     `json:"source_domain"`
	SourceName      string     `json:"source_name"`
	Tags            []string   `json:"tags"`
	HumanApproved   bool       `json:"human_approved"`
	ReelGenerated   bool       `json:"reel_generated"`
	ReelGeneratedAt *time.Time `json:"reel_generated_timestamp,omitempty"`
	// Evaluation is nil when relevance scoring was disabled for the cycle.
	Evaluation  *Evaluation `json:"evaluation,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	ProcessedAt time.Time   `json:"processed_at"`
}

// ContentHash is the fingerprint the item is stored under.
func (c ContentItem) ContentHash() string {
	return c.ID
}

// RelevanceScore returns the stored score, or ScoreFailed when the item was
// never scored or scoring failed.
func (c ContentItem) RelevanceScore() int {
	if c.Evaluation == nil {
		return ScoreFailed
	}
	return c.Evaluation.Score
}

// IsRelevant reports the derived relevance flag.
func (c ContentItem) IsRelevant() bool {
	return c.Evaluation != nil && c.Evaluation.IsRelevant
}

// NewContentItem builds an item from a raw entry.
func NewContentItem(id string, entry Entry, now time.Time) ContentItem {
	title := entry.Title
	if title == "" {
		title = "No Title"
	}
	return ContentItem{
		ID:           id,
		Title:        title,
		Description:  entry.Description,
		Content:      entry.Content,
		Link:         entry.Link,
		Author:       entry.Author,
		Published:    entry.Published,
		SourceType:   entry.SourceType,
		SourceURL:    entry.SourceURL,
		SourceDomain: entry.SourceDomain,
		SourceName:   entry.SourceName,
		Tags:         entry.Tags,
		CreatedAt:    now,
		ProcessedAt:  now,
	}
}

// Source is one configured origin of entries (a feed URL, a subreddit, ...).
type Source struct {
	Name    string
	Scanner string
	Target  string
	Options map[string]string
}

// ID identifies the source for cursor bookkeeping.
func (s Source) ID() string {
	if s.Target != "" {
		return s.Scanner + ":" + s.Target
	}
	return s.Scanner + ":" + s.Name
}
