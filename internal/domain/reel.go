package domain

import "time"

// ProductionStatus tracks a reel concept through the external production flow.
type ProductionStatus string

const (
	ProductionPending  ProductionStatus = "pending"
	ProductionApproved ProductionStatus = "approved"
	ProductionProduced ProductionStatus = "produced"
	ProductionRejected ProductionStatus = "rejected"
)

// ReelIdea is a generated short-video concept derived from an approved item.
// RelevanceScore and SourceURL are a snapshot of the parent at generation time.
type ReelIdea struct {
	ID                 string           `json:"id"`
	RawIdeaDocID       string           `json:"raw_idea_doc_id"`
	ReelTitle          string           `json:"reel_title"`
	Hook               string           `json:"hook"`
	Concept            string           `json:"concept"`
	Visuals            string           `json:"visuals"`
	CTA                string           `json:"cta"`
	TargetAudience     string           `json:"target_audience"`
	ProductionStatus   ProductionStatus `json:"production_status"`
	ProductionApproved bool             `json:"production_approved"`
	RelevanceScore     int              `json:"relevance_score"`
	SourceURL          string           `json:"source_url"`
	CreatedAt          time.Time        `json:"timestamp"`
}
