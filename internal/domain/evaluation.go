package domain

import "time"

// ScoreFailed is stored as relevance_score when scoring could not complete.
const ScoreFailed = -1

// EvaluationStatus makes the sentinel explicit next to the score.
type EvaluationStatus string

const (
	EvaluationScored EvaluationStatus = "scored"
	EvaluationFailed EvaluationStatus = "failed"
)

// Evaluation is the audit record produced by the relevance scorer.
type Evaluation struct {
	Score       int                `json:"relevance_score"`
	Status      EvaluationStatus   `json:"evaluation_status"`
	IsRelevant  bool               `json:"is_relevant"`
	EvaluatedAt time.Time          `json:"evaluation_timestamp"`
	Model       string             `json:"evaluation_model"`
	Criteria    EvaluationCriteria `json:"evaluation_criteria"`
}

// EvaluationCriteria captures what the scorer considered.
type EvaluationCriteria struct {
	MinScoreThreshold int        `json:"min_score_threshold"`
	ContentLength     int        `json:"content_length"`
	SourceType        SourceType `json:"source_type"`
	Error             string     `json:"error,omitempty"`
}

// Failed reports whether the score is the sentinel.
func (e Evaluation) Failed() bool {
	return e.Status == EvaluationFailed
}

// ScoredEvaluation builds a successful evaluation.
func ScoredEvaluation(score, threshold int, model string, criteria EvaluationCriteria, at time.Time) Evaluation {
	criteria.MinScoreThreshold = threshold
	return Evaluation{
		Score:       score,
		Status:      EvaluationScored,
		IsRelevant:  score >= threshold,
		EvaluatedAt: at,
		Model:       model,
		Criteria:    criteria,
	}
}

// FailedEvaluation builds the sentinel evaluation; it is never relevant.
func FailedEvaluation(threshold int, model string, criteria EvaluationCriteria, at time.Time) Evaluation {
	criteria.MinScoreThreshold = threshold
	return Evaluation{
		Score:       ScoreFailed,
		Status:      EvaluationFailed,
		IsRelevant:  false,
		EvaluatedAt: at,
		Model:       model,
		Criteria:    criteria,
	}
}
