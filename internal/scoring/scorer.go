// Package scoring rates curated items for relevance with a generative model.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"ContentCurator/internal/domain"
	"ContentCurator/internal/ports"
	"ContentCurator/internal/retry"
	"ContentCurator/internal/textutil"
)

// DefaultSystemPrompt is used when no prompt is configured.
const DefaultSystemPrompt = `You are an expert content evaluator for AI influencers. Rate content from 0-100 based on relevance to AI/tech audiences and content creation potential.

Return ONLY a numeric score from 0-100. No explanations, just the number.

Example: 85`

const (
	defaultMaxContentChars = 4000
	modelUnavailable       = "unavailable"
)

var (
	errOutOfRange = errors.New("score out of range")
	errNoScore    = errors.New("no score in response")
	scorePattern  = regexp.MustCompile(`\b(\d{1,3})\b`)
)

// Config tunes the scorer.
type Config struct {
	SystemPrompt string
	// MinScore is the relevance threshold.
	MinScore        int
	MaxContentChars int
}

// Scorer is the relevance scoring client.
type Scorer struct {
	completer ports.Completer
	caller    *retry.Caller
	cfg       Config
	logger    *slog.Logger
	now       func() time.Time
}

var _ ports.Scorer = (*Scorer)(nil)

// NewScorer wires a completion endpoint behind the shared retry caller.
func NewScorer(completer ports.Completer, caller *retry.Caller, cfg Config, logger *slog.Logger) *Scorer {
	if strings.TrimSpace(cfg.SystemPrompt) == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.MaxContentChars <= 0 {
		cfg.MaxContentChars = defaultMaxContentChars
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if caller == nil {
		caller = retry.NewCaller(nil, retry.DefaultPolicy(), logger)
	}
	return &Scorer{
		completer: completer,
		caller:    caller,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Score returns a 0..100 evaluation, or the sentinel evaluation when the
// endpoint fails, throttles past the retry budget or answers nonsense.
func (s *Scorer) Score(ctx context.Context, item domain.ContentItem) domain.Evaluation {
	payload := BuildPayload(item, s.cfg.MaxContentChars)
	criteria := domain.EvaluationCriteria{
		ContentLength: len(payload),
		SourceType:    item.SourceType,
	}

	if s.completer == nil {
		criteria.Error = "no completion endpoint configured"
		return domain.FailedEvaluation(s.cfg.MinScore, modelUnavailable, criteria, s.now().UTC())
	}

	model := s.completer.Model()
	prompt := fmt.Sprintf("%s\n\nCONTENT TO EVALUATE:\n\n%s", strings.TrimSpace(s.cfg.SystemPrompt), payload)

	text, err := s.caller.Do(ctx, "relevance score", func(ctx context.Context) (string, error) {
		return s.completer.Complete(ctx, prompt)
	}, func(text string) error {
		_, parseErr := ParseScore(text)
		return parseErr
	})
	if err != nil {
		s.logger.Warn("relevance scoring failed, using sentinel score",
			"title", textutil.Truncate(item.Title, 50),
			"error", err,
		)
		criteria.Error = err.Error()
		return domain.FailedEvaluation(s.cfg.MinScore, model, criteria, s.now().UTC())
	}

	score, _ := ParseScore(text)
	evaluation := domain.ScoredEvaluation(score, s.cfg.MinScore, model, criteria, s.now().UTC())
	s.logger.Info("relevance score calculated",
		"title", textutil.Truncate(item.Title, 50),
		"score", score,
		"relevant", evaluation.IsRelevant,
	)
	return evaluation
}

// BuildPayload renders the bounded text sent for evaluation: the title plus
// the first non-empty body field, or the title alone.
func BuildPayload(item domain.ContentItem, maxChars int) string {
	title := item.Title
	if title == "" {
		title = "No Title"
	}

	body := textutil.FirstNonEmpty(item.Content, item.Description)
	if body == "" {
		return "Title: " + title
	}
	return fmt.Sprintf("Title: %s\n\nContent: %s", title, textutil.Truncate(strings.TrimSpace(body), maxChars))
}

// ParseScore reads an integer score from model output, falling back to the
// first 1-3 digit number in the text. Values outside 0..100 are rejected.
func ParseScore(text string) (int, error) {
	trimmed := strings.TrimSpace(text)
	if n, err := strconv.Atoi(trimmed); err == nil {
		return checkRange(n)
	}

	match := scorePattern.FindStringSubmatch(trimmed)
	if match == nil {
		return 0, fmt.Errorf("%w: %q", errNoScore, textutil.Truncate(trimmed, 80))
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errNoScore, match[1])
	}
	return checkRange(n)
}

func checkRange(n int) (int, error) {
	if n < 0 || n > 100 {
		return 0, fmt.Errorf("%w: %d", errOutOfRange, n)
	}
	return n, nil
}
