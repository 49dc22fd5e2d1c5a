package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"ContentCurator/internal/domain"
	"ContentCurator/internal/ports"
	"ContentCurator/internal/retry"
	"ContentCurator/internal/textutil"
)

// DefaultReelPrompt is the generation template. Placeholders in braces are
// substituted per item.
const DefaultReelPrompt = `You are an expert content creator specializing in viral social media reels. Create {reels_per_idea} engaging reel concepts based on the following raw idea.

RAW IDEA DETAILS:
- Title: {title}
- Content: {content}
- Relevance Score: {raw_idea_score}
- Source URL: {raw_idea_url}
- Target Audience: AI/Tech enthusiasts

REQUIREMENTS:
1. Create exactly {reels_per_idea} different reel concepts
2. Each reel should be unique and engaging
3. Make content suitable for short-form video (15-60 seconds)
4. Include specific visual elements and hooks

OUTPUT FORMAT:
Return a JSON array with {reels_per_idea} objects. Each object must have these exact fields:

{
  "reel_title": "Compelling title for the reel",
  "raw_idea_doc_id": "{raw_idea_doc_id}",
  "target_audience": "Specific target audience description",
  "hook": "Opening hook to grab attention in first 3 seconds",
  "concept": "Detailed concept and storyline",
  "visuals": "Specific visual elements, transitions, and effects",
  "cta": "Call-to-action for engagement",
  "relevance_score": {raw_idea_score},
  "source_url": "{raw_idea_url}",
  "timestamp": "{current_timestamp}"
}

Make each reel concept distinct and creative while staying true to the original idea.`

const (
	defaultReelsPerIdea = 2
	defaultReelBatch    = 50
	promptContentChars  = 2000
)

var errNotArray = errors.New("response is not a JSON array")

// ReelConfig tunes the derivation stage.
type ReelConfig struct {
	PerIdea    int
	BatchLimit int
	Prompt     string
}

// ReelStage turns approved items into reel concepts.
type ReelStage struct {
	items     ports.ContentRepository
	reels     ports.ReelRepository
	completer ports.Completer
	caller    *retry.Caller
	cfg       ReelConfig
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// NewReelStage shares the scoring caller so both stages respect one gate.
func NewReelStage(store ports.Store, completer ports.Completer, caller *retry.Caller, cfg ReelConfig, logger *slog.Logger) *ReelStage {
	if cfg.PerIdea <= 0 {
		cfg.PerIdea = defaultReelsPerIdea
	}
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = defaultReelBatch
	}
	if strings.TrimSpace(cfg.Prompt) == "" {
		cfg.Prompt = DefaultReelPrompt
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if caller == nil {
		caller = retry.NewCaller(nil, retry.DefaultPolicy(), logger)
	}
	return &ReelStage{
		items:     store,
		reels:     store.Reels(),
		completer: completer,
		caller:    caller,
		cfg:       cfg,
		logger:    logger.With("component", "reel_stage"),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Run processes every approved item that has no reels yet.
func (r *ReelStage) Run(ctx context.Context) domain.ReelSummary {
	var summary domain.ReelSummary

	if r.completer == nil {
		summary.Message = "reel generation unavailable: no completion client"
		r.logger.Warn(summary.Message)
		return summary
	}

	pending, err := r.items.ListAwaitingReels(ctx, r.cfg.BatchLimit)
	if err != nil {
		summary.Message = fmt.Sprintf("list approved items: %v", err)
		r.logger.Error("list approved items failed", "error", err)
		return summary
	}
	if len(pending) == 0 {
		summary.Message = "no approved items awaiting reels"
		r.logger.Info(summary.Message)
		return summary
	}

	for _, item := range pending {
		if ctx.Err() != nil {
			break
		}

		generated, err := r.processItem(ctx, item)
		if err != nil {
			summary.FailedIdeas++
			r.logger.Warn("reel generation failed", "id", item.ID, "title", item.Title, "error", err)
			continue
		}
		summary.ProcessedIdeas++
		summary.GeneratedReels += generated
	}

	summary.Message = fmt.Sprintf("Processed %d ideas, generated %d reels", summary.ProcessedIdeas, summary.GeneratedReels)
	r.logger.Info("reel stage finished",
		"processed", summary.ProcessedIdeas,
		"failed", summary.FailedIdeas,
		"reels", summary.GeneratedReels,
	)
	return summary
}

func (r *ReelStage) processItem(ctx context.Context, item domain.ContentItem) (int, error) {
	prompt := r.BuildPrompt(item)

	var drafts []ReelDraft
	validate := func(text string) error {
		parsed, err := ParseReels(text)
		if err != nil {
			return err
		}
		drafts = parsed
		return nil
	}

	label := "reels:" + item.ID
	if _, err := r.caller.Do(ctx, label, func(ctx context.Context) (string, error) {
		return r.completer.Complete(ctx, prompt)
	}, validate); err != nil {
		return 0, err
	}

	if len(drafts) == 0 {
		return 0, errors.New("no reel concepts returned")
	}
	if len(drafts) != r.cfg.PerIdea {
		r.logger.Warn("unexpected reel count", "id", item.ID, "expected", r.cfg.PerIdea, "got", len(drafts))
	}

	now := r.now().UTC()
	reels := make([]domain.ReelIdea, 0, len(drafts))
	for _, d := range drafts {
		reels = append(reels, domain.ReelIdea{
			ID:               r.newID(),
			RawIdeaDocID:     item.ID,
			ReelTitle:        d.ReelTitle,
			Hook:             d.Hook,
			Concept:          d.Concept,
			Visuals:          d.Visuals,
			CTA:              d.CTA,
			TargetAudience:   d.TargetAudience,
			ProductionStatus: domain.ProductionPending,
			RelevanceScore:   item.RelevanceScore(),
			SourceURL:        itemURL(item),
			CreatedAt:        now,
		})
	}

	if err := r.reels.CreateBatch(ctx, reels); err != nil {
		return 0, fmt.Errorf("store reels: %w", err)
	}
	if err := r.items.MarkReelGenerated(ctx, item.ID, now); err != nil {
		return 0, fmt.Errorf("mark reel generated: %w", err)
	}
	return len(reels), nil
}

// BuildPrompt fills the template placeholders for one item.
func (r *ReelStage) BuildPrompt(item domain.ContentItem) string {
	content := textutil.Truncate(textutil.FirstNonEmpty(item.Content, item.Description), promptContentChars)
	replacer := strings.NewReplacer(
		"{reels_per_idea}", strconv.Itoa(r.cfg.PerIdea),
		"{raw_idea_doc_id}", item.ID,
		"{raw_idea_score}", strconv.Itoa(item.RelevanceScore()),
		"{raw_idea_url}", itemURL(item),
		"{current_timestamp}", r.now().UTC().Format(time.RFC3339),
		"{title}", item.Title,
		"{content}", content,
	)
	return replacer.Replace(r.cfg.Prompt)
}

// ReelDraft is one concept as returned by the model.
type ReelDraft struct {
	ReelTitle      string `json:"reel_title"`
	Hook           string `json:"hook"`
	Concept        string `json:"concept"`
	Visuals        string `json:"visuals"`
	CTA            string `json:"cta"`
	TargetAudience string `json:"target_audience"`
}

// ParseReels strips a markdown code fence and decodes the concept array.
func ParseReels(text string) ([]ReelDraft, error) {
	body := strings.TrimSpace(text)
	body = strings.TrimPrefix(body, "```json")
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimSuffix(body, "```")
	body = strings.TrimSpace(body)

	if !strings.HasPrefix(body, "[") {
		return nil, errNotArray
	}

	var drafts []ReelDraft
	if err := json.Unmarshal([]byte(body), &drafts); err != nil {
		return nil, fmt.Errorf("decode reels: %w", err)
	}
	return drafts, nil
}

func itemURL(item domain.ContentItem) string {
	return textutil.FirstNonEmpty(item.Link, item.SourceURL)
}
