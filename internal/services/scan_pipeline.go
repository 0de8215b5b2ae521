package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/foxxcyber/aisle-list/internal/models"
)

// ErrScanCancelled is returned when the caller aborts a scan
var ErrScanCancelled = errors.New("scan cancelled")

// OCRResult is what a recognizer reports for one image
type OCRResult struct {
	Text           string
	Lines          []string
	MeanConfidence float64
	WordCount      int
	LineCount      int
}

// TextRecognizer reads text from an encoded image
type TextRecognizer interface {
	Recognize(ctx context.Context, image []byte) (*OCRResult, error)
}

// ProgressFunc receives pipeline progress updates
type ProgressFunc func(models.PipelineProgress)

// AttemptOutcome is the best attempt of a scan plus a log of every attempt
type AttemptOutcome struct {
	RawText       string
	Items         []models.ShoppingItem
	OCRMeta       models.OCRMeta
	OCRConfidence float64
	Score         CandidateScore
	Attempts      []models.AttemptSummary
	Failures      int
	found         bool
}

// ScanPipeline turns a photographed list into items by trying several
// rotations and preprocessing variants and keeping the best reading.
// Attempts run one at a time and stop early on a strong result.
type ScanPipeline struct {
	recognizer TextRecognizer
	builder    *ListBuilder
	scorer     CandidateScorer
	plan       []Attempt
	logger     *zap.Logger
}

// ScanOption customizes a ScanPipeline
type ScanOption func(*ScanPipeline)

// WithScorer replaces the attempt scorer
func WithScorer(scorer CandidateScorer) ScanOption {
	return func(p *ScanPipeline) { p.scorer = scorer }
}

// WithAttemptPlan replaces the rotation and variant sequence
func WithAttemptPlan(plan []Attempt) ScanOption {
	return func(p *ScanPipeline) { p.plan = plan }
}

// NewScanPipeline creates a scan pipeline
func NewScanPipeline(recognizer TextRecognizer, builder *ListBuilder, logger *zap.Logger, opts ...ScanOption) *ScanPipeline {
	p := &ScanPipeline{
		recognizer: recognizer,
		builder:    builder,
		scorer:     ScoreCandidate,
		plan:       DefaultAttemptPlan,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessImage decodes an upload and runs the attempt loop over it.
// Finding nothing is not an error; the result simply has no items.
func (p *ScanPipeline) ProcessImage(ctx context.Context, data []byte, onProgress ProgressFunc) (*models.ScanResult, error) {
	report(onProgress, models.StatusPreprocess, 0.05, "Preparing image")

	prepared, err := PrepareImage(data)
	if err != nil {
		return nil, err
	}
	return p.ProcessPrepared(ctx, prepared, onProgress)
}

// ProcessPrepared runs the attempt loop over an already decoded image
func (p *ScanPipeline) ProcessPrepared(ctx context.Context, prepared *PreparedImage, onProgress ProgressFunc) (*models.ScanResult, error) {
	p.logger.Debug("scan.image_ready",
		zap.Int("width", prepared.Width),
		zap.Int("height", prepared.Height),
		zap.String("image_hash", prepared.Hash),
	)

	outcome, err := p.RunAttempts(ctx, prepared, onProgress)
	if err != nil {
		return nil, err
	}

	report(onProgress, models.StatusCategorize, 0.85, "Organizing aisles")
	checklist := p.builder.Finalize(outcome.Items)
	report(onProgress, models.StatusOrder, 0.95, "Final touches")

	result := &models.ScanResult{
		RawText:          outcome.RawText,
		Items:            checklist.Items,
		Sections:         checklist.Sections,
		OCRMeta:          outcome.OCRMeta,
		OCRConfidence:    outcome.OCRConfidence,
		ImageHash:        prepared.Hash,
		ThumbnailDataURL: prepared.ThumbnailDataURL,
		Attempts:         outcome.Attempts,
		SuggestMagicMode: ShouldSuggestMagicMode(MagicDecision{
			OCRConfidence:       outcome.OCRConfidence,
			ItemCount:           len(checklist.Items),
			ImageLikelyNonBlank: prepared.LikelyNonBlank,
		}),
	}

	report(onProgress, models.StatusReady, 1, "Ready for review")
	return result, nil
}

// RunAttempts tries each planned attempt in order and keeps the best one.
// A failed attempt is logged and skipped. Cancellation stops the loop and is
// returned wrapped in ErrScanCancelled.
func (p *ScanPipeline) RunAttempts(ctx context.Context, source AttemptSource, onProgress ProgressFunc) (*AttemptOutcome, error) {
	best := &AttemptOutcome{}

	for i, attempt := range p.plan {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanCancelled, err)
		}

		label := "Reading text"
		if i > 0 {
			label = fmt.Sprintf("Retrying %d° (%s)", attempt.Rotation, attempt.Variant)
		}
		report(onProgress, models.StatusOCR, 0.2+float64(i)*0.08, label)

		candidate, err := p.runAttempt(ctx, source, attempt)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("%w: %w", ErrScanCancelled, ctxErr)
			}
			best.Failures++
			best.Attempts = append(best.Attempts, models.AttemptSummary{
				Rotation: attempt.Rotation,
				Variant:  string(attempt.Variant),
				Error:    err.Error(),
			})
			p.logger.Warn("scan.attempt_failed",
				zap.Int("attempt", i+1),
				zap.Int("rotation", attempt.Rotation),
				zap.String("variant", string(attempt.Variant)),
				zap.Error(err),
			)
			continue
		}

		strong := candidate.Score.Strong()
		best.Attempts = append(best.Attempts, models.AttemptSummary{
			Rotation:       attempt.Rotation,
			Variant:        string(attempt.Variant),
			ItemCount:      candidate.Score.ItemCount,
			KnownItemCount: candidate.Score.KnownItemCount,
			Score:          candidate.Score.Score,
			Strong:         strong,
		})
		p.logger.Debug("scan.attempt_result",
			zap.Int("attempt", i+1),
			zap.Int("rotation", attempt.Rotation),
			zap.String("variant", string(attempt.Variant)),
			zap.Int("raw_text_length", len(candidate.RawText)),
			zap.Int("item_count", candidate.Score.ItemCount),
			zap.Int("known_item_count", candidate.Score.KnownItemCount),
			zap.Float64("score", candidate.Score.Score),
		)

		if !best.found || candidate.Score.Score > best.Score.Score {
			best.RawText = candidate.RawText
			best.Items = candidate.Items
			best.OCRMeta = candidate.OCRMeta
			best.OCRConfidence = candidate.OCRConfidence
			best.Score = candidate.Score
			best.found = true
		}

		if strong {
			p.logger.Debug("scan.strong_candidate",
				zap.Int("attempt", i+1),
				zap.Float64("score", candidate.Score.Score),
			)
			break
		}
	}

	if !best.found {
		p.logger.Warn("scan.all_attempts_failed", zap.Int("failures", best.Failures))
	}

	return best, nil
}

type attemptCandidate struct {
	RawText       string
	Items         []models.ShoppingItem
	OCRMeta       models.OCRMeta
	OCRConfidence float64
	Score         CandidateScore
}

func (p *ScanPipeline) runAttempt(ctx context.Context, source AttemptSource, attempt Attempt) (*attemptCandidate, error) {
	start := time.Now()

	img, err := source.AttemptImage(ctx, attempt)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare attempt image: %w", err)
	}

	ocr, err := p.recognizer.Recognize(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("recognition failed: %w", err)
	}

	lines := p.builder.Parser().SplitLines(ocr.Text)
	items := p.builder.BuildItems(lines, models.SourceOCR)

	scoredLines := ocr.Lines
	if len(scoredLines) == 0 {
		scoredLines = lines
	}
	score := p.scorer(ocr.Text, scoredLines, items)

	lineCount := ocr.LineCount
	if lineCount == 0 {
		lineCount = len(ocr.Lines)
	}
	meta := models.OCRMeta{
		MeanConfidence:   ocr.MeanConfidence,
		WordCount:        ocr.WordCount,
		LineCount:        lineCount,
		GarbageLineRatio: GarbageLineRatio(scoredLines),
		TimeMs:           time.Since(start).Milliseconds(),
	}

	return &attemptCandidate{
		RawText:       ocr.Text,
		Items:         items,
		OCRMeta:       meta,
		OCRConfidence: ComputeOCRConfidence(meta),
		Score:         score,
	}, nil
}

func report(onProgress ProgressFunc, status models.PipelineStatus, progress float64, label string) {
	if onProgress == nil {
		return
	}
	onProgress(models.PipelineProgress{Status: status, Progress: progress, Label: label})
}
