package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DefaultSharedDailyLimit is the number of shared-key vision reads allowed per day
const DefaultSharedDailyLimit = 5

var (
	ErrVisionKeyRequired  = errors.New("an OpenAI API key is required to process photos")
	ErrVisionKeyInvalid   = errors.New("that API key looks invalid; keys start with sk-")
	ErrSharedLimitReached = errors.New("daily shared AI limit reached; add your own OpenAI API key to continue")
)

// MagicDecision is the input of ShouldSuggestMagicMode
type MagicDecision struct {
	UserRequested       bool
	OCRConfidence       float64
	ItemCount           int
	ImageLikelyNonBlank bool
}

// ShouldSuggestMagicMode reports whether the vision parser should be offered
// after an OCR pass.
func ShouldSuggestMagicMode(d MagicDecision) bool {
	if d.UserRequested {
		return true
	}
	if !d.ImageLikelyNonBlank {
		return false
	}
	if d.OCRConfidence < 0.55 {
		return true
	}
	return d.ItemCount < 4
}

var apiKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// IsLikelyOpenAIKey rejects placeholders and obviously malformed keys
func IsLikelyOpenAIKey(key string) bool {
	key = strings.TrimSpace(key)
	if !strings.HasPrefix(key, "sk-") || len(key) < 20 {
		return false
	}
	return apiKeyPattern.MatchString(key)
}

// UsageStore counts shared-key vision calls per day
type UsageStore interface {
	SharedVisionUsage(ctx context.Context, day string) (int, error)
	IncrementSharedVisionUsage(ctx context.Context, day string) (int, error)
}

// UserKeyStore returns the operator's saved vision key, or "" when none is saved
type UserKeyStore interface {
	UserVisionKey(ctx context.Context) (string, error)
}

// ResolvedKey is the key chosen for one vision call
type ResolvedKey struct {
	Key    string
	Shared bool
}

// VisionKeyResolver picks the API key for a vision call: a key supplied with
// the request, then the saved user key, then the shared key under its daily limit.
type VisionKeyResolver struct {
	sharedKey  string
	dailyLimit int
	usage      UsageStore
	userKeys   UserKeyStore
	now        func() time.Time
}

// NewVisionKeyResolver creates a key resolver. userKeys may be nil.
func NewVisionKeyResolver(sharedKey string, dailyLimit int, usage UsageStore, userKeys UserKeyStore) *VisionKeyResolver {
	if dailyLimit <= 0 {
		dailyLimit = DefaultSharedDailyLimit
	}
	sharedKey = strings.TrimSpace(sharedKey)
	if !IsLikelyOpenAIKey(sharedKey) {
		sharedKey = ""
	}
	return &VisionKeyResolver{
		sharedKey:  sharedKey,
		dailyLimit: dailyLimit,
		usage:      usage,
		userKeys:   userKeys,
		now:        time.Now,
	}
}

// Resolve chooses the key for a call
func (r *VisionKeyResolver) Resolve(ctx context.Context, requestKey string) (ResolvedKey, error) {
	if key := strings.TrimSpace(requestKey); key != "" {
		if !IsLikelyOpenAIKey(key) {
			return ResolvedKey{}, ErrVisionKeyInvalid
		}
		if err := r.checkShared(ctx, key); err != nil {
			return ResolvedKey{}, err
		}
		return ResolvedKey{Key: key, Shared: key == r.sharedKey}, nil
	}

	if r.userKeys != nil {
		saved, err := r.userKeys.UserVisionKey(ctx)
		if err != nil {
			return ResolvedKey{}, fmt.Errorf("failed to load saved vision key: %w", err)
		}
		if IsLikelyOpenAIKey(saved) && strings.TrimSpace(saved) != r.sharedKey {
			return ResolvedKey{Key: strings.TrimSpace(saved)}, nil
		}
	}

	if r.sharedKey == "" {
		return ResolvedKey{}, ErrVisionKeyRequired
	}
	if err := r.checkShared(ctx, r.sharedKey); err != nil {
		return ResolvedKey{}, err
	}
	return ResolvedKey{Key: r.sharedKey, Shared: true}, nil
}

func (r *VisionKeyResolver) checkShared(ctx context.Context, key string) error {
	if key != r.sharedKey || r.usage == nil {
		return nil
	}
	count, err := r.usage.SharedVisionUsage(ctx, r.today())
	if err != nil {
		return fmt.Errorf("failed to read shared usage: %w", err)
	}
	if count >= r.dailyLimit {
		return ErrSharedLimitReached
	}
	return nil
}

// RecordUsage counts a completed call against the shared daily limit
func (r *VisionKeyResolver) RecordUsage(ctx context.Context, key ResolvedKey) error {
	if !key.Shared || r.usage == nil {
		return nil
	}
	if _, err := r.usage.IncrementSharedVisionUsage(ctx, r.today()); err != nil {
		return fmt.Errorf("failed to record shared usage: %w", err)
	}
	return nil
}

func (r *VisionKeyResolver) today() string {
	return r.now().Format("2006-01-02")
}
