package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"urlshort/internal/apperr"
	"urlshort/internal/cache"
	"urlshort/internal/domain"
	"urlshort/internal/idgen"
	"urlshort/internal/store"
	"urlshort/internal/validator"
)

// DuplicateStrategy mirrors the per-user preference consulted before
// deciding how to handle a repeated longUrl.
type DuplicateStrategy string

const (
	StrategyGenerateNew    DuplicateStrategy = "generate_new"
	StrategyReuseExisting  DuplicateStrategy = "reuse_existing"
	maxGenerationRetries                     = 3
	bulkBatchSize                            = 10
)

// UserPreferences is the subset of user settings the shortener service
// consults; fetching the full user record is the external auth
// collaborator's concern (see DESIGN.md).
type UserPreferences struct {
	DuplicateStrategy DuplicateStrategy
	DefaultExpiryDays *int
}

// UserPreferencesLookup resolves a user's duplicate-handling
// preference. A nil lookup or a lookup returning (nil, nil) falls back
// to StrategyGenerateNew.
type UserPreferencesLookup func(ctx context.Context, userID uuid.UUID) (*UserPreferences, error)

// CreateRequest is the normalized input to CreateShortURL.
type CreateRequest struct {
	LongURL     string
	CustomAlias string
	UserID      *uuid.UUID
	ExpiryDays  *int
	BaseURL     string
}

// CreateResult is the outcome of a successful short URL creation.
type CreateResult struct {
	ShortCode     string
	LongURL       string
	ShortURL      string
	IsCustomAlias bool
	ExpiresAt     *time.Time
	WasReused     bool
	UserID        *uuid.UUID
}

// ShortenerService implements createShortUrl and bulk creation.
type ShortenerService struct {
	store  *store.URLStore
	cache  *cache.MultiLayerCache
	facade *idgen.Facade
	prefs  UserPreferencesLookup
}

func NewShortenerService(s *store.URLStore, c *cache.MultiLayerCache, facade *idgen.Facade, prefs UserPreferencesLookup) *ShortenerService {
	return &ShortenerService{store: s, cache: c, facade: facade, prefs: prefs}
}

func expiryFromDays(days *int) *time.Time {
	if days == nil {
		return nil
	}
	t := time.Now().UTC().AddDate(0, 0, *days)
	return &t
}

// CreateShortURL validates the request, resolves the duplicate
// strategy and expiry, and creates a new mapping (or reuses an existing
// one) accordingly.
func (s *ShortenerService) CreateShortURL(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	longURL, err := validator.ValidateURL(req.LongURL)
	if err != nil {
		return nil, err
	}

	strategy := StrategyGenerateNew
	expiresAt := expiryFromDays(req.ExpiryDays)

	if req.UserID != nil && s.prefs != nil {
		prefs, err := s.prefs(ctx, *req.UserID)
		if err != nil {
			return nil, err
		}
		if prefs != nil {
			if prefs.DuplicateStrategy != "" {
				strategy = prefs.DuplicateStrategy
			}
			if req.ExpiryDays == nil && prefs.DefaultExpiryDays != nil {
				expiresAt = expiryFromDays(prefs.DefaultExpiryDays)
			}
		}
	}

	alias := strings.TrimSpace(req.CustomAlias)
	if alias != "" {
		return s.createWithCustomAlias(ctx, req, alias, expiresAt)
	}

	if strategy == StrategyReuseExisting && req.UserID != nil {
		existing, err := s.store.FindByHashAndUser(ctx, longURL, *req.UserID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return s.toResult(existing, req.BaseURL, true), nil
		}
	}

	return s.createGenerated(ctx, req, longURL, expiresAt)
}

func (s *ShortenerService) createWithCustomAlias(ctx context.Context, req CreateRequest, alias string, expiresAt *time.Time) (*CreateResult, error) {
	sanitized, err := validator.ValidateAliasGrammar(alias)
	if err != nil {
		return nil, err
	}

	available, err := validator.CheckAliasAvailability(ctx, s.store, sanitized)
	if err != nil {
		return nil, err
	}
	if !available {
		suggestions, sErr := validator.SuggestAlternatives(ctx, s.store, sanitized)
		if sErr != nil {
			suggestions = nil
		}
		return nil, apperr.AliasTaken(fmt.Sprintf("alias %q is already taken", sanitized), suggestions)
	}

	longURL, err := validator.ValidateURL(req.LongURL)
	if err != nil {
		return nil, err
	}

	mapping := &domain.URLMapping{
		ShortCode:     sanitized,
		LongURL:       longURL,
		UserID:        req.UserID,
		IsCustomAlias: true,
		ExpiresAt:     expiresAt,
	}
	if err := s.store.Create(ctx, mapping); err != nil {
		return nil, err
	}
	s.cache.WriteThrough(ctx, mapping)
	return s.toResult(mapping, req.BaseURL, false), nil
}

func (s *ShortenerService) createGenerated(ctx context.Context, req CreateRequest, longURL string, expiresAt *time.Time) (*CreateResult, error) {
	var lastErr error
	for attempt := 0; attempt < maxGenerationRetries; attempt++ {
		code, _, _, err := s.facade.Generate(ctx, idgen.DefaultGenerateOptions())
		if err != nil {
			lastErr = err
			continue
		}

		mapping := &domain.URLMapping{
			ShortCode: code,
			LongURL:   longURL,
			UserID:    req.UserID,
			ExpiresAt: expiresAt,
		}
		if err := s.store.Create(ctx, mapping); err != nil {
			if appErr := apperr.As(err); appErr != nil && appErr.Code == apperr.CodeDuplicateCode {
				lastErr = err
				continue
			}
			return nil, err
		}
		s.cache.WriteThrough(ctx, mapping)
		return s.toResult(mapping, req.BaseURL, false), nil
	}
	return nil, apperr.GenerationFailed(lastErr)
}

func (s *ShortenerService) toResult(m *domain.URLMapping, baseURL string, reused bool) *CreateResult {
	return &CreateResult{
		ShortCode:     m.ShortCode,
		LongURL:       m.LongURL,
		ShortURL:      strings.TrimRight(baseURL, "/") + "/" + m.ShortCode,
		IsCustomAlias: m.IsCustomAlias,
		ExpiresAt:     m.ExpiresAt,
		WasReused:     reused,
		UserID:        m.UserID,
	}
}

// BulkItem is one input/output pair of a bulk-creation call.
type BulkItem struct {
	Request CreateRequest
	Result  *CreateResult
	Err     error
}

// CreateBulk processes inputs in batches of 10 with bounded
// concurrency, never failing the whole batch on one
// item's error; per-item errors are collected with multierr for the
// caller to inspect alongside the successful results.
func (s *ShortenerService) CreateBulk(ctx context.Context, reqs []CreateRequest) ([]BulkItem, error) {
	items := make([]BulkItem, len(reqs))
	var combined error
	var mu sync.Mutex

	for start := 0; start < len(reqs); start += bulkBatchSize {
		end := start + bulkBatchSize
		if end > len(reqs) {
			end = len(reqs)
		}
		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				result, err := s.CreateShortURL(ctx, reqs[i])
				items[i] = BulkItem{Request: reqs[i], Result: result, Err: err}
				if err != nil {
					mu.Lock()
					combined = multierr.Append(combined, err)
					mu.Unlock()
				}
			}(i)
		}
		wg.Wait()
	}
	return items, combined
}
