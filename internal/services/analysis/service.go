package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ecoguard/ecoguard/internal/domain"
	"github.com/ecoguard/ecoguard/internal/gamification"
	"github.com/ecoguard/ecoguard/internal/llm"
	"github.com/ecoguard/ecoguard/internal/scraper"
	"github.com/ecoguard/ecoguard/internal/services/research"
)

// PageFetcher renders a URL and captures a snapshot for the heuristics.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*scraper.PageSnapshot, error)
}

// Researcher produces the external research block for a company.
type Researcher interface {
	Research(ctx context.Context, companyName string) string
}

// Completer is the chat completion surface of the LLM client.
type Completer interface {
	Complete(ctx context.Context, apiKey, systemPrompt, userPrompt string) (string, *llm.Usage, error)
}

// HistoryStore persists completed analyses, newest first, evicting past the cap.
type HistoryStore interface {
	Insert(ctx context.Context, item *domain.HistoryItem) error
}

// ProgressStore persists gamification state.
type ProgressStore interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.UserProgress, error)
	Save(ctx context.Context, progress *domain.UserProgress) error
}

// SettingsStore reads per-user settings.
type SettingsStore interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.Settings, error)
}

// LatestCache keeps the most recent result per user and URL for quick reloads.
type LatestCache interface {
	SetLatest(ctx context.Context, userID uuid.UUID, url string, result *domain.AnalysisResult) error
}

// Character budgets per analysis depth.
var depthBudgets = map[domain.AnalysisDepth]int{
	domain.DepthQuick:    1500,
	domain.DepthStandard: 3500,
	domain.DepthDeep:     6000,
}

// Service orchestrates the full pipeline: scrape, research, model call,
// parse, persist, gamify.
type Service struct {
	fetcher  PageFetcher
	research Researcher
	llm      Completer
	engine   *gamification.Engine

	history  HistoryStore
	progress ProgressStore
	settings SettingsStore
	latest   LatestCache

	logger *zap.Logger

	// In-progress guard: one analysis per user at a time, rejected not queued
	inFlight   map[uuid.UUID]struct{}
	inFlightMu sync.Mutex
}

// NewService wires the pipeline. latest may be nil.
func NewService(
	fetcher PageFetcher,
	research Researcher,
	completer Completer,
	engine *gamification.Engine,
	history HistoryStore,
	progress ProgressStore,
	settings SettingsStore,
	latest LatestCache,
	logger *zap.Logger,
) *Service {
	return &Service{
		fetcher:  fetcher,
		research: research,
		llm:      completer,
		engine:   engine,
		history:  history,
		progress: progress,
		settings: settings,
		latest:   latest,
		logger:   logger,
		inFlight: make(map[uuid.UUID]struct{}),
	}
}

// Outcome is the full result of one analysis run.
type Outcome struct {
	Result      *domain.AnalysisResult    `json:"result"`
	HistoryItem *domain.HistoryItem       `json:"history_item"`
	Progress    *domain.UserProgress      `json:"progress"`
	Applied     *gamification.ApplyResult `json:"applied"`
}

// Scrape fetches and scrapes a page without running the analysis.
func (s *Service) Scrape(ctx context.Context, url string) (*domain.ScrapedPage, error) {
	snap, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return scraper.Scrape(snap), nil
}

// Analyze runs the whole pipeline for one URL. Credential and upstream API
// failures surface inside the result as "Error: ..." strings, not as Go
// errors; only scrape and storage failures reach the caller.
func (s *Service) Analyze(ctx context.Context, userID uuid.UUID, url string) (*Outcome, error) {
	if !s.acquire(userID) {
		return nil, domain.AnalysisInFlightError(userID.String())
	}
	defer s.release(userID)

	started := time.Now()

	page, err := s.Scrape(ctx, url)
	if err != nil {
		return nil, err
	}

	settings, err := s.settings.Get(ctx, userID)
	if err != nil {
		if !domain.IsNotFound(err) {
			return nil, err
		}
		settings = domain.DefaultSettings(userID)
	}

	researchBlock := ""
	if page.CompanyName != "" {
		researchBlock = s.research.Research(ctx, page.CompanyName)
	}

	raw := s.complete(ctx, settings, page, researchBlock)

	parsed := Parse(raw)
	result := &domain.AnalysisResult{
		OverallScore:    parsed.OverallScore,
		Breakdown:       parsed.Breakdown,
		KeyFindings:     parsed.KeyFindings,
		Improvements:    parsed.Improvements,
		Certifications:  parsed.Certifications,
		Confidence:      parsed.Confidence,
		CompanyName:     page.CompanyName,
		Domain:          page.Meta.Domain,
		RawResponse:     raw,
		ResearchApplied: researchBlock != "" && researchBlock != research.NoDataSentinel,
		Timestamp:       time.Now().UTC(),
	}

	item := &domain.HistoryItem{
		ID:             uuid.New(),
		UserID:         userID,
		Domain:         page.Meta.Domain,
		CompanyName:    page.CompanyName,
		URL:            page.Meta.URL,
		Title:          page.Meta.Title,
		PageType:       page.PageType,
		Score:          result.OverallScore,
		Breakdown:      result.Breakdown,
		Confidence:     result.Confidence,
		KeyFindings:    result.KeyFindings,
		Improvements:   result.Improvements,
		Certifications: result.Certifications,
		CreatedAt:      result.Timestamp,
	}
	if err := s.history.Insert(ctx, item); err != nil {
		return nil, err
	}

	progress, err := s.progress.Get(ctx, userID)
	if err != nil {
		if !domain.IsNotFound(err) {
			return nil, err
		}
		progress = domain.NewUserProgress(userID)
	}

	applied := s.engine.ApplyAnalysis(progress, result.OverallScore, time.Now())
	if err := s.progress.Save(ctx, progress); err != nil {
		return nil, err
	}

	if s.latest != nil {
		if err := s.latest.SetLatest(ctx, userID, url, result); err != nil {
			s.logger.Warn("caching latest analysis failed", zap.Error(err))
		}
	}

	s.logger.Info("analysis completed",
		zap.String("user_id", userID.String()),
		zap.String("url", url),
		zap.String("company", page.CompanyName),
		zap.Intp("score", result.OverallScore),
		zap.Duration("elapsed", time.Since(started)),
	)

	return &Outcome{
		Result:      result,
		HistoryItem: item,
		Progress:    progress,
		Applied:     applied,
	}, nil
}

// complete builds the user prompt and calls the model, folding every failure
// into a user-facing result string.
func (s *Service) complete(ctx context.Context, settings *domain.Settings, page *domain.ScrapedPage, researchBlock string) string {
	if settings.APIKey == "" {
		// The client may still hold a server-level fallback key; probe with
		// an explicit empty override to find out.
		raw, _, err := s.llm.Complete(ctx, "", systemPrompt, s.buildUserPrompt(settings, page, researchBlock))
		if err != nil {
			if isMissingKey(err) {
				return missingKeyMessage
			}
			return errorResult(err)
		}
		return raw
	}

	raw, _, err := s.llm.Complete(ctx, settings.APIKey, systemPrompt, s.buildUserPrompt(settings, page, researchBlock))
	if err != nil {
		return errorResult(err)
	}
	return raw
}

func (s *Service) buildUserPrompt(settings *domain.Settings, page *domain.ScrapedPage, researchBlock string) string {
	budget := depthBudgets[settings.AnalysisDepth]
	if budget == 0 {
		budget = depthBudgets[domain.DepthStandard]
	}

	text := page.PageText
	if len(text) > budget {
		text = text[:budget]
	}

	if researchBlock != "" {
		return text + "\n\nEXTERNAL RESEARCH FINDINGS:\n" + researchBlock
	}
	return text
}

func errorResult(err error) string {
	var apiErr *llm.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("Error: HTTP %d", apiErr.StatusCode)
	}
	return fmt.Sprintf("Error: %v", err)
}

func isMissingKey(err error) bool {
	return errors.Is(err, llm.ErrMissingKey)
}

func (s *Service) acquire(userID uuid.UUID) bool {
	s.inFlightMu.Lock()
	defer s.inFlightMu.Unlock()

	if _, busy := s.inFlight[userID]; busy {
		return false
	}
	s.inFlight[userID] = struct{}{}
	return true
}

func (s *Service) release(userID uuid.UUID) {
	s.inFlightMu.Lock()
	delete(s.inFlight, userID)
	s.inFlightMu.Unlock()
}
