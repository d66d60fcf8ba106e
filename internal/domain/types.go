package domain

import (
	"time"

	"github.com/google/uuid"
)

// Common types used across domain models

// PageType classifies the kind of page a scrape produced.
type PageType string

const (
	PageTypeSustainability PageType = "sustainability"
	PageTypeAbout          PageType = "about"
	PageTypeProduct        PageType = "product"
	PageTypeGeneral        PageType = "general"
)

func (p PageType) IsValid() bool {
	switch p {
	case PageTypeSustainability, PageTypeAbout, PageTypeProduct, PageTypeGeneral:
		return true
	}
	return false
}

// Confidence expresses how much weight an analysis deserves.
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

func (c Confidence) IsValid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}

// AnalysisDepth controls how much page content is sent to the model.
type AnalysisDepth string

const (
	DepthQuick    AnalysisDepth = "quick"
	DepthStandard AnalysisDepth = "standard"
	DepthDeep     AnalysisDepth = "deep"
)

func (d AnalysisDepth) IsValid() bool {
	switch d {
	case DepthQuick, DepthStandard, DepthDeep:
		return true
	}
	return false
}

// RelatedLink is a hyperlink on the scraped page that matched one of the
// sustainability/about/responsibility/sourcing keyword groups. A single link
// can match several groups and appears once per group.
type RelatedLink struct {
	Type string `json:"type"`
	URL  string `json:"url"`
	Text string `json:"text"`
}

// PageMeta carries document metadata captured during a scrape.
type PageMeta struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Domain      string `json:"domain"`
	URL         string `json:"url"`
}

// ScrapedPage is the structured output of one page scrape. It is built once
// per scrape request and never mutated afterwards.
type ScrapedPage struct {
	PageText           string        `json:"page_text"`
	CompanyName        string        `json:"company_name"`
	PageType           PageType      `json:"page_type"`
	Materials          []string      `json:"materials"`
	SustainabilityInfo []string      `json:"sustainability_info"`
	RelatedLinks       []RelatedLink `json:"related_links"`
	Meta               PageMeta      `json:"meta_info"`
}

// BreakdownScores holds the four 0-25 category sub-scores. They are parsed
// independently of the overall score and are not reconciled against it: the
// two can legitimately disagree because both come from the same free-text
// model reply.
type BreakdownScores struct {
	Environmental int `json:"environmental"`
	Social        int `json:"social"`
	Governance    int `json:"governance"`
	Materials     int `json:"materials"`
}

// Sum returns the total of the four category scores.
func (b BreakdownScores) Sum() int {
	return b.Environmental + b.Social + b.Governance + b.Materials
}

// AnalysisResult is the structured form of one model reply. It is derived
// deterministically from the raw response text and never mutated after
// construction.
type AnalysisResult struct {
	OverallScore    *int            `json:"overall_score"` // nil when no score could be extracted
	Breakdown       BreakdownScores `json:"breakdown_scores"`
	KeyFindings     []string        `json:"key_findings"`
	Improvements    []string        `json:"improvements"`
	Certifications  []string        `json:"certifications"`
	Confidence      Confidence      `json:"confidence"`
	CompanyName     string          `json:"company_name"`
	Domain          string          `json:"domain"`
	RawResponse     string          `json:"raw_response"`
	ResearchApplied bool            `json:"research_applied"`
	Timestamp       time.Time       `json:"timestamp"`
}

// Score returns the overall score or 0 when none was extracted.
func (r *AnalysisResult) Score() int {
	if r.OverallScore == nil {
		return 0
	}
	return *r.OverallScore
}

// HistoryItem is the persisted superset of an AnalysisResult plus page
// metadata. History is an append-only, newest-first log capped at 100
// entries per user; the oldest entry is evicted on overflow.
type HistoryItem struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	UserID         uuid.UUID       `json:"user_id" db:"user_id"`
	Domain         string          `json:"domain" db:"domain"`
	CompanyName    string          `json:"company_name" db:"company_name"`
	URL            string          `json:"url" db:"url"`
	Title          string          `json:"title" db:"title"`
	PageType       PageType        `json:"page_type" db:"page_type"`
	Score          *int            `json:"score" db:"score"`
	Breakdown      BreakdownScores `json:"breakdown_scores"`
	Confidence     Confidence      `json:"confidence" db:"confidence"`
	KeyFindings    []string        `json:"key_findings"`
	Improvements   []string        `json:"improvements"`
	Certifications []string        `json:"certifications"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

// HistoryCap is the maximum number of history entries kept per user.
const HistoryCap = 100

// HistoryStats summarizes a user's analysis history. AverageScore and
// BestScore only consider entries with an extracted score.
type HistoryStats struct {
	Total        int     `json:"total" db:"total"`
	AverageScore float64 `json:"average_score" db:"average_score"`
	BestScore    int     `json:"best_score" db:"best_score"`
}

// UserProgress is the gamification state carried across sessions.
// Level is a monotonic non-decreasing function of XP.
type UserProgress struct {
	UserID             uuid.UUID `json:"user_id" db:"user_id"`
	Level              int       `json:"level" db:"level"`
	XP                 int       `json:"xp" db:"xp"`
	Streak             int       `json:"streak" db:"streak"`
	TotalAnalyses      int       `json:"total_analyses" db:"total_analyses"`
	HighestScore       int       `json:"highest_score" db:"highest_score"`
	CarbonTrackingDays int       `json:"carbon_tracking_days" db:"carbon_tracking_days"`
	CompaniesCompared  int       `json:"companies_compared" db:"companies_compared"`
	Achievements       []string  `json:"achievements"`
	LastAnalysisDay    string    `json:"last_analysis_day" db:"last_analysis_day"` // YYYY-MM-DD, empty before first analysis
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
}

// NewUserProgress returns the zero progress state for a fresh user.
func NewUserProgress(userID uuid.UUID) *UserProgress {
	now := time.Now().UTC()
	return &UserProgress{
		UserID:       userID,
		Level:        1,
		Achievements: []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// HasAchievement reports whether the given achievement id is unlocked.
func (p *UserProgress) HasAchievement(id string) bool {
	for _, a := range p.Achievements {
		if a == id {
			return true
		}
	}
	return false
}

// Comparison is a pinned company kept for side-by-side score comparison.
// The set is keyed by domain and capped at ComparisonCap entries per user;
// re-adding a domain replaces the stored entry.
type Comparison struct {
	UserID      uuid.UUID       `json:"user_id" db:"user_id"`
	Domain      string          `json:"domain" db:"domain"`
	CompanyName string          `json:"company_name" db:"company_name"`
	Score       *int            `json:"score" db:"score"`
	Breakdown   BreakdownScores `json:"breakdown_scores"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// ComparisonCap is the maximum number of pinned comparisons per user.
const ComparisonCap = 5

// Settings holds per-user configuration persisted across sessions.
type Settings struct {
	UserID                   uuid.UUID     `json:"user_id" db:"user_id"`
	APIKey                   string        `json:"api_key,omitempty" db:"api_key"`
	AnalysisDepth            AnalysisDepth `json:"analysis_depth" db:"analysis_depth"`
	DailyReminder            bool          `json:"daily_reminder" db:"daily_reminder"`
	AchievementNotifications bool          `json:"achievement_notifications" db:"achievement_notifications"`
	AutoAnalyze              bool          `json:"auto_analyze" db:"auto_analyze"`
	UpdatedAt                time.Time     `json:"updated_at" db:"updated_at"`
}

// DefaultSettings returns the settings applied to a user with no stored row.
func DefaultSettings(userID uuid.UUID) *Settings {
	return &Settings{
		UserID:                   userID,
		AnalysisDepth:            DepthStandard,
		DailyReminder:            true,
		AchievementNotifications: true,
		AutoAnalyze:              false,
		UpdatedAt:                time.Now().UTC(),
	}
}

// CarbonSummary is the estimated avoided-impact aggregate computed from
// analysis history. The per-analysis estimate is (100-score)*0.5 kg CO2.
type CarbonSummary struct {
	DailyKg   float64 `json:"daily_kg"`
	WeeklyKg  float64 `json:"weekly_kg"`
	MonthlyKg float64 `json:"monthly_kg"`
}
