// Package carbon estimates avoided CO2 impact from analysis history.
// Each analysis contributes (100-score)*0.5 kg; entries without a score
// contribute nothing.
package carbon

import (
	"time"

	"github.com/ecoguard/ecoguard/internal/domain"
)

const kgPerScorePoint = 0.5

// EstimateKg returns the avoided-impact estimate for one analysis.
func EstimateKg(score *int) float64 {
	if score == nil {
		return 0
	}
	return float64(100-*score) * kgPerScorePoint
}

// Summarize aggregates estimates over the trailing day, week, and month
// relative to now.
func Summarize(history []domain.HistoryItem, now time.Time) domain.CarbonSummary {
	dayCutoff := now.Add(-24 * time.Hour)
	weekCutoff := now.Add(-7 * 24 * time.Hour)
	monthCutoff := now.Add(-30 * 24 * time.Hour)

	var summary domain.CarbonSummary
	for _, item := range history {
		if item.CreatedAt.After(now) || item.CreatedAt.Before(monthCutoff) {
			continue
		}
		kg := EstimateKg(item.Score)
		summary.MonthlyKg += kg
		if !item.CreatedAt.Before(weekCutoff) {
			summary.WeeklyKg += kg
		}
		if !item.CreatedAt.Before(dayCutoff) {
			summary.DailyKg += kg
		}
	}
	return summary
}
