package gamification

import (
	"time"

	"go.uber.org/zap"

	"github.com/ecoguard/ecoguard/internal/domain"
)

const dayFormat = "2006-01-02"

// Engine applies completed analyses to user progress. It is stateless;
// persistence is the caller's concern.
type Engine struct {
	logger *zap.Logger
}

func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{logger: logger}
}

// ApplyResult describes what one analysis changed.
type ApplyResult struct {
	XPGained        int           `json:"xp_gained"`
	LeveledUp       bool          `json:"leveled_up"`
	OldLevel        int           `json:"old_level"`
	NewLevel        Level         `json:"new_level"`
	NewAchievements []Achievement `json:"new_achievements"`
}

// ApplyAnalysis mutates progress for one completed analysis: base and
// score-tier XP, streak, totals, achievements. Level is recomputed after
// achievement XP lands, so a reward can itself push a level change.
func (e *Engine) ApplyAnalysis(p *domain.UserProgress, score *int, now time.Time) *ApplyResult {
	oldLevel := p.Level
	xpBefore := p.XP

	p.XP += 10

	if score != nil {
		switch {
		case *score >= 90:
			p.XP += 20
		case *score >= 80:
			p.XP += 15
		case *score >= 70:
			p.XP += 10
		default:
			p.XP += 5
		}
		if *score > p.HighestScore {
			p.HighestScore = *score
		}
	}

	p.TotalAnalyses++
	e.updateStreak(p, now)

	p.Level = LevelForXP(p.XP).Level

	unlocked := e.checkAchievements(p)

	// Achievement XP can cross a threshold
	newLevel := LevelForXP(p.XP)
	p.Level = newLevel.Level
	p.UpdatedAt = now.UTC()

	result := &ApplyResult{
		XPGained:        p.XP - xpBefore,
		LeveledUp:       newLevel.Level > oldLevel,
		OldLevel:        oldLevel,
		NewLevel:        newLevel,
		NewAchievements: unlocked,
	}

	if result.LeveledUp {
		e.logger.Info("user leveled up",
			zap.String("user_id", p.UserID.String()),
			zap.Int("old_level", oldLevel),
			zap.Int("new_level", newLevel.Level),
		)
	}

	return result
}

// updateStreak compares calendar days: same day leaves the streak alone,
// exactly one day later increments, anything else resets to 1. A new
// tracking day also bumps the carbon tracking counter.
func (e *Engine) updateStreak(p *domain.UserProgress, now time.Time) {
	today := now.UTC().Format(dayFormat)

	if p.LastAnalysisDay == today {
		return
	}

	if isConsecutiveDay(p.LastAnalysisDay, today) {
		p.Streak++
	} else {
		p.Streak = 1
	}

	p.CarbonTrackingDays++
	p.LastAnalysisDay = today
}

func isConsecutiveDay(lastDay, today string) bool {
	if lastDay == "" {
		return false
	}

	last, err := time.Parse(dayFormat, lastDay)
	if err != nil {
		return false
	}
	current, err := time.Parse(dayFormat, today)
	if err != nil {
		return false
	}

	return current.Sub(last) == 24*time.Hour
}

// checkAchievements unlocks every newly satisfied achievement and grants
// its XP. Conditions see the state as of this call, including earlier
// unlocks in the same pass.
func (e *Engine) checkAchievements(p *domain.UserProgress) []Achievement {
	var unlocked []Achievement

	for _, a := range achievements {
		if p.HasAchievement(a.ID) || !a.Condition(p) {
			continue
		}
		p.Achievements = append(p.Achievements, a.ID)
		p.XP += a.XP
		unlocked = append(unlocked, a)

		e.logger.Info("achievement unlocked",
			zap.String("user_id", p.UserID.String()),
			zap.String("achievement", a.ID),
			zap.Int("xp_reward", a.XP),
		)
	}

	return unlocked
}

// DailyChallenge is a rotating goal surfaced to the user.
type DailyChallenge struct {
	Text string `json:"text"`
	XP   int    `json:"xp"`
	Type string `json:"type"`
}

var dailyChallenges = []DailyChallenge{
	{Text: "Analyze 3 different company websites", XP: 50, Type: "analysis_count"},
	{Text: "Find a company with 80+ sustainability score", XP: 75, Type: "high_score"},
	{Text: "Analyze companies from 2 different industries", XP: 60, Type: "industry_variety"},
	{Text: "Complete 5 analyses today", XP: 100, Type: "daily_volume"},
}

// ChallengeForDay rotates the challenge list by day of year.
func ChallengeForDay(now time.Time) DailyChallenge {
	return dailyChallenges[now.YearDay()%len(dailyChallenges)]
}
