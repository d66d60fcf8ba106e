package gamification

import (
	"strconv"
	"strings"

	"github.com/ecoguard/ecoguard/internal/domain"
)

// Achievement is one unlockable badge. Condition is a predicate over the
// cumulative progress state; each achievement unlocks at most once and
// grants its XP reward at unlock time.
type Achievement struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	XP          int    `json:"xp"`

	Condition func(p *domain.UserProgress) bool `json:"-"`
}

var achievements = []Achievement{
	{
		ID:          "first_analysis",
		Name:        "First Steps",
		Description: "Complete your first sustainability analysis",
		Icon:        "🌱",
		XP:          50,
		Condition:   func(p *domain.UserProgress) bool { return p.TotalAnalyses >= 1 },
	},
	{
		ID:          "streak_3",
		Name:        "Getting Started",
		Description: "Maintain a 3-day analysis streak",
		Icon:        "🔥",
		XP:          100,
		Condition:   func(p *domain.UserProgress) bool { return p.Streak >= 3 },
	},
	{
		ID:          "streak_7",
		Name:        "Week Warrior",
		Description: "Maintain a 7-day analysis streak",
		Icon:        "⚡",
		XP:          200,
		Condition:   func(p *domain.UserProgress) bool { return p.Streak >= 7 },
	},
	{
		ID:          "streak_30",
		Name:        "Monthly Master",
		Description: "Maintain a 30-day analysis streak",
		Icon:        "👑",
		XP:          500,
		Condition:   func(p *domain.UserProgress) bool { return p.Streak >= 30 },
	},
	{
		ID:          "analyses_10",
		Name:        "Explorer",
		Description: "Complete 10 sustainability analyses",
		Icon:        "🔍",
		XP:          150,
		Condition:   func(p *domain.UserProgress) bool { return p.TotalAnalyses >= 10 },
	},
	{
		ID:          "analyses_50",
		Name:        "Researcher",
		Description: "Complete 50 sustainability analyses",
		Icon:        "📊",
		XP:          300,
		Condition:   func(p *domain.UserProgress) bool { return p.TotalAnalyses >= 50 },
	},
	{
		ID:          "analyses_100",
		Name:        "Expert Analyst",
		Description: "Complete 100 sustainability analyses",
		Icon:        "🏆",
		XP:          500,
		Condition:   func(p *domain.UserProgress) bool { return p.TotalAnalyses >= 100 },
	},
	{
		ID:          "high_scorer",
		Name:        "High Standards",
		Description: "Find a company with 90+ sustainability score",
		Icon:        "🌟",
		XP:          200,
		Condition:   func(p *domain.UserProgress) bool { return p.HighestScore >= 90 },
	},
	{
		ID:          "eco_warrior",
		Name:        "Eco Warrior",
		Description: "Reach level 5",
		Icon:        "⚔️",
		XP:          250,
		Condition:   func(p *domain.UserProgress) bool { return p.Level >= 5 },
	},
	{
		ID:          "sustainability_master",
		Name:        "Sustainability Master",
		Description: "Reach level 10",
		Icon:        "🧙‍♂️",
		XP:          1000,
		Condition:   func(p *domain.UserProgress) bool { return p.Level >= 10 },
	},
	{
		ID:          "carbon_conscious",
		Name:        "Carbon Conscious",
		Description: "Track carbon impact for 30 days",
		Icon:        "🌍",
		XP:          300,
		Condition:   func(p *domain.UserProgress) bool { return p.CarbonTrackingDays >= 30 },
	},
	{
		ID:          "comparison_king",
		Name:        "Comparison King",
		Description: "Compare 5 different companies",
		Icon:        "⚖️",
		XP:          200,
		Condition:   func(p *domain.UserProgress) bool { return p.CompaniesCompared >= 5 },
	},
}

// Achievements returns the full catalog.
func Achievements() []Achievement {
	out := make([]Achievement, len(achievements))
	copy(out, achievements)
	return out
}

// AchievementState is a catalog entry annotated with the user's unlock
// state and, for counted achievements, percentage progress.
type AchievementState struct {
	Achievement
	Unlocked bool `json:"unlocked"`
	Progress int  `json:"progress"`
}

// AchievementProgress annotates the catalog for one user.
func AchievementProgress(p *domain.UserProgress) []AchievementState {
	states := make([]AchievementState, 0, len(achievements))

	for _, a := range achievements {
		state := AchievementState{Achievement: a}

		if p.HasAchievement(a.ID) {
			state.Unlocked = true
			state.Progress = 100
		} else if target, kind, ok := countedTarget(a.ID); ok {
			var have int
			if kind == "analyses" {
				have = p.TotalAnalyses
			} else {
				have = p.Streak
			}
			pct := float64(have) / float64(target) * 100
			if pct > 100 {
				pct = 100
			}
			state.Progress = int(pct + 0.5)
		}

		states = append(states, state)
	}

	return states
}

func countedTarget(id string) (target int, kind string, ok bool) {
	for _, prefix := range []string{"analyses_", "streak_"} {
		if strings.HasPrefix(id, prefix) {
			n, err := strconv.Atoi(strings.TrimPrefix(id, prefix))
			if err != nil {
				return 0, "", false
			}
			return n, strings.TrimSuffix(prefix, "_"), true
		}
	}
	return 0, "", false
}
