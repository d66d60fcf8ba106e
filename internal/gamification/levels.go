package gamification

// Level is one step of the XP ladder.
type Level struct {
	Level      int    `json:"level"`
	Name       string `json:"name"`
	XPRequired int    `json:"xp_required"`
	Color      string `json:"color"`
	Badge      string `json:"badge"`
}

// levels is the fixed ladder. XPRequired values are cumulative thresholds;
// the current level is the highest threshold at or below the user's XP.
var levels = []Level{
	{Level: 1, Name: "Eco Novice", XPRequired: 0, Color: "#10b981", Badge: "🌱"},
	{Level: 2, Name: "Green Learner", XPRequired: 100, Color: "#059669", Badge: "📚"},
	{Level: 3, Name: "Sustainability Seeker", XPRequired: 300, Color: "#047857", Badge: "🔍"},
	{Level: 4, Name: "Eco Warrior", XPRequired: 600, Color: "#065f46", Badge: "⚔️"},
	{Level: 5, Name: "Planet Guardian", XPRequired: 1000, Color: "#064e3b", Badge: "🛡️"},
	{Level: 6, Name: "Green Champion", XPRequired: 1500, Color: "#0f766e", Badge: "🏆"},
	{Level: 7, Name: "Sustainability Expert", XPRequired: 2200, Color: "#0d9488", Badge: "🎓"},
	{Level: 8, Name: "Eco Master", XPRequired: 3000, Color: "#14b8a6", Badge: "🧙‍♂️"},
	{Level: 9, Name: "Planet Savior", XPRequired: 4000, Color: "#5eead4", Badge: "🌟"},
	{Level: 10, Name: "Sustainability Legend", XPRequired: 5500, Color: "#f0fdfa", Badge: "👑"},
}

// Levels returns the full ladder.
func Levels() []Level {
	out := make([]Level, len(levels))
	copy(out, levels)
	return out
}

// LevelForXP returns the level entry for a cumulative XP total.
func LevelForXP(xp int) Level {
	current := levels[0]
	for i := len(levels) - 1; i >= 0; i-- {
		if xp >= levels[i].XPRequired {
			current = levels[i]
			break
		}
	}
	return current
}

// NextLevel returns the entry after the given level, or nil at the top.
func NextLevel(level int) *Level {
	for i, l := range levels {
		if l.Level == level && i < len(levels)-1 {
			next := levels[i+1]
			return &next
		}
	}
	return nil
}

// XPProgress returns the percentage toward the next level, 100 at max level.
func XPProgress(xp, level int) int {
	var current *Level
	for i := range levels {
		if levels[i].Level == level {
			current = &levels[i]
			break
		}
	}
	next := NextLevel(level)
	if current == nil || next == nil {
		return 100
	}

	span := next.XPRequired - current.XPRequired
	if span <= 0 {
		return 100
	}
	progress := float64(xp-current.XPRequired) / float64(span) * 100
	return int(progress + 0.5)
}
