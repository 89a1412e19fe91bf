package handlers

import (
	"sort"
	"time"

	"github.com/pakhadai/wartovyi/internal/db"
)

type Punishment struct {
	Action   string
	Duration time.Duration
}

// defaultLadder applies to chats without custom rules: a day of silence,
// then a week, then the door.
var defaultLadder = []db.PunishmentRule{
	{Level: 1, Action: db.ActionMute, DurationMinutes: 1440},
	{Level: 2, Action: db.ActionMute, DurationMinutes: 10080},
	{Level: 3, Action: db.ActionBan},
}

// Escalate maps a warning count to a punishment. A count with no rule
// of its own, including anything past the top rung, clamps to the rule
// at the highest configured level, so every count >= 1 resolves to
// something.
func Escalate(warnings int, ladder []db.PunishmentRule) Punishment {
	if len(ladder) == 0 {
		ladder = defaultLadder
	}

	rules := make([]db.PunishmentRule, len(ladder))
	copy(rules, ladder)
	sort.Slice(rules, func(i, j int) bool { return rules[i].Level < rules[j].Level })

	rule := rules[len(rules)-1]
	for _, candidate := range rules {
		if candidate.Level == warnings {
			rule = candidate
			break
		}
	}

	return Punishment{
		Action:   rule.Action,
		Duration: time.Duration(rule.DurationMinutes) * time.Minute,
	}
}
