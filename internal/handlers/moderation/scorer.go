package handlers

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pakhadai/wartovyi/internal/db"
)

var (
	linkRE    = regexp.MustCompile(`(https?://|www\.|t\.me/)\S+`)
	mentionRE = regexp.MustCompile(`@\w+`)
)

const (
	linkScore    = 3
	mentionScore = 2
	capsScore    = 5

	mentionFreePass = 2
	capsMinRunes    = 10
	capsRatio       = 0.7
)

// Score rates a message for spam against the merged trigger list and
// returns the total with a human-readable reason per contribution.
// A whitelisted phrase short-circuits to zero no matter what else the
// message contains.
func Score(text string, global, custom []db.Trigger, whitelist []string) (int, []string) {
	lowered := strings.ToLower(text)

	for _, phrase := range whitelist {
		if phrase == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(phrase)) {
			return 0, []string{fmt.Sprintf("'%s' (whitelist)", phrase)}
		}
	}

	score := 0
	var reasons []string

	for _, trigger := range mergeTriggers(global, custom) {
		if trigger.Phrase == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(trigger.Phrase)) {
			score += trigger.Score
			reasons = append(reasons, fmt.Sprintf("'%s' (+%d)", trigger.Phrase, trigger.Score))
		}
	}

	if links := len(linkRE.FindAllString(lowered, -1)); links > 0 {
		points := links * linkScore
		score += points
		reasons = append(reasons, fmt.Sprintf("links (+%d)", points))
	}

	// A couple of mentions is normal conversation, a pile of them is a tag raid.
	if mentions := len(mentionRE.FindAllString(lowered, -1)); mentions > mentionFreePass {
		points := mentions * mentionScore
		score += points
		reasons = append(reasons, fmt.Sprintf("mentions (+%d)", points))
	}

	if isShouting(text) {
		score += capsScore
		reasons = append(reasons, fmt.Sprintf("caps (+%d)", capsScore))
	}

	return score, reasons
}

// mergeTriggers overlays the chat's custom list on the global one. A
// custom phrase that shadows a global phrase replaces its score in
// place, new phrases are appended, so evaluation order stays stable.
func mergeTriggers(global, custom []db.Trigger) []db.Trigger {
	merged := make([]db.Trigger, len(global))
	copy(merged, global)

	index := make(map[string]int, len(merged))
	for i, trigger := range merged {
		index[strings.ToLower(trigger.Phrase)] = i
	}

	for _, trigger := range custom {
		key := strings.ToLower(trigger.Phrase)
		if i, ok := index[key]; ok {
			merged[i].Score = trigger.Score
			continue
		}
		index[key] = len(merged)
		merged = append(merged, trigger)
	}
	return merged
}

func isShouting(text string) bool {
	total := utf8.RuneCountInString(text)
	if total <= capsMinRunes {
		return false
	}
	upper := 0
	for _, r := range text {
		if unicode.IsUpper(r) {
			upper++
		}
	}
	return float64(upper)/float64(total) > capsRatio
}
