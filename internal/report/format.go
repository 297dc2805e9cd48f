package report

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var thousands = message.NewPrinter(language.English)

// FormatRowCount renders a row count with a human suffix: "2.4M", "150.0K",
// or a comma-grouped number below a thousand.
func FormatRowCount(count int64) string {
	switch {
	case count >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(count)/1_000_000)
	case count >= 1_000:
		return fmt.Sprintf("%.1fK", float64(count)/1_000)
	default:
		return thousands.Sprintf("%d", count)
	}
}

// FormatSize renders a size in KB as "2.4 GB", "150.0 MB", or "512 KB".
func FormatSize(kb int64) string {
	switch {
	case kb >= 1_048_576:
		return fmt.Sprintf("%.1f GB", float64(kb)/1_048_576)
	case kb >= 1_024:
		return fmt.Sprintf("%.1f MB", float64(kb)/1_024)
	default:
		return thousands.Sprintf("%d KB", kb)
	}
}

// healthBarWidth is the character width of the health bar gauge.
const healthBarWidth = 50

// HealthLabel grades a 0-100 health score.
func HealthLabel(score int) string {
	switch {
	case score >= 80:
		return "EXCELLENT"
	case score >= 60:
		return "GOOD"
	case score >= 40:
		return "FAIR"
	case score >= 20:
		return "POOR"
	default:
		return "CRITICAL"
	}
}

// HealthBar renders a text gauge like "████████░░ GOOD" for a 0-100 score.
func HealthBar(score int) string {
	score = max(0, min(100, score))
	filled := score * healthBarWidth / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", healthBarWidth-filled)
	return bar + " " + HealthLabel(score)
}

// Truncate shortens text to at most maxLen runes, with a trailing ellipsis
// when it had to cut.
func Truncate(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
