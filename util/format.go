package util

import "fmt"

// FormatTimestamp renders seconds as "[MM:SS]", or "[HH:MM:SS]" once the
// hour is non-zero. Fractions are truncated.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	h, m, s := split(int(seconds))
	if h > 0 {
		return fmt.Sprintf("[%02d:%02d:%02d]", h, m, s)
	}
	return fmt.Sprintf("[%02d:%02d]", m, s)
}

// FormatDuration renders whole seconds as "M:SS", or "H:MM:SS" once the hour
// is non-zero. The leading unit is not padded.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h, m, s := split(seconds)
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func split(total int) (h, m, s int) {
	return total / 3600, (total % 3600) / 60, total % 60
}
