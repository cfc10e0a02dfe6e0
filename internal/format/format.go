// Package format renders durations and counts for progress lines and the run summary.
package format

import (
	"fmt"
	"strconv"
	"time"
)

// Duration formats a duration as HH:MM:SS or MM:SS.
func Duration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// Seconds formats a span in seconds as audio time, e.g. "1:02:03.5" or "12.25s".
func Seconds(sec float64) string {
	if sec < 60 {
		return strconv.FormatFloat(sec, 'f', -1, 64) + "s"
	}
	whole := time.Duration(sec * float64(time.Second)).Round(100 * time.Millisecond)
	frac := int(whole%time.Second) / int(100*time.Millisecond)
	out := Duration(whole)
	if frac > 0 {
		out += fmt.Sprintf(".%d", frac)
	}
	return out
}

// Count formats n with the singular or plural noun: "1 clip", "3 clips".
func Count(n int, singular, plural string) string {
	if n == 1 {
		return "1 " + singular
	}
	return fmt.Sprintf("%d %s", n, plural)
}

// Ratio formats done/total with a percentage: "3/4 (75%)".
// A zero total renders as "0/0".
func Ratio(done, total int) string {
	if total == 0 {
		return "0/0"
	}
	return fmt.Sprintf("%d/%d (%d%%)", done, total, done*100/total)
}
