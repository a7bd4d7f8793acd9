package web

import (
	"html/template"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mergestat/timediff"
)

// FormatRelativeTime formats a time.Time as a relative time string like "3 days ago".
func FormatRelativeTime(t time.Time) string {
	return timediff.TimeDiff(t)
}

// FormatRelativeTimePtr is FormatRelativeTime for optional timestamps.
func FormatRelativeTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return FormatRelativeTime(*t)
}

// FormatCount formats a counter with thousands separators.
func FormatCount(n int64) string {
	return humanize.Comma(n)
}

// FormatDate formats a timestamp for tooltips.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02 15:04")
}

// FormatEventType turns an event type like "loan_cleared" into "loan cleared".
func FormatEventType(s string) string {
	return strings.ReplaceAll(s, "_", " ")
}

// FuncMap returns the helpers available in all page templates.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"relativeTime":    FormatRelativeTime,
		"relativeTimePtr": FormatRelativeTimePtr,
		"count":           FormatCount,
		"date":            FormatDate,
		"eventType":       FormatEventType,
		"add":             func(a, b int) int { return a + b },
		"sub":             func(a, b int) int { return a - b },
	}
}
