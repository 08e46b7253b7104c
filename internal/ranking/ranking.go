// Package ranking implements the feed ordering algorithms: hot, rising, top
// and new. Scores are pure functions of (net score, age); the same formulas
// are expressed once in Go for in-process ordering and once as PostgreSQL
// ORDER BY fragments for query-time ordering.
package ranking

import (
	"math"
	"time"
)

// Sort modes accepted by the feed endpoints.
const (
	SortHot    = "hot"
	SortNew    = "new"
	SortTop    = "top"
	SortRising = "rising"
)

// risingMaxAge is the window inside which a post can still rank as rising;
// older posts sink with an orderKey of zero.
const risingMaxAge = 24 * time.Hour

// HotScore returns the hot-rank order key for a post with the given net
// score created at createdAt, evaluated at now.
//
// hot = score / (ageHours + 2)^1.5
//
// The +2 offset keeps brand-new posts finite and bounded; the 1.5 exponent
// makes score decay faster than linearly with age.
func HotScore(score int, createdAt, now time.Time) float64 {
	ageHours := now.Sub(createdAt).Hours()
	if ageHours < 0 {
		ageHours = 0
	}
	return float64(score) / math.Pow(ageHours+2, 1.5)
}

// RisingScore returns the rising-rank order key: raw vote velocity
// (score per hour, age floored at 0.5h) for posts younger than 24 hours,
// zero for anything older.
func RisingScore(score int, createdAt, now time.Time) float64 {
	age := now.Sub(createdAt)
	if age >= risingMaxAge {
		return 0
	}
	ageHours := math.Max(age.Hours(), 0.5)
	return float64(score) / ageHours
}

// OrderClause returns the PostgreSQL ORDER BY expression for the given sort
// mode. Unknown modes fall back to hot, matching the original API contract.
func OrderClause(sort string) string {
	switch sort {
	case SortNew:
		return "posts.created_at DESC"
	case SortTop:
		return "(posts.upvotes - posts.downvotes) DESC, posts.created_at DESC"
	case SortRising:
		return `CASE
			WHEN posts.created_at > NOW() - INTERVAL '24 hours' THEN
				(posts.upvotes - posts.downvotes) /
				GREATEST(EXTRACT(EPOCH FROM (NOW() - posts.created_at)) / 3600, 0.5)
			ELSE 0
		END DESC, posts.created_at DESC`
	case SortHot:
		fallthrough
	default:
		return `(posts.upvotes - posts.downvotes) /
			POWER(EXTRACT(EPOCH FROM (NOW() - posts.created_at)) / 3600 + 2, 1.5) DESC`
	}
}

// Time windows accepted by the feed endpoints.
const (
	WindowHour  = "hour"
	WindowDay   = "day"
	WindowWeek  = "week"
	WindowMonth = "month"
	WindowYear  = "year"
	WindowAll   = "all"
)

// Window returns the cutoff duration for a named time window and whether a
// cutoff applies at all. "all", unknown values and the empty string are
// unrestricted; hot and rising are inherently time-sensitive so callers skip
// the window for those modes.
func Window(name string) (time.Duration, bool) {
	switch name {
	case WindowHour:
		return time.Hour, true
	case WindowDay:
		return 24 * time.Hour, true
	case WindowWeek:
		return 7 * 24 * time.Hour, true
	case WindowMonth:
		return 30 * 24 * time.Hour, true
	case WindowYear:
		return 365 * 24 * time.Hour, true
	default:
		return 0, false
	}
}

// ValidSort reports whether s is a recognized sort mode.
func ValidSort(s string) bool {
	switch s {
	case SortHot, SortNew, SortTop, SortRising:
		return true
	}
	return false
}
