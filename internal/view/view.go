// Package view derives grouped, filtered, paginated presentations from
// the store's notification snapshot. It holds no state and never
// re-sorts: input order (descending timestamp) is preserved through
// filtering, pagination, and bucketing.
package view

import (
	"strings"
	"time"

	"github.com/mqnguyen/collab-notify/internal/model"
)

// Filter selects which notifications pass into the view.
type Filter string

const (
	// FilterAll passes every notification.
	FilterAll Filter = "all"

	// FilterUnread passes only unread notifications.
	FilterUnread Filter = "unread"
)

// TypeFilter builds a filter that passes only the given notification type.
func TypeFilter(t model.Type) Filter {
	return Filter(t)
}

// Bucket is a calendar-relative display section.
type Bucket int

const (
	BucketToday Bucket = iota
	BucketYesterday
	BucketEarlier
)

// Label returns the section heading for a bucket.
func (b Bucket) Label() string {
	switch b {
	case BucketToday:
		return "Today"
	case BucketYesterday:
		return "Yesterday"
	default:
		return "Earlier"
	}
}

// Query describes one render request.
type Query struct {
	Filter   Filter
	Search   string
	Page     int // 1-based
	PageSize int

	// Now anchors the calendar-day comparison for bucketing.
	Now time.Time
}

// Result is the derived view for a single page.
type Result struct {
	// Buckets partition the current page in display order:
	// today, yesterday, earlier. Empty buckets are omitted.
	Buckets []BucketGroup

	// Filtered is the size of the filtered+searched set across all pages.
	Filtered int

	// Page is the clamped 1-based page actually rendered.
	Page int

	// Pages is the total page count (at least 1).
	Pages int
}

// BucketGroup is one display section with its items in store order.
type BucketGroup struct {
	Bucket Bucket
	Items  []model.Notification
}

// Matches reports whether a single notification passes the filter and
// the free-text search term. The search is a case-insensitive substring
// match against title, content, or sender.
func Matches(n model.Notification, f Filter, search string) bool {
	switch f {
	case FilterAll, "":
	case FilterUnread:
		if !n.Unread {
			return false
		}
	default:
		if n.Type != model.Type(f) {
			return false
		}
	}

	if search == "" {
		return true
	}
	term := strings.ToLower(search)
	return strings.Contains(strings.ToLower(n.Title), term) ||
		strings.Contains(strings.ToLower(n.Content), term) ||
		strings.Contains(strings.ToLower(n.Sender), term)
}

// BucketFor places a timestamp relative to now by calendar day, not by
// 24-hour windows: 23:59 yesterday is "yesterday" even one minute later.
func BucketFor(ts, now time.Time) Bucket {
	y1, m1, d1 := ts.In(now.Location()).Date()
	y2, m2, d2 := now.Date()

	if y1 == y2 && m1 == m2 && d1 == d2 {
		return BucketToday
	}

	yesterday := now.AddDate(0, 0, -1)
	y3, m3, d3 := yesterday.Date()
	if y1 == y3 && m1 == m3 && d1 == d3 {
		return BucketYesterday
	}

	return BucketEarlier
}

// Apply derives the view for q over a store snapshot. Pagination
// operates on the filtered set before bucketing; the requested page is
// clamped into range.
func Apply(items []model.Notification, q Query) Result {
	filtered := make([]model.Notification, 0, len(items))
	for _, n := range items {
		if Matches(n, q.Filter, q.Search) {
			filtered = append(filtered, n)
		}
	}

	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = len(filtered)
		if pageSize == 0 {
			pageSize = 1
		}
	}

	pages := (len(filtered) + pageSize - 1) / pageSize
	if pages == 0 {
		pages = 1
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(filtered) {
		start = len(filtered)
	}
	if end > len(filtered) {
		end = len(filtered)
	}
	paged := filtered[start:end]

	// Bucket the page without re-sorting. Input is descending by
	// timestamp, so sections come out in today/yesterday/earlier order.
	groups := make(map[Bucket][]model.Notification, 3)
	for _, n := range paged {
		b := BucketFor(n.Timestamp, q.Now)
		groups[b] = append(groups[b], n)
	}

	var buckets []BucketGroup
	for _, b := range []Bucket{BucketToday, BucketYesterday, BucketEarlier} {
		if len(groups[b]) > 0 {
			buckets = append(buckets, BucketGroup{Bucket: b, Items: groups[b]})
		}
	}

	return Result{
		Buckets:  buckets,
		Filtered: len(filtered),
		Page:     page,
		Pages:    pages,
	}
}
