// Package projection builds read-side views over stored messages.
// It handles pagination windows, calendar-day grouping, and silence gaps.
// It does not touch storage and never emits events.
package projection

import (
	"chat-direct/domain/chat"
	"time"
)

const (
	// GapThreshold is the silence interval between two consecutive messages
	// beyond which a Gap is reported for UI chunking.
	GapThreshold = time.Hour

	DefaultPage  = 1
	DefaultLimit = 50
)

// DateLayout is the calendar-day key of a group. Days are derived in UTC so
// grouping is consistent across calls regardless of the caller's zone.
const DateLayout = "2006-01-02"

type PageOptions struct {
	Page  int
	Limit int
	// Before and After reference message ids and constrain the window to
	// strictly earlier / strictly later creation times. Before wins when
	// both are set.
	Before string
	After  string
}

// DateGroup is one calendar day of the page, newest day first in the result.
type DateGroup struct {
	Date     string
	Messages []chat.Message
}

type Pagination struct {
	CurrentPage   int
	TotalPages    int
	TotalMessages int
	HasMore       bool
	Limit         int
}

// Gap records a silence longer than GapThreshold between two adjacent
// messages of the page. BeforeID is the earlier message, AfterID the later
// one. Presentation hint only, never persisted.
type Gap struct {
	BeforeID string
	AfterID  string
	Duration time.Duration
}

type Metadata struct {
	OldestMessageID string
	NewestMessageID string
}

type PageResult struct {
	MessagesByDate []DateGroup
	Pagination     Pagination
	Gaps           []Gap
	Metadata       Metadata
}

// Paginate computes one page over the conversation history. The input slice
// must be ascending by creation time, as returned by the message store.
func Paginate(history []chat.Message, opts PageOptions) PageResult {
	page := opts.Page
	if page < 1 {
		page = DefaultPage
	}
	limit := opts.Limit
	if limit < 1 {
		limit = DefaultLimit
	}

	history = constrain(history, opts.Before, opts.After)

	total := len(history)
	totalPages := (total + limit - 1) / limit

	// Page window, newest first: page 1 is the tail of the ascending input.
	window := pageWindow(history, page, limit)

	return PageResult{
		MessagesByDate: groupByDay(window),
		Pagination: Pagination{
			CurrentPage:   page,
			TotalPages:    totalPages,
			TotalMessages: total,
			HasMore:       page < totalPages,
			Limit:         limit,
		},
		Gaps:     detectGaps(window),
		Metadata: metadata(window),
	}
}

// constrain applies the before/after cursor. An unknown reference id leaves
// the history unconstrained, mirroring a cursor that expired.
func constrain(history []chat.Message, before, after string) []chat.Message {
	ref := before
	if ref == "" {
		ref = after
	}
	if ref == "" {
		return history
	}
	var pivot *time.Time
	for _, m := range history {
		if m.ID == ref {
			t := m.CreatedAt
			pivot = &t
			break
		}
	}
	if pivot == nil {
		return history
	}

	res := make([]chat.Message, 0, len(history))
	for _, m := range history {
		if before != "" {
			if m.CreatedAt.Before(*pivot) {
				res = append(res, m)
			}
		} else if m.CreatedAt.After(*pivot) {
			res = append(res, m)
		}
	}
	return res
}

// pageWindow returns the requested page in newest-first order.
func pageWindow(history []chat.Message, page, limit int) []chat.Message {
	end := len(history) - (page-1)*limit
	if end <= 0 {
		return nil
	}
	start := end - limit
	if start < 0 {
		start = 0
	}

	window := make([]chat.Message, 0, end-start)
	for i := end - 1; i >= start; i-- {
		window = append(window, history[i])
	}
	return window
}

// groupByDay buckets the newest-first window by UTC calendar day, keeping
// the window's order inside each group and across groups.
func groupByDay(window []chat.Message) []DateGroup {
	var groups []DateGroup
	index := make(map[string]int)
	for _, m := range window {
		day := m.CreatedAt.UTC().Format(DateLayout)
		i, ok := index[day]
		if !ok {
			i = len(groups)
			index[day] = i
			groups = append(groups, DateGroup{Date: day})
		}
		groups[i].Messages = append(groups[i].Messages, m)
	}
	return groups
}

// detectGaps scans the page in timestamp order and records every adjacent
// pair further apart than GapThreshold.
func detectGaps(window []chat.Message) []Gap {
	var gaps []Gap
	// The window is newest first; walk it backwards for ascending time.
	for i := len(window) - 1; i > 0; i-- {
		earlier, later := window[i], window[i-1]
		delta := later.CreatedAt.Sub(earlier.CreatedAt)
		if delta > GapThreshold {
			gaps = append(gaps, Gap{
				BeforeID: earlier.ID,
				AfterID:  later.ID,
				Duration: delta,
			})
		}
	}
	return gaps
}

func metadata(window []chat.Message) Metadata {
	if len(window) == 0 {
		return Metadata{}
	}
	return Metadata{
		NewestMessageID: window[0].ID,
		OldestMessageID: window[len(window)-1].ID,
	}
}
