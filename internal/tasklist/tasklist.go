// Package tasklist derives the displayed task sequence from the stored one.
// Nothing here mutates its input.
package tasklist

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dori/taskman/internal/model"
)

// SortOption selects the ordering of the projected list
type SortOption string

const (
	SortDate   SortOption = "date"
	SortStatus SortOption = "status"
)

// Options lists the sort options in cycle order
var Options = []SortOption{SortDate, SortStatus}

// ParseSortOption accepts "date" or "status", case-insensitively
func ParseSortOption(s string) (SortOption, error) {
	switch opt := SortOption(strings.ToLower(strings.TrimSpace(s))); opt {
	case SortDate, SortStatus:
		return opt, nil
	default:
		return "", fmt.Errorf("unknown sort option %q (want date or status)", s)
	}
}

// Next returns the option after o in cycle order
func (o SortOption) Next() SortOption {
	i := slices.Index(Options, o)
	return Options[(i+1)%len(Options)]
}

// Label is the human readable name shown in the list header
func (o SortOption) Label() string {
	switch o {
	case SortDate:
		return "Newest first"
	case SortStatus:
		return "Pending first"
	default:
		return "Unsorted"
	}
}

// Project sorts tasks by opt and then keeps those whose text contains keyword
func Project(tasks []model.Task, opt SortOption, keyword string) []model.Task {
	return Filter(Sort(tasks, opt), keyword)
}

// Sort returns a sorted copy of tasks. The sort is stable and unknown options
// keep input order.
func Sort(tasks []model.Task, opt SortOption) []model.Task {
	out := slices.Clone(tasks)
	switch opt {
	case SortDate:
		sortByDate(out)
	case SortStatus:
		slices.SortStableFunc(out, func(a, b model.Task) int {
			return boolRank(a.Completed) - boolRank(b.Completed)
		})
	}
	if out == nil {
		out = []model.Task{}
	}
	return out
}

// Filter keeps tasks whose lower-cased text contains the lower-cased keyword.
// An empty keyword keeps everything.
func Filter(tasks []model.Task, keyword string) []model.Task {
	if keyword == "" {
		return slices.Clone(tasks)
	}

	lower := cases.Lower(language.Und)
	needle := lower.String(keyword)
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if strings.Contains(lower.String(t.Text), needle) {
			out = append(out, t)
		}
	}
	return out
}

// Counts summarizes a task list
type Counts struct {
	Total     int
	Completed int
	Pending   int
}

// Count tallies tasks by completion state
func Count(tasks []model.Task) Counts {
	c := Counts{Total: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			c.Completed++
		}
	}
	c.Pending = c.Total - c.Completed
	return c
}

// sortByDate orders newest first. Tasks without a usable timestamp go last.
func sortByDate(tasks []model.Task) {
	type keyed struct {
		at time.Time
		ok bool
	}
	keys := make([]keyed, len(tasks))
	idx := make([]int, len(tasks))
	for i, t := range tasks {
		at, ok := CreatedAt(t)
		keys[i] = keyed{at, ok}
		idx[i] = i
	}

	slices.SortStableFunc(idx, func(a, b int) int {
		ka, kb := keys[a], keys[b]
		switch {
		case ka.ok && !kb.ok:
			return -1
		case !ka.ok && kb.ok:
			return 1
		case !ka.ok && !kb.ok:
			return 0
		}
		return kb.at.Compare(ka.at)
	})

	sorted := make([]model.Task, len(tasks))
	for i, j := range idx {
		sorted[i] = tasks[j]
	}
	copy(tasks, sorted)
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

// jsDateLayout matches JavaScript's Date.prototype.toString once the
// trailing zone name in parentheses is removed
const jsDateLayout = "Mon Jan 02 2006 15:04:05 GMT-0700"

var zoneName = regexp.MustCompile(`\s*\([^)]*\)\s*$`)

// CreatedAt returns when the task was created. Tasks written before
// created_at existed carry their creation time in the id.
func CreatedAt(t model.Task) (time.Time, bool) {
	if !t.CreatedAt.IsZero() {
		return t.CreatedAt, true
	}
	return parseIDTime(t.ID)
}

func parseIDTime(id string) (time.Time, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return time.Time{}, false
	}

	if isDigits(id) {
		ms, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		return time.UnixMilli(ms).UTC(), true
	}

	if at, err := time.Parse(jsDateLayout, zoneName.ReplaceAllString(id, "")); err == nil {
		return at, true
	}
	if at, err := time.Parse(time.RFC3339Nano, id); err == nil {
		return at, true
	}
	return time.Time{}, false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
