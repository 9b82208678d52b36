package schedule

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

// OtherSectionTitle labels events whose grouping key is empty or blank.
const OtherSectionTitle = "Other"

// timeBucketLayout renders a start instant as e.g. "Sat 2:00 PM".
const timeBucketLayout = "Mon 3:04 PM"

type buildOptions struct {
	loc           *time.Location
	chronological bool
}

// BuildOption tunes BuildSections.
type BuildOption func(*buildOptions)

// WithLocation sets the location used for time-bucket labels. Default is time.Local.
func WithLocation(loc *time.Location) BuildOption {
	return func(o *buildOptions) {
		if loc != nil {
			o.loc = loc
		}
	}
}

// WithChronologicalTimeSections orders time-mode sections by their earliest event instead of
// alphabetically by label. Stage and category sections are always alphabetical.
func WithChronologicalTimeSections(enabled bool) BuildOption {
	return func(o *buildOptions) { o.chronological = enabled }
}

// BuildSections filters events by searchText, sorts them by start time then title, and
// groups them by the key mode selects. Sections are ordered by title. The result is a pure
// function of the inputs; events is not modified.
func BuildSections(events []Event, mode ViewMode, searchText string, opts ...BuildOption) []Section {
	o := buildOptions{loc: time.Local}
	for _, opt := range opts {
		opt(&o)
	}

	filtered := filterEvents(events, searchText)
	slices.SortStableFunc(filtered, byStartTimeThenTitle)

	var key func(Event) string
	switch mode {
	case ModeStage:
		key = func(e Event) string { return e.Stage }
	case ModeCategory:
		key = func(e Event) string { return e.Category }
	default:
		key = func(e Event) string { return e.StartTime.In(o.loc).Format(timeBucketLayout) }
	}

	sections := groupByKey(filtered, key)
	if mode == ModeTime && o.chronological {
		slices.SortStableFunc(sections, func(a, b Section) int {
			return byStartTimeThenTitle(a.Data[0], b.Data[0])
		})
	}
	return sections
}

func filterEvents(events []Event, searchText string) []Event {
	q := strings.ToLower(strings.TrimSpace(searchText))
	if q == "" {
		return slices.Clone(events)
	}

	out := make([]Event, 0, len(events))
	for _, e := range events {
		parts := append([]string{e.Title, e.Stage, e.Category, e.Description}, e.Tags...)
		if strings.Contains(strings.ToLower(strings.Join(parts, " ")), q) {
			out = append(out, e)
		}
	}
	return out
}

func byStartTimeThenTitle(a, b Event) int {
	if c := a.StartTime.Compare(b.StartTime); c != 0 {
		return c
	}
	return cmp.Compare(a.Title, b.Title)
}

// groupByKey buckets events by key (blank keys become "Other"), sorts each bucket, and
// returns the sections sorted by title.
func groupByKey(events []Event, key func(Event) string) []Section {
	buckets := map[string][]Event{}
	for _, e := range events {
		k := strings.TrimSpace(key(e))
		if k == "" {
			k = OtherSectionTitle
		}
		buckets[k] = append(buckets[k], e)
	}

	sections := make([]Section, 0, len(buckets))
	for title, data := range buckets {
		slices.SortStableFunc(data, byStartTimeThenTitle)
		sections = append(sections, Section{Title: title, Data: data})
	}
	slices.SortFunc(sections, func(a, b Section) int { return cmp.Compare(a.Title, b.Title) })
	return sections
}
