package schedule

import (
	"fmt"
	"time"
)

// Event is one festival session. Events are replaced wholesale on refresh, never patched.
type Event struct {
	ID          string    `json:"id" validate:"required"`
	Title       string    `json:"title" validate:"required"`
	StartTime   time.Time `json:"startTime" validate:"required"`
	EndTime     time.Time `json:"endTime" validate:"required,gtefield=StartTime"`
	Stage       string    `json:"stage"`
	Category    string    `json:"category"`
	Tags        []string  `json:"tags,omitempty"`
	Description string    `json:"description,omitempty"`
}

// Section is a named, ordered group of events. Derived on every render, never persisted.
type Section struct {
	Title string  `json:"title"`
	Data  []Event `json:"data"`
}

// ViewMode selects the grouping key used by BuildSections.
type ViewMode string

const (
	ModeTime     ViewMode = "time"
	ModeStage    ViewMode = "stage"
	ModeCategory ViewMode = "category"
)

// ParseViewMode maps a query value to a ViewMode. Empty means time.
func ParseViewMode(s string) (ViewMode, error) {
	switch ViewMode(s) {
	case "", ModeTime:
		return ModeTime, nil
	case ModeStage:
		return ModeStage, nil
	case ModeCategory:
		return ModeCategory, nil
	default:
		return "", fmt.Errorf("unknown view mode %q (supported: %s, %s, %s)", s, ModeTime, ModeStage, ModeCategory)
	}
}
