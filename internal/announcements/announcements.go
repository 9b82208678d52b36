package announcements

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/bassista/go_fest/internal/logger"
	"github.com/go-playground/validator/v10"
)

type Priority string

const (
	PriorityUrgent   Priority = "urgent"
	PriorityPersonal Priority = "personal"
	PriorityGeneral  Priority = "general"
)

// rank orders priorities; lower comes first.
var rank = map[Priority]int{
	PriorityUrgent:   0,
	PriorityPersonal: 1,
	PriorityGeneral:  2,
}

// Announcement is a festival notice. EventID links it to a schedule event.
type Announcement struct {
	ID          string   `json:"id" validate:"required"`
	Title       string   `json:"title" validate:"required"`
	Message     string   `json:"message"`
	Priority    Priority `json:"priority" validate:"required,oneof=urgent personal general"`
	PublishedAt string   `json:"publishedAt" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	EventID     string   `json:"eventId,omitempty"`
}

var validate = validator.New()

// Decode accepts a bare array or an object with an "announcements" array.
// Invalid entries are skipped.
func Decode(raw []byte) ([]Announcement, error) {
	var items []Announcement
	if err := json.Unmarshal(raw, &items); err != nil {
		var wrapped struct {
			Announcements []Announcement `json:"announcements"`
		}
		if err2 := json.Unmarshal(raw, &wrapped); err2 != nil {
			return nil, fmt.Errorf("decode announcements: %w", err)
		}
		items = wrapped.Announcements
	}

	out := make([]Announcement, 0, len(items))
	for _, a := range items {
		if err := validate.Struct(&a); err != nil {
			logger.WithComponent("announcements").Warnf("skipping announcement %q: %v", a.ID, err)
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// Personalize promotes general announcements about favorited events to personal.
// The input is not modified.
func Personalize(items []Announcement, favoriteIDs map[string]struct{}) []Announcement {
	out := slices.Clone(items)
	for i := range out {
		if out[i].Priority != PriorityGeneral || out[i].EventID == "" {
			continue
		}
		if _, ok := favoriteIDs[out[i].EventID]; ok {
			out[i].Priority = PriorityPersonal
		}
	}
	return out
}

// Sort orders urgent, personal, general; newest first within a priority.
func Sort(items []Announcement) []Announcement {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b Announcement) int {
		if d := rank[a.Priority] - rank[b.Priority]; d != 0 {
			return d
		}
		return publishedAt(b).Compare(publishedAt(a))
	})
	return out
}

func publishedAt(a Announcement) time.Time {
	t, _ := time.Parse(time.RFC3339, a.PublishedAt)
	return t
}
