package schedule

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bassista/go_fest/internal/logger"
	"github.com/go-playground/validator/v10"
)

var (
	ErrNotArray      = errors.New("invalid schedule data format: expected an array")
	ErrEmptyPayload  = errors.New("schedule payload is empty")
	ErrInvalidRecord = errors.New("invalid schedule record")
)

var validate = validator.New()

// DecodeEvents turns a raw remote payload into validated events.
// Each field is coerced to its expected type; records that cannot be coerced or fail
// validation are rejected and skipped. A non-array payload, an empty array, or an array
// whose every record was rejected is an error.
func DecodeEvents(raw []byte) ([]Event, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, ErrNotArray
	}
	if len(items) == 0 {
		return nil, ErrEmptyPayload
	}

	events := make([]Event, 0, len(items))
	for i, item := range items {
		ev, err := DecodeEvent(item)
		if err != nil {
			logger.WithComponent("schedule-decode").Warnf("rejecting schedule record %d: %v", i, err)
			continue
		}
		events = append(events, ev)
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("%w: all %d records rejected", ErrInvalidRecord, len(items))
	}
	return events, nil
}

// DecodeEvent coerces a single remote record into an Event.
func DecodeEvent(raw json.RawMessage) (Event, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Event{}, fmt.Errorf("%w: not an object", ErrInvalidRecord)
	}

	var ev Event
	var ok bool
	if ev.ID, ok = coerceString(fields["id"]); !ok {
		return Event{}, fmt.Errorf("%w: id is missing or not a primitive", ErrInvalidRecord)
	}
	if ev.Title, ok = coerceString(fields["title"]); !ok {
		return Event{}, fmt.Errorf("%w: title is missing or not a primitive", ErrInvalidRecord)
	}

	var err error
	if ev.StartTime, err = coerceTime(fields["startTime"]); err != nil {
		return Event{}, fmt.Errorf("%w: startTime: %v", ErrInvalidRecord, err)
	}
	if ev.EndTime, err = coerceTime(fields["endTime"]); err != nil {
		return Event{}, fmt.Errorf("%w: endTime: %v", ErrInvalidRecord, err)
	}

	ev.Stage, _ = coerceString(fields["stage"])
	ev.Category, _ = coerceString(fields["category"])
	ev.Description, _ = coerceString(fields["description"])

	if rawTags, isList := fields["tags"].([]any); isList {
		for _, t := range rawTags {
			if tag, ok := coerceString(t); ok {
				ev.Tags = append(ev.Tags, tag)
			}
		}
	}

	if err := validate.Struct(&ev); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return ev, nil
}

// coerceString accepts strings, numbers, booleans, and WordPress {"rendered": "..."} objects.
func coerceString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	case map[string]any:
		if rendered, ok := t["rendered"].(string); ok {
			return rendered, true
		}
	}
	return "", false
}

func coerceTime(v any) (time.Time, error) {
	s, ok := coerceString(v)
	if !ok || strings.TrimSpace(s) == "" {
		return time.Time{}, errors.New("missing")
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("not an ISO-8601 instant: %q", s)
	}
	return t, nil
}
