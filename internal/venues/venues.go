package venues

import (
	"encoding/json"
	"fmt"

	"github.com/bassista/go_fest/internal/logger"
	"github.com/go-playground/validator/v10"
)

// Venue is a fixed point on the festival grounds map.
type Venue struct {
	ID   string  `json:"id" validate:"required"`
	Name string  `json:"name" validate:"required"`
	Lat  float64 `json:"lat" validate:"latitude"`
	Lng  float64 `json:"lng" validate:"longitude"`
}

var validate = validator.New()

// Decode accepts a bare array or an object with a "venues" array.
// Entries with missing ids or out-of-range coordinates are skipped.
func Decode(raw []byte) ([]Venue, error) {
	var items []Venue
	if err := json.Unmarshal(raw, &items); err != nil {
		var wrapped struct {
			Venues []Venue `json:"venues"`
		}
		if err2 := json.Unmarshal(raw, &wrapped); err2 != nil {
			return nil, fmt.Errorf("decode venues: %w", err)
		}
		items = wrapped.Venues
	}

	out := make([]Venue, 0, len(items))
	for _, v := range items {
		if err := validate.Struct(&v); err != nil {
			logger.WithComponent("venues").Warnf("skipping venue %q: %v", v.ID, err)
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// ByName indexes venues by name, which is what schedule events carry as their stage.
func ByName(items []Venue) map[string]Venue {
	out := make(map[string]Venue, len(items))
	for _, v := range items {
		out[v.Name] = v
	}
	return out
}
