package calendar

import (
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/bassista/go_fest/internal/favorites"
	"github.com/bassista/go_fest/internal/logger"
	"github.com/bassista/go_fest/internal/schedule"
)

const (
	productID = "-//go_fest//favorites//EN"
	uidSuffix = "@go-fest"
)

// FavoritesFeed renders favorites as an iCalendar document. Each favorite is joined with
// its schedule event for end time, stage and description. A favorite whose event is no
// longer scheduled falls back to its saved title and start, and is skipped without a start.
func FavoritesFeed(favs []favorites.Record, events []schedule.Event, now time.Time) string {
	byID := make(map[string]schedule.Event, len(events))
	for _, ev := range events {
		byID[ev.ID] = ev
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName("Festival favorites")

	written := 0
	for _, fav := range favs {
		ev, ok := byID[fav.ID]
		if !ok {
			start, err := time.Parse(time.RFC3339, fav.Start)
			if err != nil {
				logger.WithComponent("calendar").Debugf("skipping favorite %s: no known start", fav.ID)
				continue
			}
			ev = schedule.Event{ID: fav.ID, Title: fallbackTitle(fav), StartTime: start, EndTime: start}
		}

		ve := cal.AddEvent(fav.ID + uidSuffix)
		ve.SetDtStampTime(now.UTC())
		ve.SetSummary(ev.Title)
		ve.SetStartAt(ev.StartTime.UTC())
		ve.SetEndAt(ev.EndTime.UTC())
		if ev.Stage != "" {
			ve.SetLocation(ev.Stage)
		}
		if ev.Description != "" {
			ve.SetDescription(ev.Description)
		}
		written++
	}

	logger.WithComponent("calendar").Debugf("exported %d of %d favorites", written, len(favs))
	return cal.Serialize()
}

func fallbackTitle(fav favorites.Record) string {
	if fav.Title != "" {
		return fav.Title
	}
	return fav.ID
}
