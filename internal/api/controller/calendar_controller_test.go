package controller

import (
	"net/http"
	"strings"
	"testing"

	"github.com/bassista/go_fest/internal/favorites"
	"github.com/bassista/go_fest/internal/kvstore"
	"github.com/bassista/go_fest/internal/scheduledata"
	"github.com/gin-gonic/gin"
)

func TestCalendarController_FavoritesICS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := favorites.NewStore(kvstore.NewMemoryStore())
	if _, err := store.Add(t.Context(), favorites.Record{ID: "1", Title: "Zeta Band"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	cc := NewCalendarController(store, &fakeScheduleData{state: scheduledata.State{Events: festivalEvents()}})
	r := gin.New()
	r.GET("/calendar/favorites.ics", cc.FavoritesICS)

	w := do(r, http.MethodGet, "/calendar/favorites.ics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("expected text/calendar, got %q", ct)
	}
	body := w.Body.String()
	if strings.Count(body, "BEGIN:VEVENT") != 1 || !strings.Contains(body, "LOCATION:Main Stage") {
		t.Errorf("unexpected feed:\n%s", body)
	}
}
