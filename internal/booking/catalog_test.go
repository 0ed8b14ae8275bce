package booking

import (
	"context"
	"testing"
	"time"

	"rendezvous-crm/models"
)

func TestListOfferableSlots(t *testing.T) {
	ctx := context.Background()
	// Понедельник 7 сентября 2026
	now := time.Date(2026, 9, 7, 8, 0, 0, 0, time.UTC)

	t.Run("groups free slots by weekday", func(t *testing.T) {
		cal := newFakeCalendar()
		monday := now.Add(time.Hour)
		tuesday := now.Add(25 * time.Hour)
		cal.put(&models.CalendarEvent{Summary: models.SummaryFreeSlot, Start: monday, End: monday.Add(30 * time.Minute)})
		cal.put(&models.CalendarEvent{Summary: models.SummaryFreeSlot, Start: tuesday, End: tuesday.Add(30 * time.Minute)})
		svc := newTestService(cal, newFakeMessenger(), newStoppedClock(now))

		catalog, err := svc.ListOfferableSlots(ctx, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(catalog["Lundi"]) != 1 || len(catalog["Mardi"]) != 1 {
			t.Fatalf("got catalog %v", catalog)
		}
	})

	t.Run("excludes started and past slots", func(t *testing.T) {
		cal := newFakeCalendar()
		// Начался ровно сейчас - не предлагается
		cal.put(&models.CalendarEvent{Summary: models.SummaryFreeSlot, Start: now, End: now.Add(30 * time.Minute)})
		// Идет прямо сейчас - тоже
		cal.put(&models.CalendarEvent{Summary: models.SummaryFreeSlot, Start: now.Add(-10 * time.Minute), End: now.Add(20 * time.Minute)})
		svc := newTestService(cal, newFakeMessenger(), newStoppedClock(now))

		catalog, err := svc.ListOfferableSlots(ctx, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(catalog) != 0 {
			t.Fatalf("got catalog %v, want empty", catalog)
		}
	})

	t.Run("excludes claimed and confirmed records", func(t *testing.T) {
		cal := newFakeCalendar()
		later := now.Add(2 * time.Hour)
		cal.put(&models.CalendarEvent{Summary: models.SummaryClaimed, Start: later, End: later.Add(30 * time.Minute)})
		cal.put(&models.CalendarEvent{Summary: models.MeetingSummary("sam"), Start: later.Add(time.Hour), End: later.Add(90 * time.Minute)})
		svc := newTestService(cal, newFakeMessenger(), newStoppedClock(now))

		catalog, err := svc.ListOfferableSlots(ctx, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(catalog) != 0 {
			t.Fatalf("got catalog %v, want empty", catalog)
		}
	})

	t.Run("expands availability blocks on the fly", func(t *testing.T) {
		cal := newFakeCalendar()
		start := now.Add(time.Hour)
		blockID := cal.put(block(start, 70*time.Minute))
		svc := newTestService(cal, newFakeMessenger(), newStoppedClock(now))

		catalog, err := svc.ListOfferableSlots(ctx, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		slots := catalog["Lundi"]
		if len(slots) != 2 {
			t.Fatalf("got %d slots for Lundi, want 2: %v", len(slots), catalog)
		}
		if !slots[0].Start.Before(slots[1].Start) {
			t.Error("slots not sorted by start")
		}
		if cal.get(blockID) != nil {
			t.Error("availability block survived catalog build")
		}
	})

	t.Run("stale cached slots filtered out", func(t *testing.T) {
		// Каталог из кэша переживает до 20 секунд - créneau, начавшийся
		// за это время, не должен отдаваться
		catalog := map[string][]models.Slot{
			"Lundi": {
				{ID: "evt-1", Start: now.Add(-time.Minute), End: now.Add(29 * time.Minute), Day: "Lundi"},
				{ID: "evt-2", Start: now, End: now.Add(30 * time.Minute), Day: "Lundi"},
				{ID: "evt-3", Start: now.Add(time.Hour), End: now.Add(90 * time.Minute), Day: "Lundi"},
			},
			"Mardi": {
				{ID: "evt-4", Start: now.Add(-time.Hour), End: now.Add(-30 * time.Minute), Day: "Mardi"},
			},
		}
		got := filterCatalog(catalog, now)
		if len(got["Lundi"]) != 1 || got["Lundi"][0].ID != "evt-3" {
			t.Errorf("filtered Lundi = %v, want only evt-3", got["Lundi"])
		}
		if _, ok := got["Mardi"]; ok {
			t.Error("day with no future slots kept in catalog")
		}
	})

	t.Run("outside window not offered", func(t *testing.T) {
		cal := newFakeCalendar()
		far := now.Add(8 * 24 * time.Hour)
		cal.put(&models.CalendarEvent{Summary: models.SummaryFreeSlot, Start: far, End: far.Add(30 * time.Minute)})
		svc := newTestService(cal, newFakeMessenger(), newStoppedClock(now))

		catalog, err := svc.ListOfferableSlots(ctx, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(catalog) != 0 {
			t.Fatalf("got catalog %v, want empty", catalog)
		}
	})
}
