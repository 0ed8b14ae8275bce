package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"rendezvous-crm/models"
)

func freeSlot(cal *fakeCalendar, start time.Time) string {
	return cal.put(&models.CalendarEvent{
		Summary: models.SummaryFreeSlot,
		Start:   start,
		End:     start.Add(30 * time.Minute),
	})
}

func TestClaim(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 9, 7, 8, 0, 0, 0, time.UTC)

	t.Run("marks slot as claimed", func(t *testing.T) {
		cal := newFakeCalendar()
		slotID := freeSlot(cal, now.Add(time.Hour))
		svc := newTestService(cal, newFakeMessenger(), newStoppedClock(now))

		m, err := svc.Claim(ctx, slotID, testUser(7, "sam"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m.State != models.StateClaimed {
			t.Errorf("meeting state %s, want %s", m.State, models.StateClaimed)
		}
		ev := cal.get(slotID)
		if ev.Summary != models.SummaryClaimed {
			t.Errorf("slot summary %q, want %q", ev.Summary, models.SummaryClaimed)
		}
		if ev.ColorID != models.ColorClaimed {
			t.Errorf("slot color %q, want %q", ev.ColorID, models.ColorClaimed)
		}
	})

	t.Run("second claimant refused", func(t *testing.T) {
		cal := newFakeCalendar()
		slotID := freeSlot(cal, now.Add(time.Hour))
		svc := newTestService(cal, newFakeMessenger(), newStoppedClock(now))

		if _, err := svc.Claim(ctx, slotID, testUser(7, "sam")); err != nil {
			t.Fatalf("first claim failed: %v", err)
		}
		if _, err := svc.Claim(ctx, slotID, testUser(8, "kim")); !errors.Is(err, ErrSlotUnavailable) {
			t.Fatalf("second claim: got %v, want ErrSlotUnavailable", err)
		}
	})

	t.Run("vanished slot refused", func(t *testing.T) {
		cal := newFakeCalendar()
		svc := newTestService(cal, newFakeMessenger(), newStoppedClock(now))

		if _, err := svc.Claim(ctx, "evt-missing", testUser(7, "sam")); !errors.Is(err, ErrSlotUnavailable) {
			t.Fatalf("got %v, want ErrSlotUnavailable", err)
		}
	})

	t.Run("open channel blocks non-client", func(t *testing.T) {
		cal := newFakeCalendar()
		slotID := freeSlot(cal, now.Add(time.Hour))
		msg := newFakeMessenger()
		msg.addChannel(7, models.ChannelActive)
		svc := newTestService(cal, msg, newStoppedClock(now))

		if _, err := svc.Claim(ctx, slotID, testUser(7, "sam")); !errors.Is(err, ErrAlreadyBooked) {
			t.Fatalf("got %v, want ErrAlreadyBooked", err)
		}
		if cal.get(slotID).Summary != models.SummaryFreeSlot {
			t.Error("slot mutated despite refused claim")
		}
	})

	t.Run("client role bypasses channel gate", func(t *testing.T) {
		cal := newFakeCalendar()
		slotID := freeSlot(cal, now.Add(time.Hour))
		msg := newFakeMessenger()
		msg.addChannel(7, models.ChannelActive)
		svc := newTestService(cal, msg, newStoppedClock(now))

		if _, err := svc.Claim(ctx, slotID, testUser(7, "sam", "client")); err != nil {
			t.Fatalf("client claim failed: %v", err)
		}
	})

	t.Run("archived channel does not block", func(t *testing.T) {
		cal := newFakeCalendar()
		slotID := freeSlot(cal, now.Add(time.Hour))
		msg := newFakeMessenger()
		msg.addChannel(7, models.ChannelArchived)
		svc := newTestService(cal, msg, newStoppedClock(now))

		if _, err := svc.Claim(ctx, slotID, testUser(7, "sam")); err != nil {
			t.Fatalf("claim failed: %v", err)
		}
	})
}

// Гонка двух претендентов принципиально не закрывается: календарь не дает
// compare-and-swap. Проверяем лишь договорные гарантии - хотя бы один
// выигрывает, проигравший видит занятый créneau.
func TestClaimConcurrent(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 9, 7, 8, 0, 0, 0, time.UTC)
	cal := newFakeCalendar()
	slotID := freeSlot(cal, now.Add(time.Hour))
	svc := newTestService(cal, newFakeMessenger(), newStoppedClock(now))

	users := []*models.User{testUser(7, "sam"), testUser(8, "kim")}
	errs := make([]error, len(users))
	var wg sync.WaitGroup
	for i, u := range users {
		wg.Add(1)
		go func(i int, u *models.User) {
			defer wg.Done()
			_, errs[i] = svc.Claim(ctx, slotID, u)
		}(i, u)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrSlotUnavailable):
		default:
			t.Errorf("unexpected claim error: %v", err)
		}
	}
	if wins == 0 {
		t.Fatal("no claimant won the slot")
	}
	if cal.get(slotID).Summary != models.SummaryClaimed {
		t.Errorf("slot summary %q after race", cal.get(slotID).Summary)
	}
}
