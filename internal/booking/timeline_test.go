package booking

import (
	"context"
	"strings"
	"testing"
	"time"

	"rendezvous-crm/models"
)

func confirmedMeeting(cal *fakeCalendar, user string, channelID uint, start, end time.Time) *models.Meeting {
	id := cal.put(&models.CalendarEvent{
		Summary:  models.MeetingSummary(user),
		Location: "3",
		Start:    start,
		End:      end,
	})
	return &models.Meeting{
		Event:     cal.get(id),
		State:     models.StateConfirmed,
		UserName:  user,
		ChannelID: channelID,
	}
}

func TestRunTimelineFullCourse(t *testing.T) {
	now := time.Date(2026, 9, 7, 8, 0, 0, 0, time.UTC)
	start := now.Add(time.Hour)
	cal := newFakeCalendar()
	msg := newFakeMessenger()
	m := confirmedMeeting(cal, "sam", 3, start, start.Add(30*time.Minute))
	svc := newTestService(cal, msg, newJumpClock(now))

	svc.runTimeline(context.Background(), m)

	want := []string{
		"Le rendez-vous est dans 10 minutes",
		"Le rendez-vous a commencé",
		"Le rendez-vous est fini",
	}
	got := msg.sentTexts()
	if len(got) != len(want) {
		t.Fatalf("got messages %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("message %d = %q, want %q", i, got[i], want[i])
		}
	}
	if m.State != models.StateCompleted {
		t.Errorf("meeting state %s, want %s", m.State, models.StateCompleted)
	}
	if len(msg.grants) != 1 || msg.grants[0] != "sam:client" {
		t.Errorf("role grants %v, want [sam:client]", msg.grants)
	}
	if !msg.rebook[3] {
		t.Error("rebook control not re-enabled after meeting end")
	}
}

func TestRunTimelineAlreadyStarted(t *testing.T) {
	// Задача, рожденная ресканом посреди рандеву: шаг напоминания
	// проскакивается, "dans N minutes" не отправляется
	now := time.Date(2026, 9, 7, 8, 0, 0, 0, time.UTC)
	start := now.Add(-20 * time.Minute)
	cal := newFakeCalendar()
	msg := newFakeMessenger()
	m := confirmedMeeting(cal, "sam", 3, start, now.Add(10*time.Minute))
	svc := newTestService(cal, msg, newJumpClock(now))

	svc.runTimeline(context.Background(), m)

	got := msg.sentTexts()
	for _, text := range got {
		if strings.Contains(text, "dans") {
			t.Errorf("reminder sent for already started meeting: %q", text)
		}
	}
	if len(got) != 2 || got[0] != "Le rendez-vous a commencé" || got[1] != "Le rendez-vous est fini" {
		t.Fatalf("got messages %v", got)
	}
	if m.State != models.StateCompleted {
		t.Errorf("meeting state %s, want %s", m.State, models.StateCompleted)
	}
}

func TestRunTimelineExternalDeletion(t *testing.T) {
	now := time.Date(2026, 9, 7, 8, 0, 0, 0, time.UTC)
	start := now.Add(time.Hour)
	cal := newFakeCalendar()
	msg := newFakeMessenger()
	m := confirmedMeeting(cal, "sam", 3, start, start.Add(30*time.Minute))
	svc := newTestService(cal, msg, newJumpClock(now))

	if err := cal.Delete(context.Background(), m.Event.ID); err != nil {
		t.Fatal(err)
	}
	svc.runTimeline(context.Background(), m)

	got := msg.sentTexts()
	if len(got) != 1 || got[0] != "Le rendez-vous a été annulé" {
		t.Fatalf("got messages %v, want cancellation only", got)
	}
	if m.State != models.StateCancelled {
		t.Errorf("meeting state %s, want %s", m.State, models.StateCancelled)
	}
	if len(msg.grants) != 0 {
		t.Errorf("role granted for cancelled meeting: %v", msg.grants)
	}
}

func TestRunTimelineSendFailureTolerated(t *testing.T) {
	// Доставка уведомлений не влияет на машину состояний
	now := time.Date(2026, 9, 7, 8, 0, 0, 0, time.UTC)
	start := now.Add(time.Hour)
	cal := newFakeCalendar()
	msg := newFakeMessenger()
	msg.failSend = true
	m := confirmedMeeting(cal, "sam", 3, start, start.Add(30*time.Minute))
	svc := newTestService(cal, msg, newJumpClock(now))

	svc.runTimeline(context.Background(), m)

	if m.State != models.StateCompleted {
		t.Errorf("meeting state %s, want %s", m.State, models.StateCompleted)
	}
	if len(msg.sent) != 0 {
		t.Errorf("messages recorded despite failing transport: %v", msg.sentTexts())
	}
}

func TestRunTimelineCancelledByContext(t *testing.T) {
	now := time.Date(2026, 9, 7, 8, 0, 0, 0, time.UTC)
	start := now.Add(time.Hour)
	cal := newFakeCalendar()
	msg := newFakeMessenger()
	m := confirmedMeeting(cal, "sam", 3, start, start.Add(30*time.Minute))
	// Остановленные часы: задача зависнет на первом ожидании
	svc := newTestService(cal, msg, newStoppedClock(now))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.runTimeline(ctx, m)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timeline task did not stop on context cancellation")
	}
	if len(msg.sent) != 0 {
		t.Errorf("messages sent by cancelled task: %v", msg.sentTexts())
	}
	if m.State != models.StateConfirmed {
		t.Errorf("meeting state %s, want untouched %s", m.State, models.StateConfirmed)
	}
}

func TestSpawnTimelineDeduplicates(t *testing.T) {
	now := time.Date(2026, 9, 7, 8, 0, 0, 0, time.UTC)
	start := now.Add(time.Hour)
	cal := newFakeCalendar()
	m := confirmedMeeting(cal, "sam", 3, start, start.Add(30*time.Minute))
	svc := newTestService(cal, newFakeMessenger(), newStoppedClock(now))

	svc.spawnTimeline(m)
	svc.spawnTimeline(m)

	svc.mu.Lock()
	registered := len(svc.timelines)
	svc.mu.Unlock()
	if registered != 1 {
		t.Fatalf("%d timeline tasks registered, want 1", registered)
	}
	svc.cancelTimeline(m.Event.ID)
}
