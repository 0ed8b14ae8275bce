// rendezvous-crm/internal/booking/timeline.go

package booking

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"rendezvous-crm/models"
)

// spawnTimeline запускает задачу таймлайна уведомлений для рандеву.
// На одно рандеву живет ровно одна задача; повторный запуск для того же
// события игнорируется.
func (s *Service) spawnTimeline(m *models.Meeting) {
	ctx, cancel := context.WithCancel(s.base)

	s.mu.Lock()
	if _, exists := s.timelines[m.Event.ID]; exists {
		s.mu.Unlock()
		cancel()
		return
	}
	s.timelines[m.Event.ID] = cancel
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.timelines, m.Event.ID)
			s.mu.Unlock()
			cancel()
		}()
		s.runTimeline(ctx, m)
	}()
}

// runTimeline проживает оставшуюся жизнь рандеву: напоминание за
// ReminderLead до начала, уведомление о старте с выдачей роли client,
// уведомление об окончании с включением кнопки повторного бронирования.
// Все ожидания считаются как max(0, target-now), поэтому задача,
// рожденная ресканом после рестарта, мгновенно проскакивает уже
// прошедшие шаги. Неудавшиеся отправки не ретраятся: корректность
// рандеву не зависит от доставки уведомлений.
func (s *Service) runTimeline(ctx context.Context, m *models.Meeting) {
	ev := m.Event

	if !s.waitUntil(ctx, ev.Start.Add(-s.cfg.ReminderLead)) {
		return
	}
	if !s.existsCheck(ctx, ev) {
		s.finishCancelled(ctx, m)
		return
	}

	if untilStart := ev.Start.Sub(s.clock.Now()); untilStart > 0 {
		minutes := int(math.Ceil(untilStart.Minutes()))
		s.notify(ctx, m, fmt.Sprintf("Le rendez-vous est dans %d minutes", minutes))
		if !s.waitUntil(ctx, ev.Start) {
			return
		}
	}

	if !s.existsCheck(ctx, ev) {
		s.finishCancelled(ctx, m)
		return
	}

	if err := s.transition(m, models.StateInProgress); err != nil {
		slog.Error("Meeting failed to enter InProgress", "event_id", ev.ID, "error", err)
		return
	}
	s.notify(ctx, m, "Le rendez-vous a commencé")
	if err := s.msg.GrantRole(ctx, m.UserName, s.cfg.ClientRole); err != nil {
		slog.Warn("Failed to grant client role", "user", m.UserName, "error", err)
	}

	if !s.waitUntil(ctx, ev.End) {
		return
	}

	if err := s.transition(m, models.StateCompleted); err != nil {
		slog.Error("Meeting failed to complete", "event_id", ev.ID, "error", err)
		return
	}
	s.notify(ctx, m, "Le rendez-vous est fini")
	if m.ChannelID != 0 {
		if err := s.msg.SetRebookEnabled(ctx, m.ChannelID, true); err != nil {
			slog.Warn("Failed to re-enable rebook control", "channel_id", m.ChannelID, "error", err)
		}
	}
}

// finishCancelled фиксирует внешнюю отмену: запись исчезла из календаря
// или сменила метку, задача уведомляет канал и завершается.
func (s *Service) finishCancelled(ctx context.Context, m *models.Meeting) {
	s.notify(ctx, m, "Le rendez-vous a été annulé")
	if err := s.transition(m, models.StateCancelled); err != nil {
		slog.Error("Invalid cancellation transition", "event_id", m.Event.ID, "error", err)
	}
	slog.Info("Meeting cancelled externally", "event_id", m.Event.ID)
}

// notify отправляет уведомление в канал рандеву. Отказ доставки
// логируется и не меняет состояние рандеву.
func (s *Service) notify(ctx context.Context, m *models.Meeting, text string) {
	if m.ChannelID == 0 {
		return
	}
	if err := s.msg.SendMessage(ctx, m.ChannelID, text); err != nil {
		slog.Warn("Notification send failed", "channel_id", m.ChannelID, "text", text, "error", err)
	}
}

// waitUntil кооперативно спит до целевого момента. Уже прошедший момент
// не ждется вовсе. false означает отмену задачи.
func (s *Service) waitUntil(ctx context.Context, target time.Time) bool {
	d := target.Sub(s.clock.Now())
	if d <= 0 {
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case <-s.clock.After(d):
		return true
	}
}
