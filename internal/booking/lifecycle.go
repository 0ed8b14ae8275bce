// rendezvous-crm/internal/booking/lifecycle.go

package booking

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"rendezvous-crm/models"
)

// Разрешенные переходы машины состояний. Free - и начальное состояние
// свободного créneau, и состояние повторного входа после отмены.
// Отмена легальна вплоть до Completed.
var transitions = map[models.MeetingState][]models.MeetingState{
	models.StateFree:       {models.StateClaimed},
	models.StateClaimed:    {models.StateConfirmed, models.StateCancelled},
	models.StateConfirmed:  {models.StateInProgress, models.StateCancelled},
	models.StateInProgress: {models.StateCompleted, models.StateCancelled},
}

// CanTransition проверяет допустимость перехода без учета временных гвардов.
func CanTransition(from, to models.MeetingState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// transition переводит рандеву в новое состояние с учетом временных
// гвардов: InProgress не раньше начала, Completed не раньше конца.
func (s *Service) transition(m *models.Meeting, to models.MeetingState) error {
	if !CanTransition(m.State, to) {
		return fmt.Errorf("illegal transition %s -> %s", m.State, to)
	}

	now := s.clock.Now()
	switch to {
	case models.StateInProgress:
		if now.Before(m.Event.Start) {
			return fmt.Errorf("meeting %s has not started yet", m.Event.ID)
		}
	case models.StateCompleted:
		if now.Before(m.Event.End) {
			return fmt.Errorf("meeting %s has not ended yet", m.Event.ID)
		}
	}

	slog.Info("Meeting state transition", "event_id", m.Event.ID, "from", m.State, "to", to)
	m.State = to
	return nil
}

// existsCheck перечитывает календарь и подтверждает, что запись все еще
// существует с той же меткой. Календарь не шлет push-уведомлений, так
// внешнее удаление или переименование и обнаруживается.
func (s *Service) existsCheck(ctx context.Context, ev *models.CalendarEvent) bool {
	now := s.clock.Now()
	events, err := s.cal.List(ctx, now, now.Add(s.cfg.Window))
	if err != nil {
		slog.Warn("Existence check failed to list calendar", "event_id", ev.ID, "error", err)
		return false
	}
	for _, cur := range events {
		if cur.ID == ev.ID && cur.Summary == ev.Summary {
			return true
		}
	}
	return false
}

// Recover восстанавливает машину состояний после рестарта процесса
// чисто из содержимого календаря: всякая запись с меткой рандеву и еще
// не прошедшим концом считается "живой" и получает свежую задачу
// таймлайна. Отдельной долговременной очереди нет - окно рескана
// ограничено горизонтом каталога, дальше него подтвержденных рандеву
// быть не может.
func (s *Service) Recover(ctx context.Context) (int, error) {
	now := s.clock.Now()
	events, err := s.cal.List(ctx, now, now.Add(s.cfg.Window))
	if err != nil {
		return 0, err
	}

	count := 0
	for _, ev := range events {
		user, ok := models.ParseMeetingUser(ev.Summary)
		if !ok || !ev.End.After(now) {
			continue
		}

		channelID, _ := strconv.ParseUint(ev.Location, 10, 32)
		m := &models.Meeting{
			Event:     ev,
			State:     models.StateConfirmed,
			UserName:  user,
			ChannelID: uint(channelID),
		}
		s.spawnTimeline(m)
		count++
	}

	slog.Info("Recovered in-flight meetings from calendar", "count", count)
	return count, nil
}
