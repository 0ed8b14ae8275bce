// rendezvous-crm/internal/booking/workflow.go

package booking

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"rendezvous-crm/models"
)

// Decision - исход воркфлоу подтверждения.
type Decision int

const (
	DecisionConfirm Decision = iota
	DecisionCancel
	DecisionTimeout
)

func (d Decision) String() string {
	switch d {
	case DecisionConfirm:
		return "confirm"
	case DecisionCancel:
		return "cancel"
	default:
		return "timeout"
	}
}

// SubmitForm сохраняет ответы анкеты и перезапускает сторож на тайм-бокс
// подтверждения. Для захвата в фазе подтверждения только обновляет ответы.
// Анкету принимает только владелец захвата.
func (s *Service) SubmitForm(ctx context.Context, eventID string, user *models.User, info models.FormAnswers) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pc, ok := s.pending[eventID]
	if !ok {
		return ErrUnknownClaim
	}
	if pc.meeting.UserID != user.ID {
		return ErrNotClaimOwner
	}
	pc.meeting.Info = info
	if pc.phase == phaseForm {
		close(pc.stop)
		pc.phase = phaseConfirm
		s.arm(eventID, pc, s.cfg.ConfirmTimeout)
	}
	return nil
}

// Resolve завершает воркфлоу подтверждения захваченного créneau.
// Confirm превращает захват в подтвержденное рандеву с каналом и
// таймлайном; Cancel и Timeout откатывают créneau в свободное состояние.
// actor - пользователь, принявший решение; nil означает системное
// решение (сторож тайм-бокса), для него проверка владельца не нужна.
// Повторный Timeout идемпотентен: откат уже свободного créneau - no-op.
func (s *Service) Resolve(ctx context.Context, eventID string, actor *models.User, decision Decision) (*models.Meeting, error) {
	s.mu.Lock()
	pc, ok := s.pending[eventID]
	if ok && actor != nil && pc.meeting.UserID != actor.ID {
		s.mu.Unlock()
		return nil, ErrNotClaimOwner
	}
	if ok {
		delete(s.pending, eventID)
		close(pc.stop)
	}
	s.mu.Unlock()

	if !ok {
		if decision == DecisionTimeout {
			// Сторож мог проснуться одновременно с ручным разрешением и
			// прийти сюда уже после него. Откатывается только запись,
			// зависшая в захваченном виде: подтвержденное рандеву и
			// свободный créneau не трогаются.
			ev, err := s.cal.Get(ctx, eventID)
			if err != nil || ev.Summary != models.SummaryClaimed {
				return nil, nil
			}
			return nil, s.revertSlot(ctx, eventID)
		}
		return nil, ErrUnknownClaim
	}

	m := pc.meeting
	if decision == DecisionConfirm {
		return s.confirm(ctx, m)
	}

	if err := s.revertSlot(ctx, eventID); err != nil {
		slog.Error("Failed to revert slot after workflow end", "event_id", eventID, "decision", decision.String(), "error", err)
	}
	if err := s.transition(m, models.StateCancelled); err != nil {
		slog.Error("Invalid cancel transition", "event_id", eventID, "error", err)
	}
	slog.Info("Claim released", "event_id", eventID, "decision", decision.String(), "user", m.UserName)
	return m, nil
}

// confirm довершает бронирование: привязывает канал, переписывает запись
// календаря меткой рандеву и запускает таймлайн уведомлений.
func (s *Service) confirm(ctx context.Context, m *models.Meeting) (*models.Meeting, error) {
	ch, err := s.BindChannel(ctx, m)
	if err != nil {
		// Без канала рандеву не живет - откатываем захват
		if revertErr := s.revertSlot(ctx, m.Event.ID); revertErr != nil {
			slog.Error("Failed to revert slot after bind failure", "event_id", m.Event.ID, "error", revertErr)
		}
		return nil, err
	}
	m.ChannelID = ch.ID

	ev := m.Event
	ev.Summary = models.MeetingSummary(m.UserName)
	ev.Description = joinAnswers(m.Info)
	ev.Location = strconv.FormatUint(uint64(ch.ID), 10)
	ev.ColorID = ""
	ev.PopupReminderMin = int64(s.cfg.ReminderLead / time.Minute)

	updated, err := s.cal.Update(ctx, ev.ID, ev)
	if err != nil {
		return nil, err
	}
	m.Event = updated

	if err := s.transition(m, models.StateConfirmed); err != nil {
		return nil, err
	}

	pin := fmt.Sprintf("Rendez-vous de %s\n%s de %s a %s",
		m.UserName, updated.Day(), updated.Start.Format("15:04"), updated.End.Format("15:04"))
	if err := s.msg.PinControlMessage(ctx, ch, pin); err != nil {
		slog.Warn("Failed to pin control message", "channel_id", ch.ID, "error", err)
	}

	s.invalidateCatalog(ctx)
	s.spawnTimeline(m)
	slog.Info("Meeting confirmed", "event_id", updated.ID, "user", m.UserName, "channel_id", ch.ID)
	return m, nil
}

// revertSlot возвращает запись в состояние свободного créneau и чистит
// все следы брони. Идемпотентна: уже свободная или исчезнувшая запись
// не трогается.
func (s *Service) revertSlot(ctx context.Context, eventID string) error {
	ev, err := s.cal.Get(ctx, eventID)
	if err != nil {
		slog.Warn("Slot to revert is gone", "event_id", eventID, "error", err)
		return nil
	}
	if ev.Summary == models.SummaryFreeSlot {
		return nil
	}

	ev.Summary = models.SummaryFreeSlot
	ev.Description = ""
	ev.Location = ""
	ev.ColorID = ""
	ev.PopupReminderMin = 0
	if _, err := s.cal.Update(ctx, eventID, ev); err != nil {
		return err
	}
	s.invalidateCatalog(ctx)
	return nil
}

// joinAnswers сериализует анкету в описание события тем же форматом
// "ключ: значение", которым оно потом читается людьми в календаре.
func joinAnswers(info models.FormAnswers) string {
	if info.Empty() {
		return ""
	}
	var b strings.Builder
	for _, pair := range [][2]string{
		{"sujet", info.Subject},
		{"nom", info.ChainName},
		{"medias", info.Medias},
		{"horaires", info.Schedule},
		{"description", info.Description},
	} {
		b.WriteString(pair[0])
		b.WriteString(": ")
		b.WriteString(pair[1])
		b.WriteString("\n\n")
	}
	return b.String()
}
