// rendezvous-crm/internal/booking/claim.go

package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"rendezvous-crm/models"
)

type claimPhase int

const (
	phaseForm claimPhase = iota
	phaseConfirm
)

// pendingClaim - захваченный créneau, ожидающий решения пользователя.
// Живет только в памяти: упавший процесс теряет захваты, но календарная
// запись со временем откатывается вручную либо рескан находит ее занятой.
type pendingClaim struct {
	meeting *models.Meeting
	phase   claimPhase
	stop    chan struct{}
}

// Claim выполняет оптимистичный захват créneau: сама запись календаря
// служит замком. Последовательность fetch -> verify -> write сужает, но
// не закрывает окно гонки между двумя одновременными претендентами:
// календарь не дает compare-and-swap, и два прошедших verify могут оба
// записать захват. Это известная, допустимая по вероятности гонка.
func (s *Service) Claim(ctx context.Context, slotID string, user *models.User) (*models.Meeting, error) {
	// Бизнес-гейт: открытый rdv-канал без роли client запрещает новый
	// захват еще до каталога
	isClient := user.HasRole(s.cfg.ClientRole)
	if !isClient {
		ch, err := s.msg.ActiveChannelOf(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		if ch != nil {
			return nil, ErrAlreadyBooked
		}
	}

	ev, err := s.cal.Get(ctx, slotID)
	if err != nil {
		// Запись уже удалена или недоступна - для пользователя это
		// то же самое, что занятый créneau
		slog.Info("Claimed slot not fetchable", "slot_id", slotID, "error", err)
		return nil, ErrSlotUnavailable
	}
	if ev.Summary != models.SummaryFreeSlot {
		return nil, ErrSlotUnavailable
	}
	// Verify: перечитываем текущее состояние и убеждаемся, что créneau
	// все еще свободен
	if !s.existsCheck(ctx, ev) {
		return nil, ErrSlotUnavailable
	}

	ev.Summary = models.SummaryClaimed
	ev.ColorID = models.ColorClaimed
	updated, err := s.cal.Update(ctx, ev.ID, ev)
	if err != nil {
		return nil, err
	}

	m := &models.Meeting{
		Event:    updated,
		State:    models.StateClaimed,
		UserID:   user.ID,
		UserName: user.Login,
	}

	s.mu.Lock()
	pc := &pendingClaim{meeting: m, phase: phaseForm}
	timeout := s.cfg.FormTimeout
	if isClient {
		// Клиенту анкета не нужна, сразу тайм-бокс подтверждения
		pc.phase = phaseConfirm
		timeout = s.cfg.ConfirmTimeout
	}
	s.pending[updated.ID] = pc
	s.arm(updated.ID, pc, timeout)
	s.mu.Unlock()

	s.invalidateCatalog(ctx)
	slog.Info("Slot claimed", "slot_id", updated.ID, "user", user.Login, "timeout", timeout)
	return m, nil
}

// arm запускает сторожа тайм-бокса. Вызывается под s.mu.
func (s *Service) arm(eventID string, pc *pendingClaim, d time.Duration) {
	stop := make(chan struct{})
	pc.stop = stop
	go func() {
		select {
		case <-s.clock.After(d):
			if _, err := s.Resolve(s.base, eventID, nil, DecisionTimeout); err != nil && !errors.Is(err, ErrUnknownClaim) {
				slog.Error("Claim timeout handling failed", "event_id", eventID, "error", err)
			}
		case <-stop:
		}
	}()
}
