// rendezvous-crm/internal/booking/channels.go

package booking

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"rendezvous-crm/models"
)

// BindChannel находит или создает канал общения для рандеву.
// Порядок поиска: активный канал автора, затем архивный (реактивируется
// с восстановлением доступа и чисткой истории до закрепленного
// сообщения), иначе создается новый.
func (s *Service) BindChannel(ctx context.Context, m *models.Meeting) (*models.Channel, error) {
	if ch, err := s.msg.ActiveChannelOf(ctx, m.UserID); err != nil {
		return nil, err
	} else if ch != nil {
		return ch, nil
	}

	if ch, err := s.msg.ArchivedChannelOf(ctx, m.UserID); err != nil {
		return nil, err
	} else if ch != nil {
		if err := s.msg.ReactivateChannel(ctx, ch); err != nil {
			return nil, err
		}
		slog.Info("Archived channel reactivated", "channel_id", ch.ID, "user", m.UserName)
		return ch, nil
	}

	user := &models.User{Login: m.UserName}
	user.ID = m.UserID
	ch, err := s.msg.CreateChannel(ctx, user)
	if err != nil {
		return nil, err
	}
	slog.Info("Channel created", "channel_id", ch.ID, "user", m.UserName)
	return ch, nil
}

// CloseChannel закрывает канал: автор теряет доступ на чтение, канал
// уезжает в архив, закрытие журналируется. Если привязанное рандеву еще
// не началось, оно отменяется.
func (s *Service) CloseChannel(ctx context.Context, ch *models.Channel, closedBy *models.User) error {
	if err := s.msg.SendMessage(ctx, ch.ID, "Ce salon a été fermé"); err != nil {
		slog.Warn("Failed to send closing message", "channel_id", ch.ID, "error", err)
	}
	if err := s.msg.RevokeAccess(ctx, ch); err != nil {
		return err
	}
	if err := s.msg.ArchiveChannel(ctx, ch); err != nil {
		return err
	}

	audit := models.ChannelAudit{
		ID:         uuid.NewString(),
		ChannelID:  ch.ID,
		AuthorID:   ch.AuthorID,
		ClosedByID: closedBy.ID,
	}
	if err := s.msg.LogClosure(ctx, audit); err != nil {
		slog.Warn("Failed to persist closure audit", "channel_id", ch.ID, "error", err)
	}
	slog.Info("Channel closed", "channel_id", ch.ID, "author_id", ch.AuthorID, "closed_by", closedBy.ID)

	// Не начавшееся рандеву этого канала отменяется вместе с ним
	now := s.clock.Now()
	events, err := s.cal.List(ctx, now, now.Add(s.cfg.Window))
	if err != nil {
		slog.Warn("Failed to look up meetings of closed channel", "channel_id", ch.ID, "error", err)
		return nil
	}
	channelRef := strconv.FormatUint(uint64(ch.ID), 10)
	for _, ev := range events {
		if !models.IsMeetingSummary(ev.Summary) || ev.Location != channelRef {
			continue
		}
		if ev.Start.After(now) {
			s.cancelTimeline(ev.ID)
			if err := s.revertSlot(ctx, ev.ID); err != nil {
				slog.Error("Failed to cancel meeting of closed channel", "event_id", ev.ID, "error", err)
				continue
			}
			slog.Info("Meeting cancelled by channel closure", "event_id", ev.ID, "channel_id", ch.ID)
		}
	}
	return nil
}
