package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"rendezvous-crm/models"
)

// GormMessenger - реализация booking.Messenger поверх Postgres и
// websocket-хаба: каналы и их история живут в БД, онлайн-пользователи
// получают события через хаб.
type GormMessenger struct {
	db  *gorm.DB
	hub *Hub
	rdb *redis.Client // может быть nil
}

func NewGormMessenger(db *gorm.DB, hub *Hub, rdb *redis.Client) *GormMessenger {
	return &GormMessenger{db: db, hub: hub, rdb: rdb}
}

// SendMessage пишет системное сообщение в историю канала и проталкивает
// его автору, если тот онлайн.
func (m *GormMessenger) SendMessage(ctx context.Context, channelID uint, text string) error {
	var ch models.Channel
	if err := m.db.WithContext(ctx).First(&ch, channelID).Error; err != nil {
		return fmt.Errorf("channel %d: %w", channelID, err)
	}

	msg := models.ChannelMessage{ChannelID: channelID, UserID: 0, Content: text}
	if err := m.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return err
	}

	m.hub.Push(ch.AuthorID, Event{
		Type:    "channelMessage",
		Payload: channelEventPayload{ChannelID: channelID, Content: text},
	})
	return nil
}

func (m *GormMessenger) CreateChannel(ctx context.Context, user *models.User) (*models.Channel, error) {
	ch := models.Channel{
		Name:     "rdv-" + strings.ReplaceAll(user.Login, " ", ""),
		Slug:     uuid.NewString(),
		AuthorID: user.ID,
		Status:   models.ChannelActive,
	}
	if err := m.db.WithContext(ctx).Create(&ch).Error; err != nil {
		return nil, err
	}
	return &ch, nil
}

func (m *GormMessenger) ActiveChannelOf(ctx context.Context, userID uint) (*models.Channel, error) {
	return m.channelOf(ctx, userID, models.ChannelActive)
}

func (m *GormMessenger) ArchivedChannelOf(ctx context.Context, userID uint) (*models.Channel, error) {
	return m.channelOf(ctx, userID, models.ChannelArchived)
}

func (m *GormMessenger) channelOf(ctx context.Context, userID uint, status string) (*models.Channel, error) {
	var ch models.Channel
	err := m.db.WithContext(ctx).
		Where("author_id = ? AND status = ?", userID, status).
		First(&ch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// ReactivateChannel возвращает канал из архива: доступ восстанавливается,
// история чистится до закрепленного контрольного сообщения.
func (m *GormMessenger) ReactivateChannel(ctx context.Context, ch *models.Channel) error {
	ch.Status = models.ChannelActive
	ch.ReadRevoked = false
	ch.RebookEnabled = false
	if err := m.db.WithContext(ctx).Save(ch).Error; err != nil {
		return err
	}
	return m.db.WithContext(ctx).
		Where("channel_id = ? AND pinned = ?", ch.ID, false).
		Delete(&models.ChannelMessage{}).Error
}

func (m *GormMessenger) ArchiveChannel(ctx context.Context, ch *models.Channel) error {
	ch.Status = models.ChannelArchived
	return m.db.WithContext(ctx).Save(ch).Error
}

func (m *GormMessenger) RevokeAccess(ctx context.Context, ch *models.Channel) error {
	ch.ReadRevoked = true
	return m.db.WithContext(ctx).Save(ch).Error
}

// GrantRole выдает пользователю роль по имени. Кэш данных пользователя
// в Redis сбрасывается, чтобы middleware увидел роль сразу.
func (m *GormMessenger) GrantRole(ctx context.Context, login, roleName string) error {
	var user models.User
	if err := m.db.WithContext(ctx).Preload("Roles").Where("login = ?", login).First(&user).Error; err != nil {
		return fmt.Errorf("user %s: %w", login, err)
	}
	if user.HasRole(roleName) {
		return nil
	}

	var role models.Role
	if err := m.db.WithContext(ctx).Where(models.Role{Name: roleName}).FirstOrCreate(&role).Error; err != nil {
		return err
	}
	if err := m.db.WithContext(ctx).Model(&user).Association("Roles").Append(&role); err != nil {
		return err
	}

	if m.rdb != nil {
		cacheKey := fmt.Sprintf("user:%d:data", user.ID)
		if err := m.rdb.Del(ctx, cacheKey).Err(); err != nil {
			slog.Warn("Failed to invalidate user cache after role grant", "user_id", user.ID, "error", err)
		}
	}
	slog.Info("Role granted", "user", login, "role", roleName)
	return nil
}

func (m *GormMessenger) SetRebookEnabled(ctx context.Context, channelID uint, enabled bool) error {
	var ch models.Channel
	if err := m.db.WithContext(ctx).First(&ch, channelID).Error; err != nil {
		return err
	}
	ch.RebookEnabled = enabled
	if err := m.db.WithContext(ctx).Save(&ch).Error; err != nil {
		return err
	}

	m.hub.Push(ch.AuthorID, Event{
		Type:    "controlsUpdated",
		Payload: channelEventPayload{ChannelID: channelID, Rebook: enabled},
	})
	return nil
}

// PinControlMessage создает или обновляет закрепленное контрольное
// сообщение канала (кнопки "Reprendre un RDV" / "Fermer").
func (m *GormMessenger) PinControlMessage(ctx context.Context, ch *models.Channel, text string) error {
	if ch.PinnedMessageID != nil {
		err := m.db.WithContext(ctx).
			Model(&models.ChannelMessage{}).
			Where("id = ?", *ch.PinnedMessageID).
			Update("content", text).Error
		if err != nil {
			return err
		}
	} else {
		msg := models.ChannelMessage{ChannelID: ch.ID, UserID: 0, Content: text, Pinned: true}
		if err := m.db.WithContext(ctx).Create(&msg).Error; err != nil {
			return err
		}
		ch.PinnedMessageID = &msg.ID
	}

	// Пока рандеву активно, кнопка повторного бронирования выключена
	ch.RebookEnabled = false
	if err := m.db.WithContext(ctx).Save(ch).Error; err != nil {
		return err
	}

	m.hub.Push(ch.AuthorID, Event{
		Type:    "channelMessage",
		Payload: channelEventPayload{ChannelID: ch.ID, Content: text, Pinned: true},
	})
	return nil
}

// LogClosure сохраняет журнальную запись о закрытии и уведомляет
// модераторов, которые онлайн.
func (m *GormMessenger) LogClosure(ctx context.Context, audit models.ChannelAudit) error {
	if err := m.db.WithContext(ctx).Create(&audit).Error; err != nil {
		return err
	}

	var moderators []models.User
	err := m.db.WithContext(ctx).
		Joins("JOIN user_roles ON user_roles.user_id = users.id").
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Where("roles.name = ?", "moderation").
		Find(&moderators).Error
	if err != nil {
		slog.Warn("Failed to list moderators for closure log", "error", err)
		return nil
	}

	for _, mod := range moderators {
		m.hub.Push(mod.ID, Event{
			Type:    "channelClosed",
			Payload: audit,
		})
	}
	return nil
}
