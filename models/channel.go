// rendezvous-crm/models/channel.go

package models

import "gorm.io/gorm"

// Статусы канала. Канал никогда не удаляется - только перемещается
// между активной категорией и архивом.
const (
	ChannelActive   = "active"
	ChannelArchived = "archived"
)

// Channel - персистентный канал общения 1:1, привязанный к рандеву.
// Автор - клиент, взявший рандеву; канал переживает само рандеву и
// переиспользуется при повторных бронированиях.
type Channel struct {
	gorm.Model
	Name          string `json:"name" gorm:"not null"`
	Slug          string `json:"slug" gorm:"uniqueIndex;not null"`
	AuthorID      uint   `json:"author_id" gorm:"index;not null"`
	Author        User   `json:"author" gorm:"foreignKey:AuthorID"`
	Status        string `json:"status" gorm:"type:varchar(20);default:'active';index"`
	ReadRevoked   bool   `json:"read_revoked"`
	RebookEnabled bool   `json:"rebook_enabled"`

	// PinnedMessageID - закрепленное контрольное сообщение с кнопками
	// "Reprendre un RDV" / "Fermer".
	PinnedMessageID *uint `json:"pinned_message_id"`
}

// ChannelMessage - сообщение в канале. UserID == 0 означает системное
// сообщение (уведомления таймлайна).
type ChannelMessage struct {
	gorm.Model
	ChannelID uint   `json:"channel_id" gorm:"index;not null"`
	UserID    uint   `json:"user_id"`
	Content   string `json:"content" gorm:"type:text"`
	Pinned    bool   `json:"pinned"`
}

// ChannelAudit - журнальная запись о закрытии канала: кто создал, кто закрыл.
type ChannelAudit struct {
	ID         string `json:"id" gorm:"primaryKey"`
	ChannelID  uint   `json:"channel_id" gorm:"index"`
	AuthorID   uint   `json:"author_id"`
	ClosedByID uint   `json:"closed_by_id"`
	CreatedAt  int64  `json:"created_at" gorm:"autoCreateTime"`
}
