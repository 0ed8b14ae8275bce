package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"rendezvous-crm/config"
	"rendezvous-crm/models"
)

// CloseChannelHandler закрывает rdv-канал. Доступно автору канала и
// модераторам; не начавшееся рандеву канала при этом отменяется.
func CloseChannelHandler(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var ch models.Channel
	if err := config.DB.First(&ch, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Channel not found"})
		return
	}
	if ch.Status != models.ChannelActive {
		c.JSON(http.StatusConflict, gin.H{"error": "Channel is already closed"})
		return
	}
	if ch.AuthorID != user.ID && !user.HasRole(config.ModerationRole) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Permission denied"})
		return
	}

	if err := Booking.CloseChannel(c.Request.Context(), &ch, user); err != nil {
		slog.Error("Channel close failed", "channel_id", ch.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not close channel"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Ce salon a été fermé"})
}

// GetChannelMessagesHandler отдает историю канала. Автор с отозванным
// доступом на чтение историю не видит.
func GetChannelMessagesHandler(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var ch models.Channel
	if err := config.DB.First(&ch, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Channel not found"})
		return
	}

	isModerator := user.HasRole(config.ModerationRole)
	if ch.AuthorID != user.ID && !isModerator {
		c.JSON(http.StatusForbidden, gin.H{"error": "Permission denied"})
		return
	}
	if ch.AuthorID == user.ID && ch.ReadRevoked && !isModerator {
		c.JSON(http.StatusForbidden, gin.H{"error": "Permission denied"})
		return
	}

	var messages []models.ChannelMessage
	err := config.DB.Where("channel_id = ?", ch.ID).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"channel": ch, "messages": messages})
}

// GetMyChannelHandler возвращает активный канал текущего пользователя,
// если он есть.
func GetMyChannelHandler(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var ch models.Channel
	err := config.DB.Where("author_id = ? AND status = ?", user.ID, models.ChannelActive).
		First(&ch).Error
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"channel": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"channel": ch})
}
