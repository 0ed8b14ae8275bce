package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rendezvous-crm/config"
	"rendezvous-crm/internal/booking"
	"rendezvous-crm/models"
)

// Booking - ядро бронирования. Устанавливается в main при сборке приложения.
var Booking *booking.Service

// currentUser загружает пользователя запроса с ролями.
func currentUser(c *gin.Context) (*models.User, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return nil, false
	}

	var user models.User
	if err := config.DB.Preload("Roles").First(&user, userID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return nil, false
	}
	return &user, true
}

// ListSlotsHandler возвращает каталог предлагаемых créneaux,
// сгруппированных по дню недели. Пустой каталог - отдельный исход,
// фронтенд показывает его иначе, чем список.
func ListSlotsHandler(c *gin.Context) {
	catalog, err := Booking.ListOfferableSlots(c.Request.Context(), time.Now())
	if err != nil {
		slog.Error("Failed to build slot catalog", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not list slots"})
		return
	}

	if len(catalog) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"slots":   gin.H{},
			"message": "Aucun créneau disponible pour le moment",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": catalog})
}

// ClaimInput - тело запроса на захват créneau.
type ClaimInput struct {
	SlotID string `json:"slot_id" binding:"required"`
}

// ClaimSlotHandler оптимистично захватывает créneau для пользователя.
func ClaimSlotHandler(c *gin.Context) {
	var input ClaimInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	user, ok := currentUser(c)
	if !ok {
		return
	}

	meeting, err := Booking.Claim(c.Request.Context(), input.SlotID, user)
	switch {
	case errors.Is(err, booking.ErrAlreadyBooked):
		c.JSON(http.StatusForbidden, gin.H{"error": "Vous avez déja pris un rendez-vous"})
		return
	case errors.Is(err, booking.ErrSlotUnavailable):
		c.JSON(http.StatusConflict, gin.H{"error": "Le créneau que vous avez choisi n'est plus disponible"})
		return
	case err != nil:
		slog.Error("Claim failed", "slot_id", input.SlotID, "user", user.Login, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not claim slot"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"event_id": meeting.Event.ID,
		"start":    meeting.Event.Start,
		"end":      meeting.Event.End,
		"day":      meeting.Event.Day(),
		"state":    meeting.State,
	})
}

// ConfirmMeetingHandler подтверждает захваченный créneau. Анкета
// опциональна: клиенты с ролью client подтверждают без нее.
func ConfirmMeetingHandler(c *gin.Context) {
	eventID := c.Param("id")

	user, ok := currentUser(c)
	if !ok {
		return
	}

	var answers models.FormAnswers
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&answers); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
	}

	ctx := c.Request.Context()
	if !answers.Empty() {
		if err := Booking.SubmitForm(ctx, eventID, user, answers); err != nil {
			if errors.Is(err, booking.ErrNotClaimOwner) {
				c.JSON(http.StatusForbidden, gin.H{"error": "Ce créneau est réservé par un autre utilisateur"})
				return
			}
			c.JSON(http.StatusGone, gin.H{"error": "Le créneau que vous avez choisi n'est plus disponible"})
			return
		}
	}

	meeting, err := Booking.Resolve(ctx, eventID, user, booking.DecisionConfirm)
	if errors.Is(err, booking.ErrUnknownClaim) {
		c.JSON(http.StatusGone, gin.H{"error": "Le créneau que vous avez choisi n'est plus disponible"})
		return
	}
	if errors.Is(err, booking.ErrNotClaimOwner) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Ce créneau est réservé par un autre utilisateur"})
		return
	}
	if err != nil {
		slog.Error("Confirmation failed", "event_id", eventID, "user", user.Login, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not confirm meeting"})
		return
	}

	// Побочная таблица со структурированными ответами - для отчетов
	info := models.MeetingInfo{
		EventID:     meeting.Event.ID,
		UserID:      user.ID,
		ChannelID:   meeting.ChannelID,
		Subject:     answers.Subject,
		ChainName:   answers.ChainName,
		Medias:      answers.Medias,
		Schedule:    answers.Schedule,
		Description: answers.Description,
	}
	if err := config.DB.Create(&info).Error; err != nil {
		slog.Error("Failed to persist meeting info", "event_id", meeting.Event.ID, "error", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Le rendez-vous a bien été reservé!",
		"event_id":   meeting.Event.ID,
		"channel_id": meeting.ChannelID,
	})
}

// CancelMeetingHandler отменяет захват, créneau возвращается в каталог.
// Отменить можно только собственный захват.
func CancelMeetingHandler(c *gin.Context) {
	eventID := c.Param("id")

	user, ok := currentUser(c)
	if !ok {
		return
	}

	if _, err := Booking.Resolve(c.Request.Context(), eventID, user, booking.DecisionCancel); err != nil {
		if errors.Is(err, booking.ErrUnknownClaim) {
			c.JSON(http.StatusGone, gin.H{"error": "Aucune réservation en cours"})
			return
		}
		if errors.Is(err, booking.ErrNotClaimOwner) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Ce créneau est réservé par un autre utilisateur"})
			return
		}
		slog.Error("Cancel failed", "event_id", eventID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not cancel meeting"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Le reservation a été annulé!"})
}

// AvailabilityInput - блок доступности от модератора.
type AvailabilityInput struct {
	Start    time.Time `json:"start" binding:"required"`
	End      time.Time `json:"end" binding:"required"`
	TimeZone string    `json:"time_zone"`
}

// CreateAvailabilityHandler публикует блок доступности. Блок будет
// нарезан на créneaux при первом чтении каталога.
func CreateAvailabilityHandler(c *gin.Context) {
	var input AvailabilityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if !input.End.After(input.Start) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "End must be after start"})
		return
	}
	if input.TimeZone == "" {
		input.TimeZone = "Europe/Paris"
	}

	block, err := Booking.CreateAvailability(c.Request.Context(), input.Start, input.End, input.TimeZone)
	if err != nil {
		slog.Error("Failed to create availability block", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create availability"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"event_id": block.ID})
}

// PurgeEventsHandler удаляет все записи календаря (модераторская операция).
func PurgeEventsHandler(c *gin.Context) {
	deleted, err := Booking.PurgeCalendar(c.Request.Context())
	if err != nil {
		slog.Error("Calendar purge failed", "deleted", len(deleted), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not purge calendar", "deleted": deleted})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// ListMeetingsHandler возвращает постраничный список подтвержденных
// рандеву из побочной таблицы.
func ListMeetingsHandler(c *gin.Context) {
	var meetings []models.MeetingInfo

	var totalRows int64
	config.DB.Model(&models.MeetingInfo{}).Count(&totalRows)

	err := config.DB.Preload("User").
		Order("created_at DESC").
		Scopes(Paginate(c)).
		Find(&meetings).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch meetings"})
		return
	}

	c.JSON(http.StatusOK, CreatePaginatedResponse(c, meetings, totalRows))
}
