// rendezvous-crm/internal/routes/api_routes.go
package routes

import (
	"rendezvous-crm/config"
	"rendezvous-crm/internal/handlers"
	"rendezvous-crm/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterAPIRoutes регистрирует все маршруты API, требующие аутентификации.
func RegisterAPIRoutes(api *gin.RouterGroup) {
	// Группа для всех API-запросов с префиксом /api
	apiGroup := api.Group("/api")
	{
		// --- БРОНИРОВАНИЕ ---
		bookingGroup := apiGroup.Group("/booking")
		{
			bookingGroup.GET("/slots", handlers.ListSlotsHandler)
			bookingGroup.POST("/claim", handlers.ClaimSlotHandler)
			bookingGroup.POST("/meetings/:id/confirm", handlers.ConfirmMeetingHandler)
			bookingGroup.POST("/meetings/:id/cancel", handlers.CancelMeetingHandler)

			// Модераторские операции над календарем
			bookingGroup.POST("/availability", middleware.RoleMiddleware(config.ModerationRole), handlers.CreateAvailabilityHandler)
			bookingGroup.DELETE("/events", middleware.RoleMiddleware(config.ModerationRole), handlers.PurgeEventsHandler)
			bookingGroup.GET("/meetings", middleware.RoleMiddleware(config.ModerationRole), handlers.ListMeetingsHandler)
			bookingGroup.GET("/report", middleware.RoleMiddleware(config.ModerationRole), handlers.ExportMeetingsHandler)
		}

		// --- КАНАЛЫ ---
		channels := apiGroup.Group("/channels")
		{
			// WebSocket эндпоинт
			channels.GET("/ws", func(c *gin.Context) {
				handlers.ChannelWSEndpoint(c)
			})
			channels.GET("/mine", handlers.GetMyChannelHandler)
			channels.GET("/:id/messages", handlers.GetChannelMessagesHandler)
			channels.POST("/:id/close", handlers.CloseChannelHandler)
		}
	}
}
