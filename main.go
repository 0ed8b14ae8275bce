// rendezvous-crm/main.go
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"

	"rendezvous-crm/config"
	"rendezvous-crm/internal/booking"
	"rendezvous-crm/internal/handlers"
	"rendezvous-crm/internal/routes"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	// Порядок важен: настройки, хранилища, календарь, потом ядро
	config.Load()
	config.ConnectDB()
	config.MigrateDB()
	config.ConnectRedis()
	if err := config.InitGoogleCalendar(); err != nil {
		slog.Error("Критическая ошибка инициализации Google Calendar", "error", err)
		os.Exit(1)
	}

	go handlers.GlobalHub.Run()

	ctx := context.Background()
	messenger := handlers.NewGormMessenger(config.DB, handlers.GlobalHub, config.RDB)
	calendarAPI := booking.NewGoogleCalendar(config.CalendarService, config.CalendarID)

	handlers.Booking = booking.NewService(ctx, calendarAPI, messenger, config.RDB, booking.SystemClock, booking.Config{
		SlotDuration:   config.SlotDuration,
		SlotStride:     config.SlotStride,
		FormTimeout:    config.FormTimeout,
		ConfirmTimeout: config.ConfirmTimeout,
		Window:         config.CatalogWindow,
		ReminderLead:   config.ReminderLead,
		ClientRole:     config.ClientRole,
	})

	// Восстановление после рестарта: живые рандеву находятся ресканом
	// календаря, отдельной долговременной очереди нет
	if _, err := handlers.Booking.Recover(ctx); err != nil {
		slog.Error("Ошибка восстановления рандеву из календаря", "error", err)
	}

	r := gin.Default()
	routes.SetupRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	slog.Info("Server starting", "port", port)
	if err := r.Run(":" + port); err != nil {
		slog.Error("Сервер завершился с ошибкой", "error", err)
		os.Exit(1)
	}
}
