// rendezvous-crm/config/google.go
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

var (
	CalendarService *calendar.Service
	CalendarID      string
)

// InitGoogleCalendar инициализирует клиент Google Calendar API.
// Календарь - единственное долговременное хранилище créneaux и рандеву.
func InitGoogleCalendar() error {
	ctx := context.Background()

	CalendarID = os.Getenv("GOOGLE_CALENDAR_ID")
	if CalendarID == "" {
		return fmt.Errorf("GOOGLE_CALENDAR_ID environment variable not set")
	}

	credsFile := os.Getenv("GOOGLE_CREDENTIALS_FILE")
	if credsFile == "" {
		return fmt.Errorf("GOOGLE_CREDENTIALS_FILE environment variable not set")
	}

	svc, err := calendar.NewService(ctx, option.WithCredentialsFile(credsFile))
	if err != nil {
		return fmt.Errorf("unable to create Calendar client: %v", err)
	}
	CalendarService = svc
	slog.Info("Google Calendar API client initialized successfully.", "calendar_id", CalendarID)

	return nil
}
