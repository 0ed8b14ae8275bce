// rendezvous-crm/internal/booking/calendar.go

package booking

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/calendar/v3"

	"rendezvous-crm/models"
)

// CalendarAPI - потребляемый ядром интерфейс внешнего календаря.
// List возвращает записи, пересекающие [timeMin, timeMax), в порядке
// возрастания времени начала; нулевые границы означают "без ограничения".
type CalendarAPI interface {
	Get(ctx context.Context, eventID string) (*models.CalendarEvent, error)
	List(ctx context.Context, timeMin, timeMax time.Time) ([]*models.CalendarEvent, error)
	Insert(ctx context.Context, ev *models.CalendarEvent) (*models.CalendarEvent, error)
	Update(ctx context.Context, eventID string, ev *models.CalendarEvent) (*models.CalendarEvent, error)
	Delete(ctx context.Context, eventID string) error
}

// GoogleCalendar реализует CalendarAPI поверх Google Calendar API v3.
type GoogleCalendar struct {
	svc        *calendar.Service
	calendarID string
}

func NewGoogleCalendar(svc *calendar.Service, calendarID string) *GoogleCalendar {
	return &GoogleCalendar{svc: svc, calendarID: calendarID}
}

func (g *GoogleCalendar) Get(ctx context.Context, eventID string) (*models.CalendarEvent, error) {
	ev, err := g.svc.Events.Get(g.calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("calendar get %s: %w", eventID, err)
	}
	return eventFromGoogle(ev)
}

func (g *GoogleCalendar) List(ctx context.Context, timeMin, timeMax time.Time) ([]*models.CalendarEvent, error) {
	call := g.svc.Events.List(g.calendarID).SingleEvents(true).OrderBy("startTime").Context(ctx)
	if !timeMin.IsZero() {
		call = call.TimeMin(timeMin.Format(time.RFC3339))
	}
	if !timeMax.IsZero() {
		call = call.TimeMax(timeMax.Format(time.RFC3339))
	}

	result, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("calendar list: %w", err)
	}

	events := make([]*models.CalendarEvent, 0, len(result.Items))
	for _, item := range result.Items {
		ev, err := eventFromGoogle(item)
		if err != nil {
			// Запись с нечитаемыми датами пропускаем, остальное важнее
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func (g *GoogleCalendar) Insert(ctx context.Context, ev *models.CalendarEvent) (*models.CalendarEvent, error) {
	created, err := g.svc.Events.Insert(g.calendarID, eventToGoogle(ev)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("calendar insert: %w", err)
	}
	return eventFromGoogle(created)
}

func (g *GoogleCalendar) Update(ctx context.Context, eventID string, ev *models.CalendarEvent) (*models.CalendarEvent, error) {
	updated, err := g.svc.Events.Update(g.calendarID, eventID, eventToGoogle(ev)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("calendar update %s: %w", eventID, err)
	}
	return eventFromGoogle(updated)
}

func (g *GoogleCalendar) Delete(ctx context.Context, eventID string) error {
	if err := g.svc.Events.Delete(g.calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("calendar delete %s: %w", eventID, err)
	}
	return nil
}

// eventFromGoogle разбирает запись API в локальный value object.
func eventFromGoogle(ev *calendar.Event) (*models.CalendarEvent, error) {
	start, err := parseEventTime(ev.Start)
	if err != nil {
		return nil, fmt.Errorf("event %s: bad start: %w", ev.Id, err)
	}
	end, err := parseEventTime(ev.End)
	if err != nil {
		return nil, fmt.Errorf("event %s: bad end: %w", ev.Id, err)
	}

	out := &models.CalendarEvent{
		ID:          ev.Id,
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		ColorID:     ev.ColorId,
		Start:       start,
		End:         end,
	}
	if ev.Start != nil {
		out.TimeZone = ev.Start.TimeZone
	}
	if ev.Reminders != nil && !ev.Reminders.UseDefault {
		for _, o := range ev.Reminders.Overrides {
			if o.Method == "popup" {
				out.PopupReminderMin = o.Minutes
			}
		}
	}
	return out, nil
}

func parseEventTime(edt *calendar.EventDateTime) (time.Time, error) {
	if edt == nil {
		return time.Time{}, fmt.Errorf("missing time")
	}
	if edt.DateTime != "" {
		return time.Parse(time.RFC3339, edt.DateTime)
	}
	// Событие на весь день
	return time.Parse("2006-01-02", edt.Date)
}

func eventToGoogle(ev *models.CalendarEvent) *calendar.Event {
	out := &calendar.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		ColorId:     ev.ColorID,
		Start: &calendar.EventDateTime{
			DateTime: ev.Start.Format(time.RFC3339),
			TimeZone: ev.TimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: ev.End.Format(time.RFC3339),
			TimeZone: ev.TimeZone,
		},
	}
	if ev.PopupReminderMin > 0 {
		out.Reminders = &calendar.EventReminders{
			UseDefault: false,
			Overrides: []*calendar.EventReminder{
				{Method: "popup", Minutes: ev.PopupReminderMin},
			},
			ForceSendFields: []string{"UseDefault"},
		}
	}
	return out
}
