// rendezvous-crm/models/calendar.go

package models

import (
	"strings"
	"time"
)

// Статусные метки в поле summary. Summary - единственный источник правды
// о состоянии créneau, поэтому весь разбор и сборка меток живут здесь,
// ни один другой пакет не трогает сырые строки.
const (
	SummaryAvailability = "disponible"                 // нераскрытый блок доступности
	SummaryFreeSlot     = "Créneau libre"              // свободный créneau
	SummaryClaimed      = "En cours de résérvation..." // оптимистично захвачен

	meetingPrefix = "Rendez-vous ("
	meetingSuffix = ")"
)

// ColorClaimed - colorId, которым помечается захваченный créneau.
const ColorClaimed = "5"

// MeetingSummary собирает метку подтвержденного рандеву с именем клиента.
func MeetingSummary(user string) string {
	return meetingPrefix + user + meetingSuffix
}

// ParseMeetingUser извлекает имя клиента из метки рандеву.
// Второй результат false, если summary не является меткой рандеву.
func ParseMeetingUser(summary string) (string, bool) {
	if !strings.HasPrefix(summary, meetingPrefix) || !strings.HasSuffix(summary, meetingSuffix) {
		return "", false
	}
	return summary[len(meetingPrefix) : len(summary)-len(meetingSuffix)], true
}

// IsMeetingSummary сообщает, помечена ли запись как подтвержденное рандеву.
func IsMeetingSummary(summary string) bool {
	_, ok := ParseMeetingUser(summary)
	return ok
}

// CalendarEvent - локальное значение-отражение записи Google Calendar.
// Поле Location переиспользуется под идентификатор привязанного канала,
// Description - под сериализованные ответы анкеты.
type CalendarEvent struct {
	ID          string
	Summary     string
	Description string
	Location    string
	ColorID     string
	Start       time.Time
	End         time.Time
	TimeZone    string

	// PopupReminderMin - напоминание в минутах до начала, 0 - без напоминания.
	PopupReminderMin int64
}

// Day возвращает французское название дня недели начала события.
func (e *CalendarEvent) Day() string {
	return WeekdayLabel(e.Start.Weekday())
}

// WeekdayLabel переводит день недели в метку каталога.
func WeekdayLabel(d time.Weekday) string {
	weekdays := map[time.Weekday]string{
		time.Monday:    "Lundi",
		time.Tuesday:   "Mardi",
		time.Wednesday: "Mercredi",
		time.Thursday:  "Jeudi",
		time.Friday:    "Vendredi",
		time.Saturday:  "Samedi",
		time.Sunday:    "Dimanche",
	}
	return weekdays[d]
}

// Slot - производное, read-only представление свободного créneau.
// Строится заново при каждом чтении каталога и нигде не хранится.
type Slot struct {
	ID       string    `json:"id"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Day      string    `json:"day"`
	TimeZone string    `json:"timeZone"`
}

// SlotOf строит Slot из записи календаря.
func SlotOf(e *CalendarEvent) Slot {
	return Slot{
		ID:       e.ID,
		Start:    e.Start,
		End:      e.End,
		Day:      e.Day(),
		TimeZone: e.TimeZone,
	}
}
