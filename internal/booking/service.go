// rendezvous-crm/internal/booking/service.go

package booking

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"rendezvous-crm/models"
)

// Config - параметры ядра бронирования. Все значения приходят из
// пакета config при сборке сервиса.
type Config struct {
	SlotDuration   time.Duration // длительность créneau (D)
	SlotStride     time.Duration // шаг нарезки (S), S > D дает паузу между рандеву
	FormTimeout    time.Duration // тайм-бокс заполнения анкеты
	ConfirmTimeout time.Duration // тайм-бокс кнопки подтверждения
	Window         time.Duration // горизонт каталога и рескана при рестарте
	ReminderLead   time.Duration // упреждение напоминания до начала
	ClientRole     string        // роль, выдаваемая в момент начала рандеву
}

// Service - ядро бронирования. Единственный разделяемый мутабельный
// ресурс - внешний календарь; сервис не держит никаких блокировок через
// границу внешнего вызова, все мутации записей - last-writer-wins.
type Service struct {
	cal   CalendarAPI
	msg   Messenger
	clock Clock
	rdb   *redis.Client // может быть nil, тогда кэш каталога выключен
	cfg   Config

	// base - контекст процесса, от него наследуются задачи таймлайнов.
	base context.Context

	mu        sync.Mutex
	pending   map[string]*pendingClaim
	timelines map[string]context.CancelFunc
}

func NewService(base context.Context, cal CalendarAPI, msg Messenger, rdb *redis.Client, clock Clock, cfg Config) *Service {
	if clock == nil {
		clock = SystemClock
	}
	return &Service{
		cal:       cal,
		msg:       msg,
		clock:     clock,
		rdb:       rdb,
		cfg:       cfg,
		base:      base,
		pending:   make(map[string]*pendingClaim),
		timelines: make(map[string]context.CancelFunc),
	}
}

// CreateAvailability вставляет в календарь нераскрытый блок доступности.
func (s *Service) CreateAvailability(ctx context.Context, start, end time.Time, timeZone string) (*models.CalendarEvent, error) {
	block := &models.CalendarEvent{
		Summary:  models.SummaryAvailability,
		Start:    start,
		End:      end,
		TimeZone: timeZone,
	}
	created, err := s.cal.Insert(ctx, block)
	if err != nil {
		return nil, err
	}
	s.invalidateCatalog(ctx)
	return created, nil
}

// PurgeCalendar удаляет все записи календаря и возвращает их метки.
// Модераторская операция для полной очистки.
func (s *Service) PurgeCalendar(ctx context.Context) ([]string, error) {
	events, err := s.cal.List(ctx, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}

	var deleted []string
	for _, ev := range events {
		if err := s.cal.Delete(ctx, ev.ID); err != nil {
			return deleted, err
		}
		deleted = append(deleted, ev.Summary)
	}
	s.invalidateCatalog(ctx)
	return deleted, nil
}

// cancelTimeline снимает задачу таймлайна рандеву, если она запущена.
func (s *Service) cancelTimeline(eventID string) {
	s.mu.Lock()
	cancel, ok := s.timelines[eventID]
	if ok {
		delete(s.timelines, eventID)
	}
	s.mu.Unlock()
	if ok {
		cancel()
	}
}
