// rendezvous-crm/internal/booking/catalog.go

package booking

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"rendezvous-crm/models"
)

const (
	catalogCacheKey = "booking:catalog"
	catalogCacheTTL = 20 * time.Second
)

// ListOfferableSlots строит каталог предлагаемых créneaux в окне
// [now, now+Window), сгруппированных по дню недели. Блоки доступности
// раскрываются на лету, уже захваченные и подтвержденные записи
// исключаются. Пустая карта означает "нет доступных créneaux" - вызывающий
// обязан отрисовать это отдельным исходом.
func (s *Service) ListOfferableSlots(ctx context.Context, now time.Time) (map[string][]models.Slot, error) {
	if cached, ok := s.cachedCatalog(ctx); ok {
		// Кэш живет до catalogCacheTTL, ближайший créneau мог успеть
		// начаться - отфильтровываем заново
		return filterCatalog(cached, now), nil
	}

	events, err := s.cal.List(ctx, now, now.Add(s.cfg.Window))
	if err != nil {
		return nil, err
	}

	catalog := make(map[string][]models.Slot)
	add := func(ev *models.CalendarEvent) {
		if !ev.Start.After(now) {
			return
		}
		slot := models.SlotOf(ev)
		catalog[slot.Day] = append(catalog[slot.Day], slot)
	}

	for _, ev := range events {
		switch ev.Summary {
		case models.SummaryAvailability:
			slots, err := s.ExpandAvailability(ctx, ev)
			if err != nil {
				// Частичное раскрытие уже залогировано, вставленные
				// créneaux все равно предлагаем
				var expErr *PartialExpansionError
				if !errors.As(err, &expErr) {
					return nil, err
				}
			}
			for _, slot := range slots {
				add(slot)
			}
		case models.SummaryFreeSlot:
			add(ev)
		default:
			// захваченные и подтвержденные записи не предлагаются
		}
	}

	for _, slots := range catalog {
		sort.Slice(slots, func(i, j int) bool { return slots[i].Start.Before(slots[j].Start) })
	}

	s.storeCatalog(ctx, catalog)
	return catalog, nil
}

// filterCatalog отбрасывает créneaux, начало которых уже не в будущем.
// Дни, оставшиеся без créneaux, из карты исчезают.
func filterCatalog(catalog map[string][]models.Slot, now time.Time) map[string][]models.Slot {
	out := make(map[string][]models.Slot, len(catalog))
	for day, slots := range catalog {
		var keep []models.Slot
		for _, slot := range slots {
			if slot.Start.After(now) {
				keep = append(keep, slot)
			}
		}
		if len(keep) > 0 {
			out[day] = keep
		}
	}
	return out
}

func (s *Service) cachedCatalog(ctx context.Context) (map[string][]models.Slot, bool) {
	if s.rdb == nil {
		return nil, false
	}
	raw, err := s.rdb.Get(ctx, catalogCacheKey).Result()
	if err != nil {
		if err != redis.Nil {
			slog.Error("Redis GET command failed", "key", catalogCacheKey, "error", err)
		}
		return nil, false
	}
	var catalog map[string][]models.Slot
	if err := json.Unmarshal([]byte(raw), &catalog); err != nil {
		slog.Warn("Failed to unmarshal cached catalog", "error", err)
		return nil, false
	}
	return catalog, true
}

func (s *Service) storeCatalog(ctx context.Context, catalog map[string][]models.Slot) {
	if s.rdb == nil {
		return
	}
	raw, err := json.Marshal(catalog)
	if err != nil {
		slog.Error("Failed to marshal catalog for caching", "error", err)
		return
	}
	if err := s.rdb.Set(ctx, catalogCacheKey, raw, catalogCacheTTL).Err(); err != nil {
		slog.Error("Failed to SET catalog cache", "error", err)
	}
}

func (s *Service) invalidateCatalog(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, catalogCacheKey).Err(); err != nil {
		slog.Error("Failed to invalidate catalog cache", "error", err)
	}
}
