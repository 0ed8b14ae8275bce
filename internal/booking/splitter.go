// rendezvous-crm/internal/booking/splitter.go

package booking

import (
	"context"
	"log/slog"
	"time"

	"rendezvous-crm/models"
)

// SplitAvailability нарезает блок доступности на свободные créneaux.
// Курсор стартует в начале блока, créneau длительности d эмитится, пока
// его конец не выходит за конец блока, после чего курсор сдвигается на
// шаг s. При s > d между соседними créneaux остается пауза.
// Чистая функция: записи не вставляются и не удаляются.
func SplitAvailability(block *models.CalendarEvent, d, s time.Duration) []*models.CalendarEvent {
	var slots []*models.CalendarEvent
	for start := block.Start; !start.Add(d).After(block.End); start = start.Add(s) {
		slots = append(slots, &models.CalendarEvent{
			Summary:  models.SummaryFreeSlot,
			Start:    start,
			End:      start.Add(d),
			TimeZone: block.TimeZone,
		})
	}
	return slots
}

// ExpandAvailability материализует нарезку: каждый créneau вставляется
// в календарь отдельной записью, затем исходный блок удаляется.
// Операция не идемпотентна и защищена от повторного раскрытия только
// удалением источника. Частичный отказ (вставили не все, или не смогли
// удалить источник) возвращается как PartialExpansionError и требует
// ручной сверки - автоматической компенсации нет.
func (s *Service) ExpandAvailability(ctx context.Context, block *models.CalendarEvent) ([]*models.CalendarEvent, error) {
	var inserted []*models.CalendarEvent
	var insertedIDs []string

	for _, slot := range SplitAvailability(block, s.cfg.SlotDuration, s.cfg.SlotStride) {
		created, err := s.cal.Insert(ctx, slot)
		if err != nil {
			expErr := &PartialExpansionError{
				BlockID:   block.ID,
				Inserted:  insertedIDs,
				InsertErr: err,
			}
			slog.Error("Availability expansion failed midway, manual reconciliation required",
				"block_id", block.ID, "inserted", len(insertedIDs), "error", err)
			return inserted, expErr
		}
		inserted = append(inserted, created)
		insertedIDs = append(insertedIDs, created.ID)
	}

	if err := s.cal.Delete(ctx, block.ID); err != nil {
		expErr := &PartialExpansionError{
			BlockID:   block.ID,
			Inserted:  insertedIDs,
			DeleteErr: err,
		}
		slog.Error("Availability block not deleted after expansion, duplicate slots possible",
			"block_id", block.ID, "inserted", len(insertedIDs), "error", err)
		return inserted, expErr
	}

	return inserted, nil
}
