// rendezvous-crm/internal/booking/errors.go

package booking

import (
	"errors"
	"fmt"
)

// Ошибки бронирования. Ни одна из них не фатальна для процесса:
// худший случай - зависшая или задвоенная запись в календаре.
var (
	// ErrSlotUnavailable - проверка перед захватом не прошла, créneau уже
	// занят. Восстановимо: пользователю предлагается выбрать другой.
	ErrSlotUnavailable = errors.New("créneau is no longer available")

	// ErrAlreadyBooked - у пользователя уже есть открытый rdv-канал,
	// новый захват запрещен бизнес-правилом еще до каталога.
	ErrAlreadyBooked = errors.New("user already has an open rendez-vous")

	// ErrUnknownClaim - для события нет ожидающего захвата (истек или
	// уже разрешен).
	ErrUnknownClaim = errors.New("no pending claim for this event")

	// ErrNotClaimOwner - попытка завершить чужой захват.
	ErrNotClaimOwner = errors.New("claim belongs to another user")
)

// PartialExpansionError - раскрытие блока доступности прошло не до конца:
// часть créneaux вставлена, но исходный блок не удален (или вставка
// оборвалась на середине). Автоматически не чинится - риск фантомных или
// задвоенных créneaux, нужна ручная сверка календаря.
type PartialExpansionError struct {
	BlockID   string
	Inserted  []string // ID успешно вставленных créneaux
	InsertErr error
	DeleteErr error
}

func (e *PartialExpansionError) Error() string {
	if e.DeleteErr != nil {
		return fmt.Sprintf("availability block %s: %d slots inserted but source not deleted: %v",
			e.BlockID, len(e.Inserted), e.DeleteErr)
	}
	return fmt.Sprintf("availability block %s: expansion stopped after %d slots: %v",
		e.BlockID, len(e.Inserted), e.InsertErr)
}

func (e *PartialExpansionError) Unwrap() error {
	if e.InsertErr != nil {
		return e.InsertErr
	}
	return e.DeleteErr
}
