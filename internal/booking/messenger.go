// rendezvous-crm/internal/booking/messenger.go

package booking

import (
	"context"

	"rendezvous-crm/models"
)

// Messenger - потребляемый ядром интерфейс платформы общения.
// Реализация живет в internal/handlers (websocket-хаб поверх Postgres);
// ядру важны только операции, без транспорта.
//
// ActiveChannelOf/ArchivedChannelOf возвращают (nil, nil), если канала нет.
type Messenger interface {
	SendMessage(ctx context.Context, channelID uint, text string) error
	CreateChannel(ctx context.Context, user *models.User) (*models.Channel, error)
	ActiveChannelOf(ctx context.Context, userID uint) (*models.Channel, error)
	ArchivedChannelOf(ctx context.Context, userID uint) (*models.Channel, error)
	ReactivateChannel(ctx context.Context, ch *models.Channel) error
	ArchiveChannel(ctx context.Context, ch *models.Channel) error
	RevokeAccess(ctx context.Context, ch *models.Channel) error
	GrantRole(ctx context.Context, login, role string) error
	SetRebookEnabled(ctx context.Context, channelID uint, enabled bool) error
	PinControlMessage(ctx context.Context, ch *models.Channel, text string) error
	LogClosure(ctx context.Context, audit models.ChannelAudit) error
}
