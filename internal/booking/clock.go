// rendezvous-crm/internal/booking/clock.go

package booking

import "time"

// Clock абстрагирует время, чтобы гварды машины состояний и ожидания
// таймлайна можно было проверять на симулированных часах.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// SystemClock - часы по умолчанию.
var SystemClock Clock = systemClock{}
