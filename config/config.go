// rendezvous-crm/config/config.go
package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// JwtKey - ключ для подписи JWT токенов. Загружается из окружения.
var JwtKey []byte

// Параметры нарезки блоков доступности на créneaux.
// Длительность créneau меньше шага, чтобы между двумя подряд идущими
// рандеву оставалась пауза.
var (
	SlotDuration = 30 * time.Minute
	SlotStride   = 40 * time.Minute
)

// Тайм-боксы воркфлоу подтверждения.
var (
	FormTimeout    = 2 * time.Minute
	ConfirmTimeout = 60 * time.Second
)

// CatalogWindow - горизонт, в котором предлагаются créneaux и в котором
// при рестарте ищутся "живые" рандеву.
var CatalogWindow = 7 * 24 * time.Hour

// ReminderLead - за сколько до начала рандеву отправляется напоминание.
var ReminderLead = 10 * time.Minute

// Имена ролей в базе. Роль client выдается после первого рандеву.
const (
	ClientRole     = "client"
	ModerationRole = "moderation"
)

// Load читает настройки из переменных окружения. Обязательные переменные
// проверяются в своих Connect*/Init* функциях, здесь только опциональные
// переопределения.
func Load() {
	key := os.Getenv("JWT_SECRET")
	if key == "" {
		slog.Error("Критическая ошибка: переменная окружения JWT_SECRET не установлена.")
		os.Exit(1)
	}
	JwtKey = []byte(key)

	if v := envMinutes("SLOT_DURATION_MIN"); v > 0 {
		SlotDuration = v
	}
	if v := envMinutes("SLOT_STRIDE_MIN"); v > 0 {
		SlotStride = v
	}
	if SlotStride < SlotDuration {
		slog.Warn("SLOT_STRIDE_MIN меньше SLOT_DURATION_MIN, créneaux будут пересекаться",
			"duration", SlotDuration, "stride", SlotStride)
	}
	if v := envSeconds("FORM_TIMEOUT_SEC"); v > 0 {
		FormTimeout = v
	}
	if v := envSeconds("CONFIRM_TIMEOUT_SEC"); v > 0 {
		ConfirmTimeout = v
	}

	slog.Info("Configuration loaded",
		"slot_duration", SlotDuration,
		"slot_stride", SlotStride,
		"form_timeout", FormTimeout,
		"confirm_timeout", ConfirmTimeout)
}

func envMinutes(name string) time.Duration {
	n, _ := strconv.Atoi(os.Getenv(name))
	return time.Duration(n) * time.Minute
}

func envSeconds(name string) time.Duration {
	n, _ := strconv.Atoi(os.Getenv(name))
	return time.Duration(n) * time.Second
}
