// rendezvous-crm/config/redis.go
package config

import (
	"context"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"
)

// Redis не обязателен: без него каталог créneaux и данные пользователей
// читаются напрямую из календаря и БД при каждом запросе.
var RDB *redis.Client
var Ctx = context.Background()

func ConnectRedis() {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		slog.Warn("REDIS_ADDR не задан, кэширование отключено")
		return
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if _, err := client.Ping(Ctx).Result(); err != nil {
		// Живем дальше без кэша, RDB остается nil
		slog.Error("Redis недоступен, продолжаем без кэша", "addr", addr, "error", err)
		return
	}

	RDB = client
	slog.Info("Redis connected", "addr", addr)
}
