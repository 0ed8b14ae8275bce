// rendezvous-crm/config/database.go

package config

import (
	"log/slog"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"rendezvous-crm/models"
)

var DB *gorm.DB

func ConnectDB() {
	dsn := os.Getenv("DB_URL")
	if dsn == "" {
		slog.Error("Критическая ошибка: переменная окружения DB_URL не установлена.")
		os.Exit(1) // Завершаем работу приложения
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		// Логируем ошибку с деталями
		slog.Error("Ошибка подключения к БД", "error", err)
		os.Exit(1)
	}

	DB = db
	slog.Info("Успешное подключение к базе данных!")
}

// MigrateDB накатывает схему. Календарь остается единственным источником
// правды о статусах créneaux, в Postgres живут только пользователи, каналы
// и побочная таблица с ответами анкеты.
func MigrateDB() {
	err := DB.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.Channel{},
		&models.ChannelMessage{},
		&models.ChannelAudit{},
		&models.MeetingInfo{},
	)
	if err != nil {
		slog.Error("Ошибка миграции схемы БД", "error", err)
		os.Exit(1)
	}
}
