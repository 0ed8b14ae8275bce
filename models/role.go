package models

// Role определяет модель роли в базе данных.
// Ролей две: client (выдается в момент начала первого рандеву)
// и moderation (доступ к модераторским маршрутам).
type Role struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"unique;not null"`
	Description string `json:"description"`
}
