// rendezvous-crm/models/user.go

package models

import "gorm.io/gorm"

// User определяет модель пользователя в базе данных.
type User struct {
	gorm.Model
	Login        string `json:"login" gorm:"unique;not null"`
	Email        string `json:"email" gorm:"unique;not null"`
	FullName     string `json:"fullName"`
	PasswordHash string `json:"-"`
	Status       string `json:"status" gorm:"type:varchar(50);default:'active'"`
	Roles        []Role `json:"roles" gorm:"many2many:user_roles;"`
}

// HasRole проверяет наличие роли по имени.
func (u *User) HasRole(name string) bool {
	for _, role := range u.Roles {
		if role.Name == name {
			return true
		}
	}
	return false
}
