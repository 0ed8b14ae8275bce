// rendezvous-crm/models/meeting.go

package models

import "gorm.io/gorm"

// MeetingState - состояние рандеву в жизненном цикле.
type MeetingState string

const (
	StateFree       MeetingState = "free"
	StateClaimed    MeetingState = "claimed"
	StateConfirmed  MeetingState = "confirmed"
	StateInProgress MeetingState = "in_progress"
	StateCompleted  MeetingState = "completed"
	StateCancelled  MeetingState = "cancelled"
)

// Terminal сообщает, является ли состояние конечным.
func (s MeetingState) Terminal() bool {
	return s == StateCompleted || s == StateCancelled
}

// Meeting - агрегат, над которым работает машина состояний: запись
// календаря плюс собранная анкета плюс привязанный канал. Агрегат живет
// только в памяти, долговременное состояние - сама запись календаря.
type Meeting struct {
	Event     *CalendarEvent
	State     MeetingState
	UserID    uint
	UserName  string
	ChannelID uint
	Info      FormAnswers
}

// FormAnswers - ответы анкеты, собранные перед подтверждением.
type FormAnswers struct {
	Subject     string `json:"sujet"`
	ChainName   string `json:"nom"`
	Medias      string `json:"medias"`
	Schedule    string `json:"horaires"`
	Description string `json:"description"`
}

// Empty сообщает, что анкета не заполнялась (клиент с ролью client
// подтверждает без анкеты).
func (a FormAnswers) Empty() bool {
	return a == FormAnswers{}
}

// MeetingInfo - побочная таблица со структурированными ответами анкеты.
// Источником правды остается календарь (описание дублируется в событии),
// таблица нужна отчетам, чтобы не парсить свободный текст обратно.
type MeetingInfo struct {
	gorm.Model
	EventID     string `json:"event_id" gorm:"uniqueIndex;not null"`
	UserID      uint   `json:"user_id"`
	User        User   `json:"user" gorm:"foreignKey:UserID"`
	ChannelID   uint   `json:"channel_id"`
	Subject     string `json:"subject"`
	ChainName   string `json:"chain_name"`
	Medias      string `json:"medias"`
	Schedule    string `json:"schedule"`
	Description string `json:"description" gorm:"type:text"`
}
