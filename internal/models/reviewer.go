package models

import "time"

// Role описывает роль пользователя в каталоге ревьюеров.
type Role int

// Возможные значения Role.
const (
	RoleOrdinary Role = 0
	RoleReviewer Role = 1
)

// Status описывает хранимый статус занятости ревьюера.
type Status int

// Возможные значения Status.
const (
	StatusIdle     Status = 0
	StatusBusy     Status = 1
	StatusVeryBusy Status = 2

	// StatusAntiRepeat — вычисляемое значение эффективного статуса:
	// помечает ревьюера, который завершил работу последним, при условии,
	// что после этого никто не брал новых назначений. В таблицу никогда
	// не записывается.
	StatusAntiRepeat Status = -1
)

// IsStorable сообщает, допустимо ли записывать статус в каталог.
func (s Status) IsStorable() bool {
	return s == StatusIdle || s == StatusBusy || s == StatusVeryBusy
}

// Reviewer описывает запись каталога ревьюеров.
type Reviewer struct {
	Id          string    `json:"id"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	Role        Role      `json:"role"`
	Available   bool      `json:"available"`
	Status      Status    `json:"status"`
	StatusSince time.Time `json:"status_since"`
	// Pages — текущий объём страниц у ревьюера; поддерживается внешней системой.
	Pages int `json:"pages"`
}

// ReviewerLoad задаёт строку каталога с присоединённым числом активных назначений.
type ReviewerLoad struct {
	Id      string `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Role    Role   `json:"role"`
	Status  Status `json:"status"`
	Pages   int    `json:"pages"`
	Current int    `json:"current"`
}

// HistoryRecord описывает запись журнала завершённых назначений.
type HistoryRecord struct {
	Id         int64     `json:"id"`
	ReviewerId string    `json:"reviewer_id"`
	EndedAt    time.Time `json:"ended_at"`
}

// ReviewerIdQuery задаёт тип идентификатора ревьюера.
type ReviewerIdQuery = string

// GetReviewersSearchParams описывает параметры запроса нечёткого поиска.
type GetReviewersSearchParams struct {
	// UserId Идентификатор ревьюера (подстрока)
	UserId ReviewerIdQuery `form:"user_id" json:"user_id"`
	Name   string          `form:"name" json:"name"`
	Phone  string          `form:"phone" json:"phone"`
	// OnlyReviewer — искать только среди записей с ролью «ревьюер».
	OnlyReviewer bool `form:"only_reviewer" json:"only_reviewer"`
}

// PostReviewersSetStatusJSONBody описывает тело запроса смены статуса.
type PostReviewersSetStatusJSONBody struct {
	UserId string `json:"user_id"`
	Status Status `json:"status"`
}

// PostReviewersResetStatusJSONBody описывает тело запроса сброса протухших статусов.
type PostReviewersResetStatusJSONBody struct {
	Days int `json:"days"`
}
