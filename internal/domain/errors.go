package domain

import (
	"errors"
	"fmt"
)

// Сентинельные ошибки домена, используемые сервисами, репозиторием и веб-слоем.
var (
	ErrValidation = errors.New("VALIDATION")
	ErrNotFound   = errors.New("NOT_FOUND")
	ErrNoReviewer = errors.New("NO_REVIEWER")
)

// NewValidationError сообщает, что вызывающая сторона передала некорректный аргумент.
// Ошибка возвращается до обращения к каталогу: состояние не изменяется частично.
func NewValidationError(detail string) error {
	return fmt.Errorf("%w: %s", ErrValidation, detail)
}

// NewNotFoundError возвращает ошибку отсутствия переданного ресурса.
func NewNotFoundError(resource string) error {
	return fmt.Errorf("%w: %s not found", ErrNotFound, resource)
}

// NewNoReviewerError сообщает, что среди допущенных ревьюеров не осталось кандидатов.
func NewNoReviewerError() error {
	return fmt.Errorf("%w: no reviewer available", ErrNoReviewer)
}
