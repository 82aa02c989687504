package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/AlekseyZapadovnikov/review-scheduler/internal/domain"
	"github.com/AlekseyZapadovnikov/review-scheduler/internal/models"
)

// ListEligibleWorkloads возвращает допущенных к выбору ревьюеров
// (available = true, role = 1) вместе с числом их активных назначений.
// Порядок перечисления фиксирован по id: стабильная сортировка в сервисе
// опирается на него при равных ключах.
func (s *Storage) ListEligibleWorkloads(ctx context.Context) ([]*models.ReviewerLoad, error) {
	const q = `
SELECT r.id, r.name, r.phone, r.role, r.status, r.pages,
       COALESCE(c.current, 0) AS current
FROM reviewers r
LEFT JOIN (
        SELECT reviewer_id, COUNT(1) AS current
        FROM active_assignments
        GROUP BY reviewer_id
    ) AS c ON r.id = c.reviewer_id
WHERE r.available = true AND r.role = 1
ORDER BY r.id
`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query eligible workloads: %w", err)
	}
	defer rows.Close()

	var result []*models.ReviewerLoad
	for rows.Next() {
		var (
			id      string
			name    string
			phone   string
			role    int
			status  int
			pages   int
			current int
		)
		if err := rows.Scan(&id, &name, &phone, &role, &status, &pages, &current); err != nil {
			return nil, fmt.Errorf("scan eligible workloads: %w", err)
		}
		result = append(result, &models.ReviewerLoad{
			Id:      id,
			Name:    name,
			Phone:   phone,
			Role:    models.Role(role),
			Status:  models.Status(status),
			Pages:   pages,
			Current: current,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows eligible workloads: %w", err)
	}

	return result, nil
}

// LatestHistoryRecord возвращает последнюю запись журнала завершённых
// назначений либо nil, если журнал пуст.
func (s *Storage) LatestHistoryRecord(ctx context.Context) (*models.HistoryRecord, error) {
	const q = `
SELECT id, reviewer_id, ended_at
FROM history
ORDER BY id DESC
LIMIT 1
`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query latest history: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		// Журнал пуст — анти-повтор не действует.
		return nil, nil
	}

	var (
		id         int64
		reviewerID string
		endedAt    time.Time
	)
	if err := rows.Scan(&id, &reviewerID, &endedAt); err != nil {
		return nil, fmt.Errorf("scan latest history: %w", err)
	}

	return &models.HistoryRecord{
		Id:         id,
		ReviewerId: reviewerID,
		EndedAt:    endedAt,
	}, nil
}

// CountAssignmentsStartedAfter считает активные назначения, начатые строго
// позже переданного момента. Назначения с пустым reviewer_id не учитываются.
func (s *Storage) CountAssignmentsStartedAfter(ctx context.Context, t time.Time) (int, error) {
	const q = `
SELECT COUNT(1)
FROM active_assignments
WHERE started_at > $1 AND reviewer_id <> ''
`
	rows, err := s.pool.Query(ctx, q, t)
	if err != nil {
		return 0, fmt.Errorf("query assignments started after: %w", err)
	}
	defer rows.Close()

	var count int
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, fmt.Errorf("scan assignments started after: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("rows assignments started after: %w", err)
	}

	return count, nil
}

// SearchReviewers выполняет нечёткий поиск по id, имени и телефону среди
// доступных записей; при onlyReviewer ограничивается ролью «ревьюер».
func (s *Storage) SearchReviewers(ctx context.Context, params models.GetReviewersSearchParams) ([]*models.Reviewer, error) {
	q := `
SELECT id, name, phone, role, available, status, status_since, pages
FROM reviewers
WHERE available = true AND id ILIKE $1 AND name ILIKE $2 AND phone ILIKE $3
`
	if params.OnlyReviewer {
		q += ` AND role = 1`
	}
	q += ` ORDER BY id`

	rows, err := s.pool.Query(ctx, q,
		"%"+params.UserId+"%",
		"%"+params.Name+"%",
		"%"+params.Phone+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("query search reviewers: %w", err)
	}
	defer rows.Close()

	var result []*models.Reviewer
	for rows.Next() {
		r, err := scanReviewer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan search reviewers: %w", err)
		}
		result = append(result, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows search reviewers: %w", err)
	}

	return result, nil
}

// FindReviewer возвращает запись каталога по идентификатору.
func (s *Storage) FindReviewer(ctx context.Context, reviewerID string) (*models.Reviewer, error) {
	const q = `
SELECT id, name, phone, role, available, status, status_since, pages
FROM reviewers
WHERE id = $1
`
	rows, err := s.pool.Query(ctx, q, reviewerID)
	if err != nil {
		return nil, fmt.Errorf("query FindReviewer: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, domain.NewNotFoundError(fmt.Sprintf("reviewer %s", reviewerID))
	}

	r, err := scanReviewer(rows)
	if err != nil {
		return nil, fmt.Errorf("scan FindReviewer: %w", err)
	}
	return r, nil
}

// ContainsReviewer проверяет, существует ли доступная запись с данным id.
// Типизированный ответ позволяет отличать «не найден» от «найден, но не подходит».
func (s *Storage) ContainsReviewer(ctx context.Context, reviewerID string, onlyReviewer bool) (bool, error) {
	q := `SELECT 1 FROM reviewers WHERE available = true AND id = $1`
	if onlyReviewer {
		q += ` AND role = 1`
	}

	rows, err := s.pool.Query(ctx, q, reviewerID)
	if err != nil {
		return false, fmt.Errorf("query ContainsReviewer: %w", err)
	}
	defer rows.Close()

	found := rows.Next()
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("rows ContainsReviewer: %w", err)
	}

	return found, nil
}

// UpdateStatus записывает новый статус и момент его смены для одного ревьюера.
func (s *Storage) UpdateStatus(ctx context.Context, reviewerID string, status models.Status, changedAt time.Time) error {
	const q = `
UPDATE reviewers
SET status = $2, status_since = $3
WHERE id = $1
`
	if _, err := s.pool.Exec(ctx, q, reviewerID, int(status), changedAt); err != nil {
		return fmt.Errorf("update status for %s: %w", reviewerID, err)
	}
	return nil
}

// BulkResetStatus сбрасывает в Idle все занятые статусы, не обновлявшиеся
// заданное число календарных дней, и возвращает число затронутых записей.
func (s *Storage) BulkResetStatus(ctx context.Context, timeoutDays int) (int64, error) {
	const q = `
UPDATE reviewers
SET status = 0, status_since = NOW()
WHERE status <> 0 AND (CURRENT_DATE - status_since::date) >= $1
`
	tag, err := s.pool.Exec(ctx, q, timeoutDays)
	if err != nil {
		return 0, fmt.Errorf("bulk reset status: %w", err)
	}
	return tag.RowsAffected(), nil
}

// rowScanner покрывает pgx.Rows в объёме, нужном scanReviewer.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanReviewer читает одну строку таблицы reviewers в модель.
func scanReviewer(row rowScanner) (*models.Reviewer, error) {
	var (
		id          string
		name        string
		phone       string
		role        int
		available   bool
		status      int
		statusSince time.Time
		pages       int
	)
	if err := row.Scan(&id, &name, &phone, &role, &available, &status, &statusSince, &pages); err != nil {
		return nil, err
	}

	return &models.Reviewer{
		Id:          id,
		Name:        name,
		Phone:       phone,
		Role:        models.Role(role),
		Available:   available,
		Status:      models.Status(status),
		StatusSince: statusSince,
		Pages:       pages,
	}, nil
}
