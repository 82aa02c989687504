package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AlekseyZapadovnikov/review-scheduler/internal/domain"
	"github.com/AlekseyZapadovnikov/review-scheduler/internal/models"
)

// StatusRepository описывает операции каталога, нужные управлению статусами.
type StatusRepository interface {
	ContainsReviewer(ctx context.Context, reviewerID string, onlyReviewer bool) (bool, error)
	UpdateStatus(ctx context.Context, reviewerID string, status models.Status, changedAt time.Time) error
	BulkResetStatus(ctx context.Context, timeoutDays int) (int64, error)
}

// LifecycleManager управляет ручными переходами статусов и сбросом протухших.
type LifecycleManager struct {
	repo StatusRepository
	// now подменяется в тестах.
	now func() time.Time
}

// NewLifecycleManager связывает менеджер статусов с каталогом ревьюеров.
func NewLifecycleManager(repo StatusRepository) *LifecycleManager {
	return &LifecycleManager{
		repo: repo,
		now:  time.Now,
	}
}

// SetStatus устанавливает статус занятости одного ревьюера.
// Проверка существования идёт по доступности записи без фильтра по роли:
// статус можно выставить любому доступному пользователю каталога.
func (lm *LifecycleManager) SetStatus(ctx context.Context, reviewerID string, status models.Status) error {
	if reviewerID == "" {
		return domain.NewValidationError("user_id is required")
	}
	if !status.IsStorable() {
		return domain.NewValidationError(fmt.Sprintf("status must be 0, 1 or 2, got %d", status))
	}

	exists, err := lm.repo.ContainsReviewer(ctx, reviewerID, false)
	if err != nil {
		return fmt.Errorf("check reviewer %s: %w", reviewerID, err)
	}
	if !exists {
		return domain.NewNotFoundError(fmt.Sprintf("reviewer %s", reviewerID))
	}

	if err := lm.repo.UpdateStatus(ctx, reviewerID, status, lm.now()); err != nil {
		return fmt.Errorf("set status for %s: %w", reviewerID, err)
	}
	return nil
}

// ResetStaleStatus сбрасывает в Idle статусы, не обновлявшиеся timeoutDays
// календарных дней, и возвращает число затронутых ревьюеров.
// Операция идемпотентна: отсутствие протухших статусов не является ошибкой.
func (lm *LifecycleManager) ResetStaleStatus(ctx context.Context, timeoutDays int) (int64, error) {
	if timeoutDays < 0 {
		return 0, domain.NewValidationError(fmt.Sprintf("days must be >= 0, got %d", timeoutDays))
	}

	affected, err := lm.repo.BulkResetStatus(ctx, timeoutDays)
	if err != nil {
		return 0, fmt.Errorf("reset stale statuses: %w", err)
	}
	return affected, nil
}

// RunSweep периодически сбрасывает протухшие статусы, пока не отменён контекст.
// Занятый статус работает как мягкая аренда: не продлили — истекает.
func (lm *LifecycleManager) RunSweep(ctx context.Context, interval time.Duration, timeoutDays int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			affected, err := lm.ResetStaleStatus(ctx, timeoutDays)
			if err != nil {
				slog.Error("status sweep failed", "error", err)
				continue
			}
			if affected > 0 {
				slog.Info("stale statuses reset", "affected", affected, "timeout_days", timeoutDays)
			}
		}
	}
}
