package web

import (
	"context"

	"github.com/AlekseyZapadovnikov/review-scheduler/internal/models"
)

// SchedulerService описывает операции планировщика, которые нужны HTTP-слою.
type SchedulerService interface {
	Next(ctx context.Context, count int, excludes []string, urgent, hideBusy bool) ([]models.ReviewerWorkload, error)
}

// DirectoryService описывает простые запросы к каталогу ревьюеров.
type DirectoryService interface {
	Search(ctx context.Context, params models.GetReviewersSearchParams) ([]*models.Reviewer, error)
	Get(ctx context.Context, reviewerID string) (*models.Reviewer, error)
}

// LifecycleService описывает управление статусами занятости.
type LifecycleService interface {
	SetStatus(ctx context.Context, reviewerID string, status models.Status) error
	ResetStaleStatus(ctx context.Context, timeoutDays int) (int64, error)
}
