package service

import (
	"context"
	"fmt"

	"github.com/AlekseyZapadovnikov/review-scheduler/internal/models"
)

// DirectoryRepository описывает простые чтения каталога для веб-слоя.
type DirectoryRepository interface {
	SearchReviewers(ctx context.Context, params models.GetReviewersSearchParams) ([]*models.Reviewer, error)
	FindReviewer(ctx context.Context, reviewerID string) (*models.Reviewer, error)
}

// DirectoryManager отдаёт записи каталога ревьюеров как есть, без политики выбора.
type DirectoryManager struct {
	repo DirectoryRepository
}

// NewDirectoryManager связывает менеджер каталога с хранилищем.
func NewDirectoryManager(repo DirectoryRepository) *DirectoryManager {
	return &DirectoryManager{repo: repo}
}

// Search выполняет нечёткий поиск по id, имени и телефону.
// Пустые параметры трактуются как «совпадает со всем», как и в каталоге.
func (dm *DirectoryManager) Search(ctx context.Context, params models.GetReviewersSearchParams) ([]*models.Reviewer, error) {
	reviewers, err := dm.repo.SearchReviewers(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("search reviewers: %w", err)
	}
	return reviewers, nil
}

// Get возвращает запись каталога по идентификатору.
func (dm *DirectoryManager) Get(ctx context.Context, reviewerID string) (*models.Reviewer, error) {
	reviewer, err := dm.repo.FindReviewer(ctx, reviewerID)
	if err != nil {
		return nil, err
	}
	return reviewer, nil
}
