package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/AlekseyZapadovnikov/review-scheduler/internal/domain"
	"github.com/AlekseyZapadovnikov/review-scheduler/internal/models"
)

// ReviewerRepository описывает чтения каталога, нужные планировщику.
type ReviewerRepository interface {
	ListEligibleWorkloads(ctx context.Context) ([]*models.ReviewerLoad, error)
	LatestHistoryRecord(ctx context.Context) (*models.HistoryRecord, error)
	CountAssignmentsStartedAfter(ctx context.Context, t time.Time) (int, error)
}

// SchedulerManager строит снимок нагрузки и выдаёт следующих ревьюеров.
type SchedulerManager struct {
	repo ReviewerRepository
}

// NewSchedulerManager связывает планировщик с каталогом ревьюеров.
func NewSchedulerManager(repo ReviewerRepository) *SchedulerManager {
	return &SchedulerManager{repo: repo}
}

// BuildSnapshot собирает снимок нагрузки по допущенным ревьюерам:
// число активных назначений, разница страниц с наименее загруженным и
// эффективный статус с учётом анти-повтора. Результат отсортирован
// стабильно по (current, pages_diff); при равных ключах сохраняется
// порядок перечисления каталога.
func (sm *SchedulerManager) BuildSnapshot(ctx context.Context) ([]models.ReviewerWorkload, error) {
	loads, err := sm.repo.ListEligibleWorkloads(ctx)
	if err != nil {
		return nil, fmt.Errorf("list eligible workloads: %w", err)
	}
	if len(loads) == 0 {
		return []models.ReviewerWorkload{}, nil
	}

	antiRepeatID, err := sm.antiRepeatReviewer(ctx)
	if err != nil {
		return nil, err
	}

	minPages := loads[0].Pages
	for _, load := range loads[1:] {
		if load.Pages < minPages {
			minPages = load.Pages
		}
	}

	snapshot := make([]models.ReviewerWorkload, 0, len(loads))
	for _, load := range loads {
		effective := load.Status
		if load.Id == antiRepeatID {
			effective = models.StatusAntiRepeat
		}
		snapshot = append(snapshot, models.ReviewerWorkload{
			Id:              load.Id,
			Name:            load.Name,
			Phone:           load.Phone,
			Role:            load.Role,
			EffectiveStatus: effective,
			PagesDiff:       load.Pages - minPages,
			Current:         load.Current,
		})
	}

	sort.SliceStable(snapshot, func(i, j int) bool {
		if snapshot[i].Current != snapshot[j].Current {
			return snapshot[i].Current < snapshot[j].Current
		}
		return snapshot[i].PagesDiff < snapshot[j].PagesDiff
	})

	return snapshot, nil
}

// antiRepeatReviewer возвращает id ревьюера, завершившего работу последним,
// если после этого завершения не стартовало ни одного назначения.
// Пустая строка означает, что анти-повтор сейчас не действует.
func (sm *SchedulerManager) antiRepeatReviewer(ctx context.Context) (string, error) {
	latest, err := sm.repo.LatestHistoryRecord(ctx)
	if err != nil {
		return "", fmt.Errorf("latest history record: %w", err)
	}
	if latest == nil {
		return "", nil
	}

	started, err := sm.repo.CountAssignmentsStartedAfter(ctx, latest.EndedAt)
	if err != nil {
		return "", fmt.Errorf("count assignments started after: %w", err)
	}
	if started > 0 {
		// Кто-то уже взял работу после последнего завершения — флаг снят.
		return "", nil
	}

	return latest.ReviewerId, nil
}

// Next выдаёт до count ревьюеров для новых назначений.
//
// Конвейер над снимком: исключение id из excludes, при urgent — стабильный
// подъём свободных (Idle) в начало, при hideBusy — скрытие перегруженных
// (VeryBusy) и только что завершившего работу (анти-повтор), затем усечение
// до count. Вызов только читает состояние: выбранные ревьюеры не
// резервируются, и конкурирующие вызовы могут получить одинаковый список.
// Атомарность «выбрать и назначить» остаётся на вызывающей стороне.
func (sm *SchedulerManager) Next(ctx context.Context, count int, excludes []string, urgent, hideBusy bool) ([]models.ReviewerWorkload, error) {
	if count < 0 {
		return nil, domain.NewValidationError(fmt.Sprintf("count must be >= 0, got %d", count))
	}

	snapshot, err := sm.BuildSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	picks := excludeWorkloads(snapshot, excludes)
	if urgent {
		picks = boostIdle(picks)
	}
	if hideBusy {
		picks = hideBusyWorkloads(picks)
	}

	if count < len(picks) {
		picks = picks[:count]
	}
	return picks, nil
}

// excludeWorkloads убирает из списка ревьюеров с id из excludes,
// сохраняя относительный порядок. Неизвестные id молча игнорируются.
func excludeWorkloads(list []models.ReviewerWorkload, excludes []string) []models.ReviewerWorkload {
	if len(excludes) == 0 {
		return list
	}

	excludeSet := make(map[string]struct{}, len(excludes))
	for _, id := range excludes {
		excludeSet[id] = struct{}{}
	}

	result := make([]models.ReviewerWorkload, 0, len(list))
	for _, w := range list {
		if _, skip := excludeSet[w.Id]; skip {
			continue
		}
		result = append(result, w)
	}
	return result
}

// boostIdle стабильно переставляет свободных (Idle) ревьюеров в начало списка;
// внутри обеих групп относительный порядок не меняется, никто не отбрасывается.
func boostIdle(list []models.ReviewerWorkload) []models.ReviewerWorkload {
	result := make([]models.ReviewerWorkload, 0, len(list))
	for _, w := range list {
		if w.EffectiveStatus == models.StatusIdle {
			result = append(result, w)
		}
	}
	for _, w := range list {
		if w.EffectiveStatus != models.StatusIdle {
			result = append(result, w)
		}
	}
	return result
}

// hideBusyWorkloads оставляет только ревьюеров со статусом Idle или Busy:
// перегруженные (VeryBusy) и помеченный анти-повтором выпадают из выдачи.
func hideBusyWorkloads(list []models.ReviewerWorkload) []models.ReviewerWorkload {
	result := make([]models.ReviewerWorkload, 0, len(list))
	for _, w := range list {
		if w.EffectiveStatus == models.StatusIdle || w.EffectiveStatus == models.StatusBusy {
			result = append(result, w)
		}
	}
	return result
}
