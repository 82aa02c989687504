package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/AlekseyZapadovnikov/review-scheduler/internal/models"
)

type searchResp struct {
	Reviewers []*models.Reviewer `json:"reviewers"`
}

// handleReviewerSearch выполняет нечёткий поиск по каталогу ревьюеров.
// Все параметры опциональны: пустой запрос вернёт всех доступных.
func (s *Server) handleReviewerSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	params := models.GetReviewersSearchParams{
		UserId: query.Get("user_id"),
		Name:   query.Get("name"),
		Phone:  query.Get("phone"),
	}
	if raw := query.Get("only_reviewer"); raw != "" {
		only, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_PARAM", "only_reviewer must be a boolean")
			return
		}
		params.OnlyReviewer = only
	}

	ctx := r.Context()
	reviewers, err := s.directoryService.Search(ctx, params)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	if reviewers == nil {
		reviewers = []*models.Reviewer{}
	}

	writeJSON(w, http.StatusOK, searchResp{Reviewers: reviewers})
}

type reviewerResp struct {
	Reviewer *models.Reviewer `json:"reviewer"`
}

// handleReviewerGet возвращает запись каталога по идентификатору.
func (s *Server) handleReviewerGet(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PARAM", "user_id is required")
		return
	}

	ctx := r.Context()
	reviewer, err := s.directoryService.Get(ctx, userID)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}

	writeJSON(w, http.StatusOK, reviewerResp{Reviewer: reviewer})
}

type setStatusResp struct {
	UserId string        `json:"user_id"`
	Status models.Status `json:"status"`
}

// handleSetStatus меняет статус занятости одного ревьюера.
func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	var p models.PostReviewersSetStatusJSONBody
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_PAYLOAD", "invalid json payload")
		return
	}
	if p.UserId == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PARAM", "user_id is required")
		return
	}

	ctx := r.Context()
	if err := s.lifecycleService.SetStatus(ctx, p.UserId, p.Status); err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}

	writeJSON(w, http.StatusOK, setStatusResp{UserId: p.UserId, Status: p.Status})
}

type resetStatusResp struct {
	Affected int64 `json:"affected"`
}

// handleResetStatus запускает сброс протухших статусов вручную.
func (s *Server) handleResetStatus(w http.ResponseWriter, r *http.Request) {
	var p models.PostReviewersResetStatusJSONBody
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_PAYLOAD", "invalid json payload")
		return
	}

	ctx := r.Context()
	affected, err := s.lifecycleService.ResetStaleStatus(ctx, p.Days)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}

	writeJSON(w, http.StatusOK, resetStatusResp{Affected: affected})
}
