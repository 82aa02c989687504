package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/AlekseyZapadovnikov/review-scheduler/internal/models"
)

type scheduleNextResp struct {
	Reviewers []models.ReviewerWorkload `json:"reviewers"`
}

// handleScheduleNext выдаёт следующих ревьюеров для новых назначений.
//
// Параметры: count (по умолчанию 1), excludes — id через запятую,
// urgent (по умолчанию false), hide_busy (по умолчанию true).
func (s *Server) handleScheduleNext(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	count := 1
	if raw := query.Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_PARAM", "count must be an integer")
			return
		}
		count = n
	}

	var excludes []string
	if raw := query.Get("excludes"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				excludes = append(excludes, id)
			}
		}
	}

	urgent := false
	if raw := query.Get("urgent"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_PARAM", "urgent must be a boolean")
			return
		}
		urgent = v
	}

	hideBusy := true
	if raw := query.Get("hide_busy"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_PARAM", "hide_busy must be a boolean")
			return
		}
		hideBusy = v
	}

	ctx := r.Context()
	picks, err := s.schedulerService.Next(ctx, count, excludes, urgent, hideBusy)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	if picks == nil {
		picks = []models.ReviewerWorkload{}
	}

	writeJSON(w, http.StatusOK, scheduleNextResp{Reviewers: picks})
}
