package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AlekseyZapadovnikov/review-scheduler/conf"
	"github.com/AlekseyZapadovnikov/review-scheduler/internal/domain"
	"github.com/AlekseyZapadovnikov/review-scheduler/internal/models"
)

type fakeSchedulerService struct {
	nextFn func(ctx context.Context, count int, excludes []string, urgent, hideBusy bool) ([]models.ReviewerWorkload, error)
}

func (f *fakeSchedulerService) Next(ctx context.Context, count int, excludes []string, urgent, hideBusy bool) ([]models.ReviewerWorkload, error) {
	if f == nil || f.nextFn == nil {
		return nil, nil
	}
	return f.nextFn(ctx, count, excludes, urgent, hideBusy)
}

type fakeDirectoryService struct {
	searchFn func(ctx context.Context, params models.GetReviewersSearchParams) ([]*models.Reviewer, error)
	getFn    func(ctx context.Context, reviewerID string) (*models.Reviewer, error)
}

func (f *fakeDirectoryService) Search(ctx context.Context, params models.GetReviewersSearchParams) ([]*models.Reviewer, error) {
	if f == nil || f.searchFn == nil {
		return nil, nil
	}
	return f.searchFn(ctx, params)
}

func (f *fakeDirectoryService) Get(ctx context.Context, reviewerID string) (*models.Reviewer, error) {
	if f == nil || f.getFn == nil {
		return nil, domain.NewNotFoundError("reviewer")
	}
	return f.getFn(ctx, reviewerID)
}

type fakeLifecycleService struct {
	setStatusFn        func(ctx context.Context, reviewerID string, status models.Status) error
	resetStaleStatusFn func(ctx context.Context, timeoutDays int) (int64, error)
}

func (f *fakeLifecycleService) SetStatus(ctx context.Context, reviewerID string, status models.Status) error {
	if f == nil || f.setStatusFn == nil {
		return nil
	}
	return f.setStatusFn(ctx, reviewerID, status)
}

func (f *fakeLifecycleService) ResetStaleStatus(ctx context.Context, timeoutDays int) (int64, error) {
	if f == nil || f.resetStaleStatusFn == nil {
		return 0, nil
	}
	return f.resetStaleStatusFn(ctx, timeoutDays)
}

func newTestServer(scheduler *fakeSchedulerService, directory *fakeDirectoryService, lifecycle *fakeLifecycleService) *Server {
	cfg := conf.HttpServConf{Host: "127.0.0.1", Port: "9999"}
	return New(cfg, scheduler, directory, lifecycle)
}

func decodeError(t *testing.T, body *bytes.Buffer) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(body.Bytes(), &resp))
	return resp
}

func TestNewServerRegistersRoutes(t *testing.T) {
	cfg := conf.HttpServConf{Host: "127.0.0.1", Port: "9999", BaseURL: "/api"}

	srv := New(cfg, &fakeSchedulerService{}, &fakeDirectoryService{}, &fakeLifecycleService{})

	require.Equal(t, cfg.GetAddress(), srv.Address)
	require.NotNil(t, srv.router)
	require.NotNil(t, srv.server)
	require.Equal(t, srv.router, srv.server.Handler)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	srv.router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "ok", resp["status"])
}

func TestHandleScheduleNext(t *testing.T) {
	t.Run("parses query and returns picks", func(t *testing.T) {
		var gotCount int
		var gotExcludes []string
		var gotUrgent, gotHideBusy bool
		scheduler := &fakeSchedulerService{
			nextFn: func(_ context.Context, count int, excludes []string, urgent, hideBusy bool) ([]models.ReviewerWorkload, error) {
				gotCount, gotExcludes, gotUrgent, gotHideBusy = count, excludes, urgent, hideBusy
				return []models.ReviewerWorkload{{Id: "rev-1", EffectiveStatus: models.StatusIdle}}, nil
			},
		}
		srv := newTestServer(scheduler, nil, nil)

		req := httptest.NewRequest(http.MethodGet, "/schedule/next?count=2&excludes=a,%20b,&urgent=true&hide_busy=false", nil)
		rr := httptest.NewRecorder()
		srv.router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		require.Equal(t, 2, gotCount)
		require.Equal(t, []string{"a", "b"}, gotExcludes)
		require.True(t, gotUrgent)
		require.False(t, gotHideBusy)

		var resp scheduleNextResp
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Len(t, resp.Reviewers, 1)
		require.Equal(t, "rev-1", resp.Reviewers[0].Id)
	})

	t.Run("defaults", func(t *testing.T) {
		scheduler := &fakeSchedulerService{
			nextFn: func(_ context.Context, count int, excludes []string, urgent, hideBusy bool) ([]models.ReviewerWorkload, error) {
				require.Equal(t, 1, count)
				require.Empty(t, excludes)
				require.False(t, urgent)
				require.True(t, hideBusy)
				return nil, nil
			},
		}
		srv := newTestServer(scheduler, nil, nil)

		req := httptest.NewRequest(http.MethodGet, "/schedule/next", nil)
		rr := httptest.NewRecorder()
		srv.router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var resp scheduleNextResp
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.NotNil(t, resp.Reviewers)
		require.Empty(t, resp.Reviewers)
	})

	t.Run("bad count", func(t *testing.T) {
		srv := newTestServer(&fakeSchedulerService{}, nil, nil)

		req := httptest.NewRequest(http.MethodGet, "/schedule/next?count=abc", nil)
		rr := httptest.NewRecorder()
		srv.router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("validation error maps to 400", func(t *testing.T) {
		scheduler := &fakeSchedulerService{
			nextFn: func(context.Context, int, []string, bool, bool) ([]models.ReviewerWorkload, error) {
				return nil, domain.NewValidationError("count must be >= 0")
			},
		}
		srv := newTestServer(scheduler, nil, nil)

		req := httptest.NewRequest(http.MethodGet, "/schedule/next?count=-1", nil)
		rr := httptest.NewRecorder()
		srv.router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusBadRequest, rr.Code)
		resp := decodeError(t, rr.Body)
		require.Equal(t, models.ErrorResponseErrorCode("VALIDATION"), resp.Error.Code)
	})
}

func TestHandleReviewerSearch(t *testing.T) {
	t.Run("passes params", func(t *testing.T) {
		directory := &fakeDirectoryService{
			searchFn: func(_ context.Context, params models.GetReviewersSearchParams) ([]*models.Reviewer, error) {
				require.Equal(t, "rev", params.UserId)
				require.Equal(t, "Ali", params.Name)
				require.True(t, params.OnlyReviewer)
				return []*models.Reviewer{{Id: "rev-1", Name: "Alice"}}, nil
			},
		}
		srv := newTestServer(nil, directory, nil)

		req := httptest.NewRequest(http.MethodGet, "/reviewers/search?user_id=rev&name=Ali&only_reviewer=true", nil)
		rr := httptest.NewRecorder()
		srv.router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var resp searchResp
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Len(t, resp.Reviewers, 1)
	})

	t.Run("empty result is an empty list", func(t *testing.T) {
		srv := newTestServer(nil, &fakeDirectoryService{}, nil)

		req := httptest.NewRequest(http.MethodGet, "/reviewers/search", nil)
		rr := httptest.NewRecorder()
		srv.router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var resp searchResp
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.NotNil(t, resp.Reviewers)
		require.Empty(t, resp.Reviewers)
	})

	t.Run("bad only_reviewer", func(t *testing.T) {
		srv := newTestServer(nil, &fakeDirectoryService{}, nil)

		req := httptest.NewRequest(http.MethodGet, "/reviewers/search?only_reviewer=maybe", nil)
		rr := httptest.NewRecorder()
		srv.router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestHandleReviewerGet(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		directory := &fakeDirectoryService{
			getFn: func(_ context.Context, id string) (*models.Reviewer, error) {
				require.Equal(t, "rev-1", id)
				return &models.Reviewer{Id: "rev-1", Name: "Alice", Status: models.StatusBusy}, nil
			},
		}
		srv := newTestServer(nil, directory, nil)

		req := httptest.NewRequest(http.MethodGet, "/reviewers/get?user_id=rev-1", nil)
		rr := httptest.NewRecorder()
		srv.router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var resp reviewerResp
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Equal(t, "rev-1", resp.Reviewer.Id)
		require.Equal(t, models.StatusBusy, resp.Reviewer.Status)
	})

	t.Run("missing param", func(t *testing.T) {
		srv := newTestServer(nil, &fakeDirectoryService{}, nil)

		req := httptest.NewRequest(http.MethodGet, "/reviewers/get", nil)
		rr := httptest.NewRecorder()
		srv.router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("not found maps to 404", func(t *testing.T) {
		srv := newTestServer(nil, &fakeDirectoryService{}, nil)

		req := httptest.NewRequest(http.MethodGet, "/reviewers/get?user_id=ghost", nil)
		rr := httptest.NewRecorder()
		srv.router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusNotFound, rr.Code)
		resp := decodeError(t, rr.Body)
		require.Equal(t, models.ErrorResponseErrorCode("NOT_FOUND"), resp.Error.Code)
	})
}

func TestHandleSetStatus(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var gotID string
		var gotStatus models.Status
		lifecycle := &fakeLifecycleService{
			setStatusFn: func(_ context.Context, id string, status models.Status) error {
				gotID, gotStatus = id, status
				return nil
			},
		}
		srv := newTestServer(nil, nil, lifecycle)

		body, _ := json.Marshal(models.PostReviewersSetStatusJSONBody{UserId: "rev-1", Status: models.StatusVeryBusy})
		req := httptest.NewRequest(http.MethodPost, "/reviewers/setStatus", bytes.NewReader(body))
		rr := httptest.NewRecorder()
		srv.router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		require.Equal(t, "rev-1", gotID)
		require.Equal(t, models.StatusVeryBusy, gotStatus)
	})

	t.Run("invalid payload", func(t *testing.T) {
		srv := newTestServer(nil, nil, &fakeLifecycleService{})

		req := httptest.NewRequest(http.MethodPost, "/reviewers/setStatus", bytes.NewReader([]byte("{")))
		rr := httptest.NewRecorder()
		srv.router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("missing user_id", func(t *testing.T) {
		srv := newTestServer(nil, nil, &fakeLifecycleService{})

		req := httptest.NewRequest(http.MethodPost, "/reviewers/setStatus", bytes.NewReader([]byte(`{"status":1}`)))
		rr := httptest.NewRecorder()
		srv.router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown reviewer maps to 404", func(t *testing.T) {
		lifecycle := &fakeLifecycleService{
			setStatusFn: func(context.Context, string, models.Status) error {
				return domain.NewNotFoundError("reviewer ghost")
			},
		}
		srv := newTestServer(nil, nil, lifecycle)

		body := []byte(`{"user_id":"ghost","status":1}`)
		req := httptest.NewRequest(http.MethodPost, "/reviewers/setStatus", bytes.NewReader(body))
		rr := httptest.NewRecorder()
		srv.router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestHandleResetStatus(t *testing.T) {
	t.Run("returns affected", func(t *testing.T) {
		lifecycle := &fakeLifecycleService{
			resetStaleStatusFn: func(_ context.Context, days int) (int64, error) {
				require.Equal(t, 14, days)
				return 5, nil
			},
		}
		srv := newTestServer(nil, nil, lifecycle)

		req := httptest.NewRequest(http.MethodPost, "/reviewers/resetStatus", bytes.NewReader([]byte(`{"days":14}`)))
		rr := httptest.NewRecorder()
		srv.router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var resp resetStatusResp
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Equal(t, int64(5), resp.Affected)
	})

	t.Run("negative days maps to 400", func(t *testing.T) {
		lifecycle := &fakeLifecycleService{
			resetStaleStatusFn: func(context.Context, int) (int64, error) {
				return 0, domain.NewValidationError("days must be >= 0")
			},
		}
		srv := newTestServer(nil, nil, lifecycle)

		req := httptest.NewRequest(http.MethodPost, "/reviewers/resetStatus", bytes.NewReader([]byte(`{"days":-1}`)))
		rr := httptest.NewRecorder()
		srv.router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	writeJSON(rr, http.StatusTeapot, map[string]int{"answer": 42})

	require.Equal(t, http.StatusTeapot, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	var resp map[string]int
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, 42, resp["answer"])
}

func TestMapDomainError(t *testing.T) {
	status, code, _ := mapDomainError(domain.NewValidationError("bad"))
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "VALIDATION", code)

	status, code, _ = mapDomainError(domain.NewNotFoundError("reviewer"))
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "NOT_FOUND", code)

	status, code, _ = mapDomainError(domain.NewNoReviewerError())
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, "NO_REVIEWER", code)

	status, code, _ = mapDomainError(context.DeadlineExceeded)
	require.Equal(t, http.StatusInternalServerError, status)
	require.Equal(t, "INTERNAL_ERROR", code)
}
