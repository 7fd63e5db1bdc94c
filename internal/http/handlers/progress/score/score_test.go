package score

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/script-access/internal/http/middlewarectx"
	"github.com/magabrotheeeer/script-access/internal/models"
	"github.com/magabrotheeeer/script-access/internal/services/progress"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Score(ctx context.Context, userUID, sceneID string) (progress.SceneScore, error) {
	args := m.Called(ctx, userUID, sceneID)
	return args.Get(0).(progress.SceneScore), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newRequest(sceneID string, user *models.User) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/progress/"+sceneID+"/score", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("sceneId", sceneID)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if user != nil {
		ctx = middlewarectx.WithUser(ctx, user)
	}
	return req.WithContext(ctx)
}

func TestScoreHandler_ServeHTTP(t *testing.T) {
	user := &models.User{UUID: "u1"}

	t.Run("success", func(t *testing.T) {
		svc := new(MockService)
		svc.On("Score", mock.Anything, "u1", "s1").Return(progress.SceneScore{SceneID: "s1", Score: 7.5, Sessions: 2}, nil).Once()
		rr := httptest.NewRecorder()

		New(newNoopLogger(), svc).ServeHTTP(rr, newRequest("s1", user))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"status":"OK","data":{"scene_id":"s1","score":7.5,"sessions":2}}`, rr.Body.String())
		svc.AssertExpectations(t)
	})

	t.Run("anonymous", func(t *testing.T) {
		svc := new(MockService)
		rr := httptest.NewRecorder()

		New(newNoopLogger(), svc).ServeHTTP(rr, newRequest("s1", nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		svc.AssertNotCalled(t, "Score", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("storage error", func(t *testing.T) {
		svc := new(MockService)
		svc.On("Score", mock.Anything, "u1", "s1").Return(progress.SceneScore{}, errors.New("db down")).Once()
		rr := httptest.NewRecorder()

		New(newNoopLogger(), svc).ServeHTTP(rr, newRequest("s1", user))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.JSONEq(t, `{"status":"Error","error":"internal error"}`, rr.Body.String())
	})
}
