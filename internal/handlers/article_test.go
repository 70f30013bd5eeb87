package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"digichef/internal/logger"
	"digichef/internal/models"
	"digichef/internal/repository"
	"digichef/internal/services"
	"digichef/internal/utils/helpers"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

// Заглушка сервиса статей: каждый метод отдаёт заранее заданный результат.
type stubArticleService struct {
	article *models.Article
	version *models.ArticleVersion
	err     error

	lastCallback *models.WriteCallbackRequest
}

func (s *stubArticleService) Create(_ context.Context, _ models.CreateArticleRequest) (*models.Article, error) {
	return s.article, s.err
}
func (s *stubArticleService) GetByID(_ context.Context, _ int64) (*models.Article, error) {
	return s.article, s.err
}
func (s *stubArticleService) List(_ context.Context, _ models.ArticleListParams) ([]*models.Article, int, error) {
	return nil, 0, s.err
}
func (s *stubArticleService) Delete(_ context.Context, _ int64) error { return s.err }
func (s *stubArticleService) RequestWriting(_ context.Context, _ int64) (*models.Article, error) {
	return s.article, s.err
}
func (s *stubArticleService) ReceiveWrittenContent(_ context.Context, _ int64, req models.WriteCallbackRequest) (*models.Article, *models.ArticleVersion, error) {
	s.lastCallback = &req
	return s.article, s.version, s.err
}
func (s *stubArticleService) Validate(_ context.Context, _ int64) (*models.Article, error) {
	return s.article, s.err
}
func (s *stubArticleService) Publish(_ context.Context, _ int64) (*models.Article, error) {
	return s.article, s.err
}

func newCallbackRequest(t *testing.T, secret string, body interface{}) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/articles/1/write/callback", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set("X-Webhook-Secret", secret)
	}
	return mux.SetURLVars(req, map[string]string{"id": "1"})
}

func writtenArticle() *models.Article {
	score := 80
	return &models.Article{ID: 1, Status: models.StatusWritten, Score: &score}
}

func TestWriteCallbackWrongSecret(t *testing.T) {
	svc := &stubArticleService{}
	h := NewArticleHandler(svc, services.NewMakeWebhookService(""), "topsecret")

	rec := httptest.NewRecorder()
	h.WriteCallback(rec, newCallbackRequest(t, "wrong", map[string]string{"content": "текст"}))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Nil(t, svc.lastCallback, "сервис не должен вызываться при неверном секрете")
}

func TestWriteCallbackMissingSecret(t *testing.T) {
	h := NewArticleHandler(&stubArticleService{}, services.NewMakeWebhookService(""), "topsecret")

	rec := httptest.NewRecorder()
	h.WriteCallback(rec, newCallbackRequest(t, "", map[string]string{"content": "текст"}))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWriteCallbackSecretNotConfigured(t *testing.T) {
	// без настроенного секрета колбэк не принимается вовсе
	h := NewArticleHandler(&stubArticleService{}, services.NewMakeWebhookService(""), "")

	rec := httptest.NewRecorder()
	h.WriteCallback(rec, newCallbackRequest(t, "", map[string]string{"content": "текст"}))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWriteCallbackOK(t *testing.T) {
	svc := &stubArticleService{
		article: writtenArticle(),
		version: &models.ArticleVersion{ID: 10, ArticleID: 1, VersionNumber: 1, Content: "текст"},
	}
	h := NewArticleHandler(svc, services.NewMakeWebhookService(""), "topsecret")

	rec := httptest.NewRecorder()
	h.WriteCallback(rec, newCallbackRequest(t, "topsecret", map[string]interface{}{
		"content": "текст",
		"score":   80,
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.lastCallback)
	require.Equal(t, "текст", svc.lastCallback.Content)
	require.NotNil(t, svc.lastCallback.Score)
	require.Equal(t, 80, *svc.lastCallback.Score)

	var resp helpers.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Empty(t, resp.Error)
}

func TestWriteCallbackEmptyContent(t *testing.T) {
	h := NewArticleHandler(&stubArticleService{}, services.NewMakeWebhookService(""), "topsecret")

	rec := httptest.NewRecorder()
	h.WriteCallback(rec, newCallbackRequest(t, "topsecret", map[string]string{"content": "  "}))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWriteCallbackUnknownArticle(t *testing.T) {
	svc := &stubArticleService{err: repository.ErrArticleNotFound}
	h := NewArticleHandler(svc, services.NewMakeWebhookService(""), "topsecret")

	rec := httptest.NewRecorder()
	h.WriteCallback(rec, newCallbackRequest(t, "topsecret", map[string]string{"content": "текст"}))

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestWritingIllegalTransition(t *testing.T) {
	svc := &stubArticleService{
		err: &services.IllegalTransitionError{From: models.StatusWriting, To: models.StatusWriting},
	}
	h := NewArticleHandler(svc, services.NewMakeWebhookService(""), "topsecret")

	req := httptest.NewRequest(http.MethodPost, "/api/articles/1/write", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "1"})
	rec := httptest.NewRecorder()
	h.RequestWriting(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestValidateWithoutVersionsMapsTo400(t *testing.T) {
	svc := &stubArticleService{err: services.ErrNoVersionsYet}
	h := NewArticleHandler(svc, services.NewMakeWebhookService(""), "topsecret")

	req := httptest.NewRequest(http.MethodPost, "/api/articles/1/validate", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "1"})
	rec := httptest.NewRecorder()
	h.Validate(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateArticleValidation(t *testing.T) {
	h := NewArticleHandler(&stubArticleService{}, services.NewMakeWebhookService(""), "topsecret")

	cases := []struct {
		name string
		body models.CreateArticleRequest
	}{
		{"без source_url", models.CreateArticleRequest{OriginalTitle: "t", OriginalDescription: "d"}},
		{"кривой URL", models.CreateArticleRequest{SourceURL: "not-a-url", OriginalTitle: "t", OriginalDescription: "d"}},
		{"без original_title", models.CreateArticleRequest{SourceURL: "https://example.com/x", OriginalDescription: "d"}},
		{"без original_description", models.CreateArticleRequest{SourceURL: "https://example.com/x", OriginalTitle: "t"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			data, err := json.Marshal(c.body)
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodPost, "/api/articles", bytes.NewReader(data))
			rec := httptest.NewRecorder()
			h.Create(rec, req)

			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		})
	}
}

func TestRequestWritingAccepted(t *testing.T) {
	svc := &stubArticleService{article: &models.Article{ID: 1, Status: models.StatusWriting}}
	// вебхук без URL: отправка упадёт и только залогируется
	h := NewArticleHandler(svc, services.NewMakeWebhookService(""), "topsecret")

	req := httptest.NewRequest(http.MethodPost, "/api/articles/1/write", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "1"})
	rec := httptest.NewRecorder()
	h.RequestWriting(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp helpers.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	payload, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "writing_started", payload["message"])
}
