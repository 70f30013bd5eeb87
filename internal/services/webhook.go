package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"digichef/internal/logger"
	"digichef/internal/models"

	"go.uber.org/zap"
)

// MakeWebhookService отправляет статью в сценарий Make.com (Integromat)
// на написание. Вызывается HTTP-слоем после успешного RequestWriting,
// в отдельной горутине: сбой доставки логируется и не влияет на статус.
type MakeWebhookService struct {
	WebhookURL string
	HTTPClient *http.Client
}

func NewMakeWebhookService(webhookURL string) *MakeWebhookService {
	return &MakeWebhookService{
		WebhookURL: webhookURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type webhookModule struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type writeRequestPayload struct {
	ArticleID           int64           `json:"article_id"`
	SourceURL           string          `json:"source_url"`
	OriginalTitle       string          `json:"original_title"`
	OriginalDescription string          `json:"original_description"`
	Modules             []webhookModule `json:"modules"`
}

// SendArticleForWriting отправляет снимок статьи в Make.com.
func (s *MakeWebhookService) SendArticleForWriting(ctx context.Context, a *models.Article) error {
	if s.WebhookURL == "" {
		return fmt.Errorf("MAKE_WEBHOOK_URL не задан")
	}

	mods := make([]webhookModule, 0, len(a.Modules))
	for _, m := range a.Modules {
		mods = append(mods, webhookModule{ID: m.ID, Name: m.Name, Slug: m.Slug})
	}

	payload := writeRequestPayload{
		ArticleID:           a.ID,
		SourceURL:           a.SourceURL,
		OriginalTitle:       a.OriginalTitle,
		OriginalDescription: a.OriginalDescription,
		Modules:             mods,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	logger.Log.Info("Отправка статьи в Make.com",
		zap.Int64("article_id", a.ID), zap.String("webhook_url", s.WebhookURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.WebhookURL, bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	logger.Log.Info("Ответ Make.com",
		zap.Int64("article_id", a.ID), zap.Int("status_code", resp.StatusCode))

	if resp.StatusCode >= 400 {
		return fmt.Errorf("make.com вернул статус %d", resp.StatusCode)
	}
	return nil
}
