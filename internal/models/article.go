package models

import "time"

// ArticleStatus — этап жизненного цикла статьи. Только пять значений, не свободный текст.
type ArticleStatus string

const (
	StatusProposed  ArticleStatus = "proposed"
	StatusWriting   ArticleStatus = "writing"
	StatusWritten   ArticleStatus = "written"
	StatusValidated ArticleStatus = "validated"
	StatusPublished ArticleStatus = "published"
)

// AllStatuses — для валидации query-параметров.
func AllStatuses() []ArticleStatus {
	return []ArticleStatus{StatusProposed, StatusWriting, StatusWritten, StatusValidated, StatusPublished}
}

func (s ArticleStatus) Valid() bool {
	switch s {
	case StatusProposed, StatusWriting, StatusWritten, StatusValidated, StatusPublished:
		return true
	}
	return false
}

type Article struct {
	ID                   int64         `db:"id"                    json:"id"`
	SourceURL            string        `db:"source_url"            json:"source_url"`
	OriginalTitle        string        `db:"original_title"        json:"original_title"`
	OriginalDescription  string        `db:"original_description"  json:"original_description"`
	SuggestedTitle       *string       `db:"suggested_title"       json:"suggested_title"`
	SuggestedDescription *string       `db:"suggested_description" json:"suggested_description"`
	Score                *int          `db:"score"                 json:"score"`
	Status               ArticleStatus `db:"status"                json:"status"`
	CreatedAt            time.Time     `db:"created_at"            json:"created_at"`
	UpdatedAt            time.Time     `db:"updated_at"            json:"updated_at"`

	Modules []Module `db:"-" json:"modules"`

	// Заполняются только в детальной выдаче
	LatestVersion *ArticleVersion         `db:"-" json:"latest_version,omitempty"`
	Versions      []ArticleVersionSummary `db:"-" json:"versions,omitempty"`
}

type ArticleVersion struct {
	ID            int64     `db:"id"             json:"id"`
	ArticleID     int64     `db:"article_id"     json:"article_id"`
	Content       string    `db:"content"        json:"content"`
	VersionNumber int       `db:"version_number" json:"version_number"`
	CreatedAt     time.Time `db:"created_at"     json:"created_at"`
}

// ArticleVersionSummary — версия без контента, для списка версий статьи.
type ArticleVersionSummary struct {
	ID            int64     `json:"id"`
	VersionNumber int       `json:"version_number"`
	CreatedAt     time.Time `json:"created_at"`
}

// swagger:model CreateArticleRequest
type CreateArticleRequest struct {
	SourceURL           string  `json:"source_url"           example:"https://example.com/resto-trends"`
	OriginalTitle       string  `json:"original_title"       example:"10 тенденций ресторанного рынка"`
	OriginalDescription string  `json:"original_description" example:"Краткое описание источника"`
	Modules             []int64 `json:"modules"              example:"1,2"`
}

// WriteCallbackRequest — тело колбэка от Make.com.
// Отсутствующее поле и явный null неразличимы после декодирования (оба — nil),
// и оба означают «не менять прежнее значение».
type WriteCallbackRequest struct {
	Content              string  `json:"content"`
	SuggestedTitle       *string `json:"suggested_title"`
	SuggestedDescription *string `json:"suggested_description"`
	Score                *int    `json:"score"`
}

// ArticleListParams — фильтры списка статей.
type ArticleListParams struct {
	Page     int
	Limit    int
	Status   *ArticleStatus
	ModuleID *int64
	Query    string
}

type ArticleListResponse struct {
	Items []*Article `json:"items"`
	Page  int        `json:"page"`
	Limit int        `json:"limit"`
	Total int        `json:"total"`
}
