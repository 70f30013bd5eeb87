package models

import "time"

type Module struct {
	ID        int64     `db:"id"         json:"id"`
	Name      string    `db:"name"       json:"name"`
	Slug      string    `db:"slug"       json:"slug"`
	Active    bool      `db:"active"     json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// swagger:model CreateModuleRequest
type CreateModuleRequest struct {
	Name   string `json:"name"   example:"Menu digital"`
	Slug   string `json:"slug"   example:"menu-digital"`
	Active *bool  `json:"active" example:"true"`
}

// UpdateModuleRequest — частичное обновление, все поля опциональны.
type UpdateModuleRequest struct {
	Name   *string `json:"name,omitempty"`
	Slug   *string `json:"slug,omitempty"`
	Active *bool   `json:"active,omitempty"`
}
