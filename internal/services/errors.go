package services

import (
	"errors"
	"fmt"

	"digichef/internal/models"
)

var (
	// ErrNoVersionsYet — попытка проверить статью без единой версии.
	ErrNoVersionsYet = errors.New("у статьи ещё нет ни одной версии")

	// ErrNotValidated — попытка опубликовать непроверенную статью.
	ErrNotValidated = errors.New("статья должна быть проверена перед публикацией")

	// ErrUnknownModules — в запросе указаны несуществующие модули.
	ErrUnknownModules = errors.New("указаны несуществующие модули")
)

// IllegalTransitionError — запрошенный переход статуса отсутствует в таблице переходов.
type IllegalTransitionError struct {
	From models.ArticleStatus
	To   models.ArticleStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("недопустимый переход статуса: %s -> %s", e.From, e.To)
}
