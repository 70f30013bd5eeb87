package services

import "digichef/internal/models"

// validTransitions — единственный источник правды о допустимых переходах
// статуса. Никакой другой код не должен зашивать логику переходов.
var validTransitions = map[models.ArticleStatus][]models.ArticleStatus{
	models.StatusProposed:  {models.StatusWriting},
	models.StatusWriting:   {models.StatusWritten, models.StatusProposed},
	models.StatusWritten:   {models.StatusValidated, models.StatusWriting},
	models.StatusValidated: {models.StatusPublished, models.StatusWriting},
	models.StatusPublished: {models.StatusWriting}, // разрешаем повторное написание
}

// IsValidStatusTransition отвечает, допустим ли переход current -> requested.
// Чистая функция, без состояния и побочных эффектов. Переходы «в себя»
// в таблице отсутствуют и потому запрещены.
func IsValidStatusTransition(current, requested models.ArticleStatus) bool {
	allowed, ok := validTransitions[current]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == requested {
			return true
		}
	}
	return false
}
