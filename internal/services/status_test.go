package services

import (
	"testing"

	"digichef/internal/models"
)

func TestIsValidStatusTransition(t *testing.T) {
	cases := []struct {
		from, to models.ArticleStatus
		want     bool
	}{
		{models.StatusProposed, models.StatusWriting, true},
		{models.StatusProposed, models.StatusWritten, false},
		{models.StatusProposed, models.StatusValidated, false},
		{models.StatusProposed, models.StatusPublished, false},

		{models.StatusWriting, models.StatusWritten, true},
		{models.StatusWriting, models.StatusProposed, true},
		{models.StatusWriting, models.StatusValidated, false},
		{models.StatusWriting, models.StatusPublished, false},

		{models.StatusWritten, models.StatusValidated, true},
		{models.StatusWritten, models.StatusWriting, true},
		{models.StatusWritten, models.StatusProposed, false},
		{models.StatusWritten, models.StatusPublished, false},

		{models.StatusValidated, models.StatusPublished, true},
		{models.StatusValidated, models.StatusWriting, true},
		{models.StatusValidated, models.StatusProposed, false},
		{models.StatusValidated, models.StatusWritten, false},

		// из published можно только обратно на написание
		{models.StatusPublished, models.StatusWriting, true},
		{models.StatusPublished, models.StatusProposed, false},
		{models.StatusPublished, models.StatusWritten, false},
		{models.StatusPublished, models.StatusValidated, false},
	}

	for _, c := range cases {
		if got := IsValidStatusTransition(c.from, c.to); got != c.want {
			t.Errorf("IsValidStatusTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestIsValidStatusTransitionSelf(t *testing.T) {
	for _, s := range models.AllStatuses() {
		if IsValidStatusTransition(s, s) {
			t.Errorf("переход %s -> %s не должен быть допустим", s, s)
		}
	}
}

func TestIsValidStatusTransitionUnknownStatus(t *testing.T) {
	if IsValidStatusTransition("draft", models.StatusWriting) {
		t.Error("переход из неизвестного статуса не должен быть допустим")
	}
	if IsValidStatusTransition(models.StatusProposed, "draft") {
		t.Error("переход в неизвестный статус не должен быть допустим")
	}
}
