package services

import (
	"context"
	"testing"
	"time"

	"digichef/internal/models"
	"digichef/internal/repository"
)

// Мок-репозиторий версий (in-memory)
type mockVersionRepo struct {
	versions map[int64][]*models.ArticleVersion
	nextID   int64

	// имитация гонки: столько первых Insert/ApplyWriteResult подряд
	// завершатся ErrDuplicateVersionNumber
	duplicateFailures int
}

func newMockVersionRepo() *mockVersionRepo {
	return &mockVersionRepo{versions: make(map[int64][]*models.ArticleVersion)}
}

func (m *mockVersionRepo) MaxVersionNumber(_ context.Context, articleID int64) (int, error) {
	max := 0
	for _, v := range m.versions[articleID] {
		if v.VersionNumber > max {
			max = v.VersionNumber
		}
	}
	return max, nil
}

func (m *mockVersionRepo) Insert(_ context.Context, v *models.ArticleVersion) (*models.ArticleVersion, error) {
	if m.duplicateFailures > 0 {
		m.duplicateFailures--
		return nil, repository.ErrDuplicateVersionNumber
	}
	for _, existing := range m.versions[v.ArticleID] {
		if existing.VersionNumber == v.VersionNumber {
			return nil, repository.ErrDuplicateVersionNumber
		}
	}
	m.nextID++
	out := &models.ArticleVersion{
		ID:            m.nextID,
		ArticleID:     v.ArticleID,
		Content:       v.Content,
		VersionNumber: v.VersionNumber,
		CreatedAt:     time.Now(),
	}
	m.versions[v.ArticleID] = append(m.versions[v.ArticleID], out)
	return out, nil
}

func (m *mockVersionRepo) Latest(_ context.Context, articleID int64) (*models.ArticleVersion, error) {
	var latest *models.ArticleVersion
	for _, v := range m.versions[articleID] {
		if latest == nil || v.VersionNumber > latest.VersionNumber {
			latest = v
		}
	}
	return latest, nil
}

func (m *mockVersionRepo) ListByArticle(_ context.Context, articleID int64) ([]models.ArticleVersionSummary, error) {
	list := []models.ArticleVersionSummary{}
	for _, v := range m.versions[articleID] {
		list = append(list, models.ArticleVersionSummary{
			ID:            v.ID,
			VersionNumber: v.VersionNumber,
			CreatedAt:     v.CreatedAt,
		})
	}
	return list, nil
}

func (m *mockVersionRepo) CountByArticle(_ context.Context, articleID int64) (int, error) {
	return len(m.versions[articleID]), nil
}

func TestVersionStoreNumberingStartsAtOne(t *testing.T) {
	store := NewVersionStore(newMockVersionRepo())

	n, err := store.NextVersionNumber(context.Background(), 1)
	if err != nil {
		t.Fatalf("NextVersionNumber: %v", err)
	}
	if n != 1 {
		t.Errorf("первый номер = %d, ожидался 1", n)
	}
}

func TestVersionStoreContiguousNumbering(t *testing.T) {
	store := NewVersionStore(newMockVersionRepo())
	ctx := context.Background()

	for want := 1; want <= 5; want++ {
		v, err := store.CreateVersion(ctx, 7, "текст")
		if err != nil {
			t.Fatalf("CreateVersion #%d: %v", want, err)
		}
		if v.VersionNumber != want {
			t.Errorf("номер версии = %d, ожидался %d", v.VersionNumber, want)
		}
	}
}

func TestVersionStoreIndependentPerArticle(t *testing.T) {
	store := NewVersionStore(newMockVersionRepo())
	ctx := context.Background()

	if _, err := store.CreateVersion(ctx, 1, "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.CreateVersion(ctx, 1, "b"); err != nil {
		t.Fatal(err)
	}

	v, err := store.CreateVersion(ctx, 2, "c")
	if err != nil {
		t.Fatal(err)
	}
	if v.VersionNumber != 1 {
		t.Errorf("у другой статьи номер = %d, ожидался 1", v.VersionNumber)
	}
}

func TestVersionStoreRetryOnDuplicate(t *testing.T) {
	repo := newMockVersionRepo()
	repo.duplicateFailures = 1
	store := NewVersionStore(repo)

	v, err := store.CreateVersion(context.Background(), 1, "текст")
	if err != nil {
		t.Fatalf("ожидался успех после одного повтора, получили: %v", err)
	}
	if v.VersionNumber != 1 {
		t.Errorf("номер версии = %d, ожидался 1", v.VersionNumber)
	}
}

func TestVersionStoreRetryExhausted(t *testing.T) {
	repo := newMockVersionRepo()
	repo.duplicateFailures = 2
	store := NewVersionStore(repo)

	_, err := store.CreateVersion(context.Background(), 1, "текст")
	if err == nil {
		t.Fatal("ожидалась ошибка после исчерпания повтора")
	}
}

func TestVersionStoreLatestEmpty(t *testing.T) {
	store := NewVersionStore(newMockVersionRepo())

	v, err := store.Latest(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if v != nil {
		t.Errorf("у статьи без версий Latest = %+v, ожидался nil", v)
	}
}
