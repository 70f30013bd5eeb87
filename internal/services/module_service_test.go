package services

import (
	"context"
	"testing"

	"digichef/internal/models"
	"digichef/internal/repository"

	"github.com/stretchr/testify/require"
)

// Полный мок-репозиторий модулей (для артиклей достаточно mockModuleRepo)
type mockModuleStore struct {
	modules map[int64]*models.Module
	nextID  int64
}

func newMockModuleStore() *mockModuleStore {
	return &mockModuleStore{modules: make(map[int64]*models.Module)}
}

func (m *mockModuleStore) Create(_ context.Context, mod *models.Module) (*models.Module, error) {
	for _, existing := range m.modules {
		if existing.Slug == mod.Slug {
			return nil, repository.ErrSlugTaken
		}
	}
	m.nextID++
	out := &models.Module{ID: m.nextID, Name: mod.Name, Slug: mod.Slug, Active: mod.Active}
	m.modules[out.ID] = out
	c := *out
	return &c, nil
}

func (m *mockModuleStore) Update(_ context.Context, mod *models.Module) error {
	if _, ok := m.modules[mod.ID]; !ok {
		return repository.ErrModuleNotFound
	}
	for id, existing := range m.modules {
		if id != mod.ID && existing.Slug == mod.Slug {
			return repository.ErrSlugTaken
		}
	}
	c := *mod
	m.modules[mod.ID] = &c
	return nil
}

func (m *mockModuleStore) GetByID(_ context.Context, id int64) (*models.Module, error) {
	mod, ok := m.modules[id]
	if !ok {
		return nil, repository.ErrModuleNotFound
	}
	c := *mod
	return &c, nil
}

func (m *mockModuleStore) GetByIDs(_ context.Context, ids []int64) ([]models.Module, error) {
	out := []models.Module{}
	for _, id := range ids {
		if mod, ok := m.modules[id]; ok {
			out = append(out, *mod)
		}
	}
	return out, nil
}

func (m *mockModuleStore) List(_ context.Context) ([]models.Module, error) {
	out := []models.Module{}
	for _, mod := range m.modules {
		out = append(out, *mod)
	}
	return out, nil
}

func (m *mockModuleStore) SlugExists(_ context.Context, slug string) (bool, error) {
	for _, mod := range m.modules {
		if mod.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func newTestModuleService() (ModuleService, *mockModuleStore) {
	store := newMockModuleStore()
	versions := newMockVersionRepo()
	return NewModuleService(store, newMockArticleRepo(versions)), store
}

func TestModuleCreateDefaultsActive(t *testing.T) {
	svc, _ := newTestModuleService()

	m, err := svc.Create(context.Background(), models.CreateModuleRequest{
		Name: "Menu digital",
		Slug: "menu-digital",
	})
	require.NoError(t, err)
	require.True(t, m.Active)
}

func TestModuleCreateSlugTaken(t *testing.T) {
	svc, _ := newTestModuleService()
	ctx := context.Background()

	_, err := svc.Create(ctx, models.CreateModuleRequest{Name: "Instagram", Slug: "instagram"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, models.CreateModuleRequest{Name: "Insta", Slug: "instagram"})
	require.ErrorIs(t, err, repository.ErrSlugTaken)
}

func TestModuleUpdatePartial(t *testing.T) {
	svc, _ := newTestModuleService()
	ctx := context.Background()

	m, err := svc.Create(ctx, models.CreateModuleRequest{Name: "Site web", Slug: "siteweb"})
	require.NoError(t, err)

	inactive := false
	m, err = svc.Update(ctx, m.ID, models.UpdateModuleRequest{Active: &inactive})
	require.NoError(t, err)

	// не присланные поля не меняются
	require.Equal(t, "Site web", m.Name)
	require.Equal(t, "siteweb", m.Slug)
	require.False(t, m.Active)
}

func TestModuleUpdateNotFound(t *testing.T) {
	svc, _ := newTestModuleService()

	name := "X"
	_, err := svc.Update(context.Background(), 42, models.UpdateModuleRequest{Name: &name})
	require.ErrorIs(t, err, repository.ErrModuleNotFound)
}
