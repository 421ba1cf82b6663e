package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/repository/contract"
	"ai-companion-be/internal/repository/unitofwork"
)

type noopLogger struct{}

func (noopLogger) Debug(string, string, map[string]interface{}) {}
func (noopLogger) Info(string, string, map[string]interface{})  {}
func (noopLogger) Warn(string, string, map[string]interface{})  {}
func (noopLogger) Error(string, string, map[string]interface{}) {}
func (noopLogger) Sync() error                                  { return nil }

type stubPrefRepo struct {
	found   *entity.UserPreference
	findErr error
	saved   []*entity.UserPreference
	saveErr error
}

func (s *stubPrefRepo) FindByUserId(context.Context, uuid.UUID) (*entity.UserPreference, error) {
	return s.found, s.findErr
}

func (s *stubPrefRepo) Save(_ context.Context, pref *entity.UserPreference) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, pref)
	return nil
}

type stubUnitOfWork struct {
	prefs contract.UserPreferenceRepository
}

func (u *stubUnitOfWork) Begin(context.Context) error { return nil }
func (u *stubUnitOfWork) Commit() error               { return nil }
func (u *stubUnitOfWork) Rollback() error             { return nil }

func (u *stubUnitOfWork) ConversationRepository() contract.ConversationRepository   { return nil }
func (u *stubUnitOfWork) MessageRepository() contract.MessageRepository             { return nil }
func (u *stubUnitOfWork) ArtifactRepository() contract.ArtifactRepository           { return nil }
func (u *stubUnitOfWork) ArtifactChunkRepository() contract.ArtifactChunkRepository { return nil }
func (u *stubUnitOfWork) UserPreferenceRepository() contract.UserPreferenceRepository {
	return u.prefs
}

type stubFactory struct{ uow unitofwork.UnitOfWork }

func (f *stubFactory) NewUnitOfWork(context.Context) unitofwork.UnitOfWork { return f.uow }

func TestPreferencesForLazilyCreatesDefaults(t *testing.T) {
	repo := &stubPrefRepo{}
	src := NewPreferenceSource(&stubFactory{uow: &stubUnitOfWork{prefs: repo}}, noopLogger{})
	userId := uuid.New()

	pref, err := src.PreferencesFor(context.Background(), userId)

	require.NoError(t, err)
	require.NotNil(t, pref)
	assert.Equal(t, userId, pref.UserId)
	assert.Equal(t, entity.PreferredAgentAuto, pref.PreferredAgent)
	require.Len(t, repo.saved, 1)
	assert.Equal(t, userId, repo.saved[0].UserId)
}

func TestPreferencesForReturnsExistingWithoutSave(t *testing.T) {
	existing := &entity.UserPreference{Id: uuid.New(), UserId: uuid.New(), PreferredAgent: "muse"}
	repo := &stubPrefRepo{found: existing}
	src := NewPreferenceSource(&stubFactory{uow: &stubUnitOfWork{prefs: repo}}, noopLogger{})

	pref, err := src.PreferencesFor(context.Background(), existing.UserId)

	require.NoError(t, err)
	assert.Equal(t, "muse", pref.PreferredAgent)
	assert.Empty(t, repo.saved)
}

func TestPreferencesForSurvivesSaveFailure(t *testing.T) {
	repo := &stubPrefRepo{saveErr: errors.New("db down")}
	src := NewPreferenceSource(&stubFactory{uow: &stubUnitOfWork{prefs: repo}}, noopLogger{})

	pref, err := src.PreferencesFor(context.Background(), uuid.New())

	require.NoError(t, err)
	require.NotNil(t, pref)
	assert.Equal(t, entity.PreferredAgentAuto, pref.PreferredAgent)
}
