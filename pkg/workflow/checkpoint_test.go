package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCheckpointRoundTrip(t *testing.T) {
	cs := NewMemoryCheckpointStore(time.Minute)
	ctx := context.Background()

	st := NewRunState("sess", uuid.New(), uuid.New(), "question", nil, "")
	st.Route = "mentor"
	st.Stages = append(st.Stages, StageRecord{Name: StageIntake})

	require.NoError(t, cs.Save(ctx, st.SessionID, st))

	loaded, err := cs.Load(ctx, st.SessionID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, st.SessionID, loaded.SessionID)
	assert.Equal(t, "mentor", loaded.Route)
	assert.Len(t, loaded.Stages, 1)
}

func TestMemoryCheckpointMissingSession(t *testing.T) {
	cs := NewMemoryCheckpointStore(time.Minute)

	loaded, err := cs.Load(context.Background(), "never-saved")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestMemoryCheckpointDelete(t *testing.T) {
	cs := NewMemoryCheckpointStore(time.Minute)
	ctx := context.Background()

	st := NewRunState("sess", uuid.New(), uuid.New(), "q", nil, "")
	require.NoError(t, cs.Save(ctx, st.SessionID, st))
	require.NoError(t, cs.Delete(ctx, st.SessionID))

	loaded, err := cs.Load(ctx, st.SessionID)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}
