package mediaserver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type infoFunc func(ctx context.Context) (*PublicSystemInfo, error)

func (f infoFunc) GetPublicInfo(ctx context.Context) (*PublicSystemInfo, error) { return f(ctx) }

func TestServerIDs_LearnsOncePerKey(t *testing.T) {
	ids := NewServerIDs()
	calls := 0
	src := infoFunc(func(ctx context.Context) (*PublicSystemInfo, error) {
		calls++
		return &PublicSystemInfo{ID: "srv"}, nil
	})

	for i := 0; i < 3; i++ {
		id, err := ids.Lookup(context.Background(), "server|a|b", src)
		require.NoError(t, err)
		assert.Equal(t, "srv", id)
	}
	assert.Equal(t, 1, calls)

	_, err := ids.Lookup(context.Background(), "server|a|c", src)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestServerIDs_FailuresAreNotRemembered(t *testing.T) {
	ids := NewServerIDs()
	fail := true
	src := infoFunc(func(ctx context.Context) (*PublicSystemInfo, error) {
		if fail {
			return nil, errors.New("down")
		}
		return &PublicSystemInfo{ID: "srv"}, nil
	})

	_, err := ids.Lookup(context.Background(), "k", src)
	assert.Error(t, err)

	fail = false
	id, err := ids.Lookup(context.Background(), "k", src)
	require.NoError(t, err)
	assert.Equal(t, "srv", id)
}

func TestServerIDs_ClearDropsLearnedAndInFlight(t *testing.T) {
	ids := NewServerIDs()
	id, err := ids.Lookup(context.Background(), "k", infoFunc(func(ctx context.Context) (*PublicSystemInfo, error) {
		// configuration changes while the lookup is out
		ids.Clear()
		return &PublicSystemInfo{ID: "old"}, nil
	}))
	require.NoError(t, err)
	assert.Equal(t, "old", id)

	id, err = ids.Lookup(context.Background(), "k", infoFunc(func(ctx context.Context) (*PublicSystemInfo, error) {
		return &PublicSystemInfo{ID: "new"}, nil
	}))
	require.NoError(t, err)
	assert.Equal(t, "new", id)
}
