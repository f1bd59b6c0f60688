package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/harbour-fi/ramp-go/pkg/clients/snap"
)

type fakeSnapClient struct {
	installed *snap.Snap
	connected map[string]any
}

func (f *fakeSnapClient) GetSnaps(context.Context) (snap.GetSnapsResponse, error) {
	return snap.GetSnapsResponse{}, nil
}

func (f *fakeSnapClient) GetSnap(_ context.Context, version string) (*snap.Snap, error) {
	if f.installed != nil && (version == "" || f.installed.Version == version) {
		return f.installed, nil
	}
	return nil, nil
}

func (f *fakeSnapClient) ConnectSnap(_ context.Context, params map[string]any) error {
	f.connected = params
	return nil
}

func (f *fakeSnapClient) SignRequest(context.Context, string) (*snap.SignResponse, error) {
	return nil, nil
}

func (f *fakeSnapClient) RequestAccounts(context.Context) ([]string, error) {
	return nil, nil
}

func (f *fakeSnapClient) Close() {}

func Test_ensureSnapInstalled(t *testing.T) {
	logger := zaptest.NewLogger(t)

	t.Run("already installed", func(t *testing.T) {
		f := &fakeSnapClient{installed: &snap.Snap{ID: snap.DefaultSnapID, Version: "1.2.0"}}
		require.NoError(t, ensureSnapInstalled(context.Background(), f, "1.2.0", logger))
		assert.Nil(t, f.connected)
	})

	t.Run("wrong version installed", func(t *testing.T) {
		f := &fakeSnapClient{installed: &snap.Snap{ID: snap.DefaultSnapID, Version: "1.1.0"}}
		require.NoError(t, ensureSnapInstalled(context.Background(), f, "1.2.0", logger))
		assert.Equal(t, map[string]any{"version": "1.2.0"}, f.connected)
	})

	t.Run("missing", func(t *testing.T) {
		f := &fakeSnapClient{}
		require.NoError(t, ensureSnapInstalled(context.Background(), f, "", logger))
		assert.Equal(t, map[string]any{}, f.connected)
	})
}
