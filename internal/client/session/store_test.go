// Copyright (c) 2026 Taskora. All rights reserved.
// Author: dev@taskora.app

package session_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskora/taskora/internal/client/session"
)

func openStore(t *testing.T) *session.Store {
	t.Helper()
	store, err := session.Open(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_EmptyLoad(t *testing.T) {
	store := openStore(t)

	_, ok, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	store := openStore(t)

	saved := session.Session{
		Token: "the-token",
		User:  json.RawMessage(`{"id":"user-1","username":"megumi"}`),
	}
	require.NoError(t, store.Save(context.Background(), saved))

	loaded, ok, err := store.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "the-token", loaded.Token)
	assert.JSONEq(t, `{"id":"user-1","username":"megumi"}`, string(loaded.User))
	assert.False(t, loaded.SavedAt.IsZero())
}

func TestStore_SaveOverwrites(t *testing.T) {
	store := openStore(t)

	require.NoError(t, store.Save(context.Background(), session.Session{Token: "first", User: json.RawMessage(`{}`)}))
	require.NoError(t, store.Save(context.Background(), session.Session{Token: "second", User: json.RawMessage(`{}`)}))

	loaded, ok, err := store.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "second", loaded.Token)
}

func TestStore_ClearIsIdempotent(t *testing.T) {
	store := openStore(t)

	require.NoError(t, store.Save(context.Background(), session.Session{Token: "tok", User: json.RawMessage(`{}`)}))
	require.NoError(t, store.Clear(context.Background()))

	_, ok, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	// Clearing an already-empty cache succeeds.
	require.NoError(t, store.Clear(context.Background()))
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")

	first, err := session.Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Save(context.Background(), session.Session{Token: "tok", User: json.RawMessage(`{}`)}))
	require.NoError(t, first.Close())

	second, err := session.Open(path)
	require.NoError(t, err)
	defer second.Close()

	loaded, ok, err := second.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tok", loaded.Token)
}
