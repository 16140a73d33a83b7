package kv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type blob struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestSetGetRoundTrip(t *testing.T) {
	s, err := OpenInMemory()
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set("k", blob{Name: "chai", Count: 3}))

	var got blob
	ok, err := s.Get("k", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, blob{Name: "chai", Count: 3}, got)
}

func TestGetMissingKey(t *testing.T) {
	s, err := OpenInMemory()
	require.NoError(t, err)
	defer s.Close()

	var got blob
	ok, err := s.Get("missing", &got)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, blob{}, got)
}

func TestDelete(t *testing.T) {
	s, err := OpenInMemory()
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set("k", blob{Name: "x"}))
	require.NoError(t, s.Delete("k"))
	require.NoError(t, s.Delete("never-set"))

	var got blob
	ok, err := s.Get("k", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(Config{Path: dir, Logger: zap.NewNop()})
	require.NoError(t, err)
	require.NoError(t, s.Set("k", blob{Count: 7}))
	require.NoError(t, s.Close())

	s, err = Open(Config{Path: dir})
	require.NoError(t, err)
	defer s.Close()

	var got blob
	ok, err := s.Get("k", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 7, got.Count)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}
