package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/ifuryst/scriptforge/internal/models"
	"github.com/ifuryst/scriptforge/internal/script"
)

func TestScriptFetcherNormalizes(t *testing.T) {
	id := uuid.NewString()
	repo := &memoryScripts{rows: map[string]models.Script{
		id: {
			ID:     id,
			Tags:   datatypes.JSON(`"a, b, ,c"`),
			Scenes: datatypes.JSON(`{"hook":"H","intro":"I","cta":"C"}`),
		},
	}}

	got, err := NewScriptFetcher(repo, zap.NewNop()).Fetch(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, got.Tags)
	require.Equal(t, []script.Scene{{Scene: 1, Text: "H"}, {Scene: 2, Text: "I"}, {Scene: 3, Text: "C"}}, got.Scenes)
	require.Equal(t, "H\n\nI\n\nC", got.FullText)
	require.NotEmpty(t, got.TitleSuggestions)
}

func TestScriptFetcherNotFound(t *testing.T) {
	repo := &memoryScripts{rows: map[string]models.Script{}}
	f := NewScriptFetcher(repo, zap.NewNop())

	_, err := f.Fetch(context.Background(), uuid.NewString())
	require.ErrorIs(t, err, models.ErrNotFound)

	_, err = f.Fetch(context.Background(), "42")
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestScriptFetcherStoreError(t *testing.T) {
	repo := &memoryScripts{err: errors.New("timeout")}
	_, err := NewScriptFetcher(repo, zap.NewNop()).Fetch(context.Background(), uuid.NewString())
	require.Error(t, err)
	require.NotErrorIs(t, err, models.ErrNotFound)
}
