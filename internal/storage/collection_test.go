package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	ID    string `json:"id"`
	Color string `json:"color"`
}

func TestCollection(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	widgets := NewCollection[widget](store, "widgets")
	assert.Equal(t, "widgets", widgets.Name())

	require.NoError(t, widgets.Create(ctx, "w1", &widget{ID: "w1", Color: "red"}))
	require.NoError(t, widgets.Put(ctx, "w2", &widget{ID: "w2", Color: "blue"}))
	assert.ErrorIs(t, widgets.Create(ctx, "w1", &widget{ID: "w1"}), ErrExists)

	w, err := widgets.Get(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, "red", w.Color)

	all, err := widgets.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	blue, err := widgets.List(ctx, func(w *widget) bool { return w.Color == "blue" })
	require.NoError(t, err)
	require.Len(t, blue, 1)
	assert.Equal(t, "w2", blue[0].ID)

	require.NoError(t, widgets.Delete(ctx, "w1"))
	_, err = widgets.Get(ctx, "w1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCollection_ListEmptyIsNonNil(t *testing.T) {
	widgets := NewCollection[widget](NewMemoryStore(), "widgets")
	all, err := widgets.List(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestCollection_DecodeError(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, "widgets", "bad", []byte(`not json`)))

	widgets := NewCollection[widget](store, "widgets")
	_, err := widgets.Get(ctx, "bad")
	assert.ErrorContains(t, err, "decode widgets/bad")

	_, err = widgets.List(ctx, nil)
	assert.Error(t, err)
}
