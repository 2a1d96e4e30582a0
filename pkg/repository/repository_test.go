package repository

import (
	"context"
	"testing"

	"github.com/smallbiznis/invoicer/pkg/db"
	"github.com/smallbiznis/invoicer/pkg/db/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	ID   int64 `gorm:"primaryKey"`
	Name string
	Size int
}

func newWidgetStore(t *testing.T) Repository[widget] {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&widget{}))
	return ProvideStore[widget](conn)
}

func TestStoreCRUD(t *testing.T) {
	ctx := context.Background()
	store := newWidgetStore(t)

	require.NoError(t, store.Create(ctx, &widget{ID: 1, Name: "a", Size: 1}))
	require.NoError(t, store.Create(ctx, &widget{ID: 2, Name: "b", Size: 5}))

	found, err := store.FindOne(ctx, &widget{Name: "b"})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, int64(2), found.ID)

	missing, err := store.FindOne(ctx, &widget{Name: "zzz"})
	require.NoError(t, err)
	assert.Nil(t, missing)

	big, err := store.Find(ctx, nil, option.ApplyOperator(option.Condition{Field: "size", Operator: option.GTE, Value: 3}))
	require.NoError(t, err)
	assert.Len(t, big, 1)

	rows, err := store.Update(ctx, 1, map[string]any{"name": "renamed"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	count, err := store.Count(ctx, &widget{Name: "renamed"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	rows, err = store.Delete(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	count, err = store.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
