package ordering

import (
	"encoding/json"
	"testing"

	"portfolio-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func persisted(t *testing.T, s Storage) OrderList {
	t.Helper()
	raw, ok, err := s.Get(StorageKey)
	require.NoError(t, err)
	require.True(t, ok)
	var list OrderList
	require.NoError(t, json.Unmarshal(raw, &list))
	return list
}

func TestBook_Lifecycle(t *testing.T) {
	storage := NewMemoryStorage()
	book := NewBook(storage)
	cat := models.CategoryEnduit

	assert.Equal(t, Unloaded, book.State(cat))
	_, err := book.Reconcile(cat, []string{"a"})
	assert.Error(t, err)

	require.NoError(t, book.Load())
	assert.Equal(t, Loaded, book.State(cat))

	_, err = book.MoveUp(cat, 1)
	assert.ErrorIs(t, err, ErrNotReconciled)

	order, err := book.Reconcile(cat, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, Reconciled, book.State(cat))

	order, err = book.MoveDown(cat, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, order)

	order, err = book.DragReorder(cat, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, order)

	assert.Equal(t, []string{"c", "b", "a"}, persisted(t, storage)[cat])
}

func TestBook_PersistsAcrossInstances(t *testing.T) {
	storage := NewMemoryStorage()
	cat := models.CategoryAvantApres

	first := NewBook(storage)
	require.NoError(t, first.Load())
	_, err := first.Reconcile(cat, []string{"a", "b"})
	require.NoError(t, err)
	_, err = first.MoveUp(cat, 1)
	require.NoError(t, err)

	second := NewBook(storage)
	require.NoError(t, second.Load())
	order, err := second.Reconcile(cat, []string{"a", "b", "new"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "new"}, order)
}

func TestBook_AppendAndForget(t *testing.T) {
	book := NewBook(NewMemoryStorage())
	require.NoError(t, book.Load())
	_, err := book.Reconcile(models.CategoryEnduit, []string{"a"})
	require.NoError(t, err)

	order, err := book.Append(models.CategoryEnduit, "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, order)

	order, err = book.Append(models.CategoryEnduit, "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, order)

	require.NoError(t, book.Forget("a"))
	assert.Equal(t, []string{"b"}, book.Order(models.CategoryEnduit))
}

func TestBook_CorruptStorageStartsEmpty(t *testing.T) {
	storage := NewMemoryStorage()
	require.NoError(t, storage.Set(StorageKey, []byte("{not json")))

	book := NewBook(storage)
	require.NoError(t, book.Load())
	assert.Empty(t, book.Order(models.CategoryEnduit))
}

func TestFileStorage_RoundTrip(t *testing.T) {
	fs := NewFileStorage(t.TempDir())

	_, ok, err := fs.Get(StorageKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, fs.Set(StorageKey, []byte(`{"enduit":["a"]}`)))
	raw, ok, err := fs.Get(StorageKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"enduit":["a"]}`, string(raw))
}
