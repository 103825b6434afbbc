package jsonfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Tags []string `json:"tags,omitempty"`
}

func appendRecord(r record) func([]record) ([]record, error) {
	return func(items []record) ([]record, error) {
		return append(items, r), nil
	}
}

func TestCollectionMissingFileIsEmpty(t *testing.T) {
	c := New[record](filepath.Join(t.TempDir(), "records.json"))

	items, err := c.All()
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NotNil(t, items)
}

func TestCollectionPersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "records.json")

	first := New[record](path)
	require.NoError(t, first.Update(appendRecord(record{ID: "1", Name: "Money Plant"})))
	require.NoError(t, first.Update(appendRecord(record{ID: "2", Name: "Aloe Vera"})))

	reopened := New[record](path)
	items, err := reopened.All()
	require.NoError(t, err)
	assert.Equal(t, []record{{ID: "1", Name: "Money Plant"}, {ID: "2", Name: "Aloe Vera"}}, items)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"name": "Money Plant"`)
}

func TestCollectionFailedUpdateWritesNothing(t *testing.T) {
	c := NewMemory[record]()
	require.NoError(t, c.Update(appendRecord(record{ID: "1"})))

	boom := errors.New("rejected")
	err := c.Update(func(items []record) ([]record, error) {
		return append(items, record{ID: "2"}), boom
	})
	assert.ErrorIs(t, err, boom)

	items, err := c.All()
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestCollectionCallersCannotMutateState(t *testing.T) {
	c := NewMemory[record]()
	require.NoError(t, c.Update(appendRecord(record{ID: "1", Name: "Fern"})))

	items, err := c.All()
	require.NoError(t, err)
	items[0].Name = "changed"

	again, err := c.All()
	require.NoError(t, err)
	assert.Equal(t, "Fern", again[0].Name)
}

func TestCollectionNestedSlicesAreCopied(t *testing.T) {
	for name, c := range map[string]*Collection[record]{
		"memory": NewMemory[record](),
		"file":   New[record](filepath.Join(t.TempDir(), "records.json")),
	} {
		t.Run(name, func(t *testing.T) {
			tags := []string{"indoor", "pet-safe"}
			require.NoError(t, c.Update(appendRecord(record{ID: "1", Tags: tags})))
			tags[0] = "changed before read"

			found, ok, err := c.Find(func(r record) bool { return r.ID == "1" })
			require.NoError(t, err)
			require.True(t, ok)
			found.Tags[0] = "changed after read"

			again, _, err := c.Find(func(r record) bool { return r.ID == "1" })
			require.NoError(t, err)
			assert.Equal(t, []string{"indoor", "pet-safe"}, again.Tags)
		})
	}
}

func TestCollectionFindAndFilter(t *testing.T) {
	c := NewMemory[record]()
	for i := 1; i <= 4; i++ {
		require.NoError(t, c.Update(appendRecord(record{ID: fmt.Sprint(i), Name: fmt.Sprintf("n%d", i%2)})))
	}

	found, ok, err := c.Find(func(r record) bool { return r.ID == "3" })
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "n1", found.Name)

	_, ok, err = c.Find(func(r record) bool { return r.ID == "9" })
	require.NoError(t, err)
	assert.False(t, ok)

	odd, err := c.Filter(func(r record) bool { return r.Name == "n1" })
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3"}, []string{odd[0].ID, odd[1].ID})
}

func TestCollectionConcurrentUpdatesAreSerialized(t *testing.T) {
	c := New[record](filepath.Join(t.TempDir(), "records.json"))

	const writers = 25
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, c.Update(appendRecord(record{ID: fmt.Sprint(i)})))
		}(i)
	}
	wg.Wait()

	items, err := c.All()
	require.NoError(t, err)
	assert.Len(t, items, writers)
}

func TestCollectionCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := New[record](path).All()
	assert.Error(t, err)
}
