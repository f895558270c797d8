package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spboyer/lesioneval/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type settings struct {
	Bins    int    `json:"bins"`
	Ranking string `json:"ranking"`
}

func writeInputs(t *testing.T, dir string, files map[string]string) []string {
	t.Helper()
	var paths []string
	for name, content := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
		paths = append(paths, p)
	}
	return paths
}

func TestKey_Stable(t *testing.T) {
	dir := t.TempDir()
	inputs := writeInputs(t, dir, map[string]string{
		"truth.csv":   "image,label\nISIC_0000000,NV\n",
		"softmax.csv": "0.1,0.9\n",
	})

	k1, err := Key(settings{Bins: 10, Ranking: "confidence"}, inputs)
	require.NoError(t, err)
	assert.Len(t, k1, 64)

	k2, err := Key(settings{Bins: 10, Ranking: "confidence"}, []string{inputs[1], inputs[0]})
	require.NoError(t, err)
	assert.Equal(t, k1, k2, "input order must not matter")
}

func TestKey_Changes(t *testing.T) {
	dir := t.TempDir()
	inputs := writeInputs(t, dir, map[string]string{"softmax.csv": "0.1,0.9\n"})
	base, err := Key(settings{Bins: 10, Ranking: "confidence"}, inputs)
	require.NoError(t, err)

	t.Run("settings", func(t *testing.T) {
		k, err := Key(settings{Bins: 15, Ranking: "confidence"}, inputs)
		require.NoError(t, err)
		assert.NotEqual(t, base, k)
	})

	t.Run("content", func(t *testing.T) {
		require.NoError(t, os.WriteFile(inputs[0], []byte("0.2,0.8\n"), 0644))
		t.Cleanup(func() { _ = os.WriteFile(inputs[0], []byte("0.1,0.9\n"), 0644) })
		k, err := Key(settings{Bins: 10, Ranking: "confidence"}, inputs)
		require.NoError(t, err)
		assert.NotEqual(t, base, k)
	})

	t.Run("missing_input", func(t *testing.T) {
		missing := filepath.Join(dir, "later.csv")
		k1, err := Key(settings{Bins: 10, Ranking: "confidence"}, append(inputs, missing))
		require.NoError(t, err)
		assert.NotEqual(t, base, k1)

		require.NoError(t, os.WriteFile(missing, []byte("1,0\n"), 0644))
		k2, err := Key(settings{Bins: 10, Ranking: "confidence"}, append(inputs, missing))
		require.NoError(t, err)
		assert.NotEqual(t, k1, k2, "creating the file must change the key")
	})
}

func TestKey_UnmarshalableSettings(t *testing.T) {
	_, err := Key(map[string]any{"f": func() {}}, nil)
	assert.Error(t, err)
}

func TestCache_GetPut(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "cache"))

	_, ok := c.Get("abc")
	assert.False(t, ok)

	report := &models.EvaluationReport{
		RunID: "run-1",
		Name:  "isic",
		Estimators: []models.EstimatorOutcome{
			{Name: "softmax", Kind: models.EstimatorKindSoftmax, Samples: 4, Accuracy: 0.75},
		},
	}
	require.NoError(t, c.Put("abc", report))

	got, ok := c.Get("abc")
	require.True(t, ok)
	assert.Equal(t, "run-1", got.RunID)
	require.Len(t, got.Estimators, 1)
	assert.Equal(t, 0.75, got.Estimators[0].Accuracy)

	n, err := c.Entries()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCache_CorruptEntryIsMiss(t *testing.T) {
	dir := t.TempDir()
	c := New(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0644))
	_, ok := c.Get("bad")
	assert.False(t, ok)
}

func TestCache_Disabled(t *testing.T) {
	c := New("")
	require.NoError(t, c.Put("k", &models.EvaluationReport{}))
	_, ok := c.Get("k")
	assert.False(t, ok)
	n, err := c.Entries()
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, c.Clear())
}

func TestCache_Clear(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	c := New(dir)
	require.NoError(t, c.Put("k1", &models.EvaluationReport{RunID: "1"}))
	require.NoError(t, c.Put("k2", &models.EvaluationReport{RunID: "2"}))

	require.NoError(t, c.Clear())
	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, c.Clear(), "clearing a missing directory is a no-op")
}

func TestCache_Clear_SafetyChecks(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, dir string)
	}{
		{"foreign_file", func(t *testing.T, dir string) {
			require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep"), 0644))
		}},
		{"subdirectory", func(t *testing.T, dir string) {
			require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0755))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, "k.json"), []byte("{}"), 0644))
			tt.setup(t, dir)

			err := New(dir).Clear()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "refusing to delete")
			_, statErr := os.Stat(dir)
			assert.NoError(t, statErr)
		})
	}
}

func TestCache_ConcurrentOperations(t *testing.T) {
	c := New(t.TempDir())
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", i)
			assert.NoError(t, c.Put(key, &models.EvaluationReport{RunID: key}))
			got, ok := c.Get(key)
			if assert.True(t, ok) {
				assert.Equal(t, key, got.RunID)
			}
		}(i)
	}
	wg.Wait()

	n, err := c.Entries()
	require.NoError(t, err)
	assert.Equal(t, 10, n)
}
