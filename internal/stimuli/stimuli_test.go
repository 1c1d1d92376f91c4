package stimuli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/dualtask/internal/model"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadCSVMatchesColumnsCaseInsensitively(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "single.csv", "ID,Item,Condition,Name1,extra\n1,Der Koch lobt den Gast,a,Koch,x\n\n2, Die Frau sieht den Mann ,b,Frau,y\n")

	items, err := Load(dir, "single")
	require.NoError(t, err)
	assert.Equal(t, []model.Stimulus{
		{ID: "1", Item: "Der Koch lobt den Gast", Condition: "a", Actor: "Koch"},
		{ID: "2", Item: "Die Frau sieht den Mann", Condition: "b", Actor: "Frau"},
	}, items)
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "nback.yaml", `
- id: 11
  item: Der Hund jagt die Katze
  condition: svo
  name1: Hund
- id: 12
  item: Den Ball wirft das Kind
  condition: osv
  name1: Kind
`)
	items, err := Load(dir, "nback")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "11", items[0].ID)
	assert.Equal(t, "Kind", items[1].Actor)
}

func TestLoadMissingColumn(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "flanker.csv", "id,item,condition\n1,x,a\n")

	_, err := Load(dir, "flanker")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumn))
	var mc *MissingColumnError
	require.ErrorAs(t, err, &mc)
	assert.Equal(t, ColumnActor, mc.Column)
	assert.Equal(t, path, mc.Path)
}

func TestLoadMissingTableNamesPath(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(dir, "number_dots")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), filepath.Join(dir, "number_dots"))

	_, err = Load(filepath.Join(dir, "absent"), "single")
	assert.Error(t, err)
}

func TestLoadEmptyTable(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "single.csv", "id,item,condition,name1\n")
	_, err := Load(dir, "single")
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestSplit(t *testing.T) {
	items := make([]model.Stimulus, 10)
	for i := range items {
		items[i].ID = string(rune('a' + i))
	}
	practice, test, err := Split(items, 6)
	require.NoError(t, err)
	assert.Len(t, practice, 6)
	assert.Len(t, test, 4)
	assert.Equal(t, "g", test[0].ID)

	// Appending to practice must not clobber the test items.
	_ = append(practice, model.Stimulus{ID: "z"})
	assert.Equal(t, "g", test[0].ID)

	_, _, err = Split(items, 11)
	assert.Error(t, err)
}
