package sink

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/dualtask/internal/model"
)

type row struct {
	cols []string
	vals []string
}

func (r row) Columns() []string { return r.cols }
func (r row) Values() []string  { return r.vals }

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVWritesHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	s, err := NewCSV(dir, "dualtask", "p01", "test_single", "20240501T0900")
	require.NoError(t, err)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		rec := model.TrialRecord{Task: "test_single", Trial: i, StimulusID: "7"}
		require.NoError(t, s.Append(ctx, model.TableMain, rec))
	}
	require.NoError(t, s.Append(ctx, model.TableBeepCount, model.EventRecord{Trial: 1}))
	require.NoError(t, s.Close())

	rows := readCSV(t, s.Path(model.TableMain))
	require.Len(t, rows, 4)
	assert.Equal(t, model.TrialRecord{}.Columns(), rows[0])
	assert.Equal(t, "03", rows[3][4])
	assert.Contains(t, s.Path(model.TableMain), "dualtask_p01_test_single_20240501T0900_main.csv")
	assert.Len(t, s.Files(), 2)
}

func TestCSVRejectsColumnMismatch(t *testing.T) {
	s, err := NewCSV(t.TempDir(), "e", "p", "t", "s")
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, "x", row{cols: []string{"a", "b"}, vals: []string{"1", "2"}}))

	err = s.Append(ctx, "x", row{cols: []string{"a", "c"}, vals: []string{"1", "2"}})
	var mismatch *HeaderMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, []string{"a", "b"}, mismatch.Want)

	err = s.Append(ctx, "x", row{cols: []string{"a", "b"}, vals: []string{"1"}})
	assert.Error(t, err)
	require.NoError(t, s.Close())
}

type failing struct{ calls int }

func (f *failing) Append(context.Context, string, model.Record) error {
	f.calls++
	return errors.New("disk full")
}

type counting struct{ calls int }

func (c *counting) Append(context.Context, string, model.Record) error {
	c.calls++
	return nil
}

func TestMultiTriesEverySink(t *testing.T) {
	bad, good := &failing{}, &counting{}
	err := Multi(bad, good).Append(context.Background(), "main", model.TrialRecord{})
	require.Error(t, err)
	assert.Equal(t, 1, bad.calls)
	assert.Equal(t, 1, good.calls)
}
