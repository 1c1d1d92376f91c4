package stats

import (
	"context"
	"fmt"
	"io"

	"github.com/verte-zerg/dualtask/internal/model"
	"github.com/verte-zerg/dualtask/internal/store"
)

// Report contains precomputed data for report rendering.
type Report struct {
	Events  []model.EventAggregate
	Choices []model.TrialChoice
}

// BuildReport loads the aggregates a report needs.
func BuildReport(ctx context.Context, st *store.Store, f model.ReportFilter) (Report, error) {
	events, err := st.ListEventAggregates(ctx, f)
	if err != nil {
		return Report{}, err
	}
	choices, err := st.ListTrialChoices(ctx, f)
	if err != nil {
		return Report{}, err
	}
	return Report{Events: events, Choices: choices}, nil
}

// Render prints both report sections.
func (r Report) Render(w io.Writer, window int) error {
	if err := RenderEvents(w, r.Events); err != nil {
		return err
	}
	return RenderChoices(w, r.Choices, window)
}

// RenderEvents prints accuracy and mean RT per task and context.
func RenderEvents(w io.Writer, aggs []model.EventAggregate) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No response events found.")
		return err
	}
	headers := []string{"Table", "Task", "Context", "Events", "Accuracy", "RT correct (s)"}
	rows := make([][]string, 0, len(aggs))
	for _, a := range aggs {
		acc := model.NA
		if a.Total > 0 {
			acc = fmt.Sprintf("%.2f%%", float64(a.Correct)/float64(a.Total)*100)
		}
		rows = append(rows, []string{
			a.Table,
			a.Task,
			string(a.Context),
			fmt.Sprintf("%d", a.Total),
			acc,
			a.MeanRTCorrect.String(),
		})
	}
	if _, err := fmt.Fprintln(w, "Response Events"); err != nil {
		return err
	}
	return writeLines(w, formatTable(headers, rows, map[int]bool{3: true, 4: true, 5: true}))
}

type choiceTally struct {
	task    string
	trials  int
	correct [3]int
	total   [3]int
	series  []float64
}

// RenderChoices prints discrete-choice accuracy per task with a moving
// average sparkline over trials.
func RenderChoices(w io.Writer, choices []model.TrialChoice, window int) error {
	if len(choices) == 0 {
		_, err := fmt.Fprintln(w, "No trials found.")
		return err
	}
	var order []string
	byTask := map[string]*choiceTally{}
	for _, c := range choices {
		t, ok := byTask[c.Task]
		if !ok {
			t = &choiceTally{task: c.Task}
			byTask[c.Task] = t
			order = append(order, c.Task)
		}
		t.trials++
		right, asked := 0, 0
		for i, acc := range []model.Opt[model.Accuracy]{c.Dot, c.Number, c.BeepCount} {
			v, ok := acc.Get()
			if !ok {
				continue
			}
			asked++
			t.total[i]++
			if v == model.Correct {
				right++
				t.correct[i]++
			}
		}
		if asked > 0 {
			t.series = append(t.series, float64(right)/float64(asked)*100)
		}
	}

	headers := []string{"Task", "Trials", "Dots", "Number", "Count", "Trend"}
	rows := make([][]string, 0, len(order))
	for _, task := range order {
		t := byTask[task]
		row := []string{t.task, fmt.Sprintf("%d", t.trials)}
		for i := range t.total {
			row = append(row, percent(t.correct[i], t.total[i]))
		}
		row = append(row, Sparkline(MovingAverage(t.series, window)))
		rows = append(rows, row)
	}
	if _, err := fmt.Fprintln(w, "Choice Accuracy"); err != nil {
		return err
	}
	return writeLines(w, formatTable(headers, rows, map[int]bool{1: true, 2: true, 3: true, 4: true}))
}

func percent(n, d int) string {
	if d == 0 {
		return model.NA
	}
	return fmt.Sprintf("%.2f%%", float64(n)/float64(d)*100)
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// BlockRow describes one planned block for RenderBlocks.
type BlockRow struct {
	Task   string
	Phase  string
	Trials int
	Seed   int64
}

// RenderBlocks prints the block plan of a session.
func RenderBlocks(w io.Writer, blocks []BlockRow) error {
	if len(blocks) == 0 {
		_, err := fmt.Fprintln(w, "No blocks planned.")
		return err
	}
	rows := make([][]string, 0, len(blocks))
	for _, b := range blocks {
		rows = append(rows, []string{b.Task, b.Phase, fmt.Sprintf("%d", b.Trials), fmt.Sprintf("%d", b.Seed)})
	}
	return writeLines(w, formatTable([]string{"Task", "Phase", "Trials", "Seed"}, rows, map[int]bool{2: true, 3: true}))
}
