package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NA is the rendered form of a value that does not apply to a task variant.
const NA = "NA"

// Opt holds a value that may be not applicable. The zero value is NA.
type Opt[T any] struct {
	v  T
	ok bool
}

// Some wraps a present value.
func Some[T any](v T) Opt[T] {
	return Opt[T]{v: v, ok: true}
}

// None returns an explicit not-applicable value.
func None[T any]() Opt[T] {
	return Opt[T]{}
}

// Get returns the value and whether it is present.
func (o Opt[T]) Get() (T, bool) {
	return o.v, o.ok
}

// Valid reports whether a value is present.
func (o Opt[T]) Valid() bool {
	return o.ok
}

// String renders the value, or NA when absent.
func (o Opt[T]) String() string {
	if !o.ok {
		return NA
	}
	switch v := any(o.v).(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', 3, 64)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Record is a flat row with a fixed column set per logical table.
type Record interface {
	Columns() []string
	Values() []string
}

// Logical table names.
const (
	TableMain      = "main"
	TableBeepPress = "beep_press"
	TableBeepCount = "beep_count"
	TableNBack     = "2back"
	TableFlanker   = "flanker"
)

type field struct {
	name  string
	value string
}

func columnsOf(fields []field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.name
	}
	return out
}

func valuesOf(fields []field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.value
	}
	return out
}

// Summary rolls up scored sub-events of one presentation context.
// The zero value renders as NA in every column.
type Summary struct {
	Total           Opt[int]
	Targets         Opt[int]
	Hits            Opt[int]
	Misses          Opt[int]
	FalseAlarms     Opt[int]
	Rejections      Opt[int]
	Accuracy        Opt[float64]
	MeanRTCorrect   Opt[float64]
	MeanRTIncorrect Opt[float64]
}

func (s Summary) fields(prefix string) []field {
	return []field{
		{prefix + "_trials", s.Total.String()},
		{prefix + "_targets", s.Targets.String()},
		{prefix + "_hit", s.Hits.String()},
		{prefix + "_miss", s.Misses.String()},
		{prefix + "_false_alarm", s.FalseAlarms.String()},
		{prefix + "_none", s.Rejections.String()},
		{prefix + "_accuracy", s.Accuracy.String()},
		{prefix + "_rt_correct", s.MeanRTCorrect.String()},
		{prefix + "_rt_incorrect", s.MeanRTIncorrect.String()},
	}
}

// TrialRecord is the flattened per-trial result. Every task variant
// produces the same column set; inapplicable fields stay NA.
type TrialRecord struct {
	Experiment string
	Subject    string
	Date       time.Time
	Task       string
	Trial      int
	Phase      Phase
	StimulusID string
	Stimulus   string
	Condition  string

	Recording    Opt[string]
	PrimaryStart int
	PrimaryEnd   int

	RandNr         Opt[int]
	NumberOptions  Opt[string]
	NumberIndex    Opt[int]
	NumberResponse Opt[int]
	NumberAccuracy Opt[Accuracy]

	DotDirection Opt[int]
	DotFirst     Opt[int]
	DotLast      Opt[int]
	DotKey       Opt[string]
	DotAccuracy  Opt[Accuracy]

	BeepSequence       Opt[string]
	BeepCountSingle    Opt[int]
	BeepCountDeviants  Opt[int]
	BeepCountNormals   Opt[int]
	BeepCountDual      Opt[int]
	BeepCountOptions   Opt[string]
	BeepCountIndex     Opt[int]
	BeepCountResponse  Opt[int]
	BeepCountAccuracy  Opt[Accuracy]
	BeepPressSingle    Summary
	BeepPressDual      Summary
	NBackSequence      Opt[string]
	NBackRollingSingle Summary
	NBackRollingDual   Summary
	FlankerSequence    Opt[string]
	FlankerRollSingle  Summary
	FlankerRollDual    Summary

	StartedAt time.Time
	EndedAt   time.Time
}

func (r TrialRecord) fields() []field {
	fs := []field{
		{"experiment", r.Experiment},
		{"subjectID", r.Subject},
		{"date", r.Date.Format("2006-01-02")},
		{"task", r.Task},
		{"main_trial", fmt.Sprintf("%02d", r.Trial)},
		{"phase", string(r.Phase)},
		{"stimulus_id", r.StimulusID},
		{"stimulus", r.Stimulus},
		{"condition", r.Condition},
		{"stimulus_rec", r.Recording.String()},
		{"primary_start", strconv.Itoa(r.PrimaryStart)},
		{"primary_end", strconv.Itoa(r.PrimaryEnd)},
		{"rand_nr", r.RandNr.String()},
		{"number_selection", r.NumberOptions.String()},
		{"index_rand_nr", r.NumberIndex.String()},
		{"index_number_response", r.NumberResponse.String()},
		{"number_response_accuracy", r.NumberAccuracy.String()},
		{"dot_direction", r.DotDirection.String()},
		{"dot_1st_frame", r.DotFirst.String()},
		{"dot_last_frame", r.DotLast.String()},
		{"dot_response_key", r.DotKey.String()},
		{"dot_response_accuracy", r.DotAccuracy.String()},
		{"beep_sequence", r.BeepSequence.String()},
		{"beep_count_trials", r.BeepCountSingle.String()},
		{"beep_count_deviant_trials", r.BeepCountDeviants.String()},
		{"beep_count_normal_trials", r.BeepCountNormals.String()},
		{"beep_count_dual_trials", r.BeepCountDual.String()},
		{"beep_count_number_selection", r.BeepCountOptions.String()},
		{"beep_count_index_correct_count", r.BeepCountIndex.String()},
		{"beep_count_response", r.BeepCountResponse.String()},
		{"beep_count_response_accuracy", r.BeepCountAccuracy.String()},
	}
	fs = append(fs, r.BeepPressSingle.fields("beep_press_single")...)
	fs = append(fs, r.BeepPressDual.fields("beep_press_dual")...)
	fs = append(fs, field{"2back_sequence", r.NBackSequence.String()})
	fs = append(fs, r.NBackRollingSingle.fields("2back_last12_single")...)
	fs = append(fs, r.NBackRollingDual.fields("2back_last12_dual")...)
	fs = append(fs, field{"flanker_sequence", r.FlankerSequence.String()})
	fs = append(fs, r.FlankerRollSingle.fields("flanker_last12_single")...)
	fs = append(fs, r.FlankerRollDual.fields("flanker_last12_dual")...)
	fs = append(fs,
		field{"start_time", clockTime(r.StartedAt)},
		field{"end_time", clockTime(r.EndedAt)},
		field{"duration", formatDuration(r.EndedAt.Sub(r.StartedAt))},
	)
	return fs
}

// Columns implements Record.
func (r TrialRecord) Columns() []string { return columnsOf(r.fields()) }

// Values implements Record.
func (r TrialRecord) Values() []string { return valuesOf(r.fields()) }

// EventRecord is one sub-event row (a tone, a shape or a flanker slot).
// Response fields are NA for tables that log stimuli only.
type EventRecord struct {
	Task     string
	Phase    Phase
	Trial    int
	Slot     int
	Frame    int
	Stimulus string
	Expected Opt[string]
	Context  Context
	Key      Opt[string]
	RT       Opt[float64]
	Type     Opt[ResponseType]
	Accuracy Opt[Accuracy]
	At       time.Time
}

func (r EventRecord) fields() []field {
	return []field{
		{"task", r.Task},
		{"phase", string(r.Phase)},
		{"main_trial", fmt.Sprintf("%02d", r.Trial)},
		{"event_trial", strconv.Itoa(r.Slot)},
		{"frame", strconv.Itoa(r.Frame)},
		{"stimulus", r.Stimulus},
		{"expected", r.Expected.String()},
		{"presentation", string(r.Context)},
		{"response_key", r.Key.String()},
		{"rt", r.RT.String()},
		{"response_type", r.Type.String()},
		{"accuracy", r.Accuracy.String()},
		{"time", clockTime(r.At)},
	}
}

// Columns implements Record.
func (r EventRecord) Columns() []string { return columnsOf(r.fields()) }

// Values implements Record.
func (r EventRecord) Values() []string { return valuesOf(r.fields()) }

// JoinInts renders a value list the way option sets are logged.
func JoinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func clockTime(t time.Time) string {
	if t.IsZero() {
		return NA
	}
	return t.Format("15:04:05")
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
