package generator

import "fmt"

// Congruency of a flanker display.
const (
	Congruent   = "congruent"
	Incongruent = "incongruent"
	Neutral     = "neutral"
)

// FlankerStimulus is a flanker string with its expected key.
type FlankerStimulus struct {
	Text      string
	Key       string
	Condition string
}

// FlankerLetters maps the central letter to a key: X and C on "a", V and B on "l".
var FlankerLetters = []FlankerStimulus{
	{"XXXXX", "a", Congruent},
	{"XXCXX", "a", Congruent},
	{"CCXCC", "a", Congruent},
	{"CCCCC", "a", Congruent},
	{"XXVXX", "l", Incongruent},
	{"XXBXX", "l", Incongruent},
	{"CCVCC", "l", Incongruent},
	{"CCBCC", "l", Incongruent},
	{"VVXVV", "a", Incongruent},
	{"VVCVV", "a", Incongruent},
	{"BBXBB", "a", Incongruent},
	{"BBCBB", "a", Incongruent},
	{"VVVVV", "l", Congruent},
	{"VVBVV", "l", Congruent},
	{"BBVBB", "l", Congruent},
	{"BBBBB", "l", Congruent},
}

// FlankerArrows points the central arrow at the key side.
var FlankerArrows = []FlankerStimulus{
	{">>>>>", "l", Congruent},
	{"<<<<<", "a", Congruent},
	{"++>++", "l", Neutral},
	{"++<++", "a", Neutral},
	{"<<><<", "l", Incongruent},
	{">><>>", "a", Incongruent},
}

// Flanker draws count stimuli from table. The table is repeated as often
// as needed and each repetition is shuffled on its own.
func Flanker(src *Source, table []FlankerStimulus, count int) ([]FlankerStimulus, error) {
	if len(table) == 0 {
		return nil, fmt.Errorf("flanker table is empty")
	}
	out := make([]FlankerStimulus, 0, count)
	for len(out) < count {
		block := Shuffled(src, table)
		need := min(count-len(out), len(block))
		out = append(out, block[:need]...)
	}
	return out, nil
}
