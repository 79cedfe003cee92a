package inputmask

import "strings"

// State is carried between edits of one field.
type State struct {
	PreviousUnmasked string `json:"previous_unmasked"`
}

// Result is the display text to write back into the field.
type Result struct {
	Text   string
	Cursor int
	State  State
}

// Apply masks raw against t.
//
// Literals are emitted only while the digit count grows past
// st.PreviousUnmasked; when it shrinks or stays equal every template
// position consumes a digit, which lets deletion pull punctuation back.
// The walk stops when the digits run out, so at most the literals directly
// following the last digit are appended.
//
// Examples with the postal template and an empty state:
//
//	"0"        -> "0"
//	"01310"    -> "01310-"
//	"01310100" -> "01310-100"
func Apply(t Template, st State, raw string) Result {
	digits := Unmask(raw)
	growing := len(digits) > len(st.PreviousUnmasked)

	var b strings.Builder
	b.Grow(len(t.pattern))

	i := 0
	for j := 0; j < len(t.pattern); j++ {
		m := t.pattern[j]
		if m != Placeholder && growing {
			b.WriteByte(m)
			continue
		}
		if i >= len(digits) {
			break
		}
		b.WriteByte(digits[i])
		i++
	}

	text := b.String()
	cursor := len(text)
	if t.clampCursor && cursor > len(t.pattern) {
		cursor = len(t.pattern)
	}

	return Result{
		Text:   text,
		Cursor: cursor,
		State:  State{PreviousUnmasked: digits},
	}
}

// Echo handles the change notification caused by writing a Result back into
// the field: nothing is reformatted, the echoed digits become the baseline.
func Echo(_ State, raw string) State {
	return State{PreviousUnmasked: Unmask(raw)}
}
