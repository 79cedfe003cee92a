package inputmask

// Field is one edit session over a template. Not safe for concurrent use;
// each input field owns its own Field.
type Field struct {
	Template Template
	// Strict drops digits beyond the template capacity before masking.
	Strict bool

	state State
	text  string
}

func NewField(t Template) *Field {
	return &Field{Template: t}
}

// Edit applies the template to the new raw field content and records the
// echo of its own write, returning what the field should now display.
func (f *Field) Edit(raw string) Result {
	if f.Strict {
		digits := Unmask(raw)
		capacity := f.Template.Capacity()
		if len(digits) > capacity && len(f.state.PreviousUnmasked) >= capacity {
			// field is full; the extra keystroke is dropped
			return Result{Text: f.text, Cursor: len(f.text), State: f.state}
		}
		raw = f.Template.Clip(digits)
	}
	res := Apply(f.Template, f.state, raw)
	f.text = res.Text
	f.state = Echo(res.State, res.Text)
	res.State = f.state
	return res
}

// Set loads a stored value, formatted from scratch.
func (f *Field) Set(value string) {
	digits := Unmask(value)
	if f.Strict {
		digits = f.Template.Clip(digits)
	}
	f.text = f.Template.Format(digits)
	f.state = Echo(State{}, f.text)
}

// Reset clears the field.
func (f *Field) Reset() {
	f.text = ""
	f.state = State{}
}

func (f *Field) Text() string   { return f.text }
func (f *Field) Digits() string { return Unmask(f.text) }
func (f *Field) State() State   { return f.state }
