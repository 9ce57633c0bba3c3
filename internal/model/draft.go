package model

// DefaultInitialText is the initial-value text a fresh draft starts with.
const DefaultInitialText = "0"

// Draft holds the pending "new counter" input of an interactive surface.
// It belongs to the UI layer; the counter service receives its fields as
// plain arguments.
type Draft struct {
	Name        string
	InitialText string
	ColorName   string
}

// NewDraft returns a draft holding the default input values.
func NewDraft() Draft {
	return Draft{
		InitialText: DefaultInitialText,
		ColorName:   DefaultColorName,
	}
}

// Reset restores the default input values after a successful add.
func (d *Draft) Reset() {
	*d = NewDraft()
}
