package conversation

// Reply is one outgoing message of a flow step: text plus an optional
// discrete choice set. The transport layer renders it; this package
// stays library-agnostic.
type Reply struct {
	Text     string
	Keyboard *Keyboard
}

// Keyboard is a grid of choice buttons.
type Keyboard struct {
	Rows [][]Button
}

// Button is one choice. Data is what comes back through HandleChoice
// when the operator presses it.
type Button struct {
	Text string
	Data string
}

// NewKeyboard creates an empty keyboard.
func NewKeyboard() *Keyboard {
	return &Keyboard{Rows: make([][]Button, 0, 4)}
}

// Row appends a row of buttons and returns the keyboard for chaining.
func (k *Keyboard) Row(buttons ...Button) *Keyboard {
	k.Rows = append(k.Rows, buttons)
	return k
}

// IsEmpty reports whether the keyboard has no buttons.
func (k *Keyboard) IsEmpty() bool {
	return k == nil || len(k.Rows) == 0
}

// Btn creates a button.
func Btn(text, data string) Button {
	return Button{Text: text, Data: data}
}

// Text creates a keyboard-less reply.
func Text(text string) Reply {
	return Reply{Text: text}
}

// WithKeyboard creates a reply carrying a choice set.
func WithKeyboard(text string, kb *Keyboard) Reply {
	return Reply{Text: text, Keyboard: kb}
}
