package bus

import "time"

// Inbound is one user event delivered by a transport channel: either plain
// message text or a menu choice (callback data). Exactly one of Text/Choice
// is meaningful per event.
type Inbound struct {
	Channel   string
	SenderID  string
	ChatID    string
	Text      string
	Choice    string
	MessageID int // message carrying the pressed button, for in-place edits
	Timestamp time.Time
	Metadata  map[string]any
}

// IsChoice reports whether the event is a menu selection.
func (m *Inbound) IsChoice() bool {
	return m.Choice != ""
}

// Button is one pressable item. Data set means an inline callback button;
// empty Data means a reply-keyboard text button.
type Button struct {
	Label string
	Data  string
}

// Menu describes a keyboard to render with a reply. Inline selects callback
// buttons attached to the message; otherwise a reply keyboard replaces the
// user's input panel.
type Menu struct {
	Rows        [][]Button
	Inline      bool
	OneTime     bool
	Placeholder string
}

// Outbound is one reply to deliver. EditMessageID > 0 requests editing an
// existing message in place instead of sending a new one.
type Outbound struct {
	Channel       string
	ChatID        string
	Text          string
	Menu          *Menu
	EditMessageID int
}
