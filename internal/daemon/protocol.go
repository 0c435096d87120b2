// Package daemon serves IME sessions over a Unix socket using NDJSON and
// provides the client for talking to it.
package daemon

// Commands.
const (
	CmdKey    = "key"
	CmdStatus = "status"
	CmdReset  = "reset"
)

// Keys accepted by CmdKey.
const (
	KeyChar      = "char"
	KeySpace     = "space"
	KeyEnter     = "enter"
	KeyBackspace = "backspace"
	KeyEscape    = "escape"
	KeyToggle    = "toggle"
	KeyShrink    = "shrink"
	KeyExtend    = "extend"
	KeyPrev      = "prev"
	KeyHiragana  = "hiragana"
	KeyKatakana  = "katakana"
)

// Command is sent from a client to the server.
type Command struct {
	Cmd  string `json:"cmd"`
	Key  string `json:"key,omitempty"`
	Text string `json:"text,omitempty"`
}

// Response is returned by the server after processing a command. It always
// carries the full session view after the command.
type Response struct {
	OK         bool     `json:"ok"`
	State      string   `json:"state,omitempty"`
	Enabled    *bool    `json:"enabled,omitempty"`
	Preview    string   `json:"preview,omitempty"`
	Candidates []string `json:"candidates,omitempty"`
	Highlight  *int     `json:"highlight,omitempty"`
	Committed  []string `json:"committed,omitempty"`
	Status     string   `json:"status,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// BoolPtr returns a pointer to a bool value. Convenience for building responses.
func BoolPtr(b bool) *bool { return &b }

// IntPtr returns a pointer to an int value.
func IntPtr(i int) *int { return &i }
