// Package romaji turns Latin keystrokes into hiragana incrementally.
package romaji

import "strings"

// Converter buffers romaji and reduces it to kana as soon as a rule applies.
// Pending holds input that cannot be resolved yet; converted holds kana.
type Converter struct {
	table     Table
	converted string
	pending   string
}

// NewConverter returns a converter over the default table.
func NewConverter() *Converter {
	return NewConverterWithTable(DefaultTable)
}

// NewConverterWithTable returns a converter over a custom table.
func NewConverterWithTable(t Table) *Converter {
	return &Converter{table: t}
}

// AddInput appends text to the pending buffer, reduces as much as possible
// and returns the display text.
func (c *Converter) AddInput(text string) string {
	c.pending += strings.ToLower(text)
	c.reduce()
	return c.DisplayText()
}

func (c *Converter) reduce() {
	for c.pending != "" {
		if !c.step() {
			return
		}
	}
}

// step applies the highest-priority rule that fires and reports whether
// any did.
func (c *Converter) step() bool {
	p := c.pending

	if p[0] == '-' {
		c.emit("ー", 1)
		return true
	}

	if len(p) >= 2 {
		first, second := p[0], p[1]

		// Doubled consonant: small tsu, then the consonant is reprocessed.
		if first == second && !isGeminateExempt(first) {
			c.emit("っ", 1)
			return true
		}

		// n before a consonant other than y or n settles as ん.
		if first == 'n' && !isNasalContinuation(second) {
			c.emit("ん", 1)
			return true
		}
	}

	if r, ok := c.table.match(p); ok {
		c.emit(r.Kana, len(r.Pattern))
		return true
	}
	return false
}

func (c *Converter) emit(kana string, consumed int) {
	c.converted += kana
	c.pending = c.pending[consumed:]
}

func isGeminateExempt(b byte) bool {
	switch b {
	case 'n', 'a', 'i', 'u', 'e', 'o':
		return true
	}
	return false
}

func isNasalContinuation(b byte) bool {
	switch b {
	case 'a', 'i', 'u', 'e', 'o', 'y', 'n':
		return true
	}
	return false
}

// Backspace removes the last pending rune, or the last converted rune when
// nothing is pending.
func (c *Converter) Backspace() {
	if c.pending != "" {
		c.pending = dropLastRune(c.pending)
		return
	}
	c.converted = dropLastRune(c.converted)
}

func dropLastRune(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	return string(r[:len(r)-1])
}

// Clear discards both buffers.
func (c *Converter) Clear() {
	c.converted = ""
	c.pending = ""
}

// Commit returns the buffered text and clears it. A lone trailing n is
// taken as ん.
func (c *Converter) Commit() string {
	if c.pending == "n" {
		c.converted += "ん"
		c.pending = ""
	}
	out := c.converted + c.pending
	c.Clear()
	return out
}

// DisplayText is the converted kana followed by unresolved romaji.
func (c *Converter) DisplayText() string {
	return c.converted + c.pending
}

// Converted returns the kana resolved so far.
func (c *Converter) Converted() string { return c.converted }

// Pending returns the romaji not yet resolved.
func (c *Converter) Pending() string { return c.pending }

// Empty reports whether both buffers are empty.
func (c *Converter) Empty() bool { return c.converted == "" && c.pending == "" }
