// Package ime sequences the romaji and kanji converters into an input
// method session and defines what gets committed, previewed or cancelled.
package ime

import (
	"log/slog"

	"github.com/jwulff/romakan/internal/kanji"
	"github.com/jwulff/romakan/internal/logging"
	"github.com/jwulff/romakan/internal/romaji"
)

// State is the session mode.
type State int

const (
	// StateInput buffers romaji.
	StateInput State = iota
	// StateConvert is choosing kanji for a segment.
	StateConvert
)

func (s State) String() string {
	switch s {
	case StateInput:
		return "input"
	case StateConvert:
		return "convert"
	}
	return "unknown"
}

// Status strings shown for the enabled flag.
const (
	StatusEnabled  = "あ"
	StatusDisabled = "A"
)

// Display receives everything the session wants on screen.
type Display interface {
	ShowPreview(text string)
	ShowCandidates(candidates []string, highlight int)
	ShowStatus(status string)
}

// TextSink receives committed text, once per commit.
type TextSink interface {
	Append(text string)
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithEnabled sets the initial enabled flag.
func WithEnabled(enabled bool) Option {
	return func(s *Session) { s.enabled = enabled }
}

// Session owns one romaji converter and one kanji converter. Events must be
// delivered from a single goroutine.
type Session struct {
	romaji  *romaji.Converter
	kanji   *kanji.Converter
	display Display
	sink    TextSink
	log     *slog.Logger

	state   State
	enabled bool

	// committed accumulates chained segment commits until finish or cancel.
	committed string
	// reading is the kana most recently handed to the kanji converter.
	reading string
}

// New returns a session in StateInput, enabled unless overridden.
func New(kc *kanji.Converter, display Display, sink TextSink, opts ...Option) *Session {
	s := &Session{
		romaji:  romaji.NewConverter(),
		kanji:   kc,
		display: display,
		sink:    sink,
		enabled: true,
		log:     logging.Discard(),
	}
	for _, o := range opts {
		o(s)
	}
	s.showStatus()
	s.clearDisplay()
	return s
}

// State returns the current mode.
func (s *Session) State() State { return s.state }

// Enabled reports whether conversion is on.
func (s *Session) Enabled() bool { return s.enabled }

// Composing reports whether there is uncommitted input.
func (s *Session) Composing() bool {
	return s.state == StateConvert || !s.romaji.Empty()
}

// OnCharacter handles a printable key.
func (s *Session) OnCharacter(text string) {
	if !s.enabled {
		s.output(text)
		return
	}

	// A chained segment keeps the session in StateConvert while the new
	// romaji accumulates; the next key commits that segment in turn.
	if s.state == StateConvert {
		if s.selectByDigit(text) {
			return
		}
		s.commitSegment(s.kanji.CurrentCandidate())
	}

	s.romaji.AddInput(text)
	s.updateInputDisplay()
}

// OnSpace starts conversion or advances to the next candidate.
func (s *Session) OnSpace() {
	if !s.enabled {
		s.output(" ")
		return
	}

	switch s.state {
	case StateInput:
		s.startConversion()
	case StateConvert:
		s.kanji.NextCandidate()
		s.updateCandidateDisplay()
	}
}

// OnPreviousCandidate moves back one candidate while converting.
func (s *Session) OnPreviousCandidate() {
	if !s.enabled || s.state != StateConvert {
		return
	}
	s.kanji.PreviousCandidate()
	s.updateCandidateDisplay()
}

// OnEnter commits the romaji buffer verbatim, or the current segment.
func (s *Session) OnEnter() {
	if !s.enabled {
		s.output("\n")
		return
	}

	if s.state == StateConvert {
		s.commitSegment(s.kanji.CurrentCandidate())
		return
	}

	s.output(s.romaji.Commit())
	s.clearDisplay()
}

// OnBackspace deletes one romaji character or cancels conversion.
func (s *Session) OnBackspace() {
	if s.state == StateConvert {
		s.cancelConversion()
		return
	}
	s.romaji.Backspace()
	s.updateInputDisplay()
}

// OnEscape clears the romaji buffer or cancels conversion.
func (s *Session) OnEscape() {
	if s.state == StateConvert {
		s.cancelConversion()
	} else {
		s.romaji.Clear()
	}
	s.clearDisplay()
}

// OnToggleEnabled flips conversion on or off. Turning it off discards
// anything in progress as Escape would.
func (s *Session) OnToggleEnabled() {
	s.enabled = !s.enabled
	s.showStatus()
	s.log.Debug("ime toggled", "enabled", s.enabled)
	if !s.enabled {
		s.OnEscape()
	}
}

// OnShrinkSegment makes the current segment one kana shorter.
func (s *Session) OnShrinkSegment() {
	if s.state == StateConvert && s.kanji.ShrinkSegment() {
		s.updateCandidateDisplay()
	}
}

// OnExtendSegment makes the current segment one kana longer.
func (s *Session) OnExtendSegment() {
	if s.state == StateConvert && s.kanji.ExtendSegment() {
		s.updateCandidateDisplay()
	}
}

// OnCommitAsHiragana commits the romaji buffer, or the current segment's
// reading, as hiragana.
func (s *Session) OnCommitAsHiragana() {
	switch s.state {
	case StateInput:
		s.output(s.romaji.Commit())
		s.clearDisplay()
	case StateConvert:
		s.commitSegment(s.kanji.Reading())
	}
}

// OnCommitAsKatakana commits the romaji buffer, or the current segment's
// reading, as katakana.
func (s *Session) OnCommitAsKatakana() {
	switch s.state {
	case StateInput:
		s.output(s.kanji.KatakanaFor(s.romaji.Commit()))
		s.clearDisplay()
	case StateConvert:
		s.commitSegment(s.kanji.CurrentReadingAsKatakana())
	}
}

// selectByDigit commits the candidate numbered 1-9 if it exists.
func (s *Session) selectByDigit(text string) bool {
	if len(text) != 1 || text[0] < '1' || text[0] > '9' {
		return false
	}
	if !s.kanji.TrySelectCandidate(int(text[0] - '1')) {
		return false
	}
	s.commitSegment(s.kanji.CurrentCandidate())
	return true
}

func (s *Session) startConversion() {
	reading := s.romaji.Commit()
	if reading == "" {
		return
	}

	if s.kanji.StartConversion(reading) {
		s.reading = reading
		s.state = StateConvert
		s.updateCandidateDisplay()
		return
	}

	s.log.Debug("conversion unavailable, committing kana", "reading", reading)
	s.output(reading)
	s.clearDisplay()
}

// commitSegment accumulates text for the current segment and chains into
// whatever reading remains.
func (s *Session) commitSegment(text string) {
	remainder := s.kanji.RemainingReading()
	s.committed += text
	s.kanji.Reset()

	if remainder != "" {
		if s.kanji.StartConversion(remainder) {
			s.reading = remainder
			s.updateCandidateDisplay()
			return
		}
		s.committed += remainder
	}
	s.finish()
}

func (s *Session) finish() {
	s.log.Debug("commit", "text", s.committed)
	s.output(s.committed)
	s.committed = ""
	s.reading = ""
	s.state = StateInput
	s.clearDisplay()
}

// cancelConversion flushes segments already chosen. The cancelled reading
// stays visible in the preview and is not put back into the romaji buffer.
func (s *Session) cancelConversion() {
	s.kanji.Reset()
	s.state = StateInput
	s.output(s.committed)
	s.committed = ""
	s.display.ShowPreview(s.reading)
	s.display.ShowCandidates(nil, -1)
	s.reading = ""
}

func (s *Session) output(text string) {
	if text != "" {
		s.sink.Append(text)
	}
}

func (s *Session) updateInputDisplay() {
	s.display.ShowPreview(s.romaji.DisplayText())
	s.display.ShowCandidates(nil, -1)
}

func (s *Session) updateCandidateDisplay() {
	s.display.ShowPreview(s.committed + s.kanji.CurrentCandidate() + s.kanji.RemainingReading())
	s.display.ShowCandidates(s.kanji.Candidates(), s.kanji.CandidateIndex())
}

func (s *Session) clearDisplay() {
	s.display.ShowPreview("")
	s.display.ShowCandidates(nil, -1)
	s.committed = ""
}

func (s *Session) showStatus() {
	if s.enabled {
		s.display.ShowStatus(StatusEnabled)
	} else {
		s.display.ShowStatus(StatusDisabled)
	}
}
