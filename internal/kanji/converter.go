// Package kanji converts a kana reading into dictionary segments and keeps
// the candidate cursor for the segment being converted.
package kanji

import (
	"log/slog"
	"unicode/utf8"

	"github.com/jwulff/romakan/internal/dict"
	"github.com/jwulff/romakan/internal/kana"
	"github.com/jwulff/romakan/internal/logging"
)

// Loader supplies the dictionary on first use.
type Loader func() (*dict.Dictionary, error)

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger used for conversion tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Converter) { c.log = l }
}

// Converter holds one conversion segment. It is not safe for concurrent use.
type Converter struct {
	dict *dict.Dictionary
	load Loader
	log  *slog.Logger

	full       []rune // whole reading handed to StartConversion
	matched    int    // runes of full covered by the current segment
	candidates []string
	index      int
}

// New returns a converter over a loaded dictionary.
func New(d *dict.Dictionary, opts ...Option) *Converter {
	c := &Converter{dict: d}
	c.apply(opts)
	return c
}

// NewWithLoader returns a converter that loads its dictionary lazily. A
// failed load is retried on the next StartConversion.
func NewWithLoader(load Loader, opts ...Option) *Converter {
	c := &Converter{load: load}
	c.apply(opts)
	return c
}

func (c *Converter) apply(opts []Option) {
	c.log = logging.Discard()
	for _, o := range opts {
		o(c)
	}
}

func (c *Converter) ensureDictionary() bool {
	if c.dict != nil {
		return true
	}
	if c.load == nil {
		return false
	}
	d, err := c.load()
	if err != nil {
		c.log.Warn("dictionary unavailable", "error", err)
		return false
	}
	c.dict = d
	c.log.Info("dictionary loaded", "entries", d.Len())
	return true
}

// StartConversion picks the first segment of reading. It fails only for an
// empty reading or a dictionary that cannot be loaded.
func (c *Converter) StartConversion(reading string) bool {
	if reading == "" || !c.ensureDictionary() {
		c.Reset()
		return false
	}

	c.full = []rune(reading)
	c.index = 0

	if e, ok := c.dict.FindExact(reading); ok {
		c.log.Debug("exact match", "reading", reading)
		c.setEntry(e)
		return true
	}

	if e, score, ok := c.bestPrefix(reading); ok {
		c.log.Debug("lookahead match", "reading", reading, "segment", e.Reading, "score", score)
		c.setEntry(e)
		return true
	}

	c.log.Debug("no match", "reading", reading)
	c.setLiteral(len(c.full))
	return true
}

// bestPrefix scores every dictionary reading that strictly prefixes reading
// by its own length plus the longest match on what follows. Ties go to the
// shorter segment so a particle is not swallowed by a longer neighbour.
func (c *Converter) bestPrefix(reading string) (dict.Entry, int, bool) {
	var best dict.Entry
	bestScore, bestLen := -1, 0
	for _, e := range c.dict.ScanPrefixesOf(reading) {
		n := utf8.RuneCountInString(e.Reading)
		score := n + c.dict.LongestPrefixLen(reading[len(e.Reading):])
		if score > bestScore || (score == bestScore && n < bestLen) {
			best, bestScore, bestLen = e, score, n
		}
	}
	return best, bestScore, bestScore >= 0
}

// setEntry builds [top, reading, rest..., katakana] for a dictionary hit.
func (c *Converter) setEntry(e dict.Entry) {
	c.matched = utf8.RuneCountInString(e.Reading)
	cands := make([]string, 0, len(e.Candidates)+2)
	cands = append(cands, e.Candidates[0], e.Reading)
	cands = append(cands, e.Candidates[1:]...)
	if k := kana.HiraganaToKatakana(e.Reading); k != e.Reading {
		cands = append(cands, k)
	}
	c.candidates = cands
}

// setLiteral covers the first n runes with the reading itself and its
// katakana form.
func (c *Converter) setLiteral(n int) {
	c.matched = n
	seg := string(c.full[:n])
	c.candidates = []string{seg}
	if k := kana.HiraganaToKatakana(seg); k != seg {
		c.candidates = append(c.candidates, k)
	}
}

// NextCandidate advances the cursor cyclically and returns the candidate.
func (c *Converter) NextCandidate() string {
	if len(c.candidates) == 0 {
		return string(c.full)
	}
	c.index = (c.index + 1) % len(c.candidates)
	return c.candidates[c.index]
}

// PreviousCandidate moves the cursor back cyclically and returns the
// candidate.
func (c *Converter) PreviousCandidate() string {
	if len(c.candidates) == 0 {
		return string(c.full)
	}
	c.index--
	if c.index < 0 {
		c.index = len(c.candidates) - 1
	}
	return c.candidates[c.index]
}

// CurrentCandidate returns the candidate under the cursor.
func (c *Converter) CurrentCandidate() string {
	if len(c.candidates) == 0 {
		return string(c.full)
	}
	return c.candidates[c.index]
}

// Candidates returns a copy of the current candidate list.
func (c *Converter) Candidates() []string {
	return append([]string(nil), c.candidates...)
}

// CandidateIndex returns the cursor position.
func (c *Converter) CandidateIndex() int { return c.index }

// TrySelectCandidate moves the cursor to i if it is in range.
func (c *Converter) TrySelectCandidate(i int) bool {
	if i < 0 || i >= len(c.candidates) {
		return false
	}
	c.index = i
	return true
}

// Active reports whether a segment is being converted.
func (c *Converter) Active() bool { return len(c.full) > 0 }

// FullReading returns the whole reading under conversion.
func (c *Converter) FullReading() string { return string(c.full) }

// Reading returns the kana covered by the current segment.
func (c *Converter) Reading() string { return string(c.full[:c.matched]) }

// MatchedLength returns the segment length in runes.
func (c *Converter) MatchedLength() int { return c.matched }

// RemainingReading returns the reading after the current segment.
func (c *Converter) RemainingReading() string { return string(c.full[c.matched:]) }

// ShrinkSegment drops the last rune from the segment.
func (c *Converter) ShrinkSegment() bool {
	if len(c.full) == 0 || c.matched <= 1 {
		return false
	}
	c.resize(c.matched - 1)
	return true
}

// ExtendSegment pulls the next rune of the reading into the segment.
func (c *Converter) ExtendSegment() bool {
	if len(c.full) == 0 || c.matched >= len(c.full) {
		return false
	}
	c.resize(c.matched + 1)
	return true
}

// resize re-runs only the exact lookup at the new length.
func (c *Converter) resize(n int) {
	c.index = 0
	seg := string(c.full[:n])
	if e, ok := c.dict.FindExact(seg); ok {
		c.setEntry(e)
		return
	}
	c.setLiteral(n)
}

// CurrentReadingAsKatakana returns the segment reading in katakana.
func (c *Converter) CurrentReadingAsKatakana() string {
	return kana.HiraganaToKatakana(c.Reading())
}

// KatakanaFor converts any hiragana text to katakana.
func (c *Converter) KatakanaFor(text string) string {
	return kana.HiraganaToKatakana(text)
}

// Reset clears the segment.
func (c *Converter) Reset() {
	c.full = nil
	c.matched = 0
	c.candidates = nil
	c.index = 0
}
