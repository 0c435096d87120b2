// Package dict holds the immutable reading to candidates table used for
// kana to kanji conversion.
package dict

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"
)

// Entry is one reading with its candidates in preference order.
type Entry struct {
	Reading    string
	Candidates []string
}

// Dictionary is safe for concurrent reads. It is never mutated after
// construction.
type Dictionary struct {
	index   map[string]int
	entries []Entry // sorted by reading
	skipped int
}

// New builds a dictionary from entries. Entries sharing a reading are merged,
// keeping the first-seen order of candidates and dropping duplicates.
func New(entries []Entry) *Dictionary {
	b := newBuilder()
	for _, e := range entries {
		b.add(e.Reading, e.Candidates)
	}
	return b.build()
}

// FromLines parses lines of the form "reading\tcand1,cand2,...".
// Lines without a tab, with an empty reading or with no candidates are
// skipped.
func FromLines(lines []string) *Dictionary {
	b := newBuilder()
	for _, line := range lines {
		b.addLine(line)
	}
	return b.build()
}

// Load reads a TSV dictionary. Only read errors are returned; malformed
// lines are counted in Skipped.
func Load(r io.Reader) (*Dictionary, error) {
	b := newBuilder()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		b.addLine(sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}
	return b.build(), nil
}

// FindExact returns the entry whose reading equals reading.
func (d *Dictionary) FindExact(reading string) (Entry, bool) {
	if d == nil {
		return Entry{}, false
	}
	i, ok := d.index[reading]
	if !ok {
		return Entry{}, false
	}
	return d.entries[i], true
}

// ScanPrefixesOf returns the entries whose reading is a strict prefix of
// text, shortest first. Comparison is by code point.
func (d *Dictionary) ScanPrefixesOf(text string) []Entry {
	if d == nil {
		return nil
	}
	var out []Entry
	for end := nextRuneEnd(text, 0); end < len(text); end = nextRuneEnd(text, end) {
		if i, ok := d.index[text[:end]]; ok {
			out = append(out, d.entries[i])
		}
	}
	return out
}

// LongestPrefixLen returns the length in runes of the longest reading that is
// a prefix of text, text itself included. It returns 0 when nothing matches.
func (d *Dictionary) LongestPrefixLen(text string) int {
	if d == nil {
		return 0
	}
	longest, n := 0, 0
	for end := 0; end < len(text); {
		end = nextRuneEnd(text, end)
		n++
		if _, ok := d.index[text[:end]]; ok {
			longest = n
		}
	}
	return longest
}

// nextRuneEnd returns the byte offset just past the rune starting at i.
func nextRuneEnd(s string, i int) int {
	_, size := utf8.DecodeRuneInString(s[i:])
	return i + size
}

// Len returns the number of distinct readings.
func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Entries returns a copy of all entries sorted by reading.
func (d *Dictionary) Entries() []Entry {
	if d == nil {
		return nil
	}
	out := make([]Entry, len(d.entries))
	for i, e := range d.entries {
		out[i] = Entry{Reading: e.Reading, Candidates: append([]string(nil), e.Candidates...)}
	}
	return out
}

// Skipped returns how many input lines were rejected as malformed.
func (d *Dictionary) Skipped() int {
	if d == nil {
		return 0
	}
	return d.skipped
}

type builder struct {
	order   []string
	cands   map[string][]string
	seen    map[string]map[string]struct{}
	skipped int
}

func newBuilder() *builder {
	return &builder{
		cands: make(map[string][]string),
		seen:  make(map[string]map[string]struct{}),
	}
}

func (b *builder) addLine(line string) {
	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" {
		return
	}
	reading, rest, ok := strings.Cut(line, "\t")
	if !ok || reading == "" {
		b.skipped++
		return
	}
	if !b.add(reading, strings.Split(rest, ",")) {
		b.skipped++
	}
}

// add merges candidates into reading and reports whether the entry had at
// least one usable candidate.
func (b *builder) add(reading string, candidates []string) bool {
	if reading == "" {
		return false
	}
	var kept []string
	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return false
	}

	seen, ok := b.seen[reading]
	if !ok {
		seen = make(map[string]struct{})
		b.seen[reading] = seen
		b.order = append(b.order, reading)
	}
	for _, c := range kept {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		b.cands[reading] = append(b.cands[reading], c)
	}
	return true
}

func (b *builder) build() *Dictionary {
	readings := append([]string(nil), b.order...)
	sort.Strings(readings)

	d := &Dictionary{
		index:   make(map[string]int, len(readings)),
		entries: make([]Entry, len(readings)),
		skipped: b.skipped,
	}
	for i, r := range readings {
		d.entries[i] = Entry{Reading: r, Candidates: b.cands[r]}
		d.index[r] = i
	}
	return d
}
