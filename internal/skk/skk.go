// Package skk converts SKK-JISYO dictionaries into romakan entries.
//
// Only okuri-nasi readings are kept. A line looks like
//
//	かんじ /漢字/感じ;feeling/幹事/
package skk

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/jwulff/romakan/internal/dict"
)

// MaxCandidateLen is the longest candidate kept, in runes.
const MaxCandidateLen = 20

// Parse reads an EUC-JP encoded SKK dictionary.
func Parse(r io.Reader) ([]dict.Entry, error) {
	return ParseUTF8(transform.NewReader(r, japanese.EUCJP.NewDecoder()))
}

// ParseUTF8 reads an SKK dictionary that is already UTF-8. Readings that
// appear more than once are merged in first-seen order.
func ParseUTF8(r io.Reader) ([]dict.Entry, error) {
	var entries []dict.Entry
	index := make(map[string]int)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		reading, candidates, ok := parseLine(sc.Text())
		if !ok {
			continue
		}
		i, seen := index[reading]
		if !seen {
			index[reading] = len(entries)
			entries = append(entries, dict.Entry{Reading: reading, Candidates: candidates})
			continue
		}
		for _, c := range candidates {
			if !contains(entries[i].Candidates, c) {
				entries[i].Candidates = append(entries[i].Candidates, c)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read skk dictionary: %w", err)
	}
	return entries, nil
}

func parseLine(line string) (string, []string, bool) {
	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" || strings.HasPrefix(line, ";") {
		return "", nil, false
	}

	sp := strings.IndexByte(line, ' ')
	if sp <= 0 {
		return "", nil, false
	}
	reading, rest := line[:sp], line[sp+1:]
	if isOkuriAri(reading) {
		return "", nil, false
	}

	var candidates []string
	for _, part := range strings.Split(rest, "/") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		// annotation
		if i := strings.IndexByte(part, ';'); i > 0 {
			part = part[:i]
		}
		if strings.TrimSpace(part) == "" || utf8.RuneCountInString(part) > MaxCandidateLen {
			continue
		}
		if !contains(candidates, part) {
			candidates = append(candidates, part)
		}
	}
	if len(candidates) == 0 {
		return "", nil, false
	}
	return reading, candidates, true
}

// isOkuriAri reports whether reading ends in an ASCII letter, as in "かk".
func isOkuriAri(reading string) bool {
	b := reading[len(reading)-1]
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// WriteTSV writes entries as "reading<TAB>cand1,cand2" lines. Candidates that
// contain a comma cannot be represented and are left out, as are entries
// left with no candidates. It returns the number of lines written.
func WriteTSV(w io.Writer, entries []dict.Entry) (int, error) {
	bw := bufio.NewWriter(w)
	n := 0
	for _, e := range entries {
		kept := make([]string, 0, len(e.Candidates))
		for _, c := range e.Candidates {
			if !strings.Contains(c, ",") {
				kept = append(kept, c)
			}
		}
		if len(kept) == 0 {
			continue
		}
		if _, err := fmt.Fprintf(bw, "%s\t%s\n", e.Reading, strings.Join(kept, ",")); err != nil {
			return n, fmt.Errorf("write tsv: %w", err)
		}
		n++
	}
	if err := bw.Flush(); err != nil {
		return n, fmt.Errorf("write tsv: %w", err)
	}
	return n, nil
}
