package ime

import (
	"errors"
	"reflect"
	"testing"

	"github.com/jwulff/romakan/internal/dict"
	"github.com/jwulff/romakan/internal/kanji"
)

// recorder is a Display and TextSink that remembers what it was given.
type recorder struct {
	preview    string
	candidates []string
	highlight  int
	status     string
	appends    []string
}

func (r *recorder) ShowPreview(text string) { r.preview = text }

func (r *recorder) ShowCandidates(c []string, highlight int) {
	r.candidates = c
	r.highlight = highlight
}

func (r *recorder) ShowStatus(status string) { r.status = status }

func (r *recorder) Append(text string) { r.appends = append(r.appends, text) }

func newTestSession(t *testing.T) (*Session, *recorder) {
	t.Helper()
	d := dict.FromLines([]string{
		"わたし\t私,渡し",
		"は\tは,歯,葉",
		"ねこ\t猫",
		"かんじ\t漢字,感じ",
	})
	rec := &recorder{}
	return New(kanji.New(d), rec, rec), rec
}

func typeString(s *Session, text string) {
	for _, r := range text {
		s.OnCharacter(string(r))
	}
}

func TestNewSession(t *testing.T) {
	s, rec := newTestSession(t)
	if s.State() != StateInput {
		t.Errorf("state = %v, want input", s.State())
	}
	if !s.Enabled() {
		t.Error("session should start enabled")
	}
	if rec.status != StatusEnabled {
		t.Errorf("status = %q, want %q", rec.status, StatusEnabled)
	}
	if s.Composing() {
		t.Error("new session should not be composing")
	}
}

func TestTypingUpdatesPreview(t *testing.T) {
	s, rec := newTestSession(t)
	typeString(s, "nek")
	if rec.preview != "ねk" {
		t.Errorf("preview = %q, want %q", rec.preview, "ねk")
	}
	if rec.candidates != nil {
		t.Errorf("candidates = %q, want none", rec.candidates)
	}
	if !s.Composing() {
		t.Error("session should be composing")
	}
}

func TestEnterInInputCommitsKana(t *testing.T) {
	s, rec := newTestSession(t)
	typeString(s, "hon")
	s.OnEnter()
	if !reflect.DeepEqual(rec.appends, []string{"ほん"}) {
		t.Errorf("appends = %q, want [ほん]", rec.appends)
	}
	if rec.preview != "" {
		t.Errorf("preview = %q, want empty", rec.preview)
	}
}

func TestEnterWithEmptyBufferAppendsNothing(t *testing.T) {
	s, rec := newTestSession(t)
	s.OnEnter()
	s.OnSpace()
	if len(rec.appends) != 0 {
		t.Errorf("appends = %q, want none", rec.appends)
	}
	if s.State() != StateInput {
		t.Errorf("state = %v, want input", s.State())
	}
}

func TestSpaceStartsConversion(t *testing.T) {
	s, rec := newTestSession(t)
	typeString(s, "watashiha")
	s.OnSpace()
	if s.State() != StateConvert {
		t.Fatalf("state = %v, want convert", s.State())
	}
	if rec.preview != "私は" {
		t.Errorf("preview = %q, want %q", rec.preview, "私は")
	}
	want := []string{"私", "わたし", "渡し", "ワタシ"}
	if !reflect.DeepEqual(rec.candidates, want) || rec.highlight != 0 {
		t.Errorf("candidates = %q highlight %d", rec.candidates, rec.highlight)
	}

	s.OnSpace()
	if rec.preview != "わたしは" || rec.highlight != 1 {
		t.Errorf("after second space preview = %q highlight %d", rec.preview, rec.highlight)
	}

	s.OnPreviousCandidate()
	if rec.highlight != 0 {
		t.Errorf("after previous highlight = %d, want 0", rec.highlight)
	}
}

func TestMultiSegmentCommit(t *testing.T) {
	s, rec := newTestSession(t)
	typeString(s, "watashihaneko")
	s.OnSpace()

	s.OnEnter()
	if s.State() != StateConvert {
		t.Fatalf("after first enter state = %v, want convert", s.State())
	}
	if rec.preview != "私はねこ" {
		t.Errorf("preview = %q, want %q", rec.preview, "私はねこ")
	}
	if len(rec.appends) != 0 {
		t.Fatalf("nothing should be committed yet, got %q", rec.appends)
	}

	s.OnEnter()
	if rec.preview != "私は猫" {
		t.Errorf("preview = %q, want %q", rec.preview, "私は猫")
	}

	s.OnEnter()
	if !reflect.DeepEqual(rec.appends, []string{"私は猫"}) {
		t.Errorf("appends = %q, want exactly [私は猫]", rec.appends)
	}
	if s.State() != StateInput {
		t.Errorf("state = %v, want input", s.State())
	}
	if rec.preview != "" || rec.candidates != nil {
		t.Errorf("display not cleared: preview=%q candidates=%q", rec.preview, rec.candidates)
	}
}

func TestDigitSelectsAndCommits(t *testing.T) {
	s, rec := newTestSession(t)
	typeString(s, "kanji")
	s.OnSpace()
	s.OnCharacter("3")
	if !reflect.DeepEqual(rec.appends, []string{"感じ"}) {
		t.Errorf("appends = %q, want [感じ]", rec.appends)
	}
	if s.State() != StateInput {
		t.Errorf("state = %v, want input", s.State())
	}
}

func TestCharacterInConvertCommitsThenTypes(t *testing.T) {
	s, rec := newTestSession(t)
	typeString(s, "neko")
	s.OnSpace()
	s.OnCharacter("k")
	if !reflect.DeepEqual(rec.appends, []string{"猫"}) {
		t.Errorf("appends = %q, want [猫]", rec.appends)
	}
	if s.State() != StateInput {
		t.Errorf("state = %v, want input", s.State())
	}
	if rec.preview != "k" {
		t.Errorf("preview = %q, want %q", rec.preview, "k")
	}

	s.OnCharacter("a")
	if rec.preview != "か" {
		t.Errorf("preview = %q, want %q", rec.preview, "か")
	}
}

func TestCharacterInConvertCommitsOneSegment(t *testing.T) {
	s, rec := newTestSession(t)
	typeString(s, "watashiha")
	s.OnSpace()
	s.OnCharacter("k")
	if len(rec.appends) != 0 {
		t.Errorf("appends = %q, want none until the chain finishes", rec.appends)
	}
	if s.State() != StateConvert {
		t.Errorf("state = %v, want convert", s.State())
	}
	if got := s.kanji.Reading(); got != "は" {
		t.Errorf("segment = %q, want %q", got, "は")
	}
	if rec.preview != "k" {
		t.Errorf("preview = %q, want %q", rec.preview, "k")
	}
	if rec.candidates != nil {
		t.Errorf("candidates = %q, want none while typing", rec.candidates)
	}

	s.OnCharacter("a")
	if !reflect.DeepEqual(rec.appends, []string{"私は"}) {
		t.Errorf("appends = %q, want [私は]", rec.appends)
	}
	if s.State() != StateInput {
		t.Errorf("state = %v, want input", s.State())
	}
	if rec.preview != "か" {
		t.Errorf("preview = %q, want %q", rec.preview, "か")
	}
}

func TestOutOfRangeDigitFallsThrough(t *testing.T) {
	s, rec := newTestSession(t)
	typeString(s, "neko")
	s.OnSpace()
	s.OnCharacter("9")
	if !reflect.DeepEqual(rec.appends, []string{"猫"}) {
		t.Errorf("appends = %q, want [猫]", rec.appends)
	}
	if rec.preview != "9" {
		t.Errorf("preview = %q, want %q", rec.preview, "9")
	}
}

func TestBackspaceCancelsConversion(t *testing.T) {
	s, rec := newTestSession(t)
	typeString(s, "neko")
	s.OnSpace()
	s.OnBackspace()
	if s.State() != StateInput {
		t.Errorf("state = %v, want input", s.State())
	}
	if len(rec.appends) != 0 {
		t.Errorf("appends = %q, want none", rec.appends)
	}
	// The reading stays visible but is not restored to the romaji buffer.
	if rec.preview != "ねこ" {
		t.Errorf("preview = %q, want %q", rec.preview, "ねこ")
	}
	if s.Composing() {
		t.Error("romaji buffer should be empty after cancel")
	}
	s.OnEnter()
	if len(rec.appends) != 0 {
		t.Errorf("enter after cancel appended %q", rec.appends)
	}
}

func TestCancelFlushesChainedSegments(t *testing.T) {
	s, rec := newTestSession(t)
	typeString(s, "watashihaneko")
	s.OnSpace()
	s.OnEnter()
	s.OnEnter()
	s.OnEscape()
	if !reflect.DeepEqual(rec.appends, []string{"私は"}) {
		t.Errorf("appends = %q, want [私は]", rec.appends)
	}
	if s.State() != StateInput {
		t.Errorf("state = %v, want input", s.State())
	}
	if rec.preview != "" {
		t.Errorf("escape should clear the preview, got %q", rec.preview)
	}
}

func TestEscapeClearsInput(t *testing.T) {
	s, rec := newTestSession(t)
	typeString(s, "neko")
	s.OnEscape()
	if s.Composing() || rec.preview != "" {
		t.Errorf("escape left preview %q", rec.preview)
	}
}

func TestBackspaceInInput(t *testing.T) {
	s, rec := newTestSession(t)
	typeString(s, "nek")
	s.OnBackspace()
	if rec.preview != "ね" {
		t.Errorf("preview = %q, want %q", rec.preview, "ね")
	}
}

func TestShrinkExtend(t *testing.T) {
	s, rec := newTestSession(t)
	s.OnShrinkSegment() // no-op in input
	typeString(s, "kanji")
	s.OnSpace()
	s.OnShrinkSegment()
	if rec.preview != "かんじ" {
		t.Errorf("preview = %q, want %q", rec.preview, "かんじ")
	}
	if !reflect.DeepEqual(rec.candidates, []string{"かん", "カン"}) {
		t.Errorf("candidates = %q", rec.candidates)
	}
	s.OnExtendSegment()
	if rec.preview != "漢字" {
		t.Errorf("preview = %q, want %q", rec.preview, "漢字")
	}
}

func TestCommitAsHiraganaInConvert(t *testing.T) {
	s, rec := newTestSession(t)
	typeString(s, "watashiha")
	s.OnSpace()
	s.OnCommitAsHiragana()
	if s.State() != StateConvert {
		t.Fatalf("state = %v, want convert on remainder", s.State())
	}
	s.OnCommitAsKatakana()
	if !reflect.DeepEqual(rec.appends, []string{"わたしハ"}) {
		t.Errorf("appends = %q, want [わたしハ]", rec.appends)
	}
}

func TestCommitAsInInput(t *testing.T) {
	s, rec := newTestSession(t)
	typeString(s, "neko")
	s.OnCommitAsKatakana()
	typeString(s, "inu")
	s.OnCommitAsHiragana()
	want := []string{"ネコ", "いぬ"}
	if !reflect.DeepEqual(rec.appends, want) {
		t.Errorf("appends = %q, want %q", rec.appends, want)
	}
}

func TestDisabledPassthrough(t *testing.T) {
	s, rec := newTestSession(t)
	s.OnToggleEnabled()
	if s.Enabled() || rec.status != StatusDisabled {
		t.Fatalf("toggle should disable, status %q", rec.status)
	}

	s.OnCharacter("a")
	if !reflect.DeepEqual(rec.appends, []string{"a"}) {
		t.Errorf("appends = %q, want [a]", rec.appends)
	}
	if s.Composing() || s.State() != StateInput {
		t.Error("disabled input must not reach the converters")
	}

	s.OnSpace()
	s.OnEnter()
	want := []string{"a", " ", "\n"}
	if !reflect.DeepEqual(rec.appends, want) {
		t.Errorf("appends = %q, want %q", rec.appends, want)
	}

	s.OnToggleEnabled()
	if !s.Enabled() || rec.status != StatusEnabled {
		t.Error("second toggle should enable")
	}
}

func TestToggleOffCancelsConversion(t *testing.T) {
	s, rec := newTestSession(t)
	typeString(s, "neko")
	s.OnSpace()
	s.OnToggleEnabled()
	if s.State() != StateInput {
		t.Errorf("state = %v, want input", s.State())
	}
	if len(rec.appends) != 0 {
		t.Errorf("appends = %q, want none", rec.appends)
	}
}

func TestConversionUnavailableCommitsKana(t *testing.T) {
	rec := &recorder{}
	kc := kanji.NewWithLoader(func() (*dict.Dictionary, error) {
		return nil, errors.New("no dictionary")
	})
	s := New(kc, rec, rec)
	typeString(s, "neko")
	s.OnSpace()
	if !reflect.DeepEqual(rec.appends, []string{"ねこ"}) {
		t.Errorf("appends = %q, want [ねこ]", rec.appends)
	}
	if s.State() != StateInput {
		t.Errorf("state = %v, want input", s.State())
	}
}

func TestWithEnabledOption(t *testing.T) {
	rec := &recorder{}
	s := New(kanji.New(dict.New(nil)), rec, rec, WithEnabled(false))
	if s.Enabled() || rec.status != StatusDisabled {
		t.Error("WithEnabled(false) should start disabled")
	}
}

func TestStateString(t *testing.T) {
	if StateInput.String() != "input" || StateConvert.String() != "convert" {
		t.Error("unexpected state names")
	}
}
