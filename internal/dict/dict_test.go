package dict

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

const testTSV = "わたし\t私,渡し\n" +
	"は\tは,歯,葉\n" +
	"ねこ\t猫\n" +
	"\n" +
	"no tab here\n" +
	"\t空読み\n" +
	"から\t , \n" +
	"わたし\t渡し, 私 ,綿し\r\n"

func TestLoad(t *testing.T) {
	d, err := Load(strings.NewReader(testTSV))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if d.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", d.Len())
	}
	// no tab, empty reading, no candidates
	if d.Skipped() != 3 {
		t.Errorf("Skipped() = %d, want 3", d.Skipped())
	}

	e, ok := d.FindExact("わたし")
	if !ok {
		t.Fatal("わたし not found")
	}
	want := []string{"私", "渡し", "綿し"}
	if !reflect.DeepEqual(e.Candidates, want) {
		t.Errorf("わたし candidates = %q, want %q", e.Candidates, want)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestLoadReadError(t *testing.T) {
	if _, err := Load(failingReader{}); err == nil {
		t.Error("expected read error")
	}
}

func TestNewMergesDuplicates(t *testing.T) {
	d := New([]Entry{
		{Reading: "かみ", Candidates: []string{"紙", "神"}},
		{Reading: "かみ", Candidates: []string{"神", "髪", "紙"}},
		{Reading: "", Candidates: []string{"無"}},
	})
	e, _ := d.FindExact("かみ")
	want := []string{"紙", "神", "髪"}
	if !reflect.DeepEqual(e.Candidates, want) {
		t.Errorf("candidates = %q, want %q", e.Candidates, want)
	}
	if d.Len() != 1 {
		t.Errorf("Len() = %d, want 1", d.Len())
	}
}

func TestScanPrefixesOf(t *testing.T) {
	d := FromLines([]string{
		"わ\t輪",
		"わた\t綿",
		"わたし\t私",
		"わたしは\t私は",
		"たし\t足し",
	})

	got := d.ScanPrefixesOf("わたしは")
	var readings []string
	for _, e := range got {
		readings = append(readings, e.Reading)
	}
	want := []string{"わ", "わた", "わたし"}
	if !reflect.DeepEqual(readings, want) {
		t.Errorf("ScanPrefixesOf = %q, want %q", readings, want)
	}

	if got := d.ScanPrefixesOf(""); len(got) != 0 {
		t.Errorf("ScanPrefixesOf(\"\") = %v, want none", got)
	}
	if got := d.ScanPrefixesOf("わ"); len(got) != 0 {
		t.Errorf("exact match must not count as strict prefix, got %v", got)
	}
}

func TestLongestPrefixLen(t *testing.T) {
	d := FromLines([]string{"は\t歯", "はし\t橋", "ねこ\t猫"})
	tests := []struct {
		text string
		want int
	}{
		{"はしる", 2},
		{"はし", 2},
		{"はな", 1},
		{"ねこ", 2},
		{"いぬ", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := d.LongestPrefixLen(tt.text); got != tt.want {
			t.Errorf("LongestPrefixLen(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestProlongedSoundMarkIsNotHa(t *testing.T) {
	d := FromLines([]string{"は\t歯"})
	if got := d.ScanPrefixesOf("ーは"); len(got) != 0 {
		t.Errorf("ー must not match は, got %v", got)
	}
	if got := d.LongestPrefixLen("ー"); got != 0 {
		t.Errorf("LongestPrefixLen(ー) = %d, want 0", got)
	}
	if _, ok := d.FindExact("ー"); ok {
		t.Error("FindExact(ー) should miss")
	}
}

func TestEntriesSortedCopy(t *testing.T) {
	d := FromLines([]string{"ねこ\t猫", "いぬ\t犬"})
	entries := d.Entries()
	if len(entries) != 2 || entries[0].Reading != "いぬ" || entries[1].Reading != "ねこ" {
		t.Fatalf("Entries() = %v", entries)
	}
	entries[0].Candidates[0] = "changed"
	e, _ := d.FindExact("いぬ")
	if e.Candidates[0] != "犬" {
		t.Error("Entries() must return a copy")
	}
}

func TestNilDictionary(t *testing.T) {
	var d *Dictionary
	if _, ok := d.FindExact("は"); ok {
		t.Error("nil dictionary should not match")
	}
	if d.Len() != 0 || d.LongestPrefixLen("は") != 0 || d.ScanPrefixesOf("はし") != nil {
		t.Error("nil dictionary should be empty")
	}
}
