// Package mcptools exposes the conversion engine as MCP tools over stdio.
package mcptools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jwulff/romakan/internal/dict"
	"github.com/jwulff/romakan/internal/kana"
	"github.com/jwulff/romakan/internal/kanji"
	"github.com/jwulff/romakan/internal/logging"
	"github.com/jwulff/romakan/internal/romaji"
)

// Segment is one piece of a chained conversion.
type Segment struct {
	Reading    string
	Candidates []string
}

// Convert splits reading the way the IME does when every segment is
// accepted with its first candidate. It returns nil when nothing converts.
func Convert(d *dict.Dictionary, reading string) []Segment {
	kc := kanji.New(d)
	var segs []Segment
	for rest := reading; rest != ""; rest = kc.RemainingReading() {
		if !kc.StartConversion(rest) {
			break
		}
		segs = append(segs, Segment{Reading: kc.Reading(), Candidates: kc.Candidates()})
	}
	return segs
}

// ToKana converts romaji to kana, settling a trailing n.
func ToKana(text string) string {
	c := romaji.NewConverter()
	c.AddInput(text)
	return c.Commit()
}

type handlers struct {
	dict *dict.Dictionary
	log  *slog.Logger
}

// NewServer registers the romakan tools. d may be nil, in which case the
// convert tool reports an error.
func NewServer(d *dict.Dictionary, version string, logger *slog.Logger) *server.MCPServer {
	if logger == nil {
		logger = logging.Discard()
	}
	h := &handlers{dict: d, log: logger}

	s := server.NewMCPServer("romakan", version, server.WithToolCapabilities(false))

	s.AddTool(mcp.NewTool("romaji_to_kana",
		mcp.WithDescription("Convert romaji to hiragana using the IME's romaji table"),
		mcp.WithString("text", mcp.Required(), mcp.Description("Romaji such as \"kyouhaiitenki\"")),
	), h.romajiToKana)

	s.AddTool(mcp.NewTool("convert",
		mcp.WithDescription("Convert a kana (or romaji) reading to kanji, segment by segment, and list each segment's candidates"),
		mcp.WithString("reading", mcp.Required(), mcp.Description("Hiragana reading; romaji and katakana are converted first")),
	), h.convert)

	s.AddTool(mcp.NewTool("katakana",
		mcp.WithDescription("Convert hiragana (or romaji) to katakana"),
		mcp.WithString("text", mcp.Required(), mcp.Description("Hiragana or romaji")),
	), h.katakana)

	return s
}

// ServeStdio runs the server on stdin and stdout.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func (h *handlers) romajiToKana(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(ToKana(text)), nil
}

func (h *handlers) katakana(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(kana.HiraganaToKatakana(ToKana(text))), nil
}

func (h *handlers) convert(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reading, err := req.RequireString("reading")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if h.dict == nil {
		return mcp.NewToolResultError("dictionary unavailable"), nil
	}

	reading = normalizeReading(reading)
	segs := Convert(h.dict, reading)
	if len(segs) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("nothing to convert in %q", reading)), nil
	}
	h.log.Debug("convert", "reading", reading, "segments", len(segs))
	return mcp.NewToolResultText(formatSegments(segs)), nil
}

// normalizeReading turns romaji or katakana into the hiragana the
// dictionary is keyed by.
func normalizeReading(s string) string {
	if !kana.IsHiragana(s) {
		s = ToKana(s)
	}
	return kana.KatakanaToHiragana(s)
}

// formatSegments renders the joined first choices, then one line per
// segment: "reading: cand1, cand2".
func formatSegments(segs []Segment) string {
	var top, b strings.Builder
	for _, s := range segs {
		top.WriteString(s.Candidates[0])
		fmt.Fprintf(&b, "%s: %s\n", s.Reading, strings.Join(s.Candidates, ", "))
	}
	return top.String() + "\n" + b.String()
}
