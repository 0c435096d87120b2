package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"

	"github.com/jwulff/romakan/internal/dict"
	"github.com/jwulff/romakan/internal/ime"
	"github.com/jwulff/romakan/internal/kanji"
	"github.com/jwulff/romakan/internal/logging"
)

// Server runs one IME session per connection against a shared dictionary.
type Server struct {
	dict *dict.Dictionary
	log  *slog.Logger

	// StartEnabled is the enabled flag of new sessions.
	StartEnabled bool

	mu      sync.Mutex
	conns   map[net.Conn]struct{}
	closing bool
	wg      sync.WaitGroup
}

// NewServer creates a server. A nil dictionary serves kana-only sessions.
func NewServer(d *dict.Dictionary, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Server{
		dict:         d,
		log:          logger,
		StartEnabled: true,
		conns:        make(map[net.Conn]struct{}),
	}
}

// ListenAndServe listens on the Unix socket at path, replacing a stale
// socket file, and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale socket: %w", err)
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	defer os.Remove(path)
	s.log.Info("listening", "socket", path)
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled or Accept fails,
// then closes open connections and waits for their handlers.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		ln.Close()
		s.closeConns()
	}()

	defer s.wg.Wait()
	defer close(done)
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		if !s.track(conn) {
			conn.Close()
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)
			s.handle(conn)
		}()
	}
}

// track registers conn unless the server is shutting down.
func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	conn.Close()
}

func (s *Server) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closing = true
	for conn := range s.conns {
		conn.Close()
	}
}

func (s *Server) handle(conn net.Conn) {
	log := s.log.With("conn", fmt.Sprintf("%p", conn))
	log.Debug("client connected")
	defer log.Debug("client disconnected")

	sess := s.newSession(log)

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	enc := json.NewEncoder(conn)

	for scanner.Scan() {
		var cmd Command
		var resp Response
		if err := json.Unmarshal(scanner.Bytes(), &cmd); err != nil {
			resp = sess.response()
			resp.OK = false
			resp.Error = fmt.Sprintf("invalid command: %v", err)
		} else {
			if cmd.Cmd == CmdReset {
				sess = s.newSession(log)
			}
			resp = sess.apply(cmd)
		}
		if err := enc.Encode(resp); err != nil {
			log.Debug("write response", "error", err)
			return
		}
	}
	if err := scanner.Err(); err != nil {
		log.Debug("read command", "error", err)
	}
}

func (s *Server) newSession(log *slog.Logger) *connSession {
	cs := &connSession{highlight: -1}
	kc := kanji.New(s.dict, kanji.WithLogger(log))
	cs.session = ime.New(kc, cs, cs, ime.WithLogger(log), ime.WithEnabled(s.StartEnabled))
	return cs
}

// connSession records what a session displays and commits so each command
// can report it.
type connSession struct {
	session *ime.Session

	preview    string
	candidates []string
	highlight  int
	status     string
	committed  []string
}

func (c *connSession) ShowPreview(text string) { c.preview = text }

func (c *connSession) ShowCandidates(candidates []string, highlight int) {
	c.candidates = candidates
	c.highlight = highlight
}

func (c *connSession) ShowStatus(status string) { c.status = status }

func (c *connSession) Append(text string) { c.committed = append(c.committed, text) }

func (c *connSession) apply(cmd Command) Response {
	switch cmd.Cmd {
	case CmdStatus, CmdReset:
		return c.response()
	case CmdKey:
		if err := c.key(cmd.Key, cmd.Text); err != nil {
			resp := c.response()
			resp.OK = false
			resp.Error = err.Error()
			return resp
		}
		return c.response()
	}
	resp := c.response()
	resp.OK = false
	resp.Error = fmt.Sprintf("unknown command: %q", cmd.Cmd)
	return resp
}

func (c *connSession) key(key, text string) error {
	s := c.session
	switch key {
	case KeyChar:
		if text == "" {
			return errors.New("char key needs text")
		}
		s.OnCharacter(text)
	case KeySpace:
		s.OnSpace()
	case KeyEnter:
		s.OnEnter()
	case KeyBackspace:
		s.OnBackspace()
	case KeyEscape:
		s.OnEscape()
	case KeyToggle:
		s.OnToggleEnabled()
	case KeyShrink:
		s.OnShrinkSegment()
	case KeyExtend:
		s.OnExtendSegment()
	case KeyPrev:
		s.OnPreviousCandidate()
	case KeyHiragana:
		s.OnCommitAsHiragana()
	case KeyKatakana:
		s.OnCommitAsKatakana()
	default:
		return fmt.Errorf("unknown key: %q", key)
	}
	return nil
}

// response snapshots the view and drains the commits since the last one.
func (c *connSession) response() Response {
	resp := Response{
		OK:         true,
		State:      c.session.State().String(),
		Enabled:    BoolPtr(c.session.Enabled()),
		Preview:    c.preview,
		Candidates: c.candidates,
		Highlight:  IntPtr(c.highlight),
		Committed:  c.committed,
		Status:     c.status,
	}
	c.committed = nil
	return resp
}
