package daemon

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jwulff/romakan/internal/dict"
)

// startServer serves a small dictionary on a temporary socket.
func startServer(t *testing.T) (string, func()) {
	t.Helper()

	d := dict.FromLines([]string{
		"わたし\t私,渡し",
		"ねこ\t猫",
		"は\t派,葉",
	})
	sockPath := filepath.Join(t.TempDir(), "romakan.sock")

	ctx, cancel := context.WithCancel(context.Background())
	srv := NewServer(d, nil)
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx, sockPath) }()

	// Wait for the socket to appear.
	deadline := time.Now().Add(2 * time.Second)
	for {
		conn, err := net.Dial("unix", sockPath)
		if err == nil {
			conn.Close()
			break
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("server did not start: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	return sockPath, func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("ListenAndServe: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("server did not stop")
		}
	}
}

func connect(t *testing.T, sockPath string) *Client {
	t.Helper()
	client, err := Connect(sockPath)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func typeKeys(t *testing.T, c *Client, romaji string) Response {
	t.Helper()
	var resp Response
	for _, r := range romaji {
		var err error
		resp, err = c.SendKey(KeyChar, string(r))
		if err != nil {
			t.Fatalf("send %q: %v", r, err)
		}
	}
	return resp
}

func TestServerStatus(t *testing.T) {
	sockPath, stop := startServer(t)
	defer stop()
	client := connect(t, sockPath)

	resp, err := client.SendCommand(Command{Cmd: CmdStatus})
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !resp.OK || resp.State != "input" || resp.Status != "あ" {
		t.Errorf("status = %+v", resp)
	}
	if resp.Enabled == nil || !*resp.Enabled {
		t.Errorf("enabled = %v, want true", resp.Enabled)
	}
}

func TestServerConvertAndCommit(t *testing.T) {
	sockPath, stop := startServer(t)
	defer stop()
	client := connect(t, sockPath)

	resp := typeKeys(t, client, "watashi")
	if resp.Preview != "わたし" {
		t.Errorf("preview = %q, want %q", resp.Preview, "わたし")
	}

	resp, err := client.SendKey(KeySpace, "")
	if err != nil {
		t.Fatalf("space: %v", err)
	}
	if resp.State != "convert" {
		t.Fatalf("state = %q, want convert", resp.State)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] != "私" {
		t.Errorf("candidates = %v, want 私 first", resp.Candidates)
	}
	if resp.Highlight == nil || *resp.Highlight != 0 {
		t.Errorf("highlight = %v, want 0", resp.Highlight)
	}

	resp, err = client.SendKey(KeyEnter, "")
	if err != nil {
		t.Fatalf("enter: %v", err)
	}
	if len(resp.Committed) != 1 || resp.Committed[0] != "私" {
		t.Errorf("committed = %v, want [私]", resp.Committed)
	}
	if resp.State != "input" || resp.Preview != "" {
		t.Errorf("after commit state=%q preview=%q", resp.State, resp.Preview)
	}

	// Commits are reported once.
	resp, _ = client.SendCommand(Command{Cmd: CmdStatus})
	if len(resp.Committed) != 0 {
		t.Errorf("status repeated committed = %v", resp.Committed)
	}
}

func TestServerChainsSegments(t *testing.T) {
	sockPath, stop := startServer(t)
	defer stop()
	client := connect(t, sockPath)

	committed, err := client.Type("watashihaneko ")
	if err != nil {
		t.Fatalf("type: %v", err)
	}
	// Type's Enter only chose the first segment; the text is held until
	// the last one is chosen.
	if len(committed) != 0 {
		t.Fatalf("committed after first enter = %v, want none", committed)
	}
	for i := 0; i < 3; i++ {
		resp, err := client.SendKey(KeyEnter, "")
		if err != nil {
			t.Fatalf("enter: %v", err)
		}
		committed = append(committed, resp.Committed...)
		if resp.State == "input" {
			break
		}
	}
	if len(committed) != 1 || committed[0] != "私派猫" {
		t.Errorf("committed = %v, want [私派猫]", committed)
	}
}

func TestServerSessionsAreIndependent(t *testing.T) {
	sockPath, stop := startServer(t)
	defer stop()
	a := connect(t, sockPath)
	b := connect(t, sockPath)

	typeKeys(t, a, "ne")
	resp, err := b.SendCommand(Command{Cmd: CmdStatus})
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if resp.Preview != "" {
		t.Errorf("second session preview = %q, want empty", resp.Preview)
	}
}

func TestServerReset(t *testing.T) {
	sockPath, stop := startServer(t)
	defer stop()
	client := connect(t, sockPath)

	typeKeys(t, client, "ne")
	client.SendKey(KeyToggle, "")

	resp, err := client.SendCommand(Command{Cmd: CmdReset})
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if resp.Preview != "" || resp.Enabled == nil || !*resp.Enabled {
		t.Errorf("after reset = %+v", resp)
	}
}

func TestServerErrors(t *testing.T) {
	sockPath, stop := startServer(t)
	defer stop()
	client := connect(t, sockPath)

	tests := []struct {
		name string
		cmd  Command
	}{
		{"unknown command", Command{Cmd: "dance"}},
		{"unknown key", Command{Cmd: CmdKey, Key: "f13"}},
		{"char without text", Command{Cmd: CmdKey, Key: KeyChar}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := client.SendCommand(tt.cmd)
			if err != nil {
				t.Fatalf("send: %v", err)
			}
			if resp.OK || resp.Error == "" {
				t.Errorf("resp = %+v, want error", resp)
			}
		})
	}

	// The connection survives errors.
	resp, err := client.SendCommand(Command{Cmd: CmdStatus})
	if err != nil || !resp.OK {
		t.Errorf("status after errors: %+v, %v", resp, err)
	}
}

func TestServerInvalidJSON(t *testing.T) {
	sockPath, stop := startServer(t)
	defer stop()

	conn, err := net.Dial("unix", sockPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("{not json\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	buf := make([]byte, 4096)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := string(buf[:n]); !strings.Contains(got, `"ok":false`) || !strings.Contains(got, "invalid command") {
		t.Errorf("response = %s", got)
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("unix", filepath.Join(t.TempDir(), "s.sock"))
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewServer(nil, nil).Serve(ctx, ln) }()

	// An idle client must not keep the server alive.
	conn, err := net.Dial("unix", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

// brokenListener fails every Accept and records Close.
type brokenListener struct {
	net.Listener
	closed chan struct{}
}

func (l *brokenListener) Accept() (net.Conn, error) { return nil, errors.New("accept broke") }

func (l *brokenListener) Close() error {
	close(l.closed)
	return nil
}

func TestServeAcceptErrorReleasesWatcher(t *testing.T) {
	ln := &brokenListener{closed: make(chan struct{})}

	err := NewServer(nil, nil).Serve(context.Background(), ln)
	if err == nil || !strings.Contains(err.Error(), "accept broke") {
		t.Fatalf("Serve = %v, want accept error", err)
	}

	// The context is never cancelled, so only Serve returning can close ln.
	select {
	case <-ln.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("listener not closed after Serve returned")
	}
}
