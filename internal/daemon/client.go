package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/jwulff/romakan/internal/config"
)

// ErrServerClosed is returned when the server hangs up before answering.
var ErrServerClosed = errors.New("server closed connection")

const dialTimeout = 2 * time.Second

// SocketPath returns the default server socket path.
func SocketPath() string {
	return config.DefaultConfig().Server.Socket
}

// Client talks to a romakan server over a Unix socket. Commands are
// serialised so one response is read per command.
type Client struct {
	mu   sync.Mutex
	conn net.Conn
	enc  *json.Encoder
	dec  *json.Decoder
}

// Connect dials the server Unix socket.
func Connect(socketPath string) (*Client, error) {
	conn, err := net.DialTimeout("unix", socketPath, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("connect to server: %w", err)
	}
	return &Client{conn: conn, enc: json.NewEncoder(conn), dec: json.NewDecoder(conn)}, nil
}

// Close shuts down the connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// SendCommand writes cmd as one JSON line and decodes the reply.
func (c *Client) SendCommand(cmd Command) (Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.enc.Encode(cmd); err != nil {
		return Response{}, fmt.Errorf("write %s command: %w", cmd.Cmd, err)
	}

	var resp Response
	if err := c.dec.Decode(&resp); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Response{}, ErrServerClosed
		}
		return Response{}, fmt.Errorf("read %s response: %w", cmd.Cmd, err)
	}
	return resp, nil
}

// SendKey sends one key event. text is only used with KeyChar.
func (c *Client) SendKey(key, text string) (Response, error) {
	return c.SendCommand(Command{Cmd: CmdKey, Key: key, Text: text})
}

// Type sends text one rune at a time, spaces as conversion keys, then Enter,
// and returns everything committed along the way.
func (c *Client) Type(text string) ([]string, error) {
	var committed []string
	send := func(key, text string) error {
		resp, err := c.SendKey(key, text)
		if err != nil {
			return err
		}
		if !resp.OK {
			return fmt.Errorf("key %s: %s", key, resp.Error)
		}
		committed = append(committed, resp.Committed...)
		return nil
	}

	for _, r := range text {
		var err error
		if r == ' ' {
			err = send(KeySpace, "")
		} else {
			err = send(KeyChar, string(r))
		}
		if err != nil {
			return committed, err
		}
	}
	if err := send(KeyEnter, ""); err != nil {
		return committed, err
	}
	return committed, nil
}
