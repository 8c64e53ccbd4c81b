package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/1broseidon/palettekit/internal/engine"
	"github.com/1broseidon/palettekit/internal/protocol"
)

// Client handles IPC communication with the daemon. Each call opens its own
// connection.
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for socketPath.
func NewClient(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// WithTimeout returns a copy using d as the per-call deadline.
func (c *Client) WithTimeout(d time.Duration) *Client {
	cp := *c
	cp.timeout = d
	return &cp
}

func (c *Client) dial(ctx context.Context) (net.Conn, error) {
	d := net.Dialer{Timeout: c.timeout}
	conn, err := d.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	return conn, nil
}

func writeRequest(conn net.Conn, req *Request) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	if _, err := conn.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	return nil
}

func readResponse(r *bufio.Reader) (*Response, error) {
	line, err := readLine(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &resp, nil
}

// sendRequest sends a request and waits for its response.
func (c *Client) sendRequest(ctx context.Context, req *Request) (*Response, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	conn.SetDeadline(deadline)

	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if err := writeRequest(conn, req); err != nil {
		return nil, err
	}
	resp, err := readResponse(bufio.NewReader(conn))
	if err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}
	return resp, nil
}

// Call executes cmd in the daemon. A command-level failure is reported in
// the result, not as the error.
func (c *Client) Call(ctx context.Context, cmd protocol.Command) (protocol.Result, error) {
	resp, err := c.sendRequest(ctx, &Request{ID: cmd.ID, Type: RequestCommand, Command: &cmd})
	if err != nil {
		return protocol.Result{}, err
	}
	if resp.Result == nil {
		return protocol.Result{}, fmt.Errorf("daemon sent no result")
	}
	return *resp.Result, nil
}

// Do executes a command and decodes its data into out, which may be nil.
// Command failures come back as *protocol.Error.
func (c *Client) Do(ctx context.Context, cmd protocol.Command, out any) error {
	res, err := c.Call(ctx, cmd)
	if err != nil {
		return err
	}
	if err := res.Err(); err != nil {
		return err
	}
	return DecodeData(res, out)
}

// DecodeData converts a result's generic payload into out.
func DecodeData(res protocol.Result, out any) error {
	if out == nil || res.Data == nil {
		return nil
	}
	data, err := json.Marshal(res.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal result data: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse result data: %w", err)
	}
	return nil
}

// PingData is the host/ping payload.
type PingData struct {
	Pong     bool  `json:"pong"`
	UptimeMs int64 `json:"uptimeMs"`
	Windows  int   `json:"windows"`
}

// Ping checks if the daemon is responding.
func (c *Client) Ping(ctx context.Context) (*PingData, error) {
	var data PingData
	err := c.Do(ctx, protocol.Command{Service: protocol.ServiceHost, Command: "ping"}, &data)
	if err != nil {
		return nil, err
	}
	return &data, nil
}

// Snapshot retrieves the full engine state.
func (c *Client) Snapshot(ctx context.Context) (*engine.Snapshot, error) {
	var snap engine.Snapshot
	err := c.Do(ctx, protocol.Command{Service: protocol.ServiceHost, Command: "getSnapshot"}, &snap)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// Reload asks the daemon to reload its configuration.
func (c *Client) Reload(ctx context.Context) error {
	_, err := c.sendRequest(ctx, &Request{Type: RequestReload})
	return err
}

// Subscribe streams events matching filter to fn until ctx is cancelled or
// the daemon closes the connection. ready, if non-nil, is called once the
// daemon has acknowledged the subscription.
func (c *Client) Subscribe(ctx context.Context, filter *Filter, ready func(id string), fn func(protocol.Event)) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	conn.SetDeadline(time.Now().Add(c.timeout))
	if err := writeRequest(conn, &Request{ID: uuid.NewString(), Type: RequestSubscribe, Filter: filter}); err != nil {
		return err
	}
	reader := bufio.NewReader(conn)
	ack, err := readResponse(reader)
	if err != nil {
		return err
	}
	if ack.Error != "" {
		return fmt.Errorf("daemon error: %s", ack.Error)
	}
	conn.SetDeadline(time.Time{})
	if ready != nil {
		ready(ack.Subscribed)
	}

	for {
		resp, err := readResponse(reader)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if resp.Event != nil {
			fn(*resp.Event)
		}
	}
}
