// Package openocd implements a client for the OpenOCD Tcl RPC service
// (usually listening on localhost:6666). Commands and replies are plain
// text terminated by a 0x1a byte.
package openocd

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/juju/errors"
)

const (
	// Terminator of both commands and replies on the Tcl RPC channel.
	terminator = 0x1a
)

type Client struct {
	addr string
	conn net.Conn
	br   *bufio.Reader
}

// Dial connects to an OpenOCD Tcl RPC service at addr (host:port).
func Dial(ctx context.Context, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, errors.Annotatef(err, "failed to connect to OpenOCD at %s", addr)
	}
	glog.V(1).Infof("connected to OpenOCD at %s", addr)
	return &Client{addr: addr, conn: conn, br: bufio.NewReader(conn)}, nil
}

func (c *Client) Addr() string {
	return c.addr
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Exec sends a single command and returns its reply with the terminator
// and surrounding whitespace stripped. The context deadline, if any, is
// applied to the underlying socket.
func (c *Client) Exec(ctx context.Context, cmd string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.Trace(err)
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Time{}
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return "", errors.Trace(err)
	}
	glog.V(2).Infof("-> %s", cmd)
	if _, err := c.conn.Write(append([]byte(cmd), terminator)); err != nil {
		return "", errors.Annotatef(err, "failed to send %q", cmd)
	}
	resp, err := c.br.ReadString(terminator)
	if err != nil {
		return "", errors.Annotatef(err, "no reply to %q", cmd)
	}
	resp = strings.TrimSpace(strings.TrimSuffix(resp, "\x1a"))
	glog.V(2).Infof("<- %s", resp)
	return resp, nil
}

func (c *Client) Halt(ctx context.Context) error {
	_, err := c.Exec(ctx, "halt")
	return errors.Annotatef(err, "failed to halt the target")
}

// Reset resets the target, halting it if halt is set, letting it run
// otherwise.
func (c *Client) Reset(ctx context.Context, halt bool) error {
	mode := "run"
	if halt {
		mode = "halt"
	}
	_, err := c.Exec(ctx, "reset "+mode)
	return errors.Annotatef(err, "failed to reset %s", mode)
}

// ReadWord32 reads a 32-bit word from the target's memory.
func (c *Client) ReadWord32(ctx context.Context, addr uint32) (uint32, error) {
	out, err := c.Exec(ctx, fmt.Sprintf("mdw 0x%08x", addr))
	if err != nil {
		return 0, errors.Trace(err)
	}
	// Reply is of the form "0x00ff3800: deadbeef".
	ci := strings.IndexByte(out, ':')
	if ci < 0 {
		return 0, errors.Errorf("malformed mdw reply %q", out)
	}
	fields := strings.Fields(out[ci+1:])
	if len(fields) == 0 {
		return 0, errors.Errorf("malformed mdw reply %q", out)
	}
	value, err := parseHexWord(fields[0])
	if err != nil {
		return 0, errors.Annotatef(err, "malformed mdw reply %q", out)
	}
	glog.V(2).Infof("read 0x%08x: 0x%08x", addr, value)
	return value, nil
}

// WriteWord32 writes a 32-bit word to the target's memory.
func (c *Client) WriteWord32(ctx context.Context, addr uint32, value uint32) error {
	glog.V(2).Infof("write 0x%08x: 0x%08x", addr, value)
	_, err := c.Exec(ctx, fmt.Sprintf("mww 0x%08x 0x%08x", addr, value))
	return errors.Annotatef(err, "failed to write 0x%08x @ 0x%08x", value, addr)
}

// TapIDCode returns the IDCODE OpenOCD read from the named TAP.
func (c *Client) TapIDCode(ctx context.Context, tap string) (uint32, error) {
	out, err := c.Exec(ctx, fmt.Sprintf("jtag cget %s -idcode", tap))
	if err != nil {
		return 0, errors.Trace(err)
	}
	id, err := parseHexWord(strings.TrimSpace(out))
	if err != nil {
		return 0, errors.Annotatef(err, "malformed idcode reply %q", out)
	}
	return id, nil
}

// Targets returns OpenOCD's target list with their current states.
func (c *Client) Targets(ctx context.Context) (string, error) {
	out, err := c.Exec(ctx, "targets")
	return out, errors.Trace(err)
}

func parseHexWord(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, errors.Trace(err)
	}
	return uint32(v), nil
}
