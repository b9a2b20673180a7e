package openocd

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer speaks just enough of the Tcl RPC protocol: reads
// 0x1a-terminated commands, replies through the handler.
type fakeServer struct {
	l       net.Listener
	handler func(cmd string) (string, bool)
}

func newFakeServer(t *testing.T, handler func(cmd string) (string, bool)) *fakeServer {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := &fakeServer{l: l, handler: handler}
	go s.serve()
	t.Cleanup(func() { l.Close() })
	return s
}

func (s *fakeServer) serve() {
	for {
		conn, err := s.l.Accept()
		if err != nil {
			return
		}
		go func() {
			defer conn.Close()
			br := bufio.NewReader(conn)
			for {
				cmd, err := br.ReadString(terminator)
				if err != nil {
					return
				}
				cmd = strings.TrimSuffix(cmd, "\x1a")
				resp, reply := s.handler(cmd)
				if !reply {
					continue // simulate a hung daemon
				}
				if _, err := conn.Write(append([]byte(resp), terminator)); err != nil {
					return
				}
			}
		}()
	}
}

func (s *fakeServer) addr() string {
	return s.l.Addr().String()
}

func dialFake(t *testing.T, s *fakeServer) *Client {
	c, err := Dial(context.Background(), s.addr())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestExec(t *testing.T) {
	s := newFakeServer(t, func(cmd string) (string, bool) {
		if cmd == "halt" {
			return "", true
		}
		return "invalid command name \"" + cmd + "\"", true
	})
	c := dialFake(t, s)
	require.NoError(t, c.Halt(context.Background()))

	out, err := c.Exec(context.Background(), "bogus")
	require.NoError(t, err)
	assert.Contains(t, out, "invalid command name")
}

func TestReadWriteWord32(t *testing.T) {
	mem := map[uint32]uint32{}
	s := newFakeServer(t, func(cmd string) (string, bool) {
		var addr, value uint32
		if n, _ := fmt.Sscanf(cmd, "mww 0x%x 0x%x", &addr, &value); n == 2 {
			mem[addr] = value
			return "", true
		}
		if n, _ := fmt.Sscanf(cmd, "mdw 0x%x", &addr); n == 1 {
			return fmt.Sprintf("0x%08x: %08x ", addr, mem[addr]), true
		}
		return "", true
	})
	c := dialFake(t, s)

	ctx := context.Background()
	require.NoError(t, c.WriteWord32(ctx, 0xff3800, 0xdeadbeef))
	v, err := c.ReadWord32(ctx, 0xff3800)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xdeadbeef), v)

	v, err = c.ReadWord32(ctx, 0xff3804)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), v)
}

func TestReadWord32Malformed(t *testing.T) {
	s := newFakeServer(t, func(cmd string) (string, bool) {
		return "unexpected", true
	})
	c := dialFake(t, s)
	_, err := c.ReadWord32(context.Background(), 0xff3800)
	assert.Error(t, err)
}

func TestTapIDCode(t *testing.T) {
	s := newFakeServer(t, func(cmd string) (string, bool) {
		if cmd == "jtag cget mec16xx.cpu -idcode" {
			return "0x04201211", true
		}
		return "", true
	})
	c := dialFake(t, s)
	id, err := c.TapIDCode(context.Background(), "mec16xx.cpu")
	require.NoError(t, err)
	assert.Equal(t, uint32(0x04201211), id)
}

func TestExecDeadline(t *testing.T) {
	s := newFakeServer(t, func(cmd string) (string, bool) {
		return "", false // never reply
	})
	c := dialFake(t, s)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := c.Exec(ctx, "halt")
	assert.Error(t, err)
	assert.Less(t, time.Since(start).Seconds(), 5.0)
}

func TestDialRefused(t *testing.T) {
	// Grab a port and close it so nothing listens there.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	l.Close()

	_, err = Dial(context.Background(), addr)
	assert.Error(t, err)
}
