package jsonrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoHandler(w io.Writer, req *Request, err error) error {
	reply := map[string]interface{}{"command": req.Command, "set": req.HasParameter()}
	if err != nil {
		reply["error"] = err.Error()
	}
	buf, err := PrepareJSONResponse(reply)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}

func start(t *testing.T, h HandlerFunc, keepAlive bool) *Server {
	t.Helper()
	s, err := NewServer("127.0.0.1:0", h, keepAlive)
	require.NoError(t, err)
	go s.Serve()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.Shutdown(ctx)
	})
	return s
}

func TestRoundTrip(t *testing.T) {
	s := start(t, echoHandler, true)
	c := NewTCPClient(s.Addr().String())
	defer c.Shutdown()

	tests := []struct {
		req  string
		cmd  string
		set  bool
		fail bool
	}{
		{`{"command":"rails"}`, "rails", false, false},
		{`{"command":"core_cap_level","parameter":1200}`, "core_cap_level", true, false},
		{`{"command":"core_cap_level","parameter":null}`, "core_cap_level", false, false},
		{`garbage`, "", false, true},
	}
	for _, tc := range tests {
		buf, err := c.SendAndReceive([]byte(tc.req))
		require.NoError(t, err, tc.req)
		var got map[string]interface{}
		require.NoError(t, json.Unmarshal(buf, &got), tc.req)
		assert.Equal(t, tc.cmd, got["command"], tc.req)
		assert.Equal(t, tc.set, got["set"], tc.req)
		_, hasErr := got["error"]
		assert.Equal(t, tc.fail, hasErr, tc.req)
	}
	// one connection carried every request
	assert.Equal(t, 0, c.RedialCount)
}

func TestOneShotRedials(t *testing.T) {
	s := start(t, echoHandler, false)
	c := NewTCPClient(s.Addr().String())
	defer c.Shutdown()

	for i := 0; i < 3; i++ {
		buf, err := c.SendAndReceive([]byte(fmt.Sprintf(`{"command":"c%d"}`, i)))
		require.NoError(t, err)
		assert.Contains(t, string(buf), fmt.Sprintf(`"c%d"`, i))
	}
	assert.Positive(t, c.RedialCount)
}

func TestHandlerErrorClosesConnection(t *testing.T) {
	s := start(t, func(w io.Writer, req *Request, err error) error {
		return fmt.Errorf("refused %s", req.Command)
	}, true)

	conn, err := net.Dial("tcp", s.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Write([]byte("{\"command\":\"x\"}\n"))
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err = conn.Read(make([]byte, 16))
	assert.ErrorIs(t, err, io.EOF)
}

func TestShutdown(t *testing.T) {
	s, err := NewServer("127.0.0.1:0", nil, true)
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- s.Serve() }()

	c := NewTCPClient(s.Addr().String())
	defer c.Shutdown()
	buf, err := c.SendAndReceive([]byte(`{"command":"ping"}`))
	require.NoError(t, err)
	assert.Contains(t, string(buf), `"ping"`)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
	}
	// second shutdown is a no-op
	assert.NoError(t, s.Shutdown(ctx))
}

func TestPrepareJSONResponse(t *testing.T) {
	buf, err := PrepareJSONResponse(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":1}\n", string(buf))

	_, err = PrepareJSONResponse(make(chan int))
	assert.Error(t, err)
}
