// Package jsonrpc carries newline-terminated JSON commands over TCP.
package jsonrpc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	log "soc_dvfs/log"
)

// Request is one command line: {"command": "...", "parameter": ...}.
type Request struct {
	Command   string          `json:"command"`
	Parameter json.RawMessage `json:"parameter,omitempty"`
}

// HasParameter reports whether a non-null parameter was sent.
func (r *Request) HasParameter() bool {
	return len(r.Parameter) > 0 && string(r.Parameter) != "null"
}

// HandlerFunc answers one request. err is the decode error, if any; the
// handler still owns the reply.
type HandlerFunc func(w io.Writer, req *Request, err error) error

type Server struct {
	listener  net.Listener
	done      chan struct{}
	wg        sync.WaitGroup
	handler   HandlerFunc
	keepAlive bool

	mu    sync.Mutex
	conns map[net.Conn]struct{}

	// IdleTimeout closes keep-alive connections that send nothing.
	IdleTimeout time.Duration
}

// NewServer listens on addr. With keepAlive a connection may carry any
// number of commands, otherwise it is closed after the first reply.
func NewServer(addr string, handler HandlerFunc, keepAlive bool) (*Server, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	if handler == nil {
		handler = DefaultHandler
	}
	return &Server{
		listener:    l,
		done:        make(chan struct{}),
		handler:     handler,
		keepAlive:   keepAlive,
		conns:       map[net.Conn]struct{}{},
		IdleTimeout: 5 * time.Minute,
	}, nil
}

func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// Serve accepts connections until Shutdown.
func (s *Server) Serve() error {
	s.wg.Add(1)
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return nil
			default:
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				log.Errorf("Accept error %v", err)
				continue
			}
			return err
		}
		s.track(conn, true)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
			s.track(conn, false)
		}()
	}
}

func (s *Server) track(c net.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.conns[c] = struct{}{}
	} else {
		delete(s.conns, c)
	}
}

// Shutdown stops accepting, closes open connections and waits for the
// handlers to return or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	default:
		close(s.done)
	}
	s.listener.Close()
	s.mu.Lock()
	for c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()

	waited := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(waited)
	}()
	select {
	case <-waited:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	log.Debug("Connection from ", conn.RemoteAddr())

	r := bufio.NewReader(conn)
	for {
		if err := conn.SetReadDeadline(time.Now().Add(s.IdleTimeout)); err != nil {
			log.Debugf("err %v", err)
		}
		buf, err := r.ReadBytes('\n')
		if len(buf) == 0 {
			if err != nil && !errors.Is(err, io.EOF) {
				log.Debugf("handleConnection err %v", err)
			}
			break
		}
		log.Debugf("read %d bytes: %s", len(buf), buf)

		req := Request{}
		decodeErr := json.Unmarshal(buf, &req)
		if err := s.handler(conn, &req, decodeErr); err != nil {
			log.Error(err)
			break
		}
		if !s.keepAlive || err != nil {
			break
		}
	}
	log.Debug("Server disconnected from ", conn.RemoteAddr())
}

// DefaultHandler echoes what was received.
func DefaultHandler(w io.Writer, req *Request, err error) error {
	return WriteLine(w, map[string]interface{}{
		"command": req.Command,
		"error":   errString(err),
	})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
