package jsonrpc

import (
	"bufio"
	"net"
	"sync"
	"time"

	"soc_dvfs/log"
	"soc_dvfs/util"
)

const MaxReplySize = 65536

// TCPClient sends one line and reads one line back, redialing once when the
// connection has gone away.
type TCPClient struct {
	Addr         string
	Conn         net.Conn
	TxBytes      int
	RxBytes      int
	Errors       int
	RedialCount  int
	LastErrorTS  float64
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	DialTimeout  time.Duration

	r  *bufio.Reader
	mx sync.Mutex
}

func NewTCPClient(addr string) *TCPClient {
	my := &TCPClient{
		Addr:         addr,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		DialTimeout:  time.Second,
	}
	if err := my.dial(); err != nil {
		log.Debugf("can't connect to %s err %v", my.Addr, err)
	}
	return my
}

func (my *TCPClient) dial() error {
	d := net.Dialer{Timeout: my.DialTimeout}
	conn, err := d.Dial("tcp", my.Addr)
	if err != nil {
		my.Conn, my.r = nil, nil
		return err
	}
	my.Conn = conn
	my.r = bufio.NewReaderSize(conn, MaxReplySize)
	return nil
}

func (my *TCPClient) redial() error {
	if my.Conn != nil {
		my.Conn.Close()
	}
	err := my.dial()
	my.RedialCount++
	if err != nil {
		log.Debugf("can't connect to %s err %v", my.Addr, err)
		my.fail()
	} else {
		my.Errors = 0
	}
	return err
}

func (my *TCPClient) fail() {
	my.Errors++
	my.LastErrorTS = util.NowInSec()
}

func (my *TCPClient) sendAndReceive(req []byte) ([]byte, error) {
	if my.Conn == nil || my.Errors > 0 {
		if err := my.redial(); err != nil {
			return nil, err
		}
	}
	if n := len(req); n > 0 && req[n-1] != '\n' {
		req = append(req, '\n')
	}

	if err := my.Conn.SetWriteDeadline(time.Now().Add(my.WriteTimeout)); err != nil {
		log.Debugf("err %v", err)
	}
	n, err := my.Conn.Write(req)
	if err != nil {
		log.Errorf("Sent error %v", err)
		my.fail()
		return nil, err
	}
	my.TxBytes += n

	if err := my.Conn.SetReadDeadline(time.Now().Add(my.ReadTimeout)); err != nil {
		log.Debugf("err %v", err)
	}
	reply, err := my.r.ReadBytes('\n')
	if err != nil {
		log.Errorf("Rx error %v", err)
		my.fail()
		return nil, err
	}
	my.RxBytes += len(reply)
	return reply, nil
}

// SendAndReceive writes req (newline appended when missing) and returns the
// reply line.
func (my *TCPClient) SendAndReceive(req []byte) ([]byte, error) {
	my.mx.Lock()
	defer my.mx.Unlock()

	reply, err := my.sendAndReceive(req)
	// retry once so a dropped connection is transparent to callers
	if err != nil {
		reply, err = my.sendAndReceive(req)
	}
	return reply, err
}

func (my *TCPClient) Shutdown() {
	my.mx.Lock()
	defer my.mx.Unlock()
	if my.Conn != nil {
		my.Conn.Close()
		my.Conn = nil
	}
}
