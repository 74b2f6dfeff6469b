// Package capapi serves the voltage cap controls and rail switches over the
// jsonrpc line protocol.
package capapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"soc_dvfs/dvfs"
	"soc_dvfs/jsonrpc"
	log "soc_dvfs/log"
	"soc_dvfs/util"
	"soc_dvfs/version"
)

// Commands understood by the server.
const (
	CmdCoreCapState = "core_cap_state"
	CmdCoreCapLevel = "core_cap_level"
	CmdCbusCapState = "cbus_cap_state"
	CmdCbusCapLevel = "cbus_cap_level"
	CmdGPUVoltages  = "gpu_voltages"
	CmdDisableCPU   = "disable_cpu"
	CmdDisableCore  = "disable_core"
	CmdRails        = "rails"
	CmdDomains      = "domains"
	CmdVersion      = "version"
)

const (
	StatusOK    = "ok"
	StatusError = "error"
)

var ErrUnknownCommand = errors.New("unknown command")

// Reply is the single line answered for every request.
type Reply struct {
	Status string      `json:"status"`
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// Engine is what the API drives; *dvfs.Engine implements it.
type Engine interface {
	CapAcquire(d dvfs.CapDomain, who dvfs.Requester) error
	CapRelease(d dvfs.CapDomain, who dvfs.Requester) error
	CapSetLevel(d dvfs.CapDomain, who dvfs.Requester, level int) (int, error)
	CapState(d dvfs.CapDomain) (dvfs.CapState, error)
	CoreLadder() []int
	DisableRail(rail string) error
	EnableRail(rail string) error
	Rail(name string) (dvfs.RailSnapshot, error)
	Rails() []dvfs.RailSnapshot
	Domains() []dvfs.DomainInfo
	CPURail() string
	CoreRail() string
}

type Handler struct {
	engine Engine
	board  string
}

func NewHandler(e Engine, board string) *Handler {
	return &Handler{engine: e, board: board}
}

// NewServer starts listening on addr with h answering requests.
func NewServer(addr string, h *Handler) (*jsonrpc.Server, error) {
	return jsonrpc.NewServer(addr, h.Serve, true)
}

// Serve implements jsonrpc.HandlerFunc.
func (h *Handler) Serve(w io.Writer, req *jsonrpc.Request, decodeErr error) error {
	var rep Reply
	if decodeErr != nil {
		rep = Reply{Status: StatusError, Error: fmt.Sprintf("bad request: %v", decodeErr)}
	} else {
		rep = h.Handle(req)
	}
	return jsonrpc.WriteLine(w, rep)
}

// Handle runs one command. A request without parameter reads the value;
// with one it writes it and returns the new value.
func (h *Handler) Handle(req *jsonrpc.Request) Reply {
	res, err := h.dispatch(req)
	if err != nil {
		log.Debugf("CAP: %s failed: %v", req.Command, err)
		return Reply{Status: StatusError, Error: err.Error()}
	}
	return Reply{Status: StatusOK, Result: res}
}

func (h *Handler) dispatch(req *jsonrpc.Request) (interface{}, error) {
	set := req.HasParameter()

	switch req.Command {
	case CmdCoreCapState:
		return h.capState(dvfs.CapCore, req, set)
	case CmdCbusCapState:
		return h.capState(dvfs.CapBus, req, set)
	case CmdCoreCapLevel:
		return h.capLevel(dvfs.CapCore, req, set)
	case CmdCbusCapLevel:
		return h.capLevel(dvfs.CapBus, req, set)
	case CmdGPUVoltages:
		return util.JoinInts(h.engine.CoreLadder()), nil
	case CmdDisableCPU:
		return h.railSwitch(h.engine.CPURail(), req, set)
	case CmdDisableCore:
		return h.railSwitch(h.engine.CoreRail(), req, set)
	case CmdRails:
		return h.engine.Rails(), nil
	case CmdDomains:
		return h.engine.Domains(), nil
	case CmdVersion:
		return version.GetVersionConfig(h.board), nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownCommand, req.Command)
}

func (h *Handler) capState(d dvfs.CapDomain, req *jsonrpc.Request, set bool) (string, error) {
	if set {
		on, err := paramBool(req.Parameter)
		if err != nil {
			return "", err
		}
		if on {
			err = h.engine.CapAcquire(d, dvfs.RequesterUser)
		} else {
			err = h.engine.CapRelease(d, dvfs.RequesterUser)
		}
		if err != nil {
			return "", err
		}
	}
	st, err := h.engine.CapState(d)
	if err != nil {
		return "", err
	}
	return st.String(), nil
}

func (h *Handler) capLevel(d dvfs.CapDomain, req *jsonrpc.Request, set bool) (int, error) {
	if set {
		level, err := paramInt(req.Parameter)
		if err != nil {
			return 0, err
		}
		return h.engine.CapSetLevel(d, dvfs.RequesterUser, level)
	}
	st, err := h.engine.CapState(d)
	if err != nil {
		return 0, err
	}
	return st.Level, nil
}

// railSwitch reads or writes a disable switch; the value is true when
// scaling is disabled.
func (h *Handler) railSwitch(rail string, req *jsonrpc.Request, set bool) (bool, error) {
	if set {
		off, err := paramBool(req.Parameter)
		if err != nil {
			return false, err
		}
		if off {
			err = h.engine.DisableRail(rail)
		} else {
			err = h.engine.EnableRail(rail)
		}
		if err != nil {
			return false, err
		}
	}
	r, err := h.engine.Rail(rail)
	if err != nil {
		return false, err
	}
	return !r.Enabled, nil
}

// paramInt accepts a JSON number or a numeric string.
func paramInt(raw json.RawMessage) (int, error) {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("parameter %s: want an integer", raw)
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("parameter %q: want an integer", s)
	}
	return n, nil
}

// paramBool accepts a JSON bool, a number (non-zero is true) or a string in
// any form util.ParseBool takes.
func paramBool(raw json.RawMessage) (bool, error) {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n != 0, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return false, fmt.Errorf("parameter %s: want a boolean", raw)
	}
	return util.ParseBool(s)
}
