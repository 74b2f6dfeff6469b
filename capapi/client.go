package capapi

import (
	"encoding/json"
	"errors"
	"fmt"

	"soc_dvfs/jsonrpc"
)

// Client sends commands to a running server.
type Client struct {
	tc *jsonrpc.TCPClient
}

func NewClient(addr string) *Client {
	return &Client{tc: jsonrpc.NewTCPClient(addr)}
}

// Call sends command with an optional parameter (nil reads the value) and
// decodes the reply. A reply with error status is returned as an error.
func (c *Client) Call(command string, param interface{}) (*Reply, error) {
	req := struct {
		Command   string      `json:"command"`
		Parameter interface{} `json:"parameter,omitempty"`
	}{command, param}
	buf, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	raw, err := c.tc.SendAndReceive(buf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", command, err)
	}
	var rep Reply
	if err := json.Unmarshal(raw, &rep); err != nil {
		return nil, fmt.Errorf("%s: bad reply: %w", command, err)
	}
	if rep.Status != StatusOK {
		return &rep, errors.New(rep.Error)
	}
	return &rep, nil
}

func (c *Client) Close() {
	c.tc.Shutdown()
}
