package jsonrpc

import (
	"bytes"
	"encoding/json"
	"io"

	log "soc_dvfs/log"
)

// PrepareJSONResponse encodes v as one newline-terminated protocol line.
func PrepareJSONResponse(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		log.Errorf("JSONRPC: encode %T: %v", v, err)
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteLine encodes v and writes it to w in a single write.
func WriteLine(w io.Writer, v interface{}) error {
	buf, err := PrepareJSONResponse(v)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}
