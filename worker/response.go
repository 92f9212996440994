package worker

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
)

const (
	statusOK    = "ok"
	statusError = "error"
)

// payload is the flat object on the worker's last stdout line.
type payload map[string]any

// lastLine returns the last non-empty line of out.
func lastLine(out string) (string, bool) {
	lines := strings.FieldsFunc(out, func(r rune) bool { return r == '\n' || r == '\r' })
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) != "" {
			return lines[i], true
		}
	}
	return "", false
}

// parsePayload decodes the protocol line of a finished process.
func parsePayload(stdout, stderr string) (payload, error) {
	invalid := &Error{Kind: ErrInvalidResponse, Diagnostics: stdout + "\n" + stderr}

	line, ok := lastLine(stdout)
	if !ok {
		return nil, invalid
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(line)))
	dec.UseNumber()
	var p payload
	if err := dec.Decode(&p); err != nil || p == nil {
		invalid.Cause = err
		return nil, invalid
	}
	// The object must be the whole line.
	if _, err := dec.Token(); err != io.EOF {
		return nil, invalid
	}
	if s := p.str("status"); s != statusOK && s != statusError {
		return nil, invalid
	}
	return p, nil
}

func (p payload) str(key string) string {
	s, _ := p[key].(string)
	return s
}

func (p payload) boolean(key string) bool {
	b, _ := p[key].(bool)
	return b
}

func (p payload) integer(key string) int {
	n, ok := p[key].(json.Number)
	if !ok {
		return 0
	}
	if i, err := n.Int64(); err == nil {
		return int(i)
	}
	if f, err := n.Float64(); err == nil {
		return int(f)
	}
	return 0
}

// failure returns the CommandFailed error for a status:error payload, or
// nil when the status is ok.
func (p payload) failure(fallback string) error {
	if p.str("status") == statusOK {
		return nil
	}
	msg := p.str("error")
	if msg == "" {
		msg = fallback
	}
	return commandFailed(msg)
}
