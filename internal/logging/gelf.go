package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"time"
)

// GelfWriter sends GELF 1.1 messages over UDP. It expects one slog JSON
// record per Write call, which is how slog.JSONHandler writes.
type GelfWriter struct {
	conn     net.Conn
	hostname string
	service  string
}

// NewGelfWriter creates a GELF UDP writer connected to addr (e.g. "172.17.0.1:12201").
func NewGelfWriter(addr, service string) (*GelfWriter, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("gelf: dial %s: %w", addr, err)
	}
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "survey-sync"
	}
	if service == "" {
		service = "survey-sync"
	}
	return &GelfWriter{conn: conn, hostname: hostname, service: service}, nil
}

// Write implements io.Writer. Each call sends one GELF message; send errors
// are swallowed so logging never fails the caller.
func (w *GelfWriter) Write(p []byte) (int, error) {
	payload, err := json.Marshal(w.message(p))
	if err != nil {
		return len(p), nil
	}
	_, _ = w.conn.Write(payload)
	return len(p), nil
}

// Close closes the UDP socket.
func (w *GelfWriter) Close() error { return w.conn.Close() }

func (w *GelfWriter) message(p []byte) map[string]any {
	msg := map[string]any{
		"version":  "1.1",
		"host":     w.hostname,
		"level":    6,
		"_service": w.service,
	}

	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(p), &rec); err != nil {
		msg["short_message"] = string(bytes.TrimSpace(p))
		msg["timestamp"] = float64(time.Now().UnixNano()) / 1e9
		return msg
	}

	short, _ := rec["msg"].(string)
	if short == "" {
		short = "(empty)"
	}
	msg["short_message"] = short
	msg["level"] = syslogLevel(rec["level"])
	msg["timestamp"] = float64(time.Now().UnixNano()) / 1e9
	if ts, ok := rec["time"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			msg["timestamp"] = float64(t.UnixNano()) / 1e9
		}
	}
	for k, v := range rec {
		switch k {
		case "msg", "level", "time":
			continue
		case "id":
			// "_id" is reserved by GELF.
			k = "log_id"
		}
		msg["_"+k] = v
	}
	return msg
}

// syslogLevel maps slog level names onto syslog severities.
func syslogLevel(v any) int {
	s, _ := v.(string)
	switch {
	case len(s) >= 5 && s[:5] == "ERROR":
		return 3
	case len(s) >= 4 && s[:4] == "WARN":
		return 4
	case len(s) >= 5 && s[:5] == "DEBUG":
		return 7
	default:
		return 6
	}
}
