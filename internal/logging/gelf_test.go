package logging

import (
	"encoding/json"
	"log/slog"
	"net"
	"testing"
	"time"
)

func listenUDP(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *net.UDPConn) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 64*1024)
	n, _, err := conn.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg map[string]any
	if err := json.Unmarshal(buf[:n], &msg); err != nil {
		t.Fatalf("unmarshal %q: %v", buf[:n], err)
	}
	return msg
}

func TestGelfWriterTranslatesSlogRecords(t *testing.T) {
	conn := listenUDP(t)

	w, err := NewGelfWriter(conn.LocalAddr().String(), "survey-sync-test")
	if err != nil {
		t.Fatalf("NewGelfWriter: %v", err)
	}
	defer w.Close()

	logger := slog.New(slog.NewJSONHandler(w, nil))
	logger.Warn("work site not found", "work_site", "North Tower", "id", "abc")

	msg := readMessage(t, conn)
	if msg["version"] != "1.1" {
		t.Errorf("version = %v", msg["version"])
	}
	if msg["short_message"] != "work site not found" {
		t.Errorf("short_message = %v", msg["short_message"])
	}
	if msg["level"] != float64(4) {
		t.Errorf("level = %v, want 4", msg["level"])
	}
	if msg["_work_site"] != "North Tower" {
		t.Errorf("_work_site = %v", msg["_work_site"])
	}
	if msg["_log_id"] != "abc" {
		t.Errorf("_log_id = %v", msg["_log_id"])
	}
	if msg["_service"] != "survey-sync-test" {
		t.Errorf("_service = %v", msg["_service"])
	}
}

func TestGelfWriterPlainLine(t *testing.T) {
	conn := listenUDP(t)

	w, err := NewGelfWriter(conn.LocalAddr().String(), "")
	if err != nil {
		t.Fatalf("NewGelfWriter: %v", err)
	}
	defer w.Close()

	if _, err := w.Write([]byte("plain text line\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	msg := readMessage(t, conn)
	if msg["short_message"] != "plain text line" {
		t.Errorf("short_message = %v", msg["short_message"])
	}
	if msg["level"] != float64(6) {
		t.Errorf("level = %v, want 6", msg["level"])
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
