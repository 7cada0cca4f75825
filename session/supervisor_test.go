package session

import (
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"time"

	"aprsbot/aprsis"
	"aprsbot/config"
	"aprsbot/samplegen"
	"aprsbot/sampleparser"
)

func TestCronEverySpecDefaultsWhenNonPositive(t *testing.T) {
	if got := cronEverySpec(0); got != "@every 1h0m0s" {
		t.Errorf("cronEverySpec(0) = %q, want @every 1h0m0s", got)
	}
}

func TestCronEverySpecConvertsMinutes(t *testing.T) {
	if got := cronEverySpec(30); got != "@every 30m0s" {
		t.Errorf("cronEverySpec(30) = %q, want @every 30m0s", got)
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dataDir := t.TempDir()
	yaml := `
client_config:
  aprsis_callsign: COAC
  aprsis_tocall: APRS
  aprs_client_name: aprsbot
  aprs_input_parser_default_error_message: "error"
network_config:
  aprsis_server_name: 127.0.0.1
  aprsis_server_port: 1
  aprsis_passcode: "12345"
  aprsis_server_filter: "m/COAC"
data_storage:
  aprs_data_directory: "` + dataDir + `"
  aprs_message_counter_file_name: counter.txt
testing:
  aprsis_simulate_send: true
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cfg
}

func TestSetAndDeleteBulletinDelegatesToTable(t *testing.T) {
	sv := New(testConfig(t), nil, sampleparser.New(), samplegen.New(), nil, nil)
	sv.SetBulletin("BLN1NEWS", "hello")
	if got := sv.bulletins.Snapshot()["BLN1NEWS"]; got != "hello" {
		t.Errorf("got %q", got)
	}
	sv.DeleteBulletin("BLN1NEWS")
	if _, ok := sv.bulletins.Snapshot()["BLN1NEWS"]; ok {
		t.Error("bulletin should be gone after delete")
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	sv := New(testConfig(t), nil, sampleparser.New(), samplegen.New(), nil, nil)
	sv.Shutdown()
	sv.Shutdown() // must not panic on a closed channel
	if !sv.isShutdown() {
		t.Error("isShutdown should report true after Shutdown")
	}
}

type fakeStatusSink struct {
	statuses []string
	notices  []string
}

func (f *fakeStatusSink) SetStatus(text string) { f.statuses = append(f.statuses, text) }
func (f *fakeStatusSink) Notify(text string)    { f.notices = append(f.notices, text) }

func TestAttachStatusSinkReceivesConnectFailure(t *testing.T) {
	sv := New(testConfig(t), nil, sampleparser.New(), samplegen.New(), nil, nil)
	sink := &fakeStatusSink{}
	sv.AttachStatusSink(sink)

	backoff := aprsis.NewBackoff(10*time.Millisecond, 20*time.Millisecond)
	sv.runOneSession(backoff)

	if len(sink.notices) == 0 {
		t.Fatal("expected a connect-failure notification on an unreachable server")
	}
}

// TestShutdownClosesBlockedConsume reproduces the scenario from §4.9/§5: a
// signal arrives while Consume is blocked on a read. The listener accepts
// the login line and then sends nothing, so without closing the transport
// directly, runOneSession would only notice shutdown on its next iteration
// — which here never comes, since Consume never returns on its own.
func TestShutdownClosesBlockedConsume(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	accepted := make(chan struct{})
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		close(accepted)
		// Read and discard the login line, then block forever (until the
		// test closes the connection by closing ln, or the client closes
		// its end first).
		buf := make([]byte, 4096)
		for {
			if _, err := conn.Read(buf); err != nil {
				return
			}
		}
	}()

	_, portStr, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		t.Fatalf("split addr: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parse port: %v", err)
	}

	cfg := testConfig(t)
	cfg.NetworkConfig.AprsisServerName = "127.0.0.1"
	cfg.NetworkConfig.AprsisServerPort = port

	sv := New(cfg, nil, sampleparser.New(), samplegen.New(), nil, nil)

	done := make(chan struct{})
	go func() {
		sv.runOneSession(aprsis.NewBackoff(10*time.Millisecond, 20*time.Millisecond))
		close(done)
	}()

	select {
	case <-accepted:
	case <-time.After(2 * time.Second):
		t.Fatal("server never accepted the connection")
	}

	// Give runOneSession a moment to reach the blocking Consume read before
	// shutting down, so this test actually exercises the blocked-read path.
	time.Sleep(50 * time.Millisecond)
	sv.Shutdown()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runOneSession did not return promptly after Shutdown; transport was not closed")
	}
}
