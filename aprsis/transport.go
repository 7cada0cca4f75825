// Package aprsis implements the authenticated TCP line transport to an
// APRS-IS server: connect/login/filter, blocking consume, mutex-serialized
// send, idempotent close. Grounded on rbn/client.go's dial/login/read-loop
// split, with reconnection itself left to the caller (the session
// supervisor) per the spec's failure semantics — unlike the teacher's
// client, which owns its own reconnect supervisor internally.
package aprsis

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"aprsbot/frame"
)

// dialTimeout bounds the initial TCP handshake, mirroring the teacher's own
// 30-second dial timeout.
const dialTimeout = 30 * time.Second

// readDeadline is refreshed on every successful read so a silent,
// half-open socket is detected instead of hanging forever, the same
// keepalive pattern rbn/client.go applies to its own read loop.
const readDeadline = 5 * time.Minute

// Transport is a stateful connection to a single APRS-IS server.
type Transport struct {
	host     string
	port     int
	callsign string
	passcode string
	filter   string
	appName  string
	appVers  string

	simulateSend bool

	conn   net.Conn
	reader *bufio.Reader

	writeMu sync.Mutex
	writer  *bufio.Writer

	connMu    sync.Mutex
	connected bool

	limiter *rate.Limiter
	log     *logrus.Logger
}

// Option configures optional Transport behavior at construction time.
type Option func(*Transport)

// WithSimulateSend makes Send log the would-be line and return success
// without touching the socket, per the testing.aprsis_simulate_send config
// flag.
func WithSimulateSend(simulate bool) Option {
	return func(t *Transport) { t.simulateSend = simulate }
}

// WithRateLimit installs a defensive outbound cap beneath whatever explicit
// inter-packet sleeps the dispatch pipeline and scheduler already perform.
func WithRateLimit(everyPerSecond float64, burst int) Option {
	return func(t *Transport) {
		if everyPerSecond > 0 {
			t.limiter = rate.NewLimiter(rate.Limit(everyPerSecond), burst)
		}
	}
}

// Open constructs a Transport. It does not dial; call Connect to do that.
func Open(callsign, passcode, host string, port int, filter, appName, appVers string, log *logrus.Logger, opts ...Option) *Transport {
	t := &Transport{
		callsign: callsign,
		passcode: passcode,
		host:     host,
		port:     port,
		filter:   filter,
		appName:  appName,
		appVers:  appVers,
		log:      log,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Connect dials the server, sends the login line, and sets the server-side
// filter. It blocks until login is written or the dial fails.
func (t *Transport) Connect() error {
	addr := net.JoinHostPort(t.host, strconv.Itoa(t.port))
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return fmt.Errorf("aprsis: dial %s: %w", addr, err)
	}

	t.conn = conn
	t.reader = bufio.NewReader(conn)
	t.writer = bufio.NewWriter(conn)

	t.connMu.Lock()
	t.connected = true
	t.connMu.Unlock()

	login := fmt.Sprintf("user %s pass %s vers %s %s filter %s",
		t.callsign, t.passcode, t.appName, t.appVers, t.filter)
	if err := t.writeLine(login); err != nil {
		t.connMu.Lock()
		t.connected = false
		t.connMu.Unlock()
		conn.Close()
		return fmt.Errorf("aprsis: login: %w", err)
	}
	if t.log != nil {
		t.log.WithField("server", addr).Info("connected to APRS-IS")
	}
	return nil
}

// Connected reports whether the transport believes it currently holds a
// live connection.
func (t *Transport) Connected() bool {
	t.connMu.Lock()
	defer t.connMu.Unlock()
	return t.connected
}

// Consume runs a blocking read loop, invoking cb for every frame parsed from
// an inbound line. A per-line parse failure is logged and the loop
// continues; a socket-level read error ends the loop and is returned to the
// caller, which decides whether to reconnect.
func (t *Transport) Consume(cb func(frame.InboundFrame)) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if t.log != nil {
				t.log.WithField("panic", r).Error("panic in consume loop: " + string(debug.Stack()))
			}
			err = fmt.Errorf("aprsis: panic in consume: %v", r)
		}
	}()

	for {
		if t.conn == nil {
			return fmt.Errorf("aprsis: consume called before connect")
		}
		t.conn.SetReadDeadline(time.Now().Add(readDeadline))

		line, readErr := t.reader.ReadString('\n')
		if readErr != nil {
			t.connMu.Lock()
			t.connected = false
			t.connMu.Unlock()
			return fmt.Errorf("aprsis: read: %w", readErr)
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" || strings.HasPrefix(line, "#") {
			// Blank lines and server comment/keepalive lines carry no frame.
			continue
		}

		f, ok := frame.Parse(line)
		if !ok {
			if t.log != nil {
				t.log.WithField("line", line).Debug("unrecognized line, skipping")
			}
			continue
		}
		cb(f)
	}
}

// Send transmits a single raw APRS-IS line. Sends are serialized with a
// mutex so both the dispatch goroutine and the scheduler's jobs may call it
// safely (§5). On a closed transport this is a no-op with a warning. In
// simulate-send mode the line is logged and treated as successfully sent.
func (t *Transport) Send(line string) error {
	if t.simulateSend {
		if t.log != nil {
			t.log.WithField("line", line).Info("simulate-send: would transmit")
		}
		return nil
	}

	if !t.Connected() {
		if t.log != nil {
			t.log.WithField("line", line).Warn("send on closed transport, dropping")
		}
		return nil
	}

	if t.limiter != nil {
		if err := t.limiter.Wait(context.Background()); err != nil {
			return fmt.Errorf("aprsis: rate limiter: %w", err)
		}
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return t.writeLine(line)
}

// writeLine appends the wire-required CRLF and flushes. Caller holds
// writeMu or is in the single-threaded Connect path.
func (t *Transport) writeLine(line string) error {
	if _, err := t.writer.WriteString(line + "\r\n"); err != nil {
		return err
	}
	return t.writer.Flush()
}

// Close idempotently tears down the connection.
func (t *Transport) Close() error {
	t.connMu.Lock()
	wasConnected := t.connected
	t.connected = false
	conn := t.conn
	t.connMu.Unlock()

	if !wasConnected || conn == nil {
		return nil
	}
	return conn.Close()
}
