// Package session implements the eternal connect/consume/reconnect
// supervisor loop (C9), grounded on core_aprs_client.py's run_listener and
// on rbn/client.go's connectionSupervisor backoff loop and top-level
// signal handling in main.go.
package session

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"aprsbot/aprsis"
	"aprsbot/config"
	"aprsbot/counter"
	"aprsbot/dedupe"
	"aprsbot/dispatch"
	"aprsbot/frame"
	"aprsbot/scheduler"
)

const (
	reconnectBase = 5 * time.Second
	reconnectMax  = 60 * time.Second
)

// Supervisor owns the lifecycle of every session the bot runs: it holds the
// process-wide DedupCache and OutboundCounter (they outlive any one
// session), and on each loop iteration constructs a fresh Transport,
// Dispatcher, and Scheduler, tearing them down on disconnect.
type Supervisor struct {
	cfg *config.Config
	log *logrus.Logger

	dedup   *dedupe.Cache
	counter *counter.Counter

	parser    dispatch.Parser
	generator dispatch.Generator
	post      dispatch.PostProcessor
	audit     dispatch.AuditRecorder

	bulletins *scheduler.BulletinTable

	shutdown     chan struct{}
	shutdownOnce sync.Once

	counterPath string

	sink StatusSink

	activeMu sync.Mutex
	active   *aprsis.Transport
}

// StatusSink is the narrow surface the optional status dashboard needs
// from the supervisor: a one-line current-state header and a scrolling
// log of lifecycle events. A nil sink (the default) disables reporting
// entirely — the supervisor never requires one.
type StatusSink interface {
	SetStatus(text string)
	Notify(text string)
}

// AttachStatusSink wires an optional status dashboard into the
// supervisor's connect/disconnect lifecycle. Call before Run.
func (sv *Supervisor) AttachStatusSink(sink StatusSink) {
	sv.sink = sink
}

func (sv *Supervisor) notify(text string) {
	if sv.sink != nil {
		sv.sink.Notify(text)
	}
}

func (sv *Supervisor) setStatus(text string) {
	if sv.sink != nil {
		sv.sink.SetStatus(text)
	}
}

// New constructs a Supervisor. post and audit may be nil.
func New(cfg *config.Config, log *logrus.Logger, parser dispatch.Parser, generator dispatch.Generator, post dispatch.PostProcessor, audit dispatch.AuditRecorder) *Supervisor {
	ttl := time.Duration(cfg.DupeDetection.MsgCacheTimeToLive) * time.Second
	return &Supervisor{
		cfg:         cfg,
		log:         log,
		dedup:       dedupe.New(ttl, cfg.DupeDetection.MsgCacheMaxEntries),
		counter:     counter.New(log),
		parser:      parser,
		generator:   generator,
		post:        post,
		audit:       audit,
		bulletins:   scheduler.NewBulletinTable(cfg.BulletinConfig.Bulletins),
		shutdown:    make(chan struct{}),
		counterPath: filepath.Join(cfg.DataStorage.AprsDataDirectory, cfg.DataStorage.AprsMessageCounterFileName),
	}
}

// SetBulletin installs or updates a dynamic bulletin, callable from any
// goroutine in the host program — the thread-safe setter §9 calls for.
func (sv *Supervisor) SetBulletin(id, text string) {
	sv.bulletins.Set(id, text)
}

// DeleteBulletin removes a dynamic bulletin entry.
func (sv *Supervisor) DeleteBulletin(id string) {
	sv.bulletins.Delete(id)
}

// Shutdown requests a graceful stop; safe to call more than once and from
// any goroutine (including a signal handler). Per §4.9/§5, it also closes
// the in-flight transport (if any) so a Consume call blocked on a read
// returns immediately instead of waiting out the read deadline.
func (sv *Supervisor) Shutdown() {
	sv.shutdownOnce.Do(func() { close(sv.shutdown) })
	sv.closeActive()
}

// setActive records the transport currently in use by runOneSession, or
// clears it (pass nil) once that session ends. Guarded separately from the
// shutdown channel because it's written from the session loop and may be
// read from a concurrent signal handler at any time.
func (sv *Supervisor) setActive(t *aprsis.Transport) {
	sv.activeMu.Lock()
	sv.active = t
	sv.activeMu.Unlock()
}

// closeActive closes whatever transport is currently active, if any. Safe
// to call when no session is running.
func (sv *Supervisor) closeActive() {
	sv.activeMu.Lock()
	t := sv.active
	sv.activeMu.Unlock()
	if t != nil {
		t.Close()
	}
}

func (sv *Supervisor) isShutdown() bool {
	select {
	case <-sv.shutdown:
		return true
	default:
		return false
	}
}

// Run installs SIGINT/SIGTERM handling and runs the eternal loop described
// in §4.9 until shutdown. It returns when the loop has exited cleanly.
func (sv *Supervisor) Run() error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		if sv.log != nil {
			sv.log.Info("shutdown signal received")
		}
		sv.Shutdown()
	}()
	defer signal.Stop(sigCh)

	sv.counter.Load(sv.counterPath)
	backoff := aprsis.NewBackoff(reconnectBase, reconnectMax)

	for !sv.isShutdown() {
		sv.runOneSession(backoff)
		sv.counter.Flush(sv.counterPath)

		if sv.isShutdown() {
			break
		}
		delay := time.Duration(sv.cfg.MessageDelay.PacketDelayMessage * float64(time.Second))
		if delay <= 0 {
			delay = backoff.Next()
		}
		sleepOrShutdown(delay, sv.shutdown)
	}

	sv.counter.Flush(sv.counterPath)
	if sv.log != nil {
		sv.log.Info("supervisor shut down cleanly")
	}
	return nil
}

// runOneSession performs one connect → run → teardown cycle. Any error is
// logged; the supervisor itself decides whether and how long to wait before
// the next attempt, per §4.3's failure semantics.
func (sv *Supervisor) runOneSession(backoff *aprsis.Backoff) {
	transport := aprsis.Open(
		sv.cfg.ClientConfig.AprsisCallsign,
		sv.cfg.NetworkConfig.AprsisPasscode,
		sv.cfg.NetworkConfig.AprsisServerName,
		sv.cfg.NetworkConfig.AprsisServerPort,
		sv.cfg.NetworkConfig.AprsisServerFilter,
		sv.cfg.ClientConfig.AprsClientName,
		"1.0",
		sv.log,
		aprsis.WithSimulateSend(sv.cfg.Testing.AprsisSimulateSend),
		aprsis.WithRateLimit(5, 10),
	)

	if err := transport.Connect(); err != nil {
		if sv.log != nil {
			sv.log.WithError(err).Warn("could not connect")
		}
		sv.notify(fmt.Sprintf("connect failed: %v", err))
		return
	}
	backoff.Reset()
	sv.setStatus(fmt.Sprintf("connected to %s:%d as %s", sv.cfg.NetworkConfig.AprsisServerName, sv.cfg.NetworkConfig.AprsisServerPort, sv.cfg.ClientConfig.AprsisCallsign))
	sv.notify("session connected")

	sv.setActive(transport)
	defer sv.setActive(nil)
	if sv.isShutdown() {
		// Shutdown arrived between Connect and here; Consume hasn't started
		// yet, so closeActive's close() raced setActive and was a no-op.
		// Close directly rather than let a fresh session start.
		transport.Close()
		return
	}

	sched := sv.startScheduler(transport)

	dispatcher := dispatch.New(dispatch.Config{
		BotCallsign:         sv.cfg.ClientConfig.AprsisCallsign,
		Tocall:              sv.cfg.ClientConfig.AprsisTocall,
		DefaultErrorMessage: sv.cfg.ClientConfig.AprsInputParserDefaultErrorMessage,
		Enumerate:           sv.cfg.ClientConfig.AprsMessageEnumeration,
		AckDelay:            durationSeconds(sv.cfg.MessageDelay.PacketDelayAck),
		InterPacketDelay:    durationSeconds(sv.cfg.MessageDelay.PacketDelayMessage),
		CounterFilePath:     sv.counterPath,
	}, transport, sv.dedup, sv.counter, sv.parser, sv.generator, sv.post, sv.audit, sv.log)

	err := transport.Consume(dispatcher.HandleFrame)
	if err != nil && sv.log != nil {
		sv.log.WithError(err).Info("session ended")
	}
	sv.setStatus("disconnected")
	sv.notify(fmt.Sprintf("session ended: %v", err))

	if sched != nil {
		sched.Stop()
	}
	transport.Close()
}

// startScheduler constructs and starts the per-session Scheduler if the
// beacon and/or bulletin jobs are enabled in config. It returns nil if
// neither is enabled, matching §4.8's "created when the session connects
// and at least one job is enabled" lifecycle rule.
func (sv *Supervisor) startScheduler(transport *aprsis.Transport) *scheduler.Scheduler {
	beaconOn := sv.cfg.BeaconConfig.AprsisBroadcastBeacon
	bulletinOn := sv.cfg.BulletinConfig.AprsisBroadcastBulletins
	if !beaconOn && !bulletinOn {
		return nil
	}

	sched := scheduler.New(sv.log)
	bulletinDelay := durationSeconds(sv.cfg.MessageDelay.PacketDelayBulletin)

	if beaconOn {
		spec := cronEverySpec(sv.cfg.BeaconConfig.AprsisBeaconIntervalMinutes)
		sched.StartBeacon(spec, func() {
			line := frame.FormatBeacon(
				sv.cfg.ClientConfig.AprsisCallsign,
				sv.cfg.ClientConfig.AprsisTocall,
				sv.cfg.BeaconConfig.AprsisLatitude,
				sv.cfg.BeaconConfig.AprsisTable,
				sv.cfg.BeaconConfig.AprsisLongitude,
				sv.cfg.BeaconConfig.AprsisSymbol,
				sv.cfg.ClientConfig.AprsisCallsign,
				sv.cfg.ClientConfig.AprsClientName,
				sv.cfg.BeaconConfig.AprsisBeaconAltitudeFt,
			)
			transport.Send(line)
		})
	}

	if bulletinOn {
		spec := cronEverySpec(sv.cfg.BulletinConfig.AprsisBulletinIntervalMinutes)
		sched.StartBulletins(spec, func() {
			for id, text := range sv.bulletins.Snapshot() {
				line := frame.FormatBulletin(sv.cfg.ClientConfig.AprsisCallsign, sv.cfg.ClientConfig.AprsisTocall, id, text)
				transport.Send(line)
				if bulletinDelay > 0 {
					time.Sleep(bulletinDelay)
				}
			}
		})
	}

	sched.Run()
	return sched
}

func durationSeconds(seconds float64) time.Duration {
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}

func sleepOrShutdown(d time.Duration, shutdown <-chan struct{}) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-shutdown:
	}
}
