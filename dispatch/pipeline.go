package dispatch

import (
	"time"

	"github.com/sirupsen/logrus"

	"aprsbot/counter"
	"aprsbot/dedupe"
	"aprsbot/frame"
	"aprsbot/msgnum"
	"aprsbot/splitter"
)

// Config carries the per-session tunables the Dispatcher needs; all of it
// is sourced from config.Config at session construction time.
type Config struct {
	BotCallsign         string
	Tocall              string
	DefaultErrorMessage string
	Enumerate           bool
	AckDelay            time.Duration
	InterPacketDelay    time.Duration
	CounterFilePath     string
}

// Dispatcher runs the dispatch pipeline for one session. It is invoked from
// the Transport's single-threaded consume loop, so its own state (the
// counter, the dedup cache) needs no additional locking beyond what those
// types already provide for supervisor-side flushes.
type Dispatcher struct {
	cfg Config

	transport SessionHandle
	dedup     *dedupe.Cache
	counter   *counter.Counter
	parser    Parser
	generator Generator
	post      PostProcessor // optional, may be nil
	audit     AuditRecorder // optional, may be nil

	log *logrus.Logger
}

// New constructs a Dispatcher. post and audit may be nil.
func New(cfg Config, transport SessionHandle, dedup *dedupe.Cache, ctr *counter.Counter, parser Parser, generator Generator, post PostProcessor, audit AuditRecorder, log *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		cfg:       cfg,
		transport: transport,
		dedup:     dedup,
		counter:   ctr,
		parser:    parser,
		generator: generator,
		post:      post,
		audit:     audit,
		log:       log,
	}
}

// HandleFrame is the bound callback given to Transport.Consume. It runs the
// full state machine described in §4.7: Received → Validated →
// DedupChecked → Acked? → Parsed → Generated → Split → Sent → Recorded →
// (PostProcessed).
func (d *Dispatcher) HandleFrame(f frame.InboundFrame) {
	if !d.validate(f) {
		return
	}

	key := dedupe.NewKey(f.MessageText, f.FromCallsign, f.MsgNo)
	if d.dedup.Has(key) {
		if d.log != nil {
			d.log.WithField("from", f.FromCallsign).Debug("duplicate request, ignoring")
		}
		if d.audit != nil {
			d.audit.Record(f.FromCallsign, f.MessageText, f.MsgNo, "duplicate", 0)
		}
		return
	}

	// Record unconditionally once we reach this point, regardless of
	// parse/generate outcome — §4.7 step 8's invariant that a request is
	// deduped at most once from the user's perspective.
	outcome := "ok"
	segmentCount := 0
	defer func() {
		d.dedup.Put(key)
		if d.audit != nil {
			d.audit.Record(f.FromCallsign, f.MessageText, f.MsgNo, outcome, segmentCount)
		}
	}()

	replyAck := f.AckMsgNo != ""
	oldStyleAck := f.MsgNo != "" && !replyAck
	if oldStyleAck {
		ackLine := frame.FormatAck(d.cfg.BotCallsign, d.cfg.Tocall, f.FromCallsign, f.MsgNo)
		if err := d.transport.Send(ackLine); err != nil && d.log != nil {
			d.log.WithError(err).Warn("failed to send ack")
		}
		if d.cfg.AckDelay > 0 {
			time.Sleep(d.cfg.AckDelay)
		}
	}

	status, errString, responseObject := d.parser.Parse(f.MessageText, f.FromCallsign)

	switch status {
	case ParseIgnore:
		outcome = "ignored"
		return
	case ParseError:
		outcome = "error"
		text := errString
		if text == "" {
			text = d.cfg.DefaultErrorMessage
		}
		segmentCount = d.sendReply(f, text)
		return
	case ParseOK:
		ok, text, runPost := d.generator.Generate(responseObject)
		if !ok {
			outcome = "error"
			text = d.cfg.DefaultErrorMessage
		}
		segmentCount = d.sendReply(f, text)
		if ok && runPost && d.post != nil {
			if !d.post.Post(d.transport, responseObject) && d.log != nil {
				d.log.Warn("post-processor reported failure")
			}
		}
		return
	default:
		outcome = "error"
		segmentCount = d.sendReply(f, d.cfg.DefaultErrorMessage)
	}
}

// validate implements §4.7 step 1: frames not addressed to us, not of
// message format, with empty text, or that are themselves receipt frames
// are silently ignored.
func (d *Dispatcher) validate(f frame.InboundFrame) bool {
	if f.Addressee != d.cfg.BotCallsign {
		return false
	}
	if f.Format != frame.FormatMessage {
		return false
	}
	if f.Response == "ack" || f.Response == "rej" {
		return false
	}
	if f.MessageText == "" {
		return false
	}
	return true
}

// sendReply numbers, splits, and transmits text as one or more segments,
// returning the number of segments handed to the transport (a segment whose
// Send failed is logged and still counted).
func (d *Dispatcher) sendReply(f frame.InboundFrame, text string) int {
	numbering := f.MsgNo != ""
	replyAckTag := ""
	if f.AckMsgNo != "" {
		replyAckTag = padReplyAck(f.MsgNo)
	}

	reserve := 0
	if numbering {
		reserve = len("{AA")
		if replyAckTag != "" {
			reserve += len("}AA")
		}
	}

	segments := splitter.Split(text, splitter.Options{
		Enumerate:        d.cfg.Enumerate,
		NumberingReserve: reserve,
	})

	for _, seg := range segments {
		tag := ""
		if numbering {
			tag = msgnum.Encode(d.counter.Next())
		}
		line := frame.FormatMessageLine(d.cfg.BotCallsign, d.cfg.Tocall, f.FromCallsign, seg, tag, replyAckTag)
		if err := d.transport.Send(line); err != nil && d.log != nil {
			d.log.WithError(err).Warn("failed to send reply segment")
		}
		if d.cfg.InterPacketDelay > 0 {
			time.Sleep(d.cfg.InterPacketDelay)
		}
	}

	if numbering && len(segments) > 0 && d.cfg.CounterFilePath != "" {
		d.counter.Flush(d.cfg.CounterFilePath)
	}
	return len(segments)
}

// padReplyAck right-pads msgNo with '0' to two characters if it is shorter,
// resolving the open question in §9: a short message number is a cosmetic
// peer quirk, not a reason to drop the reply.
func padReplyAck(msgNo string) string {
	if len(msgNo) >= 2 {
		return msgNo[:2]
	}
	if len(msgNo) == 1 {
		return msgNo + "0"
	}
	return "00"
}
