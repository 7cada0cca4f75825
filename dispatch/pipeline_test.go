package dispatch_test

import (
	"strings"
	"testing"
	"time"

	"aprsbot/counter"
	"aprsbot/dedupe"
	"aprsbot/dispatch"
	"aprsbot/frame"
	"aprsbot/samplegen"
	"aprsbot/sampleparser"
)

// fakeTransport records every line handed to Send.
type fakeTransport struct {
	sent []string
}

func (f *fakeTransport) Send(line string) error {
	f.sent = append(f.sent, line)
	return nil
}

func newDispatcher(t *testing.T, tr *fakeTransport) *dispatch.Dispatcher {
	t.Helper()
	cfg := dispatch.Config{
		BotCallsign:         "COAC",
		Tocall:              "APRS",
		DefaultErrorMessage: "default error",
		CounterFilePath:     t.TempDir() + "/counter.txt",
	}
	return dispatch.New(cfg, tr, dedupe.New(time.Minute, 1000), counter.New(nil),
		sampleparser.New(), samplegen.New(), nil, nil, nil)
}

func TestScenarioGreet(t *testing.T) {
	tr := &fakeTransport{}
	d := newDispatcher(t, tr)

	f, ok := frame.Parse("DF1JSL-1>APRS::COAC     :greetings{AB")
	if !ok {
		t.Fatal("frame should parse")
	}
	d.HandleFrame(f)

	if len(tr.sent) != 2 {
		t.Fatalf("expected ack + reply, got %d lines: %v", len(tr.sent), tr.sent)
	}
	if tr.sent[0] != "COAC>APRS::DF1JSL-1 :ackAB" {
		t.Errorf("ack line = %q", tr.sent[0])
	}
	if tr.sent[1] != "COAC>APRS::DF1JSL-1 :Hello DF1JSL-1{AA" {
		t.Errorf("reply line = %q", tr.sent[1])
	}
}

func TestScenarioDuplicateSuppression(t *testing.T) {
	tr := &fakeTransport{}
	d := newDispatcher(t, tr)

	f, _ := frame.Parse("DF1JSL-1>APRS::COAC     :greetings{AB")
	d.HandleFrame(f)
	firstCount := len(tr.sent)

	d.HandleFrame(f)
	if len(tr.sent) != firstCount {
		t.Fatalf("duplicate frame should produce no additional sends, got %d new", len(tr.sent)-firstCount)
	}
}

func TestScenarioLongReplySplit(t *testing.T) {
	tr := &fakeTransport{}
	d := newDispatcher(t, tr)

	f, ok := frame.Parse("DF1JSL-1>APRS::COAC     :lorem{AC")
	if !ok {
		t.Fatal("frame should parse")
	}
	d.HandleFrame(f)

	if len(tr.sent) < 11 {
		t.Fatalf("expected ack + >=10 segments, got %d: %v", len(tr.sent), tr.sent)
	}
	if tr.sent[0] != "COAC>APRS::DF1JSL-1 :ackAC" {
		t.Errorf("ack line = %q", tr.sent[0])
	}
	for _, line := range tr.sent[1:] {
		if idx := strings.IndexByte(line, ':'); idx >= 0 {
			payload := line[strings.LastIndex(line, ":")+1:]
			if len(payload) > 67 {
				t.Errorf("segment payload exceeds 67 bytes: %q", payload)
			}
		}
	}
	// Segments are numbered consecutively in order, starting from the
	// dispatcher's current counter value (here a fresh counter: AA, AB, …).
	for i, line := range tr.sent[1:] {
		want := "{" + expectedTag(i)
		if !strings.HasSuffix(line, want) {
			t.Errorf("segment %d suffix = %q, want ending %q", i, line, want)
		}
	}
}

func expectedTag(n int) string {
	first := n / 26
	second := n % 26
	return string(rune('A'+first)) + string(rune('A'+second))
}

func TestScenarioParseErrorWithInlineMessage(t *testing.T) {
	tr := &fakeTransport{}
	d := newDispatcher(t, tr)

	f, ok := frame.Parse("DF1JSL-1>APRS::COAC     :error{AD")
	if !ok {
		t.Fatal("frame should parse")
	}
	d.HandleFrame(f)

	if len(tr.sent) != 2 {
		t.Fatalf("expected ack + one error segment, got %d: %v", len(tr.sent), tr.sent)
	}
	if tr.sent[0] != "COAC>APRS::DF1JSL-1 :ackAD" {
		t.Errorf("ack line = %q", tr.sent[0])
	}
	want := "COAC>APRS::DF1JSL-1 :Triggered input processor error{AA"
	if tr.sent[1] != want {
		t.Errorf("error reply = %q, want %q", tr.sent[1], want)
	}
}

func TestScenarioReplyAckFormat(t *testing.T) {
	tr := &fakeTransport{}
	d := newDispatcher(t, tr)

	f, ok := frame.Parse("DF1JSL-1>APRS::COAC     :hello{AE}ZZ")
	if !ok {
		t.Fatal("frame should parse")
	}
	d.HandleFrame(f)

	if len(tr.sent) != 1 {
		t.Fatalf("reply-ack format should produce no standalone ack, got %d: %v", len(tr.sent), tr.sent)
	}
	// No standalone ack; the reply-ack tail echoes the inbound msg_no (AE),
	// and the alpha tag comes from the dispatcher's own counter (AA fresh).
	if !strings.HasSuffix(tr.sent[0], "{AA}AE") {
		t.Errorf("reply suffix = %q, want suffix {AA}AE", tr.sent[0])
	}
}

func TestReplyAckPadsShortMsgNo(t *testing.T) {
	tr := &fakeTransport{}
	d := newDispatcher(t, tr)

	// Inbound msg_no is a single character; the open question in §9 is
	// resolved by right-padding it to two characters with '0'.
	f, ok := frame.Parse("DF1JSL-1>APRS::COAC     :ping{A}A")
	if !ok {
		t.Fatal("frame should parse")
	}
	d.HandleFrame(f)

	if len(tr.sent) != 1 {
		t.Fatalf("expected one reply, got %v", tr.sent)
	}
	if !strings.HasSuffix(tr.sent[0], "}A0") {
		t.Errorf("reply suffix = %q, want padded tail ending in }A0", tr.sent[0])
	}
}

func TestIgnoresWrongAddressee(t *testing.T) {
	tr := &fakeTransport{}
	d := newDispatcher(t, tr)

	f, _ := frame.Parse("DF1JSL-1>APRS::OTHERCALL:greetings{AB")
	d.HandleFrame(f)
	if len(tr.sent) != 0 {
		t.Fatalf("frame addressed elsewhere should be ignored, got %v", tr.sent)
	}
}

func TestIgnoresReceiptFrames(t *testing.T) {
	tr := &fakeTransport{}
	d := newDispatcher(t, tr)

	f, ok := frame.Parse("DF1JSL-1>APRS::COAC     :ackAB")
	if !ok {
		t.Fatal("ack receipt should parse")
	}
	d.HandleFrame(f)
	if len(tr.sent) != 0 {
		t.Fatalf("ack receipt frame should never be dispatched, got %v", tr.sent)
	}
}
