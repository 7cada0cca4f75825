// Package dispatch implements the per-inbound-message state machine:
// dedup, ack, parse, generate, split, number, send, record. Grounded on
// aprs_communication.py's mycallback, reshaped from a module-level callback
// closing over globals into a dispatcher object whose bound method is the
// callback — the resolution the design notes call for.
package dispatch

// ParseStatus is the outcome of a Parser invocation.
type ParseStatus int

const (
	ParseOK ParseStatus = iota
	ParseError
	ParseIgnore
)

func (s ParseStatus) String() string {
	switch s {
	case ParseOK:
		return "OK"
	case ParseError:
		return "ERROR"
	case ParseIgnore:
		return "IGNORE"
	default:
		return "UNKNOWN"
	}
}

// Parser is the external collaborator that interprets inbound message text.
// The response object is an opaque value handed to the Generator; the core
// never inspects it (the §9 "response_object" contract).
type Parser interface {
	Parse(text, fromCallsign string) (status ParseStatus, errString string, responseObject any)
}

// Generator is the external collaborator that renders a reply from a
// response object. runPostProcess resolves the ambiguity in the original
// contract over how a "post-processor payload is present" signal reaches
// the pipeline: the Generator itself reports it alongside its text.
type Generator interface {
	Generate(responseObject any) (ok bool, text string, runPostProcess bool)
}

// SessionHandle is the narrow surface the Dispatcher and Post-processor need
// from a live session: the ability to send a line. This breaks the cyclic
// dependency between session and dispatch per §9 — dispatch never imports
// the concrete session type (the scheduler likewise only receives plain
// job functions).
type SessionHandle interface {
	Send(line string) error
}

// PostProcessor runs after a reply has been sent. Failures are logged and
// never affect protocol state.
type PostProcessor interface {
	Post(session SessionHandle, responseObject any) bool
}

// AuditRecorder is the optional durable-history sink (A6). A nil
// AuditRecorder disables auditing entirely.
type AuditRecorder interface {
	Record(fromCallsign, messageText, msgNo, outcome string, segments int)
}
