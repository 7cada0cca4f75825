// Package frame implements the APRS-IS text-frame codec: parsing inbound
// directed-message lines into structured records, and formatting outbound
// message, ack, bulletin, and beacon lines. Grounded on the teacher's own
// caret-delimited PC-frame parse/encode pairing in peer/protocol.go,
// generalized to the APRS text-message wire format described by aprslib and
// exercised in aprs_communication.py.
package frame

import (
	"strconv"
	"strings"
)

// Format enumerates the recognized payload kinds. Only "message" frames are
// returned by Parse as parsed and processed by the dispatch pipeline; a
// position report is tagged FormatPosition but Parse reports it as not
// parsed.
type Format string

const (
	FormatMessage  Format = "message"
	FormatPosition Format = "position"
	FormatUnknown  Format = "unknown"
)

// InboundFrame is a parsed APRS-IS line addressed to a station.
type InboundFrame struct {
	Addressee    string
	FromCallsign string
	MessageText  string
	MsgNo        string
	AckMsgNo     string
	Format       Format
	Response     string // "ack", "rej", or "" for a normal request
}

// addresseeFieldWidth is the fixed width of the addressee field in a
// colon-delimited APRS message/bulletin/ack frame.
const addresseeFieldWidth = 9

// Parse parses one APRS-IS line into an InboundFrame. The second return
// value is false for lines that are not a recognized message-format frame
// (position reports, unparseable garbage, or anything shorter than a
// complete frame) — such lines simply produce no frame, per §4.4.
func Parse(line string) (InboundFrame, bool) {
	var f InboundFrame

	gt := strings.IndexByte(line, '>')
	if gt < 0 {
		return f, false
	}
	f.FromCallsign = strings.ToUpper(line[:gt])
	rest := line[gt+1:]

	colon := strings.IndexByte(rest, ':')
	if colon < 0 {
		return f, false
	}
	payload := rest[colon+1:]

	if !strings.HasPrefix(payload, ":") {
		// Not a colon-delimited message/bulletin/ack frame — e.g. a
		// position/beacon report. Recognized as out-of-scope, not an error.
		f.Format = FormatPosition
		return f, false
	}
	payload = payload[1:]

	if len(payload) < addresseeFieldWidth+1 || payload[addresseeFieldWidth] != ':' {
		return f, false
	}
	f.Addressee = strings.TrimRight(payload[:addresseeFieldWidth], " ")
	body := payload[addresseeFieldWidth+1:]

	switch {
	case strings.HasPrefix(body, "ack"):
		f.Response = "ack"
		f.Format = FormatMessage
		f.MsgNo = body[3:]
		return f, true
	case strings.HasPrefix(body, "rej"):
		f.Response = "rej"
		f.Format = FormatMessage
		f.MsgNo = body[3:]
		return f, true
	}

	f.Format = FormatMessage

	brace := strings.IndexByte(body, '{')
	if brace < 0 {
		f.MessageText = body
		return f, true
	}
	f.MessageText = body[:brace]
	suffix := body[brace+1:]

	if close := strings.IndexByte(suffix, '}'); close >= 0 {
		f.MsgNo = suffix[:close]
		f.AckMsgNo = suffix[close+1:]
	} else {
		f.MsgNo = suffix
	}
	return f, true
}

// padAddressee left-justifies and space-pads an addressee/bulletin id to the
// fixed 9-character field width used on the wire.
func padAddressee(s string) string {
	if len(s) >= addresseeFieldWidth {
		return s[:addresseeFieldWidth]
	}
	return s + strings.Repeat(" ", addresseeFieldWidth-len(s))
}

// FormatMessageLine builds a directed-message outbound line. tag is the
// two-letter alpha counter to append; if empty, no numbering suffix is
// appended (the request carried no msg_no). replyAck, if non-empty, is
// appended after the tag as the reply-ack tail ("}XX"); it is dropped when
// tag is empty.
func FormatMessageLine(srcCallsign, tocall, dest, text, tag, replyAck string) string {
	var b strings.Builder
	b.WriteString(srcCallsign)
	b.WriteByte('>')
	b.WriteString(tocall)
	b.WriteString("::")
	b.WriteString(padAddressee(dest))
	b.WriteByte(':')
	b.WriteString(text)
	if tag != "" {
		b.WriteByte('{')
		b.WriteString(tag)
		if replyAck != "" {
			b.WriteByte('}')
			b.WriteString(replyAck)
		}
	}
	return b.String()
}

// FormatAck builds an ack receipt line for the given inbound msgNo.
func FormatAck(srcCallsign, tocall, dest, msgNo string) string {
	var b strings.Builder
	b.WriteString(srcCallsign)
	b.WriteByte('>')
	b.WriteString(tocall)
	b.WriteString("::")
	b.WriteString(padAddressee(dest))
	b.WriteString(":ack")
	b.WriteString(msgNo)
	return b.String()
}

// FormatBulletin builds a bulletin broadcast line. blnID is left-justified
// and space-padded to the 9-character addressee field (e.g. "BLN0DEMO"
// goes on the wire as "BLN0DEMO ").
func FormatBulletin(srcCallsign, tocall, blnID, text string) string {
	var b strings.Builder
	b.WriteString(srcCallsign)
	b.WriteByte('>')
	b.WriteString(tocall)
	b.WriteString("::")
	b.WriteString(padAddressee(blnID))
	b.WriteByte(':')
	b.WriteString(text)
	return b.String()
}

// FormatBeacon builds a position/beacon line. altitudeFt is zero-padded (and
// truncated if it overflows) to six digits.
func FormatBeacon(srcCallsign, tocall, lat, table, lon, symbol, callsign, version string, altitudeFt int) string {
	alt := altitudeFt
	if alt < 0 {
		alt = 0
	}
	altStr := padNumber(alt, 6)

	var b strings.Builder
	b.WriteString(srcCallsign)
	b.WriteByte('>')
	b.WriteString(tocall)
	b.WriteString(":=")
	b.WriteString(lat)
	b.WriteString(table)
	b.WriteString(lon)
	b.WriteString(symbol)
	b.WriteString(callsign)
	b.WriteByte(' ')
	b.WriteString(version)
	b.WriteString(" /A=")
	b.WriteString(altStr)
	return b.String()
}

func padNumber(n, width int) string {
	s := strconv.Itoa(n)
	if len(s) >= width {
		return s[len(s)-width:]
	}
	return strings.Repeat("0", width-len(s)) + s
}
