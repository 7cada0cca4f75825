// Package sampleparser is a reference Parser implementation satisfying
// dispatch.Parser, grounded on input_parser.py's keyword dispatch. It
// recognizes a small set of demo commands with typo-tolerant matching via
// Levenshtein edit distance, and is wired into the dryrun harness and the
// pipeline's own tests — a real deployment supplies its own parser.
package sampleparser

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"aprsbot/dispatch"
)

// Response is the opaque response_object this parser hands to samplegen.Generator.
type Response struct {
	Command      string
	FromCallsign string
}

// maxEditDistance bounds how many single-character edits a received keyword
// may be from a known command and still match it.
const maxEditDistance = 1

var keywords = []string{"ping", "version", "help", "greetings", "lorem", "error"}

// Parser implements dispatch.Parser.
type Parser struct{}

// New constructs a Parser.
func New() *Parser { return &Parser{} }

var _ dispatch.Parser = (*Parser)(nil)

// Parse matches the first whitespace-delimited word of text against the
// known command table, tolerating small typos.
func (p *Parser) Parse(text, fromCallsign string) (dispatch.ParseStatus, string, any) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return dispatch.ParseIgnore, "", nil
	}
	word := strings.ToLower(fields[0])

	cmd, ok := matchKeyword(word)
	if !ok {
		return dispatch.ParseError, "unrecognized command: " + word, nil
	}

	if cmd == "error" {
		return dispatch.ParseError, "Triggered input processor error", nil
	}

	return dispatch.ParseOK, "", Response{Command: cmd, FromCallsign: fromCallsign}
}

// matchKeyword returns the closest known keyword to word within
// maxEditDistance, preferring an exact match.
func matchKeyword(word string) (string, bool) {
	for _, k := range keywords {
		if k == word {
			return k, true
		}
	}
	for _, k := range keywords {
		if levenshtein.ComputeDistance(k, word) <= maxEditDistance {
			return k, true
		}
	}
	return "", false
}
