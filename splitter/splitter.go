// Package splitter breaks an arbitrary-length reply into an ordered list of
// APRS payloads, each within the wire budget once any numbering or
// enumeration suffix is accounted for. Grounded on the whitespace-tokenizing
// idiom in rbn/client.go's spot-line scanning, generalized into a
// budget-aware packer.
package splitter

import (
	"strconv"
	"strings"
)

// PayloadBudget is the maximum length, in bytes, of one APRS payload
// including any numbering/enumeration suffix.
const PayloadBudget = 67

// Options configures the split.
type Options struct {
	// Enumerate, if true, decorates each segment with " (k/N)" and accounts
	// for that suffix inside PayloadBudget.
	Enumerate bool
	// NumberingReserve is the number of bytes the caller will append after
	// splitting (e.g. "{AA" or "{AA}BB"), reserved from the budget so the
	// final, numbered payload still fits in PayloadBudget.
	NumberingReserve int
}

// Split divides text into segments that individually fit within
// PayloadBudget once NumberingReserve and any enumeration suffix are
// applied. Splitting prefers whitespace boundaries; a single token longer
// than the available budget is hard-split. Already-short input is returned
// as a single segment (the transform is idempotent on in-budget input). The
// empty string yields no segments.
func Split(text string, opts Options) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	tokens := strings.Fields(text)
	budget := PayloadBudget - opts.NumberingReserve
	if budget < 1 {
		budget = 1
	}

	raw := packTokens(tokens, budget)
	if !opts.Enumerate || len(raw) <= 1 {
		return raw
	}
	return enumerate(raw, budget)
}

// packTokens greedily packs whitespace-separated tokens into lines no
// longer than budget, hard-splitting any token that alone exceeds budget.
func packTokens(tokens []string, budget int) []string {
	var out []string
	var cur strings.Builder

	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}

	for _, tok := range tokens {
		for len(tok) > budget {
			// Token alone cannot fit; hard-split it, first flushing
			// whatever is pending so boundaries stay clean.
			flush()
			out = append(out, tok[:budget])
			tok = tok[budget:]
		}
		needed := len(tok)
		if cur.Len() > 0 {
			needed += 1 // separating space
		}
		if cur.Len()+needed > budget {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(tok)
	}
	flush()
	return out
}

// enumerate re-packs segments with a trailing " (k/N)" marker, accounting
// for the marker's own length inside budget. Because the marker's width can
// grow with N's digit count, and removing a byte can let one more word fit
// which may in turn change N, enumeration is computed as a small fixed
// point: repack with the current marker width estimate until the segment
// count stops changing.
func enumerate(raw []string, budget int) []string {
	n := len(raw)
	joined := strings.Join(raw, " ")
	tokens := strings.Fields(joined)

	for {
		markerWidth := len(" (" + strconv.Itoa(n) + "/" + strconv.Itoa(n) + ")")
		innerBudget := budget - markerWidth
		if innerBudget < 1 {
			innerBudget = 1
		}
		packed := packTokens(tokens, innerBudget)
		if len(packed) == n {
			out := make([]string, len(packed))
			for i, seg := range packed {
				out[i] = seg + " (" + strconv.Itoa(i+1) + "/" + strconv.Itoa(len(packed)) + ")"
			}
			return out
		}
		n = len(packed)
	}
}
