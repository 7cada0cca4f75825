// Package msgnum encodes the outbound message counter as a two-letter
// alphanumeric tag in the range "AA".."ZZ".
package msgnum

// MaxValue is the highest counter value the encoder maps without wrapping;
// Encode(MaxValue) == "ZZ". counter.Counter.Next wraps to 0 right after
// handing out this value.
const MaxValue = 675

// Encode maps n in [0, 675] to a two-letter tag. n is reduced modulo 676
// before encoding (so Encode(676) == "AA") and a caller that forgets to wrap
// still gets a stable in-range result rather than garbage letters.
func Encode(n int) string {
	n = n % (MaxValue + 1)
	if n < 0 {
		n += MaxValue + 1
	}
	first := n / 26
	second := n % 26
	return string(rune('A'+first)) + string(rune('A'+second))
}

// IsLast reports whether tag is "ZZ", the final tag emitted in a cycle
// before the counter wraps back to 0.
func IsLast(tag string) bool {
	return tag == "ZZ"
}
