package splitter

import (
	"strconv"
	"strings"
	"testing"
)

func TestSplitEmpty(t *testing.T) {
	if got := Split("", Options{}); got != nil {
		t.Errorf("Split(\"\") = %v, want nil", got)
	}
}

func TestSplitShortIsIdempotent(t *testing.T) {
	got := Split("Hello DF1JSL-1", Options{})
	if len(got) != 1 || got[0] != "Hello DF1JSL-1" {
		t.Errorf("got %v", got)
	}
}

func TestSplitExactBudget(t *testing.T) {
	text := strings.Repeat("a", PayloadBudget)
	got := Split(text, Options{})
	if len(got) != 1 {
		t.Fatalf("67-byte message should yield one segment, got %d", len(got))
	}
	if len(got[0]) != PayloadBudget {
		t.Errorf("segment length = %d, want %d", len(got[0]), PayloadBudget)
	}
}

func TestSplitOneOverBudget(t *testing.T) {
	text := strings.Repeat("a", PayloadBudget+1)
	got := Split(text, Options{})
	if len(got) != 2 {
		t.Fatalf("68-byte message should yield two segments, got %d", len(got))
	}
}

func TestSplitRespectsBudgetWithReserve(t *testing.T) {
	text := strings.Repeat("word ", 40)
	got := Split(text, Options{NumberingReserve: 3})
	for _, seg := range got {
		if len(seg)+3 > PayloadBudget {
			t.Errorf("segment %q too long once numbering is added", seg)
		}
	}
}

func TestSplitLongReplyPreservesWords(t *testing.T) {
	lorem := strings.Repeat("lorem ipsum dolor sit amet consectetur adipiscing elit ", 12)
	got := Split(lorem, Options{NumberingReserve: 3})
	if len(got) < 10 {
		t.Fatalf("expected >=10 segments for long reply, got %d", len(got))
	}
	for _, seg := range got {
		if len(seg) > PayloadBudget-3 {
			t.Errorf("segment exceeds budget: %q (%d bytes)", seg, len(seg))
		}
		if seg == "" {
			t.Error("splitter produced an empty segment")
		}
	}
	// concatenation preserves non-whitespace content
	var gotWords, wantWords []string
	for _, seg := range got {
		gotWords = append(gotWords, strings.Fields(seg)...)
	}
	wantWords = strings.Fields(lorem)
	if strings.Join(gotWords, "") != strings.Join(wantWords, "") {
		t.Error("splitter lost or reordered non-whitespace content")
	}
}

func TestSplitHardSplitsLongToken(t *testing.T) {
	tok := strings.Repeat("x", 200)
	got := Split(tok, Options{})
	if len(got) < 3 {
		t.Fatalf("expected a long single token to be hard-split, got %d segments", len(got))
	}
	for _, seg := range got {
		if len(seg) > PayloadBudget {
			t.Errorf("hard-split segment exceeds budget: %d bytes", len(seg))
		}
	}
}

func TestSplitEnumerateAccountsForSuffix(t *testing.T) {
	lorem := strings.Repeat("lorem ipsum dolor sit amet ", 10)
	got := Split(lorem, Options{Enumerate: true})
	if len(got) < 2 {
		t.Fatalf("expected multiple segments, got %d", len(got))
	}
	for i, seg := range got {
		if len(seg) > PayloadBudget {
			t.Errorf("enumerated segment %d exceeds budget: %q", i, seg)
		}
		want := " (" + strconv.Itoa(i+1) + "/" + strconv.Itoa(len(got)) + ")"
		if !strings.HasSuffix(seg, want) {
			t.Errorf("segment %d missing enumeration suffix: %q", i, seg)
		}
	}
}
