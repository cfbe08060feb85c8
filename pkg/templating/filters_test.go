package templating

import (
	"bytes"
	"testing"

	"github.com/flosch/pongo2/v6"
)

func TestTruncateChars(t *testing.T) {
	cases := []struct {
		name   string
		value  string
		length int
		suffix string
		want   string
	}{
		{"BasicTruncation", "abcdefghij", 5, "...", "ab..."},
		{"BelowThreshold", "short", 10, "...", "short"},
		{"ExactLength", "abcde", 5, "...", "abcde"},
		{"UnicodeSuffix", "abcdef", 3, "…", "ab…"},
		{"SuffixFillsLimit", "abcdefghij", 3, "...", "..."},
		{"SuffixExceedsLimit", "abcdefghij", 2, "...", "..."},
		{"ZeroLength", "abc", 0, "...", "..."},
		{"Empty", "", 5, "...", ""},
		{"MultibyteValue", "héllo wörld", 7, "...", "héll..."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := TruncateChars(tc.value, tc.length, tc.suffix); got != tc.want {
				t.Errorf("TruncateChars(%q, %d, %q) = %q, want %q", tc.value, tc.length, tc.suffix, got, tc.want)
			}
		})
	}
}

// The truncated result never exceeds both the input length and the limit,
// provided the suffix itself fits within the limit.
func TestTruncateChars_LengthBound(t *testing.T) {
	inputs := []string{"", "a", "abcdef", "abcdefghijklmnop", "héllo wörld héllo"}
	for _, s := range inputs {
		for n := 3; n <= 20; n++ {
			got := []rune(TruncateChars(s, n, "..."))
			bound := len([]rune(s))
			if n > bound {
				bound = n
			}
			if len(got) > bound {
				t.Errorf("TruncateChars(%q, %d) has %d chars, exceeds bound %d", s, n, len(got), bound)
			}
		}
	}
}

func TestTruncateCharsFilter(t *testing.T) {
	tm := setupTestManager(t, DefaultConfig())

	render := func(tb testing.TB, content string, ctx pongo2.Context) string {
		tb.Helper()
		var buf bytes.Buffer
		if err := tm.ExecuteTemplateString(&buf, content, ctx); err != nil {
			tb.Fatalf("template execution failed: %v", err)
		}
		return buf.String()
	}

	t.Run("IntegerArgument", func(t *testing.T) {
		got := render(t, `{{ v|truncatechars:5 }}`, pongo2.Context{"v": "abcdefghij"})
		if got != "ab..." {
			t.Errorf("got %q, want %q", got, "ab...")
		}
	})

	t.Run("UnparseableArgument", func(t *testing.T) {
		got := render(t, `{{ v|truncatechars:"not-a-number" }}`, pongo2.Context{"v": "abcdef"})
		if got != "abcdef" {
			t.Errorf("unparseable length should leave value unchanged, got %q", got)
		}
	})

	t.Run("VariableArgument", func(t *testing.T) {
		got := render(t, `{{ v|truncatechars:n }}`, pongo2.Context{"v": "abcdefghij", "n": 5})
		if got != "ab..." {
			t.Errorf("got %q, want %q", got, "ab...")
		}
	})
}

func TestFilesizeFormatFilter(t *testing.T) {
	tm := setupTestManager(t, DefaultConfig())

	var buf bytes.Buffer
	if err := tm.ExecuteTemplateString(&buf, `{{ size|filesizeformat }}`, pongo2.Context{"size": 1536}); err != nil {
		t.Fatalf("template execution failed: %v", err)
	}
	if got := buf.String(); got != "1.5 KiB" {
		t.Errorf("filesizeformat(1536) = %q, want %q", got, "1.5 KiB")
	}
}
