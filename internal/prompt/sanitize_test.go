package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		flags Flags
		want  string
	}{
		{"trims to last terminator", "A.B!C? trailing", Flags{}, "A.B!C?"},
		{"no terminator unchanged", "no terminator here", Flags{}, "no terminator here"},
		{"surrounding whitespace", "  Done. ", Flags{}, "Done."},
		{"exclamation last", "Go is fun! Rust is", Flags{}, "Go is fun!"},
		{"empty", "", Flags{}, ""},
		{"table drops incomplete row", "a|b\na|b\nbroken row", Flags{TableFormat: true}, "a|b\na|b"},
		{"table drops trailing prose", "| x | y |\n|---|---|\n| 1 | 2 |\nHope this helps.", Flags{TableFormat: true}, "| x | y |\n|---|---|\n| 1 | 2 |"},
		{"table leading blank line", "\n\na|b\nc|d", Flags{TableFormat: true}, "a|b\nc|d"},
		{"table ignores terminators", "a|b.\nc|d", Flags{TableFormat: true}, "a|b.\nc|d"},
		{"table with leading prose", "Here you go:\na|b", Flags{TableFormat: true}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.raw, tt.flags))
		})
	}
}
