package parser

import (
	"testing"
	"time"

	"github.com/ZDSRepositories/dotwar/pkg/physics"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Command
	}{
		{
			name:  "immediate burn",
			input: "burn 10 0 -5",
			want:  Command{Verb: VerbBurn, Accel: physics.Vector3{X: 10, Z: -5}},
		},
		{
			name:  "burn with interval after",
			input: "burn 10 0 0 in 2 hours",
			want:  Command{Verb: VerbBurn, Accel: physics.Vector3{X: 10}, In: 2 * time.Hour},
		},
		{
			name:  "interval before verb",
			input: "in 30 seconds burn 0 1 0",
			want:  Command{Verb: VerbBurn, Accel: physics.Vector3{Y: 1}, In: 30 * time.Second},
		},
		{
			name:  "singular unit alias",
			input: "burn 1 1 1 in 1 hour",
			want:  Command{Verb: VerbBurn, Accel: physics.Vector3{X: 1, Y: 1, Z: 1}, In: time.Hour},
		},
		{
			name:  "fractional days",
			input: "burn 5 0 0 in 1.5 days",
			want:  Command{Verb: VerbBurn, Accel: physics.Vector3{X: 5}, In: 36 * time.Hour},
		},
		{
			name:  "absolute time",
			input: "burn 10 0 0 at 2024-05-01 13:30",
			want: Command{
				Verb:  VerbBurn,
				Accel: physics.Vector3{X: 10},
				At:    time.Date(2024, 5, 1, 13, 30, 0, 0, time.Local),
			},
		},
		{
			name:  "scan",
			input: "scan",
			want:  Command{Verb: VerbScan},
		},
		{
			name:  "agenda",
			input: "agenda",
			want:  Command{Verb: VerbAgenda},
		},
		{
			name:  "mixed case and extra whitespace",
			input: "  BURN  3  4  5  ",
			want:  Command{Verb: VerbBurn, Accel: physics.Vector3{X: 3, Y: 4, Z: 5}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty input", ""},
		{"only whitespace", "   "},
		{"no verb", "in 2 hours"},
		{"two verbs", "burn 1 0 0 scan"},
		{"burn missing components", "burn 1 0"},
		{"burn with non-numeric component", "burn 1 fast 0"},
		{"unit without count", "hours burn 1 0 0"},
		{"unit with non-numeric count", "burn 1 0 0 in many hours"},
		{"two execution times", "burn 1 0 0 in 2 hours at 2024-05-01 13:30"},
		{"at missing time", "burn 1 0 0 at 2024-05-01"},
		{"at malformed date", "burn 1 0 0 at tomorrow noon"},
		{"scan with execution time", "scan in 2 hours"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.input); err == nil {
				t.Errorf("Parse(%q) = nil error, want error", tt.input)
			}
		})
	}
}
