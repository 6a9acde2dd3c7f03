package segment_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/teslashibe/go-nova/pkg/segment"
)

// collect feeds every fragment, then flushes, returning all output in order.
func collect(fragments ...string) []string {
	s := segment.New()
	var out []string
	for _, f := range fragments {
		out = append(out, s.Push(f)...)
	}
	if rest, ok := s.Flush(); ok {
		out = append(out, rest)
	}
	return out
}

func TestSegmenterExample(t *testing.T) {
	s := segment.New()

	got := s.Push("Hello world. How are ")
	if !reflect.DeepEqual(got, []string{"Hello world."}) {
		t.Fatalf("first push: got %q", got)
	}
	if s.Pending() != " How are " {
		t.Errorf("expected pending %q, got %q", " How are ", s.Pending())
	}

	got = s.Push("you? Fine")
	if !reflect.DeepEqual(got, []string{" How are you?"}) {
		t.Fatalf("second push: got %q", got)
	}

	rest, ok := s.Flush()
	if !ok || rest != "Fine" {
		t.Fatalf("expected flush %q, got %q (ok=%v)", "Fine", rest, ok)
	}

	if _, ok := s.Flush(); ok {
		t.Error("expected second flush to be empty")
	}
}

func TestSegmenterCases(t *testing.T) {
	tests := []struct {
		name      string
		fragments []string
		want      []string
	}{
		{
			name:      "several marks in one fragment",
			fragments: []string{"Yes! Really? Okay."},
			want:      []string{"Yes!", " Really?", " Okay."},
		},
		{
			name:      "mark split across fragments",
			fragments: []string{"Varia", "bles are boxes", ".", " Next"},
			want:      []string{"Variables are boxes.", " Next"},
		},
		{
			name:      "ellipsis cuts at every dot",
			fragments: []string{"Well... ok"},
			want:      []string{"Well.", ".", ".", " ok"},
		},
		{
			name:      "no terminal at all",
			fragments: []string{"just ", "words"},
			want:      []string{"just words"},
		},
		{
			name:      "empty fragments ignored",
			fragments: []string{"", "Hi.", ""},
			want:      []string{"Hi."},
		},
		{
			name:      "trailing whitespace is flushed",
			fragments: []string{"Done.\n\n"},
			want:      []string{"Done.", "\n\n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := collect(tt.fragments...)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSegmenterRoundTrip(t *testing.T) {
	inputs := [][]string{
		{"Hello world. How are ", "you? Fine"},
		{"**Variables** are like <labeled boxes>. ", "Each holds data! Right?", " Yes"},
		{"a", ".", "b", "!", "?", "c"},
		{"", "   ", "No marks here"},
		{"3.14 is pi. ", "e is 2.71..."},
		{"Unicode — ok? Sí. ¿Qué?"},
	}

	for _, in := range inputs {
		got := strings.Join(collect(in...), "")
		want := strings.Join(in, "")
		if got != want {
			t.Errorf("round trip mismatch:\n got  %q\n want %q", got, want)
		}
	}
}

func TestSpeakable(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"Hello.", true},
		{" Ok.", true},
		{"Hi", false},
		{" . ", false},
		{"\n\n", false},
		{"ab.", true},
		{"", false},
		// counted in characters, not bytes
		{"éé", false},
		{" ¿Sí", true},
		{"日本", false},
		{"日本語", true},
		{"¡!", false},
	}
	for _, tt := range tests {
		if got := segment.Speakable(tt.in); got != tt.want {
			t.Errorf("Speakable(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
