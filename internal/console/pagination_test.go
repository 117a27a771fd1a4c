package console_test

import (
	"strings"
	"testing"

	"github.com/geocoder89/userdesk/internal/console"
)

func TestPageCount(t *testing.T) {
	tests := []struct {
		total, size, want int
	}{
		{0, 5, 0},
		{1, 5, 1},
		{5, 5, 1},
		{6, 5, 2},
		{12, 5, 3},
		{12, 0, 0},
	}

	for _, tt := range tests {
		if got := console.PageCount(tt.total, tt.size); got != tt.want {
			t.Fatalf("PageCount(%d,%d) = %d, want %d", tt.total, tt.size, got, tt.want)
		}
	}
}

func render(links []console.PageLink) string {
	parts := make([]string, 0, len(links))
	for _, l := range links {
		label := l.Label
		if l.Current {
			label = "[" + label + "]"
		}
		if l.Disabled {
			label = "(" + label + ")"
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, " ")
}

func TestPageLinks(t *testing.T) {
	tests := []struct {
		name          string
		cursor, count int
		want          string
	}{
		{name: "empty", cursor: 0, count: 0, want: ""},
		{name: "single", cursor: 0, count: 1, want: "(previous) [1] (next)"},
		{name: "three_last", cursor: 2, count: 3, want: "previous 1 2 [3] (next)"},
		{name: "many_start", cursor: 0, count: 10, want: "(previous) [1] 2 3 ... 10 next"},
		{name: "many_middle", cursor: 5, count: 10, want: "previous 1 ... 5 [6] 7 ... 10 next"},
		{name: "many_end", cursor: 9, count: 10, want: "previous 1 ... 8 9 [10] (next)"},
		{name: "near_start", cursor: 2, count: 10, want: "previous 1 2 [3] 4 ... 10 next"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := render(console.PageLinks(tt.cursor, tt.count)); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}
