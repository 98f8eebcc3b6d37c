package block

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestString(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"  hello ", "hello", true},
		{"", "", false},
		{"   ", "", false},
		{"0", "0", true},
	}
	for _, tt := range tests {
		got, ok := String(tt.raw)
		assert.Equal(t, tt.want, got, "raw %q", tt.raw)
		assert.Equal(t, tt.ok, ok, "raw %q", tt.raw)
	}
}

func TestInt(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		def  int
		want int
	}{
		{"plain", "3", 1, 3},
		{"padded", "  4 ", 1, 4},
		{"leading literal", "2/5 (improving)", 1, 2},
		{"decimal truncates", "3.7", 1, 3},
		{"garbage", "abc", 1, 1},
		{"empty", "", 0, 0},
		{"above range", "9", 1, 5},
		{"below range", "-3", 1, 1},
		{"overflow", "99999999999999999999999", 1, 5},
		{"signed", "+2", 1, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Int(tt.raw, tt.def, 1, 5))
		})
	}
}

func TestInt_NeverOutOfRange(t *testing.T) {
	for _, raw := range []string{"", "x", "-", "--1", "7", "-7", "0", "1e9", "  ", "١٢"} {
		n := Int(raw, 0, 0, 10)
		assert.GreaterOrEqual(t, n, 0, "raw %q", raw)
		assert.LessOrEqual(t, n, 10, "raw %q", raw)
	}
}

func TestDate(t *testing.T) {
	want := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	for _, raw := range []string{"2025-06-01", "2025/6/1", "2025.06.01", " 2025-06-01T09:30:00Z", "2025-06-01 (midterm)"} {
		got := Date(raw)
		require.NotNil(t, got, "raw %q", raw)
		assert.True(t, want.Equal(*got), "raw %q: got %v", raw, got)
	}

	for _, raw := range []string{"", "soon", "June 1st", "2025-02-30", "2025-13-01", "01-06-2025"} {
		assert.Nil(t, Date(raw), "raw %q", raw)
	}
}
