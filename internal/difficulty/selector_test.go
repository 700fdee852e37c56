package difficulty

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNext_NoHistory(t *testing.T) {
	assert.Equal(t, Easy, Next(nil))
	assert.Equal(t, Easy, Next([]Outcome{}))
}

func TestNext_NoGradedOutcome(t *testing.T) {
	history := []Outcome{
		{Date: "2026-10-01", Graded: false, Overall: 100},
		{Date: "2026-10-02", Graded: false},
	}
	assert.Equal(t, Easy, Next(history))
}

func TestNext_Thresholds(t *testing.T) {
	tests := []struct {
		overall float64
		want    Level
	}{
		{0, Easy},
		{49.99, Easy},
		{50, Medium},
		{79.99, Medium},
		{80, Hard},
		{100, Hard},
	}
	for _, tt := range tests {
		got := Next([]Outcome{{Date: "2026-10-01", Graded: true, Overall: tt.overall}})
		assert.Equal(t, tt.want, got, "overall=%v", tt.overall)
	}
}

func TestNext_LatestByDateNotPosition(t *testing.T) {
	history := []Outcome{
		{Date: "2026-10-05", Graded: true, Overall: 90},
		{Date: "2026-10-01", Graded: true, Overall: 10},
		{Date: "2026-10-03", Graded: true, Overall: 60},
	}
	assert.Equal(t, Hard, Next(history))

	// A later ungraded activity does not hide the latest graded one.
	history = append(history, Outcome{Date: "2026-10-09", Graded: false})
	assert.Equal(t, Hard, Next(history))
}

func TestForScore_Monotone(t *testing.T) {
	prev := ForScore(0)
	for s := 0.0; s <= 100; s += 0.5 {
		cur := ForScore(s)
		require.GreaterOrEqual(t, int(cur), int(prev), "score %v", s)
		prev = cur
	}
}

func TestParseLevel(t *testing.T) {
	for _, l := range []Level{Easy, Medium, Hard} {
		got, err := ParseLevel(l.String())
		require.NoError(t, err)
		assert.Equal(t, l, got)
	}
	got, err := ParseLevel(" hard ")
	require.NoError(t, err)
	assert.Equal(t, Hard, got)

	_, err = ParseLevel("extreme")
	assert.Error(t, err)
}
