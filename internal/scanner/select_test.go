package scanner

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelect(t *testing.T) {
	rows := []Row{
		{Symbol: "A", WinProbability: 75},
		{Symbol: "B", WinProbability: 60},
		{Symbol: "C", WinProbability: 59.99},
		{Symbol: "D", WinProbability: 0, Status: StatusFailed},
		{Symbol: "E", WinProbability: 100},
	}

	assert.Equal(t, []string{"A", "B", "E"}, Select(rows, 60))
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, Select(rows, 0))
	assert.Equal(t, []string{"E"}, Select(rows, 100))
	assert.Empty(t, Select(nil, 50))
}

func TestSelect_Monotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	rows := make([]Row, 50)
	for i := range rows {
		rows[i] = Row{Symbol: string(rune('A' + i%26)), WinProbability: float64(rng.Intn(101))}
	}

	for i := 0; i < 100; i++ {
		t1 := float64(rng.Intn(101))
		t2 := t1 + float64(rng.Intn(101-int(t1)))
		low, high := Select(rows, t1), Select(rows, t2)
		assert.GreaterOrEqual(t, len(low), len(high), "T1=%v T2=%v", t1, t2)
	}
}

func TestDistribution(t *testing.T) {
	rows := []Row{
		{Symbol: "A", WinProbability: 50},
		{Symbol: "B", WinProbability: 0},
		{Symbol: "C", WinProbability: 50},
		{Symbol: "D", WinProbability: 100},
		{Symbol: "E", WinProbability: 0},
		{Symbol: "F", WinProbability: 50},
	}

	assert.Equal(t, []Bucket{
		{Probability: 0, Count: 2},
		{Probability: 50, Count: 3},
		{Probability: 100, Count: 1},
	}, Distribution(rows))
	assert.Empty(t, Distribution(nil))
}
