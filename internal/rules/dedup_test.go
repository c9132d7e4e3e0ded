package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedup_LargestWins(t *testing.T) {
	in := []Violation{
		{Path: "a", SortKey: 100, Commit: "1"},
		{Path: "b", SortKey: 5},
		{Path: "a", SortKey: 300, Commit: "2"},
		{Path: "a", SortKey: 200, Commit: "3"},
	}
	out := Dedup(in)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].Path)
	assert.Equal(t, uint64(300), out[0].SortKey)
	assert.Equal(t, "2", out[0].Commit)
	assert.Equal(t, "b", out[1].Path)
}

func TestDedup_TieKeepsFirst(t *testing.T) {
	out := Dedup([]Violation{
		{Path: "a", SortKey: 100, Message: "first"},
		{Path: "a", SortKey: 100, Message: "second"},
	})
	require.Len(t, out, 1)
	assert.Equal(t, "first", out[0].Message)
}

func TestDedup_Empty(t *testing.T) {
	assert.Nil(t, Dedup(nil))
}

func TestMerge_HistoryLargerWins(t *testing.T) {
	live := []Violation{{Path: "/repo/big.bin", SortKey: 600, Severity: Warning}}
	history := []Violation{{Path: "/repo/big.bin", SortKey: 2000, Severity: Error, Commit: "abc1234"}}

	out := Merge(live, history)
	require.Len(t, out, 1)
	assert.Equal(t, uint64(2000), out[0].SortKey)
	assert.Equal(t, "abc1234", out[0].Commit)
}

func TestMerge_TiePrefersLive(t *testing.T) {
	live := []Violation{{Path: "/repo/big.bin", SortKey: 2000, Message: "live"}}
	history := []Violation{{Path: "/repo/big.bin", SortKey: 2000, Message: "history", Commit: "abc1234"}}

	out := Merge(live, history)
	require.Len(t, out, 1)
	assert.Equal(t, "live", out[0].Message)
	assert.Empty(t, out[0].Commit)
}

func TestMerge_DisjointPathsKept(t *testing.T) {
	out := Merge(
		[]Violation{{Path: "/repo/a", SortKey: 1}},
		[]Violation{{Path: "/repo/b", SortKey: 2}},
	)
	assert.Len(t, out, 2)
}
