package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name     string
	Calories float64
}

func names(ranked []Scored[item]) []string {
	out := make([]string, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.Name)
	}
	return out
}

func TestRank_Ordering(t *testing.T) {
	items := []item{
		{Name: "chocolate cake", Calories: 370},
		{Name: "milk", Calories: 64},
		{Name: "whole milk 3.25% fat", Calories: 61},
		{Name: "almond drink", Calories: 24},
	}

	ranked := Rank("milk", items, func(i item) string { return i.Name }, 0)
	require.Len(t, ranked, 4)

	assert.Equal(t, "milk", ranked[0].Name)
	assert.Equal(t, 1.0, ranked[0].Score)
	assert.Equal(t, "whole milk 3.25% fat", ranked[1].Name, "substring match should outrank unrelated names")
	assert.Greater(t, ranked[1].Score, ranked[2].Score)

	// Scores descend throughout.
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Score, ranked[i].Score)
	}
}

func TestRank_Limit(t *testing.T) {
	items := []item{
		{Name: "apple"}, {Name: "apple pie"}, {Name: "apple juice"}, {Name: "pineapple"},
	}
	nameOf := func(i item) string { return i.Name }

	assert.Len(t, Rank("apple", items, nameOf, 2), 2)
	assert.Len(t, Rank("apple", items, nameOf, 10), 4)
	assert.Len(t, Rank("apple", items, nameOf, 0), 4)
	assert.Len(t, Rank("apple", items, nameOf, -1), 4)
}

func TestRank_SkipsBlankNames(t *testing.T) {
	items := []item{
		{Name: ""},
		{Name: "   "},
		{Name: "oatmeal"},
	}

	ranked := Rank("oat", items, func(i item) string { return i.Name }, 0)
	require.Len(t, ranked, 1)
	assert.Equal(t, "oatmeal", ranked[0].Name)
}

func TestRank_StableOnTies(t *testing.T) {
	// Identical names produce identical scores; input order must hold.
	items := []item{
		{Name: "rice", Calories: 1},
		{Name: "rice", Calories: 2},
		{Name: "rice", Calories: 3},
	}

	ranked := Rank("rice", items, func(i item) string { return i.Name }, 0)
	require.Len(t, ranked, 3)
	assert.Equal(t, 1.0, ranked[0].Value.Calories)
	assert.Equal(t, 2.0, ranked[1].Value.Calories)
	assert.Equal(t, 3.0, ranked[2].Value.Calories)
}

func TestRank_EmptyInputs(t *testing.T) {
	nameOf := func(i item) string { return i.Name }

	assert.Empty(t, Rank("milk", nil, nameOf, 5))

	ranked := Rank("", []item{{Name: "milk"}}, nameOf, 5)
	require.Len(t, ranked, 1)
	assert.Equal(t, 0.0, ranked[0].Score, "empty query scores zero but never crashes")

	assert.Equal(t, names(Rank("MILK", []item{{Name: "Milk"}}, nameOf, 1)), []string{"Milk"})
}
