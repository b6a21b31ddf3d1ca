package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartsWithSafe(t *testing.T) {
	tests := []struct {
		candidate string
		q         string
		want      bool
	}{
		{"b12", "b1", false},
		{"b1 supplement", "b1", true},
		{"b1", "b1", true},
		{"b1-complex", "b1", true},
		{"magnesium", "mag", true},
		{"omega 30", "omega 3", false},
		{"omega 3", "omega 3", true},
		{"5-htp", "5", true},
		{"b12", "b12", true},
		{"zinc", "mag", false},
		{"", "a", false},
		{"abc", "", false},
		// Only the last query character matters.
		{"b1x2", "b1x", true},
	}

	for _, tt := range tests {
		t.Run(tt.candidate+"/"+tt.q, func(t *testing.T) {
			assert.Equal(t, tt.want, StartsWithSafe(tt.candidate, tt.q))
		})
	}
}

func TestVitaminLetterMatch(t *testing.T) {
	tests := []struct {
		text   string
		letter string
		want   bool
	}{
		{"vitamin b6", "b", true},
		{"vitamin b complex", "b", true},
		{"vitamin b-12", "b", true},
		{"b12", "b", true},
		{"b 6", "b", true},
		{"bilberry extract", "b", false},
		{"b123", "b", false},
		{"b-complex", "b", false},

		{"vitamin c", "c", true},
		{"Vitamin C (ascorbic acid)", "c", true},
		{"calcium", "c", false},
		{"c", "c", false},

		{"vitamin d3", "d", true},
		{"vitamin d", "d", true},
		{"d3", "d", true},
		{"d12", "d", false},
		{"dha", "d", false},

		{"vitamin e", "e", true},
		{"echinacea", "e", false},

		{"k2", "k", true},
		{"vitamin k", "k", true},
		{"mk-7", "k", false},
		{"kava", "k", false},

		{"vitamin a", "a", false},
	}

	for _, tt := range tests {
		t.Run(tt.letter+"/"+tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, VitaminLetterMatch(tt.text, tt.letter))
		})
	}
}

func TestVitaminCodePattern(t *testing.T) {
	assert.Nil(t, VitaminCodePattern("zinc"))
	assert.Nil(t, VitaminCodePattern("b123"))
	assert.Nil(t, VitaminCodePattern("c1"))
	assert.Nil(t, VitaminCodePattern(""))

	tests := []struct {
		q       string
		text    string
		matches bool
	}{
		{"B12", "vitamin b12", true},
		{"b12", "cobalamin | b-12", true},
		{"b12", "b 12", true},
		{"b12", "b120", false},
		{"d3", "vitamin d3 | cholecalciferol", true},
		{"vitamin b-6", "pyridoxine | b6", true},
		{"k 2", "vitamin k2", true},
		{"b1", "vitamin b12", false},
	}

	for _, tt := range tests {
		t.Run(tt.q+"/"+tt.text, func(t *testing.T) {
			p := VitaminCodePattern(tt.q)
			require.NotNil(t, p)
			assert.Equal(t, tt.matches, p.MatchString(tt.text))
		})
	}
}

func matchedKeys(q Query, opts Options) []string {
	m := NewMatcher(q, opts)
	var keys []string
	for _, r := range matchFixture() {
		if m.Match(r) {
			keys = append(keys, r.Key())
		}
	}
	return keys
}

func TestMatcher(t *testing.T) {
	on := Options{MechanismMatch: true}

	tests := []struct {
		name string
		q    Query
		opts Options
		want []string
	}{
		{
			name: "empty matches everything",
			q:    NewQuery("", nil, "", ""),
			want: []string{"vitamin_b12", "bilberry_extract", "vitamin_b1", "calcium", "vitamin_c", "magnesium", "vitamin_k2"},
		},
		{
			name: "vitamin letter b skips bilberry",
			q:    NewQuery("B", nil, "", ""),
			want: []string{"vitamin_b12", "vitamin_b1"},
		},
		{
			name: "vitamin letter c skips calcium",
			q:    NewQuery("c", nil, "", ""),
			want: []string{"vitamin_c"},
		},
		{
			name: "vitamin letter k",
			q:    NewQuery("k", nil, "", ""),
			want: []string{"vitamin_k2"},
		},
		{
			name: "other single letter alone matches nothing",
			q:    NewQuery("m", nil, "", ""),
			want: nil,
		},
		{
			name: "other single letter with flags defers to flags",
			q:    NewQuery("m", []string{"sleep_flag"}, "", ""),
			want: []string{"vitamin_b12", "bilberry_extract", "vitamin_b1", "calcium", "vitamin_c", "magnesium", "vitamin_k2"},
		},
		{
			name: "safe prefix keeps b1 away from b12",
			q:    NewQuery("b1", nil, "", ""),
			want: []string{"vitamin_b1"},
		},
		{
			name: "vitamin code regex",
			q:    NewQuery("b12", nil, "", ""),
			want: []string{"vitamin_b12"},
		},
		{
			name: "vitamin code with space",
			q:    NewQuery("k 2", nil, "", ""),
			want: []string{"vitamin_k2"},
		},
		{
			name: "prefix on alias",
			q:    NewQuery("methylco", nil, "", ""),
			want: []string{"vitamin_b12"},
		},
		{
			name: "prefix on pretty key",
			q:    NewQuery("Vitamin", nil, "", ""),
			want: []string{"vitamin_b12", "vitamin_b1", "vitamin_c", "vitamin_k2"},
		},
		{
			name: "mechanism substring",
			q:    NewQuery("nmda", nil, "", ""),
			opts: on,
			want: []string{"magnesium"},
		},
		{
			name: "mechanism substring disabled",
			q:    NewQuery("nmda", nil, "", ""),
			want: nil,
		},
		{
			name: "no prefix in the middle of a word",
			q:    NewQuery("nesium", nil, "", ""),
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchedKeys(tt.q, tt.opts))
		})
	}
}

func TestIsVitaminLetter(t *testing.T) {
	for _, l := range []string{"b", "c", "d", "e", "k", "B"} {
		assert.True(t, IsVitaminLetter(l), l)
	}
	for _, l := range []string{"a", "m", "bb", ""} {
		assert.False(t, IsVitaminLetter(l), l)
	}
}
