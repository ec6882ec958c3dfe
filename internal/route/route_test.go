package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// plainQuest is a plain 10x7 grid from C5 to E4 with a hazard on D4
func plainQuest(t *testing.T) Quest {
	t.Helper()
	g := NewGrid(10, 7)
	require.NoError(t, g.Set(MustParse("D4"), Hazard))
	return Quest{Grid: g, Start: MustParse("C5"), Goal: MustParse("E4")}
}

// antarcticaQuest mirrors the issue 1 map
func antarcticaQuest(t *testing.T) Quest {
	t.Helper()
	g := NewGrid(10, 7)
	ocean := []string{
		"A1", "A3", "A4", "A5", "A6", "A7",
		"J1", "J2", "J3", "J4", "J5", "J6", "J7",
		"B1", "B2", "B6", "B7", "C1", "C2", "C7", "D1", "D7", "E6", "E7", "H1", "I2", "I7",
	}
	require.NoError(t, g.SetAll(ocean, Ocean))
	require.NoError(t, g.SetAll([]string{"C4"}, Mountain))
	require.NoError(t, g.SetAll([]string{"D4", "E3", "H4"}, Hazard))
	return Quest{Grid: g, Start: MustParse("C5"), Goal: MustParse("E4")}
}

func TestParseCoordinate(t *testing.T) {
	tests := []struct {
		token   string
		want    Coordinate
		wantErr bool
	}{
		{"C5", Coordinate{Col: 2, Row: 5}, false},
		{" e4 ", Coordinate{Col: 4, Row: 4}, false},
		{"A10", Coordinate{Col: 0, Row: 10}, false},
		{"5C", Coordinate{}, true},
		{"C", Coordinate{}, true},
		{"C0", Coordinate{}, true},
		{"", Coordinate{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := ParseCoordinate(tt.token)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, "J7", MustParse("j7").String())
	assert.Panics(t, func() { MustParse("??") })
}

func TestAdjacent(t *testing.T) {
	c5 := MustParse("C5")
	assert.True(t, c5.Adjacent(MustParse("D5")))
	assert.True(t, c5.Adjacent(MustParse("C4")))
	assert.False(t, c5.Adjacent(MustParse("D4")), "diagonal")
	assert.False(t, c5.Adjacent(MustParse("E5")), "two columns")
	assert.False(t, c5.Adjacent(c5), "same cell")
}

func TestGridSetOutOfBounds(t *testing.T) {
	g := NewGrid(10, 7)
	assert.Error(t, g.Set(MustParse("K1"), Ocean))
	assert.Error(t, g.SetAll([]string{"A8"}, Ocean))
	assert.Error(t, g.SetAll([]string{"bad"}, Ocean))

	require.NoError(t, g.Set(MustParse("B3"), Ocean))
	require.NoError(t, g.Set(MustParse("B3"), Plain))
	assert.Equal(t, Plain, g.Terrain(MustParse("B3")))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		quest     func(*testing.T) Quest
		path      []string
		valid     bool
		violated  []Rule
		hazardsAt []string
	}{
		{
			name:      "hazard is permitted",
			quest:     plainQuest,
			path:      []string{"C5", "D5", "D4", "E4"},
			valid:     true,
			hazardsAt: []string{"D4"},
		},
		{
			name:     "diagonal step",
			quest:    plainQuest,
			path:      []string{"C5", "D4"},
			violated:  []Rule{RuleGoal, RuleAdjacency},
			hazardsAt: []string{"D4"},
		},
		{
			name:     "wrong goal with legal steps",
			quest:    plainQuest,
			path:     []string{"C5", "D5", "E5"},
			violated: []Rule{RuleGoal},
		},
		{
			name:     "wrong start",
			quest:    plainQuest,
			path:     []string{"D5", "E5", "E4"},
			violated: []Rule{RuleStart},
		},
		{
			name:     "single cell",
			quest:    plainQuest,
			path:     []string{"C5"},
			violated: []Rule{RuleGoal},
		},
		{
			name:     "empty path",
			quest:    plainQuest,
			path:     nil,
			violated: []Rule{RuleStart, RuleGoal},
		},
		{
			name:     "ocean cell rejected even when adjacent",
			quest:    antarcticaQuest,
			path:     []string{"C5", "C6", "D6", "E6", "E5", "E4"},
			violated: []Rule{RuleImpassable},
		},
		{
			name:     "mountain rejected",
			quest:    antarcticaQuest,
			path:      []string{"C5", "C4", "D4", "E4"},
			violated:  []Rule{RuleImpassable},
			hazardsAt: []string{"D4"},
		},
		{
			name:      "antarctica route through hazard",
			quest:     antarcticaQuest,
			path:      []string{"C5", "D5", "D4", "E4"},
			valid:     true,
			hazardsAt: []string{"D4"},
		},
		{
			name:  "antarctica route avoiding hazards",
			quest: antarcticaQuest,
			path:  []string{"C5", "D5", "E5", "E4"},
			valid: true,
		},
		{
			name:  "revisiting a cell is allowed",
			quest: antarcticaQuest,
			path:  []string{"C5", "D5", "C5", "D5", "E5", "E4"},
			valid: true,
		},
		{
			name:     "off the map",
			quest:    plainQuest,
			path:     []string{"C5", "C6", "C7", "C8", "E4"},
			violated: []Rule{RuleBounds},
		},
		{
			name:     "garbage token",
			quest:    plainQuest,
			path:     []string{"C5", "??", "E4"},
			violated: []Rule{RuleSyntax},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(tt.quest(t), tt.path)
			assert.Equal(t, tt.valid, res.Valid, "violations: %+v", res.Violations)
			for _, rule := range tt.violated {
				assert.True(t, res.Violated(rule), "expected %s to be violated", rule)
			}
			if tt.valid {
				assert.Empty(t, res.Violations)
			}

			var hazards []string
			for _, c := range res.Hazards {
				hazards = append(hazards, c.String())
			}
			assert.Equal(t, tt.hazardsAt, hazards)
		})
	}
}

func TestViolatedRulesDeduplicates(t *testing.T) {
	res := Validate(antarcticaQuest(t), []string{"C5", "B5", "A5", "A4", "E4"})
	assert.False(t, res.Valid)
	assert.Equal(t, []Rule{RuleAdjacency, RuleImpassable}, res.ViolatedRules())
}

func TestBuilder(t *testing.T) {
	b := NewBuilder(antarcticaQuest(t))
	assert.Equal(t, []string{"C5"}, b.Path())

	out, err := b.Click("B6")
	require.NoError(t, err)
	assert.Equal(t, Ignored, out.Action, "ocean cells are not added")
	assert.Empty(t, out.Warning)

	out, err = b.Click("C4")
	require.NoError(t, err)
	assert.Equal(t, Ignored, out.Action)
	assert.NotEmpty(t, out.Warning, "mountain warns")

	out, err = b.Click("E5")
	require.NoError(t, err)
	assert.Equal(t, Ignored, out.Action, "not adjacent to C5")

	out, err = b.Click("D5")
	require.NoError(t, err)
	assert.Equal(t, Added, out.Action)

	out, err = b.Click("D4")
	require.NoError(t, err)
	assert.Equal(t, Added, out.Action)
	assert.NotEmpty(t, out.Warning, "first hazard visit warns")

	out, err = b.Click("D4")
	require.NoError(t, err)
	assert.Equal(t, Removed, out.Action, "clicking the last cell undoes it")
	assert.Empty(t, out.Warning, "hazard warning is shown once")

	_, err = b.Click("D4")
	require.NoError(t, err)
	_, err = b.Click("E4")
	require.NoError(t, err)
	assert.Equal(t, []string{"C5", "D5", "D4", "E4"}, b.Path())
	assert.True(t, Validate(antarcticaQuest(t), b.Path()).Valid)

	_, err = b.Click("Z9")
	assert.Error(t, err)

	b.Reset()
	assert.Equal(t, []string{"C5"}, b.Path())
}

func TestBuilderStartCannotBeUndone(t *testing.T) {
	b := NewBuilder(plainQuest(t))
	out, err := b.Click("C5")
	require.NoError(t, err)
	assert.Equal(t, Ignored, out.Action)
	assert.Equal(t, []string{"C5"}, b.Path())
}
