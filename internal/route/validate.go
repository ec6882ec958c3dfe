package route

import "fmt"

// Rule names a route constraint
type Rule string

const (
	RuleSyntax     Rule = "syntax"
	RuleBounds     Rule = "bounds"
	RuleStart      Rule = "start"
	RuleGoal       Rule = "goal"
	RuleAdjacency  Rule = "adjacency"
	RuleImpassable Rule = "impassable"
)

// Quest fixes the grid and endpoints of one pathfinding challenge
type Quest struct {
	Grid  *Grid
	Start Coordinate
	Goal  Coordinate
}

// Violation describes one broken rule. Index is the position in the path, or -1.
type Violation struct {
	Rule    Rule
	Index   int
	Message string
}

// Result is the outcome of Validate. Hazards lists hazard cells the path
// crosses; they never invalidate a route.
type Result struct {
	Valid      bool
	Violations []Violation
	Hazards    []Coordinate
}

// ViolatedRules returns each broken rule once, in the order first seen
func (r Result) ViolatedRules() []Rule {
	var rules []Rule
	seen := make(map[Rule]bool)
	for _, v := range r.Violations {
		if !seen[v.Rule] {
			seen[v.Rule] = true
			rules = append(rules, v.Rule)
		}
	}
	return rules
}

// Violated reports whether rule was broken
func (r Result) Violated(rule Rule) bool {
	for _, v := range r.Violations {
		if v.Rule == rule {
			return true
		}
	}
	return false
}

// Validate checks a claimed path. Revisiting a cell is allowed.
func Validate(q Quest, path []string) Result {
	var res Result
	add := func(rule Rule, index int, format string, args ...any) {
		res.Violations = append(res.Violations, Violation{Rule: rule, Index: index, Message: fmt.Sprintf(format, args...)})
	}

	if len(path) == 0 {
		add(RuleStart, -1, "route must start at %s", q.Start)
		add(RuleGoal, -1, "route must end at %s", q.Goal)
		return res
	}

	cells := make([]Coordinate, len(path))
	parsed := make([]bool, len(path))
	for i, token := range path {
		c, err := ParseCoordinate(token)
		if err != nil {
			add(RuleSyntax, i, "%v", err)
			continue
		}
		if !q.Grid.InBounds(c) {
			add(RuleBounds, i, "%s is off the map", c)
			continue
		}
		cells[i] = c
		parsed[i] = true
	}

	last := len(path) - 1
	if !parsed[0] || cells[0] != q.Start {
		add(RuleStart, 0, "route must start at %s", q.Start)
	}
	if !parsed[last] || cells[last] != q.Goal {
		add(RuleGoal, last, "route must end at %s", q.Goal)
	}

	for i := 1; i < len(cells); i++ {
		if parsed[i-1] && parsed[i] && !cells[i-1].Adjacent(cells[i]) {
			add(RuleAdjacency, i, "%s to %s is not a single horizontal or vertical step", cells[i-1], cells[i])
		}
	}

	seenHazard := make(map[Coordinate]bool)
	for i, c := range cells {
		if !parsed[i] {
			continue
		}
		switch t := q.Grid.Terrain(c); {
		case !t.Passable():
			add(RuleImpassable, i, "%s is %s and cannot be crossed", c, t)
		case t == Hazard && !seenHazard[c]:
			seenHazard[c] = true
			res.Hazards = append(res.Hazards, c)
		}
	}

	res.Valid = len(res.Violations) == 0
	return res
}
