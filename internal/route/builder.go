package route

import "fmt"

// Action is what a Builder did with a clicked cell
type Action int

const (
	Ignored Action = iota
	Added
	Removed
)

// Outcome reports a Builder step. Warning is set for the first visit to a
// hazard cell and for attempts to enter a mountain.
type Outcome struct {
	Action  Action
	Warning string
}

// Builder assembles a route one cell at a time, starting at the quest start.
// Clicking the last cell again undoes it.
type Builder struct {
	quest  Quest
	path   []Coordinate
	warned map[Coordinate]bool
}

// NewBuilder starts a route at the quest's start cell
func NewBuilder(q Quest) *Builder {
	b := &Builder{quest: q}
	b.Reset()
	return b
}

// Click handles one cell token
func (b *Builder) Click(token string) (Outcome, error) {
	c, err := ParseCoordinate(token)
	if err != nil {
		return Outcome{}, err
	}
	if !b.quest.Grid.InBounds(c) {
		return Outcome{}, fmt.Errorf("%s is off the map", c)
	}

	var out Outcome
	switch b.quest.Grid.Terrain(c) {
	case Ocean:
		return out, nil
	case Mountain:
		out.Warning = fmt.Sprintf("%s is too steep to climb, go around it", c)
		return out, nil
	case Hazard:
		if !b.warned[c] {
			b.warned[c] = true
			out.Warning = fmt.Sprintf("%s is dangerous, you can pass but be careful", c)
		}
	}

	last := b.path[len(b.path)-1]
	if c == last && len(b.path) > 1 {
		b.path = b.path[:len(b.path)-1]
		out.Action = Removed
		return out, nil
	}
	if last.Adjacent(c) {
		b.path = append(b.path, c)
		out.Action = Added
	}
	return out, nil
}

// Path returns the route built so far as tokens
func (b *Builder) Path() []string {
	tokens := make([]string, len(b.path))
	for i, c := range b.path {
		tokens[i] = c.String()
	}
	return tokens
}

// Reset returns the route to the single start cell
func (b *Builder) Reset() {
	b.path = []Coordinate{b.quest.Start}
	b.warned = make(map[Coordinate]bool)
}
