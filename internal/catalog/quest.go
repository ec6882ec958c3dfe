package catalog

import (
	"errors"
	"strings"

	"kowaiquest/internal/models"
	"kowaiquest/internal/route"
)

var errInvalidEndpoints = errors.New("route start and goal must be on the map")

// EggSuffix is appended to a kowai id to name its unhatched egg
const EggSuffix = " egg"

// Evaluation is the judged result of a choice or exact answer
type Evaluation struct {
	Correct bool
	Reward  models.Stats
	// Egg is the owned-kowai id to grant, empty when none
	Egg string
}

// Evaluate judges an answer. Comparison ignores case and surrounding space.
// Route quests are judged with RouteQuest and route.Validate instead.
func (q *Quest) Evaluate(answer string) Evaluation {
	given := normalize(answer)
	switch q.Kind {
	case KindChoice:
		for _, ch := range q.Choices {
			if normalize(ch.Value) == given {
				ev := Evaluation{Correct: true, Reward: ch.Reward}
				if q.GrantsEgg {
					ev.Egg = ch.Value + EggSuffix
				}
				return ev
			}
		}
	case KindExact:
		if normalize(q.Answer) == given {
			return Evaluation{Correct: true, Reward: q.Reward}
		}
	}
	return Evaluation{}
}

// RouteQuest builds the grid for a route quest
func (q *Quest) RouteQuest() (route.Quest, error) {
	spec := q.Route
	start, err := route.ParseCoordinate(spec.Start)
	if err != nil {
		return route.Quest{}, err
	}
	goal, err := route.ParseCoordinate(spec.Goal)
	if err != nil {
		return route.Quest{}, err
	}

	g := route.NewGrid(spec.Columns, spec.Rows)
	if !g.InBounds(start) || !g.InBounds(goal) {
		return route.Quest{}, errInvalidEndpoints
	}
	if err := g.SetAll(spec.Ocean, route.Ocean); err != nil {
		return route.Quest{}, err
	}
	if err := g.SetAll(spec.Mountains, route.Mountain); err != nil {
		return route.Quest{}, err
	}
	if err := g.SetAll(spec.Hazards, route.Hazard); err != nil {
		return route.Quest{}, err
	}
	return route.Quest{Grid: g, Start: start, Goal: goal}, nil
}

// RouteReward returns the reward for a valid path of the given length.
// The first tier whose MaxLength covers the length wins; otherwise Reward applies.
func (q *Quest) RouteReward(pathLength int) models.Stats {
	if q.Route != nil {
		for _, tier := range q.Route.Tiers {
			if pathLength <= tier.MaxLength {
				return tier.Reward
			}
		}
	}
	return q.Reward
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
