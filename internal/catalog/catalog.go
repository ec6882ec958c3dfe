// Package catalog holds the story content the progression engine scores against:
// issues, their quests and rewards, and the kowai roster.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"kowaiquest/internal/models"
)

//go:embed catalog.yaml
var defaultCatalog []byte

var (
	ErrUnknownIssue = errors.New("unknown issue")
	ErrUnknownQuest = errors.New("unknown quest")
)

// Kind selects how a quest's answer is judged
type Kind string

const (
	KindChoice Kind = "choice"
	KindExact  Kind = "exact"
	KindRoute  Kind = "route"
)

// Choice is one option of a choice quest, each with its own reward
type Choice struct {
	Value  string       `yaml:"value"`
	Label  string       `yaml:"label"`
	Reward models.Stats `yaml:"reward"`
}

// RouteTier overrides the route reward for paths of at most MaxLength cells
type RouteTier struct {
	MaxLength int          `yaml:"maxLength"`
	Reward    models.Stats `yaml:"reward"`
}

// RouteSpec describes the map of a route quest
type RouteSpec struct {
	Columns   int         `yaml:"columns"`
	Rows      int         `yaml:"rows"`
	Start     string      `yaml:"start"`
	Goal      string      `yaml:"goal"`
	Ocean     []string    `yaml:"ocean"`
	Mountains []string    `yaml:"mountains"`
	Hazards   []string    `yaml:"hazards"`
	Tiers     []RouteTier `yaml:"tiers"`
}

// Quest is one challenge in an issue
type Quest struct {
	Number     int          `yaml:"number"`
	Title      string       `yaml:"title"`
	Kind       Kind         `yaml:"kind"`
	AnswerType string       `yaml:"answerType"`
	Answer     string       `yaml:"answer"`
	Reward     models.Stats `yaml:"reward"`
	Choices    []Choice     `yaml:"choices"`
	GrantsEgg  bool         `yaml:"grantsEgg"`
	Route      *RouteSpec   `yaml:"route"`
}

// Issue is an ordered set of quests
type Issue struct {
	ID           string  `yaml:"id"`
	Title        string  `yaml:"title"`
	PurchaseLink string  `yaml:"purchaseLink"`
	FeedbackLink string  `yaml:"feedbackLink"`
	Quests       []Quest `yaml:"quests"`
}

// Kowai is a collectible creature
type Kowai struct {
	ID          string `yaml:"id"`
	DisplayName string `yaml:"displayName"`
	Element     string `yaml:"element"`
	Rarity      string `yaml:"rarity"`
	HP          int    `yaml:"hp"`
	EvolvesFrom string `yaml:"evolvesFrom"`
	Habitat     string `yaml:"habitat"`
}

// Catalog is the full content set
type Catalog struct {
	FirstIssueID string   `yaml:"firstIssue"`
	StarterKowai []string `yaml:"starterEncounteredKowai"`
	Issues       []Issue  `yaml:"issues"`
	Kowai        []Kowai  `yaml:"kowai"`
}

// Default returns the embedded catalog
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog file, or the embedded catalog when path is empty
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates catalog YAML
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the catalog is internally consistent
func (c *Catalog) Validate() error {
	kowai := make(map[string]bool)
	for _, k := range c.Kowai {
		if k.ID == "" {
			return errors.New("invalid catalog: kowai without id")
		}
		if kowai[k.ID] {
			return fmt.Errorf("invalid catalog: duplicate kowai %q", k.ID)
		}
		kowai[k.ID] = true
	}
	for _, k := range c.Kowai {
		if k.EvolvesFrom != "" && !kowai[k.EvolvesFrom] {
			return fmt.Errorf("invalid catalog: kowai %q evolves from unknown %q", k.ID, k.EvolvesFrom)
		}
	}
	for _, id := range c.StarterKowai {
		if !kowai[id] {
			return fmt.Errorf("invalid catalog: unknown starter kowai %q", id)
		}
	}

	seen := make(map[string]bool)
	for _, issue := range c.Issues {
		if issue.ID == "" {
			return errors.New("invalid catalog: issue without id")
		}
		if strings.ContainsAny(issue.ID, "./") {
			return fmt.Errorf("invalid catalog: issue id %q must not contain '.' or '/'", issue.ID)
		}
		if seen[issue.ID] {
			return fmt.Errorf("invalid catalog: duplicate issue %q", issue.ID)
		}
		seen[issue.ID] = true

		for i, q := range issue.Quests {
			if q.Number != i+1 {
				return fmt.Errorf("invalid catalog: issue %s quest %d is out of order", issue.ID, q.Number)
			}
			if err := q.validate(); err != nil {
				return fmt.Errorf("invalid catalog: issue %s quest %d: %w", issue.ID, q.Number, err)
			}
		}
	}
	if !seen[c.FirstIssueID] {
		return fmt.Errorf("invalid catalog: first issue %q is not defined", c.FirstIssueID)
	}
	return nil
}

func (q *Quest) validate() error {
	if q.GrantsEgg && q.Kind != KindChoice {
		return errors.New("only choice quests can grant an egg")
	}
	switch q.Kind {
	case KindChoice:
		if len(q.Choices) == 0 {
			return errors.New("choice quest has no choices")
		}
		for _, ch := range q.Choices {
			if ch.Reward.HasNegative() {
				return fmt.Errorf("choice %q has a negative reward", ch.Value)
			}
		}
	case KindExact:
		if q.Answer == "" {
			return errors.New("exact quest has no answer")
		}
	case KindRoute:
		if q.Route == nil {
			return errors.New("route quest has no map")
		}
		rq, err := q.RouteQuest()
		if err != nil {
			return err
		}
		if !rq.Grid.Terrain(rq.Start).Passable() || !rq.Grid.Terrain(rq.Goal).Passable() {
			return errors.New("route start and goal must be passable")
		}
		for _, tier := range q.Route.Tiers {
			if tier.Reward.HasNegative() {
				return errors.New("route tier has a negative reward")
			}
		}
	default:
		return fmt.Errorf("unknown quest kind %q", q.Kind)
	}
	if q.Reward.HasNegative() {
		return errors.New("negative reward")
	}
	return nil
}

// FirstIssue returns the issue new trainers start in
func (c *Catalog) FirstIssue() string {
	return c.FirstIssueID
}

// Starter returns a copy of the kowai every new trainer has encountered
func (c *Catalog) Starter() []string {
	return append([]string(nil), c.StarterKowai...)
}

// Exists reports whether the issue is defined
func (c *Catalog) Exists(issueID string) bool {
	_, err := c.Issue(issueID)
	return err == nil
}

// Issue looks up an issue by id
func (c *Catalog) Issue(issueID string) (*Issue, error) {
	for i := range c.Issues {
		if c.Issues[i].ID == issueID {
			return &c.Issues[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownIssue, issueID)
}

// NextIssue returns the issue that follows issueID, if any
func (c *Catalog) NextIssue(issueID string) (string, bool) {
	for i := range c.Issues {
		if c.Issues[i].ID == issueID && i+1 < len(c.Issues) {
			return c.Issues[i+1].ID, true
		}
	}
	return "", false
}

// QuestCount returns the number of quests in an issue, zero when unknown
func (c *Catalog) QuestCount(issueID string) int {
	issue, err := c.Issue(issueID)
	if err != nil {
		return 0
	}
	return len(issue.Quests)
}

// Quest looks up a quest by issue and one-based number
func (c *Catalog) Quest(issueID string, number int) (*Quest, error) {
	issue, err := c.Issue(issueID)
	if err != nil {
		return nil, err
	}
	if number < 1 || number > len(issue.Quests) {
		return nil, fmt.Errorf("%w: %s quest %d", ErrUnknownQuest, issueID, number)
	}
	return &issue.Quests[number-1], nil
}

// LookupKowai finds a kowai by id. Egg ids such as "peblaff egg" resolve to the kowai.
func (c *Catalog) LookupKowai(id string) (Kowai, bool) {
	id = strings.TrimSuffix(id, EggSuffix)
	for _, k := range c.Kowai {
		if k.ID == id {
			return k, true
		}
	}
	return Kowai{}, false
}
