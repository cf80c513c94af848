package loadgen

import (
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

// Submission is the POST /leaderboard body.
type Submission struct {
	Name       string  `json:"name"`
	Score      float64 `json:"score"`
	Difficulty string  `json:"difficulty"`
}

// Generator produces reproducible fake submissions.
type Generator struct {
	faker *gofakeit.Faker
	seed  int64
}

// NewGenerator creates a generator. A zero seed is replaced by the clock.
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{faker: gofakeit.New(uint64(seed)), seed: seed}
}

// Seed reports the seed in use so a run can be repeated.
func (g *Generator) Seed() int64 { return g.seed }

// Generate returns n submissions spread over categories. Scores are whole
// numbers in [0, 1000] so ties occur in larger runs.
func (g *Generator) Generate(n int, categories []string) []Submission {
	out := make([]Submission, n)
	for i := range out {
		out[i] = Submission{
			Name:       g.faker.Username(),
			Score:      float64(g.faker.Number(0, 1000)),
			Difficulty: g.faker.RandomString(categories),
		}
	}
	return out
}
