package problem

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/mathclub/daily-practice-bot/internal/domain/shared"
)

// GeneratorConfig bounds the random draws and sets how many problems each
// tier contributes to a day.
type GeneratorConfig struct {
	FactorMin   int
	FactorMax   int
	TermMin     int
	TermMax     int
	DivisorMin  int
	DivisorMax  int
	QuotientMin int
	QuotientMax int

	// AnswerCeiling is the inclusive upper bound on a problem's answer.
	AnswerCeiling int

	// MaxDraws caps rejection sampling per problem. Exhausting it means the
	// configured ranges cannot satisfy the ceiling.
	MaxDraws int

	// TierCounts maps each tier to the number of problems it contributes.
	// Tiers absent from the map contribute zero.
	TierCounts map[Tier]int
}

// DefaultGeneratorConfig returns the standard drill configuration:
// five easy, three medium, and two hard problems per day.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		FactorMin:     2,
		FactorMax:     10,
		TermMin:       1,
		TermMax:       100,
		DivisorMin:    2,
		DivisorMax:    10,
		QuotientMin:   2,
		QuotientMax:   10,
		AnswerCeiling: 100,
		MaxDraws:      1000,
		TierCounts: map[Tier]int{
			TierEasy:   5,
			TierMedium: 3,
			TierHard:   2,
		},
	}
}

// Validate checks the ranges are non-empty and correctly ordered.
func (c GeneratorConfig) Validate() error {
	checks := []struct {
		name     string
		min, max int
	}{
		{"factor", c.FactorMin, c.FactorMax},
		{"term", c.TermMin, c.TermMax},
		{"divisor", c.DivisorMin, c.DivisorMax},
		{"quotient", c.QuotientMin, c.QuotientMax},
	}
	for _, ch := range checks {
		if ch.min > ch.max {
			return shared.NewDomainError("generator", "Validate", shared.ErrValidation,
				fmt.Sprintf("%s range inverted: [%d, %d]", ch.name, ch.min, ch.max))
		}
		if ch.min < 1 {
			return shared.NewDomainError("generator", "Validate", shared.ErrValidation,
				fmt.Sprintf("%s minimum must be at least 1, got %d", ch.name, ch.min))
		}
	}
	if c.DivisorMin < 2 {
		return shared.NewDomainError("generator", "Validate", shared.ErrValidation,
			"divisor minimum must be at least 2")
	}
	if c.AnswerCeiling < 1 {
		return shared.NewDomainError("generator", "Validate", shared.ErrValidation,
			"answer ceiling must be positive")
	}
	if c.MaxDraws < 1 {
		return shared.NewDomainError("generator", "Validate", shared.ErrValidation,
			"max draws must be positive")
	}
	for tier, count := range c.TierCounts {
		if !tier.IsValid() {
			return shared.NewDomainError("generator", "Validate", shared.ErrValidation,
				fmt.Sprintf("unknown tier %q", tier))
		}
		if count < 0 {
			return shared.NewDomainError("generator", "Validate", shared.ErrValidation,
				fmt.Sprintf("negative count for tier %q", tier))
		}
	}
	return nil
}

// TotalPerDay returns the number of problems one day's catalog will hold.
func (c GeneratorConfig) TotalPerDay() int {
	total := 0
	for _, count := range c.TierCounts {
		total += count
	}
	return total
}

// Generator produces constrained random problems. It is not safe for
// concurrent use; callers own the instance.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// NewGenerator creates a generator seeded from the current time.
func NewGenerator(cfg GeneratorConfig) (*Generator, error) {
	return NewSeededGenerator(cfg, time.Now().UnixNano())
}

// NewSeededGenerator creates a generator with an explicit seed, for
// reproducible output in tests.
func NewSeededGenerator(cfg GeneratorConfig, seed int64) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}, nil
}

// intn draws a uniform value in [min, max].
func (g *Generator) intn(min, max int) int {
	return min + g.rng.Intn(max-min+1)
}

// Generate draws one problem for the tier. The returned problem carries a
// zero Date and Ordinal; GenerateDay fills those in.
func (g *Generator) Generate(tier Tier) (*Problem, error) {
	for draw := 0; draw < g.cfg.MaxDraws; draw++ {
		p, ok, err := g.draw(tier)
		if err != nil {
			return nil, err
		}
		if ok {
			return p, nil
		}
	}
	return nil, shared.WrapError("generator", "Generate", shared.ErrConstraintUnsatisfiable,
		fmt.Sprintf("no valid %s problem within %d draws", tier, g.cfg.MaxDraws), nil)
}

// draw makes a single attempt at a tier. A false second return means the
// candidate violated the answer ceiling and the caller should redraw.
func (g *Generator) draw(tier Tier) (*Problem, bool, error) {
	c := g.cfg
	var (
		shape    Shape
		operands []int
		answer   int
	)

	switch tier {
	case TierEasy:
		x := g.intn(c.FactorMin, c.FactorMax)
		y := g.intn(c.FactorMin, c.FactorMax)
		shape, operands, answer = ShapeProduct, []int{x, y}, x*y

	case TierMedium:
		x := g.intn(c.FactorMin, c.FactorMax)
		y := g.intn(c.FactorMin, c.FactorMax)
		z := g.intn(c.TermMin, c.TermMax)
		product := x * y
		if g.rng.Intn(2) == 0 {
			shape, operands, answer = ShapeProductPlusTerm, []int{x, y, z}, product+z
		} else if product >= z {
			shape, operands, answer = ShapeProductMinusTerm, []int{x, y, z}, product-z
		} else {
			// Subtraction came out negative; present it the other way round.
			shape, operands, answer = ShapeTermMinusProduct, []int{z, x, y}, z-product
		}

	case TierHard:
		x := g.intn(c.FactorMin, c.FactorMax)
		y := g.intn(c.FactorMin, c.FactorMax)
		z := g.intn(c.FactorMin, c.FactorMax)
		w := g.intn(c.FactorMin, c.FactorMax)
		left, right := x*y, z*w
		if g.rng.Intn(2) == 0 {
			shape, operands, answer = ShapeProductPlusProduct, []int{x, y, z, w}, left+right
		} else {
			if left < right {
				x, y, z, w = z, w, x, y
				left, right = right, left
			}
			shape, operands, answer = ShapeProductMinusProduct, []int{x, y, z, w}, left-right
		}

	case TierDivEasy:
		// Construct the dividend from divisor and quotient so the division is
		// exact without any search.
		y := g.intn(c.DivisorMin, c.DivisorMax)
		q := g.intn(c.QuotientMin, c.QuotientMax)
		shape, operands, answer = ShapeQuotient, []int{y * q, y}, q

	case TierDivHard:
		x := g.intn(c.FactorMin, c.FactorMax)
		y := g.intn(c.FactorMin, c.FactorMax)
		w := g.intn(c.DivisorMin, c.DivisorMax)
		q := g.intn(c.QuotientMin, c.QuotientMax)
		shape, operands, answer = ShapeProductPlusQuotient, []int{x, y, w * q, w}, x*y+q

	default:
		return nil, false, shared.NewDomainError("generator", "Generate", shared.ErrInvalidInput,
			fmt.Sprintf("unknown tier %q", tier))
	}

	if answer < 0 || answer > c.AnswerCeiling {
		return nil, false, nil
	}

	display, tokens, err := Encode(shape, operands...)
	if err != nil {
		return nil, false, err
	}
	return &Problem{Display: display, Answer: answer, Tokens: tokens}, true, nil
}

// GenerateDay produces the full set of problems for a date, tier by tier in
// catalog order, with dense zero-based ordinals.
func (g *Generator) GenerateDay(date time.Time) ([]*Problem, error) {
	problems := make([]*Problem, 0, g.cfg.TotalPerDay())
	ordinal := 0
	for _, tier := range AllTiers {
		count := g.cfg.TierCounts[tier]
		for i := 0; i < count; i++ {
			p, err := g.Generate(tier)
			if err != nil {
				return nil, err
			}
			p.Date = date
			p.Ordinal = ordinal
			ordinal++
			problems = append(problems, p)
		}
	}
	return problems, nil
}
