package drafting

import (
	"context"
	stderrors "errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/kapu/dmmymp-go/internal/constants"
	"github.com/kapu/dmmymp-go/internal/prompt"
	"github.com/kapu/dmmymp-go/internal/service/ai"
	"github.com/kapu/dmmymp-go/pkg/errors"
	"go.uber.org/zap"
)

var ErrNoSuggestion = stderrors.New("no suggestions generated")

const (
	IssueGovernmentOverreach      = "Government Overreach – (Free speech restrictions, arrests for criticizing policies, hate speech laws)"
	IssueGovernmentAccountability = "Government Accountability – (Policy transparency, Online Safety Act concerns, government oversight)"
)

type Suggestion struct {
	Problem  string `json:"problem"`
	Solution string `json:"solution"`
}

type cannedSet struct {
	problems  []string
	solutions []string
}

// National issues are answered from fixed text rather than the model.
var cannedSuggestions = map[string]cannedSet{
	IssueGovernmentOverreach: {
		problems: []string{
			"Across the UK, free speech restrictions under laws like the Online Safety Act 2023 and Public Order Act 1986 have led to arrests for social media posts criticizing government policies, raising concerns about censorship.",
			"Nationwide, the government’s broad interpretation of hate speech laws has resulted in prosecutions for peaceful protests and online criticism, threatening free speech across the UK.",
			"Throughout the UK, the Online Safety Act 2023’s content moderation rules have led to the removal of valid political speech, causing widespread concern about government control over online expression.",
		},
		solutions: []string{
			"Advocate for clearer definitions of hate speech and amendments to national laws to protect free expression for all UK citizens.",
			"Call for a review of national hate speech laws to ensure they don’t infringe on legitimate expression and protect democratic rights.",
			"Urge the government to revise the Online Safety Act 2023 to safeguard free speech while addressing harmful content, ensuring a national balance.",
		},
	},
	IssueGovernmentAccountability: {
		problems: []string{
			"Nationally, there’s a lack of transparency in government policies like the Online Safety Act 2023, leading to concerns about unchecked authority and censorship across the UK.",
			"Across the UK, the government’s lack of accountability in implementing the Online Safety Act 2023 has raised fears of overreach, with little public input on censorship rules.",
			"Nationwide, the government’s opaque decision-making on free speech laws, including the Public Order Act 1986 updates, has eroded trust in democratic processes across the UK.",
		},
		solutions: []string{
			"Push for greater transparency in national policy-making, including public consultations and independent oversight of laws affecting free speech.",
			"Demand public accountability mechanisms, such as parliamentary reviews and citizen panels, to oversee national policies like the Online Safety Act 2023.",
			"Advocate for national transparency reforms, including open policy drafts and public hearings, to restore trust in government accountability.",
		},
	},
}

// SuggestionService proposes a problem statement and a solution for an issue.
type SuggestionService struct {
	generator Generator
	pick      func(n int) int
	logger    *zap.Logger
}

func NewSuggestionService(generator Generator, logger *zap.Logger) *SuggestionService {
	return &SuggestionService{
		generator: generator,
		pick:      rand.IntN,
		logger:    logger,
	}
}

func (s *SuggestionService) Suggest(ctx context.Context, issue, constituency string) (*Suggestion, error) {
	if strings.TrimSpace(issue) == "" || strings.TrimSpace(constituency) == "" {
		return nil, errors.NewValidationError("Issue and constituency are required.", "issue", issue)
	}

	if set, ok := cannedSuggestions[issue]; ok {
		return &Suggestion{
			Problem:  set.problems[s.pick(len(set.problems))],
			Solution: set.solutions[s.pick(len(set.solutions))],
		}, nil
	}

	userPrompt, err := prompt.BuildSuggestionPrompt(issue, constituency)
	if err != nil {
		return nil, err
	}

	res, err := s.generator.Generate(ctx, ai.Request{
		System:      constants.AIConfig.SuggestSystemPrompt,
		Prompt:      userPrompt,
		MaxTokens:   constants.AIConfig.SuggestMaxTokens,
		Temperature: constants.AIConfig.TidyTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("suggest for %q: %w", issue, err)
	}

	suggestion, ok := ParseSuggestion(res.Text)
	if !ok {
		return nil, ErrNoSuggestion
	}
	s.logger.Debug("Suggestion generated", zap.String("issue", issue), zap.String("constituency", constituency))
	return suggestion, nil
}

// ParseSuggestion splits model output on the first "Solution:" marker.
func ParseSuggestion(text string) (*Suggestion, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, false
	}

	problem, solution, found := strings.Cut(text, "Solution:")
	problem = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(problem), "Problem:"))
	solution = strings.TrimSpace(solution)

	if problem == "" {
		problem = "No problem description provided."
	}
	if !found || solution == "" {
		solution = "No solution provided."
	}
	return &Suggestion{Problem: problem, Solution: solution}, true
}
