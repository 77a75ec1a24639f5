package engagement

import (
	"github.com/kapu/dmmymp-go/internal/domain"
	"go.uber.org/zap"
)

// UnknownCategory labels discovered policy ids that have no curated entry.
const UnknownCategory = "Unknown"

var seedMappings = []domain.TopicMapping{
	{ID: "20006", Description: "more restrictive immigration policies", Category: "Immigration", Direction: domain.DirectionRight},
	{ID: "1042", Description: "more restrictive immigration policies", Category: "Immigration", Direction: domain.DirectionRight},
	{ID: "6789", Description: "stricter border controls", Category: "Immigration", Direction: domain.DirectionRight},
	{ID: "20007", Description: "increased mental health funding", Category: "Health & NHS", Direction: domain.DirectionLeft},
	{ID: "6679", Description: "increased NHS funding", Category: "Health & NHS", Direction: domain.DirectionLeft},
	{ID: "837", Description: "increased public safety measures", Category: "Crime & Policing", Direction: domain.DirectionRight},
	{ID: "6732", Description: "a more regulated economy", Category: "Economy & Taxation", Direction: domain.DirectionLeft},
	{ID: "20008", Description: "increased social care funding", Category: "Welfare & Cost of Living", Direction: domain.DirectionLeft},
	{ID: "1030", Description: "more environmental regulations", Category: "Environment & Climate", Direction: domain.DirectionLeft},
	{ID: "6680", Description: "increased public funding for education", Category: "Education", Direction: domain.DirectionLeft},
	{ID: "982", Description: "more social housing", Category: "Housing", Direction: domain.DirectionLeft},
	{ID: "984", Description: "increased public transport funding", Category: "Transport", Direction: domain.DirectionLeft},
	{ID: "1040", Description: "increased welfare spending for cost of living", Category: "Welfare & Cost of Living", Direction: domain.DirectionLeft},
	{ID: "1041", Description: "tougher policing measures", Category: "Crime & Policing", Direction: domain.DirectionRight},
	{ID: "1043", Description: "increased social care funding", Category: "Welfare & Cost of Living", Direction: domain.DirectionLeft},
	{ID: "1074", Description: "more EU integration", Category: "Foreign Policy & EU", Direction: domain.DirectionLeft},
	{ID: "6761", Description: "increased defense spending", Category: "Foreign Policy & EU", Direction: domain.DirectionRight},
	{ID: "1100", Description: "increased renewable energy investment", Category: "Environment & Climate", Direction: domain.DirectionLeft},
	{ID: "1142", Description: "increased minimum wage", Category: "Economy & Taxation", Direction: domain.DirectionLeft},
	{ID: "1150", Description: "increased affordable housing targets", Category: "Housing", Direction: domain.DirectionLeft},
}

// SeedMappings returns a copy of the curated policy table.
func SeedMappings() []domain.TopicMapping {
	out := make([]domain.TopicMapping, len(seedMappings))
	copy(out, seedMappings)
	return out
}

// MergeMappings returns seed followed by every discovered id the seed lacks.
// Seed entries always win; neither input is modified.
func MergeMappings(seed []domain.TopicMapping, discovered []domain.DiscoveredTopic, logger *zap.Logger) []domain.TopicMapping {
	known := make(map[string]domain.TopicMapping, len(seed))
	for _, m := range seed {
		known[m.ID] = m
	}

	merged := make([]domain.TopicMapping, len(seed), len(seed)+len(discovered))
	copy(merged, seed)

	added := make(map[string]struct{})
	for _, d := range discovered {
		if m, ok := known[d.ID]; ok {
			if m.Description != d.Description {
				logger.Warn("Policy description mismatch",
					zap.String("id", d.ID),
					zap.String("curated", m.Description),
					zap.String("reported", d.Description),
				)
			}
			continue
		}
		if _, dup := added[d.ID]; dup {
			continue
		}
		added[d.ID] = struct{}{}

		logger.Warn("Unknown policy id, defaulting category and direction",
			zap.String("id", d.ID),
			zap.String("description", d.Description),
		)
		merged = append(merged, domain.TopicMapping{
			ID:          d.ID,
			Description: d.Description,
			Category:    UnknownCategory,
			Direction:   domain.DirectionLeft,
		})
	}
	return merged
}
