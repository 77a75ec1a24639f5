package engagement

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kapu/dmmymp-go/internal/domain"
)

type topicRule struct {
	label    string
	keywords []string
}

// Order matters: the first rule with a matching keyword wins.
var topicRules = []topicRule{
	{"Immigration", []string{"immigration", "border control", "asylum"}},
	{"Health & NHS", []string{"health", "nhs", "hospital"}},
	{"Education", []string{"education", "school", "university"}},
	{"Housing", []string{"housing", "homeless", "rent"}},
	{"Environment & Climate", []string{"climate", "environment", "net zero"}},
	{"Economy & Taxation", []string{"economy", "tax", "budget"}},
	{"Crime & Policing", []string{"crime", "police", "justice"}},
	{"Welfare & Cost of Living", []string{"pension", "triple lock", "benefits"}},
	{"Foreign Policy & EU", []string{"eu", "brexit", "european union"}},
	{"Transport", []string{"transport", "rail", "road"}},
	{"Defence", []string{"defence", "military", "armed forces"}},
	{"Energy", []string{"energy", "renewable", "gas"}},
	{"Technology & Innovation", []string{"technology", "digital", "ai"}},
	{"Social Justice", []string{"social justice", "equality", "diversity"}},
	{"Employment", []string{"employment", "jobs", "unemployment"}},
	{"Trade", []string{"trade", "export", "import"}},
	{"Agriculture & Rural Affairs", []string{"agriculture", "farming", "rural"}},
	{"Culture & Sport", []string{"culture", "arts", "sport"}},
	{"Local Government", []string{"local government", "council", "devolution"}},
	{"National Security", []string{"terrorism", "security", "counter-terrorism"}},
}

const generalTopic = "General"

// InferTopic labels an entry by keyword (substring) match on its text,
// falling back to its section, then "General".
func InferTopic(e domain.ActivityEntry) string {
	text := strings.ToLower(StripHTML(e.Body))
	for _, rule := range topicRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.label
			}
		}
	}
	if e.Section != "" {
		return e.Section
	}
	return generalTopic
}

type topicCount struct {
	topic string
	count int
}

// TopTopics tallies inferred topics and formats the n most frequent as
// "<Topic> (<N> mentions)". Ties keep first-seen order.
func TopTopics(entries []domain.ActivityEntry, n int) []string {
	index := make(map[string]int)
	var counts []topicCount
	for _, e := range entries {
		t := InferTopic(e)
		if i, ok := index[t]; ok {
			counts[i].count++
			continue
		}
		index[t] = len(counts)
		counts = append(counts, topicCount{topic: t, count: 1})
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].count > counts[j].count
	})
	if len(counts) > n {
		counts = counts[:n]
	}

	out := make([]string, 0, len(counts))
	for _, c := range counts {
		out = append(out, fmt.Sprintf("%s (%d mentions)", c.topic, c.count))
	}
	return out
}
