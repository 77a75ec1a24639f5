package engagement

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kapu/dmmymp-go/internal/domain"
	"github.com/kapu/dmmymp-go/internal/util"
)

var Tooltips = struct {
	VotingAttendance string
	SpeechActivity   string
	Rebellions       string
	TopicClarity     string
	LocalReferences  string
}{
	VotingAttendance: "Voting Attendance reflects how often the MP participates in votes. Green: >90%, Amber: 70–90%, Red: <70%.",
	SpeechActivity:   "Speech Activity measures spoken contributions in Commons debates over the past year. Green: >20 speeches, Amber: 5–20, Red: <5.",
	Rebellions:       "Rebellions show votes against party line. Green: 5–15%, Amber: 0–5% or >15%, Red: 0.",
	TopicClarity:     "Topic Clarity measures consistency in voting on key issues. Green: >75% alignment, Amber: 25–75%, Red: <25% or no votes.",
	LocalReferences:  "Local References measure mentions of the constituency in debates. Green: >10 mentions, Amber: 1–10, Red: 0.",
}

// Clarity labels shown as the topic clarity value.
const (
	ClarityConsistent = "Consistent"
	ClarityMixed      = "Mixed"
	ClarityUnclear    = "Unclear"
)

func ClassifyAttendance(pct float64) domain.Color {
	switch {
	case pct > 90:
		return domain.ColorGreen
	case pct >= 70:
		return domain.ColorAmber
	default:
		return domain.ColorRed
	}
}

func ClassifySpeechCount(n int) domain.Color {
	switch {
	case n > 20:
		return domain.ColorGreen
	case n >= 5:
		return domain.ColorAmber
	default:
		return domain.ColorRed
	}
}

// ClassifyRebellions takes the rounded rebellion percentage.
func ClassifyRebellions(r int) domain.Color {
	switch {
	case r >= 5 && r <= 15:
		return domain.ColorGreen
	case r == 0:
		return domain.ColorRed
	default:
		return domain.ColorAmber
	}
}

func ClassifyLocalReferences(n int) domain.Color {
	switch {
	case n > 10:
		return domain.ColorGreen
	case n >= 1:
		return domain.ColorAmber
	default:
		return domain.ColorRed
	}
}

// ClassifyClarity maps a consistent-topic percentage to its label and color.
func ClassifyClarity(pct float64) (string, domain.Color) {
	switch {
	case pct > 75:
		return ClarityConsistent, domain.ColorGreen
	case pct >= 25:
		return ClarityMixed, domain.ColorAmber
	default:
		return ClarityUnclear, domain.ColorRed
	}
}

// ClarityPercent is the share of topics whose for-ratio is above 0.75 or
// below 0.25. Topics without votes are not counted.
func ClarityPercent(topics []domain.VotingTopic) float64 {
	total, consistent := 0, 0
	for _, t := range topics {
		votes := t.TotalVotes()
		if votes == 0 {
			continue
		}
		total++
		ratio := float64(t.VotesFor) / float64(votes)
		if ratio > 0.75 || ratio < 0.25 {
			consistent++
		}
	}
	return util.Percent(consistent, total)
}

// Apportion estimates votes for and against a policy from the number of
// divisions both sides voted in and the 0..1 distance score.
func Apportion(bothVoted int, distance float64, dir domain.Direction) (votesFor, votesAgainst int) {
	agree := util.Round(float64(bothVoted) * (1 - distance))
	disagree := util.Round(float64(bothVoted) * distance)
	if dir == domain.DirectionRight {
		return disagree, agree
	}
	return agree, disagree
}

// ParsePercent reads values like "95.2%"; anything unparsable is 0.
func ParsePercent(raw string) float64 {
	s := strings.TrimSpace(strings.ReplaceAll(raw, "%", ""))
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseNumber(raw string, ok bool, fallback string) (float64, error) {
	if !ok || strings.TrimSpace(raw) == "" {
		raw = fallback
	}
	return strconv.ParseFloat(strings.TrimSpace(raw), 64)
}

func metricLinkDebates(publicURL, personID string) string {
	return fmt.Sprintf("%s/debates/?person=%s", publicURL, personID)
}
