package engagement

import (
	"fmt"
	"strings"

	"github.com/kapu/dmmymp-go/internal/domain"
)

// Scorecard area labels, in display order.
const (
	AreaVotingAttendance  = "Voting Attendance"
	AreaSpeechActivity    = "Speech Activity"
	AreaLocalEngagement   = "Local Engagement"
	AreaPartyIndependence = "Party Independence"
	AreaTopicClarity      = "Topic Clarity"
)

// EngagementTier buckets the number of green metrics.
func EngagementTier(greens int) string {
	switch {
	case greens >= 3:
		return "engaged"
	case greens >= 1:
		return "moderately engaged"
	default:
		return "less engaged"
	}
}

func colorWord(c domain.Color, green, amber, red string) string {
	switch c {
	case domain.ColorGreen:
		return green
	case domain.ColorAmber:
		return amber
	default:
		return red
	}
}

// BuildOverallSummary writes the narrative and scorecard from the five
// classified metrics.
func BuildOverallSummary(ps domain.ProfileSummary) domain.OverallSummary {
	greens := 0
	for _, m := range []domain.EngagementMetric{ps.VotingAttendance, ps.SpeechActivity, ps.Rebellions, ps.TopicClarity, ps.LocalReferences} {
		if m.Color == domain.ColorGreen {
			greens++
		}
	}

	summary := fmt.Sprintf(
		"%s appears %s in representing %s. They have %s parliamentary activity and %s local focus. Their voting clarity is %s, and they show %s independence from their party.",
		ps.FullName,
		EngagementTier(greens),
		ps.Constituency,
		colorWord(ps.SpeechActivity.Color, "regular", "occasional", "minimal"),
		colorWord(ps.LocalReferences.Color, "strong", "some", "no"),
		strings.ToLower(fmt.Sprint(ps.TopicClarity.Value)),
		colorWord(ps.Rebellions.Color, "balanced", "limited", "no"),
	)

	return domain.OverallSummary{
		Summary: summary,
		Scorecard: []domain.ScorecardEntry{
			{Area: AreaVotingAttendance, Status: ps.VotingAttendance.Color},
			{Area: AreaSpeechActivity, Status: ps.SpeechActivity.Color},
			{Area: AreaLocalEngagement, Status: ps.LocalReferences.Color},
			{Area: AreaPartyIndependence, Status: ps.Rebellions.Color},
			{Area: AreaTopicClarity, Status: ps.TopicClarity.Color},
		},
	}
}
