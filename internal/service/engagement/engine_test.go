package engagement

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/kapu/dmmymp-go/internal/constants"
	"github.com/kapu/dmmymp-go/internal/domain"
	"github.com/kapu/dmmymp-go/internal/service/twfy"
	"github.com/kapu/dmmymp-go/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestEngine(src Source) *Engine {
	e := NewEngine(src, zap.NewNop())
	e.now = func() time.Time { return fixedNow }
	return e
}

func scenarioMP() *twfy.MP {
	mp, err := twfyMP(`{"full_name":"Jane Smith","party":"Labour","person_id":"10001","member_id":"4242",
		"office":[{"position":"Shadow Minister for Transport"},{"position":"Member","dept":"Health and Social Care Committee"}]}`)
	if err != nil {
		panic(err)
	}
	return mp
}

func twfyMP(body string) (*twfy.MP, error) {
	var mp twfy.MP
	if err := json.Unmarshal([]byte(body), &mp); err != nil {
		return nil, err
	}
	return &mp, nil
}

func scenarioInfo(t *testing.T) *twfy.MemberInfo {
	t.Helper()
	info, err := twfy.NewMemberInfo(map[string]any{
		"maiden_speech": "Maiden speech on 2015-06-03, Commons",
		"by_member_id": map[string]any{
			"4242": map[string]any{
				"public_whip_division_attendance": "95%",
				"public_whip_rebellions":          "10%",
			},
		},
		"public_whip_dreammp6679_both_voted":  "20",
		"public_whip_dreammp6679_distance":    "0.1",
		"public_whip_dreammp6679_abstentions": "3",
		"public_whip_dreammp837_both_voted":   "10",
		"public_whip_dreammp837_distance":     "0.1",
		"public_whip_dreammp982_both_voted":   "8",
		"public_whip_dreammp982_distance":     "0.5",
		"person_regmem_enriched2024_en":       financialFixture(),
	})
	require.NoError(t, err)
	return info
}

func scenarioActivity() []domain.ActivityEntry {
	var rows []domain.ActivityEntry
	rows = append(rows, repeat(12, debate("<p>I visited Holborn market this week</p>", "2025-05-01"))...)
	rows = append(rows, repeat(13, debate("<p>Hospital waiting times keep growing</p>", "2025-04-01"))...)
	// invalid: wrong category, and too short
	rows = append(rows, domain.ActivityEntry{Body: "<p>Holborn Holborn Holborn</p>", Major: "9", HType: "12", HDate: "2025-05-01"})
	rows = append(rows, debate("<p>Hear</p>", "2025-05-01"))
	return rows
}

func TestDeriveEndToEnd(t *testing.T) {
	src := &fakeSource{
		mp:   scenarioMP(),
		info: scenarioInfo(t),
		dream: []domain.DiscoveredTopic{
			{ID: "6679", Description: "increased NHS funding"},
			{ID: "9999", Description: "a policy with no votes"},
		},
		pages: map[int][]domain.ActivityEntry{1: scenarioActivity()},
	}

	profile, err := newTestEngine(src).Derive(context.Background(), "Jane Smith", "Holborn")
	require.NoError(t, err)

	require.Len(t, src.queries, 1)
	assert.Equal(t, twfy.MPQuery{Name: "Jane Smith", Constituency: "Holborn"}, src.queries[0])
	assert.Equal(t, []int{1}, src.pageCalls)

	ps := profile.ProfileSummary
	assert.Equal(t, "Jane Smith", ps.FullName)
	assert.Equal(t, "Labour", ps.Party)
	assert.Equal(t, "Holborn", ps.Constituency)
	assert.Equal(t, 10, ps.YearsInOffice)
	assert.Equal(t, 2015, profile.StartYear)

	assert.Equal(t, domain.ColorGreen, ps.VotingAttendance.Color)
	assert.InDelta(t, 95.0, ps.VotingAttendance.Value, 1e-9)
	assert.Equal(t, "https://www.theyworkforyou.com/mp/jane_smith/holborn#votingrecord", ps.VotingAttendance.Link)

	assert.Equal(t, domain.ColorGreen, ps.SpeechActivity.Color)
	assert.Equal(t, 25, ps.SpeechActivity.Value)
	assert.Equal(t, "https://www.theyworkforyou.com/debates/?person=10001", ps.SpeechActivity.Link)

	assert.Equal(t, domain.ColorGreen, ps.Rebellions.Color)
	assert.Equal(t, 10, ps.Rebellions.Value)
	assert.Empty(t, ps.Rebellions.Link)

	assert.Equal(t, domain.ColorGreen, ps.LocalReferences.Color)
	assert.Equal(t, 12, ps.LocalReferences.Value)

	// ratios 0.9, 0.1, 0.5: two of three consistent
	assert.Equal(t, ClarityMixed, ps.TopicClarity.Value)
	assert.Equal(t, domain.ColorAmber, ps.TopicClarity.Color)

	require.Len(t, profile.TopVotingTopics, 3)
	top := profile.TopVotingTopics[0]
	assert.Equal(t, "increased NHS funding", top.Description)
	assert.Equal(t, 18, top.VotesFor)
	assert.Equal(t, 2, top.VotesAgainst)
	assert.Equal(t, 3, top.Absences)
	assert.Equal(t, "between 2015–2025", top.Period)
	assert.Equal(t, "Generally voted for increased NHS funding (18 votes for, 2 votes against, 3 absences, between 2015–2025)", top.Statement)
	assert.Equal(t, "https://www.theyworkforyou.com/mp/jane_smith/holborn/votes#health_&_nhs", top.Link)

	second := profile.TopVotingTopics[1]
	assert.Equal(t, "increased public safety measures", second.Description)
	assert.Equal(t, 1, second.VotesFor)
	assert.Equal(t, 9, second.VotesAgainst)
	assert.Contains(t, second.Statement, "Generally voted against increased public safety measures")
	assert.Equal(t, "more social housing", profile.TopVotingTopics[2].Description)

	pa := profile.ParliamentaryActivity
	assert.Equal(t, 25, pa.SpeechCount)
	assert.Equal(t, 12, pa.ConstituencyMentions)
	assert.Equal(t, []string{"Health & NHS (13 mentions)", "Debates (12 mentions)"}, pa.TopTopics)

	assert.Equal(t, "Shadow Minister for Transport", profile.CommitteesAndRoles.Roles)
	assert.Equal(t, "Health and Social Care Committee", profile.CommitteesAndRoles.Committees)
	assert.Equal(t, "Health Policy", profile.CommitteesAndRoles.Focus)

	assert.Equal(t,
		"Jane Smith appears engaged in representing Holborn. They have regular parliamentary activity and strong local focus. Their voting clarity is mixed, and they show balanced independence from their party.",
		profile.OverallSummary.Summary)
	assert.Equal(t, []domain.ScorecardEntry{
		{Area: "Voting Attendance", Status: domain.ColorGreen},
		{Area: "Speech Activity", Status: domain.ColorGreen},
		{Area: "Local Engagement", Status: domain.ColorGreen},
		{Area: "Party Independence", Status: domain.ColorGreen},
		{Area: "Topic Clarity", Status: domain.ColorAmber},
	}, profile.OverallSummary.Scorecard)

	assert.InDelta(t, 3000, profile.FinancialSupport.TotalSupport, 1e-9)
	assert.Equal(t, "Election Donations: £750 cash, £1,250.5 in-kind (campaign donations).", profile.ElectionDonations.Summary)

	for _, m := range profile.Metrics() {
		assert.True(t, m.Color.Valid())
	}
}

func TestDerivePaginationDegradation(t *testing.T) {
	size := constants.ActivityFeed.PageSize
	src := &fakeSource{
		mp:       scenarioMP(),
		info:     scenarioInfo(t),
		pages:    map[int][]domain.ActivityEntry{1: repeat(size, debate("<p>I visited Holborn market this week</p>", "2025-05-01"))},
		failPage: 2,
	}

	profile, err := newTestEngine(src).Derive(context.Background(), "Jane Smith", "Holborn")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, src.pageCalls)
	assert.Equal(t, size, profile.ParliamentaryActivity.SpeechCount)
	assert.Equal(t, size, profile.ParliamentaryActivity.ConstituencyMentions)
}

func TestDeriveDreamMPFailureFallsBackToSeed(t *testing.T) {
	src := &fakeSource{
		mp:       scenarioMP(),
		info:     scenarioInfo(t),
		dreamErr: fmt.Errorf("timeout"),
		pages:    map[int][]domain.ActivityEntry{},
	}

	profile, err := newTestEngine(src).Derive(context.Background(), "Jane Smith", "Holborn")
	require.NoError(t, err)
	assert.Len(t, profile.TopVotingTopics, 3)
	assert.Equal(t, domain.ColorRed, profile.ProfileSummary.SpeechActivity.Color)
	assert.Equal(t, []string{}, profile.ParliamentaryActivity.TopTopics)
}

func TestDeriveSourceUnavailable(t *testing.T) {
	noIDs, err := twfyMP(`{"full_name":"Nobody","person_id":"","member_id":"1"}`)
	require.NoError(t, err)
	noByMember, err := twfy.NewMemberInfo(map[string]any{"maiden_speech": "2010-01-01"})
	require.NoError(t, err)

	cases := map[string]struct {
		src      *fakeSource
		wantInfo bool
	}{
		"identity call fails": {src: &fakeSource{mpErr: fmt.Errorf("dial tcp: refused")}},
		"missing ids":         {src: &fakeSource{mp: noIDs}},
		"profile call fails":  {src: &fakeSource{mp: scenarioMP(), infoErr: fmt.Errorf("503")}, wantInfo: true},
		"no by_member_id":     {src: &fakeSource{mp: scenarioMP(), info: noByMember}, wantInfo: true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			profile, err := newTestEngine(tc.src).Derive(context.Background(), "Jane Smith", "Holborn")
			assert.Nil(t, profile)
			require.Error(t, err)
			assert.True(t, errors.IsSourceUnavailable(err))
			assert.Equal(t, tc.wantInfo, tc.src.infoCalled)
			assert.Empty(t, tc.src.pageCalls)
		})
	}
}

func TestDeriveCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &fakeSource{mp: scenarioMP(), info: scenarioInfo(t), pages: map[int][]domain.ActivityEntry{}}

	_, err := newTestEngine(src).Derive(ctx, "Jane Smith", "Holborn")
	require.ErrorIs(t, err, context.Canceled)
}

func TestComposeDefaults(t *testing.T) {
	info, err := twfy.NewMemberInfo(map[string]any{"by_member_id": map[string]any{}})
	require.NoError(t, err)

	e := newTestEngine(&fakeSource{})
	profile := e.Compose(Input{
		Name:         "A Member",
		Constituency: "Somewhere",
		Identity:     domain.Identity{PersonID: "1", MemberID: "2"},
		Info:         info,
		Mappings:     SeedMappings(),
	})

	ps := profile.ProfileSummary
	assert.Equal(t, "A Member", ps.FullName)
	assert.Equal(t, "Unknown", ps.Party)
	assert.Equal(t, 2025, profile.StartYear)
	assert.Equal(t, 0, ps.YearsInOffice)
	assert.Equal(t, domain.ColorRed, ps.VotingAttendance.Color)
	assert.Equal(t, domain.ColorRed, ps.Rebellions.Color)
	assert.Equal(t, ClarityUnclear, ps.TopicClarity.Value)
	assert.Empty(t, profile.TopVotingTopics)
	assert.Equal(t, "less engaged", EngagementTier(0))
	assert.Contains(t, profile.OverallSummary.Summary, "appears less engaged")
	assert.Contains(t, profile.OverallSummary.Summary, "voting clarity is unclear")
}

func TestTopVotingTopicsCappedAndNonZero(t *testing.T) {
	fields := map[string]any{"by_member_id": map[string]any{}}
	for i, m := range SeedMappings() {
		if i%4 == 0 {
			continue // no record: default both_voted 0
		}
		fields["public_whip_dreammp"+m.ID+"_both_voted"] = fmt.Sprint(i + 1)
		fields["public_whip_dreammp"+m.ID+"_distance"] = "0.3"
	}
	info, err := twfy.NewMemberInfo(fields)
	require.NoError(t, err)

	profile := newTestEngine(&fakeSource{}).Compose(Input{
		Name: "A", Constituency: "B",
		Identity: domain.Identity{PersonID: "1", MemberID: "2"},
		Info:     info,
		Mappings: SeedMappings(),
	})

	require.Len(t, profile.TopVotingTopics, 10)
	prev := 1 << 30
	for _, topic := range profile.TopVotingTopics {
		total := topic.VotesFor + topic.VotesAgainst
		assert.Positive(t, total)
		assert.LessOrEqual(t, total, prev)
		prev = total
	}
}

func TestStartYear(t *testing.T) {
	assert.Equal(t, 2019, StartYear("Made on 2019-12-20 and again 2020-01-01", fixedNow))
	assert.Equal(t, 2025, StartYear("no date here", fixedNow))
	assert.Equal(t, 2025, StartYear("", fixedNow))
}
