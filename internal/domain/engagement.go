package domain

// Color is the traffic-light class of an EngagementMetric.
type Color string

const (
	ColorGreen Color = "green"
	ColorAmber Color = "amber"
	ColorRed   Color = "red"
)

// Valid reports whether c is one of the three traffic-light values.
func (c Color) Valid() bool {
	switch c {
	case ColorGreen, ColorAmber, ColorRed:
		return true
	}
	return false
}

// EngagementMetric is the uniform shape of every classified statistic.
// Value is a number for counts and percentages and a label for topic clarity.
type EngagementMetric struct {
	Value   any    `json:"value"`
	Color   Color  `json:"color"`
	Tooltip string `json:"tooltip"`
	Link    string `json:"link,omitempty"`
}

type ProfileSummary struct {
	FullName         string           `json:"fullName"`
	Party            string           `json:"party"`
	Constituency     string           `json:"constituency"`
	YearsInOffice    int              `json:"yearsInOffice"`
	VotingAttendance EngagementMetric `json:"votingAttendance"`
	SpeechActivity   EngagementMetric `json:"speechActivity"`
	Rebellions       EngagementMetric `json:"rebellions"`
	TopicClarity     EngagementMetric `json:"topicClarity"`
	LocalReferences  EngagementMetric `json:"localReferences"`
}

// VotingTopic is the estimated voting record on one policy.
type VotingTopic struct {
	Description  string `json:"description"`
	VotesFor     int    `json:"votesFor"`
	VotesAgainst int    `json:"votesAgainst"`
	Absences     int    `json:"absences"`
	Period       string `json:"period"`
	Statement    string `json:"statement"`
	Link         string `json:"link"`
}

// TotalVotes is VotesFor + VotesAgainst.
func (t VotingTopic) TotalVotes() int {
	return t.VotesFor + t.VotesAgainst
}

type ParliamentaryActivity struct {
	SpeechCount          int      `json:"speechCount"`
	TopTopics            []string `json:"topTopics"`
	ConstituencyMentions int      `json:"constituencyMentions"`
	Link                 string   `json:"link"`
}

type CommitteesAndRoles struct {
	Roles      string `json:"roles"`
	Committees string `json:"committees"`
	Focus      string `json:"focus"`
}

type ScorecardEntry struct {
	Area   string `json:"area"`
	Status Color  `json:"status"`
}

type OverallSummary struct {
	Summary   string           `json:"summary"`
	Scorecard []ScorecardEntry `json:"scorecard"`
}

type FinancialSupport struct {
	TotalDonations        float64 `json:"totalDonations"`
	TotalGiftsAndBenefits float64 `json:"totalGiftsAndBenefits"`
	TotalSupport          float64 `json:"totalSupport"`
	ComparisonToAverage   string  `json:"comparisonToAverage"`
	DonationType          string  `json:"donationType"`
}

type ElectionDonations struct {
	Cash    float64 `json:"cash"`
	InKind  float64 `json:"inKind"`
	Summary string  `json:"summary"`
}

// EngagementProfile is the derived, classified summary of one MP.
type EngagementProfile struct {
	ProfileSummary        ProfileSummary        `json:"profileSummary"`
	TopVotingTopics       []VotingTopic         `json:"topVotingTopics"`
	ParliamentaryActivity ParliamentaryActivity `json:"parliamentaryActivity"`
	CommitteesAndRoles    CommitteesAndRoles    `json:"committeesAndRoles"`
	OverallSummary        OverallSummary        `json:"overallSummary"`
	FinancialSupport      FinancialSupport      `json:"financialSupport"`
	StartYear             int                   `json:"startYear"`
	ElectionDonations     ElectionDonations     `json:"electionDonations"`
}

// Metrics returns the five classified metrics in scorecard input order.
func (p *EngagementProfile) Metrics() []EngagementMetric {
	s := p.ProfileSummary
	return []EngagementMetric{s.VotingAttendance, s.SpeechActivity, s.Rebellions, s.TopicClarity, s.LocalReferences}
}
