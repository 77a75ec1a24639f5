package engagement

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/kapu/dmmymp-go/internal/constants"
	"github.com/kapu/dmmymp-go/internal/domain"
	"github.com/kapu/dmmymp-go/internal/service/twfy"
	"github.com/kapu/dmmymp-go/internal/util"
	"github.com/kapu/dmmymp-go/pkg/errors"
	"go.uber.org/zap"
)

const (
	maxVotingTopics = 10
	maxTopTopics    = 5
	unknownParty    = "Unknown"

	dreamMPPrefix = "public_whip_dreammp"
)

// Source is the parliamentary data the engine reads.
type Source interface {
	PageFetcher
	GetMP(ctx context.Context, q twfy.MPQuery) (*twfy.MP, error)
	GetMPInfo(ctx context.Context, personID string) (*twfy.MemberInfo, error)
	GetDreamMPs(ctx context.Context) ([]domain.DiscoveredTopic, error)
}

// Engine derives engagement profiles. It holds no per-request state and is
// safe for concurrent use.
type Engine struct {
	source    Source
	seed      []domain.TopicMapping
	publicURL string
	now       func() time.Time
	logger    *zap.Logger
}

func NewEngine(source Source, logger *zap.Logger) *Engine {
	return &Engine{
		source:    source,
		seed:      SeedMappings(),
		publicURL: constants.APIConfig.TWFYPublicURL,
		now:       time.Now,
		logger:    logger,
	}
}

// Input is everything Compose needs; Derive fills it from the source.
type Input struct {
	Name         string
	Constituency string
	Identity     domain.Identity
	Info         *twfy.MemberInfo
	Mappings     []domain.TopicMapping
	Activity     []domain.ActivityEntry // valid entries only
}

// Derive resolves the MP and computes their profile. Identity and profile
// failures are returned as *errors.SourceUnavailableError; a failed activity
// page only truncates the feed.
func (e *Engine) Derive(ctx context.Context, name, constituency string) (*domain.EngagementProfile, error) {
	e.logger.Debug("Deriving engagement profile",
		zap.String("name", name),
		zap.String("constituency", constituency),
	)

	mp, err := e.source.GetMP(ctx, twfy.MPQuery{Name: name, Constituency: constituency})
	if err != nil {
		return nil, errors.NewSourceUnavailableError("MP lookup failed", "getMP", err)
	}
	identity := mp.Identity()
	if identity.PersonID == "" || identity.MemberID == "" {
		return nil, errors.NewSourceUnavailableError("could not find person_id or member_id for the MP", "getMP", nil)
	}

	info, err := e.source.GetMPInfo(ctx, identity.PersonID)
	if err != nil {
		return nil, errors.NewSourceUnavailableError("MP info lookup failed", "getMPInfo", err)
	}
	if !info.HasByMemberID() {
		return nil, errors.NewSourceUnavailableError("invalid MP info response: missing by_member_id", "getMPInfo", nil)
	}

	discovered, err := e.source.GetDreamMPs(ctx)
	if err != nil {
		e.logger.Warn("Policy id discovery failed, using curated table only", zap.Error(err))
		discovered = nil
	}
	mappings := MergeMappings(e.seed, discovered, e.logger)

	raw, _ := FetchActivity(ctx, e.source, identity.PersonID, e.logger)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("derive profile: %w", err)
	}

	return e.Compose(Input{
		Name:         name,
		Constituency: constituency,
		Identity:     identity,
		Info:         info,
		Mappings:     mappings,
		Activity:     FilterValid(raw),
	}), nil
}

var firstISODate = regexp.MustCompile(`(\d{4})-\d{2}-\d{2}`)

// StartYear takes the year of the first ISO date in the maiden speech
// record, or the current year.
func StartYear(maidenSpeech string, now time.Time) int {
	if m := firstISODate.FindStringSubmatch(maidenSpeech); m != nil {
		if y, err := strconv.Atoi(m[1]); err == nil {
			return y
		}
	}
	return now.Year()
}

// Compose computes a profile from already-fetched data.
func (e *Engine) Compose(in Input) *domain.EngagementProfile {
	now := e.now()

	fullName := in.Identity.FullName
	if fullName == "" {
		fullName = in.Name
	}
	party := in.Identity.Party
	if party == "" {
		party = unknownParty
	}

	startYear := StartYear(in.Info.MaidenSpeech(), now)
	mpURL := fmt.Sprintf("%s/mp/%s/%s", e.publicURL,
		url.PathEscape(util.Slugify(in.Name)),
		url.PathEscape(util.Slugify(in.Constituency)),
	)
	debatesURL := metricLinkDebates(e.publicURL, in.Identity.PersonID)

	attendanceRaw, _ := in.Info.MemberField(in.Identity.MemberID, "public_whip_division_attendance")
	attendance := ParsePercent(attendanceRaw)

	rebellionsRaw, _ := in.Info.MemberField(in.Identity.MemberID, "public_whip_rebellions")
	rebellions := util.Round(ParsePercent(rebellionsRaw))

	speechCount := CountRecent(in.Activity, now)
	mentions := CountMentions(in.Activity, in.Constituency)

	topics := e.votingTopics(in, startYear, now.Year(), mpURL)
	clarityLabel, clarityColor := ClassifyClarity(ClarityPercent(topics))

	summary := domain.ProfileSummary{
		FullName:      fullName,
		Party:         party,
		Constituency:  in.Constituency,
		YearsInOffice: now.Year() - startYear,
		VotingAttendance: domain.EngagementMetric{
			Value:   attendance,
			Color:   ClassifyAttendance(attendance),
			Tooltip: Tooltips.VotingAttendance,
			Link:    mpURL + "#votingrecord",
		},
		SpeechActivity: domain.EngagementMetric{
			Value:   speechCount,
			Color:   ClassifySpeechCount(speechCount),
			Tooltip: Tooltips.SpeechActivity,
			Link:    debatesURL,
		},
		Rebellions: domain.EngagementMetric{
			Value:   rebellions,
			Color:   ClassifyRebellions(rebellions),
			Tooltip: Tooltips.Rebellions,
		},
		TopicClarity: domain.EngagementMetric{
			Value:   clarityLabel,
			Color:   clarityColor,
			Tooltip: Tooltips.TopicClarity,
			Link:    mpURL + "#votingrecord",
		},
		LocalReferences: domain.EngagementMetric{
			Value:   mentions,
			Color:   ClassifyLocalReferences(mentions),
			Tooltip: Tooltips.LocalReferences,
			Link:    debatesURL,
		},
	}

	if in.Info.Financial.Present && in.Info.Financial.Err != nil {
		e.logger.Warn("Malformed financial payload, defaulting to zero",
			zap.String("person_id", in.Identity.PersonID),
			zap.Error(in.Info.Financial.Err),
		)
	}
	financial := ParseFinancialSupport(in.Info.Financial)

	return &domain.EngagementProfile{
		ProfileSummary:  summary,
		TopVotingTopics: topics,
		ParliamentaryActivity: domain.ParliamentaryActivity{
			SpeechCount:          speechCount,
			TopTopics:            TopTopics(in.Activity, maxTopTopics),
			ConstituencyMentions: mentions,
			Link:                 debatesURL,
		},
		CommitteesAndRoles: DeriveCommitteesAndRoles(in.Identity.Offices),
		OverallSummary:     BuildOverallSummary(summary),
		FinancialSupport:   financial,
		StartYear:          startYear,
		ElectionDonations:  ParseElectionDonations(in.Info.Financial, financial),
	}
}

// votingTopics estimates a record per mapping, drops topics with no votes,
// and keeps the busiest ten.
func (e *Engine) votingTopics(in Input, startYear, endYear int, mpURL string) []domain.VotingTopic {
	period := fmt.Sprintf("between %d–%d", startYear, endYear)
	topics := make([]domain.VotingTopic, 0, len(in.Mappings))

	for _, m := range in.Mappings {
		bothRaw, bothOK := in.Info.Field(dreamMPPrefix, m.ID, "_both_voted")
		distRaw, distOK := in.Info.Field(dreamMPPrefix, m.ID, "_distance")
		absRaw, absOK := in.Info.Field(dreamMPPrefix, m.ID, "_abstentions")

		both, err := parseNumber(bothRaw, bothOK, "0")
		if err != nil {
			continue
		}
		distance, err := parseNumber(distRaw, distOK, "1")
		if err != nil {
			continue
		}
		absences, err := parseNumber(absRaw, absOK, "0")
		if err != nil {
			absences = 0
		}

		votesFor, votesAgainst := Apportion(int(both), distance, m.Direction)
		if votesFor+votesAgainst <= 0 {
			continue
		}

		stance := "against"
		if votesFor > votesAgainst {
			stance = "for"
		}
		topics = append(topics, domain.VotingTopic{
			Description:  m.Description,
			VotesFor:     votesFor,
			VotesAgainst: votesAgainst,
			Absences:     int(absences),
			Period:       period,
			Statement: fmt.Sprintf("Generally voted %s %s (%d votes for, %d votes against, %d absences, %s)",
				stance, m.Description, votesFor, votesAgainst, int(absences), period),
			Link: mpURL + "/votes#" + util.Slugify(m.Category),
		})
	}

	sort.SliceStable(topics, func(i, j int) bool {
		return topics[i].TotalVotes() > topics[j].TotalVotes()
	})
	if len(topics) > maxVotingTopics {
		topics = topics[:maxVotingTopics]
	}
	return topics
}
