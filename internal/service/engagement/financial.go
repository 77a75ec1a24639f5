package engagement

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/kapu/dmmymp-go/internal/constants"
	"github.com/kapu/dmmymp-go/internal/domain"
	"github.com/kapu/dmmymp-go/internal/service/twfy"
)

const (
	categoryDonations = "2"
	categoryGifts     = "3"
	enrichedSummaryID = "enriched_info"

	donationTypeCampaign    = "campaign"
	donationTypeNonCampaign = "non-campaign"

	noElectionDonationsSummary = "Election Donations: £0 cash, £0 in-kind (campaign-specific, excludes non-campaign gifts)."
)

// ParseFinancialSupport totals declared donations and gifts. An unusable
// payload yields zero figures.
func ParseFinancialSupport(p twfy.FinancialPayload) domain.FinancialSupport {
	var donations, gifts float64
	donationType := donationTypeNonCampaign

	if p.Usable() {
		for _, cat := range p.Data.Categories {
			switch cat.ID() {
			case categoryDonations:
				for _, s := range cat.Summaries {
					if s.ComparableID == enrichedSummaryID {
						donations = detailAmount(s, "all_income")
						donationType = donationTypeCampaign
					}
				}
			case categoryGifts:
				for _, s := range cat.Summaries {
					if s.ComparableID == enrichedSummaryID {
						gifts = detailAmount(s, "all_income")
					}
				}
			}
		}
	}

	total := donations + gifts
	return domain.FinancialSupport{
		TotalDonations:        donations,
		TotalGiftsAndBenefits: gifts,
		TotalSupport:          total,
		ComparisonToAverage:   compareToAverage(total),
		DonationType:          donationType,
	}
}

func compareToAverage(total float64) string {
	avg := constants.Financial.AverageTotalSupportPerMP
	var rel string
	switch {
	case total > avg:
		rel = "above"
	case total < avg:
		rel = "below"
	default:
		rel = "equal to"
	}
	return fmt.Sprintf("%s the average of £%s per MP", rel, humanize.Commaf(avg))
}

// ParseElectionDonations reads cash and in-kind sums from category 2.
func ParseElectionDonations(p twfy.FinancialPayload, support domain.FinancialSupport) domain.ElectionDonations {
	if !p.Usable() {
		return domain.ElectionDonations{Summary: noElectionDonationsSummary}
	}

	var cash, inKind float64
	for _, cat := range p.Data.Categories {
		if cat.ID() != categoryDonations {
			continue
		}
		for _, s := range cat.Summaries {
			if s.ComparableID == enrichedSummaryID {
				cash = detailAmount(s, "cash_sum")
				inKind = detailAmount(s, "in_kind_sum")
			}
		}
	}

	source := "no campaign donations"
	if support.DonationType == donationTypeCampaign {
		source = "campaign donations"
	}
	return domain.ElectionDonations{
		Cash:    cash,
		InKind:  inKind,
		Summary: fmt.Sprintf("Election Donations: £%s cash, £%s in-kind (%s).", humanize.Commaf(cash), humanize.Commaf(inKind), source),
	}
}

func detailAmount(s twfy.FinancialSummary, slug string) float64 {
	raw, ok := s.Detail(slug)
	if !ok {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return v
}
