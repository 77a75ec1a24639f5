package engagement

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/kapu/dmmymp-go/internal/constants"
	"github.com/kapu/dmmymp-go/internal/domain"
	"go.uber.org/zap"
)

// PageFetcher returns one page of an MP's activity feed.
type PageFetcher interface {
	GetHansard(ctx context.Context, personID string, page, perPage int) ([]domain.ActivityEntry, error)
}

// FetchActivity pages through the feed sequentially until a short page. A
// failed page ends pagination but keeps what was already collected; degraded
// reports that case.
func FetchActivity(ctx context.Context, fetcher PageFetcher, personID string, logger *zap.Logger) (entries []domain.ActivityEntry, degraded bool) {
	pageSize := constants.ActivityFeed.PageSize

	for page := 1; page <= constants.ActivityFeed.MaxPages; page++ {
		rows, err := fetcher.GetHansard(ctx, personID, page, pageSize)
		if err != nil {
			logger.Warn("Activity feed page failed, continuing with partial results",
				zap.String("person_id", personID),
				zap.Int("page", page),
				zap.Int("collected", len(entries)),
				zap.Bool("degraded", true),
				zap.Error(err),
			)
			return entries, true
		}

		entries = append(entries, rows...)
		if len(rows) < pageSize {
			return entries, false
		}
	}

	logger.Warn("Activity feed page cap reached",
		zap.String("person_id", personID),
		zap.Int("max_pages", constants.ActivityFeed.MaxPages),
		zap.Bool("degraded", true),
	)
	return entries, true
}

var validMajors = map[string]struct{}{"1": {}, "2": {}, "3": {}}

// IsValidActivity reports whether an entry is a recognised floor
// contribution with more than 10 characters of text.
func IsValidActivity(e domain.ActivityEntry) bool {
	if _, ok := validMajors[e.Major]; !ok {
		return false
	}
	if e.HType != "12" && e.Section != "Debates" {
		return false
	}
	return utf8.RuneCountInString(StripHTML(e.Body)) > 10
}

// FilterValid drops entries that fail IsValidActivity.
func FilterValid(entries []domain.ActivityEntry) []domain.ActivityEntry {
	valid := make([]domain.ActivityEntry, 0, len(entries))
	for _, e := range entries {
		if IsValidActivity(e) {
			valid = append(valid, e)
		}
	}
	return valid
}

// StripHTML returns the text content of an HTML fragment.
func StripHTML(body string) string {
	if !strings.ContainsAny(body, "<&") {
		return body
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return body
	}
	return doc.Text()
}

var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// CountRecent counts entries dated on or after one year before now.
func CountRecent(entries []domain.ActivityEntry, now time.Time) int {
	cutoff := now.UTC().AddDate(-1, 0, 0)
	count := 0
	for _, e := range entries {
		if !isoDate.MatchString(e.HDate) {
			continue
		}
		d, err := time.Parse("2006-01-02", e.HDate)
		if err != nil {
			continue
		}
		if !d.Before(cutoff) {
			count++
		}
	}
	return count
}

// ConstituencyMatcher builds the whole-word, case-insensitive matcher for a
// constituency name, also accepting the "-on-Sea" form. Word boundaries are
// only required where the name starts or ends with a word character.
func ConstituencyMatcher(constituency string) *regexp.Regexp {
	if constituency == "" {
		return regexp.MustCompile(`$^`)
	}
	q := regexp.QuoteMeta(constituency)
	lead, trail := "", ""
	if isWordByte(constituency[0]) {
		lead = `\b`
	}
	if isWordByte(constituency[len(constituency)-1]) {
		trail = `\b`
	}
	return regexp.MustCompile(`(?i)` + lead + q + trail + `|` + lead + q + `-on-Sea\b`)
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// CountMentions counts entries whose text names the constituency.
func CountMentions(entries []domain.ActivityEntry, constituency string) int {
	if strings.TrimSpace(constituency) == "" {
		return 0
	}
	re := ConstituencyMatcher(strings.TrimSpace(constituency))
	count := 0
	for _, e := range entries {
		if re.MatchString(StripHTML(e.Body)) {
			count++
		}
	}
	return count
}
