package engagement

import (
	"context"
	"fmt"

	"github.com/kapu/dmmymp-go/internal/domain"
	"github.com/kapu/dmmymp-go/internal/service/twfy"
)

type fakeSource struct {
	mp       *twfy.MP
	mpErr    error
	info     *twfy.MemberInfo
	infoErr  error
	dream    []domain.DiscoveredTopic
	dreamErr error

	pages      map[int][]domain.ActivityEntry
	failPage   int
	pageCalls  []int
	queries    []twfy.MPQuery
	infoCalled bool
}

func (f *fakeSource) GetMP(_ context.Context, q twfy.MPQuery) (*twfy.MP, error) {
	f.queries = append(f.queries, q)
	return f.mp, f.mpErr
}

func (f *fakeSource) GetMPInfo(_ context.Context, _ string) (*twfy.MemberInfo, error) {
	f.infoCalled = true
	return f.info, f.infoErr
}

func (f *fakeSource) GetDreamMPs(_ context.Context) ([]domain.DiscoveredTopic, error) {
	return f.dream, f.dreamErr
}

func (f *fakeSource) GetHansard(_ context.Context, _ string, page, _ int) ([]domain.ActivityEntry, error) {
	f.pageCalls = append(f.pageCalls, page)
	if f.failPage != 0 && page == f.failPage {
		return nil, fmt.Errorf("page %d: connection reset", page)
	}
	return f.pages[page], nil
}

func debate(body, date string) domain.ActivityEntry {
	return domain.ActivityEntry{Body: body, Major: "1", HType: "12", Section: "Debates", HDate: date}
}

func repeat(n int, e domain.ActivityEntry) []domain.ActivityEntry {
	out := make([]domain.ActivityEntry, n)
	for i := range out {
		out[i] = e
	}
	return out
}
