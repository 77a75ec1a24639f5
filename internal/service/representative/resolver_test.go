package representative

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"github.com/kapu/dmmymp-go/internal/service/postcode"
	"github.com/kapu/dmmymp-go/internal/service/twfy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePostcodes struct {
	constituency string
	err          error
	calls        int
}

func (f *fakePostcodes) LookupConstituency(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.constituency, f.err
}

type fakeMPs struct {
	mp    *twfy.MP
	err   error
	query twfy.MPQuery
}

func (f *fakeMPs) GetMP(_ context.Context, q twfy.MPQuery) (*twfy.MP, error) {
	f.query = q
	return f.mp, f.err
}

type memStore struct {
	data map[string][]byte
}

func (m *memStore) Get(_ context.Context, key string, dest any) (bool, error) {
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m *memStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func TestLookupResolvesAndCaches(t *testing.T) {
	pcs := &fakePostcodes{constituency: "Holborn and St Pancras"}
	mps := &fakeMPs{mp: &twfy.MP{FullName: "Jane Smith", Party: "Labour", Constituency: "Holborn and St Pancras"}}
	store := &memStore{data: map[string][]byte{}}

	r := NewResolver(pcs, mps, store, zap.NewNop())

	rep, err := r.Lookup(context.Background(), "wc1x 8hd")
	require.NoError(t, err)
	assert.Equal(t, "Jane Smith", rep.Name)
	assert.Equal(t, "Labour", rep.Party)
	assert.Equal(t, "Holborn and St Pancras", mps.query.Constituency)
	assert.Contains(t, store.data, "dmmymp:rep:WC1X8HD")

	_, err = r.Lookup(context.Background(), "WC1X 8HD")
	require.NoError(t, err)
	assert.Equal(t, 1, pcs.calls)

	assert.Equal(t, "name: Jane Smith\nparty: Labour\nconstituency: Holborn and St Pancras", Details(rep))
}

func TestLookupPassesPostcodeErrors(t *testing.T) {
	r := NewResolver(&fakePostcodes{err: postcode.ErrPostcodeNotFound}, &fakeMPs{}, nil, zap.NewNop())
	_, err := r.Lookup(context.Background(), "nope")
	assert.ErrorIs(t, err, postcode.ErrPostcodeNotFound)
}

func TestLookupEmptyMP(t *testing.T) {
	r := NewResolver(&fakePostcodes{constituency: "Vacant"}, &fakeMPs{mp: &twfy.MP{}}, nil, zap.NewNop())
	_, err := r.Lookup(context.Background(), "AB1 2CD")
	assert.ErrorIs(t, err, postcode.ErrNoConstituency)
}

func TestLookupMPError(t *testing.T) {
	boom := stderrors.New("boom")
	r := NewResolver(&fakePostcodes{constituency: "Holborn"}, &fakeMPs{err: boom}, nil, zap.NewNop())
	_, err := r.Lookup(context.Background(), "AB1 2CD")
	assert.ErrorIs(t, err, boom)
}
