package twfy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kapu/dmmymp-go/internal/util"
	"github.com/kapu/dmmymp-go/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.Client(), srv.URL, "test-key", zap.NewNop())
}

func TestGetMPArrayResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/getMP", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "js", r.URL.Query().Get("output"))
		assert.Equal(t, "Holborn and St Pancras", r.URL.Query().Get("constituency"))
		_, _ = w.Write([]byte(`[{"full_name":"Jane Smith","party":"Labour","person_id":10001,"member_id":"4242",
			"office":[{"position":"Shadow Minister","dept":""},{"position":"Member","dept":"Health Committee"}]}]`))
	})

	mp, err := client.GetMP(context.Background(), MPQuery{Name: "Jane Smith", Constituency: "Holborn and St Pancras"})
	require.NoError(t, err)

	id := mp.Identity()
	assert.Equal(t, "Jane Smith", id.FullName)
	assert.Equal(t, "10001", id.PersonID)
	assert.Equal(t, "4242", id.MemberID)
	require.Len(t, id.Offices, 2)
	assert.Equal(t, "Health Committee", id.Offices[1].Dept)
}

func TestGetMPEmptyArray(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	mp, err := client.GetMP(context.Background(), MPQuery{Constituency: "Nowhere"})
	require.NoError(t, err)
	assert.Empty(t, mp.Identity().PersonID)
}

func TestApplicationErrorBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"Invalid API key"}`))
	})

	_, err := client.GetMP(context.Background(), MPQuery{Constituency: "X"})
	require.Error(t, err)
	var apiErr *errors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
}

func TestServerErrorsOpenBreaker(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	})

	for i := 0; i < 3; i++ {
		_, err := client.GetDreamMPs(context.Background())
		require.Error(t, err)
	}
	assert.True(t, client.IsCircuitOpen())

	_, err := client.GetDreamMPs(context.Background())
	require.Error(t, err)
	status, ok := errors.StatusCode(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, 3, calls)
}

func TestGetHansardDecodesRows(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "10001", q.Get("person"))
		assert.Equal(t, "d", q.Get("order"))
		assert.Equal(t, "500", q.Get("num"))
		assert.Equal(t, "2", q.Get("page"))
		_, _ = w.Write([]byte(`{"rows":[{"body":"<p>Hello there friends</p>","major":1,"htype":"12","section":"Debates","hdate":"2025-03-01"}]}`))
	})

	rows, err := client.GetHansard(context.Background(), "10001", 2, 500)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1", rows[0].Major)
	assert.Equal(t, "12", rows[0].HType)
	assert.Equal(t, "2025-03-01", rows[0].HDate)
}

func TestGetDreamMPsNonList(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"rows":[]}`))
	})

	topics, err := client.GetDreamMPs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, topics)
}

func TestClientErrorDoesNotTripBreaker(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for i := 0; i < 5; i++ {
		_, err := client.GetMPInfo(context.Background(), "1")
		require.Error(t, err)
	}
	assert.False(t, client.IsCircuitOpen())
}

func TestCallerCancellationDoesNotTripBreaker(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(100 * time.Millisecond):
		}
		_, _ = w.Write([]byte(`[]`))
	})

	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
		_, err := client.GetDreamMPs(ctx)
		cancel()
		require.Error(t, err)
	}
	assert.False(t, client.IsCircuitOpen())

	topics, err := client.GetDreamMPs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, topics)
}

func TestCallerCancellationReleasesHalfOpenProbe(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	client.breaker = util.NewCircuitBreaker("twfy", 1, time.Millisecond, zap.NewNop())
	client.breaker.RecordFailure(0)
	time.Sleep(5 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.GetDreamMPs(ctx)
	require.Error(t, err)

	_, err = client.GetDreamMPs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, util.CircuitStateClosed, client.breaker.GetState())
}

func TestRequestBuildFailureReleasesHalfOpenProbe(t *testing.T) {
	client := NewClient(http.DefaultClient, "http://twfy\x7f.invalid", "test-key", zap.NewNop())
	client.breaker = util.NewCircuitBreaker("twfy", 1, time.Millisecond, zap.NewNop())
	client.breaker.RecordFailure(0)
	time.Sleep(5 * time.Millisecond)

	for i := 0; i < 2; i++ {
		_, err := client.GetDreamMPs(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "build request")
	}
	assert.Equal(t, util.CircuitStateHalfOpen, client.breaker.GetState())
}
