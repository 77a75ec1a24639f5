package recaptcha

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSiteverify(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "shh", r.PostForm.Get("secret"))
		switch r.PostForm.Get("response") {
		case "good":
			_, _ = w.Write([]byte(`{"success":true,"score":0.9}`))
		case "bot":
			_, _ = w.Write([]byte(`{"success":true,"score":0.2}`))
		default:
			_, _ = w.Write([]byte(`{"success":false,"error-codes":["invalid-input-response"]}`))
		}
	}))
}

func TestVerify(t *testing.T) {
	srv := newSiteverify(t)
	defer srv.Close()

	v := NewVerifier(srv.Client(), srv.URL, "shh", 0.5, zap.NewNop())
	require.True(t, v.Enabled())

	assert.NoError(t, v.Verify(context.Background(), "good", "1.2.3.4"))
	assert.ErrorIs(t, v.Verify(context.Background(), "bot", ""), ErrVerificationFailed)
	assert.ErrorIs(t, v.Verify(context.Background(), "forged", ""), ErrVerificationFailed)
	assert.ErrorIs(t, v.Verify(context.Background(), "", ""), ErrMissingToken)
}

func TestVerifyDisabledWithoutSecret(t *testing.T) {
	v := NewVerifier(http.DefaultClient, "http://unused.invalid", "", 0.5, zap.NewNop())
	assert.False(t, v.Enabled())
	assert.NoError(t, v.Verify(context.Background(), "", ""))
}
