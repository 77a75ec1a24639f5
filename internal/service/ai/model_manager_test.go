package ai

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/kapu/dmmymp-go/internal/util"
	"github.com/openai/openai-go/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeProvider struct {
	name  string
	text  string
	err   error
	calls int
	last  Request
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Generate(_ context.Context, req Request) (ProviderResult, error) {
	f.calls++
	f.last = req
	if f.err != nil {
		return ProviderResult{}, f.err
	}
	return ProviderResult{Text: f.text, Model: f.name + "-model"}, nil
}

func TestGeneratePrimary(t *testing.T) {
	primary := &fakeProvider{name: "Mistral", text: "Dear Jane Smith MP."}
	fallback := &fakeProvider{name: "Gemini", text: "unused"}
	mm := NewModelManagerWithProviders(primary, fallback, zap.NewNop())

	res, err := mm.Generate(context.Background(), Request{System: "sys", Prompt: "hello", MaxTokens: 10})
	require.NoError(t, err)
	assert.Equal(t, "Dear Jane Smith MP.", res.Text)
	assert.Equal(t, "Mistral", res.Provider)
	assert.False(t, res.UsedFallback)
	assert.Equal(t, 0, fallback.calls)
	assert.Equal(t, "sys", primary.last.System)
}

func TestGenerateFallsBack(t *testing.T) {
	primary := &fakeProvider{name: "Mistral", err: stderrors.New("503 Service Unavailable")}
	fallback := &fakeProvider{name: "Gemini", text: "fallback text."}
	mm := NewModelManagerWithProviders(primary, fallback, zap.NewNop())

	res, err := mm.Generate(context.Background(), Request{Prompt: "hello"})
	require.NoError(t, err)
	assert.True(t, res.UsedFallback)
	assert.Equal(t, "Gemini", res.Provider)
}

func TestGenerateBothFail(t *testing.T) {
	primary := &fakeProvider{name: "Mistral", err: stderrors.New("500 internal")}
	fallback := &fakeProvider{name: "Gemini", err: stderrors.New("429 quota exhausted")}
	mm := NewModelManagerWithProviders(primary, fallback, zap.NewNop())

	_, err := mm.Generate(context.Background(), Request{Prompt: "hello"})
	require.Error(t, err)
	assert.True(t, IsRateLimited(err))
}

func TestGenerateCircuitOpens(t *testing.T) {
	primary := &fakeProvider{name: "Mistral", err: stderrors.New("502 bad gateway")}
	mm := NewModelManagerWithProviders(primary, nil, zap.NewNop())

	for i := 0; i < 3; i++ {
		_, err := mm.Generate(context.Background(), Request{Prompt: "x"})
		require.Error(t, err)
	}
	_, err := mm.Generate(context.Background(), Request{Prompt: "x"})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 3, primary.calls)

	mm.ResetCircuit()
	_, err = mm.Generate(context.Background(), Request{Prompt: "x"})
	assert.NotErrorIs(t, err, ErrUnavailable)
}

func TestNonTransientFailureReleasesHalfOpenProbe(t *testing.T) {
	primary := &fakeProvider{name: "Mistral", err: stderrors.New("400 invalid request")}
	mm := NewModelManagerWithProviders(primary, nil, zap.NewNop())
	mm.circuitBreaker = util.NewCircuitBreaker("ai", 1, time.Millisecond, zap.NewNop())
	mm.circuitBreaker.RecordFailure(0)
	time.Sleep(5 * time.Millisecond)

	_, err := mm.Generate(context.Background(), Request{Prompt: "x"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnavailable)

	primary.err = nil
	primary.text = "ok."
	res, err := mm.Generate(context.Background(), Request{Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, "ok.", res.Text)
}

func TestGenerateNotConfigured(t *testing.T) {
	mm := NewModelManagerWithProviders(nil, nil, zap.NewNop())
	assert.False(t, mm.Enabled())
	_, err := mm.Generate(context.Background(), Request{Prompt: "x"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestErrorClassification(t *testing.T) {
	assert.True(t, IsRateLimited(&openai.Error{StatusCode: 429}))
	assert.False(t, IsRateLimited(&openai.Error{StatusCode: 400}))
	assert.True(t, IsTransient(&openai.Error{StatusCode: 503}))
	assert.False(t, IsTransient(&openai.Error{StatusCode: 401}))

	assert.True(t, IsRateLimited(stderrors.New(`{"error":{"code":429,"message":"Resource exhausted"}}`)))
	assert.True(t, IsRateLimited(stderrors.New("Rate limit exceeded")))
	assert.True(t, IsTransient(context.DeadlineExceeded))
	assert.False(t, IsTransient(context.Canceled))
	assert.False(t, IsTransient(stderrors.New("dial tcp 10.0.0.1:443: connection refused")))
	assert.False(t, IsRateLimited(nil))
}
