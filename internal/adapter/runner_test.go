package adapter

import (
	"context"
	"testing"

	"apilab/internal/apperr"
	"apilab/internal/catalog"
	"apilab/internal/gateway/provider"
	"apilab/internal/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func builtinCard(t *testing.T, id string) catalog.Card {
	t.Helper()
	r, err := catalog.NewRegistry("")
	require.NoError(t, err)
	c, ok := r.Card(id)
	require.True(t, ok, id)
	return c
}

func TestRunnerAppliesCardTemplate(t *testing.T) {
	m := new(MockModelProvider)
	m.On("Call", mock.Anything, mock.MatchedBy(func(req provider.Request) bool {
		return req.Text == "Act as the Cloud Translation API. Process the following input and return a realistic response typical of this API (e.g., JSON analysis, report, or status):\n\nInput: \"Translate to Spanish: Hello\""
	})).Return(reply("Hola"), nil).Once()

	run, err := New(m, Models{}).Runner(builtinCard(t, "translate"))
	require.NoError(t, err)
	out, err := run(context.Background(), "Hello")
	require.NoError(t, err)
	assert.Equal(t, Outcome{Text: "Hola"}, out)
	m.AssertExpectations(t)
}

func TestRunnerRejectsBlankBeforeTemplate(t *testing.T) {
	m := new(MockModelProvider)
	run, err := New(m, Models{}).Runner(builtinCard(t, "translate"))
	require.NoError(t, err)
	_, err = run(context.Background(), "   ")
	assert.ErrorIs(t, err, apperr.ErrEmptyInput)
	m.AssertNotCalled(t, "Call", mock.Anything, mock.Anything)
}

func TestRunnerStructuredOutcome(t *testing.T) {
	m := new(MockModelProvider)
	m.On("Call", mock.Anything, purpose("site_audit")).Return(reply(exampleAudit), nil)
	m.On("Call", mock.Anything, purpose("market")).Return(reply(`{"summary":"flat","data":[]}`), nil)
	a := New(m, Models{})

	run, err := a.Runner(builtinCard(t, "site-audit"))
	require.NoError(t, err)
	out, err := run(context.Background(), "https://example.com")
	require.NoError(t, err)
	rep, ok := out.Result.(report.SiteReport)
	require.True(t, ok)
	assert.Equal(t, float64(72), rep.OverallScore)
	assert.Contains(t, out.Text, `"overallScore": 72`)

	run, err = a.Runner(builtinCard(t, "market"))
	require.NoError(t, err)
	out, err = run(context.Background(), "EV")
	require.NoError(t, err)
	assert.Equal(t, "flat", out.Text)
	assert.IsType(t, report.MarketData{}, out.Result)
}

func TestRunnerVisionKeepsRawInput(t *testing.T) {
	m := new(MockModelProvider)
	m.On("Call", mock.Anything, mock.MatchedBy(func(req provider.Request) bool {
		return req.Text == "Analyze this image." && len(req.Images) == 1
	})).Return(reply("A dog."), nil).Once()

	run, err := New(m, Models{}).Runner(builtinCard(t, "vision"))
	require.NoError(t, err)
	out, err := run(context.Background(), "data:image/gif;base64,R0lGOA==")
	require.NoError(t, err)
	assert.Equal(t, "A dog.", out.Text)
}

func TestRunnerCoversEveryBuiltinCard(t *testing.T) {
	r, err := catalog.NewRegistry("")
	require.NoError(t, err)
	a := New(new(MockModelProvider), Models{})
	for _, c := range r.Snapshot().Cards {
		_, err := a.Runner(c)
		assert.NoError(t, err, c.ID)
	}

	_, err = a.Runner(catalog.Card{ID: "x", Kind: catalog.Kind("teleport")})
	assert.Error(t, err)
}
