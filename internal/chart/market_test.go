package chart

import (
	"bytes"
	"testing"

	"apilab/internal/report"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	st := Summarize([]report.ChartDataPoint{
		{Name: "Q1", Value: 0.1},
		{Name: "Q2", Value: 0.2},
		{Name: "Q2", Value: 0.2},
	})
	assert.True(t, st.Total.Equal(decimal.RequireFromString("0.5")), st.Total.String())
	assert.Equal(t, "Q2", st.Top.Name)
	assert.Equal(t, "40.0", st.TopShare.StringFixed(1))
	assert.Equal(t, "total 0.5 · top Q2 (40.0%)", st.Subtitle())
}

func TestSummarizeEmptyAndZero(t *testing.T) {
	assert.Equal(t, "no data", Summarize(nil).Subtitle())

	st := Summarize([]report.ChartDataPoint{{Name: "a", Value: 0}})
	assert.True(t, st.TopShare.IsZero())
}

func TestRenderMarket(t *testing.T) {
	var buf bytes.Buffer
	err := RenderMarket(&buf, report.MarketData{
		Summary: "growing",
		Data: []report.ChartDataPoint{
			{Name: "Jan", Value: 10, Category: "ads"},
			{Name: "Feb", Value: 30},
		},
	}, "EV sales")
	require.NoError(t, err)
	html := buf.String()
	assert.Contains(t, html, "EV sales")
	assert.Contains(t, html, "echarts")
	assert.Contains(t, html, "Jan")
	assert.Contains(t, html, "#34d399")
}
