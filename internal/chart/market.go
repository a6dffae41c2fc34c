// Package chart renders generated market data as standalone HTML charts.
package chart

import (
	"fmt"
	"io"

	"apilab/internal/report"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/shopspring/decimal"
)

const (
	colorBackground    = "#0f172a"
	colorTextPrimary   = "#eceff4"
	colorTextSecondary = "#9ca3af"
	colorDefaultBar    = "#3b82f6"
)

// categoryPalette colours bars that carry a category, in first-seen order.
var categoryPalette = []string{"#34d399", "#fbbf24", "#f472b6", "#a78bfa", "#22d3ee", "#fb7185"}

// Stats summarises a data set with exact decimal arithmetic.
type Stats struct {
	Total    decimal.Decimal
	Top      report.ChartDataPoint
	TopShare decimal.Decimal // percent of Total, one decimal place
}

func Summarize(data []report.ChartDataPoint) Stats {
	var st Stats
	if len(data) == 0 {
		return st
	}
	top := decimal.NewFromFloat(data[0].Value)
	st.Top = data[0]
	for _, p := range data {
		v := decimal.NewFromFloat(p.Value)
		st.Total = st.Total.Add(v)
		if v.GreaterThan(top) {
			top = v
			st.Top = p
		}
	}
	if !st.Total.IsZero() {
		st.TopShare = top.Div(st.Total).Mul(decimal.NewFromInt(100)).Round(1)
	}
	return st
}

func (s Stats) Subtitle() string {
	if s.Top.Name == "" {
		return "no data"
	}
	return fmt.Sprintf("total %s · top %s (%s%%)", s.Total.String(), s.Top.Name, s.TopShare.StringFixed(1))
}

// RenderMarket writes an HTML page with one bar per data point.
func RenderMarket(w io.Writer, data report.MarketData, title string) error {
	if title == "" {
		title = "Market Trends"
	}
	st := Summarize(data.Data)
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:       title,
			Theme:           types.ThemeWesteros,
			Width:           "960px",
			Height:          "480px",
			BackgroundColor: colorBackground,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:         title,
			Subtitle:      st.Subtitle(),
			TitleStyle:    &opts.TextStyle{Color: colorTextPrimary, FontSize: 18},
			SubtitleStyle: &opts.TextStyle{Color: colorTextSecondary},
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithXAxisOpts(opts.XAxis{AxisLabel: &opts.AxisLabel{Color: colorTextSecondary}}),
		charts.WithYAxisOpts(opts.YAxis{
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
			SplitLine: &opts.SplitLine{Show: opts.Bool(true), LineStyle: &opts.LineStyle{Color: colorTextSecondary, Opacity: opts.Float(0.15)}},
		}),
	)

	names := make([]string, len(data.Data))
	values := make([]opts.BarData, len(data.Data))
	colors := make(map[string]string)
	for i, p := range data.Data {
		names[i] = p.Name
		color := colorDefaultBar
		if p.Category != "" {
			c, ok := colors[p.Category]
			if !ok {
				c = categoryPalette[len(colors)%len(categoryPalette)]
				colors[p.Category] = c
			}
			color = c
		}
		values[i] = opts.BarData{
			Name:      p.Name,
			Value:     p.Value,
			ItemStyle: &opts.ItemStyle{Color: color},
		}
	}
	bar.SetXAxis(names).AddSeries("value", values)
	if err := bar.Render(w); err != nil {
		return fmt.Errorf("render market chart: %w", err)
	}
	return nil
}
