package analytics

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/compliance"
)

const (
	chartWidth  = "960px"
	chartHeight = "420px"
)

func newBar(title, subtitle string) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
	)
	return bar
}

// BoardChart renders the monthly group of a compliance board as an HTML
// bar chart: delivered and missing kinds per base.
func BoardChart(w io.Writer, board compliance.Board) error {
	x := make([]string, 0, len(board.Bases))
	delivered := make([]opts.BarData, 0, len(board.Bases))
	missing := make([]opts.BarData, 0, len(board.Bases))
	for _, b := range board.Bases {
		x = append(x, b.Base.Name)
		delivered = append(delivered, opts.BarData{Value: b.Monthly.CompliantCount})
		missing = append(missing, opts.BarData{Value: len(b.Monthly.MissingKinds)})
	}

	subtitle := fmt.Sprintf("Hoje %s", board.Today.BR())
	if board.MonthClosed {
		subtitle += " (mês fechado)"
	}
	bar := newBar(fmt.Sprintf("Aderência mensal %s", board.Month), subtitle)
	bar.SetXAxis(x).
		AddSeries("Entregues", delivered, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"})).
		AddSeries("Faltantes", missing, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))

	page := components.NewPage()
	page.PageTitle = "Aderência"
	page.AddCharts(bar)
	return page.Render(w)
}

// ReportChart renders the volume series of r plus the series specific to
// its kind.
func ReportChart(w io.Writer, r Report) error {
	page := components.NewPage()
	page.PageTitle = r.DisplayName
	page.AddCharts(pointsBar(r.DisplayName, "Registros por mês", "Registros", r.Volume))

	switch {
	case r.Drill != nil:
		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
			charts.WithTitleOpts(opts.Title{Title: "Tempo médio (s)"}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		)
		x, data := make([]string, 0, len(r.Drill.MonthlyMean)), make([]opts.LineData, 0, len(r.Drill.MonthlyMean))
		for _, p := range r.Drill.MonthlyMean {
			x = append(x, p.Label)
			data = append(data, opts.LineData{Value: p.Value})
		}
		line.SetXAxis(x).AddSeries("Média", data)
		page.AddCharts(line, pointsBar("Tempo médio por equipe (s)", "", "Média", r.Drill.TeamMean))
	case r.Occurrences != nil:
		page.AddCharts(pointsBar("Ocorrências por local", "", "Ocorrências", r.Occurrences.ByLocation))
		if len(r.Occurrences.TopTypes) > 0 {
			page.AddCharts(pointsBar("Tipos mais frequentes", "", "Ocorrências", r.Occurrences.TopTypes))
		}
	case r.Training != nil:
		page.AddCharts(pointsBar("Horas de treinamento", "", "Horas", r.Training.Monthly))
	case r.Stock != nil:
		points := make([]Point, 0, len(r.Stock.Agents))
		for _, a := range r.Stock.Agents {
			points = append(points, Point{Label: a.Agent, Value: a.MeanCoverage})
		}
		page.AddCharts(pointsBar("Cobertura média (%)", "", "Cobertura", points))
	}
	return page.Render(w)
}

func pointsBar(title, subtitle, series string, points []Point) *charts.Bar {
	x := make([]string, 0, len(points))
	data := make([]opts.BarData, 0, len(points))
	for _, p := range points {
		x = append(x, p.Label)
		data = append(data, opts.BarData{Value: p.Value})
	}
	bar := newBar(title, subtitle)
	bar.SetXAxis(x).AddSeries(series, data)
	return bar
}
