package rankingservice

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	rankingdb "github.com/moto-league/ranking-engine/app/modules/ranking/infrastructure/repositories"
)

// ChartPalette holds the colors used when rendering standings charts.
type ChartPalette struct {
	Background drawing.Color
	BarFill    drawing.Color
	BarStroke  drawing.Color
	TextColor  drawing.Color
}

// DefaultChartPalette is a dark theme matching the club web styling.
func DefaultChartPalette() ChartPalette {
	return ChartPalette{
		Background: drawing.Color{R: 0x1b, G: 0x1f, B: 0x23, A: 0xff},
		BarFill:    drawing.Color{R: 0x2e, G: 0x7d, B: 0x32, A: 0xff},
		BarStroke:  drawing.Color{R: 0xc9, G: 0xa2, B: 0x27, A: 0xff},
		TextColor:  drawing.Color{R: 0xe8, G: 0xe8, B: 0xe8, A: 0xff},
	}
}

const maxChartBars = 20

// GenerateStandingsChart produces a PNG bar chart of the page's standings,
// total points per member, highest first. At most the top twenty rows are
// drawn so labels stay legible.
func (s *RankingService) GenerateStandingsChart(rows []rankingdb.RankingSnapshot, title string) ([]byte, error) {
	palette := DefaultChartPalette()
	if len(rows) == 0 {
		return renderNoDataPlaceholder(palette)
	}

	if len(rows) > maxChartBars {
		rows = rows[:maxChartBars]
	}

	bars := make([]chart.Value, len(rows))
	for i, row := range rows {
		label := fmt.Sprintf("#%d", row.MemberID)
		if row.Rank != nil {
			label = fmt.Sprintf("%d. #%d", *row.Rank, row.MemberID)
		}
		bars[i] = chart.Value{
			Label: label,
			Value: float64(row.TotalPoints),
			Style: chart.Style{
				FillColor:   palette.BarFill,
				StrokeColor: palette.BarStroke,
				StrokeWidth: 1,
			},
		}
	}

	graph := chart.BarChart{
		Title:  title,
		Width:  1000,
		Height: 500,
		Background: chart.Style{
			FillColor: palette.Background,
		},
		Canvas: chart.Style{
			FillColor: palette.Background,
		},
		TitleStyle: chart.Style{
			FontColor: palette.TextColor,
		},
		XAxis: chart.Style{
			FontColor: palette.TextColor,
		},
		YAxis: chart.YAxis{
			Name: "Points",
			Style: chart.Style{
				FontColor: palette.TextColor,
			},
		},
		BarWidth: 30,
		Bars:     bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func renderNoDataPlaceholder(palette ChartPalette) ([]byte, error) {
	const (
		width  = 400
		height = 200
		msg    = "No standings for this scope"
	)

	graph := chart.Chart{
		Width:  width,
		Height: height,
		Background: chart.Style{
			FillColor: palette.Background,
		},
		Canvas: chart.Style{
			FillColor: palette.Background,
		},
		Elements: []chart.Renderable{
			func(r chart.Renderer, cb chart.Box, chartDefaults chart.Style) {
				r.SetFontColor(palette.TextColor)
				r.SetFontSize(12.0)
				tb := r.MeasureText(msg)
				x := (cb.Width() - tb.Width()) / 2
				y := (cb.Height() + tb.Height()) / 2
				r.Text(msg, x, y)
			},
		},
	}
	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
