// Package render draws leaderboard images. Each board is two bar charts, top
// gifters on the left and top likers on the right, stitched into one PNG.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/creatorsconnections/liveboard/internal/render"
)

const (
	columnWidth  = 640
	columnHeight = 512
	maxBars      = 10
	maxLabelLen  = 14
)

type ChartRenderer struct{}

func NewChartRenderer() render.Renderer {
	return &ChartRenderer{}
}

func (r *ChartRenderer) Render(gifters, likers []render.Row) ([]byte, error) {
	left, err := renderColumn("Top Gifters", gifters)
	if err != nil {
		return nil, fmt.Errorf("failed to render gifter column: %w", err)
	}
	right, err := renderColumn("Top Likers", likers)
	if err != nil {
		return nil, fmt.Errorf("failed to render liker column: %w", err)
	}
	return stitch(left, right)
}

func renderColumn(title string, rows []render.Row) (image.Image, error) {
	graph := chart.BarChart{
		Title:    title,
		Height:   columnHeight,
		Width:    columnWidth,
		BarWidth: 48,
		Bars:     columnBars(rows),
	}
	if len(rows) == 0 {
		graph.YAxis.Range = &chart.ContinuousRange{Min: 0, Max: 1}
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return png.Decode(&buf)
}

func columnBars(rows []render.Row) []chart.Value {
	if len(rows) == 0 {
		return []chart.Value{{Value: 0, Label: "no entries"}}
	}
	if len(rows) > maxBars {
		rows = rows[:maxBars]
	}
	bars := make([]chart.Value, 0, len(rows))
	for _, row := range rows {
		bars = append(bars, chart.Value{
			Value: float64(row.Score),
			Label: shortenLabel(row.Name),
		})
	}
	return bars
}

func shortenLabel(name string) string {
	runes := []rune(name)
	if len(runes) <= maxLabelLen {
		return name
	}
	return string(runes[:maxLabelLen-1]) + "…"
}

func stitch(left, right image.Image) ([]byte, error) {
	lb, rb := left.Bounds(), right.Bounds()
	height := lb.Dy()
	if rb.Dy() > height {
		height = rb.Dy()
	}
	canvas := image.NewRGBA(image.Rect(0, 0, lb.Dx()+rb.Dx(), height))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(canvas, image.Rect(0, 0, lb.Dx(), lb.Dy()), left, lb.Min, draw.Src)
	draw.Draw(canvas, image.Rect(lb.Dx(), 0, lb.Dx()+rb.Dx(), rb.Dy()), right, rb.Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("failed to encode board image: %w", err)
	}
	return buf.Bytes(), nil
}
