// Package chart renders ledger history into progress charts. It is pure
// presentation over the data the ledger store maintains.
package chart

import (
	"bytes"
	"errors"
	"sort"
	"time"

	"github.com/wcharczuk/go-chart/v2"

	"nutricoach/ledger"
)

// ErrNoData signals there is nothing to plot; callers send a text message
// instead of an image.
var ErrNoData = errors.New("no data to plot")

// Renderer draws water and calorie progress charts as PNGs.
type Renderer struct{}

// NewRenderer creates a chart renderer.
func NewRenderer() Renderer { return Renderer{} }

// WaterProgress plots cumulative water intake over time with a dashed goal
// line.
func (Renderer) WaterProgress(h ledger.History) ([]byte, error) {
	if len(h.Water) == 0 {
		return nil, ErrNoData
	}

	times := make([]time.Time, 0, len(h.Water))
	values := make([]float64, 0, len(h.Water))
	var total float64
	for _, ev := range h.Water {
		total += ev.AmountMl
		times = append(times, ev.At)
		values = append(values, total)
	}

	return render("Water progress", "mL", times, values, "Logged", h.WaterGoalMl, "Water goal")
}

// CalorieBalance plots net calories (food positive, workouts negative) over
// time with a dashed calorie-goal line.
func (Renderer) CalorieBalance(h ledger.History) ([]byte, error) {
	if len(h.Food) == 0 && len(h.Workouts) == 0 {
		return nil, ErrNoData
	}

	type delta struct {
		at   time.Time
		kcal float64
	}
	deltas := make([]delta, 0, len(h.Food)+len(h.Workouts))
	for _, ev := range h.Food {
		deltas = append(deltas, delta{at: ev.At, kcal: ev.Kcal})
	}
	for _, ev := range h.Workouts {
		deltas = append(deltas, delta{at: ev.At, kcal: -ev.KcalBurned})
	}
	sort.SliceStable(deltas, func(i, j int) bool { return deltas[i].at.Before(deltas[j].at) })

	times := make([]time.Time, 0, len(deltas))
	values := make([]float64, 0, len(deltas))
	var net float64
	for _, d := range deltas {
		net += d.kcal
		times = append(times, d.at)
		values = append(values, net)
	}

	return render("Calorie balance", "kcal", times, values, "Net calories", h.CalorieGoalKcal, "Calorie goal")
}

func render(title, yAxis string, times []time.Time, values []float64, seriesName string, goal float64, goalName string) ([]byte, error) {
	// The plotting library needs at least two distinct x-values; anchor a
	// zero point just before the first event so single-entry histories render.
	if len(times) == 1 {
		times = append([]time.Time{times[0].Add(-time.Minute)}, times...)
		values = append([]float64{0}, values...)
	}

	goalValues := make([]float64, len(times))
	for i := range goalValues {
		goalValues[i] = goal
	}

	graph := chart.Chart{
		Title: title,
		XAxis: chart.XAxis{Name: "Time"},
		YAxis: chart.YAxis{Name: yAxis},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    seriesName,
				XValues: times,
				YValues: values,
			},
			chart.TimeSeries{
				Name:    goalName,
				XValues: times,
				YValues: goalValues,
				Style: chart.Style{
					StrokeDashArray: []float64{5.0, 5.0},
				},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	buf := bytes.NewBuffer(nil)
	if err := graph.Render(chart.PNG, buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
