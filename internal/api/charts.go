package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/valve.report/internal/store"
)

// showMeasurementChart renders a quick scatter (HTML) of stored pitch/roll
// pairs using go-echarts. This is a debugging-only endpoint (no auth) to
// eyeball measurement spread without the operator UI.
// Query params:
//   - container_id (optional) to narrow to one container
//   - max_points (optional; default 500)
func (s *Server) showMeasurementChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	filter := store.MeasurementFilter{}
	if c := r.URL.Query().Get("container_id"); c != "" {
		id, err := strconv.ParseInt(c, 10, 64)
		if err != nil || id < 1 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'container_id' parameter")
			return
		}
		filter.ContainerID = id
	}

	maxPoints := 500
	if mp := r.URL.Query().Get("max_points"); mp != "" {
		if v, err := strconv.Atoi(mp); err == nil && v > 10 && v <= 5000 {
			maxPoints = v
		}
	}

	items, _, err := s.store.ListMeasurements(filter, 1, maxPoints)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to list measurements: %v", err))
		return
	}
	if len(items) == 0 {
		s.writeJSONError(w, http.StatusNotFound, "no measurements to chart")
		return
	}

	data := make([]opts.ScatterData, 0, len(items))
	for _, m := range items {
		score := 0.0
		if m.QualityScore != nil {
			score = *m.QualityScore
		}
		data = append(data, opts.ScatterData{Value: []interface{}{m.PitchDeg, m.RollDeg, score}})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Valve Orientation Spread", Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: "Pitch/Roll Spread", Subtitle: fmt.Sprintf("points=%d", len(data))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Pitch (deg)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Roll (deg)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        1,
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: []string{"#440154", "#31688e", "#35b779", "#fde725"}},
		}),
	)
	scatter.AddSeries("measurements", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
