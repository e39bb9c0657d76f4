package api

import (
	"bytes"
	"fmt"
	"image/color"
	"net/http"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"tailscale.com/tsweb"

	"github.com/banshee-data/garage.gate/internal/db"
	"github.com/banshee-data/garage.gate/internal/httputil"
)

// AttachDebugRoutes adds the interactive occupancy chart to the tsweb debug
// index.
func (s *Server) AttachDebugRoutes(debug *tsweb.DebugHandler) {
	debug.Handle("occupancy", "Occupancy over the last day (echarts)", http.HandlerFunc(s.occupancyChart))
}

// occupancySeries loads the step series for the request window and closes
// it with a point at the window end so the last level is drawn.
func (s *Server) occupancySeries(w http.ResponseWriter, r *http.Request) ([]db.OccupancyPoint, bool) {
	if !s.journal(w) {
		return nil, false
	}
	from, to, err := s.window(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return nil, false
	}
	series, err := s.db.OccupancySeries(from, to)
	if err != nil {
		httputil.InternalServerError(w, "failed to load occupancy: "+err.Error())
		return nil, false
	}
	if len(series) == 0 {
		httputil.WriteJSONError(w, http.StatusNotFound, "no events in window")
		return nil, false
	}
	last := series[len(series)-1]
	series = append(series, db.OccupancyPoint{At: to, Occupied: last.Occupied, Free: last.Free})
	return series, true
}

// yFloor is the bottom of the occupancy axis: zero, or lower when exits past
// capacity have pushed occupancy negative.
func yFloor(series []db.OccupancyPoint) int {
	low := 0
	for _, p := range series {
		low = min(low, p.Occupied)
	}
	return low
}

func (s *Server) plotOccupancy(w http.ResponseWriter, r *http.Request) {
	series, ok := s.occupancySeries(w, r)
	if !ok {
		return
	}

	p := plot.New()
	p.Title.Text = "Garage occupancy"
	p.X.Label.Text = "Time (UTC)"
	p.Y.Label.Text = "Occupied spaces"
	p.X.Tick.Marker = plot.TimeTicks{Format: "Jan 2\n15:04"}
	p.Y.Min = float64(yFloor(series))
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(series))
	for i, pt := range series {
		pts[i] = plotter.XY{X: float64(pt.At.Unix()), Y: float64(pt.Occupied)}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to build plot: %v", err))
		return
	}
	line.StepStyle = plotter.PostStep
	line.Width = vg.Points(1)
	line.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	p.Add(line)

	if total := s.cfg.GetTotalSpaces(); total > 0 {
		capPts := plotter.XYs{
			{X: pts[0].X, Y: float64(total)},
			{X: pts[len(pts)-1].X, Y: float64(total)},
		}
		capLine, err := plotter.NewLine(capPts)
		if err == nil {
			capLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
			capLine.Color = color.RGBA{R: 214, G: 39, B: 40, A: 255}
			p.Add(capLine)
			p.Legend.Add("capacity", capLine)
		}
	}
	p.Legend.Add("occupied", line)

	wt, err := p.WriterTo(8*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render plot: %v", err))
		return
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to encode plot: %v", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) occupancyChart(w http.ResponseWriter, r *http.Request) {
	series, ok := s.occupancySeries(w, r)
	if !ok {
		return
	}

	x := make([]string, len(series))
	occupied := make([]opts.LineData, len(series))
	free := make([]opts.LineData, len(series))
	for i, pt := range series {
		x[i] = pt.At.UTC().Format(time.RFC3339)
		occupied[i] = opts.LineData{Value: pt.Occupied}
		free[i] = opts.LineData{Value: pt.Free}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Garage occupancy", Width: "100%", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Garage occupancy", Subtitle: fmt.Sprintf("%d events, capacity %d", len(series)-1, s.cfg.GetTotalSpaces())}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Spaces", Min: yFloor(series)}),
	)
	line.SetXAxis(x).
		AddSeries("occupied", occupied).
		AddSeries("free", free)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
