package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/garage.gate/internal/config"
	"github.com/banshee-data/garage.gate/internal/db"
	"github.com/banshee-data/garage.gate/internal/garage"
	"github.com/banshee-data/garage.gate/internal/httputil"
	"github.com/banshee-data/garage.gate/internal/monitoring"
	"github.com/banshee-data/garage.gate/internal/timeutil"
)

var logf = monitoring.Component("api")

// ANSI escape codes for the request log.
const (
	colorCyan      = "\033[36m"
	colorReset     = "\033[0m"
	colorYellow    = "\033[33m"
	colorBoldGreen = "\033[1;32m"
	colorBoldRed   = "\033[1;31m"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 1000
	defaultHours      = 24.0
	maxHours          = 24.0 * 31
)

// Server exposes the controller's status and journal over HTTP. It only
// reads: the control loop is the sole writer of the counter.
type Server struct {
	board *garage.StatusBoard
	db    *db.DB // nil when the journal is disabled
	cfg   *config.GarageConfig
	clock timeutil.Clock
}

func NewServer(board *garage.StatusBoard, database *db.DB, cfg *config.GarageConfig) *Server {
	if cfg == nil {
		cfg = config.EmptyGarageConfig()
	}
	return &Server{
		board: board,
		db:    database,
		cfg:   cfg,
		clock: timeutil.RealClock{},
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

// ServeMux returns a mux with every API route registered.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	s.Register(mux)
	return mux
}

// Register adds the API routes to an existing mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/status", s.getOnly(s.showStatus))
	mux.HandleFunc("/api/events", s.getOnly(s.listEvents))
	mux.HandleFunc("/api/runs", s.getOnly(s.listRuns))
	mux.HandleFunc("/api/occupancy", s.getOnly(s.showOccupancy))
	mux.HandleFunc("/api/occupancy.png", s.getOnly(s.plotOccupancy))
	mux.HandleFunc("/api/config", s.getOnly(s.showConfig))
}

func (s *Server) getOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			httputil.MethodNotAllowed(w, http.MethodGet, http.MethodHead)
			return
		}
		h(w, r)
	}
}

func (s *Server) showStatus(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, s.board.Snapshot())
}

// journal reports whether the journal is available, writing a 503 if not.
func (s *Server) journal(w http.ResponseWriter) bool {
	if s.db == nil {
		httputil.ServiceUnavailable(w, "event journal is disabled")
		return false
	}
	return true
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	if !s.journal(w) {
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	events, err := s.db.RecentEvents(limit)
	if err != nil {
		httputil.InternalServerError(w, "failed to retrieve events: "+err.Error())
		return
	}
	if events == nil {
		events = []db.GateEvent{}
	}
	httputil.WriteJSONOK(w, events)
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if !s.journal(w) {
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	runs, err := s.db.Runs(limit)
	if err != nil {
		httputil.InternalServerError(w, "failed to retrieve runs: "+err.Error())
		return
	}
	if runs == nil {
		runs = []db.Run{}
	}
	httputil.WriteJSONOK(w, runs)
}

func (s *Server) showOccupancy(w http.ResponseWriter, r *http.Request) {
	if !s.journal(w) {
		return
	}
	from, to, err := s.window(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	sum, err := s.db.Occupancy(from, to)
	if err != nil {
		httputil.InternalServerError(w, "failed to summarise occupancy: "+err.Error())
		return
	}
	httputil.WriteJSONOK(w, sum)
}

// showConfig reports the effective settings, defaults filled in.
func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	c := s.cfg
	httputil.WriteJSONOK(w, map[string]interface{}{
		"total_spaces":          c.GetTotalSpaces(),
		"poll_interval":         c.GetPollInterval().String(),
		"gate_hold":             c.GetGateHold().String(),
		"entrance_sensor_pin":   c.GetEntranceSensorPin(),
		"exit_sensor_pin":       c.GetExitSensorPin(),
		"entrance_gate_channel": c.GetEntranceGateChannel(),
		"exit_gate_channel":     c.GetExitGateChannel(),
		"open_angle":            c.GetOpenAngle(),
		"closed_angle":          c.GetClosedAngle(),
		"display":               c.GetDisplay(),
		"read_retries":          c.GetReadRetries(),
		"journal":               s.db != nil,
	})
}

func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultEventLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > maxEventLimit {
		return 0, errBadParam("limit", raw, "an integer between 1 and 1000")
	}
	return n, nil
}

// window resolves ?hours= into a [from, to] interval ending now.
func (s *Server) window(r *http.Request) (from, to time.Time, err error) {
	hours := defaultHours
	if raw := r.URL.Query().Get("hours"); raw != "" {
		hours, err = strconv.ParseFloat(raw, 64)
		if err != nil || hours <= 0 || hours > maxHours {
			return time.Time{}, time.Time{}, errBadParam("hours", raw, "a number of hours between 0 and 744")
		}
	}
	to = s.clock.Now()
	from = to.Add(-time.Duration(hours * float64(time.Hour)))
	return from, to, nil
}

type paramError struct {
	name, value, want string
}

func errBadParam(name, value, want string) error {
	return &paramError{name: name, value: value, want: want}
}

func (e *paramError) Error() string {
	return "invalid " + e.name + " " + strconv.Quote(e.value) + ": want " + e.want
}
