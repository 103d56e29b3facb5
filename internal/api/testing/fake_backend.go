// Package testing provides an in-process monitoring API for tests.
package testing

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ziris-labs/ziris/internal/sensor"
)

// FakeBackend serves the monitoring REST API and notification websocket
// from memory. It succeeds by default; use the setters to shape responses
// and the failure helpers to inject HTTP errors.
type FakeBackend struct {
	Server *httptest.Server

	mu sync.Mutex

	// Configuration
	token       string // if set, requests must carry this bearer token
	summary     sensor.Summary
	summaryFunc func(call int) sensor.Summary
	recs        []sensor.Recommendation
	metrics     sensor.ModelMetrics
	thresholds  sensor.Thresholds
	suggestion  map[string]any
	failures    map[string]int
	delays      map[string][]time.Duration
	jobs        map[string]*sensor.Job
	finishAs    sensor.JobStatus
	finishErr   string

	// Call tracking
	calls     map[string]int
	rules     []string
	saved     []sensor.Thresholds
	seeded    int
	retrained int

	// Push
	upgrader websocket.Upgrader
	conns    map[*websocket.Conn]struct{}
}

// NewFakeBackend starts a fake backend populated with one zone.
func NewFakeBackend() *FakeBackend {
	f := &FakeBackend{
		summary: sensor.Summary{
			TotalSensors: 10,
			Anomalies:    1,
			Zones: map[string]sensor.ZoneStats{
				"Zone A": {Total: 10, Anomalies: 1, Temp: 70, Pressure: 7, Vibration: 10, Smoke: 150},
			},
			LastUpdate: "2024-05-01T10:00:00",
		},
		recs: []sensor.Recommendation{{
			ID: 1, Zone: "Zone A", RiskArea: "temp", Priority: sensor.PriorityNormal,
			Recommendation: "Inspect cooling", Reasons: []string{"temp above mean"},
		}},
		metrics:    sensor.ModelMetrics{Accuracy: 0.9, MSE: 0.05, Prediction: []float64{0, 0, 0, 0}},
		thresholds: sensor.DefaultThresholds(),
		suggestion: map[string]any{"temp": 45.2, "press": 9.0, "vib": 20.0, "fumee": 210.0},
		failures:   make(map[string]int),
		delays:     make(map[string][]time.Duration),
		jobs:       make(map[string]*sensor.Job),
		calls:      make(map[string]int),
		conns:      make(map[*websocket.Conn]struct{}),
		upgrader:   websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
	}
	f.Server = httptest.NewServer(f.router())
	return f
}

// URL returns the base URL of the fake API.
func (f *FakeBackend) URL() string {
	return f.Server.URL
}

// Close drops websocket clients and stops the server.
func (f *FakeBackend) Close() {
	f.DropPushClients()
	f.Server.Close()
}

// RequireToken makes every API call demand the given bearer token.
func (f *FakeBackend) RequireToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
}

// SetSummary replaces the dashboard summary.
func (f *FakeBackend) SetSummary(s sensor.Summary) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summary = s
	f.summaryFunc = nil
}

// SetSummaryFunc computes the summary from the 1-based call number.
func (f *FakeBackend) SetSummaryFunc(fn func(call int) sensor.Summary) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaryFunc = fn
}

// SetRecommendations replaces the recommendation list.
func (f *FakeBackend) SetRecommendations(recs []sensor.Recommendation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recs = recs
}

// SetModelMetrics replaces the model metrics.
func (f *FakeBackend) SetModelMetrics(m sensor.ModelMetrics) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.metrics = m
}

// SetThresholds replaces the persisted thresholds.
func (f *FakeBackend) SetThresholds(th sensor.Thresholds) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.thresholds = th
}

// Thresholds returns the persisted thresholds.
func (f *FakeBackend) Thresholds() sensor.Thresholds {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.thresholds
}

// SavedThresholds returns every object written through POST /thresholds.
func (f *FakeBackend) SavedThresholds() []sensor.Thresholds {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sensor.Thresholds(nil), f.saved...)
}

// SetSuggestion replaces the raw suggestion object.
func (f *FakeBackend) SetSuggestion(s map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.suggestion = s
}

// Fail makes requests to path answer with status until cleared.
func (f *FakeBackend) Fail(path string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[path] = status
}

// ClearFailures removes every injected failure.
func (f *FakeBackend) ClearFailures() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = make(map[string]int)
}

// Delay queues per-call delays for path. Each call consumes one entry.
func (f *FakeBackend) Delay(path string, delays ...time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delays[path] = append(f.delays[path], delays...)
}

// FinishJobsWith makes every unfinished job report status (and errMsg) the
// next time it is fetched.
func (f *FakeBackend) FinishJobsWith(status sensor.JobStatus, errMsg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finishAs = status
	f.finishErr = errMsg
}

// Calls returns how many requests reached path.
func (f *FakeBackend) Calls(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

// Rules returns the decision rules requested from /lstm/metrics.
func (f *FakeBackend) Rules() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.rules...)
}

// Seeded returns the number of rows inserted by /dev/seed.
func (f *FakeBackend) Seeded() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seeded
}

// Retrained returns how many times /retrain-lstm was called.
func (f *FakeBackend) Retrained() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.retrained
}

// Broadcast sends a text frame to every connected push client.
func (f *FakeBackend) Broadcast(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for c := range f.conns {
		_ = c.SetWriteDeadline(time.Now().Add(time.Second))
		if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			c.Close()
			delete(f.conns, c)
		}
	}
}

// PushClients returns the number of connected push clients.
func (f *FakeBackend) PushClients() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.conns)
}

// DropPushClients closes every push connection.
func (f *FakeBackend) DropPushClients() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for c := range f.conns {
		c.Close()
		delete(f.conns, c)
	}
}

func (f *FakeBackend) router() http.Handler {
	r := chi.NewRouter()
	r.Post("/auth/login", f.handleLogin)
	r.Get("/ws/notifications", f.handlePush)

	r.Group(func(r chi.Router) {
		r.Use(f.intercept)
		r.Post("/auth/logout", f.handleOK)
		r.Get("/auth/me", f.handleMe)
		r.Get("/dashboard/data", f.handleSummary)
		r.Get("/sensor/recommendations", f.handleRecommendations)
		r.Get("/lstm/metrics", f.handleMetrics)
		r.Get("/thresholds", f.handleGetThresholds)
		r.Post("/thresholds", f.handleSetThresholds)
		r.Get("/thresholds/suggest", f.handleSuggest)
		r.Get("/retrain-lstm", f.handleRetrain)
		r.Post("/dev/seed", f.handleSeed)
		r.Get("/jobs", f.handleJobs)
		r.Get("/jobs/{id}", f.handleJob)
		r.Post("/jobs/seed", f.handleStartJob("seed"))
		r.Post("/jobs/retrain", f.handleStartJob("retrain"))
	})
	return r
}

// intercept counts calls, checks the token, applies delays and failures.
func (f *FakeBackend) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		path := r.URL.Path
		f.calls[path]++
		token := f.token
		status := f.failures[path]
		var delay time.Duration
		if q := f.delays[path]; len(q) > 0 {
			delay, f.delays[path] = q[0], q[1:]
		}
		f.mu.Unlock()

		if delay > 0 {
			time.Sleep(delay)
		}
		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid token"})
			return
		}
		if status != 0 {
			writeJSON(w, status, map[string]string{"detail": "injected failure"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeBackend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Password != "secret" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid credentials"})
		return
	}
	f.mu.Lock()
	tok := f.token
	f.mu.Unlock()
	if tok == "" {
		tok = "token-" + body.Username
	}
	writeJSON(w, http.StatusOK, sensor.TokenResponse{AccessToken: tok, TokenType: "bearer", RefreshToken: "refresh-" + body.Username})
}

func (f *FakeBackend) handleOK(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

func (f *FakeBackend) handleMe(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, sensor.User{ID: 1, Username: "admin", Role: "admin", IsActive: true})
}

func (f *FakeBackend) handleSummary(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	s := f.summary
	if f.summaryFunc != nil {
		s = f.summaryFunc(f.calls["/dashboard/data"])
	}
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, s)
}

func (f *FakeBackend) handleRecommendations(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	recs := f.recs
	f.mu.Unlock()
	if recs == nil {
		recs = []sensor.Recommendation{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (f *FakeBackend) handleMetrics(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.rules = append(f.rules, r.URL.Query().Get("rule"))
	m := f.metrics
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, m)
}

func (f *FakeBackend) handleGetThresholds(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, f.Thresholds())
}

func (f *FakeBackend) handleSetThresholds(w http.ResponseWriter, r *http.Request) {
	var th sensor.Thresholds
	if err := json.NewDecoder(r.Body).Decode(&th); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}
	th = th.Clamped()
	f.mu.Lock()
	f.thresholds = th
	f.saved = append(f.saved, th)
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, th)
}

func (f *FakeBackend) handleSuggest(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	s := f.suggestion
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, s)
}

func (f *FakeBackend) handleRetrain(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	f.retrained++
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "retraining started"})
}

func (f *FakeBackend) handleSeed(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.URL.Query().Get("n"))
	if err != nil || n < 1 {
		n = 50
	}
	f.mu.Lock()
	f.seeded += n
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]int{"inserted": n})
}

func (f *FakeBackend) handleJobs(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	out := make([]sensor.JobSummary, 0, len(f.jobs))
	for _, j := range f.jobs {
		out = append(out, sensor.JobSummary{ID: j.ID, Type: j.Type, Status: j.Status, Progress: j.Progress, UpdatedAt: j.UpdatedAt})
	}
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeBackend) handleJob(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	j, ok := f.jobs[chi.URLParam(r, "id")]
	var job sensor.Job
	if ok {
		if f.finishAs != "" && !j.Status.Done() {
			j.Status = f.finishAs
			j.Error = f.finishErr
			j.Progress = 100
			j.UpdatedAt = sensor.Time{Time: time.Now().UTC()}
		}
		job = *j
	}
	f.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Job not found"})
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (f *FakeBackend) handleStartJob(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := sensor.Time{Time: time.Now().UTC()}
		j := &sensor.Job{
			ID:        strings.ReplaceAll(uuid.NewString(), "-", ""),
			Type:      kind,
			Status:    sensor.JobQueued,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if n := r.URL.Query().Get("n"); n != "" {
			j.Params = map[string]any{"n": n}
		}
		f.mu.Lock()
		f.jobs[j.ID] = j
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"job_id": j.ID, "status": j.Status})
	}
}

func (f *FakeBackend) handlePush(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	want := f.token
	f.mu.Unlock()
	if r.URL.Query().Get("token") == "" || (want != "" && r.URL.Query().Get("token") != want) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	f.mu.Lock()
	f.conns[conn] = struct{}{}
	f.mu.Unlock()

	// Drain client frames so control messages are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				f.mu.Lock()
				delete(f.conns, conn)
				f.mu.Unlock()
				conn.Close()
				return
			}
		}
	}()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
