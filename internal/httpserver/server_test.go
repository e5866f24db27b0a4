package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/bookaimark/internal/config"
	"github.com/MrSnakeDoc/bookaimark/internal/domain"
	"github.com/MrSnakeDoc/bookaimark/internal/healthcheck"
	"github.com/MrSnakeDoc/bookaimark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookaimark/internal/httpserver/mw"
	"github.com/MrSnakeDoc/bookaimark/internal/logger"
	"github.com/MrSnakeDoc/bookaimark/internal/probe"
	"github.com/MrSnakeDoc/bookaimark/internal/store"
	"github.com/MrSnakeDoc/bookaimark/internal/store/memory"
)

type cannedProber map[string]probe.Outcome

func (c cannedProber) Probe(ctx context.Context, rawURL string) probe.Outcome {
	if out, ok := c[rawURL]; ok {
		return out
	}
	return probe.Outcome{StatusCode: 200, Elapsed: 100 * time.Millisecond}
}

type stubSweeper struct{ accept bool }

func (s *stubSweeper) Trigger() bool      { return s.accept }
func (s *stubSweeper) LastRun() time.Time { return time.Time{} }

type testEnv struct {
	mem     *memory.Store
	handler http.Handler
}

func newTestEnv(t *testing.T, mutate func(d *deps.Deps)) *testEnv {
	t.Helper()
	mem := memory.New(
		domain.Bookmark{ID: "1", UserID: "user-A", Title: "Fast Site", URL: "https://fast.example"},
		domain.Bookmark{ID: "2", UserID: "user-A", Title: "Slow Site", URL: "https://slow.example"},
		domain.Bookmark{ID: "3", UserID: "user-B", Title: "Other", URL: "https://other.example"},
	)
	coll := store.NewCollection(mem)
	prober := cannedProber{
		"https://fast.example": {StatusCode: 200, Elapsed: 200 * time.Millisecond},
		"https://slow.example": {StatusCode: 200, Elapsed: 1800 * time.Millisecond},
	}

	d := deps.Deps{
		Logger:         logger.Nop(),
		StartTime:      time.Now(),
		StoreBackend:   "memory",
		Bookmarks:      coll,
		Checker:        healthcheck.New(coll, prober, logger.Nop(), healthcheck.Options{}),
		HealthLimit:    mw.RateLimitConfig{Burst: 100, RefillPerIPPerMin: 100},
		RequestTimeout: time.Second,
	}
	if mutate != nil {
		mutate(&d)
	}

	return &testEnv{mem: mem, handler: NewRouter(&config.Config{}, logger.Nop(), d)}
}

func (e *testEnv) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

type healthBody struct {
	Success bool                       `json:"success"`
	Results []domain.HealthCheckResult `json:"results"`
	Message string                     `json:"message"`
	Summary healthcheck.Summary        `json:"summary"`
}

func TestPostHealth(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodPost, "/api/bookmarks/health", `{"bookmarkIds":[1,"2",3,999],"userId":"user-A"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	body := decode[healthBody](t, rec)
	if !body.Success || body.Message != "Health check completed for 4 bookmarks" {
		t.Errorf("success/message = %v %q", body.Success, body.Message)
	}

	want := []struct {
		id     domain.BookmarkID
		status domain.HealthTier
		err    string
	}{
		{"1", domain.TierExcellent, ""},
		{"2", domain.TierFair, ""},
		{"3", domain.TierBroken, domain.NotFoundError},
		{"999", domain.TierBroken, domain.NotFoundError},
	}
	if len(body.Results) != len(want) {
		t.Fatalf("got %d results, want %d", len(body.Results), len(want))
	}
	for i, w := range want {
		r := body.Results[i]
		if r.BookmarkID != w.id || r.Status != w.status || r.Error != w.err {
			t.Errorf("result[%d] = %+v, want %s/%s/%q", i, r, w.id, w.status, w.err)
		}
	}
	if body.Summary.NotFound != 2 || body.Summary.Total != 4 {
		t.Errorf("summary = %+v", body.Summary)
	}

	if b, _ := env.mem.Get("1"); b.HealthCheckCount != 1 || b.SiteHealth != domain.TierExcellent {
		t.Errorf("bookmark 1 = %+v", b)
	}
	if b, _ := env.mem.Get("3"); b.HealthCheckCount != 0 {
		t.Errorf("other user's bookmark was checked: %+v", b)
	}
}

func TestPostHealthNumericIDsStayNumeric(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodPost, "/api/bookmarks/health", `{"bookmarkIds":[1],"userId":"user-A"}`)
	if !strings.Contains(rec.Body.String(), `"bookmarkId":1,`) {
		t.Errorf("numeric id not echoed as a number: %s", rec.Body.String())
	}
}

func TestPostHealthValidation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"bare string", `{"bookmarkIds":"1","userId":"user-A"}`, "bookmarkIds array is required"},
		{"bare number", `{"bookmarkIds":1,"userId":"user-A"}`, "bookmarkIds array is required"},
		{"missing", `{"userId":"user-A"}`, "bookmarkIds array is required"},
		{"null", `{"bookmarkIds":null,"userId":"user-A"}`, "bookmarkIds array is required"},
		{"bad element", `{"bookmarkIds":[true],"userId":"user-A"}`, "bookmarkIds array is required"},
		{"empty body", ``, "bookmarkIds array is required"},
		{"no user", `{"bookmarkIds":[1]}`, healthcheck.ErrUserRequired.Error()},
		{"not json", `{bookmarkIds`, "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			rec := env.do(http.MethodPost, "/api/bookmarks/health", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if got := decode[map[string]string](t, rec)["error"]; got != tt.wantErr {
				t.Errorf("error = %q, want %q", got, tt.wantErr)
			}
			if env.mem.Loads() != 0 || env.mem.Saves() != 0 {
				t.Errorf("store touched: loads=%d saves=%d", env.mem.Loads(), env.mem.Saves())
			}
		})
	}
}

func TestPostHealthEmptyArray(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodPost, "/api/bookmarks/health", `{"bookmarkIds":[],"userId":"user-A"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"results":[]`) {
		t.Errorf("body = %s, want empty results array", rec.Body.String())
	}
}

func TestPostHealthStoreFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	env.mem.FailSave(memory.ErrInjected)

	rec := env.do(http.MethodPost, "/api/bookmarks/health", `{"bookmarkIds":[1,2],"userId":"user-A"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != `{"error":"Failed to check bookmark health"}` {
		t.Errorf("body = %s", rec.Body.String())
	}
	if b, _ := env.mem.Get("1"); b.HealthCheckCount != 0 || b.SiteHealth != "" {
		t.Errorf("bookmark mutated after failed save: %+v", b)
	}
}

func TestPostHealthRateLimited(t *testing.T) {
	env := newTestEnv(t, func(d *deps.Deps) {
		d.HealthLimit = mw.RateLimitConfig{Burst: 1, RefillPerIPPerMin: 1}
	})

	body := `{"bookmarkIds":[1],"userId":"user-A"}`
	if rec := env.do(http.MethodPost, "/api/bookmarks/health", body); rec.Code != http.StatusOK {
		t.Fatalf("first status = %d", rec.Code)
	}
	rec := env.do(http.MethodPost, "/api/bookmarks/health", body)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}
}

type healthInfo struct {
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Status    string            `json:"status"`
	Endpoints map[string]string `json:"endpoints"`
}

func TestGetHealthInfo(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodGet, "/api/bookmarks/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	info := decode[healthInfo](t, rec)
	if info.Service != "Bookmark Health Check API" || info.Version != "1.0.0" || info.Status != "active" {
		t.Errorf("info = %+v", info)
	}
	if info.Endpoints["POST /api/bookmarks/health"] == "" {
		t.Errorf("endpoints = %v", info.Endpoints)
	}
	if env.mem.Loads() != 0 {
		t.Error("info endpoint touched the store")
	}
}

func TestBookmarkCRUD(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodPost, "/api/bookmarks", `{"user_id":"user-A","title":"Go","url":"https://go.dev"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
	}
	created := decode[struct {
		Bookmark domain.Bookmark `json:"bookmark"`
	}](t, rec).Bookmark
	if created.ID != "4" || created.Category != "General" || created.UserID != "user-A" {
		t.Errorf("created = %+v", created)
	}

	rec = env.do(http.MethodGet, "/api/bookmarks?user_id=user-A", "")
	list := decode[struct {
		Bookmarks []domain.Bookmark `json:"bookmarks"`
		Total     int               `json:"total"`
	}](t, rec)
	if list.Total != 3 {
		t.Errorf("list total = %d, want 3", list.Total)
	}

	if rec := env.do(http.MethodDelete, "/api/bookmarks?id=4&user_id=user-A", ""); rec.Code != http.StatusOK {
		t.Errorf("delete status = %d", rec.Code)
	}
	if _, ok := env.mem.Get("4"); ok {
		t.Error("bookmark 4 still stored after delete")
	}

	// Bookmark 3 belongs to user-B.
	if rec := env.do(http.MethodDelete, "/api/bookmarks?id=3&user_id=user-A", ""); rec.Code != http.StatusNotFound {
		t.Errorf("cross-user delete status = %d, want 404", rec.Code)
	}
	if rec := env.do(http.MethodPost, "/api/bookmarks", `{"user_id":"user-A","title":""}`); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid create status = %d, want 400", rec.Code)
	}
	if rec := env.do(http.MethodGet, "/api/bookmarks", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("list without user status = %d, want 400", rec.Code)
	}
}

func TestSearchBookmarks(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(http.MethodPost, "/api/bookmarks/health", `{"bookmarkIds":[1,2],"userId":"user-A"}`)

	rec := env.do(http.MethodGet, "/api/bookmarks/search?user_id=user-A&q=site&site_health=fair", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	res := decode[struct {
		Results []domain.SearchHit `json:"results"`
		Total   int                `json:"total"`
	}](t, rec)
	if res.Total != 1 || res.Results[0].Bookmark.ID != "2" {
		t.Errorf("results = %+v", res.Results)
	}

	if rec := env.do(http.MethodGet, "/api/bookmarks/search?user_id=user-A&site_health=great", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad tier status = %d, want 400", rec.Code)
	}
}

func TestInfraEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)

	if rec := env.do(http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d", rec.Code)
	}
	if rec := env.do(http.MethodGet, "/readyz", ""); rec.Code != http.StatusOK {
		t.Errorf("readyz status = %d", rec.Code)
	}
	if rec := env.do(http.MethodGet, "/infra", ""); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"operational"`) {
		t.Errorf("infra = %d %s", rec.Code, rec.Body.String())
	}
	if rec := env.do(http.MethodPost, "/sweep", ""); rec.Code != http.StatusNotFound {
		t.Errorf("sweep without sweeper status = %d, want 404", rec.Code)
	}

	env.mem.FailLoad(memory.ErrInjected)
	if rec := env.do(http.MethodGet, "/readyz", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz with failing store status = %d, want 503", rec.Code)
	}
}

func TestSweepTrigger(t *testing.T) {
	sw := &stubSweeper{accept: true}
	env := newTestEnv(t, func(d *deps.Deps) { d.Sweeper = sw })

	if rec := env.do(http.MethodPost, "/sweep", ""); rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", rec.Code)
	}
	sw.accept = false
	if rec := env.do(http.MethodPost, "/sweep", ""); rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
}

func TestOperatorEndpointsGuarded(t *testing.T) {
	env := newTestEnv(t, func(d *deps.Deps) {
		d.AllowedCIDRS = []string{"10.0.0.0/8"}
		d.Sweeper = &stubSweeper{accept: true}
	})

	// httptest requests come from 192.0.2.1.
	for _, path := range []string{"/readyz", "/infra"} {
		if rec := env.do(http.MethodGet, path, ""); rec.Code != http.StatusForbidden {
			t.Errorf("GET %s status = %d, want 403", path, rec.Code)
		}
	}
	if rec := env.do(http.MethodPost, "/sweep", ""); rec.Code != http.StatusForbidden {
		t.Errorf("POST /sweep status = %d, want 403", rec.Code)
	}
	if rec := env.do(http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Errorf("healthz should stay open, status = %d", rec.Code)
	}
}

type slowProber struct{ delay time.Duration }

func (s slowProber) Probe(ctx context.Context, rawURL string) probe.Outcome {
	time.Sleep(s.delay)
	return probe.Outcome{StatusCode: 200, Elapsed: s.delay}
}

func TestPostHealthOutlivesWriteTimeout(t *testing.T) {
	env := newTestEnv(t, func(d *deps.Deps) {
		d.Checker = healthcheck.New(d.Bookmarks, slowProber{delay: 100 * time.Millisecond}, logger.Nop(),
			healthcheck.Options{Concurrency: 1})
	})

	srv := httptest.NewUnstartedServer(env.handler)
	srv.Config.WriteTimeout = 300 * time.Millisecond
	srv.Start()
	defer srv.Close()

	resp, err := srv.Client().Post(srv.URL+"/api/bookmarks/health", "application/json",
		strings.NewReader(`{"bookmarkIds":[1,2,1,2,1,2],"userId":"user-A"}`))
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body healthBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Results) != 6 {
		t.Errorf("got %d results, want 6", len(body.Results))
	}
	if b, _ := env.mem.Get("1"); b.HealthCheckCount != 3 {
		t.Errorf("HealthCheckCount = %d, want 3", b.HealthCheckCount)
	}
}

func TestPostHealthTrimsUserID(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodPost, "/api/bookmarks/health", `{"bookmarkIds":[1],"userId":" user-A "}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := decode[healthBody](t, rec)
	if len(body.Results) != 1 || body.Results[0].Status != domain.TierExcellent {
		t.Errorf("results = %+v, want bookmark 1 found and excellent", body.Results)
	}
}
