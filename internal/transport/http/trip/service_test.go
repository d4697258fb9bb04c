package trip

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"adventure-server-go/internal/domain/adventure"
	platformerrors "adventure-server-go/internal/platform/errors"
)

type fakePlanner struct {
	calls int
	query adventure.Query
	err   error
}

func (f *fakePlanner) Plan(_ context.Context, q adventure.Query) (*adventure.Plan, error) {
	f.calls++
	f.query = q
	if f.err != nil {
		return nil, f.err
	}
	return &adventure.Plan{
		ID:        "abc",
		MapName:   "abc.html",
		Locations: []adventure.PointOfInterest{{Name: "Great Falls", Category: "Park", Latitude: 38.99, Longitude: -77.25}},
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

func newTestEngine(t *testing.T, planner Planner) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc, err := NewService(planner, Options{DefaultRadiusMiles: 15, MaxRadiusMiles: 250}, nil)
	if err != nil {
		t.Fatalf("NewService error: %v", err)
	}
	engine := gin.New()
	svc.Register(context.Background(), engine.Group("/api"))
	return engine
}

func post(engine *gin.Engine, body string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(http.MethodPost, "/api/plan_trip", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func TestPlanTripRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty body", ``, msgMissingCoordinates},
		{"missing longitude", `{"latitude": 38.9}`, msgMissingCoordinates},
		{"null latitude", `{"latitude": null, "longitude": -77}`, msgMissingCoordinates},
		{"non numeric", `{"latitude": "abc", "longitude": -77}`, msgInvalidNumeric},
		{"out of range", `{"latitude": 123, "longitude": -77}`, msgInvalidNumeric},
		{"bad radius", `{"latitude": 38.9, "longitude": -77, "radius_miles": "far"}`, msgInvalidNumeric},
		{"negative radius", `{"latitude": 38.9, "longitude": -77, "radius_miles": -5}`, msgInvalidNumeric},
		{"huge radius", `{"latitude": 38.9, "longitude": -77, "radius_miles": 5000}`, msgInvalidNumeric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			planner := &fakePlanner{}
			rec, out := post(newTestEngine(t, planner), tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			if out["success"] != false || out["error"] != tt.want {
				t.Fatalf("unexpected body: %v", out)
			}
			if planner.calls != 0 {
				t.Fatalf("planner must not be called on a 400")
			}
		})
	}
}

func TestPlanTripSuccess(t *testing.T) {
	planner := &fakePlanner{}
	rec, out := post(newTestEngine(t, planner), `{"latitude": "38.8951", "longitude": -77.0364}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if out["success"] != true || out["map_url"] != "/maps/abc.html" {
		t.Fatalf("unexpected body: %v", out)
	}
	if planner.query.RadiusMiles != 15 || planner.query.Center.Latitude != 38.8951 {
		t.Fatalf("unexpected query: %+v", planner.query)
	}
	data, _ := out["data"].(map[string]any)
	if locs, _ := data["locations"].([]any); len(locs) != 1 {
		t.Fatalf("expected locations in data, got %v", data)
	}
}

func TestPlanTripPlannerFailure(t *testing.T) {
	planner := &fakePlanner{err: platformerrors.New(platformerrors.KindDomain, "adventure.plan", "No adventure locations found")}
	rec, out := post(newTestEngine(t, planner), `{"latitude": 38.8951, "longitude": -77.0364, "radius_miles": 30}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if out["success"] != false || out["error"] != "No adventure locations found" {
		t.Fatalf("unexpected body: %v", out)
	}
	if planner.query.RadiusMiles != 30 {
		t.Fatalf("radius not forwarded: %+v", planner.query)
	}
}
