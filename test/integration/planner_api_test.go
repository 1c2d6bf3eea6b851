// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// Integration test for the planner HTTP API.
//
// Exercises the full stack end to end: CSV dataset on disk, store, engine,
// gin routes, websocket streaming. Unit tests stub the engine; this suite
// does not.

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ghayda-Saify/agriq-hackathon/services/planner"
	"github.com/Ghayda-Saify/agriq-hackathon/services/quantum"
)

// TestPlannerAPI drives the planner service over real HTTP.
func TestPlannerAPI(t *testing.T) {
	if os.Getenv("RUN_INTEGRATION_TESTS") == "" {
		t.Skip("Set RUN_INTEGRATION_TESTS=1 to run this test")
	}

	t.Log("Writing test dataset...")
	dataDir := writeTestDataset(t)

	cfg := planner.DefaultConfig()
	cfg.GinMode = "test"
	cfg.DataDir = dataDir
	cfg.WatchData = false
	cfg.OptimizeRPS = 100
	cfg.OptimizeBurst = 100
	cfg.OptimizeTimeout = planner.Duration(20 * time.Second)
	cfg.Annealing = quantum.DefaultConfig()
	cfg.Annealing.MaxIterations = 2000
	cfg.Annealing.ProgressInterval = 250

	svc, err := planner.New(cfg)
	require.NoError(t, err, "Service should start with a valid dataset")

	srv := httptest.NewServer(svc.Router())
	defer srv.Close()

	t.Run("Health_Reports_Dataset", func(t *testing.T) {
		body := getJSON(t, srv.URL+"/health", http.StatusOK)

		assert.Equal(t, "ok", body["status"])
		assert.EqualValues(t, 3, body["districts"])
	})

	t.Run("Analyze_Ranks_All_Crops", func(t *testing.T) {
		body := postJSON(t, srv.URL+"/api/analyze",
			`{"location": "Jenin", "soil": "Clay", "ph": 7.0}`, http.StatusOK)

		assert.Equal(t, "Jenin", body["location"])
		scores := body["scores"].([]any)
		assert.Len(t, scores, 7, "Every catalog crop should be scored")

		prev := 101.0
		for _, raw := range scores {
			row := raw.(map[string]any)
			score := row["score"].(float64)
			assert.LessOrEqual(t, score, prev, "Scores should be ranked best first")
			assert.Contains(t, []string{"green", "yellow", "red"}, row["status"])
			prev = score
		}
		assert.NotNil(t, body["climate_info"], "Forecast should be echoed")
	})

	t.Run("Market_Projects_Six_Months", func(t *testing.T) {
		body := getJSON(t, srv.URL+"/api/market?crop=Olive", http.StatusOK)

		assert.Equal(t, "Olive", body["crop"])
		assert.Len(t, body["months"].([]any), 6)
		assert.Len(t, body["prices"].([]any), 6)
		assert.Len(t, body["demand"].([]any), 6)
		for _, p := range body["prices"].([]any) {
			assert.GreaterOrEqual(t, p.(float64), 1.5, "Prices respect the floor")
		}
	})

	t.Run("Optimize_Returns_Plan", func(t *testing.T) {
		body := postJSON(t, srv.URL+"/api/optimize",
			`{"demand": {"Olive": 300, "Wheat": 200, "Grapes": 100}, "random_seed": 7}`,
			http.StatusOK)

		assert.NotEmpty(t, body["plan_id"])
		heatmap := body["heatmap"].(map[string]any)
		assert.Len(t, heatmap, 3, "Every district gets exactly one crop")
		for district, crop := range heatmap {
			assert.NotEmpty(t, crop, "District %s has no crop", district)
		}

		confidence := body["confidence_score"].(float64)
		assert.GreaterOrEqual(t, confidence, 0.0)
		assert.LessOrEqual(t, confidence, 100.0)

		summary := body["assignment"].(map[string]any)
		assert.NotEmpty(t, summary["crop"])
		assert.Regexp(t, `^\d+%$`, summary["confidence"])
	})

	t.Run("Optimize_Same_Seed_Same_Plan", func(t *testing.T) {
		req := `{"demand": {"Olive": 300, "Wheat": 200}, "random_seed": 11}`
		first := postJSON(t, srv.URL+"/api/optimize", req, http.StatusOK)
		second := postJSON(t, srv.URL+"/api/optimize", req, http.StatusOK)

		assert.Equal(t, first["energy"], second["energy"])
		assert.Equal(t, first["heatmap"], second["heatmap"])
		assert.Equal(t, first["iterations"], second["iterations"])
		assert.NotEqual(t, first["plan_id"], second["plan_id"],
			"Each run should mint its own plan id")
	})

	t.Run("Optimize_Rejects_Bad_Config", func(t *testing.T) {
		postJSON(t, srv.URL+"/api/optimize",
			`{"cooling_rate": 1.5}`, http.StatusBadRequest)
	})

	t.Run("Websocket_Streams_Progress", func(t *testing.T) {
		wsURL := strings.Replace(srv.URL, "http", "ws", 1) + "/api/optimize/ws"
		conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
		require.NoError(t, err, "Websocket dial failed")
		if resp != nil {
			defer resp.Body.Close()
		}
		defer conn.Close()

		conn.SetReadDeadline(time.Now().Add(20 * time.Second))

		progressFrames := 0
		var final map[string]any
		for final == nil {
			var frame map[string]any
			require.NoError(t, conn.ReadJSON(&frame), "Stream ended without a result frame")

			switch frame["type"] {
			case "progress":
				progressFrames++
				assert.Contains(t, frame, "iteration")
				assert.Contains(t, frame, "best_energy")
			case "result":
				final = frame
			case "error":
				t.Fatalf("Stream reported error: %v", frame["error"])
			}
		}

		assert.Greater(t, progressFrames, 0, "Expected progress frames before the result")
		assert.NotEmpty(t, final["plan_id"])
	})

	t.Run("Metrics_Exposed", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		buf := new(bytes.Buffer)
		_, err = buf.ReadFrom(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "agriq_", "Planner metrics should be registered")
	})
}

// writeTestDataset lays down a minimal three-district dataset with market
// history recent enough for the economist's trailing window.
func writeTestDataset(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	soil := `District,N,P,K,ph,Crop,Yield_Ton
Jenin,45,55,60,7.5,Olive,3.1
Jenin,50,60,65,7.3,Olive,2.9
Nablus,75,45,50,6.4,Wheat,3.4
Nablus,70,40,55,6.6,Wheat,3.2
Hebron,55,65,80,6.9,Grapes,2.8
Hebron,60,70,85,7.1,Grapes,3.0
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "soil_samples.csv"), []byte(soil), 0600))

	var market strings.Builder
	market.WriteString("Date,Crop,Price,Demand_Ton\n")
	now := time.Now()
	for week := 1; week <= 8; week++ {
		date := now.AddDate(0, 0, -7*week).Format("2006-01-02")
		fmt.Fprintf(&market, "%s,Olive,20.5,%d\n", date, 240+week)
		fmt.Fprintf(&market, "%s,Wheat,5.2,%d\n", date, 950+week)
		fmt.Fprintf(&market, "%s,Grapes,10.1,%d\n", date, 490+week)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "market_history.csv"), []byte(market.String()), 0600))

	return dir
}

func getJSON(t *testing.T, url string, wantStatus int) map[string]any {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, wantStatus, resp.StatusCode, "GET %s", url)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func postJSON(t *testing.T, url, payload string, wantStatus int) map[string]any {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, wantStatus, resp.StatusCode, "POST %s %s", url, payload)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}
