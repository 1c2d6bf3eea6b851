package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Ghayda-Saify/agriq-hackathon/services/planner/datatypes"
	"github.com/Ghayda-Saify/agriq-hackathon/services/planner/engine"
	"github.com/Ghayda-Saify/agriq-hackathon/services/planner/observability"
	"github.com/Ghayda-Saify/agriq-hackathon/services/quantum"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 4 * 1024,
}

// defaultWSProgressInterval keeps frames flowing on the stream even when the
// service config has progress reporting switched off.
const defaultWSProgressInterval = 250

// frameBuffer absorbs progress bursts; overflow frames are dropped so the
// annealer never blocks on a slow client.
const frameBuffer = 64

func sendJSON(ws *websocket.Conn, v any) error {
	err := ws.WriteJSON(v)
	if err != nil {
		slog.Warn("Failed to write WebSocket JSON", "error", err)
	}
	return err
}

// HandleOptimizeWS streams live annealing progress over a websocket.
//
// The client sends one OptimizeRequest message per run (an empty object runs
// the defaults). The server answers with progress frames every
// progress_interval iterations and closes each run with a result frame, or an
// error frame if the run could not start. The connection then waits for the
// next request.
func HandleOptimizeWS(eng *engine.Engine, timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Error("failed to upgrade the websocket", "error", err)
			return
		}
		defer ws.Close()

		if m := observability.DefaultMetrics; m != nil {
			m.WebsocketOpened()
			defer m.WebsocketClosed()
		}
		slog.Info("Websocket client connected")

		for {
			var req datatypes.OptimizeRequest
			if err := ws.ReadJSON(&req); err != nil {
				slog.Info("Websocket client disconnected", "error", err.Error())
				break
			}
			if !streamPlan(c.Request.Context(), ws, eng, &req, timeout) {
				break
			}
		}
	}
}

// streamPlan executes one run and streams its frames. Returns false when the
// connection is no longer usable.
func streamPlan(parent context.Context, ws *websocket.Conn, eng *engine.Engine,
	req *datatypes.OptimizeRequest, timeout time.Duration) bool {

	// ReadJSON bypasses gin's binding, so the demand screen runs here.
	if err := req.Validate(); err != nil {
		recordRequest(observability.EndpointOptimizeWS, false)
		return sendJSON(ws, datatypes.ErrorFrame{Type: datatypes.FrameError, Error: err.Error()}) == nil
	}

	cfg := req.Apply(eng.BaseConfig())
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = defaultWSProgressInterval
	}

	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	snap, err := eng.BuildSnapshot(ctx, req.Demand)
	if err != nil {
		slog.Error("Websocket snapshot build failed", "error", err)
		recordRequest(observability.EndpointOptimizeWS, false)
		return sendJSON(ws, datatypes.ErrorFrame{Type: datatypes.FrameError, Error: err.Error()}) == nil
	}

	if m := observability.DefaultMetrics; m != nil {
		m.RunStarted()
		defer m.RunEnded()
	}

	type outcome struct {
		res *quantum.Result
		err error
	}
	frames := make(chan datatypes.ProgressFrame, frameBuffer)
	done := make(chan outcome, 1)

	go func() {
		res, err := eng.Plan(ctx, snap, cfg, func(p quantum.Progress) {
			select {
			case frames <- datatypes.NewProgressFrame(p):
			default:
			}
		})
		done <- outcome{res, err}
	}()

	for {
		select {
		case f := <-frames:
			if sendJSON(ws, f) != nil {
				// Client went away mid-run; stop the annealer before
				// reporting the connection dead.
				cancel()
				<-done
				return false
			}
		case out := <-done:
			// The annealer has exited, so nothing writes to frames anymore.
			// Flush what it queued so progress arrives before the terminal
			// frame.
		flush:
			for {
				select {
				case f := <-frames:
					if sendJSON(ws, f) != nil {
						return false
					}
				default:
					break flush
				}
			}

			if out.err != nil {
				slog.Error("Websocket optimize run failed", "error", out.err)
				recordRequest(observability.EndpointOptimizeWS, false)
				return sendJSON(ws, datatypes.ErrorFrame{Type: datatypes.FrameError, Error: out.err.Error()}) == nil
			}
			if m := observability.DefaultMetrics; m != nil {
				m.RecordOptimizeRun(string(out.res.StopReason), out.res.Energy, out.res.Elapsed.Seconds())
			}
			recordRequest(observability.EndpointOptimizeWS, !out.res.Partial)
			return sendJSON(ws, datatypes.ResultFrame{
				Type:             datatypes.FrameResult,
				OptimizeResponse: datatypes.NewOptimizeResponse(out.res),
			}) == nil
		}
	}
}
