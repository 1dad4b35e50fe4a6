// Package api exposes the engine's status, position, trade, and risk
// state over a small HTTP surface, plus a Prometheus /metrics
// endpoint for the internal/metrics series.
//
// Grounded on the teacher's internal/api/server.go (Server struct
// wrapping an *http.Server, a ServeMux of small handlers, a writeJSON
// helper, Start/Shutdown lifecycle methods). The teacher's
// grant-report/coach/sizing/insights/execution-quality/stage-report/
// builder/portfolio handlers have no analog in this domain and were
// dropped (see DESIGN.md); health, readiness, status, positions,
// trades, and risk were kept and adapted to the new engine/ledger/risk
// types, and a metrics endpoint and manual kill switch were added.
package api

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GoPolymarket/polymarket-trader/internal/ledger"
	"github.com/GoPolymarket/polymarket-trader/internal/risk"
)

// Engine exposes the scheduler state the API surfaces read-only.
type Engine interface {
	IsRunning() bool
	CurrentPhase() int
	ForceHalt(bool)
	IsForceHalted() bool
}

// Server is a lightweight HTTP API for engine status and control.
type Server struct {
	httpServer *http.Server
	engine     Engine
	ledger     *ledger.Ledger
	risk       *risk.Manager
	startedAt  time.Time
}

// NewServer creates an API server bound to addr.
func NewServer(addr string, eng Engine, l *ledger.Ledger, r *risk.Manager) *Server {
	s := &Server{
		engine:    eng,
		ledger:    l,
		risk:      r,
		startedAt: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/ready", s.handleReady)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/positions", s.handlePositions)
	mux.HandleFunc("/api/trades", s.handleTrades)
	mux.HandleFunc("/api/risk", s.handleRisk)
	mux.HandleFunc("/api/emergency-stop", s.handleEmergencyStop)
	mux.HandleFunc("/api/resume", s.handleResume)
	mux.Handle("/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start begins serving HTTP requests.
func (s *Server) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	log.Printf("api: listening on %s", s.httpServer.Addr)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Printf("api: serve: %v", err)
		}
	}()
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// GET /api/health — liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"ok":       true,
		"uptime_s": time.Since(s.startedAt).Seconds(),
	})
}

// GET /api/ready — readiness probe.
func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	ready := s.engine.IsRunning() && !s.engine.IsForceHalted()
	resp := map[string]interface{}{
		"ready":    ready,
		"uptime_s": time.Since(s.startedAt).Seconds(),
	}
	if !ready {
		resp["reason"] = "engine_not_running_or_halted"
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	s.writeJSON(w, resp)
}

// GET /api/status — overall engine status.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	trades := s.ledger.TradeHistory()
	var netPnL float64
	for _, t := range trades {
		netPnL += t.PnLUSD
	}
	s.writeJSON(w, map[string]interface{}{
		"running":        s.engine.IsRunning(),
		"force_halted":   s.engine.IsForceHalted(),
		"phase":          s.engine.CurrentPhase(),
		"uptime_s":       time.Since(s.startedAt).Seconds(),
		"total_trades":   len(trades),
		"net_pnl_usd":    netPnL,
		"open_exposure":  s.ledger.TotalExposure(),
		"open_positions": len(s.ledger.OpenPositions()),
	})
}

// GET /api/positions — currently open positions.
func (s *Server) handlePositions(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]interface{}{"positions": s.ledger.OpenPositions()})
}

// GET /api/trades — closed trade history.
func (s *Server) handleTrades(w http.ResponseWriter, _ *http.Request) {
	trades := s.ledger.TradeHistory()
	s.writeJSON(w, map[string]interface{}{"trades": trades, "count": len(trades)})
}

// GET /api/risk — current risk manager state.
func (s *Server) handleRisk(w http.ResponseWriter, _ *http.Request) {
	snap := s.risk.Snapshot()
	s.writeJSON(w, map[string]interface{}{
		"state":              snap.State,
		"consecutive_losses": snap.ConsecutiveLosses,
		"consecutive_wins":   snap.ConsecutiveWins,
		"cooldown_until":     snap.CooldownUntil,
	})
}

// POST /api/emergency-stop — engage the manual kill switch.
func (s *Server) handleEmergencyStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.engine.ForceHalt(true)
	s.writeJSON(w, map[string]string{"status": "emergency_stop_engaged"})
}

// POST /api/resume — release the manual kill switch.
func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.engine.ForceHalt(false)
	s.writeJSON(w, map[string]string{"status": "resumed"})
}
