package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GoPolymarket/polymarket-trader/internal/ledger"
	"github.com/GoPolymarket/polymarket-trader/internal/risk"
)

type mockEngine struct {
	running bool
	phase   int
	halted  bool
}

func (m *mockEngine) IsRunning() bool     { return m.running }
func (m *mockEngine) CurrentPhase() int   { return m.phase }
func (m *mockEngine) ForceHalt(halt bool) { m.halted = halt }
func (m *mockEngine) IsForceHalted() bool { return m.halted }

func newTestServer(t *testing.T) (*Server, *mockEngine, *ledger.Ledger, *risk.Manager) {
	t.Helper()
	l := ledger.New()
	r := risk.New(risk.Config{MaxTradeCashUSD: 50, MaxConsecutiveLosses: 5, CooldownMinutes: 30}, l)
	eng := &mockEngine{running: true, phase: 2}
	s := NewServer("127.0.0.1:0", eng, l, r)
	return s, eng, l, r
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var v map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response: %v (body=%s)", err, rr.Body.String())
	}
	return v
}

func TestHandleHealthReportsOK(t *testing.T) {
	s, _, _, _ := newTestServer(t)
	rr := httptest.NewRecorder()
	s.handleHealth(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	body := decodeJSON(t, rr)
	if body["ok"] != true {
		t.Errorf("expected ok=true, got %v", body)
	}
}

func TestHandleReadyReflectsRunningAndHaltState(t *testing.T) {
	s, eng, _, _ := newTestServer(t)

	rr := httptest.NewRecorder()
	s.handleReady(rr, httptest.NewRequest(http.MethodGet, "/api/ready", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("expected 200 when running and not halted, got %d", rr.Code)
	}

	eng.halted = true
	rr2 := httptest.NewRecorder()
	s.handleReady(rr2, httptest.NewRequest(http.MethodGet, "/api/ready", nil))
	if rr2.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 when force-halted, got %d", rr2.Code)
	}
}

func TestHandleStatusReportsPhaseAndPnL(t *testing.T) {
	s, _, l, _ := newTestServer(t)
	l.OpenPosition("tok", "mkt", "q", "YES", 0.5, 10, "sum_to_one_arb")
	l.ClosePosition("tok", 0.6, 10010, 1)

	rr := httptest.NewRecorder()
	s.handleStatus(rr, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	body := decodeJSON(t, rr)
	if int(body["phase"].(float64)) != 2 {
		t.Errorf("expected phase=2, got %v", body["phase"])
	}
	if int(body["total_trades"].(float64)) != 1 {
		t.Errorf("expected total_trades=1, got %v", body["total_trades"])
	}
	if body["net_pnl_usd"].(float64) <= 0 {
		t.Errorf("expected positive net pnl after a winning close, got %v", body["net_pnl_usd"])
	}
}

func TestHandleEmergencyStopRequiresPost(t *testing.T) {
	s, eng, _, _ := newTestServer(t)

	rr := httptest.NewRecorder()
	s.handleEmergencyStop(rr, httptest.NewRequest(http.MethodGet, "/api/emergency-stop", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 on GET, got %d", rr.Code)
	}
	if eng.halted {
		t.Error("GET must not engage the kill switch")
	}

	rr2 := httptest.NewRecorder()
	s.handleEmergencyStop(rr2, httptest.NewRequest(http.MethodPost, "/api/emergency-stop", nil))
	if rr2.Code != http.StatusOK {
		t.Errorf("expected 200 on POST, got %d", rr2.Code)
	}
	if !eng.halted {
		t.Error("POST should engage the kill switch")
	}
}

func TestHandleResumeReleasesKillSwitch(t *testing.T) {
	s, eng, _, _ := newTestServer(t)
	eng.halted = true

	rr := httptest.NewRecorder()
	s.handleResume(rr, httptest.NewRequest(http.MethodPost, "/api/resume", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}
	if eng.halted {
		t.Error("expected kill switch released after resume")
	}
}

func TestHandleRiskReportsState(t *testing.T) {
	s, _, _, r := newTestServer(t)
	r.SetDayStartBalance(1000)

	rr := httptest.NewRecorder()
	s.handleRisk(rr, httptest.NewRequest(http.MethodGet, "/api/risk", nil))

	body := decodeJSON(t, rr)
	if body["state"] != "NORMAL" {
		t.Errorf("expected state=NORMAL, got %v", body["state"])
	}
}

func TestHandlePositionsAndTradesReturnCounts(t *testing.T) {
	s, _, l, _ := newTestServer(t)
	l.OpenPosition("tok", "mkt", "q", "YES", 0.5, 10, "sniper")

	rr := httptest.NewRecorder()
	s.handlePositions(rr, httptest.NewRequest(http.MethodGet, "/api/positions", nil))
	body := decodeJSON(t, rr)
	positions, ok := body["positions"].([]interface{})
	if !ok || len(positions) != 1 {
		t.Errorf("expected one open position, got %v", body["positions"])
	}

	l.ClosePosition("tok", 0.4, 990, 2)
	rr2 := httptest.NewRecorder()
	s.handleTrades(rr2, httptest.NewRequest(http.MethodGet, "/api/trades", nil))
	body2 := decodeJSON(t, rr2)
	if int(body2["count"].(float64)) != 1 {
		t.Errorf("expected 1 closed trade, got %v", body2["count"])
	}
}
