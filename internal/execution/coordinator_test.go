package execution

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/GoPolymarket/polymarket-trader/internal/venue"
)

// fakeVenue is a minimal in-memory OrderVenue for testing the
// coordinator's monitoring and unwind paths without real I/O.
type fakeVenue struct {
	mu        sync.Mutex
	nextID    int
	open      map[string]string // orderID -> tokenID
	failCreate bool
	cancelled []string
}

func newFakeVenue() *fakeVenue {
	return &fakeVenue{open: map[string]string{}}
}

func (f *fakeVenue) GetBalance(ctx context.Context) (float64, error) { return 1000, nil }
func (f *fakeVenue) GetOrderBook(ctx context.Context, tokenID string) (venue.OrderBook, error) {
	return venue.OrderBook{}, nil
}

func (f *fakeVenue) CreateLimitOrder(ctx context.Context, tokenID string, side venue.Side, price, size float64) (venue.OrderResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return venue.OrderResult{}, fmt.Errorf("boom")
	}
	f.nextID++
	id := fmt.Sprintf("order-%d", f.nextID)
	f.open[id] = tokenID
	return venue.OrderResult{OrderID: id, Status: "submitted"}, nil
}

func (f *fakeVenue) CancelOrder(ctx context.Context, orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.open, orderID)
	f.cancelled = append(f.cancelled, orderID)
	return nil
}

func (f *fakeVenue) CancelAllOrders(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = map[string]string{}
	return nil
}

func (f *fakeVenue) GetOpenOrders(ctx context.Context) ([]venue.OpenOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []venue.OpenOrder
	for id, tok := range f.open {
		out = append(out, venue.OpenOrder{ID: id, TokenID: tok})
	}
	return out, nil
}

// removeFromOpen simulates the venue filling an order (it disappears
// from the open-orders list).
func (f *fakeVenue) removeFromOpen(orderID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.open, orderID)
}

func noSleep(time.Duration) {}

func TestPlaceLimitDryRun(t *testing.T) {
	c := New(Config{DryRun: true}, newFakeVenue())
	ticket, err := c.PlaceLimit(context.Background(), "tok", venue.Buy, 0.5, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ticket.Status != Filled || ticket.VenueOrderID != "dry-run-placeholder" {
		t.Fatalf("expected dry-run short-circuit, got %+v", ticket)
	}
}

func TestPlaceLimitRetriesThenFails(t *testing.T) {
	fv := newFakeVenue()
	fv.failCreate = true
	c := New(Config{MaxRetries: 3, RetryBackoffBase: 2}, fv)
	c.sleep = noSleep
	ticket, err := c.PlaceLimit(context.Background(), "tok", venue.Buy, 0.5, 10)
	if err == nil {
		t.Fatalf("expected failure after exhausting retries")
	}
	if ticket.Status != Failed {
		t.Fatalf("expected Failed status, got %v", ticket.Status)
	}
}

func TestPlaceArbPairDryRunBothFilled(t *testing.T) {
	c := New(Config{DryRun: true}, newFakeVenue())
	pair, err := c.PlaceArbPair(context.Background(), "yes", "no", 0.48, 0.50, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pair.YesLeg.Status != Filled || pair.NoLeg.Status != Filled {
		t.Fatalf("expected both legs filled in dry-run, got %+v", pair)
	}
}

func TestPlaceArbPairBothFillBeforeTimeout(t *testing.T) {
	fv := newFakeVenue()
	c := New(Config{OrderTimeout: time.Minute}, fv)
	c.sleep = func(d time.Duration) {
		// simulate both legs filling on first poll
		fv.mu.Lock()
		for id := range fv.open {
			delete(fv.open, id)
		}
		fv.mu.Unlock()
	}
	pair, err := c.PlaceArbPair(context.Background(), "yes", "no", 0.48, 0.50, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pair.YesLeg.Status != Filled || pair.NoLeg.Status != Filled {
		t.Fatalf("expected both legs filled, got %+v", pair)
	}
}

// P7: on timeout with exactly one leg filled, the unfilled leg is
// cancelled and a recovery sell is attempted for the filled leg.
func TestPlaceArbPairPartialFillTriggersRecovery(t *testing.T) {
	fv := newFakeVenue()
	base := time.Now()
	var tick int
	c := New(Config{OrderTimeout: 3 * time.Second}, fv)
	c.now = func() time.Time {
		return base.Add(time.Duration(tick) * time.Second)
	}
	c.sleep = func(d time.Duration) {
		if tick == 0 {
			// Fill only the YES leg after the first poll.
			fv.mu.Lock()
			for id, tok := range fv.open {
				if tok == "yes" {
					delete(fv.open, id)
				}
			}
			fv.mu.Unlock()
		}
		tick++
	}

	pair, err := c.PlaceArbPair(context.Background(), "yes", "no", 0.48, 0.50, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pair.YesLeg.Status != Filled {
		t.Fatalf("expected YES leg filled, got %v", pair.YesLeg.Status)
	}
	if pair.NoLeg.Status != Cancelled {
		t.Fatalf("expected NO leg cancelled, got %v", pair.NoLeg.Status)
	}
}

func TestCancelAll(t *testing.T) {
	fv := newFakeVenue()
	c := New(Config{}, fv)
	fv.CreateLimitOrder(context.Background(), "tok", venue.Buy, 0.5, 10)
	if err := c.CancelAll(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fv.open) != 0 {
		t.Fatalf("expected all orders cancelled")
	}
}
