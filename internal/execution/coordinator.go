// Package execution implements the OrderCoordinator: single and
// paired order lifecycle, retries, timeout-driven cancel, and
// partial-fill unwind.
//
// Grounded on
// original_source/polymarket-compounder/core/order_manager.py
// (place_limit's retry/backoff loop, place_arb_pair's concurrent
// submission and counterpart-cancel-on-failure, _monitor_arb_fills's
// one-second poll cadence and three-way timeout outcome,
// _recover_filled_leg's sell-at-entry-price unwind), and on
// other_examples' AlejandroRuiz99-polybot live-orders.go for the Go
// idiom of identifying a pair with a minted uuid and diffing a
// locally tracked leg set against a freshly queried open-orders list
// to detect fills.
package execution

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/GoPolymarket/polymarket-trader/internal/venue"
)

// Status values an OrderTicket can hold. State advances monotonically
// except submitted→cancelled on timeout/error.
type Status string

const (
	Pending   Status = "pending"
	Submitted Status = "submitted"
	Filled    Status = "filled"
	Cancelled Status = "cancelled"
	Failed    Status = "failed"
)

// OrderTicket is a single proposed or submitted leg.
type OrderTicket struct {
	TokenID       string
	Side          venue.Side
	Price         float64
	Size          float64
	VenueOrderID  string
	Status        Status
	SubmittedAt   time.Time
}

// PairedOrder is two correlated BUY legs that must both fill or be
// unwound together.
type PairedOrder struct {
	PairID  string
	YesLeg  OrderTicket
	NoLeg   OrderTicket
}

// Config tunes retry/backoff/timeout behavior (spec §6).
type Config struct {
	MaxRetries        int
	RetryBackoffBase  float64
	OrderTimeout      time.Duration
	DryRun            bool
}

// Coordinator places and monitors orders against a venue.
type Coordinator struct {
	cfg   Config
	venue venue.OrderVenue
	// clock hooks are overridable in tests.
	sleep func(time.Duration)
	now   func() time.Time
}

// New constructs a Coordinator.
func New(cfg Config, v venue.OrderVenue) *Coordinator {
	return &Coordinator{
		cfg:   cfg,
		venue: v,
		sleep: time.Sleep,
		now:   time.Now,
	}
}

// PlaceLimit submits a single limit order, making up to
// cfg.MaxRetries attempts with exponential backoff
// retryBackoffBase^attempt seconds between attempts.
func (c *Coordinator) PlaceLimit(ctx context.Context, tokenID string, side venue.Side, price, size float64) (OrderTicket, error) {
	ticket := OrderTicket{TokenID: tokenID, Side: side, Price: price, Size: size, Status: Pending}

	if c.cfg.DryRun {
		ticket.VenueOrderID = "dry-run-placeholder"
		ticket.Status = Filled
		ticket.SubmittedAt = c.now()
		return ticket, nil
	}

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		res, err := c.venue.CreateLimitOrder(ctx, tokenID, side, price, size)
		if err == nil {
			ticket.VenueOrderID = res.OrderID
			ticket.Status = Submitted
			ticket.SubmittedAt = c.now()
			return ticket, nil
		}
		lastErr = err
		if attempt < c.cfg.MaxRetries {
			wait := time.Duration(math.Pow(c.cfg.RetryBackoffBase, float64(attempt)) * float64(time.Second))
			c.sleep(wait)
		}
	}

	ticket.Status = Failed
	return ticket, fmt.Errorf("%w: %v", venue.ErrTransientVenue, lastErr)
}

// PlaceArbPair submits both legs concurrently. If either leg fails to
// submit, the successfully submitted counterpart is cancelled and
// both legs are returned non-filled.
func (c *Coordinator) PlaceArbPair(ctx context.Context, yesToken, noToken string, yesPrice, noPrice, size float64) (PairedOrder, error) {
	pair := PairedOrder{PairID: uuid.New().String()}

	if c.cfg.DryRun {
		pair.YesLeg = OrderTicket{TokenID: yesToken, Side: venue.Buy, Price: yesPrice, Size: size, Status: Filled, VenueOrderID: "dry-run-placeholder"}
		pair.NoLeg = OrderTicket{TokenID: noToken, Side: venue.Buy, Price: noPrice, Size: size, Status: Filled, VenueOrderID: "dry-run-placeholder"}
		return pair, nil
	}

	type legResult struct {
		ticket OrderTicket
		err    error
	}
	yesCh := make(chan legResult, 1)
	noCh := make(chan legResult, 1)

	go func() {
		t, err := c.placeOnce(ctx, yesToken, venue.Buy, yesPrice, size)
		yesCh <- legResult{t, err}
	}()
	go func() {
		t, err := c.placeOnce(ctx, noToken, venue.Buy, noPrice, size)
		noCh <- legResult{t, err}
	}()

	yesRes := <-yesCh
	noRes := <-noCh

	pair.YesLeg = yesRes.ticket
	pair.NoLeg = noRes.ticket

	if yesRes.err != nil || noRes.err != nil {
		if yesRes.err == nil && pair.YesLeg.Status == Submitted {
			c.cancelIfSubmitted(ctx, &pair.YesLeg)
		}
		if noRes.err == nil && pair.NoLeg.Status == Submitted {
			c.cancelIfSubmitted(ctx, &pair.NoLeg)
		}
		return pair, fmt.Errorf("%w: paired submission failed", venue.ErrTransientVenue)
	}

	c.monitorArbFills(ctx, &pair)
	return pair, nil
}

func (c *Coordinator) placeOnce(ctx context.Context, tokenID string, side venue.Side, price, size float64) (OrderTicket, error) {
	ticket := OrderTicket{TokenID: tokenID, Side: side, Price: price, Size: size, Status: Pending}
	res, err := c.venue.CreateLimitOrder(ctx, tokenID, side, price, size)
	if err != nil {
		ticket.Status = Failed
		return ticket, err
	}
	ticket.VenueOrderID = res.OrderID
	ticket.Status = Submitted
	ticket.SubmittedAt = c.now()
	return ticket, nil
}

// monitorArbFills polls the venue's open-order list with a one-second
// cadence until both legs have left the list (filled) or the deadline
// elapses, then resolves the three-way timeout outcome.
func (c *Coordinator) monitorArbFills(ctx context.Context, pair *PairedOrder) {
	deadline := c.now().Add(c.cfg.OrderTimeout)

	for c.now().Before(deadline) {
		open, err := c.venue.GetOpenOrders(ctx)
		if err != nil {
			c.sleep(time.Second)
			continue
		}
		yesDone := c.checkFilledLocked(&pair.YesLeg, open)
		noDone := c.checkFilledLocked(&pair.NoLeg, open)
		if yesDone && noDone {
			return
		}
		c.sleep(time.Second)
	}

	yesFilled := pair.YesLeg.Status == Filled
	noFilled := pair.NoLeg.Status == Filled

	switch {
	case yesFilled && noFilled:
		return
	case yesFilled && !noFilled:
		c.cancelIfSubmitted(ctx, &pair.NoLeg)
		c.recoverFilledLeg(ctx, &pair.YesLeg)
	case !yesFilled && noFilled:
		c.cancelIfSubmitted(ctx, &pair.YesLeg)
		c.recoverFilledLeg(ctx, &pair.NoLeg)
	default:
		c.cancelIfSubmitted(ctx, &pair.YesLeg)
		c.cancelIfSubmitted(ctx, &pair.NoLeg)
	}
}

// checkFilledLocked marks ticket Filled if it is absent from the
// open-orders list — the only fill signal the venue exposes.
func (c *Coordinator) checkFilledLocked(ticket *OrderTicket, open []venue.OpenOrder) bool {
	if ticket.Status == Filled {
		return true
	}
	for _, o := range open {
		if o.ID == ticket.VenueOrderID {
			return false
		}
	}
	ticket.Status = Filled
	return true
}

// recoverFilledLeg sells the filled leg at its entry price for the
// same size, neutralizing directional exposure. If the recovery sell
// does not itself fill within another OrderTimeout, a warning is
// surfaced and the position is left on the books for the risk manager
// to constrain future exposure (P7).
func (c *Coordinator) recoverFilledLeg(ctx context.Context, leg *OrderTicket) {
	sellTicket, err := c.placeOnce(ctx, leg.TokenID, venue.Sell, leg.Price, leg.Size)
	if err != nil {
		log.Printf("execution: recovery sell failed to submit for %s: %v", leg.TokenID, err)
		return
	}

	deadline := c.now().Add(c.cfg.OrderTimeout)
	for c.now().Before(deadline) {
		open, err := c.venue.GetOpenOrders(ctx)
		if err == nil && c.checkFilledLocked(&sellTicket, open) {
			return
		}
		c.sleep(time.Second)
	}
	log.Printf("execution: recovery sell for %s did not fill within timeout; residual position left on the books", leg.TokenID)
}

func (c *Coordinator) cancelIfSubmitted(ctx context.Context, ticket *OrderTicket) {
	if ticket.Status != Submitted {
		return
	}
	if err := c.venue.CancelOrder(ctx, ticket.VenueOrderID); err != nil {
		log.Printf("execution: cancel failed for %s (tolerated): %v", ticket.VenueOrderID, err)
	}
	ticket.Status = Cancelled
}

// CancelAll is invoked by the Scheduler on shutdown.
func (c *Coordinator) CancelAll(ctx context.Context) error {
	return c.venue.CancelAllOrders(ctx)
}
