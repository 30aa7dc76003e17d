package metrics

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Add(n uint64) {
	atomic.AddUint64(&c.value, n)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Payments counts order creation and verification outcomes. Each terminal
// state of a verification attempt has its own counter so that malformed
// reports and forged signatures are never folded together.
type Payments struct {
	OrdersCreated      Counter
	OrdersInvalid      Counter
	OrdersFailed       Counter
	GatewayLatencyMs   Counter
	VerifyInvalid      Counter
	VerifyRejected     Counter
	VerifyConfirmed    Counter
	VerifyDuplicate    Counter
	VerifyPersistFails Counter
}

func NewPayments() *Payments {
	return &Payments{}
}

// ObserveGateway accumulates upstream call time in milliseconds.
func (p *Payments) ObserveGateway(t *Timer) {
	p.GatewayLatencyMs.Add(uint64(t.Duration().Milliseconds()))
}

func (p *Payments) Snapshot() map[string]uint64 {
	return map[string]uint64{
		"orders_created":           p.OrdersCreated.Load(),
		"orders_invalid":           p.OrdersInvalid.Load(),
		"orders_failed":            p.OrdersFailed.Load(),
		"gateway_latency_ms_total": p.GatewayLatencyMs.Load(),
		"verify_invalid":           p.VerifyInvalid.Load(),
		"verify_rejected":          p.VerifyRejected.Load(),
		"verify_confirmed":         p.VerifyConfirmed.Load(),
		"verify_duplicate":         p.VerifyDuplicate.Load(),
		"verify_persist_failed":    p.VerifyPersistFails.Load(),
	}
}

// Handler serves the current snapshot as JSON.
func (p *Payments) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(p.Snapshot())
	}
}
