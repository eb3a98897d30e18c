package reconcile

import (
	"time"

	"purchase-reconciler/core/diagnostics"
	"purchase-reconciler/core/orders"
)

// LocalOrderRecord is the host's persisted order state.
type LocalOrderRecord = orders.Record

// State is the connection manager's view of the provider session.
type State string

const (
	// StateDisconnected means no session is open.
	StateDisconnected State = "disconnected"
	// StateConnecting means a setup handshake is in flight.
	StateConnecting State = "connecting"
	// StateReady means a session is open and may be borrowed.
	StateReady State = "ready"
	// StateFailed means the last setup attempt failed.
	StateFailed State = "failed"
)

// Stage names a step of a run. Stages double as diagnostics tags.
type Stage string

const (
	StageStateCheck  Stage = "state_check"
	StageConnect     Stage = "connect"
	StageQuery       Stage = "query"
	StageAcknowledge Stage = "acknowledge"
)

// Source tells which entry point delivered a purchase.
type Source string

const (
	// SourceQuery marks purchases returned by an explicit query.
	SourceQuery Source = "query"
	// SourcePush marks purchases delivered by a provider update.
	SourcePush Source = "push"
)

// OutcomeStatus is the classification result of one purchase.
type OutcomeStatus string

const (
	StatusAlreadyAcknowledged OutcomeStatus = "already_acknowledged"
	StatusPending             OutcomeStatus = "pending"
	StatusAcknowledged        OutcomeStatus = "acknowledged"
	StatusFailed              OutcomeStatus = "failed"
)

// Outcome records what happened to one purchase token within a session.
type Outcome struct {
	PurchaseToken string        `json:"purchase_token"`
	OrderID       string        `json:"order_id"`
	Source        Source        `json:"source"`
	Status        OutcomeStatus `json:"status"`
	Code          string        `json:"code,omitempty"`
	Error         string        `json:"error,omitempty"`
}

// Summary provides aggregate counts over a run's outcomes.
type Summary struct {
	Total               int `json:"total"`
	AlreadyAcknowledged int `json:"already_acknowledged"`
	Acknowledged        int `json:"acknowledged"`
	Failed              int `json:"failed"`
	Pending             int `json:"pending"`
}

// RunReport describes one reconciliation run.
type RunReport struct {
	// RunID is unique per run and names the archived report.
	RunID string `json:"run_id"`

	// PaymentID correlates the run with the host's pending payment.
	PaymentID string `json:"payment_id"`

	// OrderID is the local order id read at the start of the run.
	OrderID string `json:"order_id"`

	// Skipped is true when the local record showed nothing to reconcile.
	Skipped bool `json:"skipped"`

	// Stage is the last stage the run reached.
	Stage Stage `json:"stage"`

	// Error describes the connection or query failure that ended the run.
	Error string `json:"error,omitempty"`

	// Code is the provider response code behind Error.
	Code string `json:"code,omitempty"`

	// Purchases is the size of the queried snapshot.
	Purchases int `json:"purchases"`

	// Outcomes lists every purchase classified in the session so far.
	Outcomes []Outcome `json:"outcomes"`

	// Diagnostics holds the sink reports emitted by this run, in order.
	Diagnostics []diagnostics.Entry `json:"diagnostics"`

	Summary    Summary   `json:"summary"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Succeeded reports whether the run ended without any recorded failure.
func (r *RunReport) Succeeded() bool {
	return r.Error == "" && r.Summary.Failed == 0
}

func summarize(outcomes []Outcome) Summary {
	s := Summary{Total: len(outcomes)}
	for _, o := range outcomes {
		switch o.Status {
		case StatusAlreadyAcknowledged:
			s.AlreadyAcknowledged++
		case StatusAcknowledged:
			s.Acknowledged++
		case StatusFailed:
			s.Failed++
		case StatusPending:
			s.Pending++
		}
	}
	return s
}
