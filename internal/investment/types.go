package investment

import (
	"fmt"
	"time"
)

// Plan enumerates deposit lock-in schedules.
type Plan string

const (
	PlanFlexi   Plan = "flexi"
	PlanFixed3M Plan = "fixed_3m"
	PlanFixed6M Plan = "fixed_6m"
	PlanFixed1Y Plan = "fixed_1y"
)

// String returns the plan name.
func (plan Plan) String() string {
	return string(plan)
}

// ParsePlan validates a raw plan name.
func ParsePlan(raw string) (Plan, error) {
	switch Plan(raw) {
	case PlanFlexi, PlanFixed3M, PlanFixed6M, PlanFixed1Y:
		return Plan(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPlan, raw)
	}
}

// IsFixed reports whether the plan carries a maturity date.
func (plan Plan) IsFixed() bool {
	return plan != PlanFlexi
}

// LockMonths returns the plan's lock-in length, zero for flexi.
func (plan Plan) LockMonths() int {
	switch plan {
	case PlanFixed3M:
		return 3
	case PlanFixed6M:
		return 6
	case PlanFixed1Y:
		return 12
	default:
		return 0
	}
}

// MaturityUnixUTC computes the maturity timestamp from a start time,
// zero for flexi lots.
func (plan Plan) MaturityUnixUTC(startUnixUTC int64) int64 {
	months := plan.LockMonths()
	if months == 0 {
		return 0
	}
	return time.Unix(startUnixUTC, 0).UTC().AddDate(0, months, 0).Unix()
}

// Investment is one deposit lot. Amount decreases on partial redemption and
// the lot closes when fully drained, broken, or rolled at maturity.
type Investment struct {
	InvestmentID    string
	UserID          string
	AmountCents     int64
	Plan            Plan
	StartUnixUTC    int64
	MaturityUnixUTC int64
	IsActive        bool
	SourceDepositID string
}

// DepositStatus tracks the external-payment record.
type DepositStatus string

const (
	DepositPending DepositStatus = "pending"
	DepositSuccess DepositStatus = "success"
	DepositFailed  DepositStatus = "failed"
)

// Deposit is the pending record a verified gateway payment resolves.
type Deposit struct {
	DepositID      string
	UserID         string
	OrderID        string
	PaymentID      string
	AmountCents    int64
	Plan           Plan
	Status         DepositStatus
	CreatedUnixUTC int64
}

// VerifyResult reports the outcome of a deposit verification call.
// AlreadyProcessed marks the idempotent no-op on duplicate delivery.
type VerifyResult struct {
	AlreadyProcessed bool
	DepositID        string
	InvestmentID     string
	TransactionID    string
}

// BatchResult aggregates a best-effort batch run.
type BatchResult struct {
	Processed int
	Errors    int
}

// BreakResult reports an early break: the flat penalty kept by the
// platform and the payout parked behind a pending withdrawal.
type BreakResult struct {
	PenaltyCents  int64
	PayoutCents   int64
	WithdrawalID  string
	TransactionID string
}
