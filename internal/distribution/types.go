package distribution

import "fmt"

// PayoutPreference decides which wallet bucket a profit share lands in.
type PayoutPreference string

const (
	// PreferenceCompound credits PRINCIPAL so the share earns future profit.
	PreferenceCompound PayoutPreference = "compound"
	// PreferencePayout credits PROFIT so the share is immediately withdrawable.
	PreferencePayout PayoutPreference = "payout"
)

// ParsePayoutPreference validates a raw preference name.
func ParsePayoutPreference(raw string) (PayoutPreference, error) {
	switch PayoutPreference(raw) {
	case PreferenceCompound, PreferencePayout:
		return PayoutPreference(raw), nil
	default:
		return "", fmt.Errorf("%w: unknown payout preference %q", ErrValidation, raw)
	}
}

// Participant is one wallet eligible for a profit share: positive principal
// and a payout preference.
type Participant struct {
	UserID         string
	PrincipalCents int64
	Preference     PayoutPreference
	Email          string
}

// PerformancePeriod aggregates one reporting window's financials. Once
// locked the financial fields are immutable; DistributionLinked flips true
// exactly once, when a distribution consumes the period.
type PerformancePeriod struct {
	PeriodID             string
	Label                string
	GrossProfitCents     int64
	GrossLossCents       int64
	CapitalDeployedCents int64
	Locked               bool
	DistributionLinked   bool
	CreatedUnixUTC       int64
}

// NetProfitCents is gross profit minus gross loss.
func (period PerformancePeriod) NetProfitCents() int64 {
	return period.GrossProfitCents - period.GrossLossCents
}

// ROIBasisPoints is net profit over capital deployed, zero when no capital
// was deployed.
func (period PerformancePeriod) ROIBasisPoints() int64 {
	if period.CapitalDeployedCents == 0 {
		return 0
	}
	return period.NetProfitCents() * 10000 / period.CapitalDeployedCents
}

// DistributeInput names the profit to distribute. PeriodID is optional; when
// set, the period must be locked and not yet distributed, and a non-zero
// AmountCents must match the period's net profit.
type DistributeInput struct {
	AmountCents int64
	PeriodID    string
}

// DistributionSummary is the platform-wide record of one distribution run.
type DistributionSummary struct {
	DistributionID     string
	PeriodID           string
	Recipients         int
	TotalProfitCents   int64
	AdminShareCents    int64
	InvestorShareCents int64
	TaxWithheldCents   int64
	Errors             int
	CreatedUnixUTC     int64
}

// SettlementSummary aggregates one sweep or liquidation run. Per-user
// failures are counted, never fatal to the batch.
type SettlementSummary struct {
	UsersSwept int
	TotalCents int64
	Errors     int
}

// ActiveLot is the view of an open investment lot a liquidation closes.
// Fixed lots hold their amount in LOCKED; flexi lots sit in PRINCIPAL.
type ActiveLot struct {
	InvestmentID string
	UserID       string
	AmountCents  int64
	Flexi        bool
}
