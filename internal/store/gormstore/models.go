package gormstore

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Transaction mirrors the transactions table: one row per business event.
type Transaction struct {
	TransactionID string         `gorm:"type:uuid;primaryKey"`
	UserID        string         `gorm:"not null;index:idx_transactions_user_created,priority:1"`
	Type          string         `gorm:"not null"`
	Status        string         `gorm:"not null"`
	AmountCents   int64          `gorm:"not null"`
	FeeCents      int64          `gorm:"not null"`
	NetCents      int64          `gorm:"not null"`
	ReferenceType string         `gorm:""`
	ReferenceID   string         `gorm:"index"`
	Description   string         `gorm:""`
	Metadata      datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt     time.Time      `gorm:"not null;index:idx_transactions_user_created,priority:2"`
}

func (Transaction) TableName() string { return "transactions" }

func (transaction *Transaction) BeforeCreate(tx *gorm.DB) error {
	if transaction.TransactionID == "" {
		transaction.TransactionID = uuid.NewString()
	}
	return nil
}

// LedgerEntry mirrors the ledger_entries table. Rows are append-only;
// corrections are new offsetting rows. A system account row has an empty
// user id.
type LedgerEntry struct {
	EntryID       string    `gorm:"type:uuid;primaryKey"`
	UserID        string    `gorm:"index:idx_entries_user_account,priority:1"`
	Account       string    `gorm:"not null;index:idx_entries_user_account,priority:2"`
	Direction     string    `gorm:"not null"`
	AmountCents   int64     `gorm:"not null"`
	TransactionID string    `gorm:"type:uuid;not null;index"`
	ReferenceType string    `gorm:""`
	ReferenceID   string    `gorm:""`
	CreatedAt     time.Time `gorm:"not null"`
}

func (LedgerEntry) TableName() string { return "ledger_entries" }

func (entry *LedgerEntry) BeforeCreate(tx *gorm.DB) error {
	if entry.EntryID == "" {
		entry.EntryID = uuid.NewString()
	}
	return nil
}

// Wallet mirrors the wallets table: the cached per-user bucket projection.
type Wallet struct {
	UserID         string    `gorm:"primaryKey"`
	PrincipalCents int64     `gorm:"not null"`
	ProfitCents    int64     `gorm:"not null"`
	ReferralCents  int64     `gorm:"not null"`
	LockedCents    int64     `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

func (Wallet) TableName() string { return "wallets" }

// Withdrawal mirrors the withdrawals table.
type Withdrawal struct {
	WithdrawalID  string     `gorm:"type:uuid;primaryKey"`
	UserID        string     `gorm:"not null;index"`
	AmountCents   int64      `gorm:"not null"`
	Status        string     `gorm:"not null;index"`
	TransactionID string     `gorm:"type:uuid"`
	AdminRemark   string     `gorm:""`
	ProcessedAt   *time.Time `gorm:""`
	CreatedAt     time.Time  `gorm:"not null"`
}

func (Withdrawal) TableName() string { return "withdrawals" }

func (withdrawal *Withdrawal) BeforeCreate(tx *gorm.DB) error {
	if withdrawal.WithdrawalID == "" {
		withdrawal.WithdrawalID = uuid.NewString()
	}
	return nil
}

// Investment mirrors the investments table: one lot per verified deposit.
type Investment struct {
	InvestmentID    string     `gorm:"type:uuid;primaryKey"`
	UserID          string     `gorm:"not null;index:idx_investments_user_active,priority:1"`
	AmountCents     int64      `gorm:"not null"`
	Plan            string     `gorm:"not null"`
	StartAt         time.Time  `gorm:"not null"`
	MaturityAt      *time.Time `gorm:"index:idx_investments_maturity"`
	IsActive        bool       `gorm:"not null;index:idx_investments_user_active,priority:2"`
	SourceDepositID string     `gorm:"type:uuid"`
	CreatedAt       time.Time  `gorm:"not null"`
}

func (Investment) TableName() string { return "investments" }

func (investment *Investment) BeforeCreate(tx *gorm.DB) error {
	if investment.InvestmentID == "" {
		investment.InvestmentID = uuid.NewString()
	}
	return nil
}

// InvestmentLedger mirrors the investment_ledger audit table: one row per
// lot mutation, linked to the transaction that moved the money.
type InvestmentLedger struct {
	RowID             string    `gorm:"type:uuid;primaryKey"`
	InvestmentID      string    `gorm:"type:uuid;not null;index"`
	UserID            string    `gorm:"not null"`
	Action            string    `gorm:"not null"`
	AmountDeltaCents  int64     `gorm:"not null"`
	BalanceAfterCents int64     `gorm:"not null"`
	TransactionID     string    `gorm:"type:uuid"`
	CreatedAt         time.Time `gorm:"not null"`
}

func (InvestmentLedger) TableName() string { return "investment_ledger" }

func (row *InvestmentLedger) BeforeCreate(tx *gorm.DB) error {
	if row.RowID == "" {
		row.RowID = uuid.NewString()
	}
	return nil
}

// Deposit mirrors the deposits table: the pending order the gateway
// webhook resolves. The pending→success flip on this row is the
// idempotency guard for duplicate webhook deliveries.
type Deposit struct {
	DepositID   string    `gorm:"type:uuid;primaryKey"`
	UserID      string    `gorm:"not null;index"`
	OrderID     string    `gorm:"not null;uniqueIndex"`
	PaymentID   string    `gorm:""`
	AmountCents int64     `gorm:"not null"`
	Plan        string    `gorm:"not null"`
	Status      string    `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null"`
}

func (Deposit) TableName() string { return "deposits" }

func (deposit *Deposit) BeforeCreate(tx *gorm.DB) error {
	if deposit.DepositID == "" {
		deposit.DepositID = uuid.NewString()
	}
	return nil
}

// User mirrors the users table: the minimum read-side the money workflows
// need. Authentication state lives elsewhere.
type User struct {
	UserID           string    `gorm:"primaryKey"`
	Email            string    `gorm:"uniqueIndex"`
	PayoutPreference string    `gorm:"not null;default:payout"`
	ReferredBy       string    `gorm:""`
	Role             string    `gorm:"not null;default:user"`
	CreatedAt        time.Time `gorm:"not null"`
}

func (User) TableName() string { return "users" }

// PerformancePeriod mirrors the performance_periods table.
type PerformancePeriod struct {
	PeriodID             string    `gorm:"type:uuid;primaryKey"`
	Label                string    `gorm:"not null;uniqueIndex"`
	GrossProfitCents     int64     `gorm:"not null"`
	GrossLossCents       int64     `gorm:"not null"`
	CapitalDeployedCents int64     `gorm:"not null"`
	Locked               bool      `gorm:"not null"`
	DistributionLinked   bool      `gorm:"not null"`
	DistributionID       string    `gorm:"type:uuid"`
	CreatedAt            time.Time `gorm:"not null"`
}

func (PerformancePeriod) TableName() string { return "performance_periods" }

func (period *PerformancePeriod) BeforeCreate(tx *gorm.DB) error {
	if period.PeriodID == "" {
		period.PeriodID = uuid.NewString()
	}
	return nil
}

// ProfitDistribution mirrors the profit_distributions table: one summary
// row per distribution run.
type ProfitDistribution struct {
	DistributionID     string    `gorm:"type:uuid;primaryKey"`
	PeriodID           string    `gorm:"type:uuid"`
	Recipients         int       `gorm:"not null"`
	TotalProfitCents   int64     `gorm:"not null"`
	AdminShareCents    int64     `gorm:"not null"`
	InvestorShareCents int64     `gorm:"not null"`
	TaxWithheldCents   int64     `gorm:"not null"`
	Errors             int       `gorm:"not null"`
	CreatedAt          time.Time `gorm:"not null"`
}

func (ProfitDistribution) TableName() string { return "profit_distributions" }
