package ledger

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AmountCents is an integer currency amount in cents.
type AmountCents int64

// Int64 returns the raw cents value.
func (amount AmountCents) Int64() int64 {
	return int64(amount)
}

// NewAmountCents validates an amount and ensures it is strictly positive.
func NewAmountCents(raw int64) (AmountCents, error) {
	if raw <= 0 {
		return 0, fmt.Errorf("%w: must be greater than zero", ErrInvalidAmountCents)
	}
	return AmountCents(raw), nil
}

// UserID identifies an account owner.
type UserID struct {
	value string
}

// NewUserID validates and normalizes a user id.
func NewUserID(raw string) (UserID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return UserID{}, fmt.Errorf("%w: empty value", ErrInvalidUserID)
	}
	return UserID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id UserID) String() string {
	return id.value
}

// IsZero reports whether the id is unset (a system account owner).
func (id UserID) IsZero() bool {
	return id.value == ""
}

// MetadataJSON stores arbitrary transaction metadata.
type MetadataJSON struct {
	value string
}

// NewMetadataJSON validates metadata string (defaulting to "{}" for empty inputs).
func NewMetadataJSON(raw string) (MetadataJSON, error) {
	normalized := strings.TrimSpace(raw)
	if normalized == "" {
		normalized = "{}"
	}
	if !json.Valid([]byte(normalized)) {
		return MetadataJSON{}, fmt.Errorf("%w: must be valid json", ErrInvalidMetadataJSON)
	}
	return MetadataJSON{value: normalized}, nil
}

// String returns the normalized JSON blob.
func (metadata MetadataJSON) String() string {
	return metadata.value
}

// AccountType enumerates ledger accounts. User-owned buckets carry an owner;
// clearing accounts are system-wide with no owner.
type AccountType string

const (
	AccountPrincipal AccountType = "principal"
	AccountProfit    AccountType = "profit"
	AccountReferral  AccountType = "referral"
	AccountLocked    AccountType = "locked"

	AccountGateway      AccountType = "gateway"
	AccountAdminBank    AccountType = "admin_bank"
	AccountSystemPool   AccountType = "system_pool"
	AccountReferralPool AccountType = "referral_pool"
	AccountProfitPool   AccountType = "profit_pool"
)

// String returns the account type name.
func (accountType AccountType) String() string {
	return string(accountType)
}

// IsUserAccount reports whether the account belongs to a user wallet bucket.
func (accountType AccountType) IsUserAccount() bool {
	switch accountType {
	case AccountPrincipal, AccountProfit, AccountReferral, AccountLocked:
		return true
	default:
		return false
	}
}

// ParseAccountType validates a raw account type name.
func ParseAccountType(raw string) (AccountType, error) {
	switch AccountType(raw) {
	case AccountPrincipal, AccountProfit, AccountReferral, AccountLocked,
		AccountGateway, AccountAdminBank, AccountSystemPool, AccountReferralPool, AccountProfitPool:
		return AccountType(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAccountType, raw)
	}
}

// Direction marks a posting as a debit or a credit.
type Direction string

const (
	Debit  Direction = "debit"
	Credit Direction = "credit"
)

// String returns the direction name.
func (direction Direction) String() string {
	return string(direction)
}

// ParseDirection validates a raw direction name.
func ParseDirection(raw string) (Direction, error) {
	switch Direction(raw) {
	case Debit, Credit:
		return Direction(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, raw)
	}
}

// TransactionType enumerates logical business events.
type TransactionType string

const (
	TransactionDeposit             TransactionType = "deposit"
	TransactionWithdrawalRequest   TransactionType = "withdrawal_request"
	TransactionWithdrawalApproval  TransactionType = "withdrawal_approval"
	TransactionWithdrawalRejection TransactionType = "withdrawal_rejection"
	TransactionProfitShare         TransactionType = "profit_share"
	TransactionReferralBonus       TransactionType = "referral_bonus"
	TransactionAdminFee            TransactionType = "admin_fee"
	TransactionAdjustment          TransactionType = "adjustment"
	TransactionMaturityRollover    TransactionType = "maturity_rollover"
	TransactionSettlement          TransactionType = "settlement"
)

// ParseTransactionType validates a raw transaction type name.
func ParseTransactionType(raw string) (TransactionType, error) {
	switch TransactionType(raw) {
	case TransactionDeposit, TransactionWithdrawalRequest, TransactionWithdrawalApproval,
		TransactionWithdrawalRejection, TransactionProfitShare, TransactionReferralBonus,
		TransactionAdminFee, TransactionAdjustment, TransactionMaturityRollover, TransactionSettlement:
		return TransactionType(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTransactionType, raw)
	}
}

// String returns the transaction type name.
func (transactionType TransactionType) String() string {
	return string(transactionType)
}

// TransactionStatus tracks the lifecycle of a business event.
type TransactionStatus string

const (
	StatusInitiated TransactionStatus = "initiated"
	StatusPending   TransactionStatus = "pending"
	StatusSuccess   TransactionStatus = "success"
	StatusFailed    TransactionStatus = "failed"
	StatusReversed  TransactionStatus = "reversed"
)

// String returns the status name.
func (status TransactionStatus) String() string {
	return string(status)
}

// ParseTransactionStatus validates a raw status name.
func ParseTransactionStatus(raw string) (TransactionStatus, error) {
	switch TransactionStatus(raw) {
	case StatusInitiated, StatusPending, StatusSuccess, StatusFailed, StatusReversed:
		return TransactionStatus(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTransactionStatus, raw)
	}
}

// Movement is one requested posting inside a transaction. System accounts
// leave Owner zero.
type Movement struct {
	Owner     UserID
	Account   AccountType
	Direction Direction
	Amount    AmountCents
}

// SignedCents returns the movement's effect on its account balance
// (credits increase, debits decrease).
func (movement Movement) SignedCents() int64 {
	if movement.Direction == Credit {
		return movement.Amount.Int64()
	}
	return -movement.Amount.Int64()
}

// TransactionInput describes a business event to record.
type TransactionInput struct {
	UserID        UserID
	Type          TransactionType
	Status        TransactionStatus
	Amount        AmountCents
	Fee           AmountCents
	NetAmount     AmountCents
	ReferenceType string
	ReferenceID   string
	Description   string
	Metadata      MetadataJSON
	Movements     []Movement
}

// Transaction is one recorded business event.
type Transaction struct {
	TransactionID  string
	UserID         string
	Type           TransactionType
	Status         TransactionStatus
	AmountCents    AmountCents
	FeeCents       AmountCents
	NetCents       AmountCents
	ReferenceType  string
	ReferenceID    string
	Description    string
	MetadataJSON   string
	CreatedUnixUTC int64
}

// Entry is a single immutable posting. Corrections are new offsetting
// entries, never updates.
type Entry struct {
	EntryID        string
	UserID         string
	Account        AccountType
	Direction      Direction
	AmountCents    AmountCents
	TransactionID  string
	ReferenceType  string
	ReferenceID    string
	CreatedUnixUTC int64
}

// WalletBalance is the cached per-user projection of the four buckets.
// Derived from entries; rebuildable at any time.
type WalletBalance struct {
	UserID         string
	PrincipalCents AmountCents
	ProfitCents    AmountCents
	ReferralCents  AmountCents
	LockedCents    AmountCents
}

// AvailableCents is what a withdrawal request may draw on.
func (wallet WalletBalance) AvailableCents() AmountCents {
	return wallet.PrincipalCents + wallet.ProfitCents + wallet.ReferralCents
}

// Bucket returns the named bucket value.
func (wallet WalletBalance) Bucket(accountType AccountType) (AmountCents, error) {
	switch accountType {
	case AccountPrincipal:
		return wallet.PrincipalCents, nil
	case AccountProfit:
		return wallet.ProfitCents, nil
	case AccountReferral:
		return wallet.ReferralCents, nil
	case AccountLocked:
		return wallet.LockedCents, nil
	default:
		return 0, fmt.Errorf("%w: %q is not a wallet bucket", ErrInvalidAccountType, accountType)
	}
}

// WithdrawalStatus tracks the withdrawal approval workflow.
type WithdrawalStatus string

const (
	WithdrawalPending  WithdrawalStatus = "pending"
	WithdrawalApproved WithdrawalStatus = "approved"
	WithdrawalRejected WithdrawalStatus = "rejected"
)

// String returns the status name.
func (status WithdrawalStatus) String() string {
	return string(status)
}

// ParseWithdrawalStatus validates a raw withdrawal status name.
func ParseWithdrawalStatus(raw string) (WithdrawalStatus, error) {
	switch WithdrawalStatus(raw) {
	case WithdrawalPending, WithdrawalApproved, WithdrawalRejected:
		return WithdrawalStatus(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidWithdrawalStatus, raw)
	}
}

// Withdrawal is one approval-workflow record. Funds sit in LOCKED while
// the record is pending.
type Withdrawal struct {
	WithdrawalID     string
	UserID           string
	AmountCents      AmountCents
	Status           WithdrawalStatus
	TransactionID    string
	AdminRemark      string
	ProcessedUnixUTC int64
	CreatedUnixUTC   int64
}

// Breakdown records how much of a withdrawal each bucket funded.
type Breakdown struct {
	FromProfitCents    AmountCents `json:"from_profit_cents"`
	FromReferralCents  AmountCents `json:"from_referral_cents"`
	FromPrincipalCents AmountCents `json:"from_principal_cents"`
}

// TotalCents sums the three funded portions.
func (breakdown Breakdown) TotalCents() AmountCents {
	return breakdown.FromProfitCents + breakdown.FromReferralCents + breakdown.FromPrincipalCents
}

// FlexiLot is the view of an active no-lock-in investment lot the waterfall
// draws down when principal funds a withdrawal.
type FlexiLot struct {
	InvestmentID string
	AmountCents  AmountCents
}
