package apiserver

// WalletEnvelope wraps the wallet payload returned by the API.
type WalletEnvelope struct {
	Wallet WalletPayload `json:"wallet"`
}

// WalletPayload normalizes the four bucket balances for clients.
type WalletPayload struct {
	UserID         string `json:"user_id"`
	PrincipalCents int64  `json:"principal_cents"`
	ProfitCents    int64  `json:"profit_cents"`
	ReferralCents  int64  `json:"referral_cents"`
	LockedCents    int64  `json:"locked_cents"`
	AvailableCents int64  `json:"available_cents"`
}

// WithdrawalRequestPayload is the body of POST /api/withdrawals.
type WithdrawalRequestPayload struct {
	AmountCents int64 `json:"amount_cents"`
}

// WithdrawalEnvelope reports a created withdrawal and its funding split.
type WithdrawalEnvelope struct {
	WithdrawalID       string `json:"withdrawal_id"`
	TransactionID      string `json:"transaction_id"`
	Status             string `json:"status"`
	AmountCents        int64  `json:"amount_cents"`
	FromProfitCents    int64  `json:"from_profit_cents"`
	FromReferralCents  int64  `json:"from_referral_cents"`
	FromPrincipalCents int64  `json:"from_principal_cents"`
}

// RejectPayload is the body of POST /api/withdrawals/:id/reject.
type RejectPayload struct {
	Remark string `json:"remark"`
}

// InitiateDepositPayload is the body of POST /api/deposits.
type InitiateDepositPayload struct {
	AmountCents int64  `json:"amount_cents"`
	Plan        string `json:"plan"`
}

// DepositEnvelope reports an opened deposit order.
type DepositEnvelope struct {
	DepositID   string `json:"deposit_id"`
	OrderID     string `json:"order_id"`
	AmountCents int64  `json:"amount_cents"`
	Plan        string `json:"plan"`
	Status      string `json:"status"`
}

// BonusEnvelope reports an approved referral bonus.
type BonusEnvelope struct {
	TransactionID string `json:"transaction_id"`
	ReferrerID    string `json:"referrer_id"`
	Status        string `json:"status"`
	AmountCents   int64  `json:"amount_cents"`
}

// VerifyDepositPayload is the body of POST /api/deposits/verify.
type VerifyDepositPayload struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

// VerifyDepositEnvelope reports a verified deposit.
type VerifyDepositEnvelope struct {
	AlreadyProcessed bool   `json:"already_processed"`
	DepositID        string `json:"deposit_id"`
	InvestmentID     string `json:"investment_id,omitempty"`
	TransactionID    string `json:"transaction_id,omitempty"`
}

// BreakEnvelope reports an early investment break.
type BreakEnvelope struct {
	PenaltyCents  int64  `json:"penalty_cents"`
	PayoutCents   int64  `json:"payout_cents"`
	WithdrawalID  string `json:"withdrawal_id"`
	TransactionID string `json:"transaction_id"`
}

// DistributePayload is the body of POST /api/admin/distribute.
type DistributePayload struct {
	AmountCents int64  `json:"amount_cents"`
	PeriodID    string `json:"period_id"`
}

// DistributionEnvelope reports one distribution run.
type DistributionEnvelope struct {
	DistributionID     string `json:"distribution_id"`
	Recipients         int    `json:"recipients"`
	TotalProfitCents   int64  `json:"total_profit_cents"`
	AdminShareCents    int64  `json:"admin_share_cents"`
	InvestorShareCents int64  `json:"investor_share_cents"`
	TaxWithheldCents   int64  `json:"tax_withheld_cents"`
	Errors             int    `json:"errors"`
}

// SettlementPayload is the body of the settle and liquidate endpoints.
type SettlementPayload struct {
	MinBalanceCents int64 `json:"min_balance_cents"`
}

// BatchEnvelope aggregates a best-effort batch run.
type BatchEnvelope struct {
	Processed  int   `json:"processed"`
	TotalCents int64 `json:"total_cents,omitempty"`
	Errors     int   `json:"errors"`
}

// ErrorEnvelope encodes API errors.
type ErrorEnvelope struct {
	Error ErrorPayload `json:"error"`
}

// ErrorPayload contains the code and message for user-visible errors.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
