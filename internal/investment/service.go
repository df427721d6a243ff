package investment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Janvi-Rao-2108/Invest-hub-sub001/pkg/ledger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func newInvestmentID() string {
	return uuid.NewString()
}

const (
	defaultReferralBasisPoints = 500  // 5% of the verified deposit
	penaltyBasisPoints         = 1000 // flat 10% early-break penalty
	basisPointDenominator      = 10000

	referenceTypeDeposit    = "deposit"
	referenceTypeInvestment = "investment"
)

// Config carries the service's operational settings.
type Config struct {
	GatewaySecret       []byte
	AdminUserID         string
	ReferralBasisPoints int
}

// Service owns the investment lifecycle: deposit verification, maturity
// rollover, and early break. Money moves only through balanced ledger
// transactions posted inside the same atomic unit as the lot mutation.
type Service struct {
	store  Store
	nowFn  func() int64
	logger *zap.Logger
	cfg    Config
}

// NewService wires a Service.
func NewService(store Store, now func() int64, logger *zap.Logger, cfg Config) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidConfig)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock dependency is nil", ErrInvalidConfig)
	}
	if len(cfg.GatewaySecret) == 0 {
		return nil, fmt.Errorf("%w: gateway secret is required", ErrInvalidConfig)
	}
	if cfg.AdminUserID == "" {
		return nil, fmt.Errorf("%w: admin user id is required", ErrInvalidConfig)
	}
	if cfg.ReferralBasisPoints <= 0 {
		cfg.ReferralBasisPoints = defaultReferralBasisPoints
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, nowFn: now, logger: logger, cfg: cfg}, nil
}

// InitiateDeposit opens a PENDING deposit order the gateway webhook later
// resolves. No money moves here; the ledger only sees the verified event.
func (service *Service) InitiateDeposit(ctx context.Context, userID string, amountCents int64, plan Plan) (Deposit, error) {
	if _, err := ledger.NewUserID(userID); err != nil {
		return Deposit{}, err
	}
	if _, err := ledger.NewAmountCents(amountCents); err != nil {
		return Deposit{}, err
	}
	if _, err := ParsePlan(plan.String()); err != nil {
		return Deposit{}, err
	}
	deposit := Deposit{
		DepositID:      uuid.NewString(),
		UserID:         userID,
		OrderID:        "order_" + uuid.NewString(),
		AmountCents:    amountCents,
		Plan:           plan,
		Status:         DepositPending,
		CreatedUnixUTC: service.nowFn(),
	}
	if err := service.store.CreateDeposit(ctx, deposit); err != nil {
		return Deposit{}, err
	}
	service.logger.Info("deposit initiated",
		zap.String("deposit_id", deposit.DepositID),
		zap.String("order_id", deposit.OrderID),
		zap.String("user_id", userID),
		zap.Int64("amount_cents", amountCents),
		zap.String("plan", plan.String()))
	return deposit, nil
}

// VerifyDeposit consumes a verified gateway payment event. The pending→
// success flip is the storage-level idempotency guard: the losing call of a
// duplicate delivery returns AlreadyProcessed without touching the ledger.
// Failures after the flip are logged and still reported as success, because
// the payment is already captured externally; reconciliation repairs the
// ledger later.
func (service *Service) VerifyDeposit(ctx context.Context, orderID string, paymentID string, signature string) (VerifyResult, error) {
	if err := VerifySignature(orderID, paymentID, signature, service.cfg.GatewaySecret); err != nil {
		service.logger.Warn("deposit signature rejected",
			zap.String("order_id", orderID),
			zap.String("payment_id", paymentID))
		return VerifyResult{}, err
	}
	deposit, err := service.store.GetDepositByOrderID(ctx, orderID)
	if err != nil {
		return VerifyResult{}, err
	}
	won, err := service.store.MarkDepositSuccess(ctx, orderID, paymentID)
	if err != nil {
		return VerifyResult{}, err
	}
	if !won {
		return VerifyResult{AlreadyProcessed: true, DepositID: deposit.DepositID}, nil
	}
	result := VerifyResult{DepositID: deposit.DepositID}
	if err := service.creditDeposit(ctx, deposit, &result); err != nil {
		// The payment is captured; never report failure past the flip.
		service.logger.Error("deposit credit failed after status flip",
			zap.String("order_id", orderID),
			zap.String("deposit_id", deposit.DepositID),
			zap.Int64("amount_cents", deposit.AmountCents),
			zap.Error(err))
	}
	return result, nil
}

func (service *Service) creditDeposit(ctx context.Context, deposit Deposit, result *VerifyResult) error {
	return service.store.WithTx(ctx, func(ctx context.Context, txStore Store) error {
		ledgerService, err := ledger.NewService(txStore.Ledger(), service.nowFn)
		if err != nil {
			return err
		}
		userID, err := ledger.NewUserID(deposit.UserID)
		if err != nil {
			return err
		}
		amount, err := ledger.NewAmountCents(deposit.AmountCents)
		if err != nil {
			return err
		}
		bucket := ledger.AccountPrincipal
		if deposit.Plan.IsFixed() {
			bucket = ledger.AccountLocked
		}
		metadata, err := ledger.NewMetadataJSON(mustJSON(map[string]string{
			"order_id":   deposit.OrderID,
			"payment_id": deposit.PaymentID,
			"plan":       deposit.Plan.String(),
		}))
		if err != nil {
			return err
		}
		transaction, err := ledgerService.RecordTransaction(ctx, ledger.TransactionInput{
			UserID:        userID,
			Type:          ledger.TransactionDeposit,
			Amount:        amount,
			ReferenceType: referenceTypeDeposit,
			ReferenceID:   deposit.DepositID,
			Description:   "gateway deposit verified",
			Metadata:      metadata,
			Movements: []ledger.Movement{
				{Account: ledger.AccountGateway, Direction: ledger.Debit, Amount: amount},
				{Owner: userID, Account: bucket, Direction: ledger.Credit, Amount: amount},
			},
		})
		if err != nil {
			return err
		}
		result.TransactionID = transaction.TransactionID

		nowUnixUTC := service.nowFn()
		investment := Investment{
			InvestmentID:    newInvestmentID(),
			UserID:          deposit.UserID,
			AmountCents:     deposit.AmountCents,
			Plan:            deposit.Plan,
			StartUnixUTC:    nowUnixUTC,
			MaturityUnixUTC: deposit.Plan.MaturityUnixUTC(nowUnixUTC),
			IsActive:        true,
			SourceDepositID: deposit.DepositID,
		}
		if err := txStore.CreateInvestment(ctx, investment); err != nil {
			return err
		}
		result.InvestmentID = investment.InvestmentID
		if err := txStore.Ledger().AppendLotLedger(ctx, ledger.LotLedgerRow{
			InvestmentID:     investment.InvestmentID,
			UserID:           investment.UserID,
			Action:           ledger.LotActionCreation,
			AmountDeltaCents: investment.AmountCents,
			BalanceAfter:     investment.AmountCents,
			TransactionID:    transaction.TransactionID,
			CreatedUnixUTC:   nowUnixUTC,
		}); err != nil {
			return err
		}
		return service.createReferralBonus(ctx, txStore, ledgerService, deposit)
	})
}

// createReferralBonus records a PENDING, unposted bonus transaction for the
// referrer. The admin funds it from their own profit bucket on approval; it
// is never auto-created from a system pool.
func (service *Service) createReferralBonus(ctx context.Context, txStore Store, ledgerService *ledger.Service, deposit Deposit) error {
	referrerID, err := txStore.GetReferrer(ctx, deposit.UserID)
	if err != nil {
		return err
	}
	if referrerID == "" {
		return nil
	}
	bonusCents := deposit.AmountCents * int64(service.cfg.ReferralBasisPoints) / basisPointDenominator
	if bonusCents <= 0 {
		return nil
	}
	referrer, err := ledger.NewUserID(referrerID)
	if err != nil {
		return err
	}
	bonus, err := ledger.NewAmountCents(bonusCents)
	if err != nil {
		return err
	}
	metadata, err := ledger.NewMetadataJSON(mustJSON(map[string]string{
		"referred_user_id": deposit.UserID,
		"deposit_id":       deposit.DepositID,
		"funding_admin_id": service.cfg.AdminUserID,
	}))
	if err != nil {
		return err
	}
	_, err = ledgerService.RecordTransaction(ctx, ledger.TransactionInput{
		UserID:        referrer,
		Type:          ledger.TransactionReferralBonus,
		Status:        ledger.StatusPending,
		Amount:        bonus,
		ReferenceType: referenceTypeDeposit,
		ReferenceID:   deposit.DepositID,
		Description:   "referral bonus awaiting approval",
		Metadata:      metadata,
	})
	return err
}

// ApproveReferralBonus settles a pending bonus transaction: the funding
// admin's profit bucket pays the referrer's referral bucket. The pending→
// success flip inside the ledger guards against double approval.
func (service *Service) ApproveReferralBonus(ctx context.Context, transactionID string) (ledger.Transaction, error) {
	var posted ledger.Transaction
	err := service.store.WithTx(ctx, func(ctx context.Context, txStore Store) error {
		ledgerService, err := ledger.NewService(txStore.Ledger(), service.nowFn)
		if err != nil {
			return err
		}
		transaction, err := txStore.Ledger().GetTransactionForUpdate(ctx, transactionID)
		if err != nil {
			return err
		}
		if transaction.Type != ledger.TransactionReferralBonus {
			return fmt.Errorf("%w: transaction %s is not a referral bonus", ledger.ErrTransactionNotFound, transactionID)
		}
		referrer, err := ledger.NewUserID(transaction.UserID)
		if err != nil {
			return err
		}
		admin, err := ledger.NewUserID(service.cfg.AdminUserID)
		if err != nil {
			return err
		}
		posted, err = ledgerService.PostPendingTransaction(ctx, transactionID, []ledger.Movement{
			{Owner: admin, Account: ledger.AccountProfit, Direction: ledger.Debit, Amount: transaction.AmountCents},
			{Owner: referrer, Account: ledger.AccountReferral, Direction: ledger.Credit, Amount: transaction.AmountCents},
		})
		return err
	})
	if err != nil {
		return ledger.Transaction{}, err
	}
	service.logger.Info("referral bonus approved",
		zap.String("transaction_id", transactionID),
		zap.String("referrer_id", posted.UserID),
		zap.Int64("amount_cents", posted.AmountCents.Int64()))
	return posted, nil
}

func mustJSON(value any) string {
	payload, err := json.Marshal(value)
	if err != nil {
		return "{}"
	}
	return string(payload)
}
