package investment

import (
	"context"
	"fmt"

	"github.com/Janvi-Rao-2108/Invest-hub-sub001/pkg/ledger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BreakInvestment closes an active lot before maturity for a flat 10%
// penalty. The penalty lands in the admin user's profit bucket through a
// balanced admin-fee transaction; the net payout is parked in LOCKED behind
// a new PENDING withdrawal.
func (service *Service) BreakInvestment(ctx context.Context, userID string, investmentID string) (BreakResult, error) {
	var result BreakResult
	err := service.store.WithTx(ctx, func(ctx context.Context, txStore Store) error {
		lot, err := txStore.GetInvestmentForUpdate(ctx, investmentID)
		if err != nil {
			return err
		}
		if lot.UserID != userID {
			return fmt.Errorf("%w: %s", ErrNotFound, investmentID)
		}
		if !lot.IsActive {
			return fmt.Errorf("%w: %s", ErrAlreadyInactive, investmentID)
		}
		won, err := txStore.DeactivateInvestment(ctx, investmentID)
		if err != nil {
			return err
		}
		if !won {
			return fmt.Errorf("%w: %s", ErrAlreadyInactive, investmentID)
		}

		penaltyCents := lot.AmountCents * penaltyBasisPoints / basisPointDenominator
		payoutCents := lot.AmountCents - penaltyCents
		result.PenaltyCents = penaltyCents
		result.PayoutCents = payoutCents

		ledgerService, err := ledger.NewService(txStore.Ledger(), service.nowFn)
		if err != nil {
			return err
		}
		owner, err := ledger.NewUserID(lot.UserID)
		if err != nil {
			return err
		}
		adminID, err := ledger.NewUserID(service.cfg.AdminUserID)
		if err != nil {
			return err
		}
		amount, err := ledger.NewAmountCents(lot.AmountCents)
		if err != nil {
			return err
		}
		penalty, err := ledger.NewAmountCents(penaltyCents)
		if err != nil {
			return err
		}
		payout, err := ledger.NewAmountCents(payoutCents)
		if err != nil {
			return err
		}

		// Fixed lots hold funds in LOCKED, so only the penalty moves and
		// the payout stays locked. Flexi lots hold funds in PRINCIPAL and
		// the payout is repositioned into LOCKED for the withdrawal.
		var movements []ledger.Movement
		if lot.Plan.IsFixed() {
			movements = []ledger.Movement{
				{Owner: owner, Account: ledger.AccountLocked, Direction: ledger.Debit, Amount: penalty},
				{Owner: adminID, Account: ledger.AccountProfit, Direction: ledger.Credit, Amount: penalty},
			}
		} else {
			movements = []ledger.Movement{
				{Owner: owner, Account: ledger.AccountPrincipal, Direction: ledger.Debit, Amount: amount},
				{Owner: owner, Account: ledger.AccountLocked, Direction: ledger.Credit, Amount: payout},
				{Owner: adminID, Account: ledger.AccountProfit, Direction: ledger.Credit, Amount: penalty},
			}
		}
		metadata, err := ledger.NewMetadataJSON(mustJSON(map[string]any{
			"investment_id": investmentID,
			"penalty_cents": penaltyCents,
			"payout_cents":  payoutCents,
			"admin_user_id": service.cfg.AdminUserID,
		}))
		if err != nil {
			return err
		}
		transaction, err := ledgerService.RecordTransaction(ctx, ledger.TransactionInput{
			UserID:        owner,
			Type:          ledger.TransactionAdminFee,
			Amount:        amount,
			Fee:           penalty,
			NetAmount:     payout,
			ReferenceType: referenceTypeInvestment,
			ReferenceID:   investmentID,
			Description:   "early break penalty",
			Metadata:      metadata,
			Movements:     movements,
		})
		if err != nil {
			return err
		}
		result.TransactionID = transaction.TransactionID

		nowUnixUTC := service.nowFn()
		if err := txStore.Ledger().AppendLotLedger(ctx, ledger.LotLedgerRow{
			InvestmentID:     investmentID,
			UserID:           lot.UserID,
			Action:           ledger.LotActionRedemption,
			AmountDeltaCents: -lot.AmountCents,
			BalanceAfter:     0,
			TransactionID:    transaction.TransactionID,
			CreatedUnixUTC:   nowUnixUTC,
		}); err != nil {
			return err
		}

		// The payout already sits in LOCKED; the withdrawal record alone
		// puts it into the approval workflow.
		withdrawal := ledger.Withdrawal{
			WithdrawalID:   uuid.NewString(),
			UserID:         lot.UserID,
			AmountCents:    payout,
			Status:         ledger.WithdrawalPending,
			TransactionID:  transaction.TransactionID,
			AdminRemark:    "early break payout",
			CreatedUnixUTC: nowUnixUTC,
		}
		if err := txStore.Ledger().CreateWithdrawal(ctx, withdrawal); err != nil {
			return err
		}
		result.WithdrawalID = withdrawal.WithdrawalID
		return nil
	})
	if err != nil {
		return BreakResult{}, err
	}
	service.logger.Info("investment broken early",
		zap.String("investment_id", investmentID),
		zap.String("user_id", userID),
		zap.Int64("penalty_cents", result.PenaltyCents),
		zap.Int64("payout_cents", result.PayoutCents))
	return result, nil
}
