package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// RequestWithdrawal drains the user's liquid buckets in waterfall order
// (profit, then referral, then principal) and parks the full amount in
// LOCKED. The caller owns creating the Withdrawal record (see
// OpenWithdrawal for the combined flow).
func (service *Service) RequestWithdrawal(ctx context.Context, userID UserID, amount AmountCents) (Transaction, Breakdown, error) {
	var (
		transaction Transaction
		breakdown   Breakdown
	)
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		var err error
		transaction, breakdown, err = service.requestIn(ctx, transactionStore, userID, amount, "")
		return err
	})
	service.logOperation(ctx, OperationLog{
		Operation:     operationWithdraw,
		UserID:        userID,
		Type:          TransactionWithdrawalRequest,
		TransactionID: transaction.TransactionID,
		Amount:        amount,
		Error:         operationError,
	})
	if operationError != nil {
		return Transaction{}, Breakdown{}, operationError
	}
	return transaction, breakdown, nil
}

// OpenWithdrawal runs the withdrawal request and creates the PENDING
// Withdrawal record in the same atomic unit, linked through the
// transaction's reference id.
func (service *Service) OpenWithdrawal(ctx context.Context, userID UserID, amount AmountCents, remark string) (Withdrawal, Transaction, Breakdown, error) {
	var (
		withdrawal  Withdrawal
		transaction Transaction
		breakdown   Breakdown
	)
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		withdrawalID := uuid.NewString()
		var err error
		transaction, breakdown, err = service.requestIn(ctx, transactionStore, userID, amount, withdrawalID)
		if err != nil {
			return err
		}
		withdrawal = Withdrawal{
			WithdrawalID:   withdrawalID,
			UserID:         userID.String(),
			AmountCents:    amount,
			Status:         WithdrawalPending,
			TransactionID:  transaction.TransactionID,
			AdminRemark:    remark,
			CreatedUnixUTC: service.nowFn(),
		}
		return transactionStore.CreateWithdrawal(ctx, withdrawal)
	})
	service.logOperation(ctx, OperationLog{
		Operation:     operationWithdraw,
		UserID:        userID,
		Type:          TransactionWithdrawalRequest,
		TransactionID: transaction.TransactionID,
		Amount:        amount,
		ReferenceID:   withdrawal.WithdrawalID,
		Error:         operationError,
	})
	if operationError != nil {
		return Withdrawal{}, Transaction{}, Breakdown{}, operationError
	}
	return withdrawal, transaction, breakdown, nil
}

// ApproveWithdrawal moves the locked amount out of the platform into the
// admin clearing account. Re-approving an already processed withdrawal
// fails with ErrInvalidState and moves nothing.
func (service *Service) ApproveWithdrawal(ctx context.Context, withdrawalID string) error {
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		withdrawal, err := transactionStore.GetWithdrawalForUpdate(ctx, withdrawalID)
		if err != nil {
			return err
		}
		if withdrawal.Status != WithdrawalPending {
			return fmt.Errorf("%w: withdrawal %s is %s", ErrInvalidState, withdrawalID, withdrawal.Status)
		}
		nowUnixUTC := service.nowFn()
		if err := transactionStore.UpdateWithdrawalStatus(ctx, withdrawalID, WithdrawalPending, WithdrawalApproved, "", nowUnixUTC); err != nil {
			return err
		}
		owner, err := NewUserID(withdrawal.UserID)
		if err != nil {
			return err
		}
		_, err = service.recordIn(ctx, transactionStore, TransactionInput{
			UserID:        owner,
			Type:          TransactionWithdrawalApproval,
			Amount:        withdrawal.AmountCents,
			ReferenceType: referenceTypeWithdrawal,
			ReferenceID:   withdrawalID,
			Description:   descriptionWithdrawalApproval,
			Movements: []Movement{
				{Owner: owner, Account: AccountLocked, Direction: Debit, Amount: withdrawal.AmountCents},
				{Account: AccountAdminBank, Direction: Credit, Amount: withdrawal.AmountCents},
			},
		})
		return err
	})
	service.logOperation(ctx, OperationLog{
		Operation:   operationApprove,
		Type:        TransactionWithdrawalApproval,
		ReferenceID: withdrawalID,
		Error:       operationError,
	})
	return operationError
}

// RejectWithdrawal returns the locked amount to PRINCIPAL. The original
// waterfall breakdown stays in the request transaction's metadata; the
// refund deliberately does not split back across source buckets.
func (service *Service) RejectWithdrawal(ctx context.Context, withdrawalID string, reason string) error {
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		withdrawal, err := transactionStore.GetWithdrawalForUpdate(ctx, withdrawalID)
		if err != nil {
			return err
		}
		if withdrawal.Status != WithdrawalPending {
			return fmt.Errorf("%w: withdrawal %s is %s", ErrInvalidState, withdrawalID, withdrawal.Status)
		}
		nowUnixUTC := service.nowFn()
		if err := transactionStore.UpdateWithdrawalStatus(ctx, withdrawalID, WithdrawalPending, WithdrawalRejected, reason, nowUnixUTC); err != nil {
			return err
		}
		owner, err := NewUserID(withdrawal.UserID)
		if err != nil {
			return err
		}
		_, err = service.recordIn(ctx, transactionStore, TransactionInput{
			UserID:        owner,
			Type:          TransactionWithdrawalRejection,
			Amount:        withdrawal.AmountCents,
			ReferenceType: referenceTypeWithdrawal,
			ReferenceID:   withdrawalID,
			Description:   descriptionWithdrawalRejected,
			Movements: []Movement{
				{Owner: owner, Account: AccountLocked, Direction: Debit, Amount: withdrawal.AmountCents},
				{Owner: owner, Account: AccountPrincipal, Direction: Credit, Amount: withdrawal.AmountCents},
			},
		})
		return err
	})
	service.logOperation(ctx, OperationLog{
		Operation:   operationReject,
		Type:        TransactionWithdrawalRejection,
		ReferenceID: withdrawalID,
		Error:       operationError,
	})
	return operationError
}

func (service *Service) requestIn(ctx context.Context, transactionStore Store, userID UserID, amount AmountCents, referenceID string) (Transaction, Breakdown, error) {
	if _, err := NewAmountCents(amount.Int64()); err != nil {
		return Transaction{}, Breakdown{}, err
	}
	wallet, err := transactionStore.GetWalletForUpdate(ctx, userID)
	if err != nil {
		return Transaction{}, Breakdown{}, err
	}
	if wallet.AvailableCents() < amount {
		return Transaction{}, Breakdown{}, fmt.Errorf("%w: available %d, requested %d",
			ErrInsufficientFunds, wallet.AvailableCents().Int64(), amount.Int64())
	}
	breakdown := ComputeWaterfall(wallet, amount)
	metadata, err := breakdownMetadata(breakdown)
	if err != nil {
		return Transaction{}, Breakdown{}, err
	}
	movements := make([]Movement, 0, 4)
	if breakdown.FromProfitCents > 0 {
		movements = append(movements, Movement{Owner: userID, Account: AccountProfit, Direction: Debit, Amount: breakdown.FromProfitCents})
	}
	if breakdown.FromReferralCents > 0 {
		movements = append(movements, Movement{Owner: userID, Account: AccountReferral, Direction: Debit, Amount: breakdown.FromReferralCents})
	}
	if breakdown.FromPrincipalCents > 0 {
		movements = append(movements, Movement{Owner: userID, Account: AccountPrincipal, Direction: Debit, Amount: breakdown.FromPrincipalCents})
	}
	movements = append(movements, Movement{Owner: userID, Account: AccountLocked, Direction: Credit, Amount: amount})
	transaction, err := service.recordIn(ctx, transactionStore, TransactionInput{
		UserID:        userID,
		Type:          TransactionWithdrawalRequest,
		Amount:        amount,
		ReferenceType: referenceTypeWithdrawal,
		ReferenceID:   referenceID,
		Description:   descriptionWithdrawalRequest,
		Metadata:      metadata,
		Movements:     movements,
	})
	if err != nil {
		return Transaction{}, Breakdown{}, err
	}
	if breakdown.FromPrincipalCents > 0 {
		if err := service.drawDownFlexiLots(ctx, transactionStore, userID, breakdown.FromPrincipalCents, transaction.TransactionID); err != nil {
			return Transaction{}, Breakdown{}, err
		}
	}
	return transaction, breakdown, nil
}

// ComputeWaterfall drains profit first, then referral, then principal.
func ComputeWaterfall(wallet WalletBalance, amount AmountCents) Breakdown {
	remaining := amount
	breakdown := Breakdown{}
	if take := minCents(remaining, wallet.ProfitCents); take > 0 {
		breakdown.FromProfitCents = take
		remaining -= take
	}
	if take := minCents(remaining, wallet.ReferralCents); take > 0 {
		breakdown.FromReferralCents = take
		remaining -= take
	}
	if remaining > 0 {
		breakdown.FromPrincipalCents = remaining
	}
	return breakdown
}

// drawDownFlexiLots reduces flexi investment lots largest-first to mirror
// the principal portion of a withdrawal, closing a lot when fully drained.
// Principal not attributable to a lot (compounded profit) has no mirror.
func (service *Service) drawDownFlexiLots(ctx context.Context, transactionStore Store, userID UserID, portion AmountCents, transactionID string) error {
	lots, err := transactionStore.ListActiveFlexiLots(ctx, userID)
	if err != nil {
		return err
	}
	remaining := portion.Int64()
	nowUnixUTC := service.nowFn()
	for _, lot := range lots {
		if remaining <= 0 {
			break
		}
		take := lot.AmountCents.Int64()
		if take > remaining {
			take = remaining
		}
		newAmount := lot.AmountCents.Int64() - take
		if err := transactionStore.ReduceFlexiLot(ctx, lot.InvestmentID, newAmount, newAmount > 0); err != nil {
			return err
		}
		row := LotLedgerRow{
			InvestmentID:     lot.InvestmentID,
			UserID:           userID.String(),
			Action:           LotActionRedemption,
			AmountDeltaCents: -take,
			BalanceAfter:     newAmount,
			TransactionID:    transactionID,
			CreatedUnixUTC:   nowUnixUTC,
		}
		if err := transactionStore.AppendLotLedger(ctx, row); err != nil {
			return err
		}
		remaining -= take
	}
	return nil
}

func breakdownMetadata(breakdown Breakdown) (MetadataJSON, error) {
	payload, err := json.Marshal(map[string]Breakdown{"breakdown": breakdown})
	if err != nil {
		return MetadataJSON{}, fmt.Errorf("%w: %v", ErrInvalidMetadataJSON, err)
	}
	return NewMetadataJSON(string(payload))
}

func minCents(a, b AmountCents) AmountCents {
	if a < b {
		return a
	}
	return b
}
