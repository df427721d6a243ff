package investment

import (
	"context"

	"github.com/Janvi-Rao-2108/Invest-hub-sub001/pkg/ledger"
	"go.uber.org/zap"
)

const maturityBatchLimit = 500

// RunMaturityCheck rolls every matured fixed lot into a fresh flexi lot:
// the locked principal moves to PRINCIPAL and compounds at the flexible
// rate. Items are independent; one failure is counted and the batch
// continues, and a failed lot stays active for the next scheduled run.
func (service *Service) RunMaturityCheck(ctx context.Context) (BatchResult, error) {
	nowUnixUTC := service.nowFn()
	matured, err := service.store.ListMaturedFixedInvestments(ctx, nowUnixUTC, maturityBatchLimit)
	if err != nil {
		return BatchResult{}, err
	}
	result := BatchResult{}
	for _, lot := range matured {
		if err := service.rollOverLot(ctx, lot); err != nil {
			result.Errors++
			service.logger.Error("maturity rollover failed",
				zap.String("investment_id", lot.InvestmentID),
				zap.String("user_id", lot.UserID),
				zap.Int64("amount_cents", lot.AmountCents),
				zap.Error(err))
			continue
		}
		result.Processed++
	}
	service.logger.Info("maturity check finished",
		zap.Int("processed", result.Processed),
		zap.Int("errors", result.Errors))
	return result, nil
}

func (service *Service) rollOverLot(ctx context.Context, lot Investment) error {
	return service.store.WithTx(ctx, func(ctx context.Context, txStore Store) error {
		// The latch makes overlapping schedule ticks safe: only one run
		// wins the flip for a given lot.
		won, err := txStore.DeactivateInvestment(ctx, lot.InvestmentID)
		if err != nil {
			return err
		}
		if !won {
			return nil
		}
		ledgerService, err := ledger.NewService(txStore.Ledger(), service.nowFn)
		if err != nil {
			return err
		}
		userID, err := ledger.NewUserID(lot.UserID)
		if err != nil {
			return err
		}
		amount, err := ledger.NewAmountCents(lot.AmountCents)
		if err != nil {
			return err
		}
		transaction, err := ledgerService.RecordTransaction(ctx, ledger.TransactionInput{
			UserID:        userID,
			Type:          ledger.TransactionMaturityRollover,
			Amount:        amount,
			ReferenceType: referenceTypeInvestment,
			ReferenceID:   lot.InvestmentID,
			Description:   "fixed lot matured, rolled to flexi",
			Movements: []ledger.Movement{
				{Owner: userID, Account: ledger.AccountLocked, Direction: ledger.Debit, Amount: amount},
				{Owner: userID, Account: ledger.AccountPrincipal, Direction: ledger.Credit, Amount: amount},
			},
		})
		if err != nil {
			return err
		}
		nowUnixUTC := service.nowFn()
		if err := txStore.Ledger().AppendLotLedger(ctx, ledger.LotLedgerRow{
			InvestmentID:     lot.InvestmentID,
			UserID:           lot.UserID,
			Action:           ledger.LotActionMaturity,
			AmountDeltaCents: -lot.AmountCents,
			BalanceAfter:     0,
			TransactionID:    transaction.TransactionID,
			CreatedUnixUTC:   nowUnixUTC,
		}); err != nil {
			return err
		}
		rolled := Investment{
			InvestmentID:    newInvestmentID(),
			UserID:          lot.UserID,
			AmountCents:     lot.AmountCents,
			Plan:            PlanFlexi,
			StartUnixUTC:    nowUnixUTC,
			IsActive:        true,
			SourceDepositID: lot.SourceDepositID,
		}
		if err := txStore.CreateInvestment(ctx, rolled); err != nil {
			return err
		}
		return txStore.Ledger().AppendLotLedger(ctx, ledger.LotLedgerRow{
			InvestmentID:     rolled.InvestmentID,
			UserID:           rolled.UserID,
			Action:           ledger.LotActionCreation,
			AmountDeltaCents: rolled.AmountCents,
			BalanceAfter:     rolled.AmountCents,
			TransactionID:    transaction.TransactionID,
			CreatedUnixUTC:   nowUnixUTC,
		})
	})
}
