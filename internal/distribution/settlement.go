package distribution

import (
	"context"

	"github.com/Janvi-Rao-2108/Invest-hub-sub001/pkg/ledger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RunSettlement sweeps each wallet's liquid excess over minBalanceCents
// into a PENDING withdrawal tagged as a settlement sweep. Per-user failures
// are logged and counted; the batch continues.
func (service *Service) RunSettlement(ctx context.Context, minBalanceCents int64) (SettlementSummary, error) {
	owners, err := service.store.ListWalletOwners(ctx)
	if err != nil {
		return SettlementSummary{}, err
	}
	summary := SettlementSummary{}
	for _, owner := range owners {
		sweptCents, err := service.sweepUser(ctx, owner, minBalanceCents)
		if err != nil {
			service.logger.Error("settlement sweep failed",
				zap.String("user_id", owner),
				zap.Int64("attempted_cents", sweptCents),
				zap.Error(err))
			summary.Errors++
			continue
		}
		if sweptCents == 0 {
			continue
		}
		summary.UsersSwept++
		summary.TotalCents += sweptCents
	}
	service.logger.Info("settlement run complete",
		zap.Int("users_swept", summary.UsersSwept),
		zap.Int64("total_cents", summary.TotalCents),
		zap.Int("errors", summary.Errors))
	return summary, nil
}

func (service *Service) sweepUser(ctx context.Context, owner string, minBalanceCents int64) (int64, error) {
	userID, err := ledger.NewUserID(owner)
	if err != nil {
		return 0, err
	}
	wallet, err := service.store.Ledger().GetWallet(ctx, userID)
	if err != nil {
		return 0, err
	}
	excessCents := wallet.AvailableCents().Int64() - minBalanceCents
	if excessCents < minSweepCents {
		return 0, nil
	}
	_, _, _, err = service.ledger.OpenWithdrawal(ctx, userID, ledger.AmountCents(excessCents), settlementRemark)
	if err != nil {
		return excessCents, err
	}
	return excessCents, nil
}

// RunLiquidation closes every active investment lot and parks each user's
// combined liquid and locked capital behind one PENDING withdrawal, taxing
// totals above the liquidation threshold at 1%. Per-user failures are
// logged and counted; the batch continues.
func (service *Service) RunLiquidation(ctx context.Context, minBalanceCents int64) (SettlementSummary, error) {
	owners, err := service.store.ListWalletOwners(ctx)
	if err != nil {
		return SettlementSummary{}, err
	}
	summary := SettlementSummary{}
	for _, owner := range owners {
		payoutCents, err := service.liquidateUser(ctx, owner, minBalanceCents)
		if err != nil {
			service.logger.Error("liquidation failed",
				zap.String("user_id", owner),
				zap.Error(err))
			summary.Errors++
			continue
		}
		if payoutCents == 0 {
			continue
		}
		summary.UsersSwept++
		summary.TotalCents += payoutCents
	}
	service.logger.Info("liquidation run complete",
		zap.Int("users_liquidated", summary.UsersSwept),
		zap.Int64("total_cents", summary.TotalCents),
		zap.Int("errors", summary.Errors))
	return summary, nil
}

// liquidateUser is one user's self-contained liquidation attempt: close the
// user's lots, drain the liquid buckets into LOCKED, withhold the tax, and
// open the combined withdrawal, all in one atomic unit.
func (service *Service) liquidateUser(ctx context.Context, owner string, minBalanceCents int64) (int64, error) {
	payoutCents := int64(0)
	err := service.store.WithTx(ctx, func(ctx context.Context, txStore Store) error {
		txLedger := txStore.Ledger()
		ledgerService, err := ledger.NewService(txLedger, service.nowFn)
		if err != nil {
			return err
		}
		userID, err := ledger.NewUserID(owner)
		if err != nil {
			return err
		}
		wallet, err := txLedger.GetWalletForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		liquidCents := wallet.AvailableCents().Int64() - minBalanceCents
		if liquidCents < 0 {
			liquidCents = 0
		}
		lots, err := txStore.ListActiveLots(ctx, owner)
		if err != nil {
			return err
		}
		lockedCents := int64(0)
		for _, lot := range lots {
			if !lot.Flexi {
				lockedCents += lot.AmountCents
			}
		}
		totalCents := liquidCents + lockedCents
		if totalCents < minSweepCents {
			return nil
		}
		taxCents := int64(0)
		if totalCents > liquidationTaxThresholdCents {
			taxCents = totalCents * liquidationTaxBasisPoints / basisPointDenominator
		}
		payoutCents = totalCents - taxCents

		transactionID := ""
		if liquidCents > 0 || taxCents > 0 {
			transaction, err := service.recordLiquidation(ctx, ledgerService, userID, wallet, liquidCents, lockedCents, taxCents)
			if err != nil {
				return err
			}
			transactionID = transaction.TransactionID
		}
		nowUnixUTC := service.nowFn()
		for _, lot := range lots {
			won, err := txStore.DeactivateLot(ctx, lot.InvestmentID)
			if err != nil {
				return err
			}
			if !won {
				continue
			}
			if err := txLedger.AppendLotLedger(ctx, ledger.LotLedgerRow{
				InvestmentID:     lot.InvestmentID,
				UserID:           owner,
				Action:           ledger.LotActionRedemption,
				AmountDeltaCents: -lot.AmountCents,
				BalanceAfter:     0,
				TransactionID:    transactionID,
				CreatedUnixUTC:   nowUnixUTC,
			}); err != nil {
				return err
			}
		}
		return txLedger.CreateWithdrawal(ctx, ledger.Withdrawal{
			WithdrawalID:   uuid.NewString(),
			UserID:         owner,
			AmountCents:    ledger.AmountCents(payoutCents),
			Status:         ledger.WithdrawalPending,
			TransactionID:  transactionID,
			AdminRemark:    liquidationRemark,
			CreatedUnixUTC: nowUnixUTC,
		})
	})
	if err != nil {
		return 0, err
	}
	return payoutCents, nil
}

// recordLiquidation posts the balanced movements for one liquidation: the
// liquid buckets drain into LOCKED in waterfall order and the tax leaves
// LOCKED for SYSTEM_POOL. The fixed-lot capital is already in LOCKED.
func (service *Service) recordLiquidation(ctx context.Context, ledgerService *ledger.Service, userID ledger.UserID, wallet ledger.WalletBalance, liquidCents, lockedCents, taxCents int64) (ledger.Transaction, error) {
	movements := make([]ledger.Movement, 0, 6)
	if liquidCents > 0 {
		breakdown := ledger.ComputeWaterfall(wallet, ledger.AmountCents(liquidCents))
		if breakdown.FromProfitCents > 0 {
			movements = append(movements, ledger.Movement{Owner: userID, Account: ledger.AccountProfit, Direction: ledger.Debit, Amount: breakdown.FromProfitCents})
		}
		if breakdown.FromReferralCents > 0 {
			movements = append(movements, ledger.Movement{Owner: userID, Account: ledger.AccountReferral, Direction: ledger.Debit, Amount: breakdown.FromReferralCents})
		}
		if breakdown.FromPrincipalCents > 0 {
			movements = append(movements, ledger.Movement{Owner: userID, Account: ledger.AccountPrincipal, Direction: ledger.Debit, Amount: breakdown.FromPrincipalCents})
		}
		movements = append(movements, ledger.Movement{Owner: userID, Account: ledger.AccountLocked, Direction: ledger.Credit, Amount: ledger.AmountCents(liquidCents)})
	}
	if taxCents > 0 {
		movements = append(movements,
			ledger.Movement{Owner: userID, Account: ledger.AccountLocked, Direction: ledger.Debit, Amount: ledger.AmountCents(taxCents)},
			ledger.Movement{Account: ledger.AccountSystemPool, Direction: ledger.Credit, Amount: ledger.AmountCents(taxCents)},
		)
	}
	metadata, err := ledger.NewMetadataJSON(mustJSON(map[string]int64{
		"liquid_cents": liquidCents,
		"locked_cents": lockedCents,
		"tax_cents":    taxCents,
	}))
	if err != nil {
		return ledger.Transaction{}, err
	}
	totalCents := liquidCents + lockedCents
	return ledgerService.RecordTransaction(ctx, ledger.TransactionInput{
		UserID:        userID,
		Type:          ledger.TransactionSettlement,
		Amount:        ledger.AmountCents(totalCents),
		Fee:           ledger.AmountCents(taxCents),
		NetAmount:     ledger.AmountCents(totalCents - taxCents),
		ReferenceType: referenceTypeLiquidation,
		Description:   "full liquidation of wallet and lots",
		Metadata:      metadata,
		Movements:     movements,
	})
}
