package ledger

import "context"

// ReconcileWallet recomputes every bucket of a user's projection purely from
// entry sums and overwrites the cache. The entries always win over the
// projection when the two disagree.
func (service *Service) ReconcileWallet(ctx context.Context, userID UserID) (WalletBalance, error) {
	var rebuilt WalletBalance
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		if _, err := transactionStore.GetWalletForUpdate(ctx, userID); err != nil {
			return err
		}
		buckets := map[AccountType]*AmountCents{}
		rebuilt = WalletBalance{UserID: userID.String()}
		buckets[AccountPrincipal] = &rebuilt.PrincipalCents
		buckets[AccountProfit] = &rebuilt.ProfitCents
		buckets[AccountReferral] = &rebuilt.ReferralCents
		buckets[AccountLocked] = &rebuilt.LockedCents
		for _, accountType := range []AccountType{AccountPrincipal, AccountProfit, AccountReferral, AccountLocked} {
			sum, err := transactionStore.SumAccount(ctx, userID, accountType)
			if err != nil {
				return err
			}
			*buckets[accountType] = AmountCents(sum)
		}
		return transactionStore.SaveWallet(ctx, rebuilt)
	})
	service.logOperation(ctx, OperationLog{
		Operation: operationReconcile,
		UserID:    userID,
		Error:     operationError,
	})
	if operationError != nil {
		return WalletBalance{}, operationError
	}
	return rebuilt, nil
}

// SystemAccountBalance derives a clearing account's balance from entries.
// System accounts have no projection row; the ledger is their only record.
func (service *Service) SystemAccountBalance(ctx context.Context, accountType AccountType) (AmountCents, error) {
	if accountType.IsUserAccount() {
		return 0, WrapError(operationReconcile, "account", "not_system", ErrInvalidAccountType)
	}
	sum, err := service.store.SumAccount(ctx, UserID{}, accountType)
	if err != nil {
		return 0, err
	}
	return AmountCents(sum), nil
}
