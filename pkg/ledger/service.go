package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Service contains the transactional money-movement logic over a Store.
// Every balance change flows through RecordTransaction as a balanced set of
// movements; no caller mutates wallet buckets directly.
type Service struct {
	store  Store
	nowFn  func() int64
	logger OperationLogger
}

// NewService wires a Service.
func NewService(store Store, now func() int64, options ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidServiceConfig)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock dependency is nil", ErrInvalidServiceConfig)
	}
	service := &Service{store: store, nowFn: now}
	for _, option := range options {
		if option != nil {
			option(service)
		}
	}
	return service, nil
}

// RecordTransaction validates the balance law, persists one transaction row
// plus one entry per movement, and applies the signed deltas to every
// affected wallet, all in one atomic unit.
func (service *Service) RecordTransaction(ctx context.Context, input TransactionInput) (Transaction, error) {
	var recorded Transaction
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		transaction, err := service.recordIn(ctx, transactionStore, input)
		if err != nil {
			return err
		}
		recorded = transaction
		return nil
	})
	service.logOperation(ctx, OperationLog{
		Operation:     operationRecord,
		UserID:        input.UserID,
		Type:          input.Type,
		TransactionID: recorded.TransactionID,
		Amount:        input.Amount,
		ReferenceID:   input.ReferenceID,
		Error:         operationError,
	})
	if operationError != nil {
		return Transaction{}, operationError
	}
	return recorded, nil
}

// Balance returns the cached wallet projection for a user.
func (service *Service) Balance(ctx context.Context, userID UserID) (WalletBalance, error) {
	return service.store.GetWallet(ctx, userID)
}

// PostPendingTransaction settles a PENDING transaction: it flips the status
// to SUCCESS and posts the supplied balanced movements under the existing
// row. The conditional flip is the idempotency guard; a second call fails
// with ErrInvalidState and moves nothing.
func (service *Service) PostPendingTransaction(ctx context.Context, transactionID string, movements []Movement) (Transaction, error) {
	var posted Transaction
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		transaction, err := transactionStore.GetTransactionForUpdate(ctx, transactionID)
		if err != nil {
			return err
		}
		if transaction.Status != StatusPending {
			return WrapError(operationPost, "transaction", "invalid_state",
				fmt.Errorf("%w: transaction %s is %s", ErrInvalidState, transactionID, transaction.Status))
		}
		owner, err := NewUserID(transaction.UserID)
		if err != nil {
			return err
		}
		input := TransactionInput{
			UserID:    owner,
			Type:      transaction.Type,
			Amount:    transaction.AmountCents,
			Movements: movements,
		}
		if err := validateInput(input, StatusSuccess); err != nil {
			return err
		}
		if err := transactionStore.UpdateTransactionStatus(ctx, transactionID, StatusPending, StatusSuccess); err != nil {
			return err
		}
		if err := service.applyWalletDeltas(ctx, transactionStore, movements); err != nil {
			return err
		}
		nowUnixUTC := service.nowFn()
		for _, movement := range movements {
			entry := Entry{
				EntryID:        uuid.NewString(),
				UserID:         movement.Owner.String(),
				Account:        movement.Account,
				Direction:      movement.Direction,
				AmountCents:    movement.Amount,
				TransactionID:  transaction.TransactionID,
				ReferenceType:  transaction.ReferenceType,
				ReferenceID:    transaction.ReferenceID,
				CreatedUnixUTC: nowUnixUTC,
			}
			if err := transactionStore.InsertEntry(ctx, entry); err != nil {
				return err
			}
		}
		transaction.Status = StatusSuccess
		posted = transaction
		return nil
	})
	service.logOperation(ctx, OperationLog{
		Operation:     operationPost,
		Type:          posted.Type,
		TransactionID: transactionID,
		Amount:        posted.AmountCents,
		Error:         operationError,
	})
	if operationError != nil {
		return Transaction{}, operationError
	}
	return posted, nil
}

// recordIn runs the record contract against an already transactional store,
// so withdrawal and workflow paths can post inside their own atomic unit.
func (service *Service) recordIn(ctx context.Context, transactionStore Store, input TransactionInput) (Transaction, error) {
	status := input.Status
	if status == "" {
		status = StatusSuccess
	}
	if err := validateInput(input, status); err != nil {
		return Transaction{}, err
	}
	nowUnixUTC := service.nowFn()
	netAmount := input.NetAmount
	if netAmount == 0 {
		netAmount = input.Amount - input.Fee
	}
	transaction := Transaction{
		TransactionID:  uuid.NewString(),
		UserID:         input.UserID.String(),
		Type:           input.Type,
		Status:         status,
		AmountCents:    input.Amount,
		FeeCents:       input.Fee,
		NetCents:       netAmount,
		ReferenceType:  input.ReferenceType,
		ReferenceID:    input.ReferenceID,
		Description:    input.Description,
		MetadataJSON:   input.Metadata.String(),
		CreatedUnixUTC: nowUnixUTC,
	}
	if transaction.MetadataJSON == "" {
		transaction.MetadataJSON = "{}"
	}
	if err := transactionStore.InsertTransaction(ctx, transaction); err != nil {
		return Transaction{}, err
	}
	if err := service.applyWalletDeltas(ctx, transactionStore, input.Movements); err != nil {
		return Transaction{}, err
	}
	for _, movement := range input.Movements {
		entry := Entry{
			EntryID:        uuid.NewString(),
			UserID:         movement.Owner.String(),
			Account:        movement.Account,
			Direction:      movement.Direction,
			AmountCents:    movement.Amount,
			TransactionID:  transaction.TransactionID,
			ReferenceType:  input.ReferenceType,
			ReferenceID:    input.ReferenceID,
			CreatedUnixUTC: nowUnixUTC,
		}
		if err := transactionStore.InsertEntry(ctx, entry); err != nil {
			return Transaction{}, err
		}
	}
	return transaction, nil
}

// applyWalletDeltas locks each affected wallet, verifies no user bucket goes
// negative, and applies the movement deltas to the projection.
func (service *Service) applyWalletDeltas(ctx context.Context, transactionStore Store, movements []Movement) error {
	type bucketDelta struct {
		account AccountType
		delta   int64
	}
	deltasByUser := map[string][]bucketDelta{}
	userOrder := []string{}
	for _, movement := range movements {
		if !movement.Account.IsUserAccount() {
			continue
		}
		key := movement.Owner.String()
		if _, seen := deltasByUser[key]; !seen {
			userOrder = append(userOrder, key)
		}
		deltasByUser[key] = append(deltasByUser[key], bucketDelta{account: movement.Account, delta: movement.SignedCents()})
	}
	for _, key := range userOrder {
		owner, err := NewUserID(key)
		if err != nil {
			return err
		}
		wallet, err := transactionStore.GetWalletForUpdate(ctx, owner)
		if err != nil {
			return err
		}
		resulting := map[AccountType]int64{
			AccountPrincipal: wallet.PrincipalCents.Int64(),
			AccountProfit:    wallet.ProfitCents.Int64(),
			AccountReferral:  wallet.ReferralCents.Int64(),
			AccountLocked:    wallet.LockedCents.Int64(),
		}
		for _, change := range deltasByUser[key] {
			resulting[change.account] += change.delta
		}
		for accountType, value := range resulting {
			if value < 0 {
				return WrapError(operationRecord, "wallet", "negative_balance",
					fmt.Errorf("%w: %s.%s would be %d", ErrNegativeBalance, key, accountType, value))
			}
		}
		for _, change := range deltasByUser[key] {
			if err := transactionStore.ApplyWalletDelta(ctx, owner, change.account, change.delta); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateInput(input TransactionInput, status TransactionStatus) error {
	if input.UserID.IsZero() {
		return fmt.Errorf("%w: transaction user is required", ErrInvalidUserID)
	}
	if _, err := ParseTransactionType(input.Type.String()); err != nil {
		return err
	}
	if _, err := ParseTransactionStatus(status.String()); err != nil {
		return err
	}
	if input.Amount <= 0 {
		return fmt.Errorf("%w: transaction amount must be positive", ErrInvalidAmountCents)
	}
	// A pending or initiated event may carry no postings yet; a success
	// transaction moves money and must balance.
	if len(input.Movements) == 0 {
		if status == StatusSuccess {
			return fmt.Errorf("%w: a success transaction requires movements", ErrInvalidMovement)
		}
		return nil
	}
	var creditTotal, debitTotal int64
	for _, movement := range input.Movements {
		if movement.Amount <= 0 {
			return fmt.Errorf("%w: movement amount must be positive", ErrInvalidAmountCents)
		}
		if _, err := ParseAccountType(movement.Account.String()); err != nil {
			return err
		}
		if _, err := ParseDirection(movement.Direction.String()); err != nil {
			return err
		}
		if movement.Account.IsUserAccount() && movement.Owner.IsZero() {
			return fmt.Errorf("%w: user account %q requires an owner", ErrInvalidMovement, movement.Account)
		}
		if !movement.Account.IsUserAccount() && !movement.Owner.IsZero() {
			return fmt.Errorf("%w: system account %q cannot have an owner", ErrInvalidMovement, movement.Account)
		}
		switch movement.Direction {
		case Credit:
			creditTotal += movement.Amount.Int64()
		case Debit:
			debitTotal += movement.Amount.Int64()
		}
	}
	if creditTotal != debitTotal {
		return fmt.Errorf("%w: credits %d != debits %d", ErrUnbalancedTransaction, creditTotal, debitTotal)
	}
	return nil
}

func (service *Service) logOperation(ctx context.Context, entry OperationLog) {
	if service.logger == nil {
		return
	}
	if entry.Status == "" {
		if entry.Error != nil {
			entry.Status = operationStatusError
		} else {
			entry.Status = operationStatusOK
		}
	}
	service.logger.LogOperation(ctx, entry)
}
