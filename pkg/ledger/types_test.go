package ledger

import (
	"errors"
	"testing"
)

func TestNewAmountCentsRejectsNonPositive(test *testing.T) {
	test.Parallel()
	for _, raw := range []int64{0, -1, -100} {
		if _, err := NewAmountCents(raw); !errors.Is(err, ErrInvalidAmountCents) {
			test.Fatalf("expected ErrInvalidAmountCents for %d, got %v", raw, err)
		}
	}
	amount, err := NewAmountCents(250)
	if err != nil {
		test.Fatalf("amount: %v", err)
	}
	if amount.Int64() != 250 {
		test.Fatalf("expected 250, got %d", amount.Int64())
	}
}

func TestNewUserIDNormalizes(test *testing.T) {
	test.Parallel()
	userID, err := NewUserID("  user-77  ")
	if err != nil {
		test.Fatalf("user id: %v", err)
	}
	if userID.String() != "user-77" {
		test.Fatalf("expected trimmed id, got %q", userID.String())
	}
	if _, err := NewUserID("   "); !errors.Is(err, ErrInvalidUserID) {
		test.Fatalf("expected ErrInvalidUserID, got %v", err)
	}
}

func TestNewMetadataJSONDefaultsAndValidates(test *testing.T) {
	test.Parallel()
	metadata, err := NewMetadataJSON("")
	if err != nil {
		test.Fatalf("metadata: %v", err)
	}
	if metadata.String() != "{}" {
		test.Fatalf("expected default {}, got %q", metadata.String())
	}
	if _, err := NewMetadataJSON("{not json"); !errors.Is(err, ErrInvalidMetadataJSON) {
		test.Fatalf("expected ErrInvalidMetadataJSON, got %v", err)
	}
}

func TestParseAccountType(test *testing.T) {
	test.Parallel()
	for _, raw := range []string{"principal", "profit", "referral", "locked", "gateway", "admin_bank", "system_pool", "referral_pool", "profit_pool"} {
		if _, err := ParseAccountType(raw); err != nil {
			test.Fatalf("expected %q to parse, got %v", raw, err)
		}
	}
	if _, err := ParseAccountType("escrow"); !errors.Is(err, ErrInvalidAccountType) {
		test.Fatalf("expected ErrInvalidAccountType, got %v", err)
	}
}

func TestIsUserAccount(test *testing.T) {
	test.Parallel()
	if !AccountProfit.IsUserAccount() {
		test.Fatalf("profit is a user account")
	}
	if AccountGateway.IsUserAccount() {
		test.Fatalf("gateway is a system account")
	}
}

func TestMovementSignedCents(test *testing.T) {
	test.Parallel()
	credit := Movement{Account: AccountPrincipal, Direction: Credit, Amount: 400}
	if credit.SignedCents() != 400 {
		test.Fatalf("expected +400, got %d", credit.SignedCents())
	}
	debit := Movement{Account: AccountPrincipal, Direction: Debit, Amount: 400}
	if debit.SignedCents() != -400 {
		test.Fatalf("expected -400, got %d", debit.SignedCents())
	}
}

func TestWalletAvailableExcludesLocked(test *testing.T) {
	test.Parallel()
	wallet := WalletBalance{PrincipalCents: 100, ProfitCents: 50, ReferralCents: 25, LockedCents: 9999}
	if wallet.AvailableCents() != 175 {
		test.Fatalf("expected available 175, got %d", wallet.AvailableCents())
	}
}

func TestParseWithdrawalStatus(test *testing.T) {
	test.Parallel()
	if _, err := ParseWithdrawalStatus("pending"); err != nil {
		test.Fatalf("pending should parse: %v", err)
	}
	if _, err := ParseWithdrawalStatus("cancelled"); !errors.Is(err, ErrInvalidWithdrawalStatus) {
		test.Fatalf("expected ErrInvalidWithdrawalStatus, got %v", err)
	}
}
