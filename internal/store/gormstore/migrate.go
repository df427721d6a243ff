package gormstore

import (
	"fmt"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates every table the stores touch. Intended for
// sqlite and development databases; production postgres schemas are managed
// by migrations.
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&User{},
		&Wallet{},
		&Transaction{},
		&LedgerEntry{},
		&Withdrawal{},
		&Deposit{},
		&Investment{},
		&InvestmentLedger{},
		&PerformancePeriod{},
		&ProfitDistribution{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
