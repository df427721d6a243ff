package distribution

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/Janvi-Rao-2108/Invest-hub-sub001/internal/notify"
	"github.com/Janvi-Rao-2108/Invest-hub-sub001/pkg/ledger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	tdsThresholdCents            = 500000  // shares above this withhold tax
	tdsBasisPoints               = 1000    // flat 10% withholding
	liquidationTaxThresholdCents = 5000000 // combined payouts above this are taxed
	liquidationTaxBasisPoints    = 100     // flat 1% liquidation tax
	basisPointDenominator        = 10000
	minSweepCents                = 100 // excess below one whole unit stays put

	referenceTypeDistribution = "distribution"
	referenceTypeLiquidation  = "liquidation"

	settlementRemark  = "Settlement Sweep"
	liquidationRemark = "Full Liquidation"
)

// Config carries the service's operational settings.
type Config struct {
	AdminUserID string
}

// Service owns the batch money workflows: profit distribution, the
// quarterly sweep, and full liquidation. Each user's mutation is its own
// atomic unit; one bad record never poisons the rest of a run.
type Service struct {
	store      Store
	ledger     *ledger.Service
	nowFn      func() int64
	logger     *zap.Logger
	dispatcher *notify.Dispatcher
	cfg        Config
}

// NewService wires a Service. The dispatcher may be nil.
func NewService(store Store, now func() int64, logger *zap.Logger, dispatcher *notify.Dispatcher, cfg Config) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidConfig)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock dependency is nil", ErrInvalidConfig)
	}
	if cfg.AdminUserID == "" {
		return nil, fmt.Errorf("%w: admin user id is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ledgerService, err := ledger.NewService(store.Ledger(), now)
	if err != nil {
		return nil, err
	}
	return &Service{
		store:      store,
		ledger:     ledgerService,
		nowFn:      now,
		logger:     logger,
		dispatcher: dispatcher,
		cfg:        cfg,
	}, nil
}

// DistributeProfit splits declared profit 50/50 between the platform and
// the investor pool, then apportions the pool across wallets weighted by
// each wallet's principal share of total principal. Shares above the tax
// threshold withhold 10% to SYSTEM_POOL. COMPOUND preference credits
// PRINCIPAL, PAYOUT credits PROFIT. With zero eligible wallets the run is a
// soft no-op: the profit is logged but not distributed.
func (service *Service) DistributeProfit(ctx context.Context, input DistributeInput) (DistributionSummary, error) {
	amountCents, period, err := service.resolveDeclaredProfit(ctx, input)
	if err != nil {
		return DistributionSummary{}, err
	}
	participants, err := service.store.ListParticipants(ctx)
	if err != nil {
		return DistributionSummary{}, err
	}
	summary := DistributionSummary{
		DistributionID:   uuid.NewString(),
		PeriodID:         input.PeriodID,
		TotalProfitCents: amountCents,
		CreatedUnixUTC:   service.nowFn(),
	}
	totalPrincipalCents := int64(0)
	for _, participant := range participants {
		totalPrincipalCents += participant.PrincipalCents
	}
	if len(participants) == 0 || totalPrincipalCents <= 0 {
		service.logger.Warn("profit logged but not distributed: no eligible wallets",
			zap.Int64("amount_cents", amountCents))
		return summary, nil
	}
	if period.PeriodID != "" {
		won, err := service.store.LinkPerformancePeriod(ctx, period.PeriodID, summary.DistributionID)
		if err != nil {
			return DistributionSummary{}, err
		}
		if !won {
			return DistributionSummary{}, fmt.Errorf("%w: %s", ErrPeriodAlreadyDistributed, period.PeriodID)
		}
	}
	adminShareCents := amountCents / 2
	investorPoolCents := amountCents - adminShareCents
	summary.AdminShareCents = adminShareCents

	if err := service.creditAdminShare(ctx, adminShareCents, summary.DistributionID); err != nil {
		service.logger.Error("admin share credit failed",
			zap.String("distribution_id", summary.DistributionID),
			zap.Int64("amount_cents", adminShareCents),
			zap.Error(err))
		summary.Errors++
	}
	for _, participant := range participants {
		shareCents := weightedShareCents(participant.PrincipalCents, totalPrincipalCents, investorPoolCents)
		if shareCents <= 0 {
			continue
		}
		taxCents := int64(0)
		if shareCents > tdsThresholdCents {
			taxCents = shareCents * tdsBasisPoints / basisPointDenominator
		}
		if err := service.creditShare(ctx, participant, shareCents, taxCents, summary.DistributionID); err != nil {
			service.logger.Error("profit share credit failed",
				zap.String("user_id", participant.UserID),
				zap.Int64("share_cents", shareCents),
				zap.Error(err))
			summary.Errors++
			continue
		}
		summary.Recipients++
		summary.InvestorShareCents += shareCents
		summary.TaxWithheldCents += taxCents
		service.dispatcher.Event(ctx, "profit.credited", map[string]any{
			"user_id":     participant.UserID,
			"share_cents": shareCents,
			"tax_cents":   taxCents,
		})
		if participant.Email != "" {
			service.dispatcher.Email(ctx, participant.Email, "Profit credited",
				fmt.Sprintf("<p>A profit share of %d cents was credited to your wallet.</p>", shareCents-taxCents))
		}
	}
	if err := service.store.CreateDistribution(ctx, summary); err != nil {
		return DistributionSummary{}, err
	}
	service.logger.Info("profit distributed",
		zap.String("distribution_id", summary.DistributionID),
		zap.Int("recipients", summary.Recipients),
		zap.Int64("total_cents", summary.TotalProfitCents),
		zap.Int64("admin_share_cents", summary.AdminShareCents),
		zap.Int64("tax_withheld_cents", summary.TaxWithheldCents),
		zap.Int("errors", summary.Errors))
	return summary, nil
}

// resolveDeclaredProfit validates the input amount against the optional
// performance period and returns the amount to distribute.
func (service *Service) resolveDeclaredProfit(ctx context.Context, input DistributeInput) (int64, PerformancePeriod, error) {
	if input.PeriodID == "" {
		if input.AmountCents <= 0 {
			return 0, PerformancePeriod{}, fmt.Errorf("%w: declared profit must be positive", ErrValidation)
		}
		return input.AmountCents, PerformancePeriod{}, nil
	}
	period, err := service.store.GetPerformancePeriod(ctx, input.PeriodID)
	if err != nil {
		return 0, PerformancePeriod{}, err
	}
	if !period.Locked {
		return 0, PerformancePeriod{}, fmt.Errorf("%w: %s", ErrPeriodNotLocked, period.PeriodID)
	}
	if period.DistributionLinked {
		return 0, PerformancePeriod{}, fmt.Errorf("%w: %s", ErrPeriodAlreadyDistributed, period.PeriodID)
	}
	netCents := period.NetProfitCents()
	if netCents <= 0 {
		return 0, PerformancePeriod{}, fmt.Errorf("%w: period %s has no net profit", ErrValidation, period.PeriodID)
	}
	if input.AmountCents != 0 && input.AmountCents != netCents {
		return 0, PerformancePeriod{}, fmt.Errorf("%w: declared %d, period net %d",
			ErrPeriodAmountMismatch, input.AmountCents, netCents)
	}
	return netCents, period, nil
}

func (service *Service) creditAdminShare(ctx context.Context, adminShareCents int64, distributionID string) error {
	adminID, err := ledger.NewUserID(service.cfg.AdminUserID)
	if err != nil {
		return err
	}
	amount, err := ledger.NewAmountCents(adminShareCents)
	if err != nil {
		return err
	}
	_, err = service.ledger.RecordTransaction(ctx, ledger.TransactionInput{
		UserID:        adminID,
		Type:          ledger.TransactionProfitShare,
		Amount:        amount,
		ReferenceType: referenceTypeDistribution,
		ReferenceID:   distributionID,
		Description:   "platform share of declared profit",
		Movements: []ledger.Movement{
			{Account: ledger.AccountProfitPool, Direction: ledger.Debit, Amount: amount},
			{Owner: adminID, Account: ledger.AccountProfit, Direction: ledger.Credit, Amount: amount},
		},
	})
	return err
}

func (service *Service) creditShare(ctx context.Context, participant Participant, shareCents, taxCents int64, distributionID string) error {
	userID, err := ledger.NewUserID(participant.UserID)
	if err != nil {
		return err
	}
	share, err := ledger.NewAmountCents(shareCents)
	if err != nil {
		return err
	}
	netCents := shareCents - taxCents
	net, err := ledger.NewAmountCents(netCents)
	if err != nil {
		return err
	}
	bucket := ledger.AccountProfit
	if participant.Preference == PreferenceCompound {
		bucket = ledger.AccountPrincipal
	}
	movements := []ledger.Movement{
		{Account: ledger.AccountProfitPool, Direction: ledger.Debit, Amount: share},
		{Owner: userID, Account: bucket, Direction: ledger.Credit, Amount: net},
	}
	if taxCents > 0 {
		movements = append(movements, ledger.Movement{
			Account: ledger.AccountSystemPool, Direction: ledger.Credit, Amount: ledger.AmountCents(taxCents),
		})
	}
	metadata, err := ledger.NewMetadataJSON(mustJSON(map[string]int64{
		"share_cents": shareCents,
		"tax_cents":   taxCents,
	}))
	if err != nil {
		return err
	}
	_, err = service.ledger.RecordTransaction(ctx, ledger.TransactionInput{
		UserID:        userID,
		Type:          ledger.TransactionProfitShare,
		Amount:        share,
		Fee:           ledger.AmountCents(taxCents),
		NetAmount:     net,
		ReferenceType: referenceTypeDistribution,
		ReferenceID:   distributionID,
		Description:   "investor share of declared profit",
		Metadata:      metadata,
		Movements:     movements,
	})
	return err
}

// weightedShareCents apportions the investor pool by principal weight,
// rounded to the nearest cent.
func weightedShareCents(principalCents, totalPrincipalCents, poolCents int64) int64 {
	return int64(math.Round(float64(principalCents) / float64(totalPrincipalCents) * float64(poolCents)))
}

// CreatePeriod records a new open performance period.
func (service *Service) CreatePeriod(ctx context.Context, label string, grossProfitCents, grossLossCents, capitalDeployedCents int64) (PerformancePeriod, error) {
	if label == "" {
		return PerformancePeriod{}, fmt.Errorf("%w: period label is required", ErrValidation)
	}
	if grossProfitCents < 0 || grossLossCents < 0 || capitalDeployedCents < 0 {
		return PerformancePeriod{}, fmt.Errorf("%w: period amounts must be non-negative", ErrValidation)
	}
	period := PerformancePeriod{
		PeriodID:             uuid.NewString(),
		Label:                label,
		GrossProfitCents:     grossProfitCents,
		GrossLossCents:       grossLossCents,
		CapitalDeployedCents: capitalDeployedCents,
		CreatedUnixUTC:       service.nowFn(),
	}
	if err := service.store.CreatePerformancePeriod(ctx, period); err != nil {
		return PerformancePeriod{}, err
	}
	return period, nil
}

// LockPeriod flips the one-way locked latch, freezing the period's
// financial fields. Locking an already locked period is a no-op.
func (service *Service) LockPeriod(ctx context.Context, periodID string) error {
	if _, err := service.store.GetPerformancePeriod(ctx, periodID); err != nil {
		return err
	}
	_, err := service.store.LockPerformancePeriod(ctx, periodID)
	return err
}

func mustJSON(value any) string {
	payload, err := json.Marshal(value)
	if err != nil {
		return "{}"
	}
	return string(payload)
}
