package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Janvi-Rao-2108/Invest-hub-sub001/internal/apiserver"
	"github.com/Janvi-Rao-2108/Invest-hub-sub001/internal/distribution"
	"github.com/Janvi-Rao-2108/Invest-hub-sub001/internal/investment"
	"github.com/Janvi-Rao-2108/Invest-hub-sub001/internal/notify"
	"github.com/Janvi-Rao-2108/Invest-hub-sub001/internal/store/gormstore"
	"github.com/Janvi-Rao-2108/Invest-hub-sub001/pkg/ledger"
)

const (
	flagDatabaseURL    = "database-url"
	flagListenAddr     = "listen-addr"
	flagJWTSigningKey  = "jwt-signing-key"
	flagJWTIssuer      = "jwt-issuer"
	flagAllowedOrigins = "allowed-origins"
	flagAdminUserID    = "admin-user-id"
	flagGatewaySecret  = "gateway-secret"

	configKeyDatabaseURL    = "database_url"
	configKeyListenAddr     = "listen_addr"
	configKeyJWTSigningKey  = "jwt_signing_key"
	configKeyJWTIssuer      = "jwt_issuer"
	configKeyAllowedOrigins = "allowed_origins"
	configKeyAdminUserID    = "admin_user_id"
	configKeyGatewaySecret  = "gateway_secret"

	defaultDatabaseURL = "sqlite:///tmp/investhub.db"
	defaultListenAddr  = ":8080"
	defaultJWTIssuer   = "investd"
)

type runtimeConfig struct {
	DatabaseURL    string
	ListenAddr     string
	JWTSigningKey  string
	JWTIssuer      string
	AllowedOrigins string
	AdminUserID    string
	GatewaySecret  string
}

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "investd: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := &runtimeConfig{}
	cmd := &cobra.Command{
		Use:           "investd",
		Short:         "Pooled-investment ledger server and batch jobs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg)
		},
	}

	cmd.PersistentFlags().String(flagDatabaseURL, defaultDatabaseURL, "PostgreSQL connection string or sqlite path")
	cmd.PersistentFlags().String(flagListenAddr, defaultListenAddr, "HTTP listen address")
	cmd.PersistentFlags().String(flagJWTSigningKey, "", "HMAC key for session tokens")
	cmd.PersistentFlags().String(flagJWTIssuer, defaultJWTIssuer, "expected issuer of session tokens")
	cmd.PersistentFlags().String(flagAllowedOrigins, "http://localhost:3000", "comma-separated CORS origins")
	cmd.PersistentFlags().String(flagAdminUserID, "", "user id that receives the platform profit share")
	cmd.PersistentFlags().String(flagGatewaySecret, "", "payment gateway webhook signing secret")

	cmd.AddCommand(
		newMaturityCommand(cfg),
		newDistributeCommand(cfg),
		newSettleCommand(cfg),
		newLiquidateCommand(cfg),
		newReconcileCommand(cfg),
	)

	return cmd
}

func newMaturityCommand(cfg *runtimeConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "maturity",
		Short: "Roll matured fixed lots into flexi",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd.Context(), cfg, func(ctx context.Context, services apiserver.Services, logger *zap.Logger) error {
				result, err := services.Investment.RunMaturityCheck(ctx)
				if err != nil {
					return err
				}
				logger.Info("maturity check finished",
					zap.Int("processed", result.Processed),
					zap.Int("errors", result.Errors))
				return nil
			})
		},
	}
}

func newDistributeCommand(cfg *runtimeConfig) *cobra.Command {
	var amountCents int64
	var periodID string
	cmd := &cobra.Command{
		Use:   "distribute",
		Short: "Split declared profit between the platform and investors",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd.Context(), cfg, func(ctx context.Context, services apiserver.Services, logger *zap.Logger) error {
				summary, err := services.Distribution.DistributeProfit(ctx, distribution.DistributeInput{
					AmountCents: amountCents,
					PeriodID:    periodID,
				})
				if err != nil {
					return err
				}
				logger.Info("distribution finished",
					zap.String("distribution_id", summary.DistributionID),
					zap.Int("recipients", summary.Recipients),
					zap.Int64("investor_share_cents", summary.InvestorShareCents),
					zap.Int64("tax_withheld_cents", summary.TaxWithheldCents),
					zap.Int("errors", summary.Errors))
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&amountCents, "amount-cents", 0, "declared profit in cents")
	cmd.Flags().StringVar(&periodID, "period-id", "", "locked performance period to distribute")
	return cmd
}

func newSettleCommand(cfg *runtimeConfig) *cobra.Command {
	var minBalanceCents int64
	cmd := &cobra.Command{
		Use:   "settle",
		Short: "Sweep balances above the floor into pending withdrawals",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd.Context(), cfg, func(ctx context.Context, services apiserver.Services, logger *zap.Logger) error {
				summary, err := services.Distribution.RunSettlement(ctx, minBalanceCents)
				if err != nil {
					return err
				}
				logger.Info("settlement finished",
					zap.Int("users_swept", summary.UsersSwept),
					zap.Int64("total_cents", summary.TotalCents),
					zap.Int("errors", summary.Errors))
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&minBalanceCents, "min-balance-cents", 0, "balance each wallet keeps after the sweep")
	return cmd
}

func newLiquidateCommand(cfg *runtimeConfig) *cobra.Command {
	var minBalanceCents int64
	cmd := &cobra.Command{
		Use:   "liquidate",
		Short: "Close every wallet and lot into pending withdrawals",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd.Context(), cfg, func(ctx context.Context, services apiserver.Services, logger *zap.Logger) error {
				summary, err := services.Distribution.RunLiquidation(ctx, minBalanceCents)
				if err != nil {
					return err
				}
				logger.Info("liquidation finished",
					zap.Int("users_liquidated", summary.UsersSwept),
					zap.Int64("total_cents", summary.TotalCents),
					zap.Int("errors", summary.Errors))
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&minBalanceCents, "min-balance-cents", 0, "balance each wallet keeps after liquidation")
	return cmd
}

func newReconcileCommand(cfg *runtimeConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile <user-id>",
		Short: "Rebuild a wallet projection from ledger entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd.Context(), cfg, func(ctx context.Context, services apiserver.Services, logger *zap.Logger) error {
				userID, err := ledger.NewUserID(args[0])
				if err != nil {
					return err
				}
				wallet, err := services.Ledger.ReconcileWallet(ctx, userID)
				if err != nil {
					return err
				}
				logger.Info("wallet reconciled",
					zap.String("user_id", wallet.UserID),
					zap.Int64("principal_cents", wallet.PrincipalCents.Int64()),
					zap.Int64("profit_cents", wallet.ProfitCents.Int64()),
					zap.Int64("referral_cents", wallet.ReferralCents.Int64()),
					zap.Int64("locked_cents", wallet.LockedCents.Int64()))
				return nil
			})
		},
	}
}

func loadConfig(cmd *cobra.Command, cfg *runtimeConfig) error {
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	bindings := map[string]string{
		configKeyDatabaseURL:    "DATABASE_URL",
		configKeyListenAddr:     "HTTP_LISTEN_ADDR",
		configKeyJWTSigningKey:  "JWT_SIGNING_KEY",
		configKeyJWTIssuer:      "JWT_ISSUER",
		configKeyAllowedOrigins: "ALLOWED_ORIGINS",
		configKeyAdminUserID:    "ADMIN_USER_ID",
		configKeyGatewaySecret:  "GATEWAY_SECRET",
	}
	for key, env := range bindings {
		if err := viper.BindEnv(key, env); err != nil {
			return err
		}
	}

	flags := map[string]string{
		configKeyDatabaseURL:    flagDatabaseURL,
		configKeyListenAddr:     flagListenAddr,
		configKeyJWTSigningKey:  flagJWTSigningKey,
		configKeyJWTIssuer:      flagJWTIssuer,
		configKeyAllowedOrigins: flagAllowedOrigins,
		configKeyAdminUserID:    flagAdminUserID,
		configKeyGatewaySecret:  flagGatewaySecret,
	}
	for key, flag := range flags {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return err
		}
	}

	cfg.DatabaseURL = viper.GetString(configKeyDatabaseURL)
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = defaultDatabaseURL
	}
	cfg.ListenAddr = viper.GetString(configKeyListenAddr)
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = defaultListenAddr
	}
	cfg.JWTSigningKey = viper.GetString(configKeyJWTSigningKey)
	cfg.JWTIssuer = viper.GetString(configKeyJWTIssuer)
	if cfg.JWTIssuer == "" {
		cfg.JWTIssuer = defaultJWTIssuer
	}
	cfg.AllowedOrigins = viper.GetString(configKeyAllowedOrigins)
	cfg.AdminUserID = viper.GetString(configKeyAdminUserID)
	cfg.GatewaySecret = viper.GetString(configKeyGatewaySecret)

	if cfg.JWTSigningKey == "" {
		return fmt.Errorf("jwt signing key is required")
	}
	if cfg.AdminUserID == "" {
		return fmt.Errorf("admin user id is required")
	}
	if cfg.GatewaySecret == "" {
		return fmt.Errorf("gateway secret is required")
	}
	return nil
}

func runServer(ctx context.Context, cfg *runtimeConfig) error {
	return withServices(ctx, cfg, func(ctx context.Context, services apiserver.Services, logger *zap.Logger) error {
		server, err := apiserver.NewServer(apiserver.Config{
			ListenAddr:     cfg.ListenAddr,
			AllowedOrigins: apiserver.ParseAllowedOrigins(cfg.AllowedOrigins),
			JWTSigningKey:  []byte(cfg.JWTSigningKey),
			JWTIssuer:      cfg.JWTIssuer,
		}, services, logger)
		if err != nil {
			return fmt.Errorf("server init: %w", err)
		}
		return server.Run(ctx)
	})
}

// withServices opens the database, wires the three domain services, runs fn,
// and closes the connection afterwards. Batch subcommands and the server
// share the same wiring.
func withServices(ctx context.Context, cfg *runtimeConfig, fn func(ctx context.Context, services apiserver.Services, logger *zap.Logger) error) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	gormDB, cleanup, driver, err := openDatabase(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database open: %w", err)
	}
	defer func() { _ = cleanup() }()

	if err := prepareSchema(gormDB, driver); err != nil {
		return err
	}

	clock := func() int64 { return time.Now().UTC().Unix() }
	dispatcher := notify.NewDispatcher(nil, nil, logger)

	ledgerService, err := ledger.NewService(gormstore.New(gormDB), clock,
		ledger.WithOperationLogger(notify.NewZapOperationLogger(logger)))
	if err != nil {
		return fmt.Errorf("ledger service init: %w", err)
	}
	investmentService, err := investment.NewService(gormstore.NewInvestmentStore(gormDB), clock, logger, investment.Config{
		GatewaySecret: []byte(cfg.GatewaySecret),
		AdminUserID:   cfg.AdminUserID,
	})
	if err != nil {
		return fmt.Errorf("investment service init: %w", err)
	}
	distributionService, err := distribution.NewService(gormstore.NewDistributionStore(gormDB), clock, logger, dispatcher, distribution.Config{
		AdminUserID: cfg.AdminUserID,
	})
	if err != nil {
		return fmt.Errorf("distribution service init: %w", err)
	}

	return fn(ctx, apiserver.Services{
		Ledger:       ledgerService,
		Investment:   investmentService,
		Distribution: distributionService,
	}, logger)
}

func openDatabase(ctx context.Context, dsn string) (*gorm.DB, func() error, string, error) {
	driver, sqlitePath, err := resolveDriver(dsn)
	if err != nil {
		return nil, nil, "", err
	}

	var db *gorm.DB
	gormConfig := &gorm.Config{}
	switch driver {
	case "postgres":
		db, err = gorm.Open(postgres.Open(dsn), gormConfig)
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(sqlitePath), gormConfig)
	default:
		return nil, nil, "", fmt.Errorf("unsupported database scheme %q", driver)
	}
	if err != nil {
		return nil, nil, "", err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, "", err
	}
	cleanup := func() error { return sqlDB.Close() }
	return db.WithContext(ctx), cleanup, driver, nil
}

func resolveDriver(dsn string) (string, string, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "postgres", "", nil
	}
	if strings.HasPrefix(dsn, "sqlite://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", "", fmt.Errorf("parse sqlite url: %w", err)
		}
		path := u.Path
		if path == "" {
			path = u.Host
		}
		if path == "" || path == "/" {
			path = "investhub.db"
		}
		sqlitePath, err := normalizeSQLitePath(path)
		return "sqlite", sqlitePath, err
	}
	// Treat everything else as a direct sqlite path.
	sqlitePath, err := normalizeSQLitePath(dsn)
	return "sqlite", sqlitePath, err
}

func normalizeSQLitePath(path string) (string, error) {
	if path == ":memory:" {
		return path, nil
	}
	if strings.HasPrefix(path, "/") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", err
		}
		return path, nil
	}
	abs := filepath.Join(".", path)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", err
	}
	return abs, nil
}

// prepareSchema auto-migrates the sqlite schema for local development.
// Postgres deployments run migrations out of band.
func prepareSchema(db *gorm.DB, driver string) error {
	if driver != "sqlite" {
		return nil
	}
	if err := gormstore.AutoMigrate(db); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
