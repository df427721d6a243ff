// Package apiserver exposes the money workflows over HTTP. It owns no
// business logic: every handler validates the request shape, resolves the
// caller from the session token, and delegates to a service.
package apiserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Janvi-Rao-2108/Invest-hub-sub001/internal/distribution"
	"github.com/Janvi-Rao-2108/Invest-hub-sub001/internal/investment"
	"github.com/Janvi-Rao-2108/Invest-hub-sub001/pkg/ledger"
)

const (
	shutdownTimeout = 5 * time.Second

	errorCodeBadRequest   = "bad_request"
	errorCodeNotFound     = "not_found"
	errorCodeConflict     = "conflict"
	errorCodeInsufficient = "insufficient_funds"
	errorCodeInternal     = "internal"
)

// Services carries the domain services the handlers delegate to.
type Services struct {
	Ledger       *ledger.Service
	Investment   *investment.Service
	Distribution *distribution.Service
}

// Server is the HTTP façade over the money workflows.
type Server struct {
	cfg      Config
	services Services
	logger   *zap.Logger
	engine   *gin.Engine
}

// NewServer wires the router.
func NewServer(cfg Config, services Services, logger *zap.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if services.Ledger == nil || services.Investment == nil || services.Distribution == nil {
		return nil, fmt.Errorf("all services are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	server := &Server{cfg: cfg, services: services, logger: logger}
	server.engine = server.buildEngine()
	return server, nil
}

// Handler exposes the router for tests.
func (server *Server) Handler() http.Handler {
	return server.engine
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (server *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    server.cfg.ListenAddr,
		Handler: server.engine,
	}
	errCh := make(chan error, 1)
	go func() {
		server.logger.Info("http server starting", zap.String("listen_addr", server.cfg.ListenAddr))
		errCh <- httpServer.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		server.logger.Info("shutdown requested")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if serveErr := <-errCh; serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return serveErr
		}
		return nil
	case serveErr := <-errCh:
		if errors.Is(serveErr, http.ErrServerClosed) {
			return nil
		}
		return serveErr
	}
}

func (server *Server) buildEngine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     server.cfg.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	engine.GET("/healthz", func(requestContext *gin.Context) {
		requestContext.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api", server.authMiddleware())
	api.GET("/wallet", server.handleGetWallet)
	api.POST("/withdrawals", server.handleRequestWithdrawal)
	api.POST("/deposits", server.handleInitiateDeposit)
	api.POST("/deposits/verify", server.handleVerifyDeposit)
	api.POST("/investments/:id/break", server.handleBreakInvestment)

	admin := api.Group("", adminOnly())
	admin.POST("/withdrawals/:id/approve", server.handleApproveWithdrawal)
	admin.POST("/withdrawals/:id/reject", server.handleRejectWithdrawal)
	admin.POST("/referral-bonuses/:id/approve", server.handleApproveReferralBonus)
	admin.POST("/admin/distribute", server.handleDistribute)
	admin.POST("/admin/settle", server.handleSettle)
	admin.POST("/admin/liquidate", server.handleLiquidate)
	admin.POST("/admin/maturity", server.handleMaturity)
	admin.POST("/admin/reconcile/:userID", server.handleReconcile)

	return engine
}

func (server *Server) handleGetWallet(requestContext *gin.Context) {
	userID, err := ledger.NewUserID(authenticatedUserID(requestContext))
	if err != nil {
		server.respondError(requestContext, err)
		return
	}
	wallet, err := server.services.Ledger.Balance(requestContext.Request.Context(), userID)
	if errors.Is(err, ledger.ErrWalletNotFound) {
		wallet = ledger.WalletBalance{UserID: userID.String()}
	} else if err != nil {
		server.respondError(requestContext, err)
		return
	}
	requestContext.JSON(http.StatusOK, WalletEnvelope{Wallet: walletPayload(wallet)})
}

func (server *Server) handleRequestWithdrawal(requestContext *gin.Context) {
	var payload WithdrawalRequestPayload
	if err := requestContext.ShouldBindJSON(&payload); err != nil {
		abortWithError(requestContext, http.StatusBadRequest, errorCodeBadRequest, "malformed request body")
		return
	}
	userID, err := ledger.NewUserID(authenticatedUserID(requestContext))
	if err != nil {
		server.respondError(requestContext, err)
		return
	}
	amount, err := ledger.NewAmountCents(payload.AmountCents)
	if err != nil {
		server.respondError(requestContext, err)
		return
	}
	withdrawal, transaction, breakdown, err := server.services.Ledger.OpenWithdrawal(requestContext.Request.Context(), userID, amount, "")
	if err != nil {
		server.respondError(requestContext, err)
		return
	}
	requestContext.JSON(http.StatusCreated, WithdrawalEnvelope{
		WithdrawalID:       withdrawal.WithdrawalID,
		TransactionID:      transaction.TransactionID,
		Status:             withdrawal.Status.String(),
		AmountCents:        withdrawal.AmountCents.Int64(),
		FromProfitCents:    breakdown.FromProfitCents.Int64(),
		FromReferralCents:  breakdown.FromReferralCents.Int64(),
		FromPrincipalCents: breakdown.FromPrincipalCents.Int64(),
	})
}

func (server *Server) handleInitiateDeposit(requestContext *gin.Context) {
	var payload InitiateDepositPayload
	if err := requestContext.ShouldBindJSON(&payload); err != nil {
		abortWithError(requestContext, http.StatusBadRequest, errorCodeBadRequest, "malformed request body")
		return
	}
	deposit, err := server.services.Investment.InitiateDeposit(
		requestContext.Request.Context(),
		authenticatedUserID(requestContext),
		payload.AmountCents,
		investment.Plan(payload.Plan),
	)
	if err != nil {
		server.respondError(requestContext, err)
		return
	}
	requestContext.JSON(http.StatusCreated, DepositEnvelope{
		DepositID:   deposit.DepositID,
		OrderID:     deposit.OrderID,
		AmountCents: deposit.AmountCents,
		Plan:        deposit.Plan.String(),
		Status:      string(deposit.Status),
	})
}

func (server *Server) handleVerifyDeposit(requestContext *gin.Context) {
	var payload VerifyDepositPayload
	if err := requestContext.ShouldBindJSON(&payload); err != nil {
		abortWithError(requestContext, http.StatusBadRequest, errorCodeBadRequest, "malformed request body")
		return
	}
	result, err := server.services.Investment.VerifyDeposit(requestContext.Request.Context(), payload.OrderID, payload.PaymentID, payload.Signature)
	if err != nil {
		server.respondError(requestContext, err)
		return
	}
	requestContext.JSON(http.StatusOK, VerifyDepositEnvelope{
		AlreadyProcessed: result.AlreadyProcessed,
		DepositID:        result.DepositID,
		InvestmentID:     result.InvestmentID,
		TransactionID:    result.TransactionID,
	})
}

func (server *Server) handleBreakInvestment(requestContext *gin.Context) {
	result, err := server.services.Investment.BreakInvestment(
		requestContext.Request.Context(),
		authenticatedUserID(requestContext),
		requestContext.Param("id"),
	)
	if err != nil {
		server.respondError(requestContext, err)
		return
	}
	requestContext.JSON(http.StatusOK, BreakEnvelope{
		PenaltyCents:  result.PenaltyCents,
		PayoutCents:   result.PayoutCents,
		WithdrawalID:  result.WithdrawalID,
		TransactionID: result.TransactionID,
	})
}

func (server *Server) handleApproveWithdrawal(requestContext *gin.Context) {
	if err := server.services.Ledger.ApproveWithdrawal(requestContext.Request.Context(), requestContext.Param("id")); err != nil {
		server.respondError(requestContext, err)
		return
	}
	requestContext.JSON(http.StatusOK, gin.H{"status": ledger.WithdrawalApproved.String()})
}

func (server *Server) handleApproveReferralBonus(requestContext *gin.Context) {
	posted, err := server.services.Investment.ApproveReferralBonus(requestContext.Request.Context(), requestContext.Param("id"))
	if err != nil {
		server.respondError(requestContext, err)
		return
	}
	requestContext.JSON(http.StatusOK, BonusEnvelope{
		TransactionID: posted.TransactionID,
		ReferrerID:    posted.UserID,
		Status:        posted.Status.String(),
		AmountCents:   posted.AmountCents.Int64(),
	})
}

func (server *Server) handleRejectWithdrawal(requestContext *gin.Context) {
	var payload RejectPayload
	if err := requestContext.ShouldBindJSON(&payload); err != nil {
		abortWithError(requestContext, http.StatusBadRequest, errorCodeBadRequest, "malformed request body")
		return
	}
	if err := server.services.Ledger.RejectWithdrawal(requestContext.Request.Context(), requestContext.Param("id"), payload.Remark); err != nil {
		server.respondError(requestContext, err)
		return
	}
	requestContext.JSON(http.StatusOK, gin.H{"status": ledger.WithdrawalRejected.String()})
}

func (server *Server) handleDistribute(requestContext *gin.Context) {
	var payload DistributePayload
	if err := requestContext.ShouldBindJSON(&payload); err != nil {
		abortWithError(requestContext, http.StatusBadRequest, errorCodeBadRequest, "malformed request body")
		return
	}
	summary, err := server.services.Distribution.DistributeProfit(requestContext.Request.Context(), distribution.DistributeInput{
		AmountCents: payload.AmountCents,
		PeriodID:    payload.PeriodID,
	})
	if err != nil {
		server.respondError(requestContext, err)
		return
	}
	requestContext.JSON(http.StatusOK, DistributionEnvelope{
		DistributionID:     summary.DistributionID,
		Recipients:         summary.Recipients,
		TotalProfitCents:   summary.TotalProfitCents,
		AdminShareCents:    summary.AdminShareCents,
		InvestorShareCents: summary.InvestorShareCents,
		TaxWithheldCents:   summary.TaxWithheldCents,
		Errors:             summary.Errors,
	})
}

func (server *Server) handleSettle(requestContext *gin.Context) {
	var payload SettlementPayload
	if err := requestContext.ShouldBindJSON(&payload); err != nil {
		abortWithError(requestContext, http.StatusBadRequest, errorCodeBadRequest, "malformed request body")
		return
	}
	summary, err := server.services.Distribution.RunSettlement(requestContext.Request.Context(), payload.MinBalanceCents)
	if err != nil {
		server.respondError(requestContext, err)
		return
	}
	requestContext.JSON(http.StatusOK, BatchEnvelope{
		Processed:  summary.UsersSwept,
		TotalCents: summary.TotalCents,
		Errors:     summary.Errors,
	})
}

func (server *Server) handleLiquidate(requestContext *gin.Context) {
	var payload SettlementPayload
	if err := requestContext.ShouldBindJSON(&payload); err != nil {
		abortWithError(requestContext, http.StatusBadRequest, errorCodeBadRequest, "malformed request body")
		return
	}
	summary, err := server.services.Distribution.RunLiquidation(requestContext.Request.Context(), payload.MinBalanceCents)
	if err != nil {
		server.respondError(requestContext, err)
		return
	}
	requestContext.JSON(http.StatusOK, BatchEnvelope{
		Processed:  summary.UsersSwept,
		TotalCents: summary.TotalCents,
		Errors:     summary.Errors,
	})
}

func (server *Server) handleMaturity(requestContext *gin.Context) {
	result, err := server.services.Investment.RunMaturityCheck(requestContext.Request.Context())
	if err != nil {
		server.respondError(requestContext, err)
		return
	}
	requestContext.JSON(http.StatusOK, BatchEnvelope{Processed: result.Processed, Errors: result.Errors})
}

func (server *Server) handleReconcile(requestContext *gin.Context) {
	userID, err := ledger.NewUserID(requestContext.Param("userID"))
	if err != nil {
		server.respondError(requestContext, err)
		return
	}
	wallet, err := server.services.Ledger.ReconcileWallet(requestContext.Request.Context(), userID)
	if err != nil {
		server.respondError(requestContext, err)
		return
	}
	requestContext.JSON(http.StatusOK, WalletEnvelope{Wallet: walletPayload(wallet)})
}

func walletPayload(wallet ledger.WalletBalance) WalletPayload {
	return WalletPayload{
		UserID:         wallet.UserID,
		PrincipalCents: wallet.PrincipalCents.Int64(),
		ProfitCents:    wallet.ProfitCents.Int64(),
		ReferralCents:  wallet.ReferralCents.Int64(),
		LockedCents:    wallet.LockedCents.Int64(),
		AvailableCents: wallet.AvailableCents().Int64(),
	}
}

// respondError maps domain errors onto HTTP statuses and stable codes.
func (server *Server) respondError(requestContext *gin.Context, err error) {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		abortWithError(requestContext, http.StatusUnprocessableEntity, errorCodeInsufficient, "available balance is insufficient")
	case errors.Is(err, ledger.ErrWithdrawalNotFound),
		errors.Is(err, ledger.ErrWalletNotFound),
		errors.Is(err, ledger.ErrTransactionNotFound),
		errors.Is(err, investment.ErrNotFound),
		errors.Is(err, investment.ErrDepositNotFound),
		errors.Is(err, distribution.ErrPeriodNotFound):
		abortWithError(requestContext, http.StatusNotFound, errorCodeNotFound, err.Error())
	case errors.Is(err, ledger.ErrInvalidState),
		errors.Is(err, investment.ErrAlreadyInactive),
		errors.Is(err, distribution.ErrPeriodAlreadyDistributed):
		abortWithError(requestContext, http.StatusConflict, errorCodeConflict, err.Error())
	case errors.Is(err, investment.ErrSignatureMismatch):
		abortWithError(requestContext, http.StatusBadRequest, errorCodeBadRequest, "gateway signature mismatch")
	case errors.Is(err, ledger.ErrInvalidUserID),
		errors.Is(err, ledger.ErrInvalidAmountCents),
		errors.Is(err, ledger.ErrUnbalancedTransaction),
		errors.Is(err, ledger.ErrNegativeBalance),
		errors.Is(err, investment.ErrInvalidPlan),
		errors.Is(err, distribution.ErrValidation),
		errors.Is(err, distribution.ErrPeriodNotLocked),
		errors.Is(err, distribution.ErrPeriodAmountMismatch):
		abortWithError(requestContext, http.StatusBadRequest, errorCodeBadRequest, err.Error())
	default:
		server.logger.Error("request failed", zap.String("path", requestContext.FullPath()), zap.Error(err))
		abortWithError(requestContext, http.StatusInternalServerError, errorCodeInternal, "internal error")
	}
}
