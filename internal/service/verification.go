// Package service wires the report pipeline into a runnable verification
// service and exposes the per-account validation facade.
package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"payroll-report-aggregator/internal/aggregator"
	"payroll-report-aggregator/internal/config"
	"payroll-report-aggregator/internal/consumer"
	"payroll-report-aggregator/internal/database"
	"payroll-report-aggregator/internal/models"
	"payroll-report-aggregator/internal/observability"
	"payroll-report-aggregator/internal/redisx"
	"payroll-report-aggregator/internal/repository"
	"payroll-report-aggregator/internal/validator"
)

// VerificationService processes linked payroll accounts: it assembles an
// aggregator report for each account, validates it against the useful-report
// rules and records the outcome.
type VerificationService struct {
	config      *config.Config
	logger      *zap.Logger
	db          *sql.DB
	redisClient *redis.Client
	accountRepo *repository.PayrollAccountRepository
	recorder    observability.EventRecorder
	resultCache *ResultCache
	validator   *validator.UsefulReportValidator
	clients     map[models.SourceAggregator]aggregator.Client
	consumer    *consumer.SyncEventConsumer
	policy      aggregator.DateRangePolicy
}

// NewVerificationService creates the service and its collaborators.
func NewVerificationService(cfg *config.Config, logger *zap.Logger) (*VerificationService, error) {
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	redisClient := redisx.NewClient(&cfg.Redis)
	if err := redisx.Ping(context.Background(), redisClient); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	accountRepo := repository.NewPayrollAccountRepository(db, logger)
	recorder := observability.NewStreamRecorder(redisClient, cfg.Verification.TelemetryStream, logger)

	clients := map[models.SourceAggregator]aggregator.Client{
		models.SourceArgyle:   aggregator.NewArgyleClient(cfg.Argyle.BaseURL, cfg.Argyle.APIKeyID, cfg.Argyle.APIKeySecret, logger),
		models.SourcePinwheel: aggregator.NewPinwheelClient(cfg.Pinwheel.BaseURL, cfg.Pinwheel.APISecret, logger),
	}

	svc := &VerificationService{
		config:      cfg,
		logger:      logger,
		db:          db,
		redisClient: redisClient,
		accountRepo: accountRepo,
		recorder:    recorder,
		resultCache: NewResultCache(redisx.NewRedisKVStore(redisClient), logger),
		validator:   validator.NewUsefulReportValidator(nil),
		clients:     clients,
		policy: aggregator.DateRangePolicy{
			W2Days:  cfg.Fetch.W2Days,
			GigDays: cfg.Fetch.GigDays,
		},
	}

	if cfg.Verification.TriggerMode == "events" {
		svc.consumer = consumer.NewSyncEventConsumer(
			redisClient,
			svc,
			accountRepo,
			logger,
			cfg.Verification.EventStream,
			cfg.Verification.ConsumerGroup,
			cfg.Verification.ConsumerName,
			int64(cfg.Verification.BatchSize),
		)
	}

	return svc, nil
}

// Start runs the configured trigger mode until the context is cancelled.
func (s *VerificationService) Start(ctx context.Context) error {
	s.logger.Info("Starting payroll report aggregator service",
		zap.String("trigger_mode", s.config.Verification.TriggerMode),
		zap.Int("w2_fetch_days", s.policy.W2Days),
		zap.Int("gig_fetch_days", s.policy.GigDays),
	)

	switch s.config.Verification.TriggerMode {
	case "polling":
		return s.startPollingMode(ctx)
	case "events":
		if s.consumer == nil {
			return fmt.Errorf("sync event consumer not initialized")
		}
		return s.consumer.Start(ctx)
	default:
		return fmt.Errorf("unsupported trigger mode: %s", s.config.Verification.TriggerMode)
	}
}

func (s *VerificationService) startPollingMode(ctx context.Context) error {
	interval := time.Duration(s.config.Verification.Polling.Interval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("Starting polling mode",
		zap.Duration("interval", interval),
	)

	if err := s.processPendingAccounts(ctx); err != nil {
		s.logger.Error("Failed to process pending accounts on startup", zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.processPendingAccounts(ctx); err != nil {
				s.logger.Error("Failed to process pending accounts", zap.Error(err))
			}
		}
	}
}

func (s *VerificationService) processPendingAccounts(ctx context.Context) error {
	accounts, err := s.accountRepo.ListPendingReview(int(s.config.Verification.BatchSize))
	if err != nil {
		return fmt.Errorf("failed to list pending accounts: %w", err)
	}
	if len(accounts) == 0 {
		return nil
	}

	s.logger.Info("Processing payroll accounts pending review",
		zap.Int("account_count", len(accounts)),
	)

	successCount := 0
	errorCount := 0
	for _, account := range accounts {
		select {
		case <-ctx.Done():
			return nil
		default:
			if err := s.ProcessAccount(ctx, account); err != nil {
				s.logger.Error("Failed to process payroll account",
					zap.String("aggregator_account_id", account.AggregatorAccountID),
					zap.Error(err),
				)
				errorCount++
			} else {
				successCount++
			}
		}
	}

	s.logger.Info("Completed processing payroll accounts",
		zap.Int("success_count", successCount),
		zap.Int("error_count", errorCount),
	)

	return nil
}

// ProcessAccount fetches, validates and records the outcome for one payroll
// account. The assembled report lives only for the duration of this call.
func (s *VerificationService) ProcessAccount(ctx context.Context, account models.PayrollAccount) error {
	client, ok := s.clients[account.Aggregator]
	if !ok {
		return fmt.Errorf("no client configured for aggregator %q", account.Aggregator)
	}

	// Stream delivery is at-least-once; a recent cached outcome means this
	// account was just processed and the fetch can be skipped.
	if s.resultCache != nil {
		if cached, err := s.resultCache.Get(ctx, account.FlowID, account.AggregatorAccountID); err == nil {
			s.logger.Info("Skipping recently processed payroll account",
				zap.String("aggregator_account_id", account.AggregatorAccountID),
				zap.Bool("valid", cached.Valid),
			)
			return nil
		} else if err != redisx.ErrCacheMiss {
			s.logger.Warn("Result cache lookup failed",
				zap.String("aggregator_account_id", account.AggregatorAccountID),
				zap.Error(err),
			)
		}
	}

	report := aggregator.NewReport(aggregator.ReportConfig{
		Client:     client,
		AccountIDs: []string{account.AggregatorAccountID},
		Policy:     s.policy,
		Recorder:   s.recorder,
		Logger:     s.logger,
	})

	warnings, err := report.Fetch(ctx)
	if err != nil {
		if statusErr := s.accountRepo.UpdateSynchronizationStatus(account.ID, "failed"); statusErr != nil {
			s.logger.Error("Failed to record fetch failure",
				zap.String("aggregator_account_id", account.AggregatorAccountID),
				zap.Error(statusErr),
			)
		}
		return fmt.Errorf("failed to fetch report: %w", err)
	}
	if warnings.Any() {
		s.logger.Warn("Report fetched with data-quality warnings",
			zap.String("aggregator_account_id", account.AggregatorAccountID),
			zap.String("warnings", warnings.Join()),
		)
	}

	result := NewAccountReportService(report, account, s.validator, s.recorder, s.logger).Validate(ctx)

	s.logger.Info("Validated account report",
		zap.String("aggregator_account_id", account.AggregatorAccountID),
		zap.Bool("valid", result.Valid),
		zap.Int("paystub_count", len(result.AccountReport.Paystubs)),
		zap.Int("gig_count", len(result.AccountReport.Gigs)),
	)

	if s.resultCache != nil {
		if err := s.resultCache.Put(ctx, account.FlowID, account.AggregatorAccountID, result); err != nil {
			s.logger.Warn("Failed to cache validation result",
				zap.String("aggregator_account_id", account.AggregatorAccountID),
				zap.Error(err),
			)
		}
	}

	if err := s.accountRepo.MarkIncomeSynced(account.ID, time.Now()); err != nil {
		return fmt.Errorf("failed to mark income synced: %w", err)
	}
	return s.accountRepo.UpdateSynchronizationStatus(account.ID, "completed")
}

// Stop releases the service's connections.
func (s *VerificationService) Stop(ctx context.Context) error {
	s.logger.Info("Stopping payroll report aggregator service")

	if s.redisClient != nil {
		if err := redisx.Close(s.redisClient); err != nil {
			s.logger.Error("Error closing redis connection", zap.Error(err))
		}
	}
	if s.db != nil {
		if err := database.Close(s.db); err != nil {
			s.logger.Error("Error closing database connection", zap.Error(err))
		}
	}

	s.logger.Info("Payroll report aggregator service stopped")
	return nil
}
