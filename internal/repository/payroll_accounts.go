package repository

import (
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"payroll-report-aggregator/internal/models"
)

// PayrollAccountRepository reads and updates linked payroll accounts.
// The assembled reports themselves are never persisted; only sync status and
// timestamps live here.
type PayrollAccountRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPayrollAccountRepository creates a new payroll account repository.
func NewPayrollAccountRepository(db *sql.DB, logger *zap.Logger) *PayrollAccountRepository {
	return &PayrollAccountRepository{
		db:     db,
		logger: logger,
	}
}

// ListPendingReview returns accounts whose aggregator sync succeeded but
// whose income data has not been processed yet, oldest first.
func (r *PayrollAccountRepository) ListPendingReview(limit int) ([]models.PayrollAccount, error) {
	query := `
		SELECT id, flow_id, aggregator_account_id, aggregator, synchronization_status
		FROM payroll_accounts
		WHERE synchronization_status = 'succeeded'
		  AND income_synced_at IS NULL
		ORDER BY created_at
		LIMIT $1
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending payroll accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.PayrollAccount
	for rows.Next() {
		var account models.PayrollAccount
		var aggregator string
		if err := rows.Scan(
			&account.ID,
			&account.FlowID,
			&account.AggregatorAccountID,
			&aggregator,
			&account.SynchronizationStatus,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payroll account: %w", err)
		}
		account.Aggregator = models.SourceAggregator(aggregator)
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payroll accounts: %w", err)
	}

	return accounts, nil
}

// GetByAggregatorAccountID looks up one account by its aggregator-side id.
func (r *PayrollAccountRepository) GetByAggregatorAccountID(aggregatorAccountID string) (*models.PayrollAccount, error) {
	query := `
		SELECT id, flow_id, aggregator_account_id, aggregator, synchronization_status
		FROM payroll_accounts
		WHERE aggregator_account_id = $1
	`

	var account models.PayrollAccount
	var aggregator string
	err := r.db.QueryRow(query, aggregatorAccountID).Scan(
		&account.ID,
		&account.FlowID,
		&account.AggregatorAccountID,
		&aggregator,
		&account.SynchronizationStatus,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("payroll account not found: %s", aggregatorAccountID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payroll account: %w", err)
	}
	account.Aggregator = models.SourceAggregator(aggregator)

	return &account, nil
}

// UpdateSynchronizationStatus records the outcome of a processing pass.
func (r *PayrollAccountRepository) UpdateSynchronizationStatus(id int64, status string) error {
	query := `
		UPDATE payroll_accounts
		SET synchronization_status = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.db.Exec(query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update synchronization status: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("payroll account not found: %d", id)
	}

	return nil
}

// MarkIncomeSynced stamps the account after its income data was fetched and
// validated.
func (r *PayrollAccountRepository) MarkIncomeSynced(id int64, syncedAt time.Time) error {
	query := `
		UPDATE payroll_accounts
		SET income_synced_at = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.db.Exec(query, syncedAt, id)
	if err != nil {
		return fmt.Errorf("failed to mark income synced: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("payroll account not found: %d", id)
	}

	return nil
}
