package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"regverify/internal/platform/postgres"
	"regverify/internal/registration/domain"
	"regverify/internal/registration/models"
	"regverify/pkg/platform/sentinel"
	txcontext "regverify/pkg/platform/tx"
)

// PostgresStore persists registrations and alerts in PostgreSQL. The unique
// (registration_number, jurisdiction) constraint serializes concurrent writers.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed registration store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const registrationColumns = `id, registration_number, jurisdiction, category, owner_reference,
	verification_status, verification_method, verified_at, failure_reason,
	registered_name, registration_date, expiry_date, promoter_name, promoter_type,
	registered_address, contact_email, contact_phone, active, compliance_score,
	complaints_count, last_compliance_check, attempted_methods, metadata,
	pending_transition_id, created_at, updated_at`

// registrationSelect mirrors registrationColumns for SELECT and RETURNING.
// The array is read in its text form so pq.Array can parse it regardless of
// the wire format the driver negotiates.
const registrationSelect = `id, registration_number, jurisdiction, category, owner_reference,
	verification_status, verification_method, verified_at, failure_reason,
	registered_name, registration_date, expiry_date, promoter_name, promoter_type,
	registered_address, contact_email, contact_phone, active, compliance_score,
	complaints_count, last_compliance_check, attempted_methods::text, metadata,
	pending_transition_id, created_at, updated_at`

func (s *PostgresStore) Find(ctx context.Context, key models.Key) (*models.RegistrationRecord, error) {
	query := `SELECT ` + registrationSelect + `
		FROM registrations
		WHERE registration_number = $1 AND jurisdiction = $2`
	rec, err := scanRecord(s.execer(ctx).QueryRowContext(ctx, query, key.RegistrationNumber, key.Jurisdiction.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, classify("find registration", err)
	}
	return rec, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, record *models.RegistrationRecord) (*models.RegistrationRecord, error) {
	if err := validateFinal(record); err != nil {
		return nil, err
	}
	metadata, err := json.Marshal(record.Metadata)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	query := `
		INSERT INTO registrations (` + registrationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
		        $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, NULL, $24, $24)
		ON CONFLICT (registration_number, jurisdiction) DO UPDATE SET
			category = EXCLUDED.category,
			owner_reference = COALESCE(NULLIF(EXCLUDED.owner_reference, ''), registrations.owner_reference),
			verification_status = EXCLUDED.verification_status,
			verification_method = EXCLUDED.verification_method,
			verified_at = EXCLUDED.verified_at,
			failure_reason = EXCLUDED.failure_reason,
			registered_name = EXCLUDED.registered_name,
			registration_date = EXCLUDED.registration_date,
			expiry_date = EXCLUDED.expiry_date,
			promoter_name = EXCLUDED.promoter_name,
			promoter_type = EXCLUDED.promoter_type,
			registered_address = EXCLUDED.registered_address,
			contact_email = EXCLUDED.contact_email,
			contact_phone = EXCLUDED.contact_phone,
			active = EXCLUDED.active,
			compliance_score = EXCLUDED.compliance_score,
			complaints_count = EXCLUDED.complaints_count,
			last_compliance_check = EXCLUDED.last_compliance_check,
			attempted_methods = ARRAY(
				SELECT DISTINCT m FROM unnest(registrations.attempted_methods || EXCLUDED.attempted_methods) AS m ORDER BY m
			),
			metadata = registrations.metadata || EXCLUDED.metadata,
			pending_transition_id = NULL,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + registrationSelect

	stored, err := scanRecord(s.execer(ctx).QueryRowContext(ctx, query,
		record.ID,
		record.RegistrationNumber,
		record.Jurisdiction.String(),
		record.Category.String(),
		record.OwnerReference,
		record.Status.String(),
		record.Method.String(),
		record.VerifiedAt,
		record.FailureReason,
		record.RegisteredName,
		nullTime(record.RegistrationDate),
		nullTime(record.ExpiryDate),
		record.PromoterName,
		record.PromoterType,
		record.RegisteredAddress,
		record.ContactEmail,
		record.ContactPhone,
		record.Active,
		record.ComplianceScore,
		record.ComplaintsCount,
		record.LastComplianceCheck,
		pq.Array(unionMethods(nil, record.AttemptedMethods)),
		metadata,
		record.VerifiedAt,
	))
	if err != nil {
		return nil, classify("upsert registration", err)
	}
	return stored, nil
}

// EnqueuePending upserts the pending record and, when this call moved the
// record into pending, inserts its alert in the same transaction. The
// pending_transition_id returned by the upsert equals the token minted here
// only for the caller that performed the transition.
func (s *PostgresStore) EnqueuePending(ctx context.Context, claim models.PendingClaim) (*models.EnqueueOutcome, error) {
	if claim.Key.RegistrationNumber == "" {
		return nil, errKeyRequired
	}
	metadata, err := json.Marshal(models.RecordMetadata{
		Source:       models.SourceManualQueue,
		QueuedAt:     claim.QueuedAt,
		LastQueuedAt: claim.QueuedAt,
		EnqueueCount: 1,
		QueueReason:  claim.Reason,
	})
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	transitionID := uuid.New()

	query := `
		INSERT INTO registrations (
			id, registration_number, jurisdiction, category, owner_reference,
			verification_status, verification_method, verified_at, failure_reason,
			compliance_score, complaints_count, active, last_compliance_check,
			attempted_methods, metadata, pending_transition_id, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, 'pending', 'manual', $6, '', 100, 0, FALSE, $6, $7, $8, $9, $6, $6)
		ON CONFLICT (registration_number, jurisdiction) DO UPDATE SET
			category = EXCLUDED.category,
			owner_reference = COALESCE(NULLIF(EXCLUDED.owner_reference, ''), registrations.owner_reference),
			verification_status = 'pending',
			verification_method = 'manual',
			verified_at = EXCLUDED.verified_at,
			failure_reason = '',
			attempted_methods = CASE
				WHEN registrations.verification_status = 'pending' AND registrations.pending_transition_id IS NOT NULL THEN
					ARRAY(SELECT DISTINCT m FROM unnest(registrations.attempted_methods || EXCLUDED.attempted_methods) AS m ORDER BY m)
				ELSE EXCLUDED.attempted_methods
			END,
			metadata = CASE
				WHEN registrations.verification_status = 'pending' AND registrations.pending_transition_id IS NOT NULL THEN
					registrations.metadata || jsonb_build_object(
						'last_queued_at', EXCLUDED.metadata -> 'last_queued_at',
						'queue_reason', EXCLUDED.metadata -> 'queue_reason',
						'enqueue_count', COALESCE((registrations.metadata ->> 'enqueue_count')::int, 0) + 1
					)
				ELSE registrations.metadata || EXCLUDED.metadata
			END,
			pending_transition_id = CASE
				WHEN registrations.verification_status = 'pending' AND registrations.pending_transition_id IS NOT NULL THEN
					registrations.pending_transition_id
				ELSE EXCLUDED.pending_transition_id
			END,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + registrationSelect

	var outcome models.EnqueueOutcome
	err = txcontext.RunInTx(ctx, s.db, func(ctx context.Context) error {
		rec, err := scanRecord(s.execer(ctx).QueryRowContext(ctx, query,
			uuid.New(),
			claim.Key.RegistrationNumber,
			claim.Key.Jurisdiction.String(),
			claim.Category.String(),
			claim.OwnerReference,
			claim.QueuedAt,
			pq.Array(unionMethods(nil, claim.AttemptedMethods)),
			metadata,
			transitionID,
		))
		if err != nil {
			return fmt.Errorf("upsert pending registration: %w", err)
		}
		outcome.Record = rec

		if rec.PendingTransitionID == nil || *rec.PendingTransitionID != transitionID {
			return nil
		}
		raised, err := s.insertAlert(ctx, newAlert(claim, rec.ID, transitionID))
		if err != nil {
			return err
		}
		outcome.AlertRaised = raised
		return nil
	})
	if err != nil {
		return nil, classify("enqueue pending registration", err)
	}
	return &outcome, nil
}

func (s *PostgresStore) insertAlert(ctx context.Context, alert models.ComplianceAlert) (bool, error) {
	query := `
		INSERT INTO compliance_alerts (
			id, registration_id, transition_id, alert_type, severity,
			title, description, recommended_action, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (transition_id) DO NOTHING`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		alert.ID,
		alert.RegistrationID,
		alert.TransitionID,
		string(alert.Type),
		string(alert.Severity),
		alert.Title,
		alert.Description,
		alert.RecommendedAction,
		alert.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert compliance alert: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert compliance alert: %w", err)
	}
	return n == 1, nil
}

// ListUnpublishedAlerts returns unpublished alerts in creation order. Inside
// a transaction the rows stay locked so concurrent relays skip them.
func (s *PostgresStore) ListUnpublishedAlerts(ctx context.Context, limit int) ([]models.ComplianceAlert, error) {
	query := `
		SELECT id, registration_id, transition_id, alert_type, severity,
		       title, description, recommended_action, created_at
		FROM compliance_alerts
		WHERE published_at IS NULL
		ORDER BY created_at, id
		LIMIT $1`
	if _, inTx := txcontext.From(ctx); inTx {
		query += ` FOR UPDATE SKIP LOCKED`
	}
	rows, err := s.execer(ctx).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, classify("list unpublished alerts", err)
	}
	defer rows.Close()

	var alerts []models.ComplianceAlert
	for rows.Next() {
		var (
			a                   models.ComplianceAlert
			alertType, severity string
		)
		if err := rows.Scan(
			&a.ID, &a.RegistrationID, &a.TransitionID, &alertType, &severity,
			&a.Title, &a.Description, &a.RecommendedAction, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		a.Type = models.AlertType(alertType)
		a.Severity = models.AlertSeverity(severity)
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list unpublished alerts", err)
	}
	return alerts, nil
}

func (s *PostgresStore) MarkAlertsPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}
	query := `
		UPDATE compliance_alerts
		SET published_at = $2
		WHERE id = ANY($1::uuid[]) AND published_at IS NULL`
	if _, err := s.execer(ctx).ExecContext(ctx, query, pq.Array(strIDs), at); err != nil {
		return classify("mark alerts published", err)
	}
	return nil
}

func (s *PostgresStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return txcontext.RunInTx(ctx, s.db, fn)
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.RegistrationRecord, error) {
	var (
		rec                      models.RegistrationRecord
		jurisdiction, category   string
		status, method           string
		registrationDate, expiry sql.NullTime
		attempted                []string
		metadata                 []byte
		transitionID             uuid.NullUUID
	)
	err := row.Scan(
		&rec.ID,
		&rec.RegistrationNumber,
		&jurisdiction,
		&category,
		&rec.OwnerReference,
		&status,
		&method,
		&rec.VerifiedAt,
		&rec.FailureReason,
		&rec.RegisteredName,
		&registrationDate,
		&expiry,
		&rec.PromoterName,
		&rec.PromoterType,
		&rec.RegisteredAddress,
		&rec.ContactEmail,
		&rec.ContactPhone,
		&rec.Active,
		&rec.ComplianceScore,
		&rec.ComplaintsCount,
		&rec.LastComplianceCheck,
		pq.Array(&attempted),
		&metadata,
		&transitionID,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Jurisdiction = domain.Jurisdiction(jurisdiction)
	rec.Category = domain.Category(category)
	rec.Status = domain.Status(status)
	rec.Method = domain.Method(method)
	rec.RegistrationDate = timePtr(registrationDate)
	rec.ExpiryDate = timePtr(expiry)
	rec.AttemptedMethods = attempted
	if transitionID.Valid {
		id := transitionID.UUID
		rec.PendingTransitionID = &id
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &rec.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return &rec, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

// classify wraps err, tagging connectivity failures as sentinel.ErrUnavailable
// and constraint races as sentinel.ErrConflict. A foreign key failure means an
// alert lost its registration row to a concurrent writer.
func classify(op string, err error) error {
	switch {
	case postgres.IsConnectionError(err):
		return fmt.Errorf("%s: %w: %w", op, sentinel.ErrUnavailable, err)
	case postgres.IsUniqueViolation(err), postgres.IsForeignKeyViolation(err):
		return fmt.Errorf("%s: %w: %w", op, sentinel.ErrConflict, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
