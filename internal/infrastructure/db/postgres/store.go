package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/courierdesk/ops-dashboard/internal/core/domain"
	"github.com/courierdesk/ops-dashboard/internal/core/ports"
)

// Store implements the account, delivery and audit repositories on one
// database handle.
type Store struct {
	db DBTX
}

func NewStore(db DBTX) *Store {
	return &Store{db: db}
}

const accountColumns = `id, username, password_hash, role, active, created_at`

func (s *Store) FindAccountByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return s.findAccount(ctx, `SELECT `+accountColumns+` FROM accounts WHERE username = $1`, username)
}

func (s *Store) FindAccountByUsernameFold(ctx context.Context, username string) (*domain.Account, error) {
	return s.findAccount(ctx, `SELECT `+accountColumns+` FROM accounts WHERE lower(username) = lower($1)`, username)
}

func (s *Store) findAccount(ctx context.Context, query, username string) (*domain.Account, error) {
	a := &domain.Account{}
	var role string
	err := s.db.QueryRowContext(ctx, query, username).
		Scan(&a.ID, &a.Username, &a.PasswordHash, &role, &a.Active, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	a.Role = domain.Role(role)
	return a, nil
}

// ListAccounts returns every account, active ones first, then by username.
func (s *Store) ListAccounts(ctx context.Context) ([]*domain.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY active DESC, username`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		a := &domain.Account{}
		var role string
		if err := rows.Scan(&a.ID, &a.Username, &a.PasswordHash, &role, &a.Active, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		a.Role = domain.Role(role)
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return accounts, nil
}

func (s *Store) CreateAccount(ctx context.Context, account *domain.Account) error {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, account.Username, account.PasswordHash, string(account.Role), account.Active, account.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAccountExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	account.ID = id
	return nil
}

const deliveryColumns = `id, display_id, sender_name, sender_phone, recipient_name, recipient_phone, ` +
	`recipient_address, delivery_person, goods_type, quantity, amount, expenses, payment_by, status, created_at, created_by`

func (s *Store) InsertDelivery(ctx context.Context, d *domain.Delivery) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO deliveries (`+deliveryColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		d.ID, d.DisplayID, d.SenderName, d.SenderPhone, d.RecipientName, d.RecipientPhone,
		d.RecipientAddress, d.DeliveryPerson, d.GoodsType, d.Quantity, d.Amount, d.Expenses,
		d.PaymentBy, string(d.Status), d.CreatedAt, d.CreatedBy)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateDisplayID
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDelivery(row rowScanner) (*domain.Delivery, error) {
	d := &domain.Delivery{}
	var status string
	err := row.Scan(&d.ID, &d.DisplayID, &d.SenderName, &d.SenderPhone, &d.RecipientName, &d.RecipientPhone,
		&d.RecipientAddress, &d.DeliveryPerson, &d.GoodsType, &d.Quantity, &d.Amount, &d.Expenses,
		&d.PaymentBy, &status, &d.CreatedAt, &d.CreatedBy)
	if err != nil {
		return nil, err
	}
	d.Status = domain.DeliveryStatus(status)
	return d, nil
}

func (s *Store) FindDeliveryByDisplayID(ctx context.Context, displayID string) (*domain.Delivery, error) {
	d, err := scanDelivery(s.db.QueryRowContext(ctx,
		`SELECT `+deliveryColumns+` FROM deliveries WHERE display_id = $1`, displayID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDeliveryNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return d, nil
}

// ListDeliveriesCreatedBetween returns deliveries with start <= created_at < end, newest first.
func (s *Store) ListDeliveriesCreatedBetween(ctx context.Context, start, end time.Time) ([]*domain.Delivery, error) {
	return s.listDeliveries(ctx,
		`SELECT `+deliveryColumns+` FROM deliveries
		 WHERE created_at >= $1 AND created_at < $2
		 ORDER BY created_at DESC`, start, end)
}

// ListUnassignedDeliveries treats "None" like an empty assignee; rows imported
// from the legacy store carry it.
func (s *Store) ListUnassignedDeliveries(ctx context.Context, limit int) ([]*domain.Delivery, error) {
	return s.listDeliveries(ctx,
		`SELECT `+deliveryColumns+` FROM deliveries
		 WHERE delivery_person IN ('', 'None')
		 ORDER BY created_at DESC LIMIT $1`, limit)
}

func (s *Store) listDeliveries(ctx context.Context, query string, args ...any) ([]*domain.Delivery, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var deliveries []*domain.Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		deliveries = append(deliveries, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return deliveries, nil
}

// UpdateDeliveryStatus keeps the current assignee when deliveryPerson is empty.
func (s *Store) UpdateDeliveryStatus(ctx context.Context, displayID string, status domain.DeliveryStatus, deliveryPerson string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE deliveries
		 SET status = $2, delivery_person = COALESCE(NULLIF($3, ''), delivery_person)
		 WHERE display_id = $1`,
		displayID, string(status), deliveryPerson)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectAffected(res, domain.ErrDeliveryNotFound)
}

func (s *Store) DeleteDelivery(ctx context.Context, displayID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM deliveries WHERE display_id = $1`, displayID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectAffected(res, domain.ErrDeliveryNotFound)
}

func (s *Store) CountDeliveriesCreatedBetween(ctx context.Context, start, end time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM deliveries WHERE created_at >= $1 AND created_at < $2`, start, end).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (s *Store) DeliveryExistsWithDisplayID(ctx context.Context, displayID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM deliveries WHERE display_id = $1)`, displayID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

const auditColumns = `id, actor_user_id, actor_username, action, resource_type, resource_id, ` +
	`details, source_address, client_agent, timestamp`

func (s *Store) InsertAuditEntry(ctx context.Context, e *domain.AuditEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_logs (`+auditColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, nullString(e.ActorUserID), e.ActorUsername, string(e.Action), e.ResourceType, e.ResourceID,
		e.Details, e.SourceAddress, e.ClientAgent, e.Timestamp)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListAuditEntries returns one page, newest first, and the number of matching rows.
func (s *Store) ListAuditEntries(ctx context.Context, filter ports.AuditFilter) ([]*domain.AuditEntry, int64, error) {
	where, args := auditWhere(filter)

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_logs`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM audit_logs%s ORDER BY timestamp DESC LIMIT $%d OFFSET $%d`,
		auditColumns, where, n+1, n+2)
	args = append(args, filter.PerPage, (filter.Page-1)*filter.PerPage)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	entries := make([]*domain.AuditEntry, 0, filter.PerPage)
	for rows.Next() {
		e := &domain.AuditEntry{}
		var actorID sql.NullString
		var action string
		if err := rows.Scan(&e.ID, &actorID, &e.ActorUsername, &action, &e.ResourceType, &e.ResourceID,
			&e.Details, &e.SourceAddress, &e.ClientAgent, &e.Timestamp); err != nil {
			return nil, 0, fmt.Errorf("db error: %w", err)
		}
		if actorID.Valid {
			id := actorID.String
			e.ActorUserID = &id
		}
		e.Action = domain.AuditVerb(action)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	return entries, total, nil
}

func auditWhere(filter ports.AuditFilter) (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.Action != "" {
		add(`action ILIKE $%d`, containsPattern(filter.Action))
	}
	if filter.Username != "" {
		add(`actor_username ILIKE $%d`, containsPattern(filter.Username))
	}
	if !filter.From.IsZero() {
		add(`timestamp >= $%d`, filter.From)
	}
	if !filter.To.IsZero() {
		add(`timestamp < $%d`, filter.To)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func expectAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
