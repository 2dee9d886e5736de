package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"bossika/internal/core"
	"bossika/internal/ledger"
)

// SQLiteStore is the production Store backed by a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at dbPath and
// applies migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) CreateBusiness(ctx context.Context, b *core.BusinessProfile) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO businesses (name, business_type, size, address, operation_period, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		b.Name, string(b.Type), string(b.Size), b.Address, b.OperationPeriod.String(), b.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert business: %w", err)
	}
	b.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("business id: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetBusiness(ctx context.Context, id int64) (core.BusinessProfile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, business_type, size, address, operation_period, created_at
		 FROM businesses WHERE id = ?`, id)
	return scanBusiness(row)
}

func (s *SQLiteStore) ListBusinesses(ctx context.Context) ([]core.BusinessProfile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, business_type, size, address, operation_period, created_at
		 FROM businesses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}
	defer rows.Close()

	var businesses []core.BusinessProfile
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, err
		}
		businesses = append(businesses, b)
	}
	return businesses, rows.Err()
}

func (s *SQLiteStore) CreateCashFlow(ctx context.Context, cf *core.CashFlow) error {
	if cf.CreatedAt.IsZero() {
		cf.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO cashflows (business_id, cashflow_type, category, amount, balance, date_recorded, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		cf.BusinessID, string(cf.Type), nullCategory(cf.Category), cf.Amount.String(),
		nullMoney(cf.Balance), nullDate(cf.DateRecorded), cf.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert cashflow: %w", err)
	}
	cf.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("cashflow id: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListCashFlows(ctx context.Context, businessID int64) ([]core.CashFlow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, business_id, cashflow_type, category, amount, balance, date_recorded, created_at
		 FROM cashflows WHERE business_id = ? ORDER BY date_recorded IS NULL, date_recorded, id`,
		businessID)
	if err != nil {
		return nil, fmt.Errorf("list cashflows: %w", err)
	}
	defer rows.Close()

	var records []core.CashFlow
	for rows.Next() {
		cf, err := scanCashFlow(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, cf)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) LatestCashFlowBefore(ctx context.Context, businessID int64, before core.Date) (*core.CashFlow, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, business_id, cashflow_type, category, amount, balance, date_recorded, created_at
		 FROM cashflows
		 WHERE business_id = ? AND date_recorded IS NOT NULL AND date_recorded < ?
		 ORDER BY date_recorded DESC, id DESC LIMIT 1`,
		businessID, before.String())
	cf, err := scanCashFlow(row)
	if err == ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cf, nil
}

func (s *SQLiteStore) RecomputeBalances(ctx context.Context, businessID int64) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin recompute: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT id, business_id, cashflow_type, category, amount, balance, date_recorded, created_at
		 FROM cashflows
		 WHERE business_id = ? AND date_recorded IS NOT NULL
		 ORDER BY date_recorded, id`,
		businessID)
	if err != nil {
		return 0, fmt.Errorf("load ledger: %w", err)
	}

	var records []core.CashFlow
	for rows.Next() {
		cf, err := scanCashFlow(rows)
		if err != nil {
			rows.Close()
			return 0, err
		}
		records = append(records, cf)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("iterate ledger: %w", err)
	}
	rows.Close()

	var running core.Money
	for _, cf := range records {
		running = running.Add(ledger.SignedAmount(cf))
		if _, err := tx.ExecContext(ctx,
			`UPDATE cashflows SET balance = ? WHERE id = ?`,
			running.String(), cf.ID,
		); err != nil {
			return 0, fmt.Errorf("update balance for record %d: %w", cf.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit recompute: %w", err)
	}
	return len(records), nil
}

func (s *SQLiteStore) CreateLoan(ctx context.Context, l *core.BusinessLoan) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	if l.Status == "" {
		l.Status = core.LoanPending
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO loans (business_id, lender, reason, category, principal_amount, interest_rate, loan_period, date_of_loan, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.BusinessID, l.Lender, l.Reason, nullLoanCategory(l.Category), l.Principal.String(),
		nullDecimal(l.InterestRate), l.LoanPeriod.String(), nullDate(l.DateOfLoan),
		string(l.Status), l.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert loan: %w", err)
	}
	l.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("loan id: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetLoan(ctx context.Context, id int64) (core.BusinessLoan, error) {
	row := s.db.QueryRowContext(ctx, selectLoan+` WHERE id = ?`, id)
	return scanLoan(row)
}

func (s *SQLiteStore) ListLoans(ctx context.Context, businessID int64) ([]core.BusinessLoan, error) {
	rows, err := s.db.QueryContext(ctx, selectLoan+` WHERE business_id = ? ORDER BY id`, businessID)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	defer rows.Close()
	return collectLoans(rows)
}

func (s *SQLiteStore) ListPendingLoans(ctx context.Context) ([]core.BusinessLoan, error) {
	rows, err := s.db.QueryContext(ctx, selectLoan+` WHERE status = ? ORDER BY id`, string(core.LoanPending))
	if err != nil {
		return nil, fmt.Errorf("list pending loans: %w", err)
	}
	defer rows.Close()
	return collectLoans(rows)
}

func (s *SQLiteStore) UpdateLoanStatus(ctx context.Context, loanID int64, status core.LoanStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE loans SET status = ? WHERE id = ?`, string(status), loanID)
	if err != nil {
		return fmt.Errorf("update loan status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update loan status: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) CreateRepayment(ctx context.Context, r *core.LoanRepayment) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO repayments (loan_id, amount_paid, date_paid, created_at) VALUES (?, ?, ?, ?)`,
		r.LoanID, r.AmountPaid.String(), nullDate(r.DatePaid), r.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert repayment: %w", err)
	}
	r.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("repayment id: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetRepayment(ctx context.Context, id int64) (core.LoanRepayment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, loan_id, amount_paid, date_paid, created_at FROM repayments WHERE id = ?`, id)
	return scanRepayment(row)
}

func (s *SQLiteStore) UpdateRepayment(ctx context.Context, r *core.LoanRepayment) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE repayments SET amount_paid = ?, date_paid = ? WHERE id = ?`,
		r.AmountPaid.String(), nullDate(r.DatePaid), r.ID,
	)
	if err != nil {
		return fmt.Errorf("update repayment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update repayment: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) ListRepayments(ctx context.Context, loanID int64) ([]core.LoanRepayment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, loan_id, amount_paid, date_paid, created_at FROM repayments WHERE loan_id = ? ORDER BY id`,
		loanID)
	if err != nil {
		return nil, fmt.Errorf("list repayments: %w", err)
	}
	defer rows.Close()

	var repayments []core.LoanRepayment
	for rows.Next() {
		r, err := scanRepayment(rows)
		if err != nil {
			return nil, err
		}
		repayments = append(repayments, r)
	}
	return repayments, rows.Err()
}

const selectLoan = `SELECT id, business_id, lender, reason, category, principal_amount, interest_rate, loan_period, date_of_loan, status, created_at FROM loans`

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanBusiness(row scanner) (core.BusinessProfile, error) {
	var (
		b         core.BusinessProfile
		typ, size string
		period    string
		createdAt int64
	)
	err := row.Scan(&b.ID, &b.Name, &typ, &size, &b.Address, &period, &createdAt)
	if err == sql.ErrNoRows {
		return core.BusinessProfile{}, ErrNotFound
	}
	if err != nil {
		return core.BusinessProfile{}, fmt.Errorf("scan business: %w", err)
	}
	b.Type = core.BusinessType(typ)
	b.Size = core.SizeBucket(size)
	b.OperationPeriod, err = decimal.NewFromString(period)
	if err != nil {
		return core.BusinessProfile{}, fmt.Errorf("parse operation period: %w", err)
	}
	b.CreatedAt = time.Unix(createdAt, 0).UTC()
	return b, nil
}

func scanCashFlow(row scanner) (core.CashFlow, error) {
	var (
		cf              core.CashFlow
		typ             string
		category        sql.NullString
		amount          string
		balance, dateRI sql.NullString
		createdAt       int64
	)
	err := row.Scan(&cf.ID, &cf.BusinessID, &typ, &category, &amount, &balance, &dateRI, &createdAt)
	if err == sql.ErrNoRows {
		return core.CashFlow{}, ErrNotFound
	}
	if err != nil {
		return core.CashFlow{}, fmt.Errorf("scan cashflow: %w", err)
	}
	cf.Type = core.CashFlowType(typ)
	if category.Valid {
		cf.Category = core.CashFlowCategory(category.String)
	}
	if cf.Amount, err = parseStoredMoney(amount); err != nil {
		return core.CashFlow{}, err
	}
	if cf.Balance, err = parseStoredMoneyPtr(balance); err != nil {
		return core.CashFlow{}, err
	}
	if cf.DateRecorded, err = parseStoredDate(dateRI); err != nil {
		return core.CashFlow{}, err
	}
	cf.CreatedAt = time.Unix(createdAt, 0).UTC()
	return cf, nil
}

func scanLoan(row scanner) (core.BusinessLoan, error) {
	var (
		l                  core.BusinessLoan
		category           sql.NullString
		principal, period  string
		rate, dateL        sql.NullString
		status             string
		createdAt          int64
	)
	err := row.Scan(&l.ID, &l.BusinessID, &l.Lender, &l.Reason, &category, &principal, &rate, &period, &dateL, &status, &createdAt)
	if err == sql.ErrNoRows {
		return core.BusinessLoan{}, ErrNotFound
	}
	if err != nil {
		return core.BusinessLoan{}, fmt.Errorf("scan loan: %w", err)
	}
	if category.Valid {
		l.Category = core.LoanCategory(category.String)
	}
	if l.Principal, err = parseStoredMoney(principal); err != nil {
		return core.BusinessLoan{}, err
	}
	if rate.Valid {
		d, err := decimal.NewFromString(rate.String)
		if err != nil {
			return core.BusinessLoan{}, fmt.Errorf("parse interest rate: %w", err)
		}
		l.InterestRate = &d
	}
	if l.LoanPeriod, err = decimal.NewFromString(period); err != nil {
		return core.BusinessLoan{}, fmt.Errorf("parse loan period: %w", err)
	}
	if l.DateOfLoan, err = parseStoredDate(dateL); err != nil {
		return core.BusinessLoan{}, err
	}
	l.Status = core.LoanStatus(status)
	l.CreatedAt = time.Unix(createdAt, 0).UTC()
	return l, nil
}

func scanRepayment(row scanner) (core.LoanRepayment, error) {
	var (
		r         core.LoanRepayment
		amount    string
		dateP     sql.NullString
		createdAt int64
	)
	err := row.Scan(&r.ID, &r.LoanID, &amount, &dateP, &createdAt)
	if err == sql.ErrNoRows {
		return core.LoanRepayment{}, ErrNotFound
	}
	if err != nil {
		return core.LoanRepayment{}, fmt.Errorf("scan repayment: %w", err)
	}
	if r.AmountPaid, err = parseStoredMoney(amount); err != nil {
		return core.LoanRepayment{}, err
	}
	if r.DatePaid, err = parseStoredDate(dateP); err != nil {
		return core.LoanRepayment{}, err
	}
	r.CreatedAt = time.Unix(createdAt, 0).UTC()
	return r, nil
}

func collectLoans(rows *sql.Rows) ([]core.BusinessLoan, error) {
	var loans []core.BusinessLoan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, l)
	}
	return loans, rows.Err()
}

func parseStoredMoney(s string) (core.Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return core.Money{}, fmt.Errorf("parse stored amount %q: %w", s, err)
	}
	return core.NewMoney(d), nil
}

func parseStoredMoneyPtr(ns sql.NullString) (*core.Money, error) {
	if !ns.Valid {
		return nil, nil
	}
	m, err := parseStoredMoney(ns.String)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func parseStoredDate(ns sql.NullString) (*core.Date, error) {
	if !ns.Valid {
		return nil, nil
	}
	d, err := core.ParseDate(ns.String)
	if err != nil {
		return nil, fmt.Errorf("parse stored date %q: %w", ns.String, err)
	}
	return &d, nil
}

func nullCategory(c core.CashFlowCategory) any {
	if c == "" {
		return nil
	}
	return string(c)
}

func nullLoanCategory(c core.LoanCategory) any {
	if c == "" {
		return nil
	}
	return string(c)
}

func nullMoney(m *core.Money) any {
	if m == nil {
		return nil
	}
	return m.String()
}

func nullDate(d *core.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func nullDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}
