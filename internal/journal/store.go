/*
Package journal mirrors Deposit contract notifications into a local SQL
database and reconciles them with the on-chain state.
*/
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"

	_ "github.com/mattn/go-sqlite3"
	"github.com/nspcc-dev/neo-go/pkg/util"
)

// Kind is a direction of the asset movement.
type Kind string

const (
	KindDeposit    Kind = "deposit"
	KindWithdrawal Kind = "withdrawal"
)

// Entry is a single balance change of the Deposit contract.
type Entry struct {
	// Tx and Index (the notification number within the transaction) identify
	// the entry.
	Tx     util.Uint256
	Index  int
	Height uint32

	Kind    Kind
	Asset   util.Uint160
	Account util.Uint160
	Amount  *big.Int
}

// Totals is a sum of all entries in some asset.
type Totals struct {
	Deposited *big.Int
	Withdrawn *big.Int
}

// Balance returns the amount that must be held by the contract.
func (t Totals) Balance() *big.Int {
	return new(big.Int).Sub(t.Deposited, t.Withdrawn)
}

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	tx TEXT NOT NULL,
	idx INTEGER NOT NULL,
	height INTEGER NOT NULL,
	kind TEXT NOT NULL,
	asset TEXT NOT NULL,
	account TEXT NOT NULL,
	amount TEXT NOT NULL,
	PRIMARY KEY (tx, idx)
);

CREATE INDEX IF NOT EXISTS idx_entries_account ON entries(account);
CREATE INDEX IF NOT EXISTS idx_entries_asset ON entries(asset);
CREATE INDEX IF NOT EXISTS idx_entries_height ON entries(height);
`

// Store is an append-only entry storage.
type Store struct {
	db *sql.DB
}

// NewStore returns Store working with the given database. Migrate must be
// called before any other method.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open opens SQLite database file at the given path and prepares it for
// work.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite doesn't allow concurrent writers.
	db.SetMaxOpenConns(1)

	s := NewStore(db)
	if err = s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates tables if they don't exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Append saves the entry. Entries are identified by transaction and
// notification index, so repeated appends are no-op. Append returns true if
// the entry was actually inserted.
func (s *Store) Append(ctx context.Context, e Entry) (bool, error) {
	if e.Amount == nil || e.Amount.Sign() <= 0 {
		return false, fmt.Errorf("invalid amount %v", e.Amount)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO entries (tx, idx, height, kind, asset, account, amount)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.Tx.StringLE(), e.Index, e.Height, string(e.Kind), e.Asset.StringLE(), e.Account.StringLE(), e.Amount.String())
	if err != nil {
		return false, fmt.Errorf("insert entry: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}

	return n > 0, nil
}

// Entries returns all entries of the account ordered by their appearance on
// the chain.
func (s *Store) Entries(ctx context.Context, account util.Uint160) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tx, idx, height, kind, asset, account, amount
		FROM entries
		WHERE account = ?
		ORDER BY height, tx, idx
	`, account.StringLE())
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var res []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, e)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return res, nil
}

// Totals sums all entries in the asset. Amounts are summed here since they may
// not fit into SQLite integers.
func (s *Store) Totals(ctx context.Context, asset util.Uint160) (Totals, error) {
	res := Totals{Deposited: new(big.Int), Withdrawn: new(big.Int)}

	rows, err := s.db.QueryContext(ctx, `SELECT kind, amount FROM entries WHERE asset = ?`, asset.StringLE())
	if err != nil {
		return res, fmt.Errorf("query amounts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind, amountStr string
		if err := rows.Scan(&kind, &amountStr); err != nil {
			return res, fmt.Errorf("scan amount: %w", err)
		}

		amount, ok := new(big.Int).SetString(amountStr, 10)
		if !ok {
			return res, fmt.Errorf("invalid amount %q", amountStr)
		}

		switch Kind(kind) {
		case KindDeposit:
			res.Deposited.Add(res.Deposited, amount)
		case KindWithdrawal:
			res.Withdrawn.Add(res.Withdrawn, amount)
		default:
			return res, fmt.Errorf("unknown entry kind %q", kind)
		}
	}

	if err = rows.Err(); err != nil {
		return res, fmt.Errorf("iterate amounts: %w", err)
	}

	return res, nil
}

// LastHeight returns the highest block containing a saved entry. False is
// returned if there are no entries.
func (s *Store) LastHeight(ctx context.Context) (uint32, bool, error) {
	var h sql.NullInt64

	err := s.db.QueryRowContext(ctx, `SELECT MAX(height) FROM entries`).Scan(&h)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, false, fmt.Errorf("query last height: %w", err)
	}

	if !h.Valid {
		return 0, false, nil
	}

	return uint32(h.Int64), true, nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var (
		e                                Entry
		tx, kind, asset, account, amount string
	)

	err := rows.Scan(&tx, &e.Index, &e.Height, &kind, &asset, &account, &amount)
	if err != nil {
		return e, fmt.Errorf("scan entry: %w", err)
	}

	e.Kind = Kind(kind)

	if e.Tx, err = util.Uint256DecodeStringLE(tx); err != nil {
		return e, fmt.Errorf("decode transaction hash: %w", err)
	}
	if e.Asset, err = util.Uint160DecodeStringLE(asset); err != nil {
		return e, fmt.Errorf("decode asset: %w", err)
	}
	if e.Account, err = util.Uint160DecodeStringLE(account); err != nil {
		return e, fmt.Errorf("decode account: %w", err)
	}

	var ok bool
	if e.Amount, ok = new(big.Int).SetString(amount, 10); !ok {
		return e, fmt.Errorf("invalid amount %q", amount)
	}

	return e, nil
}
