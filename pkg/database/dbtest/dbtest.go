// Package dbtest provides a scripted, recording stand-in for database.DB and pgx.Tx.
package dbtest

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Call is one statement sent to the fake.
type Call struct {
	SQL  string
	Args []any
}

// Result is the scripted answer to a statement. QueryRow scans Values (nil Values means no rows),
// Query iterates Rows, Exec reports Tag (e.g. "DELETE 1").
type Result struct {
	Values []any
	Rows   [][]any
	Tag    string
	Err    error
}

// Handler answers a statement.
type Handler func(sql string, args []any) Result

// DB records every statement and answers with Handle.
type DB struct {
	Handle Handler

	mu        sync.Mutex
	calls     []Call
	commits   int
	rollbacks int
}

// New creates a fake database answering with h. A nil h answers every statement with an empty Result.
func New(h Handler) *DB {
	if h == nil {
		h = func(string, []any) Result { return Result{} }
	}
	return &DB{Handle: h}
}

// Calls returns the statements seen so far, in order.
func (d *DB) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Call(nil), d.calls...)
}

// Commits returns how many transactions committed.
func (d *DB) Commits() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.commits
}

// Rollbacks returns how many transactions ended without committing.
func (d *DB) Rollbacks() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rollbacks
}

func (d *DB) answer(sql string, args []any) Result {
	d.mu.Lock()
	d.calls = append(d.calls, Call{SQL: sql, Args: args})
	d.mu.Unlock()
	return d.Handle(sql, args)
}

// Exec implements database.DB.
func (d *DB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	res := d.answer(sql, args)
	return pgconn.NewCommandTag(res.Tag), res.Err
}

// Query implements database.DB.
func (d *DB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	res := d.answer(sql, args)
	if res.Err != nil {
		return nil, res.Err
	}
	return &rows{data: res.Rows, pos: -1}, nil
}

// QueryRow implements database.DB.
func (d *DB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	res := d.answer(sql, args)
	return row{values: res.Values, err: res.Err}
}

// Begin implements database.DB.
func (d *DB) Begin(context.Context) (pgx.Tx, error) {
	return &Tx{db: d}, nil
}

// Tx is a transaction on the fake. Statements go to the parent DB.
type Tx struct {
	db     *DB
	closed bool
}

func (t *Tx) Begin(context.Context) (pgx.Tx, error) { return &Tx{db: t.db}, nil }

func (t *Tx) Commit(context.Context) error {
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.closed = true
	t.db.mu.Lock()
	t.db.commits++
	t.db.mu.Unlock()
	return nil
}

func (t *Tx) Rollback(context.Context) error {
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.closed = true
	t.db.mu.Lock()
	t.db.rollbacks++
	t.db.mu.Unlock()
	return nil
}

func (t *Tx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, errors.New("dbtest: CopyFrom not supported")
}

func (t *Tx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }

func (t *Tx) LargeObjects() pgx.LargeObjects { return pgx.LargeObjects{} }

func (t *Tx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, errors.New("dbtest: Prepare not supported")
}

func (t *Tx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return t.db.Exec(ctx, sql, args...)
}

func (t *Tx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return t.db.Query(ctx, sql, args...)
}

func (t *Tx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return t.db.QueryRow(ctx, sql, args...)
}

func (t *Tx) Conn() *pgx.Conn { return nil }

type row struct {
	values []any
	err    error
}

func (r row) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if r.values == nil {
		return pgx.ErrNoRows
	}
	return assign(r.values, dest)
}

type rows struct {
	data [][]any
	pos  int
}

func (r *rows) Close()                                       {}
func (r *rows) Err() error                                   { return nil }
func (r *rows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *rows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *rows) RawValues() [][]byte                          { return nil }
func (r *rows) Conn() *pgx.Conn                              { return nil }

func (r *rows) Next() bool {
	r.pos++
	return r.pos < len(r.data)
}

func (r *rows) Scan(dest ...any) error { return assign(r.data[r.pos], dest) }

func (r *rows) Values() ([]any, error) { return r.data[r.pos], nil }

// assign copies values into scan destinations, converting between compatible kinds.
func assign(values, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("dbtest: %d values for %d destinations", len(values), len(dest))
	}
	for i, v := range values {
		target := reflect.ValueOf(dest[i])
		if target.Kind() != reflect.Pointer || target.IsNil() {
			return fmt.Errorf("dbtest: destination %d is not a pointer", i)
		}
		elem := target.Elem()
		if v == nil {
			elem.Set(reflect.Zero(elem.Type()))
			continue
		}
		src := reflect.ValueOf(v)
		switch {
		case src.Type().AssignableTo(elem.Type()):
			elem.Set(src)
		case src.Type().ConvertibleTo(elem.Type()):
			elem.Set(src.Convert(elem.Type()))
		default:
			return fmt.Errorf("dbtest: cannot scan %T into %s", v, elem.Type())
		}
	}
	return nil
}
