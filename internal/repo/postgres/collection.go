package postgres

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/geocoder89/promohub/internal/query"
	"github.com/geocoder89/promohub/internal/repo"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Collection stores T as a JSONB document in a table of
// (id, doc, created_at, updated_at). Timestamps live both in the columns,
// for ordering, and in doc, for decoding.
type Collection[T any] struct {
	pool       *pgxpool.Pool
	table      string
	timeFields map[string]bool
	now        func() time.Time
}

// NewCollection binds T to table. timeFields names the doc fields holding
// timestamps, which are compared and sorted as timestamptz.
func NewCollection[T any](pool *pgxpool.Pool, table string, timeFields ...string) *Collection[T] {
	tf := make(map[string]bool, len(timeFields))
	for _, f := range timeFields {
		tf[f] = true
	}

	return &Collection[T]{
		pool:       pool,
		table:      pgx.Identifier{table}.Sanitize(),
		timeFields: tf,
		now:        time.Now,
	}
}

func (c *Collection[T]) Find(ctx context.Context, q query.Query) ([]T, error) {
	where, args, err := c.where(q.Filter)
	if err != nil {
		return nil, err
	}

	sql := "SELECT doc FROM " + c.table + where

	if q.Sort.Field != "" {
		expr, err := c.sortExpr(q.Sort.Field)
		if err != nil {
			return nil, err
		}

		dir := "DESC"
		if q.Sort.Dir == query.Asc {
			dir = "ASC"
		}
		sql += fmt.Sprintf(" ORDER BY %s %s, created_at %s, id %s", expr, dir, dir, dir)
	}

	if q.Limit > 0 {
		args = append(args, q.Limit)
		sql += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if q.Skip > 0 {
		args = append(args, q.Skip)
		sql += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := c.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]T, 0)

	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}

		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode %s row: %w", c.table, err)
		}
		out = append(out, v)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *Collection[T]) Count(ctx context.Context, f query.Filter) (int64, error) {
	where, args, err := c.where(f)
	if err != nil {
		return 0, err
	}

	var n int64
	err = c.pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+c.table+where, args...).Scan(&n)

	return n, err
}

func (c *Collection[T]) FindByID(ctx context.Context, id string) (T, error) {
	var out T
	var raw []byte

	err := c.pool.QueryRow(ctx, "SELECT doc FROM "+c.table+" WHERE id = $1", id).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return out, repo.ErrNotFound
		}
		return out, err
	}

	err = json.Unmarshal(raw, &out)
	return out, err
}

func (c *Collection[T]) Insert(ctx context.Context, doc T) (T, error) {
	var out T

	m, err := toDoc(doc)
	if err != nil {
		return out, err
	}

	id := uuid.NewString()
	now := c.now().UTC().Truncate(time.Millisecond)
	m["id"] = id
	m["createdAt"] = now
	m["updatedAt"] = now

	body, err := json.Marshal(m)
	if err != nil {
		return out, err
	}

	var raw []byte
	err = c.pool.QueryRow(ctx,
		"INSERT INTO "+c.table+" (id, doc, created_at, updated_at) VALUES ($1, $2::jsonb, $3, $3) RETURNING doc",
		id, string(body), now,
	).Scan(&raw)
	if err != nil {
		return out, mapErr(err)
	}

	err = json.Unmarshal(raw, &out)
	return out, err
}

func (c *Collection[T]) UpdateByID(ctx context.Context, id string, patch repo.Patch) (T, error) {
	var out T

	changes := make(map[string]any, len(patch)+1)
	for k, v := range patch {
		if k == "id" || k == "createdAt" {
			continue
		}
		changes[k] = v
	}

	now := c.now().UTC().Truncate(time.Millisecond)
	changes["updatedAt"] = now

	body, err := json.Marshal(changes)
	if err != nil {
		return out, err
	}

	var raw []byte
	err = c.pool.QueryRow(ctx,
		"UPDATE "+c.table+" SET doc = doc || $2::jsonb, updated_at = $3 WHERE id = $1 RETURNING doc",
		id, string(body), now,
	).Scan(&raw)
	if err != nil {
		return out, mapErr(err)
	}

	err = json.Unmarshal(raw, &out)
	return out, err
}

func (c *Collection[T]) DeleteByID(ctx context.Context, id string) (bool, error) {
	tag, err := c.pool.Exec(ctx, "DELETE FROM "+c.table+" WHERE id = $1", id)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() > 0, nil
}

var fieldPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

var sqlOps = map[query.Op]string{
	query.Eq:  "=",
	query.Lte: "<=",
	query.Gte: ">=",
}

func (c *Collection[T]) where(f query.Filter) (string, []any, error) {
	if len(f) == 0 {
		return "", nil, nil
	}

	conds := make([]string, 0, len(f))
	args := make([]any, 0, len(f))

	for _, cond := range f {
		op, ok := sqlOps[cond.Op]
		if !ok {
			return "", nil, fmt.Errorf("unsupported operator %q", cond.Op)
		}
		if !fieldPattern.MatchString(cond.Field) {
			return "", nil, fmt.Errorf("invalid field %q", cond.Field)
		}

		pos := len(args) + 1

		switch {
		case cond.Field == "id":
			conds = append(conds, fmt.Sprintf("id %s $%d", op, pos))
			args = append(args, fmt.Sprint(cond.Value))
		case cond.Field == "createdAt" || cond.Field == "updatedAt":
			conds = append(conds, fmt.Sprintf("%s %s $%d", snake(cond.Field), op, pos))
			args = append(args, cond.Value)
		case c.timeFields[cond.Field]:
			conds = append(conds, fmt.Sprintf("(doc->>'%s')::timestamptz %s $%d", cond.Field, op, pos))
			args = append(args, cond.Value)
		default:
			raw, err := json.Marshal(cond.Value)
			if err != nil {
				return "", nil, err
			}

			var s string
			if json.Unmarshal(raw, &s) == nil {
				conds = append(conds, fmt.Sprintf("doc->>'%s' %s $%d", cond.Field, op, pos))
				args = append(args, s)
			} else {
				conds = append(conds, fmt.Sprintf("doc->'%s' %s $%d::jsonb", cond.Field, op, pos))
				args = append(args, string(raw))
			}
		}
	}

	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

func (c *Collection[T]) sortExpr(field string) (string, error) {
	if !fieldPattern.MatchString(field) {
		return "", fmt.Errorf("invalid sort field %q", field)
	}

	switch {
	case field == "id":
		return "id", nil
	case field == "createdAt" || field == "updatedAt":
		return snake(field), nil
	case c.timeFields[field]:
		return fmt.Sprintf("(doc->>'%s')::timestamptz", field), nil
	default:
		return fmt.Sprintf("doc->'%s'", field), nil
	}
}

func snake(field string) string {
	if field == "createdAt" {
		return "created_at"
	}
	return "updated_at"
}

func toDoc(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var m map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}

	return m, nil
}

func mapErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return repo.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%s: %w", pgErr.ConstraintName, repo.ErrDuplicate)
	}

	return err
}
