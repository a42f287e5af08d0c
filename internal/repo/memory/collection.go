package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/geocoder89/promohub/internal/query"
	"github.com/geocoder89/promohub/internal/repo"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Option func(*options)

type options struct {
	unique []string
	now    func() time.Time
}

// WithUnique rejects inserts and updates that would repeat a value of field.
func WithUnique(fields ...string) Option {
	return func(o *options) { o.unique = append(o.unique, fields...) }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

type entry struct {
	seq int64
	doc map[string]any
}

// Collection keeps documents as decoded JSON objects so filters and sorts
// work on field names the same way the document stores do.
type Collection[T any] struct {
	mu   sync.RWMutex
	docs map[string]entry
	seq  int64
	opts options
}

func NewCollection[T any](opts ...Option) *Collection[T] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	return &Collection[T]{
		docs: make(map[string]entry),
		opts: o,
	}
}

func (c *Collection[T]) Find(ctx context.Context, q query.Query) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filter, err := normalizeFilter(q.Filter)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	matched := make([]entry, 0, len(c.docs))
	for _, e := range c.docs {
		if matches(e.doc, filter) {
			matched = append(matched, e)
		}
	}
	c.mu.RUnlock()

	sortEntries(matched, q.Sort)

	if q.Skip >= len(matched) {
		return []T{}, nil
	}
	if q.Skip > 0 {
		matched = matched[q.Skip:]
	}

	if q.Limit > 0 && q.Limit < len(matched) {
		matched = matched[:q.Limit]
	}

	out := make([]T, 0, len(matched))
	for _, e := range matched {
		var v T
		if err := decode(e.doc, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}

	return out, nil
}

func (c *Collection[T]) Count(ctx context.Context, f query.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	filter, err := normalizeFilter(f)
	if err != nil {
		return 0, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var n int64
	for _, e := range c.docs {
		if matches(e.doc, filter) {
			n++
		}
	}

	return n, nil
}

func (c *Collection[T]) FindByID(ctx context.Context, id string) (T, error) {
	var out T
	if err := ctx.Err(); err != nil {
		return out, err
	}

	c.mu.RLock()
	e, ok := c.docs[id]
	c.mu.RUnlock()

	if !ok {
		return out, repo.ErrNotFound
	}

	err := decode(e.doc, &out)
	return out, err
}

func (c *Collection[T]) Insert(ctx context.Context, doc T) (T, error) {
	var out T
	if err := ctx.Err(); err != nil {
		return out, err
	}

	m, err := encode(doc)
	if err != nil {
		return out, err
	}

	now, err := normalize(c.opts.now().UTC().Truncate(time.Millisecond))
	if err != nil {
		return out, err
	}

	id := uuid.NewString()
	m["id"] = id
	m["createdAt"] = now
	m["updatedAt"] = now

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkUnique(id, m); err != nil {
		return out, err
	}

	c.seq++
	c.docs[id] = entry{seq: c.seq, doc: m}

	err = decode(m, &out)
	return out, err
}

func (c *Collection[T]) UpdateByID(ctx context.Context, id string, patch repo.Patch) (T, error) {
	var out T
	if err := ctx.Err(); err != nil {
		return out, err
	}

	changes, err := encode(map[string]any(patch))
	if err != nil {
		return out, err
	}

	now, err := normalize(c.opts.now().UTC().Truncate(time.Millisecond))
	if err != nil {
		return out, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.docs[id]
	if !ok {
		return out, repo.ErrNotFound
	}

	next := make(map[string]any, len(e.doc)+len(changes))
	for k, v := range e.doc {
		next[k] = v
	}
	for k, v := range changes {
		if k == "id" || k == "createdAt" {
			continue
		}
		next[k] = v
	}
	next["updatedAt"] = now

	if err := c.checkUnique(id, next); err != nil {
		return out, err
	}

	c.docs[id] = entry{seq: e.seq, doc: next}

	err = decode(next, &out)
	return out, err
}

func (c *Collection[T]) DeleteByID(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.docs[id]; !ok {
		return false, nil
	}

	delete(c.docs, id)
	return true, nil
}

// checkUnique must be called with the write lock held.
func (c *Collection[T]) checkUnique(id string, doc map[string]any) error {
	for _, field := range c.opts.unique {
		v, ok := doc[field]
		if !ok {
			continue
		}

		for otherID, e := range c.docs {
			if otherID == id {
				continue
			}
			if cmp, ok := compare(e.doc[field], v); ok && cmp == 0 {
				return fmt.Errorf("%s %v: %w", field, v, repo.ErrDuplicate)
			}
		}
	}

	return nil
}

func matches(doc map[string]any, filter query.Filter) bool {
	for _, cond := range filter {
		v, ok := doc[cond.Field]
		if !ok {
			return false
		}

		cmp, ok := compare(v, cond.Value)
		if !ok {
			return false
		}

		switch cond.Op {
		case query.Eq:
			if cmp != 0 {
				return false
			}
		case query.Lte:
			if cmp > 0 {
				return false
			}
		case query.Gte:
			if cmp < 0 {
				return false
			}
		default:
			return false
		}
	}

	return true
}

// sortEntries orders by the sort field, missing values first, breaking ties
// by insertion order in the same direction.
func sortEntries(entries []entry, s query.Sort) {
	dir := 1
	if s.Dir == query.Desc {
		dir = -1
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, aok := entries[i].doc[s.Field]
		b, bok := entries[j].doc[s.Field]

		cmp := 0
		switch {
		case !aok && bok:
			cmp = -1
		case aok && !bok:
			cmp = 1
		case aok && bok:
			cmp, _ = compare(a, b)
		}

		if cmp == 0 {
			cmp = int(entries[i].seq - entries[j].seq)
		}

		return cmp*dir < 0
	})
}

// compare orders two decoded JSON values. Numbers compare as decimals and
// strings that are both timestamps compare as instants.
func compare(a, b any) (int, bool) {
	switch av := a.(type) {
	case json.Number:
		bv, ok := b.(json.Number)
		if !ok {
			return 0, false
		}
		ad, err := decimal.NewFromString(av.String())
		if err != nil {
			return 0, false
		}
		bd, err := decimal.NewFromString(bv.String())
		if err != nil {
			return 0, false
		}
		return ad.Cmp(bd), true
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		at, aerr := time.Parse(time.RFC3339Nano, av)
		bt, berr := time.Parse(time.RFC3339Nano, bv)
		if aerr == nil && berr == nil {
			return at.Compare(bt), true
		}
		return strings.Compare(av, bv), true
	case bool:
		bv, ok := b.(bool)
		if !ok || av != bv {
			return 1, ok
		}
		return 0, true
	case nil:
		if b == nil {
			return 0, true
		}
		return -1, true
	}

	return 0, false
}

func normalizeFilter(f query.Filter) (query.Filter, error) {
	out := make(query.Filter, 0, len(f))

	for _, cond := range f {
		v, err := normalize(cond.Value)
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w", cond.Field, err)
		}
		cond.Value = v
		out = append(out, cond)
	}

	return out, nil
}

// normalize runs v through JSON so it has the same shape as stored fields.
func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var out any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}

	return out, nil
}

func encode(v any) (map[string]any, error) {
	n, err := normalize(v)
	if err != nil {
		return nil, err
	}

	m, ok := n.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("memory: %T is not a document", v)
	}

	return m, nil
}

func decode(doc map[string]any, out any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	return json.Unmarshal(raw, out)
}
