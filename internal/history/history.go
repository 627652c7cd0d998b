// Package history keeps one snapshot of the entry list per calendar day.
package history

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/hpungsan/macrolog/internal/day"
	"github.com/hpungsan/macrolog/internal/entry"
	"github.com/hpungsan/macrolog/internal/errors"
	"github.com/hpungsan/macrolog/internal/kv"
	"github.com/hpungsan/macrolog/internal/logging"
	"github.com/hpungsan/macrolog/internal/metrics"
)

// KeyPrefix namespaces snapshot keys: history/<YYYY-MM-DD>.
const KeyPrefix = "history/"

// Key returns the store key for date.
func Key(date string) string {
	return KeyPrefix + date
}

// Archive reads and writes day snapshots.
type Archive struct {
	store   kv.Store
	log     logrus.FieldLogger
	metrics *metrics.Metrics
}

// New returns an Archive over store. log and m may be nil.
func New(store kv.Store, log logrus.FieldLogger, m *metrics.Metrics) *Archive {
	return &Archive{store: store, log: logging.Component(log, "history"), metrics: m}
}

// Encode serializes a snapshot. nil encodes as an empty list.
func Encode(entries []entry.Entry) ([]byte, error) {
	return json.Marshal(entry.CloneAll(entries))
}

// Decode parses a snapshot.
func Decode(data []byte) ([]entry.Entry, error) {
	var entries []entry.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entry.CloneAll(entries), nil
}

// Stage adds the snapshot write for date to batch. Nothing is written until
// the batch is committed.
func (a *Archive) Stage(batch kv.Batch, date string, entries []entry.Entry) error {
	data, err := Encode(entries)
	if err != nil {
		return errors.NewInternal(err)
	}
	batch[Key(date)] = data
	return nil
}

// WriteSnapshot replaces the snapshot for date with a copy of entries.
func (a *Archive) WriteSnapshot(ctx context.Context, date string, entries []entry.Entry) error {
	batch := kv.Batch{}
	if err := a.Stage(batch, date, entries); err != nil {
		return err
	}
	if err := a.store.SetMany(ctx, batch); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// ReadSnapshot returns a copy of the snapshot for date. Missing, unreadable,
// or corrupt snapshots read as empty; the problem is logged, not returned.
func (a *Archive) ReadSnapshot(ctx context.Context, date string) []entry.Entry {
	key := Key(date)
	data, found, err := a.store.Get(ctx, key)
	if err != nil {
		a.degraded(key, err)
		return []entry.Entry{}
	}
	if !found {
		return []entry.Entry{}
	}
	entries, err := Decode(data)
	if err != nil {
		a.degraded(key, err)
		return []entry.Entry{}
	}
	return entries
}

func (a *Archive) degraded(key string, err error) {
	corrupt := errors.NewStorageCorrupt(key, err)
	a.log.WithFields(logrus.Fields{"key": key, "code": corrupt.Code}).Warn(corrupt.Message)
	a.metrics.Degraded("history")
}

// Dates lists recorded days in ascending order. Keys that are not valid
// dates are skipped.
func (a *Archive) Dates(ctx context.Context) ([]string, error) {
	keys, err := a.store.Keys(ctx, KeyPrefix)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	dates := make([]string, 0, len(keys))
	for _, k := range keys {
		d := strings.TrimPrefix(k, KeyPrefix)
		if day.Valid(d) {
			dates = append(dates, d)
		}
	}
	return dates, nil
}

// Prune deletes snapshots dated strictly before cutoff and returns the
// removed dates. keep is never removed even if it is older.
func (a *Archive) Prune(ctx context.Context, cutoff, keep string) ([]string, error) {
	dates, err := a.Dates(ctx)
	if err != nil {
		return nil, err
	}
	var removed []string
	for _, d := range dates {
		if !day.Before(d, cutoff) || d == keep {
			continue
		}
		if err := ctx.Err(); err != nil {
			return removed, errors.NewCancelled("prune")
		}
		if _, err := a.store.Delete(ctx, Key(d)); err != nil {
			return removed, errors.NewInternal(err)
		}
		removed = append(removed, d)
	}
	return removed, nil
}
