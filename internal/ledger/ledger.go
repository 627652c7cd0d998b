// Package ledger owns today's entry list and running totals.
//
// Every mutation builds the next state on copies, persists it in a single
// atomic batch (entries, totals, last-saved date, today's history
// snapshot), and only then replaces the in-memory state. A failed write
// leaves both the store and the Store value untouched.
package ledger

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"io"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/hpungsan/macrolog/internal/day"
	"github.com/hpungsan/macrolog/internal/entry"
	"github.com/hpungsan/macrolog/internal/errors"
	"github.com/hpungsan/macrolog/internal/history"
	"github.com/hpungsan/macrolog/internal/kv"
	"github.com/hpungsan/macrolog/internal/logging"
	"github.com/hpungsan/macrolog/internal/metrics"
)

// Store keys for the live day.
const (
	KeyEntries   = "day/entries"
	KeyTotals    = "day/totals"
	KeyLastSaved = "day/last_saved"
)

// Options configures Open. Nav is required; the rest may be zero.
type Options struct {
	Nav     *day.Navigator
	Log     logrus.FieldLogger
	Metrics *metrics.Metrics
}

// Store is the live log for one day.
type Store struct {
	kv      kv.Store
	archive *history.Archive
	nav     *day.Navigator
	log     logrus.FieldLogger
	metrics *metrics.Metrics
	entropy io.Reader

	day     string
	entries []entry.Entry
	totals  entry.Macros
}

// Open loads the persisted live day and rolls it over if the calendar has
// moved on since it was last saved.
func Open(ctx context.Context, store kv.Store, archive *history.Archive, opts Options) (*Store, error) {
	if opts.Nav == nil {
		opts.Nav = day.NewNavigator(nil, nil)
	}
	s := &Store{
		kv:      store,
		archive: archive,
		nav:     opts.Nav,
		log:     logging.Component(opts.Log, "ledger"),
		metrics: opts.Metrics,
		entropy: ulid.Monotonic(rand.Reader, 0),
		entries: []entry.Entry{},
	}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	if _, err := s.RolloverIfNewDay(ctx, s.nav.Today()); err != nil {
		return nil, err
	}
	return s, nil
}

// load reads persisted state. Unparseable values degrade to empty; a store
// that cannot be read at all is an error.
func (s *Store) load(ctx context.Context) error {
	data, found, err := s.kv.Get(ctx, KeyEntries)
	if err != nil {
		return errors.NewInternal(err)
	}
	if found {
		entries, err := history.Decode(data)
		if err != nil {
			s.degraded(KeyEntries, err)
		} else {
			s.entries = entries
		}
	}

	data, found, err = s.kv.Get(ctx, KeyLastSaved)
	if err != nil {
		return errors.NewInternal(err)
	}
	if found {
		var saved string
		if err := json.Unmarshal(data, &saved); err != nil || !day.Valid(saved) {
			s.degraded(KeyLastSaved, err)
		} else {
			s.day = saved
		}
	}
	if s.day == "" && len(s.entries) > 0 && day.Valid(s.entries[0].Date) {
		s.day = s.entries[0].Date
	}

	// Stored totals are never trusted; they are rebuilt from the entries.
	s.totals = entry.Sum(s.entries)
	data, found, err = s.kv.Get(ctx, KeyTotals)
	if err != nil {
		return errors.NewInternal(err)
	}
	if found {
		var stored entry.Macros
		if err := json.Unmarshal(data, &stored); err != nil {
			s.degraded(KeyTotals, err)
		} else if stored != s.totals {
			s.log.WithFields(logrus.Fields{"stored": stored, "computed": s.totals}).
				Warn("stored totals disagree with entries; using computed totals")
		}
	}
	return nil
}

func (s *Store) degraded(key string, err error) {
	corrupt := errors.NewStorageCorrupt(key, err)
	s.log.WithFields(logrus.Fields{"key": key, "code": corrupt.Code}).Warn(corrupt.Message)
	s.metrics.Degraded("live")
}

// Day returns the date the live log belongs to.
func (s *Store) Day() string { return s.day }

// Entries returns a copy of the live entries, newest first.
func (s *Store) Entries() []entry.Entry { return entry.CloneAll(s.entries) }

// Totals returns the running totals.
func (s *Store) Totals() entry.Macros { return s.totals }

// Guard rejects a mutation aimed at any date other than the live day.
// An empty date means the live day.
func (s *Store) Guard(date string) error {
	if date == "" || date == s.day {
		return nil
	}
	return errors.NewWrongDay(date, s.day)
}

// RolloverIfNewDay starts a fresh day when today differs from the live
// day. The previous day's snapshot is written once more with its final
// entries.
func (s *Store) RolloverIfNewDay(ctx context.Context, today string) (bool, error) {
	if today == s.day {
		return false, nil
	}

	batch := kv.Batch{}
	if s.day != "" {
		if err := s.archive.Stage(batch, s.day, s.entries); err != nil {
			return false, err
		}
	}

	// The new day always starts empty. A snapshot can only exist for it if
	// the clock went backwards, and that snapshot is replaced like any
	// other live-day write.
	if old := s.archive.ReadSnapshot(ctx, today); len(old) > 0 {
		s.log.WithFields(logrus.Fields{"date": today, "entries": len(old)}).Warn("clock moved backwards; replacing snapshot with an empty log")
	}

	prev := s.day
	if err := s.commit(ctx, batch, today, []entry.Entry{}, entry.Macros{}); err != nil {
		return false, err
	}
	s.metrics.Rollover()
	s.log.WithFields(logrus.Fields{"from": prev, "to": today}).Info("day rollover")
	return true, nil
}

// ensureToday rolls over before a mutation so a long-lived Store never
// writes into yesterday.
func (s *Store) ensureToday(ctx context.Context) error {
	_, err := s.RolloverIfNewDay(ctx, s.nav.Today())
	return err
}

// Add validates c and prepends it to the live day.
func (s *Store) Add(ctx context.Context, c entry.Candidate) (entry.Entry, error) {
	e, err := s.add(ctx, c)
	s.metrics.EntryOp("add", err)
	return e, err
}

func (s *Store) add(ctx context.Context, c entry.Candidate) (entry.Entry, error) {
	if err := s.ensureToday(ctx); err != nil {
		return entry.Entry{}, err
	}
	valid, err := entry.Validate(c)
	if err != nil {
		return entry.Entry{}, err
	}

	now := s.nav.Now()
	e := entry.Entry{
		ID:        ulid.MustNew(ulid.Timestamp(now), s.entropy).String(),
		Name:      valid.Name,
		Macros:    valid.Macros,
		Date:      s.day,
		CreatedAt: now.UnixMilli(),
		MealType:  entry.MealType(valid.MealType),
	}

	next := make([]entry.Entry, 0, len(s.entries)+1)
	next = append(next, e)
	next = append(next, s.entries...)

	if err := s.commit(ctx, kv.Batch{}, s.day, next, s.totals.Add(e.Macros)); err != nil {
		return entry.Entry{}, err
	}
	return e, nil
}

// Patch lists the fields Edit may change. nil leaves a field as is. The
// meal an entry was logged under is fixed; only name and macros change.
type Patch struct {
	Name     *string
	Calories *int
	Protein  *int
	Carbs    *int
	Fat      *int
}

// Empty reports whether no field is set.
func (p Patch) Empty() bool {
	return p.Name == nil && p.Calories == nil && p.Protein == nil &&
		p.Carbs == nil && p.Fat == nil
}

// Edit applies p to the entry with id. The merged entry is validated like a
// new one; totals move by the difference.
func (s *Store) Edit(ctx context.Context, id string, p Patch) (entry.Entry, error) {
	e, err := s.edit(ctx, id, p)
	s.metrics.EntryOp("edit", err)
	return e, err
}

func (s *Store) edit(ctx context.Context, id string, p Patch) (entry.Entry, error) {
	if p.Empty() {
		return entry.Entry{}, errors.NewInvalidRequest("at least one editable field must be provided")
	}
	if err := s.ensureToday(ctx); err != nil {
		return entry.Entry{}, err
	}
	i := entry.IndexOf(s.entries, id)
	if i < 0 {
		return entry.Entry{}, errors.NewNotFound(id)
	}

	old := s.entries[i]
	updated := old
	if p.Name != nil {
		updated.Name = entry.NormalizeName(*p.Name)
	}
	setInt(&updated.Calories, p.Calories)
	setInt(&updated.Protein, p.Protein)
	setInt(&updated.Carbs, p.Carbs)
	setInt(&updated.Fat, p.Fat)
	if err := entry.ValidateMacros(updated.Name, updated.Macros); err != nil {
		return entry.Entry{}, err
	}

	next := entry.CloneAll(s.entries)
	next[i] = updated
	totals := s.totals.Add(updated.Macros.Sub(old.Macros))

	if err := s.commit(ctx, kv.Batch{}, s.day, next, totals); err != nil {
		return entry.Entry{}, err
	}
	return updated, nil
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

// Remove deletes the entry with id. Removing an id that is not present is
// a no-op and reports false.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	removed, err := s.remove(ctx, id)
	s.metrics.EntryOp("remove", err)
	return removed, err
}

func (s *Store) remove(ctx context.Context, id string) (bool, error) {
	if err := s.ensureToday(ctx); err != nil {
		return false, err
	}
	i := entry.IndexOf(s.entries, id)
	if i < 0 {
		return false, nil
	}

	gone := s.entries[i]
	next := make([]entry.Entry, 0, len(s.entries)-1)
	next = append(next, s.entries[:i]...)
	next = append(next, s.entries[i+1:]...)

	if err := s.commit(ctx, kv.Batch{}, s.day, next, s.totals.Sub(gone.Macros)); err != nil {
		return false, err
	}
	return true, nil
}

// Clear empties the live day and returns how many entries were dropped.
func (s *Store) Clear(ctx context.Context) (int, error) {
	n, err := s.clear(ctx)
	s.metrics.EntryOp("clear", err)
	return n, err
}

func (s *Store) clear(ctx context.Context) (int, error) {
	if err := s.ensureToday(ctx); err != nil {
		return 0, err
	}
	n := len(s.entries)
	if err := s.commit(ctx, kv.Batch{}, s.day, []entry.Entry{}, entry.Macros{}); err != nil {
		return 0, err
	}
	return n, nil
}

// commit persists the next state together with anything already in batch,
// then swaps it in.
func (s *Store) commit(ctx context.Context, batch kv.Batch, nextDay string, next []entry.Entry, totals entry.Macros) error {
	entriesJSON, err := history.Encode(next)
	if err != nil {
		return errors.NewInternal(err)
	}
	totalsJSON, err := json.Marshal(totals)
	if err != nil {
		return errors.NewInternal(err)
	}
	dayJSON, err := json.Marshal(nextDay)
	if err != nil {
		return errors.NewInternal(err)
	}

	batch[KeyEntries] = entriesJSON
	batch[KeyTotals] = totalsJSON
	batch[KeyLastSaved] = dayJSON
	if err := s.archive.Stage(batch, nextDay, next); err != nil {
		return err
	}

	if err := s.kv.SetMany(ctx, batch); err != nil {
		s.log.WithError(err).Error("commit failed; state unchanged")
		return errors.NewInternal(err)
	}

	s.day = nextDay
	s.entries = entry.CloneAll(next)
	s.totals = totals
	return nil
}
