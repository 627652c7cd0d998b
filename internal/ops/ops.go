package ops

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/hpungsan/macrolog/internal/config"
	"github.com/hpungsan/macrolog/internal/day"
	"github.com/hpungsan/macrolog/internal/entry"
	"github.com/hpungsan/macrolog/internal/errors"
	"github.com/hpungsan/macrolog/internal/history"
	"github.com/hpungsan/macrolog/internal/kv"
	"github.com/hpungsan/macrolog/internal/ledger"
	"github.com/hpungsan/macrolog/internal/logging"
	"github.com/hpungsan/macrolog/internal/lookup"
	"github.com/hpungsan/macrolog/internal/metrics"
)

// Pagination limits
const (
	DefaultListLimit = 31
	MaxListLimit     = 366
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// Env is everything an operation needs. Store and Nav are required.
// Config defaults when nil; Finder may be nil when lookups are not configured.
type Env struct {
	Store   kv.Store
	Config  *config.Config
	BaseDir string // exports default to BaseDir/exports
	Nav     *day.Navigator
	Log     logrus.FieldLogger
	Metrics *metrics.Metrics
	Finder  lookup.Finder
}

func (e Env) config() *config.Config {
	if e.Config == nil {
		return config.DefaultConfig()
	}
	return e.Config
}

// ExportsDir is the default directory for history exports.
func (e Env) ExportsDir() string {
	return filepath.Join(e.BaseDir, "exports")
}

func (e Env) logger() logrus.FieldLogger {
	return logging.Component(e.Log, "ops")
}

func (e Env) archive() *history.Archive {
	return history.New(e.Store, e.Log, e.Metrics)
}

// openLedger loads the live day, rolling it over if needed.
func (e Env) openLedger(ctx context.Context) (*ledger.Store, *history.Archive, error) {
	archive := e.archive()
	s, err := ledger.Open(ctx, e.Store, archive, ledger.Options{Nav: e.Nav, Log: e.Log, Metrics: e.Metrics})
	if err != nil {
		return nil, nil, err
	}
	return s, archive, nil
}

// checkDate rejects malformed dates. Empty is allowed and means today.
func checkDate(date string) (string, error) {
	date = strings.TrimSpace(date)
	if date != "" && !day.Valid(date) {
		return "", errors.NewInvalidRequest("date must be YYYY-MM-DD")
	}
	return date, nil
}

// openForWrite opens the ledger and rejects writes aimed at another day.
func (e Env) openForWrite(ctx context.Context, date string) (*ledger.Store, error) {
	date, err := checkDate(date)
	if err != nil {
		return nil, err
	}
	s, _, err := e.openLedger(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.Guard(date); err != nil {
		return nil, err
	}
	return s, nil
}

// parseMeals turns meal names into section keys.
func parseMeals(names []string) ([]entry.MealType, error) {
	out := make([]entry.MealType, 0, len(names))
	for _, n := range names {
		m, ok := entry.ParseMealType(n)
		if !ok || m == "" {
			return nil, errors.NewInvalidRequest("unknown meal type " + strings.TrimSpace(n))
		}
		out = append(out, m)
	}
	return out, nil
}
