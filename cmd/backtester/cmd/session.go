package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/execution"
	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/report"
	"github.com/rustyeddy/backtester/risk"
	"github.com/rustyeddy/backtester/strategies"
)

// loadConfig reads the --config file, or the defaults when none is given,
// then applies environment overrides.
func loadConfig(path string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Parse(path); err != nil {
			return nil, err
		}
	}
	applied, err := cfg.ApplyEnv(os.LookupEnv)
	if err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	if len(applied) > 0 {
		logger.Debug("environment overrides", zap.Strings("vars", applied))
	}
	return cfg, nil
}

// session is one loaded dataset ready to run strategies against.
type session struct {
	cfg     *config.Config
	runner  *backtest.Runner
	dataset string
	log     *zap.Logger
}

func newSession(cfg *config.Config, log *zap.Logger) (*session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	from, to, err := cfg.DateRange()
	if err != nil {
		return nil, err
	}
	series, tl, err := market.LoadSymbols(cfg.DataPaths(), from, to)
	if err != nil {
		return nil, err
	}
	log.Info("data loaded",
		zap.Strings("symbols", cfg.Data.Symbols),
		zap.Int("steps", len(tl)),
		zap.Time("start", tl.Start()),
		zap.Time("end", tl.End()),
	)

	execOpts, err := cfg.ExecutionOptions()
	if err != nil {
		return nil, err
	}
	model, err := execution.NewModel(execOpts...)
	if err != nil {
		return nil, err
	}
	pfOpts, err := cfg.PortfolioOptions()
	if err != nil {
		return nil, err
	}

	r := &backtest.Runner{
		Series:    series,
		Cash:      cfg.Account.Balance,
		Portfolio: pfOpts,
		Executor:  model,
		Logger:    log,
	}
	if p, ok := cfg.RiskPolicy(); ok {
		r.Factory = risk.Guard(p, log)
	}

	return &session{cfg: cfg, runner: r, dataset: datasetName(cfg), log: log}, nil
}

// datasetName joins the base names of the data files in symbol order.
func datasetName(cfg *config.Config) string {
	syms := append([]string(nil), cfg.Data.Symbols...)
	sort.Strings(syms)
	names := make([]string, 0, len(syms))
	for _, s := range syms {
		names = append(names, filepath.Base(cfg.Data.Paths[s]))
	}
	return strings.Join(names, ",")
}

// build constructs the named strategies, all trading the configured
// symbol with the configured params.
func (s *session) build(names ...string) ([]backtest.Strategy, error) {
	out := make([]backtest.Strategy, 0, len(names))
	for _, name := range names {
		st, err := strategies.StrategyByName(name, s.cfg.StrategySymbol(), s.cfg.StrategyParams())
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// record stores finished runs in the configured journal and Org file.
func (s *session) record(ctx context.Context, sums []report.Summary, results []backtest.Result) error {
	conf, err := json.Marshal(s.cfg.Strategy)
	if err != nil {
		return fmt.Errorf("marshal strategy config: %w", err)
	}
	created := time.Now().UTC()

	entries := make([]journal.Entry, len(sums))
	for i := range sums {
		entries[i] = report.Entry(sums[i], results[i], created, s.dataset, conf)
		entries[i].Run.OrgPath = s.cfg.Journal.OrgPath
	}

	j, err := openJournal(s.cfg.Journal)
	if err != nil {
		return err
	}
	if j != nil {
		defer j.Close()
		for _, e := range entries {
			if err := j.Record(ctx, e); err != nil {
				return fmt.Errorf("journal: %w", err)
			}
			s.log.Info("run journaled", zap.String("run_id", e.Run.RunID), zap.String("journal", s.cfg.Journal.Type))
		}
	}

	if path := s.cfg.Journal.OrgPath; path != "" {
		if err := writeOrg(path, entries); err != nil {
			return fmt.Errorf("org: %w", err)
		}
	}
	return nil
}

// openJournal returns nil when journaling is off.
func openJournal(c config.JournalConfig) (journal.Journal, error) {
	switch c.Type {
	case "sqlite":
		j, err := journal.NewSQLite(c.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		return j, nil
	case "csv":
		j, err := journal.NewCSV(c.Dir)
		if err != nil {
			return nil, fmt.Errorf("open csv journal: %w", err)
		}
		return j, nil
	default:
		return nil, nil
	}
}

func writeOrg(path string, entries []journal.Entry) error {
	if len(entries) == 1 && len(entries[0].Trades) == 0 {
		return entries[0].Run.WriteBacktestOrg()
	}
	var b strings.Builder
	for _, e := range entries {
		s, err := e.Run.FormatOrg()
		if err != nil {
			return err
		}
		b.WriteString(s)
		if len(e.Trades) > 0 {
			b.WriteString("\n** Trades\n")
			b.WriteString(journal.FormatTradesOrg(e.Trades))
		}
		b.WriteString("\n")
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
