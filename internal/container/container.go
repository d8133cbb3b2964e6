// Package container wires configuration, engines, storage, and the
// HTTP layer into a runnable application.
package container

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"ecocausal/adapters/excel"
	"ecocausal/adapters/memory"
	"ecocausal/adapters/postgres"
	"ecocausal/adapters/report"
	"ecocausal/adapters/stats/correlate"
	"ecocausal/adapters/stats/granger"
	"ecocausal/adapters/stats/lag"
	"ecocausal/adapters/stats/regress"
	"ecocausal/app"
	"ecocausal/domain/causal"
	"ecocausal/internal"
	"ecocausal/internal/analysis"
	"ecocausal/internal/api"
	"ecocausal/internal/config"
	"ecocausal/internal/migration"
	"ecocausal/ports"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB     *sqlx.DB
	Store  ports.AnalysisStore
	Reader ports.SeriesReader

	// Statistical engines
	Correlator *correlate.Engine
	LagEngine  *lag.Engine
	Granger    *granger.Tester
	Regression *regress.Engine
	Aggregator *analysis.Aggregator

	// Application layer
	Service *app.AnalysisService
	Server  *api.Server
}

// New creates a dependency injection container with every component wired
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{
		Config: cfg,
		Logger: internal.NewDefaultLogger(),
	}

	if err := c.initEngines(); err != nil {
		return nil, fmt.Errorf("failed to initialize engines: %w", err)
	}
	if err := c.initStore(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.initService()

	c.Logger.Component("Container").Info("Container initialized (solver=%s, pvalues=%s)",
		cfg.Analysis.Solver, cfg.Analysis.PValueMode)
	return c, nil
}

// initEngines builds the statistical engines according to the configured
// solver and p-value mode
func (c *Container) initEngines() error {
	pvalues := correlate.PValueMode(c.Config.Analysis.PValueMode)
	c.Correlator = correlate.NewEngineWithMode(pvalues)
	c.LagEngine = lag.NewEngine(c.Correlator)

	var grangerSolver ports.LeastSquaresSolver
	var regressionSolver ports.LeastSquaresSolver
	switch c.Config.Analysis.Solver {
	case config.SolverExact:
		grangerSolver = regress.NewExactSolver()
		regressionSolver = regress.NewExactSolver()
	default:
		grangerSolver = regress.NewResidualSolver()
		regressionSolver = regress.NewMultivariateSolver()
	}
	c.Granger = granger.NewTesterWithMode(grangerSolver, c.Correlator, pvalues)
	c.Regression = regress.NewEngine(regressionSolver)

	mechanisms, err := c.loadMechanisms()
	if err != nil {
		return err
	}
	c.Aggregator = analysis.NewAggregator(c.Correlator, c.LagEngine, c.Granger, c.Regression, mechanisms)
	return nil
}

// loadMechanisms returns the curated mechanism table, preferring an
// external file when one is configured
func (c *Container) loadMechanisms() ([]causal.KnownMechanism, error) {
	if path := c.Config.Paths.MechanismsFile; path != "" {
		mechanisms, err := causal.LoadMechanismsFromFile(path)
		if err != nil {
			return nil, err
		}
		c.Logger.Component("Container").Info("Loaded %d mechanisms from %s", len(mechanisms), path)
		return mechanisms, nil
	}
	return causal.LoadMechanisms()
}

// initStore selects postgres when DATABASE_URL is configured and falls
// back to the in-memory store otherwise
func (c *Container) initStore() error {
	logger := c.Logger.Component("Container")

	if c.Config.Database.URL == "" {
		c.Store = memory.NewAnalysisStore()
		logger.Info("No DATABASE_URL configured, analysis history is in-memory only")
		return nil
	}

	db, err := sqlx.Connect("postgres", c.Config.Database.URL)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	if err := migration.NewRunner().Run(context.Background(), db); err != nil {
		db.Close()
		return fmt.Errorf("database migration failed: %w", err)
	}

	c.DB = db
	c.Store = postgres.NewAnalysisRepository(db)
	logger.Info("Connected to postgres, analysis history is persistent")
	return nil
}

// initService wires the application facade and the HTTP server
func (c *Container) initService() {
	c.Reader = excel.NewReader()
	c.Service = app.NewAnalysisService(
		c.Correlator,
		c.LagEngine,
		c.Granger,
		c.Regression,
		c.Aggregator,
		c.Store,
		c.Logger,
		c.Config.Analysis.DefaultMaxLag,
		c.Config.Analysis.Workers,
	)
	c.Server = api.NewServer(c.Service, report.NewMarkdownRenderer(), c.Logger)
}

// Shutdown gracefully releases held resources
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
