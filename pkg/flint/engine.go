// Package flint bootstraps an engine: it fills the type, operator, function
// and index builder registries from the built-ins and the compiled-in
// extension modules, seals them into a catalog, and wires the expression
// evaluator, the value codec and the index manager to that catalog.
package flint

import (
	"context"
	"log/slog"
	"os"

	"github.com/cyw0ng95/flint/ext"
	"github.com/cyw0ng95/flint/internal/DS"
	"github.com/cyw0ng95/flint/internal/QE"
	"github.com/cyw0ng95/flint/internal/SF/errors"
	"github.com/cyw0ng95/flint/internal/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Engine is a bootstrapped catalog with its evaluator, codec and index
// manager. All methods are safe for concurrent use.
type Engine struct {
	cfg     Config
	log     *slog.Logger
	catalog *ext.Catalog
	eval    *QE.ExprEvaluator
	codec   *DS.Codec
	indexes *DS.IndexManager
	metrics *prometheus.Registry
	modules []ModuleInfo
}

// Open bootstraps an engine with every module compiled into the binary.
func Open(cfg Config) (*Engine, error) {
	return open(cfg, BuildModules())
}

func open(cfg Config, modules []ext.Module) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	out := cfg.LogOutput
	if out == nil {
		out = os.Stderr
	}
	logger := log.New(out, cfg.LogLevel, cfg.LogFormat).With("component", "flint")

	cat, infos, err := bootstrap(logger, modules)
	if err != nil {
		return nil, err
	}

	store, err := openStore(cfg.Snapshots, logger)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(newCatalogCollector(cat))

	e := &Engine{
		cfg:     cfg,
		log:     logger,
		catalog: cat,
		eval:    QE.NewExprEvaluator(cat, logger),
		codec:   DS.NewCodec(cat),
		indexes: DS.NewIndexManager(cat, DS.ManagerConfig{
			Store:    store,
			Metrics:  DS.NewMetrics(reg),
			Logger:   logger,
			Compress: cfg.Snapshots.Compress,
		}),
		metrics: reg,
		modules: infos,
	}
	logger.Info("engine opened",
		"modules", len(infos),
		"snapshot_backend", cfg.Snapshots.Backend)
	return e, nil
}

// bootstrap runs the registration protocol and seals the result.
func bootstrap(logger *slog.Logger, modules []ext.Module) (*ext.Catalog, []ModuleInfo, error) {
	r := ext.NewRegistries()
	if err := ext.RegisterBuiltins(r); err != nil {
		return nil, nil, errors.Wrap(err, errors.CodeOf(err), "register built-ins")
	}
	if err := DS.RegisterIndexBuilders(r); err != nil {
		return nil, nil, errors.Wrap(err, errors.CodeOf(err), "register built-in index builders")
	}
	logger.Debug("built-ins registered",
		"types", r.Types.Len(),
		"operators", r.Operators.Len(),
		"functions", r.Functions.Len())

	seen := make(map[string]bool, len(modules))
	infos := make([]ModuleInfo, 0, len(modules))
	for _, m := range modules {
		name := m.Name()
		if seen[name] {
			return nil, nil, errors.New(errors.FLINT_CONFLICT, "module %q registered twice", name)
		}
		seen[name] = true
		if err := m.Register(r); err != nil {
			return nil, nil, errors.Wrap(err, errors.CodeOf(err), "module %s", name)
		}
		infos = append(infos, ModuleInfo{Name: name, Description: m.Description()})
		logger.Info("module registered", "module", name)
	}

	cat, err := r.Seal()
	if err != nil {
		return nil, nil, err
	}
	if err := cat.Verify(); err != nil {
		return nil, nil, errors.AssertionFailedf("catalog verification failed after seal: %v", err)
	}
	logger.Debug("catalog sealed", "structures", len(cat.IndexStructures()))
	return cat, infos, nil
}

func openStore(cfg SnapshotConfig, logger *slog.Logger) (DS.SnapshotStore, error) {
	if cfg.Backend != BackendBadger {
		return DS.NewMemoryStore(), nil
	}
	bc := DS.DefaultBadgerConfig(cfg.Path)
	if cfg.Path == MemoryPath {
		bc = DS.InMemoryBadgerConfig()
	}
	bc.SyncWrites = cfg.SyncWrites
	bc.GCInterval = cfg.GCInterval
	bc.Logger = logger.With("component", "badger")
	store, err := DS.OpenBadgerStore(bc)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func (e *Engine) Catalog() *ext.Catalog        { return e.catalog }
func (e *Engine) Evaluator() *QE.ExprEvaluator { return e.eval }
func (e *Engine) Codec() *DS.Codec             { return e.codec }
func (e *Engine) Indexes() *DS.IndexManager    { return e.indexes }
func (e *Engine) Metrics() prometheus.Gatherer { return e.metrics }
func (e *Engine) Logger() *slog.Logger         { return e.log }
func (e *Engine) Config() Config               { return e.cfg }

// Modules lists the registered extension modules in registration order.
func (e *Engine) Modules() []ModuleInfo {
	return append([]ModuleInfo(nil), e.modules...)
}

// Close checkpoints every live index and releases the snapshot store.
func (e *Engine) Close() error {
	err := e.indexes.CheckpointAll(context.Background())
	if cerr := e.indexes.Close(); err == nil {
		err = cerr
	}
	return err
}

// catalogCollector exports flint_catalog_entries{registry}. The catalog is
// sealed, so values are read on every scrape without locking.
type catalogCollector struct {
	cat  *ext.Catalog
	desc *prometheus.Desc
}

func newCatalogCollector(cat *ext.Catalog) *catalogCollector {
	return &catalogCollector{
		cat: cat,
		desc: prometheus.NewDesc(
			"flint_catalog_entries",
			"Entries per catalog registry",
			[]string{"registry"}, nil),
	}
}

func (c *catalogCollector) Describe(ch chan<- *prometheus.Desc) { ch <- c.desc }

func (c *catalogCollector) Collect(ch chan<- prometheus.Metric) {
	for registry, n := range c.cat.Counts() {
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(n), registry)
	}
}
