package app

import (
	"sync"
	"sync/atomic"

	"github.com/BrainPreserve/supplements/internal/config"
	"github.com/BrainPreserve/supplements/internal/dataset"
	"github.com/BrainPreserve/supplements/internal/observability"
	"github.com/BrainPreserve/supplements/internal/search"
)

// Catalog serves searches from the current engine and swaps in a fresh one
// when the dataset is reloaded. Readers never block on a reload.
type Catalog struct {
	engine  atomic.Pointer[search.Engine]
	cfg     config.DatasetConfig
	opts    search.Options
	metrics *observability.Metrics
	logger  *observability.Logger

	mu       sync.Mutex
	onReload []func()
}

// NewCatalog loads the dataset once and indexes it.
func NewCatalog(cfg config.DatasetConfig, opts search.Options, metrics *observability.Metrics, logger *observability.Logger) (*Catalog, error) {
	c := &Catalog{cfg: cfg, opts: opts, metrics: metrics, logger: logger}
	store, err := dataset.Load(cfg.Path, cfg.Columns, logger)
	if err != nil {
		return nil, err
	}
	c.swap(store)
	return c, nil
}

// Reload re-reads the dataset file. On failure the previous engine keeps
// serving and the error is returned.
func (c *Catalog) Reload() error {
	log := c.logger.WithOperation("dataset_reload")

	store, err := dataset.Load(c.cfg.Path, c.cfg.Columns, c.logger)
	if err != nil {
		c.metrics.ObserveReload("error")
		log.Error().Err(err).Str("path", c.cfg.Path).Msg("Dataset reload failed; keeping previous records")
		return err
	}

	prev := c.Len()
	c.swap(store)
	c.metrics.ObserveReload("ok")
	log.Info().
		Str("path", c.cfg.Path).
		Int("previous", prev).
		Int("records", store.Len()).
		Msg("Dataset reloaded")

	c.mu.Lock()
	hooks := append([]func(){}, c.onReload...)
	c.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
	return nil
}

// OnReload registers fn to run after every successful reload.
func (c *Catalog) OnReload(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onReload = append(c.onReload, fn)
}

func (c *Catalog) swap(store *dataset.Store) {
	c.engine.Store(search.NewEngine(store, c.opts))
	c.metrics.SetRecords(store.Len())
}

// Engine returns the engine currently serving queries.
func (c *Catalog) Engine() *search.Engine { return c.engine.Load() }

// Search ranks q against the current dataset.
func (c *Catalog) Search(q search.Query) []search.Result { return c.Engine().Search(q) }

// Lookup finds a record by raw or pretty key.
func (c *Catalog) Lookup(key string) (search.Result, bool) { return c.Engine().Lookup(key) }

func (c *Catalog) Schema() *dataset.Schema { return c.Engine().Schema() }

func (c *Catalog) Len() int { return c.Engine().Len() }

func (c *Catalog) FlagCount(col string) uint64 { return c.Engine().FlagCount(col) }
