package catalog

import (
	"fmt"

	"github.com/sparkify-data/dwhetl/pkg/dwhetl"
)

// Config is the explicit configuration a Catalog is rendered from.
type Config = dwhetl.CatalogConfig

// Catalog holds the four ordered statement collections of an ETL run.
// A Catalog is immutable after New and safe for concurrent reads.
type Catalog struct {
	cfg        Config
	drops      []dwhetl.Statement
	creates    []dwhetl.Statement
	bulkLoads  []dwhetl.Statement
	transforms []dwhetl.Statement
}

// New validates cfg and renders every statement. An empty Dialect means
// Redshift and an empty Region means dwhetl.DefaultRegion.
func New(cfg Config) (*Catalog, error) {
	if cfg.Dialect == "" {
		cfg.Dialect = dwhetl.DialectRedshift
	}
	if cfg.Region == "" && cfg.Dialect == dwhetl.DialectRedshift {
		cfg.Region = dwhetl.DefaultRegion
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Catalog{cfg: cfg}

	for _, t := range dropOrder {
		c.drops = append(c.drops, dwhetl.Statement{
			Name:  t.name,
			Table: t.name,
			Kind:  t.kind,
			Phase: dwhetl.PhaseDrop,
			SQL:   renderDrop(t),
		})
	}
	for _, t := range createOrder {
		c.creates = append(c.creates, dwhetl.Statement{
			Name:      t.name,
			Table:     t.name,
			Kind:      t.kind,
			Phase:     dwhetl.PhaseCreate,
			SQL:       renderCreate(t, cfg.Dialect),
			DependsOn: t.references(),
		})
	}
	c.bulkLoads = renderBulkLoads(cfg)
	c.transforms = transformStatements()

	if err := ValidateOrder(c.Plan(true)); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return c, nil
}

// Config returns the configuration the catalog was rendered from, with defaults applied.
func (c *Catalog) Config() Config {
	return c.cfg
}

// Drops returns one DROP TABLE IF EXISTS per table: staging tables, then
// the fact table, then the dimensions it references.
func (c *Catalog) Drops() []dwhetl.Statement {
	return clone(c.drops)
}

// StagingDrops returns the drop statements of the staging tables only.
func (c *Catalog) StagingDrops() []dwhetl.Statement {
	var out []dwhetl.Statement
	for _, s := range c.drops {
		if s.Kind == dwhetl.TableStaging {
			out = append(out, s)
		}
	}
	return clone(out)
}

// Creates returns one CREATE TABLE per table, referenced tables first.
func (c *Catalog) Creates() []dwhetl.Statement {
	return clone(c.creates)
}

// BulkLoads returns the two bulk loads: event logs, then song metadata.
func (c *Catalog) BulkLoads() []dwhetl.Statement {
	return clone(c.bulkLoads)
}

// Transforms returns the five inserts: songplays, users, songs, artists, time.
// The list is only valid as a whole and in this order. ValidateOrder treats a
// dependency missing from the list as satisfied, so a slice such as the time
// insert alone still validates while reading an empty songplays.
func (c *Catalog) Transforms() []dwhetl.Statement {
	return clone(c.transforms)
}

// Plan returns every statement in execution order. With resetSchema false
// only the staging tables are dropped.
func (c *Catalog) Plan(resetSchema bool) []dwhetl.Statement {
	var plan []dwhetl.Statement
	if resetSchema {
		plan = append(plan, c.drops...)
	} else {
		plan = append(plan, c.StagingDrops()...)
	}
	plan = append(plan, c.creates...)
	plan = append(plan, c.bulkLoads...)
	plan = append(plan, c.transforms...)
	return clone(plan)
}

func clone(stmts []dwhetl.Statement) []dwhetl.Statement {
	out := make([]dwhetl.Statement, len(stmts))
	for i, s := range stmts {
		if s.DependsOn != nil {
			s.DependsOn = append([]string(nil), s.DependsOn...)
		}
		out[i] = s
	}
	return out
}
