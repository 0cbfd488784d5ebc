package dbclient

import (
	"context"
	"errors"
	"sync"

	"workbench/internal/domain"
	"workbench/internal/logging"
	"workbench/internal/metrics"
)

// PoolCache shares one Connector per DSN for the life of the process.
// Entries are never evicted; Close releases them all on shutdown.
type PoolCache struct {
	mu    sync.Mutex
	pools map[string]Connector
	open  func(conn *domain.DbConnection, dsn string) (Connector, error)
}

func NewPoolCache() *PoolCache {
	return &PoolCache{pools: make(map[string]Connector), open: Open}
}

// Get returns the cached connector for conn's DSN, opening and pinging a
// new one on first use. The lock is not held while connecting.
func (p *PoolCache) Get(ctx context.Context, conn *domain.DbConnection) (Connector, error) {
	dsn, err := DSN(conn)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	if c, ok := p.pools[dsn]; ok {
		p.mu.Unlock()
		return c, nil
	}
	p.mu.Unlock()

	c, err := p.open(conn, dsn)
	if err != nil {
		return nil, err
	}
	if err := c.Ping(ctx); err != nil {
		c.Close()
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.pools[dsn]; ok {
		// Lost the race to another request for the same DSN.
		c.Close()
		return existing, nil
	}
	p.pools[dsn] = c
	metrics.SQLPoolsOpen.Inc()

	log := logging.WithComponent("dbclient")
	log.Info().Str("nickname", conn.Nickname).Str("db_type", string(conn.DBType)).Msg("pool opened")
	return c, nil
}

// Len reports how many pools are cached.
func (p *PoolCache) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pools)
}

func (p *PoolCache) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var errs []error
	for dsn, c := range p.pools {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(p.pools, dsn)
		metrics.SQLPoolsOpen.Dec()
	}
	return errors.Join(errs...)
}
