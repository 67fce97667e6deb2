package cache

import (
	"context"
	"database/sql"

	"route-optimizer-service/internal/platform/obs"
	"route-optimizer-service/internal/ports"
)

// SQLDistanceCache is a Postgres-backed cache for road distances between coordinate keys.
type SQLDistanceCache struct {
	DB *sql.DB
}

func NewSQLDistanceCache(db *sql.DB) *SQLDistanceCache {
	return &SQLDistanceCache{DB: db}
}

func (s *SQLDistanceCache) store() sqlStore { return sqlStore{db: s.DB, dialect: DialectPostgres} }

func (s *SQLDistanceCache) GetMany(
	ctx context.Context,
	origin string,
	destinations []string,
) (_ map[string]ports.DistanceResult, err error) {
	defer obs.Time(ctx, "distance.cache.postgres.GetMany")(&err)
	return s.store().getMany(ctx, origin, destinations)
}

func (s *SQLDistanceCache) PutMany(
	ctx context.Context,
	origin string,
	results map[string]ports.DistanceResult,
) (err error) {
	defer obs.Time(ctx, "distance.cache.postgres.PutMany")(&err)
	return s.store().putMany(ctx, origin, results)
}
