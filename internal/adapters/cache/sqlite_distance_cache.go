package cache

import (
	"context"
	"database/sql"

	"route-optimizer-service/internal/platform/obs"
	"route-optimizer-service/internal/ports"
)

// SqliteDistanceCache keeps road distances in a local SQLite file.
// Keys are expected to be consistent (see domain.Coordinates.Key).
type SqliteDistanceCache struct {
	DB *sql.DB
}

func NewSqliteDistanceCache(db *sql.DB) *SqliteDistanceCache {
	return &SqliteDistanceCache{DB: db}
}

func (s *SqliteDistanceCache) store() sqlStore { return sqlStore{db: s.DB, dialect: DialectSqlite} }

func (s *SqliteDistanceCache) GetMany(
	ctx context.Context,
	origin string,
	destinations []string,
) (_ map[string]ports.DistanceResult, err error) {
	defer obs.Time(ctx, "distance.cache.sqlite.GetMany")(&err)
	return s.store().getMany(ctx, origin, destinations)
}

func (s *SqliteDistanceCache) PutMany(
	ctx context.Context,
	origin string,
	results map[string]ports.DistanceResult,
) (err error) {
	defer obs.Time(ctx, "distance.cache.sqlite.PutMany")(&err)
	return s.store().putMany(ctx, origin, results)
}
