package repository

import (
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/haeli05/yields.to/internal/models"
)

// SnapshotRepository інтерфейс для погодинних знімків pools
type SnapshotRepository interface {
	UpsertPools(snapshots []models.PoolSnapshot) error
	UpsertAggregate(snapshot *models.AggregateSnapshot) error

	GetAggregateAt(ts time.Time) (*models.AggregateSnapshot, error)
	GetLatestAggregate() (*models.AggregateSnapshot, error)
	CountPoolsAt(ts time.Time) (int64, error)

	// MonthlyBySource рахує помісячні середні APY/TVL по pool
	// для одного джерела з усіх накопичених знімків
	MonthlyBySource(source string) ([]models.MonthlyPoolStat, error)
}

// SnapshotRepositoryImpl implementation
type SnapshotRepositoryImpl struct {
	db *gorm.DB
}

// NewSnapshotRepository створює новий snapshot repository
func NewSnapshotRepository(db *gorm.DB) SnapshotRepository {
	return &SnapshotRepositoryImpl{db: db}
}

// UpsertPools вставляє рядки pools, конфлікт по (ts, pool, source)
// оновлює значення. Повторний запуск у межах години ідемпотентний.
func (r *SnapshotRepositoryImpl) UpsertPools(snapshots []models.PoolSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "ts"}, {Name: "pool"}, {Name: "source"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"chain", "project", "symbol", "tvl_usd", "apy", "apy_base", "apy_pct30d", "updated_at",
		}),
	}).Create(&snapshots).Error
}

// UpsertAggregate вставляє агрегований рядок, конфлікт по ts оновлює
func (r *SnapshotRepositoryImpl) UpsertAggregate(snapshot *models.AggregateSnapshot) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "ts"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"chain_latest_tvl_usd", "chain_prev_tvl_usd", "chain_last_date",
			"protocol_latest_tvl_usd", "top_pools", "updated_at",
		}),
	}).Create(snapshot).Error
}

// GetAggregateAt отримує агрегований рядок за конкретну годину
func (r *SnapshotRepositoryImpl) GetAggregateAt(ts time.Time) (*models.AggregateSnapshot, error) {
	var snapshot models.AggregateSnapshot
	err := r.db.Where("ts = ?", ts).First(&snapshot).Error
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// GetLatestAggregate отримує найсвіжіший агрегований рядок
func (r *SnapshotRepositoryImpl) GetLatestAggregate() (*models.AggregateSnapshot, error) {
	var snapshot models.AggregateSnapshot
	err := r.db.Order("ts DESC").First(&snapshot).Error
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// CountPoolsAt рахує рядки pools за годину
func (r *SnapshotRepositoryImpl) CountPoolsAt(ts time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.PoolSnapshot{}).Where("ts = ?", ts).Count(&count).Error
	return count, err
}

// MonthlyBySource агрегує знімки джерела по місяцях на стороні Go:
// SQL з date_trunc не переносимий між Postgres та sqlite у тестах
func (r *SnapshotRepositoryImpl) MonthlyBySource(source string) ([]models.MonthlyPoolStat, error) {
	var rows []models.PoolSnapshot
	err := r.db.Where("source = ?", source).Order("ts ASC").Find(&rows).Error
	if err != nil {
		return nil, err
	}

	type bucket struct {
		pool      string
		month     string
		project   string
		symbol    string
		apySum    float64
		apyCount  int
		tvlSum    float64
		tvlCount  int
		datapoint int
	}

	buckets := make(map[string]*bucket)
	var order []string

	for _, row := range rows {
		month := time.Date(row.TS.Year(), row.TS.Month(), 1, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
		key := row.Pool + "|" + month

		b, ok := buckets[key]
		if !ok {
			b = &bucket{pool: row.Pool, month: month, project: row.Project, symbol: row.Symbol}
			buckets[key] = b
			order = append(order, key)
		}

		b.datapoint++
		if row.APY != nil {
			b.apySum += *row.APY
			b.apyCount++
		}
		b.tvlSum += row.TVLUsd
		b.tvlCount++
	}

	sort.Strings(order)

	stats := make([]models.MonthlyPoolStat, 0, len(order))
	for _, key := range order {
		b := buckets[key]

		stat := models.MonthlyPoolStat{
			Pool:       b.pool,
			MonthDate:  b.month,
			Datapoints: b.datapoint,
			Project:    b.project,
			Symbol:     b.symbol,
		}
		if b.apyCount > 0 {
			apy := b.apySum / float64(b.apyCount)
			stat.APY = &apy
		}
		if b.tvlCount > 0 {
			tvl := b.tvlSum / float64(b.tvlCount)
			stat.TVLUsd = &tvl
		}
		stats = append(stats, stat)
	}

	return stats, nil
}
