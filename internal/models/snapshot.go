package models

import "time"

// PoolSnapshot погодинний знімок одного pool з одного джерела.
// Композитний primary key (ts, pool, source) є conflict target для upsert:
// повторний запуск job в межах однієї години перезаписує, а не дублює.
type PoolSnapshot struct {
	TS     time.Time `gorm:"primaryKey" json:"ts"`
	Pool   string    `gorm:"primaryKey;size:200" json:"pool"`
	Source string    `gorm:"primaryKey;size:32" json:"source"`

	Chain     string   `gorm:"size:50" json:"chain"`
	Project   string   `gorm:"size:200" json:"project"`
	Symbol    string   `gorm:"size:200" json:"symbol"`
	TVLUsd    float64  `gorm:"column:tvl_usd" json:"tvl_usd"`
	APY       *float64 `gorm:"column:apy" json:"apy"`
	APYBase   *float64 `gorm:"column:apy_base" json:"apy_base"`
	APYPct30d *float64 `gorm:"column:apy_pct30d" json:"apy_pct30d"`

	UpdatedAt time.Time `json:"updated_at"`
}

// TableName override
func (PoolSnapshot) TableName() string {
	return "pool_yield_snapshots"
}

// AggregateSnapshot один агрегований рядок на годину:
// TVL дельти по chain та обрізаний top-N список pools
type AggregateSnapshot struct {
	TS time.Time `gorm:"primaryKey" json:"ts"`

	ChainLatestTVLUsd    float64 `gorm:"column:chain_latest_tvl_usd" json:"chain_latest_tvl_usd"`
	ChainPrevTVLUsd      float64 `gorm:"column:chain_prev_tvl_usd" json:"chain_prev_tvl_usd"`
	ChainLastDate        string  `gorm:"size:50" json:"chain_last_date"`
	ProtocolLatestTVLUsd float64 `gorm:"column:protocol_latest_tvl_usd" json:"protocol_latest_tvl_usd"`

	TopPools PoolList `gorm:"type:text" json:"top_pools"`

	UpdatedAt time.Time `json:"updated_at"`
}

func (AggregateSnapshot) TableName() string {
	return "plasma_aggregate"
}

// EndpointSnapshot сирий payload одного sumcap endpoint на годину,
// upsert по (ts, endpoint)
type EndpointSnapshot struct {
	TS       time.Time `gorm:"primaryKey" json:"ts"`
	Endpoint string    `gorm:"primaryKey;size:100" json:"endpoint"`

	Status  int       `json:"status"`
	OK      bool      `json:"ok"`
	Payload JSONValue `gorm:"type:text" json:"payload"`

	UpdatedAt time.Time `json:"updated_at"`
}

func (EndpointSnapshot) TableName() string {
	return "sumcap_snapshots"
}

// MonthlyPoolStat агрегат по місяцях, порахований з persisted знімків
type MonthlyPoolStat struct {
	Pool       string   `json:"pool"`
	MonthDate  string   `json:"monthDate"` // YYYY-MM-01
	APY        *float64 `json:"apy"`
	TVLUsd     *float64 `json:"tvlUsd"`
	Datapoints int      `json:"datapoints"`
	Project    string   `json:"project"`
	Symbol     string   `json:"symbol"`
}
