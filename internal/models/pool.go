package models

import (
	"crypto/md5"
	"fmt"
)

// Джерела, з яких збираються pools
const (
	SourceDefiLlama   = "defillama"
	SourcePendle      = "pendle"
	SourceMerkl       = "merkl"
	SourceStablewatch = "stablewatch"
	SourceChateau     = "chateau"
)

// Pool нормалізована yield-позиція з одного протоколу
//
// Інваріанти: TVLUsd завжди скінченне число >= 0 (coerce до 0),
// APY* поля або скінченні, або nil (ніколи NaN), Assets непорожній
// (fallback ["Other"]), пара (Pool, Source) унікальна в межах одного батчу.
type Pool struct {
	Pool    string `json:"pool"`
	Source  string `json:"source"`
	Project string `json:"project"`
	Symbol  string `json:"symbol"`

	Assets   []string `json:"assets"`
	Category string   `json:"category"`

	TVLUsd     float64  `json:"tvlUsd"`
	APY        *float64 `json:"apy"`
	APYBase    *float64 `json:"apyBase"`
	APYReward  *float64 `json:"apyReward"`
	APYPct1d   *float64 `json:"apyPct1d,omitempty"`
	APYPct7d   *float64 `json:"apyPct7d,omitempty"`
	APYPct30d  *float64 `json:"apyPct30d"`
	APYMean30d *float64 `json:"apyMean30d,omitempty"`
	IL7d       *float64 `json:"il7d,omitempty"`
	VolumeUsd1 *float64 `json:"volumeUsd1d,omitempty"`
	VolumeUsd7 *float64 `json:"volumeUsd7d,omitempty"`

	Expiry       string   `json:"expiry,omitempty"`
	URL          string   `json:"url,omitempty"`
	RewardTokens []string `json:"rewardTokens,omitempty"`
}

// GeneratePoolID синтезує стабільний fallback ID коли upstream
// не дає власного ідентифікатора. MD5: source:project:name
func GeneratePoolID(source, project, name string) string {
	data := fmt.Sprintf("%s:%s:%s", source, project, name)
	hash := md5.Sum([]byte(data))
	return fmt.Sprintf("%x", hash)
}
