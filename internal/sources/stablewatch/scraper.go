package stablewatch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/haeli05/yields.to/internal/cache"
	"github.com/haeli05/yields.to/internal/logger"
	"github.com/haeli05/yields.to/internal/models"
	"github.com/haeli05/yields.to/internal/normalize"
	"github.com/haeli05/yields.to/internal/sources"
)

const (
	CacheKey   = "stablewatch:plasma:pools:v1"
	DefaultTTL = 10 * time.Minute

	RequestTimeout = 30 * time.Second

	userAgent = "yields.to-scraper"

	// Скільки chunk скриптів максимум пробуємо на один scrape
	maxChunks = 5
	// Скільки розпарсених масивів достатньо з одного chunk
	maxArrays = 3
)

// RawPool сирий запис pool зі Stablewatch dashboard.
// Поля нестрогі: apr і tvl бувають числом або рядком ("4.2%", "$1.2M").
type RawPool struct {
	Name    string      `json:"name,omitempty"`
	Project string      `json:"project,omitempty"`
	Symbol  string      `json:"symbol,omitempty"`
	APR     interface{} `json:"apr"`
	TVL     interface{} `json:"tvl"`
	Link    string      `json:"link,omitempty"`
}

var (
	scriptSrcRe = regexp.MustCompile(`<script[^>]+src="([^"]+)"`)
	// Масив щонайменше з трьох об'єктних літералів усередині
	// мініфікованого JS — сигнатура вбудованого датасету
	arrayRe   = regexp.MustCompile(`\[(?:\{[\s\S]*?\}){3,}\]`)
	bareKeyRe = regexp.MustCompile(`([,{\s])(\w+)\s*:`)
	singleQRe = regexp.MustCompile(`'([^']*)'`)

	apyKeyRe = regexp.MustCompile(`(?i)apy|apr`)
	tvlKeyRe = regexp.MustCompile(`(?i)tvl`)
)

// Scraper дістає pools зі Stablewatch Plasma dashboard.
// Публічного API немає, тому дані витягуються з Next.js chunk
// скриптів: знаходимо вбудовані масиви об'єктів, переписуємо їх
// до валідного JSON і вибираємо той, що схожий на датасет pools.
type Scraper struct {
	baseURL    string
	httpClient *http.Client
	cache      *cache.Cache
	logger     *logger.Logger
}

// NewScraper створює новий scraper
func NewScraper(baseURL string, kv *cache.Cache, log *logger.Logger) *Scraper {
	return &Scraper{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: RequestTimeout,
		},
		cache:  kv,
		logger: log.WithPrefix("STABLEWATCH"),
	}
}

// Name повертає ім'я джерела
func (s *Scraper) Name() string {
	return models.SourceStablewatch
}

func (s *Scraper) fetchText(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return string(body), nil
}

func (s *Scraper) toAbsolute(url string) string {
	if strings.HasPrefix(url, "http") {
		return url
	}
	return s.baseURL + url
}

// extractScriptSrcs збирає всі src скриптів зі сторінки
func extractScriptSrcs(html string) []string {
	var srcs []string
	for _, match := range scriptSrcRe.FindAllStringSubmatch(html, -1) {
		srcs = append(srcs, match[1])
	}
	return srcs
}

// tryExtractJSONArrays шукає у JS тексті масиви об'єктів,
// переписує їх до валідного JSON і парсить. Зупиняється після
// трьох успішно розпарсених масивів.
func tryExtractJSONArrays(text string) [][]map[string]interface{} {
	var results [][]map[string]interface{}

	for _, raw := range arrayRe.FindAllString(text, -1) {
		candidate := bareKeyRe.ReplaceAllString(raw, `$1"$2":`)
		candidate = singleQRe.ReplaceAllString(candidate, `"$1"`)

		var parsed []map[string]interface{}
		if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
			continue
		}
		results = append(results, parsed)

		if len(results) >= maxArrays {
			break
		}
	}

	return results
}

// normalizePools вибирає перший масив, чий перший елемент має
// ключ apy/apr і ключ tvl, та мапить його записи в RawPool
func normalizePools(arrays [][]map[string]interface{}) []RawPool {
	for _, arr := range arrays {
		if len(arr) == 0 {
			continue
		}

		hasAPY := false
		hasTVL := false
		for key := range arr[0] {
			if apyKeyRe.MatchString(key) {
				hasAPY = true
			}
			if tvlKeyRe.MatchString(key) {
				hasTVL = true
			}
		}
		if !hasAPY || !hasTVL {
			continue
		}

		normalized := make([]RawPool, 0, len(arr))
		for _, record := range arr {
			normalized = append(normalized, RawPool{
				Name:    firstString(record, "name", "pool", "title"),
				Project: firstString(record, "project", "protocol"),
				Symbol:  firstString(record, "symbol", "token"),
				APR:     firstValue(record, "apr", "apy", "apy30d"),
				TVL:     firstValue(record, "tvl", "tvlUsd", "tvl_usd"),
				Link:    firstString(record, "link", "url"),
			})
		}
		return normalized
	}

	return []RawPool{}
}

func firstString(record map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if s, ok := record[key].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func firstValue(record map[string]interface{}, keys ...string) interface{} {
	for _, key := range keys {
		if value, ok := record[key]; ok && value != nil {
			return value
		}
	}
	return nil
}

// Scrape виконує повний прохід без кешу. Помилка тільки коли
// недоступна сама сторінка, невдалий видобуток дає порожній список.
func (s *Scraper) Scrape(ctx context.Context) ([]RawPool, error) {
	html, err := s.fetchText(ctx, s.baseURL+"/")
	if err != nil {
		return nil, fmt.Errorf("stablewatch unavailable: %w", err)
	}

	var chunks []string
	for _, src := range extractScriptSrcs(html) {
		if strings.Contains(src, "/_next/static/chunks/") {
			chunks = append(chunks, src)
		}
	}

	// Chunk головної сторінки найімовірніше містить датасет
	var prioritized []string
	for _, src := range chunks {
		if strings.Contains(src, "app/page") {
			prioritized = append(prioritized, src)
		}
	}
	for _, src := range chunks {
		if !strings.Contains(src, "app/page") {
			prioritized = append(prioritized, src)
		}
	}

	if len(prioritized) > maxChunks {
		prioritized = prioritized[:maxChunks]
	}

	for _, script := range prioritized {
		text, err := s.fetchText(ctx, s.toAbsolute(script))
		if err != nil {
			continue
		}

		arrays := tryExtractJSONArrays(text)
		normalized := normalizePools(arrays)
		if len(normalized) > 0 {
			return normalized, nil
		}
	}

	return []RawPool{}, nil
}

// Raw повертає сирі pools, кешовані навіть порожніми:
// порожній кеш теж сигнал (джерело зараз недоступне) і
// обмежує частоту повторних scrape
func (s *Scraper) Raw(ctx context.Context, opts sources.LoadOptions) ([]RawPool, bool, error) {
	if !opts.Refresh {
		var cached []RawPool
		if s.cache.GetJSON(ctx, CacheKey, &cached) {
			return cached, true, nil
		}
	}

	pools, err := s.Scrape(ctx)
	if err != nil {
		return nil, false, err
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s.cache.SetJSON(ctx, CacheKey, pools, ttl)

	s.logger.Info("Scrape Stablewatch дав %d pools", len(pools))
	return pools, false, nil
}

// Load повертає нормалізовані pools для спільного батчу
func (s *Scraper) Load(ctx context.Context, opts sources.LoadOptions) ([]models.Pool, bool, error) {
	raw, cached, err := s.Raw(ctx, opts)
	if err != nil {
		return nil, false, err
	}

	pools := make([]models.Pool, 0, len(raw))
	for _, r := range raw {
		pools = append(pools, toPool(r))
	}

	return pools, cached, nil
}

func toPool(r RawPool) models.Pool {
	name := r.Name
	if name == "" {
		name = r.Symbol
	}

	project := r.Project
	if project == "" {
		project = "Stablewatch"
	}

	tvl := 0.0
	if parsed := normalize.ParseNumeric(r.TVL); parsed != nil {
		tvl = normalize.NonNegative(*parsed)
	}

	tagSource := r.Symbol
	if tagSource == "" {
		tagSource = name
	}

	return models.Pool{
		Pool:     models.GeneratePoolID(models.SourceStablewatch, project, name),
		Source:   models.SourceStablewatch,
		Project:  project,
		Symbol:   r.Symbol,
		Assets:   normalize.DetectAssets(tagSource),
		Category: normalize.DetectCategory(project),
		TVLUsd:   tvl,
		APY:      normalize.ParseNumeric(r.APR),
		URL:      r.Link,
	}
}
