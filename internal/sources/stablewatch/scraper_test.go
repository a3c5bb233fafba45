package stablewatch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/haeli05/yields.to/internal/cache"
	"github.com/haeli05/yields.to/internal/logger"
	"github.com/haeli05/yields.to/internal/models"
	"github.com/haeli05/yields.to/internal/sources"
)

func testLogger() *logger.Logger {
	return logger.New("error")
}

func newTestCache(t *testing.T) *cache.Cache {
	t.Helper()
	t.Setenv("KV_REDIS_ADDR", "")
	t.Setenv("KV_REDIS_PASSWORD", "")
	return cache.New(testLogger())
}

func TestExtractScriptSrcs(t *testing.T) {
	html := `<html><head>
		<script src="/_next/static/chunks/app/page-abc123.js" defer></script>
		<script src="/_next/static/chunks/main-def456.js"></script>
		<script src="https://cdn.example.com/analytics.js"></script>
		<script>inline();</script>
	</head></html>`

	srcs := extractScriptSrcs(html)
	if len(srcs) != 3 {
		t.Fatalf("очікували 3 src, отримали %d: %v", len(srcs), srcs)
	}
	if srcs[0] != "/_next/static/chunks/app/page-abc123.js" {
		t.Errorf("неправильний перший src: %s", srcs[0])
	}
}

func TestTryExtractJSONArraysSkipsMalformed(t *testing.T) {
	// Суміжні об'єкти без ком проходять regex, але не парсяться як JSON
	text := `var x=[{a:1}{b:2}{c:3}];`
	if got := tryExtractJSONArrays(text); len(got) != 0 {
		t.Errorf("malformed фрагмент мав бути пропущений: %v", got)
	}

	if got := tryExtractJSONArrays("no arrays here"); len(got) != 0 {
		t.Errorf("очікували порожній результат: %v", got)
	}
}

func TestNormalizePoolsKeySignature(t *testing.T) {
	arrays := [][]map[string]interface{}{
		// Перший масив без tvl ключа пропускається
		{{"name": "x", "apy": 1.0}},
		// Другий має apy+tvl сигнатуру
		{
			{"name": "sUSDe Vault", "protocol": "Ethena", "symbol": "sUSDe", "apy": 5.2, "tvl": "$1.2M", "url": "/pool/1"},
			{"pool": "USDT Pool", "apr": "4.1%", "tvlUsd": 450000.0},
		},
		// Третій вже не розглядається
		{{"name": "ignored", "apr": 1.0, "tvl": 1.0}},
	}

	pools := normalizePools(arrays)
	if len(pools) != 2 {
		t.Fatalf("очікували 2 pools, отримали %d", len(pools))
	}

	first := pools[0]
	if first.Name != "sUSDe Vault" {
		t.Errorf("name = %q", first.Name)
	}
	if first.Project != "Ethena" {
		t.Errorf("project fallback на protocol не спрацював: %q", first.Project)
	}
	if first.Symbol != "sUSDe" {
		t.Errorf("symbol = %q", first.Symbol)
	}
	if first.APR != 5.2 {
		t.Errorf("apr = %v", first.APR)
	}
	if first.Link != "/pool/1" {
		t.Errorf("link fallback на url не спрацював: %q", first.Link)
	}

	second := pools[1]
	if second.Name != "USDT Pool" {
		t.Errorf("name fallback на pool не спрацював: %q", second.Name)
	}
	if second.APR != "4.1%" {
		t.Errorf("apr = %v", second.APR)
	}
	if second.TVL != 450000.0 {
		t.Errorf("tvl fallback на tvlUsd не спрацював: %v", second.TVL)
	}
}

func TestNormalizePoolsNoMatch(t *testing.T) {
	arrays := [][]map[string]interface{}{
		{{"name": "x", "value": 1.0}},
		{},
	}
	if got := normalizePools(arrays); len(got) != 0 {
		t.Errorf("очікували порожній список: %v", got)
	}
}

func TestToPool(t *testing.T) {
	pool := toPool(RawPool{
		Name:   "sUSDe Vault",
		Symbol: "sUSDe",
		APR:    "4.2%",
		TVL:    "$1.2M",
		Link:   "https://example.com/pool",
	})

	if pool.Source != models.SourceStablewatch {
		t.Errorf("source = %q", pool.Source)
	}
	// Без project у сирому записі підставляється Stablewatch
	if pool.Project != "Stablewatch" {
		t.Errorf("project = %q", pool.Project)
	}
	if pool.Pool == "" {
		t.Error("pool ID не згенеровано")
	}
	if pool.APY == nil || *pool.APY != 4.2 {
		t.Errorf("APY = %v", pool.APY)
	}
	if pool.TVLUsd != 1_200_000 {
		t.Errorf("TVL = %v", pool.TVLUsd)
	}
	if len(pool.Assets) != 1 || pool.Assets[0] != "sUSDe" {
		t.Errorf("assets = %v", pool.Assets)
	}

	// Той самий запис дає той самий ID
	again := toPool(RawPool{Name: "sUSDe Vault", Symbol: "sUSDe"})
	if again.Pool != pool.Pool {
		t.Error("pool ID нестабільний")
	}
}

func TestScrapeLandingUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	scraper := NewScraper(server.URL, newTestCache(t), testLogger())

	if _, err := scraper.Scrape(context.Background()); err == nil {
		t.Error("очікували помилку при недоступній сторінці")
	}
}

func TestScrapeChunkPrioritization(t *testing.T) {
	var fetched []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/":
			w.Write([]byte(`<html>
				<script src="/_next/static/chunks/main-1.js"></script>
				<script src="/_next/static/chunks/app/page-2.js"></script>
				<script src="/other/skip.js"></script>
			</html>`))
		case strings.HasPrefix(r.URL.Path, "/_next/"):
			fetched = append(fetched, r.URL.Path)
			w.Write([]byte(`var boring = 42;`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	scraper := NewScraper(server.URL, newTestCache(t), testLogger())

	pools, err := scraper.Scrape(context.Background())
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	// Без датасету в chunks результат порожній, але без помилки
	if len(pools) != 0 {
		t.Errorf("очікували 0 pools, отримали %d", len(pools))
	}

	if len(fetched) != 2 {
		t.Fatalf("очікували 2 chunk запити, отримали %v", fetched)
	}
	// app/page chunk пробується першим
	if !strings.Contains(fetched[0], "app/page") {
		t.Errorf("app/page chunk мав іти першим: %v", fetched)
	}
}

func TestRawCachesEmptyResult(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(`<html></html>`))
	}))
	defer server.Close()

	scraper := NewScraper(server.URL, newTestCache(t), testLogger())
	ctx := context.Background()

	pools, cached, err := scraper.Raw(ctx, sources.LoadOptions{})
	if err != nil {
		t.Fatalf("Raw: %v", err)
	}
	if cached || len(pools) != 0 {
		t.Fatalf("очікували свіжий порожній результат (cached=%v, %d pools)", cached, len(pools))
	}

	// Порожній результат теж кешується, повторний scrape не йде
	_, cached2, err := scraper.Raw(ctx, sources.LoadOptions{})
	if err != nil {
		t.Fatalf("повторний Raw: %v", err)
	}
	if !cached2 {
		t.Error("другий виклик мав бути з кешу")
	}
	if requests != 1 {
		t.Errorf("сторінку завантажено %d разів, очікували 1", requests)
	}
}
