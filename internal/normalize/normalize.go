package normalize

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/haeli05/yields.to/internal/models"
)

// ParseNumeric приводить довільне JSON значення до числа.
//
// Рядки чистяться від $, %, ком та пробілів, суфікси K/M/B
// множать на 1e3/1e6/1e9 (регістр ігнорується). Повертає nil,
// якщо значення не містить цифр або результат не скінченний.
func ParseNumeric(value interface{}) *float64 {
	switch v := value.(type) {
	case nil:
		return nil
	case float64:
		return finiteOrNil(v)
	case float32:
		return finiteOrNil(float64(v))
	case int:
		return finiteOrNil(float64(v))
	case int64:
		return finiteOrNil(float64(v))
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil
		}
		return finiteOrNil(f)
	case string:
		return parseNumericString(v)
	default:
		return nil
	}
}

func parseNumericString(s string) *float64 {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return nil
	}

	multiplier := 1.0
	upper := strings.ToUpper(cleaned)
	switch {
	case strings.HasSuffix(upper, "K"):
		multiplier = 1e3
		cleaned = cleaned[:len(cleaned)-1]
	case strings.HasSuffix(upper, "M"):
		multiplier = 1e6
		cleaned = cleaned[:len(cleaned)-1]
	case strings.HasSuffix(upper, "B"):
		multiplier = 1e9
		cleaned = cleaned[:len(cleaned)-1]
	}

	replacer := strings.NewReplacer("$", "", "%", "", ",", "", " ", "")
	cleaned = replacer.Replace(cleaned)

	if !strings.ContainsAny(cleaned, "0123456789") {
		return nil
	}

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}

	return finiteOrNil(f * multiplier)
}

func finiteOrNil(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// FiniteOrNil повертає nil замість NaN/Inf, інакше сам вказівник
func FiniteOrNil(f *float64) *float64 {
	if f == nil {
		return nil
	}
	return finiteOrNil(*f)
}

// NonNegative приводить TVL до скінченного числа >= 0
func NonNegative(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

// assetRule одне правило розпізнавання активу. Порядок у таблиці
// критичний: специфічніший токен стоїть раніше за загальний, а
// збіг вирізається з рядка, щоб загальне правило не спрацювало
// повторно (USD0++ перед USD0, SUSDE перед USDE і т.д.)
type assetRule struct {
	token string
	asset string
}

var assetRules = []assetRule{
	{"USD0++", "USD0++"},
	{"USD0", "USD0"},
	{"USDT0", "USDT0"},
	{"USDT", "USDT"},
	{"SUSDE", "sUSDe"},
	{"USDE", "USDe"},
	{"SUSDS", "sUSDS"},
	{"USDS", "USDS"},
	{"USDAI", "USDai"},
	{"SCHUSD", "schUSD"},
	{"USDC", "USDC"},
	{"DAI", "DAI"},
	{"WETH", "WETH"},
	{"ETH", "ETH"},
	{"WBTC", "WBTC"},
	{"BTC", "BTC"},
	{"WAPL", "XPL"},
	{"XPL", "XPL"},
}

// DetectAssets витягує список активів з символу pool.
// Повертає щонайменше один елемент (fallback ["Other"]).
func DetectAssets(symbol string) []string {
	remaining := strings.ToUpper(symbol)

	var assets []string
	seen := make(map[string]bool)

	for _, rule := range assetRules {
		idx := strings.Index(remaining, rule.token)
		if idx < 0 {
			continue
		}
		remaining = remaining[:idx] + " " + remaining[idx+len(rule.token):]
		if !seen[rule.asset] {
			seen[rule.asset] = true
			assets = append(assets, rule.asset)
		}
	}

	if len(assets) == 0 {
		return []string{"Other"}
	}
	return assets
}

// Відомі проєкти з фіксованою категорією
var projectCategories = map[string]string{
	"plasma saving vaults": "Protocol",
	"plasma usd vault":     "Protocol",
	"pendle":               "DeFi",
	"pendle plasma":        "DeFi",
	"fluid":                "DeFi",
	"aave":                 "DeFi",
	"ethena":               "DeFi",
	"ethena plasma":        "DeFi",
	"plasma rwa":           "RWA",
	"usd0":                 "RWA",
	"chateau":              "RWA",
	"chateau capital":      "RWA",
}

// DetectCategory визначає категорію за назвою проєкту:
// точний lookup, потім підрядковий fallback, інакше DeFi
func DetectCategory(project string) string {
	key := strings.ToLower(strings.TrimSpace(project))

	if category, ok := projectCategories[key]; ok {
		return category
	}

	switch {
	case strings.Contains(key, "rwa"):
		return "RWA"
	case strings.Contains(key, "protocol"):
		return "Protocol"
	default:
		return "DeFi"
	}
}

// TopByTVL повертає перші n pools за спаданням TVL.
// Сортування стабільне: при рівному TVL зберігається вхідний порядок.
func TopByTVL(pools []models.Pool, n int) []models.Pool {
	sorted := make([]models.Pool, len(pools))
	copy(sorted, pools)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TVLUsd > sorted[j].TVLUsd
	})

	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
