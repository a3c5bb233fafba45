package normalize

import (
	"math"
	"testing"

	"github.com/haeli05/yields.to/internal/models"
)

func TestParseNumeric(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  *float64
	}{
		{"nil", nil, nil},
		{"float", 42.5, ptr(42.5)},
		{"int", 42, ptr(42.0)},
		{"plain string", "123.45", ptr(123.45)},
		{"percent", "12%", ptr(12.0)},
		{"dollar with K", "$450K", ptr(450_000.0)},
		{"millions", "1.2M", ptr(1_200_000.0)},
		{"billions", "2B", ptr(2_000_000_000.0)},
		{"lowercase suffix", "3.5m", ptr(3_500_000.0)},
		{"commas", "1,234,567", ptr(1_234_567.0)},
		{"dollar percent combo", "$1,000", ptr(1000.0)},
		{"no digits", "n/a", nil},
		{"empty string", "", nil},
		{"just symbols", "$%", nil},
		{"garbage", "abc", nil},
		{"nan", math.NaN(), nil},
		{"inf", math.Inf(1), nil},
		{"bool", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseNumeric(tt.input)

			if tt.want == nil {
				if got != nil {
					t.Fatalf("ParseNumeric(%v) = %v, want nil", tt.input, *got)
				}
				return
			}

			if got == nil {
				t.Fatalf("ParseNumeric(%v) = nil, want %v", tt.input, *tt.want)
			}
			if math.Abs(*got-*tt.want) > 1e-9 {
				t.Errorf("ParseNumeric(%v) = %v, want %v", tt.input, *got, *tt.want)
			}
		})
	}
}

func TestDetectAssetsOrdering(t *testing.T) {
	tests := []struct {
		symbol string
		want   []string
	}{
		// Специфічніший токен не має поглинатися загальним
		{"USD0++", []string{"USD0++"}},
		{"USD0", []string{"USD0"}},
		{"USD0++/USD0", []string{"USD0++", "USD0"}},
		{"USDT0", []string{"USDT0"}},
		{"USDT", []string{"USDT"}},
		{"SUSDE", []string{"sUSDe"}},
		{"sUSDe/USDe", []string{"sUSDe", "USDe"}},
		{"sUSDS", []string{"sUSDS"}},
		{"USDAI", []string{"USDai"}},
		{"WETH", []string{"WETH"}},
		{"ETH", []string{"ETH"}},
		{"WBTC/BTC", []string{"WBTC", "BTC"}},
		{"WAPL", []string{"XPL"}},
		{"XPL", []string{"XPL"}},
		{"schUSD", []string{"schUSD"}},
		{"something-else", []string{"Other"}},
		{"", []string{"Other"}},
	}

	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			got := DetectAssets(tt.symbol)
			if len(got) != len(tt.want) {
				t.Fatalf("DetectAssets(%q) = %v, want %v", tt.symbol, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("DetectAssets(%q)[%d] = %q, want %q", tt.symbol, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDetectAssetsNeverEmpty(t *testing.T) {
	symbols := []string{"", "???", "FOO-BAR", "USDT/USDC", "PT-sUSDe-27NOV2025"}
	for _, symbol := range symbols {
		if got := DetectAssets(symbol); len(got) == 0 {
			t.Errorf("DetectAssets(%q) повернув порожній список", symbol)
		}
	}
}

func TestDetectCategory(t *testing.T) {
	tests := []struct {
		project string
		want    string
	}{
		{"Chateau Capital", "RWA"},
		{"pendle", "DeFi"},
		{"USD0", "RWA"},
		{"Plasma Saving Vaults", "Protocol"},
		{"plasma-rwa-vault", "RWA"},
		{"some-protocol", "Protocol"},
		{"unknown-farm", "DeFi"},
		{"", "DeFi"},
	}

	for _, tt := range tests {
		if got := DetectCategory(tt.project); got != tt.want {
			t.Errorf("DetectCategory(%q) = %q, want %q", tt.project, got, tt.want)
		}
	}
}

func TestTopByTVL(t *testing.T) {
	pools := []models.Pool{
		{Pool: "a", TVLUsd: 100},
		{Pool: "b", TVLUsd: 300},
		{Pool: "c", TVLUsd: 200},
		{Pool: "d", TVLUsd: 300},
	}

	top := TopByTVL(pools, 3)

	if len(top) != 3 {
		t.Fatalf("очікували 3 pools, отримали %d", len(top))
	}
	// Стабільність: b перед d при однаковому TVL
	if top[0].Pool != "b" || top[1].Pool != "d" || top[2].Pool != "c" {
		t.Errorf("неправильний порядок: %s, %s, %s", top[0].Pool, top[1].Pool, top[2].Pool)
	}

	// Вхідний slice не змінюється
	if pools[0].Pool != "a" {
		t.Error("TopByTVL змінив вхідний slice")
	}

	// n більше за довжину
	all := TopByTVL(pools, 10)
	if len(all) != 4 {
		t.Errorf("очікували 4 pools, отримали %d", len(all))
	}
}

func TestNonNegative(t *testing.T) {
	if got := NonNegative(-5); got != 0 {
		t.Errorf("NonNegative(-5) = %v, want 0", got)
	}
	if got := NonNegative(math.NaN()); got != 0 {
		t.Errorf("NonNegative(NaN) = %v, want 0", got)
	}
	if got := NonNegative(7.5); got != 7.5 {
		t.Errorf("NonNegative(7.5) = %v", got)
	}
}

func ptr(f float64) *float64 {
	return &f
}
