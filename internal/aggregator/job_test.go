package aggregator

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/haeli05/yields.to/internal/logger"
	"github.com/haeli05/yields.to/internal/models"
	"github.com/haeli05/yields.to/internal/sources"
	"github.com/haeli05/yields.to/internal/sources/defillama"
)

func testLogger() *logger.Logger {
	return logger.New("error")
}

// fakeSource підставне джерело pools
type fakeSource struct {
	name  string
	pools []models.Pool
	err   error
}

func (f *fakeSource) Name() string {
	return f.name
}

func (f *fakeSource) Load(_ context.Context, _ sources.LoadOptions) ([]models.Pool, bool, error) {
	return f.pools, false, f.err
}

// mockSnapshotRepo записує upserts у пам'ять
type mockSnapshotRepo struct {
	pools        []models.PoolSnapshot
	aggregate    *models.AggregateSnapshot
	poolsErr     error
	aggregateErr error
}

func (m *mockSnapshotRepo) UpsertPools(snapshots []models.PoolSnapshot) error {
	if m.poolsErr != nil {
		return m.poolsErr
	}
	m.pools = append(m.pools, snapshots...)
	return nil
}

func (m *mockSnapshotRepo) UpsertAggregate(snapshot *models.AggregateSnapshot) error {
	if m.aggregateErr != nil {
		return m.aggregateErr
	}
	m.aggregate = snapshot
	return nil
}

func (m *mockSnapshotRepo) GetAggregateAt(time.Time) (*models.AggregateSnapshot, error) {
	return m.aggregate, nil
}

func (m *mockSnapshotRepo) GetLatestAggregate() (*models.AggregateSnapshot, error) {
	return m.aggregate, nil
}

func (m *mockSnapshotRepo) CountPoolsAt(time.Time) (int64, error) {
	return int64(len(m.pools)), nil
}

func (m *mockSnapshotRepo) MonthlyBySource(string) ([]models.MonthlyPoolStat, error) {
	return nil, nil
}

func tvlServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/charts/Plasma":
			w.Write([]byte(`[
				{"date": "1700000000", "totalLiquidityUSD": 900},
				{"date": "1700086400", "totalLiquidityUSD": 1000}
			]`))
		case "/protocol/plasma-saving-vaults":
			w.Write([]byte(`{"name": "Plasma Saving Vaults", "chainTvls": {"Plasma": {"tvl": [{"date": 1700000000, "totalLiquidityUSD": 300}]}}}`))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestRunStorageNotConfigured(t *testing.T) {
	server := tvlServer(t)
	defer server.Close()

	llama := defillama.NewClient(server.URL, server.URL, testLogger())
	job := NewJob(llama, nil, nil, testLogger())

	if _, err := job.Run(context.Background()); !errors.Is(err, ErrStorageNotConfigured) {
		t.Fatalf("очікували ErrStorageNotConfigured, отримали %v", err)
	}
}

func TestRunMergesAndPersists(t *testing.T) {
	server := tvlServer(t)
	defer server.Close()

	llama := defillama.NewClient(server.URL, server.URL, testLogger())
	repo := &mockSnapshotRepo{}

	srcs := []sources.PoolSource{
		&fakeSource{name: "defillama", pools: []models.Pool{
			{Pool: "p1", Source: "defillama", Project: "aave", Symbol: "USDT", TVLUsd: 500},
			{Pool: "p2", Source: "defillama", Project: "fluid", Symbol: "USDT0", TVLUsd: 300},
			// Дублікат (pool, source) відсіюється, перший виграє
			{Pool: "p1", Source: "defillama", Project: "aave", Symbol: "USDT", TVLUsd: 999},
		}},
		&fakeSource{name: "pendle", pools: []models.Pool{
			{Pool: "p1", Source: "pendle", Project: "pendle", Symbol: "PT-sUSDe", TVLUsd: 100},
		}},
		&fakeSource{name: "merkl", err: errors.New("upstream down")},
	}

	job := NewJob(llama, srcs, repo, testLogger())

	summary, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !summary.OK {
		t.Error("summary.OK = false")
	}
	// Дублікат (pool, source) не рахується двічі
	if summary.Pools["defillama"] != 2 {
		t.Errorf("pools[defillama] = %d, want 2", summary.Pools["defillama"])
	}
	if summary.Pools["pendle"] != 1 {
		t.Errorf("pools[pendle] = %d, want 1", summary.Pools["pendle"])
	}
	// Падіння джерела не валить запуск, лише фіксується
	if len(summary.Failed) != 1 || summary.Failed[0] != "merkl" {
		t.Errorf("failed = %v, want [merkl]", summary.Failed)
	}

	if len(repo.pools) != 3 {
		t.Fatalf("persisted %d рядків, want 3", len(repo.pools))
	}
	ts := repo.pools[0].TS
	if ts.Minute() != 0 || ts.Second() != 0 {
		t.Errorf("ts не вирівняний на годину: %v", ts)
	}
	for _, row := range repo.pools {
		if row.Chain != "Plasma" {
			t.Errorf("chain = %q", row.Chain)
		}
		if row.Pool == "p1" && row.Source == "defillama" && row.TVLUsd != 500 {
			t.Errorf("дублікат перезаписав перший запис: TVL = %v", row.TVLUsd)
		}
	}

	if repo.aggregate == nil {
		t.Fatal("aggregate рядок не записано")
	}
	if repo.aggregate.ChainLatestTVLUsd != 1000 || repo.aggregate.ChainPrevTVLUsd != 900 {
		t.Errorf("chain TVL = %v / %v", repo.aggregate.ChainLatestTVLUsd, repo.aggregate.ChainPrevTVLUsd)
	}
	if repo.aggregate.ChainLastDate != "1700086400" {
		t.Errorf("chain last date = %q", repo.aggregate.ChainLastDate)
	}
	if repo.aggregate.ProtocolLatestTVLUsd != 300 {
		t.Errorf("protocol TVL = %v", repo.aggregate.ProtocolLatestTVLUsd)
	}
	// Top pools відсортовані за TVL desc
	if len(repo.aggregate.TopPools) != 3 || repo.aggregate.TopPools[0].Pool != "p1" {
		t.Errorf("top pools = %+v", repo.aggregate.TopPools)
	}
}

func TestRunTVLFailuresAreIsolated(t *testing.T) {
	// 404 не ретраїться, тому запуск не чекає retry delay
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	llama := defillama.NewClient(server.URL, server.URL, testLogger())
	repo := &mockSnapshotRepo{}

	srcs := []sources.PoolSource{
		&fakeSource{name: "pendle", pools: []models.Pool{
			{Pool: "p1", Source: "pendle", TVLUsd: 100},
		}},
	}

	job := NewJob(llama, srcs, repo, testLogger())

	summary, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	failed := map[string]bool{}
	for _, name := range summary.Failed {
		failed[name] = true
	}
	if !failed["chain-tvl"] || !failed["protocol-tvl"] {
		t.Errorf("failed = %v, очікували chain-tvl і protocol-tvl", summary.Failed)
	}

	// Pools все одно записані, TVL поля нульові
	if len(repo.pools) != 1 {
		t.Fatalf("persisted %d рядків, want 1", len(repo.pools))
	}
	if repo.aggregate == nil || repo.aggregate.ChainLatestTVLUsd != 0 {
		t.Errorf("aggregate = %+v", repo.aggregate)
	}
}

func TestRunUpsertErrorSurfaces(t *testing.T) {
	server := tvlServer(t)
	defer server.Close()

	llama := defillama.NewClient(server.URL, server.URL, testLogger())
	repo := &mockSnapshotRepo{aggregateErr: errors.New("db down")}

	job := NewJob(llama, nil, repo, testLogger())

	if _, err := job.Run(context.Background()); err == nil {
		t.Error("очікували помилку від сховища")
	}
}
