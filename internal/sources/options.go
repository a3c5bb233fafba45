package sources

import (
	"context"
	"time"

	"github.com/haeli05/yields.to/internal/models"
)

// LoadOptions параметри одного читання джерела
type LoadOptions struct {
	// Refresh ігнорує кеш і йде одразу до upstream
	Refresh bool
	// TTL перекриває стандартний TTL джерела (0 = стандартний)
	TTL time.Duration
}

// PoolSource одне upstream джерело нормалізованих pools.
// Load повертає pools, ознаку cache hit та помилку.
type PoolSource interface {
	Name() string
	Load(ctx context.Context, opts LoadOptions) ([]models.Pool, bool, error)
}
