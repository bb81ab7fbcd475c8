package server

import (
	"context"
	"testing"
	"time"

	"PriceGate/internal/domain/models"
	"PriceGate/internal/repository"
	"PriceGate/internal/scheduler"
	"PriceGate/internal/usecase"
	pkgcache "PriceGate/pkg/cache"
	"PriceGate/pkg/config"
	"PriceGate/pkg/database"
	xhttp "PriceGate/pkg/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closeRecorder struct{ closed int }

func (c *closeRecorder) Close() error { c.closed++; return nil }

type noopRefresher struct{}

func (noopRefresher) Run(context.Context) (int, error) { return 0, nil }

func TestAppStartSeedsAndShutsDown(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, database.DriverSQLite, ":memory:")
	require.NoError(t, err)
	store := repository.NewSQLStore(db, database.DriverSQLite)
	require.NoError(t, store.Init(ctx))

	cfg, err := config.Load("testdata/does-not-exist.yaml")
	require.NoError(t, err)
	cfg.Cron.UpdatePrices = ""

	assets := usecase.NewAssetService(store, pkgcache.NewMemoryCache(pkgcache.WithMemoryCleanup(0)), time.Minute)
	sched := scheduler.New(noopRefresher{}, time.Second, nil)
	srv := xhttp.NewServer(nil, xhttp.WithHost("127.0.0.1"), xhttp.WithPort(0))

	app := New(cfg, nil, srv, sched, store, assets, []models.Asset{
		{Symbol: "EURUSD", Class: models.ClassForex, Precision: 5, LotSize: 100000, IsActive: true},
	})
	rec := &closeRecorder{}
	app.AddCloser("recorder", rec)
	app.AddCloser("nil", nil)

	require.NoError(t, app.Start(ctx))
	active, err := store.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "EURUSD", active[0].Symbol)

	require.NoError(t, app.Shutdown(ctx))
	assert.Equal(t, 1, rec.closed)
	assert.Error(t, store.Health(ctx))
}
