//go:build integration

package transfer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"

	"github.com/tphakala/bonsai-go/internal/conf"
	"github.com/tphakala/bonsai-go/internal/datastore"
	"github.com/tphakala/bonsai-go/internal/datastore/entities"
	"github.com/tphakala/bonsai-go/internal/testutil"
)

func startMySQL(t *testing.T) conf.MySQLSettings {
	t.Helper()
	ctx := context.Background()

	container, err := mysql.Run(ctx, "mysql:8.0",
		mysql.WithDatabase("bonsai"),
		mysql.WithUsername("bonsai"),
		mysql.WithPassword("bonsai"),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "3306/tcp")
	require.NoError(t, err)

	return conf.MySQLSettings{
		Host:     host,
		Port:     port.Int(),
		Username: "bonsai",
		Password: "bonsai",
		Database: "bonsai",
	}
}

func TestCopySQLiteToMySQL(t *testing.T) {
	src := testutil.NewSQLiteStore(t)
	seedCollection(t, src, 25)

	settings := testutil.Settings(t)
	settings.Database.Type = conf.DatabaseMySQL
	settings.Database.MySQL = startMySQL(t)

	dst, err := datastore.New(settings)
	require.NoError(t, err)
	require.NoError(t, dst.Open())
	t.Cleanup(func() { _ = dst.Close() })

	stats, err := Copy(context.Background(), src, dst, Options{BatchSize: 10, Clean: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1+25*4+1+1), stats.Total())

	mismatches, err := Verify(context.Background(), src, dst)
	require.NoError(t, err)
	assert.Empty(t, mismatches)

	trees := loadAll[entities.Tree](t, dst)
	require.Len(t, trees, 25)
	assert.Equal(t, "BON-A", trees[0].TreeNumber)
}
