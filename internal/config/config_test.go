package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "sts_ts", cfg.Database.Schema)
	assert.True(t, cfg.IsAdminDesignation("Director"))
	assert.True(t, cfg.IsAdminDesignation("  project manager "))
	assert.False(t, cfg.IsAdminDesignation("developer"))
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "timeflow.yaml")
	body := `
server:
  addr: ":9090"
database:
  driver: sqlite3
  name: ":memory:"
auth:
  jwt_secret: test-secret
  admin_designations:
    - CTO
    - Head Of Delivery
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, ":memory:", cfg.Database.DSN())
	assert.Equal(t, "test-secret", cfg.Auth.JWTSecret)
	assert.True(t, cfg.IsAdminDesignation("cto"))
	assert.True(t, cfg.IsAdminDesignation("head of delivery"))
	assert.False(t, cfg.IsAdminDesignation("director"))
}

func TestDatabaseConfig_DSN(t *testing.T) {
	pg := DatabaseConfig{Driver: "postgres", Host: "db", Port: 5432, User: "ts", Password: "pw", Name: "tsdb", Schema: "sts_ts"}
	assert.Contains(t, pg.DSN(), "host=db")
	assert.Contains(t, pg.DSN(), "search_path=sts_ts")
	assert.Contains(t, pg.DSN(), "sslmode=disable")

	my := DatabaseConfig{Driver: "mysql", Host: "db", Port: 3306, User: "ts", Password: "pw", Name: "tsdb"}
	assert.Equal(t, "ts:pw@tcp(db:3306)/tsdb?parseTime=true", my.DSN())
}
