package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExpiry(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "7d", want: 7 * 24 * time.Hour},
		{in: "12h", want: 12 * time.Hour},
		{in: "90m", want: 90 * time.Minute},
		{in: "3600", want: time.Hour},
		{in: "", wantErr: true},
		{in: "0", wantErr: true},
		{in: "-1d", wantErr: true},
		{in: "soon", wantErr: true},
	}

	for _, tc := range cases {
		got, err := ParseExpiry(tc.in)
		if tc.wantErr {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.App.Port)
	assert.Equal(t, "7d", cfg.JWT.ExpiresIn)
	assert.Equal(t, "user", cfg.Auth.RegisterRole)
	assert.True(t, cfg.Auth.FirstUserAdmin)
	assert.Equal(t, int64(5*1024*1024), cfg.Upload.MaxSize)
	assert.False(t, cfg.App.IsProduction())
}

func TestLoadLegacyEnv(t *testing.T) {
	t.Setenv("PORT", "4000")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_EXPIRES_IN", "2d")
	t.Setenv("CORS_ORIGIN", "https://blog.example.com")
	t.Setenv("NODE_ENV", "production")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 4000, cfg.App.Port)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.Equal(t, []string{"https://blog.example.com"}, cfg.App.Cors.AllowOrigins)
	assert.True(t, cfg.App.IsProduction())

	d, err := cfg.JWT.Expiry()
	require.NoError(t, err)
	assert.Equal(t, 48*time.Hour, d)
}

func TestLoadRejectsSampleSecretInProduction(t *testing.T) {
	t.Setenv("NODE_ENV", "production")

	_, err := Load(t.TempDir())
	assert.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
app:
  port: 8081
database:
  driver: sqlite
  path: /tmp/blog.db
jwt:
  secret: from-file
  expires_in: 1h
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.App.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "from-file", cfg.JWT.Secret)
	assert.Equal(t, "blog-api", cfg.JWT.Issuer)
}

func TestDSN(t *testing.T) {
	t.Parallel()

	c := DatabaseConfig{
		Host:     "db",
		Port:     3306,
		Username: "blog",
		Password: "pw",
		Database: "yidong_blog",
		Charset:  "utf8mb4",
	}
	dsn := c.DSN()
	assert.Contains(t, dsn, "blog:pw@tcp(db:3306)/yidong_blog")
	assert.Contains(t, dsn, "charset=utf8mb4")
	assert.Contains(t, dsn, "parseTime=true")
}
