package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	require.NoError(t, LoadConfig(t.TempDir()))

	assert.Equal(t, "8080", AppConfig.Server.Port)
	assert.Equal(t, 5432, AppConfig.Database.Port)
	assert.Equal(t, "AED", AppConfig.Transaction.DefaultCurrency)
	assert.Equal(t, "HS256", AppConfig.Security.Algorithm)
	assert.Equal(t, 30, AppConfig.Security.TokenExpireMinutes)
	assert.Equal(t, 0.01, AppConfig.Security.MinTransactionAmount)
	assert.Equal(t, 1000000.0, AppConfig.Security.MaxTransactionAmount)
	assert.Equal(t, 5.0, AppConfig.Tax.VATRate)
	assert.Equal(t, 10*time.Minute, AppConfig.Redis.TTL)
	assert.Equal(t, "mainnet", AppConfig.Blockchain.Network)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	content := `
server:
  port: "9090"
database:
  host: db.internal
  name: ledger
transaction:
  default_currency: usd
redis:
  ttl: 90s
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(content), 0o600))

	t.Setenv("SECRET_KEY", "from-pipeline")
	t.Setenv("DB_PASSWORD", "s3cret")
	t.Setenv("BLOCKCHAIN_NETWORK", "sepolia")
	t.Setenv("SMART_CONTRACT_ADDRESS", "0xabc")

	require.NoError(t, LoadConfig(dir))

	assert.Equal(t, "9090", AppConfig.Server.Port)
	assert.Equal(t, "db.internal", AppConfig.Database.Host)
	assert.Equal(t, "ledger", AppConfig.Database.Name)
	assert.Equal(t, "s3cret", AppConfig.Database.Password)
	assert.Equal(t, "USD", AppConfig.Transaction.DefaultCurrency)
	assert.Equal(t, 90*time.Second, AppConfig.Redis.TTL)
	assert.Equal(t, "from-pipeline", AppConfig.Security.SecretKey)
	assert.Equal(t, "sepolia", AppConfig.Blockchain.Network)
	assert.Equal(t, "0xabc", AppConfig.Blockchain.ContractAddress)
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte("server: [unclosed"), 0o600))

	assert.Error(t, LoadConfig(dir))
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		var c Config
		c.Security.SecretKey = "key"
		c.Security.Algorithm = "HS256"
		c.Security.MinTransactionAmount = 0.01
		c.Security.MaxTransactionAmount = 100
		c.Transaction.DefaultCurrency = "AED"
		return c
	}

	t.Run("valid", func(t *testing.T) {
		c := valid()
		assert.NoError(t, c.Validate())
	})

	t.Run("missing secret", func(t *testing.T) {
		c := valid()
		c.Security.SecretKey = ""
		assert.Error(t, c.Validate())
	})

	t.Run("unsupported algorithm", func(t *testing.T) {
		c := valid()
		c.Security.Algorithm = "RS256"
		assert.Error(t, c.Validate())
	})

	t.Run("inverted limits", func(t *testing.T) {
		c := valid()
		c.Security.MinTransactionAmount = 500
		assert.Error(t, c.Validate())
	})

	t.Run("bad currency", func(t *testing.T) {
		c := valid()
		c.Transaction.DefaultCurrency = "DIRHAM"
		assert.Error(t, c.Validate())
	})
}
