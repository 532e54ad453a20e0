package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"server"`
	Database struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"sslmode"`
	} `mapstructure:"database"`
	Redis struct {
		Host     string        `mapstructure:"host"`
		Port     string        `mapstructure:"port"`
		Password string        `mapstructure:"password"`
		DB       int           `mapstructure:"db"`
		TTL      time.Duration `mapstructure:"ttl"`
	} `mapstructure:"redis"`
	Security struct {
		SecretKey            string  `mapstructure:"secret_key"`
		Algorithm            string  `mapstructure:"algorithm"`
		TokenExpireMinutes   int     `mapstructure:"token_expire_minutes"`
		MinTransactionAmount float64 `mapstructure:"min_transaction_amount"`
		MaxTransactionAmount float64 `mapstructure:"max_transaction_amount"`
		DailyLimit           float64 `mapstructure:"daily_limit"`
	} `mapstructure:"security"`
	Blockchain struct {
		NodeURL         string `mapstructure:"node_url"`
		Network         string `mapstructure:"network"`
		ContractAddress string `mapstructure:"contract_address"`
	} `mapstructure:"blockchain"`
	Transaction struct {
		DefaultCurrency string `mapstructure:"default_currency"`
	} `mapstructure:"transaction"`
	Tax struct {
		VATRate           float64  `mapstructure:"vat_rate"`
		TaxYear           int      `mapstructure:"tax_year"`
		ReportingCurrency string   `mapstructure:"reporting_currency"`
		ExemptCategories  []string `mapstructure:"exempt_categories"`
	} `mapstructure:"tax"`
	Deploy struct {
		AWSRegion        string `mapstructure:"aws_region"`
		ECRRepository    string `mapstructure:"ecr_repository"`
		ECSCluster       string `mapstructure:"ecs_cluster"`
		ECSService       string `mapstructure:"ecs_service"`
		UpstreamWorkflow string `mapstructure:"upstream_workflow"`
		Branch           string `mapstructure:"branch"`
	} `mapstructure:"deploy"`
}

var AppConfig Config

// supportedAlgorithms lists the HMAC signing methods accepted for auth tokens.
var supportedAlgorithms = map[string]bool{"HS256": true, "HS384": true, "HS512": true}

// envAliases binds the secret names used by the deployment pipeline in addition
// to the derived SECTION_KEY form.
var envAliases = map[string][]string{
	"database.host":               {"DB_HOST"},
	"database.port":               {"DB_PORT"},
	"database.user":               {"DB_USER"},
	"database.password":           {"DB_PASSWORD"},
	"database.name":               {"DB_NAME"},
	"security.secret_key":         {"SECRET_KEY"},
	"blockchain.node_url":         {"BLOCKCHAIN_NODE_URL"},
	"blockchain.contract_address": {"SMART_CONTRACT_ADDRESS"},
	"server.port":                 {"PORT"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "saveai")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "saveai")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 10*time.Minute)

	v.SetDefault("security.secret_key", "")
	v.SetDefault("security.algorithm", "HS256")
	v.SetDefault("security.token_expire_minutes", 30)
	v.SetDefault("security.min_transaction_amount", 0.01)
	v.SetDefault("security.max_transaction_amount", 1000000.00)
	v.SetDefault("security.daily_limit", 5000000.00)

	v.SetDefault("blockchain.node_url", "")
	v.SetDefault("blockchain.network", "mainnet")
	v.SetDefault("blockchain.contract_address", "")

	v.SetDefault("transaction.default_currency", "AED")

	v.SetDefault("tax.vat_rate", 5.0)
	v.SetDefault("tax.tax_year", time.Now().Year())
	v.SetDefault("tax.reporting_currency", "AED")
	v.SetDefault("tax.exempt_categories", []string{"healthcare", "education"})

	v.SetDefault("deploy.aws_region", "me-central-1")
	v.SetDefault("deploy.ecr_repository", "saveai-api")
	v.SetDefault("deploy.ecs_cluster", "saveai-cluster")
	v.SetDefault("deploy.ecs_service", "saveai-api-service")
	v.SetDefault("deploy.upstream_workflow", "Build and Deploy")
	v.SetDefault("deploy.branch", "main")
}

// LoadConfig reads config.yml from path, overlays environment variables and
// stores the result in AppConfig. A missing config file is not an error.
func LoadConfig(path string) error {
	// A .env file is optional; real deployments inject the environment directly.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, aliases := range envAliases {
		names := append([]string{key, strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, aliases...)
		if err := v.BindEnv(names...); err != nil {
			return fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("unable to decode into struct: %w", err)
	}
	cfg.Transaction.DefaultCurrency = strings.ToUpper(cfg.Transaction.DefaultCurrency)
	cfg.Tax.ReportingCurrency = strings.ToUpper(cfg.Tax.ReportingCurrency)

	AppConfig = cfg
	return nil
}

// Validate checks the settings the service cannot run without.
func (c *Config) Validate() error {
	if c.Security.SecretKey == "" {
		return errors.New("security.secret_key must be set")
	}
	if !supportedAlgorithms[c.Security.Algorithm] {
		return fmt.Errorf("unsupported signing algorithm %q", c.Security.Algorithm)
	}
	if c.Security.MinTransactionAmount > c.Security.MaxTransactionAmount {
		return errors.New("security.min_transaction_amount exceeds max_transaction_amount")
	}
	if len(c.Transaction.DefaultCurrency) != 3 {
		return fmt.Errorf("invalid default currency %q", c.Transaction.DefaultCurrency)
	}
	return nil
}
