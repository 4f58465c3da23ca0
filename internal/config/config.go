package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Chain struct {
		RPCURL        string `yaml:"rpc_url"`
		MinterAddress string `yaml:"minter_address"`
		TokenAddress  string `yaml:"token_address"`
	} `yaml:"chain"`
	Explorer struct {
		BaseURL   string  `yaml:"base_url"`
		APIKey    string  `yaml:"api_key"`
		RateLimit float64 `yaml:"rate_limit"`
	} `yaml:"explorer"`
	Dex struct {
		BaseURL string `yaml:"base_url"`
		Chain   string `yaml:"chain"`
	} `yaml:"dex"`
	Run struct {
		CronSpec           string `yaml:"cron_spec"`
		OutputPath         string `yaml:"output_path"`
		TimeoutSeconds     int    `yaml:"timeout_seconds"`
		CallTimeoutSeconds int    `yaml:"call_timeout_seconds"`
		RetryLimit         int    `yaml:"retry_limit"`
	} `yaml:"run"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("RPC_URL"); v != "" {
		cfg.Chain.RPCURL = v
	}
	if v := os.Getenv("MINTER_ADDRESS"); v != "" {
		cfg.Chain.MinterAddress = v
	}
	if v := os.Getenv("TOKEN_ADDRESS"); v != "" {
		cfg.Chain.TokenAddress = v
	}
	if v := os.Getenv("ETHERSCAN_API_KEY"); v != "" {
		cfg.Explorer.APIKey = v
	}
	if v := os.Getenv("OUTPUT_PATH"); v != "" {
		cfg.Run.OutputPath = v
	}
	if v := os.Getenv("CRON_SPEC"); v != "" {
		cfg.Run.CronSpec = v
	}
	if v := os.Getenv("RETRY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Run.RetryLimit = n
		}
	}
	if v := os.Getenv("TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Run.TimeoutSeconds = n
		}
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.Chain.MinterAddress == "" {
		cfg.Chain.MinterAddress = "0xe89AFDeFeBDba033f6e750615f0A0f1A37C78c4A"
	}
	if cfg.Chain.TokenAddress == "" {
		cfg.Chain.TokenAddress = cfg.Chain.MinterAddress
	}
	if cfg.Explorer.BaseURL == "" {
		cfg.Explorer.BaseURL = "https://api.etherscan.io/api"
	}
	if cfg.Explorer.RateLimit == 0 {
		cfg.Explorer.RateLimit = 4
	}
	if cfg.Dex.BaseURL == "" {
		cfg.Dex.BaseURL = "https://api.dexscreener.com"
	}
	if cfg.Dex.Chain == "" {
		cfg.Dex.Chain = "base"
	}
	if cfg.Run.CronSpec == "" {
		cfg.Run.CronSpec = "0 0 * * * *"
	}
	if cfg.Run.OutputPath == "" {
		cfg.Run.OutputPath = "data/stats.json"
	}
	if cfg.Run.TimeoutSeconds == 0 {
		cfg.Run.TimeoutSeconds = 120
	}
	if cfg.Run.CallTimeoutSeconds == 0 {
		cfg.Run.CallTimeoutSeconds = 10
	}
	if cfg.Run.RetryLimit == 0 {
		cfg.Run.RetryLimit = 3
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Chain.RPCURL == "" {
		return fmt.Errorf("chain.rpc_url is required")
	}
	if c.Chain.MinterAddress == "" {
		return fmt.Errorf("chain.minter_address is required")
	}
	if c.Run.OutputPath == "" {
		return fmt.Errorf("run.output_path is required")
	}
	if c.Run.RetryLimit < 1 {
		return fmt.Errorf("run.retry_limit must be at least 1")
	}
	return nil
}

// TimeoutBudget is the overall deadline for one pipeline run.
func (c *Config) TimeoutBudget() time.Duration {
	return time.Duration(c.Run.TimeoutSeconds) * time.Second
}

// CallTimeout bounds a single upstream request attempt.
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.Run.CallTimeoutSeconds) * time.Second
}
