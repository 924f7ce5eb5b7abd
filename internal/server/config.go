package server

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// ServerConfig represents the complete server configuration
type ServerConfig struct {
	Server ServerSettings `hcl:"server,block"`
	Engine EngineSettings `hcl:"engine,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// EngineSettings contains the wagering rules and funding for one engine
type EngineSettings struct {
	Owner              string `hcl:"owner"`
	BaseUnit           int64  `hcl:"base_unit,optional"`
	MinWager           int64  `hcl:"min_wager,optional"`
	MaxWagerMultiple   int64  `hcl:"max_wager_multiple,optional"`
	RequestCost        int64  `hcl:"request_cost,optional"`
	DealerStand        int    `hcl:"dealer_stand,optional"`
	SubscriptionCredit int64  `hcl:"subscription_credit,optional"`
	Bankroll           int64  `hcl:"bankroll,optional"`
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
		},
		Engine: EngineSettings{
			Owner:              "owner",
			BaseUnit:           1000,
			MinWager:           1,
			MaxWagerMultiple:   10,
			RequestCost:        1,
			DealerStand:        17,
			SubscriptionCredit: 10_000,
			Bankroll:           1_000_000,
		},
	}
}

// LoadServerConfig loads server configuration from an HCL file. A
// missing file yields the defaults.
func LoadServerConfig(filename string) (*ServerConfig, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultServerConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config ServerConfig
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply defaults for missing values
	defaults := DefaultServerConfig()
	if config.Server.Address == "" {
		config.Server.Address = defaults.Server.Address
	}
	if config.Server.Port == 0 {
		config.Server.Port = defaults.Server.Port
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = defaults.Server.LogLevel
	}
	if config.Engine.BaseUnit == 0 {
		config.Engine.BaseUnit = defaults.Engine.BaseUnit
	}
	if config.Engine.MinWager == 0 {
		config.Engine.MinWager = defaults.Engine.MinWager
	}
	if config.Engine.MaxWagerMultiple == 0 {
		config.Engine.MaxWagerMultiple = defaults.Engine.MaxWagerMultiple
	}
	if config.Engine.RequestCost == 0 {
		config.Engine.RequestCost = defaults.Engine.RequestCost
	}
	if config.Engine.DealerStand == 0 {
		config.Engine.DealerStand = defaults.Engine.DealerStand
	}
	if config.Engine.SubscriptionCredit == 0 {
		config.Engine.SubscriptionCredit = defaults.Engine.SubscriptionCredit
	}
	if config.Engine.Bankroll == 0 {
		config.Engine.Bankroll = defaults.Engine.Bankroll
	}

	return &config, nil
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Engine.Owner == "" {
		return fmt.Errorf("engine owner must be set")
	}
	if c.Engine.BaseUnit <= 0 {
		return fmt.Errorf("base unit must be positive")
	}
	if c.Engine.MinWager <= 0 {
		return fmt.Errorf("minimum wager must be positive")
	}
	if c.Engine.MaxWagerMultiple <= 0 {
		return fmt.Errorf("max wager multiple must be positive")
	}
	if c.Engine.MinWager > c.Engine.BaseUnit*c.Engine.MaxWagerMultiple {
		return fmt.Errorf("minimum wager exceeds the maximum wager")
	}
	if c.Engine.RequestCost <= 0 {
		return fmt.Errorf("request cost must be positive")
	}
	if c.Engine.DealerStand < 2 || c.Engine.DealerStand > 21 {
		return fmt.Errorf("dealer stand value must be between 2 and 21")
	}
	return nil
}

// GetServerAddress returns the full server address
func (c *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
