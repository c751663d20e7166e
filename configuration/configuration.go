package configuration

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

const DefaultEnvPrefix = "TOPIA_VAULT"

type Configuration struct {
	NodeConfig  *NodeConfiguration
	VaultConfig *VaultConfiguration
	LogConfig   *LogConfiguration
}

func DefConfiguration() *Configuration {
	nodeConfig := DefNodeConfiguration()
	return &Configuration{
		NodeConfig:  nodeConfig,
		VaultConfig: DefVaultConfiguration(nodeConfig.RootPath),
		LogConfig:   DefLogConfiguration(),
	}
}

// LoadConfiguration overlays the environment variables named "{prefix}_{KEY}" on the
// defaults. Unset variables keep their default.
func LoadConfiguration(prefix string) (*Configuration, error) {
	config := DefConfiguration()

	if err := envconfig.Process(prefix, config.VaultConfig); err != nil {
		return nil, fmt.Errorf("failed to process vault config: %w", err)
	}
	if err := envconfig.Process(prefix, config.LogConfig); err != nil {
		return nil, fmt.Errorf("failed to process log config: %w", err)
	}
	if err := config.VaultConfig.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}
