package configuration

import (
	"os"
	"path/filepath"
)

type NodeConfiguration struct {
	RootPath string
}

func DefNodeConfiguration() *NodeConfiguration {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.TempDir()
	}
	return &NodeConfiguration{
		RootPath: filepath.Join(homeDir, ".topia-vault"),
	}
}
