package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// InspectConfig holds configuration for the inspect command.
type InspectConfig struct {
	Record     string
	RecordFile string
	LogLevel   string
}

// LoadInspect merges config file, environment variables, and flags into InspectConfig.
func LoadInspect(cfgFile string, flags *pflag.FlagSet) (InspectConfig, error) {
	v, err := newViper(cfgFile, flags, nil)
	if err != nil {
		return InspectConfig{}, err
	}

	cfg := InspectConfig{
		Record:     v.GetString("record"),
		RecordFile: v.GetString("record-file"),
		LogLevel:   v.GetString("log-level"),
	}
	if cfg.Record == "" && cfg.RecordFile == "" {
		return InspectConfig{}, fmt.Errorf("record or record-file is required")
	}
	return cfg, nil
}
