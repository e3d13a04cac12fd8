package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"curvePool/internal/config"
	"curvePool/internal/model"
)

func runInspect(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadInspect(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	raw := cfg.Record
	if raw == "" {
		data, err := os.ReadFile(cfg.RecordFile)
		if err != nil {
			return fmt.Errorf("read record file: %w", err)
		}
		raw = string(data)
	}

	pool, record, err := decodeRecordHex(raw)
	if err != nil {
		return err
	}

	reencoded, err := pool.MarshalBinary()
	if err != nil {
		return fmt.Errorf("re-encode record: %w", err)
	}
	if !bytes.Equal(record, reencoded) {
		return fmt.Errorf("record does not round trip")
	}

	snap, err := model.SnapshotFromPool(pool)
	if err != nil {
		return err
	}

	logger.Debug("record decoded",
		zap.Int("bytes", len(record)),
		zap.String("multiplier", snap.Multiplier),
	)

	return printJSON(snap)
}
