package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/benaskins/roost/internal/audit"
	"github.com/benaskins/roost/internal/config"
	"github.com/benaskins/roost/internal/keychain"
	"github.com/benaskins/roost/internal/registry"
	"github.com/benaskins/roost/internal/vault"
)

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "config file")
}

// openVault wires the store, registry, and audit log for a CLI invocation.
func openVault(actor string) (*vault.Vault, *config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, nil, fmt.Errorf("creating data dir: %w", err)
	}

	reg, err := registry.Open(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}

	auditLog, err := audit.NewLogger(filepath.Join(cfg.DataDir, "audit.log"))
	if err != nil {
		return nil, nil, err
	}

	v := vault.New(keychain.NewSystemStore(), reg, vault.WithAudit(auditLog, actor))
	return v, cfg, nil
}
