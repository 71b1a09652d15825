package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yndnr/composable-go/internal/telemetry/logger"
	"github.com/yndnr/composable-go/pkg/addr"
	"github.com/yndnr/composable-go/pkg/codec"
	"github.com/yndnr/composable-go/pkg/crypto/adaptive"
	"github.com/yndnr/composable-go/pkg/keyspace"
)

// Verify validates the configuration.
func Verify(cfg *HostConfig) error {
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	if _, err := codec.ByName(cfg.Codec.Name); err != nil {
		return fmt.Errorf("codec.name: %w", err)
	}
	if err := verifyAddress(&cfg.Address); err != nil {
		return err
	}
	if _, err := keyspace.ByName(cfg.Namespace.Scheme); err != nil {
		return fmt.Errorf("namespace.scheme: %w", err)
	}
	if err := verifySecurity(&cfg.Security); err != nil {
		return err
	}
	if p := cfg.Snapshot.Passphrase; p != "" && len(p) < 8 {
		return errors.New("snapshot.passphrase must be at least 8 characters")
	}
	return verifyLog(&cfg.Log)
}

func verifyStorage(cfg *StorageSection) error {
	switch cfg.Backend {
	case "memory":
		return nil
	case "badger":
	default:
		return fmt.Errorf("storage.backend must be memory or badger, got %q", cfg.Backend)
	}

	if cfg.Dir == "" && !cfg.Badger.InMemory {
		return errors.New("storage.dir is required for the badger backend")
	}
	if cfg.Badger.GCThreshold <= 0 || cfg.Badger.GCThreshold >= 1 {
		return fmt.Errorf("storage.badger.gc_threshold must be between 0 and 1, got %v", cfg.Badger.GCThreshold)
	}
	if cfg.Badger.ValueLogFileSize != 0 && (cfg.Badger.ValueLogFileSize < 1<<20 || cfg.Badger.ValueLogFileSize >= 2<<30) {
		return errors.New("storage.badger.value_log_file_size must be between 1MB and 2GB")
	}
	if cfg.Badger.NumMemtables < 0 || cfg.Badger.CacheSize < 0 {
		return errors.New("storage.badger sizes must not be negative")
	}
	return nil
}

func verifyAddress(cfg *AddressSection) error {
	if cfg.CanonicalLength < 0 {
		return errors.New("address.canonical_length must not be negative")
	}
	switch cfg.Service {
	case "mock":
		return nil
	case "multibase":
		if _, err := addr.NewMultibaseAPI(cfg.Base, cfg.CanonicalLength); err != nil {
			return fmt.Errorf("address.base: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("address.service must be mock or multibase, got %q", cfg.Service)
	}
}

func verifySecurity(cfg *SecuritySection) error {
	switch adaptive.CipherType(cfg.Cipher) {
	case "", adaptive.CipherAESGCM, adaptive.CipherChaCha20:
	default:
		return fmt.Errorf("security.cipher: unknown cipher %q", cfg.Cipher)
	}
	if cfg.StorageKey == "" {
		return nil
	}
	key, err := adaptive.ParseKey(cfg.StorageKey)
	if err != nil {
		return fmt.Errorf("security.storage_key: %w", err)
	}
	adaptive.ZeroKey(key)
	return nil
}

func verifyLog(cfg *LogSection) error {
	if !logger.ValidLevel(cfg.Level) {
		return fmt.Errorf("log.level: unknown level %q", cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text", "console":
		return nil
	default:
		return fmt.Errorf("log.format must be json or text, got %q", cfg.Format)
	}
}
