package config

import "github.com/yndnr/composable-go/internal/storage"

// Default configuration values.
const (
	DefaultBackend         = "memory"
	DefaultCodec           = "json"
	DefaultAddressService  = "mock"
	DefaultCanonicalLength = 20
	DefaultMultibase       = "base58btc"
	DefaultNamespaceScheme = "concat"

	DefaultSnapshotRetention = 5

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Default returns the default host configuration.
func Default() *HostConfig {
	badger := storage.DefaultBadgerConfig()

	return &HostConfig{
		Storage: StorageSection{
			Backend: DefaultBackend,
			Badger: BadgerSection{
				GCInterval:       badger.GCInterval,
				GCThreshold:      badger.GCThreshold,
				CacheSize:        badger.CacheSize,
				ValueLogFileSize: badger.ValueLogFileSize,
				NumMemtables:     badger.NumMemtables,
				SyncWrites:       badger.SyncWrites,
			},
		},
		Codec:     CodecSection{Name: DefaultCodec},
		Address:   AddressSection{Service: DefaultAddressService, CanonicalLength: DefaultCanonicalLength, Base: DefaultMultibase},
		Namespace: NamespaceSection{Scheme: DefaultNamespaceScheme},
		Dispatch:  DispatchSection{Atomic: true},
		Snapshot:  SnapshotSection{RetentionCount: DefaultSnapshotRetention},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// KVConfig converts the storage section into a storage.KVConfig.
func (s StorageSection) KVConfig() storage.KVConfig {
	return storage.KVConfig{
		Engine: s.Backend,
		Dir:    s.Dir,
		Badger: storage.BadgerConfig{
			GCInterval:       s.Badger.GCInterval,
			GCThreshold:      s.Badger.GCThreshold,
			CacheSize:        s.Badger.CacheSize,
			ValueLogFileSize: s.Badger.ValueLogFileSize,
			NumMemtables:     s.Badger.NumMemtables,
			SyncWrites:       s.Badger.SyncWrites,
			InMemory:         s.Badger.InMemory,
		},
	}
}
