package config

import "time"

// HostConfig is the root configuration of the sandbox host.
type HostConfig struct {
	Storage   StorageSection   `koanf:"storage" json:"storage" yaml:"storage"`
	Codec     CodecSection     `koanf:"codec" json:"codec" yaml:"codec"`
	Address   AddressSection   `koanf:"address" json:"address" yaml:"address"`
	Namespace NamespaceSection `koanf:"namespace" json:"namespace" yaml:"namespace"`
	Dispatch  DispatchSection  `koanf:"dispatch" json:"dispatch" yaml:"dispatch"`
	Security  SecuritySection  `koanf:"security" json:"security" yaml:"security"`
	Snapshot  SnapshotSection  `koanf:"snapshot" json:"snapshot" yaml:"snapshot"`
	Metrics   MetricsSection   `koanf:"metrics" json:"metrics" yaml:"metrics"`
	Log       LogSection       `koanf:"log" json:"log" yaml:"log"`
}

// StorageSection selects and tunes the raw store.
type StorageSection struct {
	// Backend is "memory" or "badger".
	Backend string        `koanf:"backend" json:"backend" yaml:"backend"`
	Dir     string        `koanf:"dir" json:"dir" yaml:"dir"`
	Badger  BadgerSection `koanf:"badger" json:"badger" yaml:"badger"`
}

// BadgerSection mirrors storage.BadgerConfig.
type BadgerSection struct {
	GCInterval       time.Duration `koanf:"gc_interval" json:"gc_interval" yaml:"gc_interval"`
	GCThreshold      float64       `koanf:"gc_threshold" json:"gc_threshold" yaml:"gc_threshold"`
	CacheSize        int64         `koanf:"cache_size" json:"cache_size" yaml:"cache_size"`
	ValueLogFileSize int64         `koanf:"value_log_file_size" json:"value_log_file_size" yaml:"value_log_file_size"`
	NumMemtables     int           `koanf:"num_memtables" json:"num_memtables" yaml:"num_memtables"`
	SyncWrites       bool          `koanf:"sync_writes" json:"sync_writes" yaml:"sync_writes"`
	InMemory         bool          `koanf:"in_memory" json:"in_memory" yaml:"in_memory"`
}

// CodecSection selects the value codec ("json", "msgpack", "proto").
type CodecSection struct {
	Name string `koanf:"name" json:"name" yaml:"name"`
}

// AddressSection selects the address service.
type AddressSection struct {
	// Service is "mock" or "multibase".
	Service string `koanf:"service" json:"service" yaml:"service"`

	// CanonicalLength is the canonical address width. For multibase, zero
	// accepts any non-empty length.
	CanonicalLength int `koanf:"canonical_length" json:"canonical_length" yaml:"canonical_length"`

	// Base is the multibase encoding used for human addresses.
	Base string `koanf:"base" json:"base" yaml:"base"`
}

// NamespaceSection selects the namespacer ("concat", "length_prefixed").
type NamespaceSection struct {
	Scheme string `koanf:"scheme" json:"scheme" yaml:"scheme"`
}

// DispatchSection configures the router.
type DispatchSection struct {
	// Atomic commits execute writes only when the handler succeeds.
	Atomic bool `koanf:"atomic" json:"atomic" yaml:"atomic"`
}

// SecuritySection configures encryption of stored values.
type SecuritySection struct {
	// StorageKey is the master key ("hex:..." or "base64:..."). Empty
	// disables encryption at rest.
	StorageKey string `koanf:"storage_key" json:"storage_key" yaml:"storage_key"`

	// Cipher is "aes-gcm", "chacha20-poly1305", or empty for automatic.
	Cipher string `koanf:"cipher" json:"cipher" yaml:"cipher"`
}

// SnapshotSection configures store snapshots.
type SnapshotSection struct {
	// Dir holds snapshot files. Empty means <storage.dir>/snapshots.
	Dir string `koanf:"dir" json:"dir" yaml:"dir"`

	// RetentionCount is how many snapshots to keep; negative keeps all.
	RetentionCount int `koanf:"retention_count" json:"retention_count" yaml:"retention_count"`

	// Passphrase encrypts snapshot files. Empty writes them unencrypted
	// (values stay sealed when security.storage_key is set).
	Passphrase string `koanf:"passphrase" json:"passphrase" yaml:"passphrase"`
}

// MetricsSection configures Prometheus metrics.
type MetricsSection struct {
	Enabled bool `koanf:"enabled" json:"enabled" yaml:"enabled"`
	// Runtime adds Go runtime and process collectors.
	Runtime bool `koanf:"runtime" json:"runtime" yaml:"runtime"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" json:"level" yaml:"level"`
	Format string `koanf:"format" json:"format" yaml:"format"`
}
