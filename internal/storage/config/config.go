package config

import (
	"fmt"
	"os"
	"time"

	"github.com/orderdesk/orderdesk/pkg/model"
)

const (
	BackendMemory = "memory"
	BackendMongo  = "mongo"
)

type Config struct {
	Backend string      `yaml:"backend"` // "memory" or "mongo"
	Mongo   MongoConfig `yaml:"mongo"`

	// Indexes lists the fields the store can order or filter by.
	// Mongo creates them on EnsureIndexes; the memory store refuses
	// queries on anything not listed.
	Indexes []string `yaml:"indexes"`
}

type MongoConfig struct {
	URI            string        `yaml:"uri"`
	DatabaseName   string        `yaml:"database_name"`
	Collection     string        `yaml:"collection"`
	EnsureIndexes  bool          `yaml:"ensure_indexes"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`

	// AllowNonAtomicWrites writes batches without a transaction, for
	// standalone servers. A failed batch may then be partly applied.
	AllowNonAtomicWrites bool `yaml:"allow_non_atomic_writes"`
}

// Transactional reports whether batch writes run in a transaction.
func (c MongoConfig) Transactional() bool {
	return !c.AllowNonAtomicWrites
}

func DefaultConfig() Config {
	return Config{
		Backend: BackendMemory,
		Mongo: MongoConfig{
			URI:            "mongodb://localhost:27017",
			DatabaseName:   "orderdesk",
			Collection:     "orders",
			ConnectTimeout: 10 * time.Second,
		},
		Indexes: []string{"orderDate", "orderNumber", "materialNumber", "salesDocument"},
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.Backend == "" {
		c.Backend = defaults.Backend
	}
	if c.Mongo.URI == "" {
		c.Mongo.URI = defaults.Mongo.URI
	}
	if c.Mongo.DatabaseName == "" {
		c.Mongo.DatabaseName = defaults.Mongo.DatabaseName
	}
	if c.Mongo.Collection == "" {
		c.Mongo.Collection = defaults.Mongo.Collection
	}
	if c.Mongo.ConnectTimeout == 0 {
		c.Mongo.ConnectTimeout = defaults.Mongo.ConnectTimeout
	}
	if c.Indexes == nil {
		c.Indexes = defaults.Indexes
	}
}

// ApplyEnvOverrides applies environment variable overrides.
func (c *Config) ApplyEnvOverrides() {
	if val := os.Getenv("ORDERDESK_MONGO_URI"); val != "" {
		c.Mongo.URI = val
	}
	if val := os.Getenv("ORDERDESK_MONGO_DATABASE"); val != "" {
		c.Mongo.DatabaseName = val
	}
}

// ResolvePaths resolves relative paths using the given base directories.
// No paths to resolve in storage config.
func (*Config) ResolvePaths(_, _ string) {}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendMongo:
	default:
		return fmt.Errorf("storage.backend must be %q or %q, got %q", BackendMemory, BackendMongo, c.Backend)
	}
	if c.Backend == BackendMongo && c.Mongo.URI == "" {
		return fmt.Errorf("storage.mongo.uri is required for the mongo backend")
	}
	if _, err := c.IndexedFields(); err != nil {
		return err
	}
	return nil
}

// IndexedFields parses Indexes into record fields.
func (c *Config) IndexedFields() ([]model.Field, error) {
	fields := make([]model.Field, 0, len(c.Indexes))
	for _, name := range c.Indexes {
		f, ok := model.ParseField(name)
		if !ok {
			return nil, fmt.Errorf("storage.indexes: unknown field %q", name)
		}
		fields = append(fields, f)
	}
	return fields, nil
}
