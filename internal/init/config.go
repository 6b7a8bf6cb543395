package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// App mode & server
	Mode       string
	ServerAddr string
	LogLevel   string
	SeedCount  int

	// Document store
	StoreDriver     string
	DatabaseURL     string
	TestDatabaseURL string
	TestStoreDriver string
	MongoDatabase   string

	// Cassandra
	CassandraHost         string
	CassandraKeyspace     string
	CassandraTestKeyspace string
	CassandraUsername     string
	CassandraPassword     string
	CassandraTimeout      time.Duration
	CassandraDC           string

	// Kafka
	EventsEnabled bool
	KafkaBroker   string
	KafkaTopic    string
	KafkaGroupID  string
	KafkaReadTO   time.Duration
	KafkaWriteTO  time.Duration
}

// StoreConfig is everything the store package needs to open one backend.
type StoreConfig struct {
	Driver   string
	URL      string
	Database string

	CassandraHost     string
	CassandraKeyspace string
	CassandraUsername string
	CassandraPassword string
	CassandraTimeout  time.Duration
	CassandraDC       string
}

var cfg *Config

// Init loads the config using Viper and returns it
func Init() *Config {
	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("MODE", "server")
	v.SetDefault("SERVER_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SEED_COUNT", 10)

	v.SetDefault("STORE_DRIVER", "cassandra")
	v.SetDefault("MONGO_DATABASE", "blog")

	v.SetDefault("CASSANDRA_HOST", "localhost")
	v.SetDefault("CASSANDRA_KEYSPACE", "blog")
	v.SetDefault("CASSANDRA_TEST_KEYSPACE", "blog_test")
	v.SetDefault("CASSANDRA_TIMEOUT", "10s")
	// Optional: Cassandra username/password/DC can be empty

	v.SetDefault("EVENTS_ENABLED", false)
	v.SetDefault("KAFKA_BROKER", "localhost:29092")
	v.SetDefault("KAFKA_TOPIC", "post-events")
	v.SetDefault("KAFKA_GROUP_ID", "post-audit")
	v.SetDefault("KAFKA_READ_TIMEOUT", "10s")
	v.SetDefault("KAFKA_WRITE_TIMEOUT", "10s")

	// Load env variables
	v.AutomaticEnv()

	// Optional config file support
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig() // ignore error if no file

	cfg = fromViper(v)
	return cfg
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Mode:                  v.GetString("MODE"),
		ServerAddr:            v.GetString("SERVER_ADDR"),
		LogLevel:              v.GetString("LOG_LEVEL"),
		SeedCount:             v.GetInt("SEED_COUNT"),
		StoreDriver:           v.GetString("STORE_DRIVER"),
		DatabaseURL:           v.GetString("DATABASE_URL"),
		TestDatabaseURL:       v.GetString("TEST_DATABASE_URL"),
		TestStoreDriver:       v.GetString("TEST_STORE_DRIVER"),
		MongoDatabase:         v.GetString("MONGO_DATABASE"),
		CassandraHost:         v.GetString("CASSANDRA_HOST"),
		CassandraKeyspace:     v.GetString("CASSANDRA_KEYSPACE"),
		CassandraTestKeyspace: v.GetString("CASSANDRA_TEST_KEYSPACE"),
		CassandraUsername:     v.GetString("CASSANDRA_USERNAME"),
		CassandraPassword:     v.GetString("CASSANDRA_PASSWORD"),
		CassandraTimeout:      parseDuration(v.GetString("CASSANDRA_TIMEOUT"), 10*time.Second),
		CassandraDC:           v.GetString("CASSANDRA_DC"),
		EventsEnabled:         v.GetBool("EVENTS_ENABLED"),
		KafkaBroker:           v.GetString("KAFKA_BROKER"),
		KafkaTopic:            v.GetString("KAFKA_TOPIC"),
		KafkaGroupID:          v.GetString("KAFKA_GROUP_ID"),
		KafkaReadTO:           parseDuration(v.GetString("KAFKA_READ_TIMEOUT"), 10*time.Second),
		KafkaWriteTO:          parseDuration(v.GetString("KAFKA_WRITE_TIMEOUT"), 10*time.Second),
	}
}

func parseDuration(s string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

// Get returns the loaded config instance
func Get() *Config {
	return cfg
}

// Store returns the connection settings for normal operation.
func (c *Config) Store() StoreConfig {
	return StoreConfig{
		Driver:            c.StoreDriver,
		URL:               c.DatabaseURL,
		Database:          c.MongoDatabase,
		CassandraHost:     c.CassandraHost,
		CassandraKeyspace: c.CassandraKeyspace,
		CassandraUsername: c.CassandraUsername,
		CassandraPassword: c.CassandraPassword,
		CassandraTimeout:  c.CassandraTimeout,
		CassandraDC:       c.CassandraDC,
	}
}

// TestStore returns the connection settings used by the integration suite.
// It never points at the normal database: the URL and keyspace are the test
// ones, and the driver falls back to the in-memory store when no test
// backend is configured.
func (c *Config) TestStore() StoreConfig {
	sc := c.Store()
	sc.Driver = c.TestStoreDriver
	sc.URL = c.TestDatabaseURL
	sc.CassandraKeyspace = c.CassandraTestKeyspace
	if sc.Driver == "" {
		sc.Driver = "memory"
	}
	return sc
}
