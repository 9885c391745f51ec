package config // package config loads application configuration from environment variables

import (
	"fmt"
	"net"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/iliyamo/eventcat/internal/model"
)

const defaultPort = 8000

// Config holds all runtime configuration values of the API service.  Each
// field corresponds to an environment variable; a .env file in the working
// directory is read first when present.
type Config struct {
	Env      string `envconfig:"APP_ENV" default:"dev"`         // application environment (dev/prod)
	Host     string `envconfig:"APP_HOST" default:"127.0.0.1"`  // interface to bind
	Port     string `envconfig:"APP_PORT" default:"8000"`       // port to bind, see ListenPort
	LogLevel string `envconfig:"APP_LOG_LEVEL" default:"info"`  // debug|info|warn|error

	Snapshot SnapshotConfig
	Search   SearchConfig
	Queue    QueueConfig
}

// SnapshotConfig selects where the initial table is read from.  File wins
// over a SQL source; with neither the service starts empty.
type SnapshotConfig struct {
	File   string `envconfig:"SNAPSHOT_FILE"`                 // JSON array of events
	Driver string `envconfig:"SNAPSHOT_DRIVER"`               // mysql | sqlite3
	DSN    string `envconfig:"SNAPSHOT_DSN"`                  // driver specific DSN
	Table  string `envconfig:"SNAPSHOT_TABLE" default:"events"` // table holding the rows
}

// SearchConfig carries the default date window applied to searches that do
// not supply date_start / date_end.  Empty values disable the default.
type SearchConfig struct {
	DefaultDateStart string `envconfig:"SEARCH_DEFAULT_DATE_START"`
	DefaultDateEnd   string `envconfig:"SEARCH_DEFAULT_DATE_END"`
}

// QueueConfig configures change notifications over RabbitMQ.  An empty URL
// disables publishing.
type QueueConfig struct {
	URL             string `envconfig:"RABBITMQ_URL"`
	Queue           string `envconfig:"EVENTS_QUEUE" default:"events.changed"`
	ConsumerEnabled bool   `envconfig:"AUDIT_CONSUMER_ENABLED" default:"false"`
	AuditLogPath    string `envconfig:"AUDIT_LOG_PATH" default:"logs/events.log"`
}

// Load reads .env (if any) and the process environment into a Config.
func Load() (Config, error) {
	_ = godotenv.Load(".env")

	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	// variables set to an empty string bypass envconfig defaults
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Snapshot.Table == "" {
		c.Snapshot.Table = "events"
	}
	if c.Queue.Queue == "" {
		c.Queue.Queue = "events.changed"
	}
	if _, _, err := c.SearchWindow(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// ListenPort parses APP_PORT, falling back to 8000 when it is not a valid
// port number.
func (c Config) ListenPort() int {
	n, err := strconv.Atoi(c.Port)
	if err != nil || n <= 0 || n > 65535 {
		return defaultPort
	}
	return n
}

// Addr is the host:port the HTTP server listens on.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.ListenPort()))
}

// SearchWindow parses the default search bounds.  Nil means no default.
func (c Config) SearchWindow() (start, end *model.Timestamp, err error) {
	if c.Search.DefaultDateStart != "" {
		ts, perr := model.ParseTimestamp(c.Search.DefaultDateStart)
		if perr != nil {
			return nil, nil, fmt.Errorf("SEARCH_DEFAULT_DATE_START: %w", perr)
		}
		start = &ts
	}
	if c.Search.DefaultDateEnd != "" {
		ts, perr := model.ParseTimestamp(c.Search.DefaultDateEnd)
		if perr != nil {
			return nil, nil, fmt.Errorf("SEARCH_DEFAULT_DATE_END: %w", perr)
		}
		end = &ts
	}
	return start, end, nil
}
