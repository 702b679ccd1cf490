package config

const (
	// DefaultProjectPath is the default project path
	DefaultProjectPath = "."
	// DefaultTestPath is the default test path
	DefaultTestPath = "."
	// DefaultRecordDir is the default ledger directory; empty disables recording
	DefaultRecordDir = ""
	// DefaultSessionFile suffixes the session marker kept beside the record directory
	DefaultSessionFile = ".ptr-session.json"
	// DefaultConfigFile is the optional project configuration file
	DefaultConfigFile = ".ptr.yaml"
	// DefaultProcessors is the default number of processors
	DefaultProcessors = 4
	// DefaultLogLevel is the default slog level
	DefaultLogLevel = "info"
	// DefaultDatabasePrefix prefixes per-worker database names
	DefaultDatabasePrefix = "testing"
)

// DefaultPathsToIgnore are the default directories to ignore when scanning for tests
var DefaultPathsToIgnore = []string{
	"vendor",
	"node_modules",
	"public",
	"storage",
	"bootstrap",
	"config",
	"database",
	"resources",
	"routes",
}
