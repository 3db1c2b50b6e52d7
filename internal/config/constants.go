package config

// Default paths for databases
const (
	// DefaultDatabasePath is the default path for the main library database
	DefaultDatabasePath = "./library.db"

	// DefaultGeminiModel is the model used when GEMINI_MODEL is unset
	DefaultGeminiModel = "gemini-1.5-flash"

	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
)

type DatabaseDriver string

const (
	DriverSQLite   DatabaseDriver = "sqlite"
	DriverPostgres DatabaseDriver = "postgres"
)
