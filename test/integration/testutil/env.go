package testutil

import (
	"os"
	"testing"
)

// TestEnv holds test environment configuration
type TestEnv struct {
	MongoURI string
	DBName   string
}

// LoadTestEnv loads test environment configuration. Tests are skipped when
// TEST_MONGO_URI is unset so the suite only runs against a real instance.
func LoadTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set; skipping integration tests")
	}

	return &TestEnv{
		MongoURI: uri,
		DBName:   getEnv("TEST_DB_NAME", DefaultDatabaseName),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
