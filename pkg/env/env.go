package env

import "os"

// Get reads an environment variable, returning fallback when it is unset or
// empty. Used during logger bootstrap, before envconfig has run.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
