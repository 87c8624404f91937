package params

import (
	"fmt"

	"github.com/joho/godotenv"
)

// ParseEnvFile parses the content of an --env-file.
//
// The format is the one godotenv reads: KEY=VALUE lines, # comments,
// single- or double-quoted values and an optional "export " prefix.
// Keys may contain letters, digits, '_' and '.'.
func ParseEnvFile(content []byte) (map[string]string, error) {
	values, err := godotenv.UnmarshalBytes(content)
	if err != nil {
		return nil, fmt.Errorf("invalid env file: %w", err)
	}
	if _, ok := values[""]; ok {
		return nil, fmt.Errorf("invalid env file: entry without a key (expected KEY=VALUE)")
	}
	return values, nil
}
