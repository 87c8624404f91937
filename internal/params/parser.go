package params

import (
	"fmt"
	"strings"
)

// ParseKeyValuePairs converts a slice of "key=value" strings into a map.
// Only the first '=' separates key from value, so values may contain '='.
//
// Example:
//
//	overrides, err := ParseKeyValuePairs([]string{"cluster.host=dwh.local", "s3.region=us-east-1"})
//	// Returns: map[string]string{"cluster.host": "dwh.local", "s3.region": "us-east-1"}
func ParseKeyValuePairs(pairs []string) (map[string]string, error) {
	result := make(map[string]string, len(pairs))

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("parameter %q is not in key=value format (example: --set s3.region=us-west-2)", pair)
		}

		if key == "" {
			return nil, fmt.Errorf("parameter has empty key: %q", pair)
		}

		result[key] = value
	}

	return result, nil
}
