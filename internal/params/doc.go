// Package params parses the key=value inputs of the dwhetl command line.
//
// Two sources are supported:
//   - --set key=value pairs, which override dwh.yaml keys
//     (see ParseKeyValuePairs and config.ProjectConfig.ApplyOverrides)
//   - --env-file files in .env format, whose entries are exported to the
//     process environment before connection and catalog values are resolved
//     (see ParseEnvFile)
//
// # Example Usage
//
//	overrides, err := params.ParseKeyValuePairs([]string{"s3.region=us-east-1"})
//	if err != nil {
//	    return err
//	}
//	if err := projectCfg.ApplyOverrides(overrides); err != nil {
//	    return err
//	}
//
// # Thread Safety
//
// All functions are safe for concurrent use.
package params
