package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sparkify-data/dwhetl/pkg/dwhetl"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// ClusterConfig is the warehouse connection section.
type ClusterConfig struct {
	Host              string `yaml:"host"`
	Port              int    `yaml:"port"`
	Database          string `yaml:"database"`
	Username          string `yaml:"username"`
	Password          string `yaml:"password,omitempty"`
	SSLMode           string `yaml:"sslmode,omitempty"`
	AuthMethod        string `yaml:"auth_method,omitempty"` // "password" (default) or "iam"
	ClusterIdentifier string `yaml:"cluster_identifier,omitempty"`
	AWSRegion         string `yaml:"aws_region,omitempty"`
}

// IAMRoleConfig names the role the warehouse assumes to read object storage.
type IAMRoleConfig struct {
	ARN string `yaml:"arn"`
}

// S3Config holds the bulk-load sources.
type S3Config struct {
	LogData     string `yaml:"log_data"`
	LogJSONPath string `yaml:"log_jsonpath"`
	SongData    string `yaml:"song_data"`
	Region      string `yaml:"region,omitempty"`
}

// ProjectConfig is the content of dwh.yaml.
type ProjectConfig struct {
	Cluster          ClusterConfig `yaml:"cluster"`
	IAMRole          IAMRoleConfig `yaml:"iam_role"`
	S3               S3Config      `yaml:"s3"`
	Dialect          string        `yaml:"dialect,omitempty"`
	Driver           string        `yaml:"driver,omitempty"`
	Timeout          string        `yaml:"timeout,omitempty"`
	StatementTimeout string        `yaml:"statement_timeout,omitempty"`
	ResetSchema      bool          `yaml:"reset_schema,omitempty"`
}

// ConfigFileName is the file Load looks for in the project directory.
const ConfigFileName = dwhetl.ConfigFileName

// Load reads dwh.yaml from dir.
func Load(dir string) (*ProjectConfig, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads a project configuration file from an explicit path.
func LoadFile(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return &cfg, nil
}

// setters maps dotted keys accepted by --set to the field they assign.
var setters = map[string]func(c *ProjectConfig, v string) error{
	"cluster.host":               func(c *ProjectConfig, v string) error { c.Cluster.Host = v; return nil },
	"cluster.port":               setPort,
	"cluster.database":           func(c *ProjectConfig, v string) error { c.Cluster.Database = v; return nil },
	"cluster.username":           func(c *ProjectConfig, v string) error { c.Cluster.Username = v; return nil },
	"cluster.password":           func(c *ProjectConfig, v string) error { c.Cluster.Password = v; return nil },
	"cluster.sslmode":            func(c *ProjectConfig, v string) error { c.Cluster.SSLMode = v; return nil },
	"cluster.auth_method":        func(c *ProjectConfig, v string) error { c.Cluster.AuthMethod = v; return nil },
	"cluster.cluster_identifier": func(c *ProjectConfig, v string) error { c.Cluster.ClusterIdentifier = v; return nil },
	"cluster.aws_region":         func(c *ProjectConfig, v string) error { c.Cluster.AWSRegion = v; return nil },
	"iam_role.arn":               func(c *ProjectConfig, v string) error { c.IAMRole.ARN = v; return nil },
	"s3.log_data":                func(c *ProjectConfig, v string) error { c.S3.LogData = v; return nil },
	"s3.log_jsonpath":            func(c *ProjectConfig, v string) error { c.S3.LogJSONPath = v; return nil },
	"s3.song_data":               func(c *ProjectConfig, v string) error { c.S3.SongData = v; return nil },
	"s3.region":                  func(c *ProjectConfig, v string) error { c.S3.Region = v; return nil },
	"dialect":                    func(c *ProjectConfig, v string) error { c.Dialect = v; return nil },
	"driver":                     func(c *ProjectConfig, v string) error { c.Driver = v; return nil },
	"timeout":                    func(c *ProjectConfig, v string) error { c.Timeout = v; return nil },
	"statement_timeout":          func(c *ProjectConfig, v string) error { c.StatementTimeout = v; return nil },
	"reset_schema":               setResetSchema,
}

func setPort(c *ProjectConfig, v string) error {
	port, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("must be an integer, got %q", v)
	}
	c.Cluster.Port = port
	return nil
}

func setResetSchema(c *ProjectConfig, v string) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("must be a boolean, got %q", v)
	}
	c.ResetSchema = b
	return nil
}

// Keys returns the dotted keys accepted by Set, sorted.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set assigns one dotted key, e.g. "s3.log_data". Keys are case-insensitive.
func (c *ProjectConfig) Set(key, value string) error {
	set, ok := setters[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return &dwhetl.ConfigurationError{Field: key, Reason: "unknown key (valid: " + strings.Join(Keys(), ", ") + ")"}
	}
	if err := set(c, value); err != nil {
		return &dwhetl.ConfigurationError{Field: key, Reason: err.Error()}
	}
	return nil
}

// ApplyOverrides assigns every key of overrides in sorted key order.
func (c *ProjectConfig) ApplyOverrides(overrides map[string]string) error {
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, k := range keys {
		if err := c.Set(k, overrides[k]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
