// Package config loads the jfs tool's settings from a YAML file overlaid
// with `JFS_*` environment variables.
package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
	"github.com/weberc2/mono/jfs/pkg/fs"
	"gopkg.in/yaml.v2"
)

const (
	EnvVarPrefix = "JFS"
	appName      = "jfs"
)

type StoreKind string

const (
	StoreKindDir StoreKind = "dir"
	StoreKindS3  StoreKind = "s3"
)

// LogLevel is a logrus level that decodes from its name in both YAML and
// the environment.
type LogLevel log.Level

func (l *LogLevel) Decode(value string) error {
	level, err := log.ParseLevel(value)
	if err != nil {
		return err
	}
	*l = LogLevel(level)
	return nil
}

func (l *LogLevel) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return l.Decode(s)
}

func (l LogLevel) Level() log.Level { return log.Level(l) }

type Config struct {
	Image            string    `envconfig:"JFS_IMAGE"             yaml:"image"`
	LockShards       int       `envconfig:"JFS_LOCK_SHARDS"       yaml:"lockShards"`
	LogLevel         LogLevel  `envconfig:"JFS_LOG_LEVEL"         yaml:"logLevel"`
	SnapshotStore    StoreKind `envconfig:"JFS_SNAPSHOT_STORE"    yaml:"snapshotStore"`
	SnapshotDir      string    `envconfig:"JFS_SNAPSHOT_DIR"      yaml:"snapshotDir"`
	SnapshotBucket   string    `envconfig:"JFS_SNAPSHOT_BUCKET"   yaml:"snapshotBucket"`
	SnapshotPrefix   string    `envconfig:"JFS_SNAPSHOT_PREFIX"   yaml:"snapshotPrefix"`
	SnapshotCompress bool      `envconfig:"JFS_SNAPSHOT_COMPRESS" yaml:"snapshotCompress"`
	AWSRegion        string    `envconfig:"JFS_AWS_REGION"        yaml:"awsRegion"`
}

// Default is the configuration before any file or environment variable is
// applied.
func Default() Config {
	return Config{
		LockShards:       16,
		LogLevel:         LogLevel(log.InfoLevel),
		SnapshotStore:    StoreKindDir,
		SnapshotBucket:   "snapshots",
		SnapshotPrefix:   appName,
		SnapshotCompress: true,
		AWSRegion:        "us-east-1",
	}
}

// DefaultFile is `$HOME/.config/jfs.yaml`.
func DefaultFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".config", appName+".yaml")
}

// Load reads the file named by `JFS_CONFIG_FILE`, or `DefaultFile()`, and
// then applies the environment. A missing file is not an error.
func Load() (*Config, error) {
	configFile := os.Getenv(EnvVarPrefix + "_CONFIG_FILE")
	if configFile == "" {
		configFile = DefaultFile()
	}
	return LoadFile(configFile)
}

func LoadFile(configFile string) (*Config, error) {
	c := Default()
	data, err := ioutil.ReadFile(configFile)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshaling config file: %w", err)
	}

	if err := envconfig.Process(EnvVarPrefix, &c); err != nil {
		return nil, fmt.Errorf("parsing environment variables: %w", err)
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if y, e := func() (string, string) {
		if c.LockShards < 1 {
			return "lockShards", "LOCK_SHARDS"
		}
		switch c.SnapshotStore {
		case StoreKindDir:
			if c.SnapshotDir == "" {
				return "snapshotDir", "SNAPSHOT_DIR"
			}
		case StoreKindS3:
			if c.SnapshotBucket == "" {
				return "snapshotBucket", "SNAPSHOT_BUCKET"
			}
			if c.AWSRegion == "" {
				return "awsRegion", "AWS_REGION"
			}
		default:
			return "snapshotStore", "SNAPSHOT_STORE"
		}
		return "", ""
	}(); y != "" {
		return fmt.Errorf(
			"missing or invalid required configuration: %s / %s_%s",
			y,
			EnvVarPrefix,
			e,
		)
	}
	return nil
}

// ImageOr returns `arg` if set and the configured image otherwise.
func (c *Config) ImageOr(arg string) (string, error) {
	if arg = strings.TrimSpace(arg); arg != "" {
		return arg, nil
	}
	if c.Image == "" {
		return "", fmt.Errorf(
			"no image given and no default configured: image / %s_IMAGE",
			EnvVarPrefix,
		)
	}
	return c.Image, nil
}

// MountOptions are the file system options the configuration selects.
func (c *Config) MountOptions() fs.Options {
	return fs.Options{LockShards: c.LockShards, Logger: log.StandardLogger()}
}
