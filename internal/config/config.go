package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/edakit/internal/utils"
)

// Hive addresses HiveServer2.
type Hive struct {
	Host     string `mapstructure:"host" yaml:"host,omitempty"`
	Port     int    `mapstructure:"port" yaml:"port" validate:"min=1,max=65535"`
	Auth     string `mapstructure:"auth" yaml:"auth,omitempty" validate:"oneof=NONE NOSASL KERBEROS LDAP CUSTOM"`
	Database string `mapstructure:"database" yaml:"database,omitempty"`
	Username string `mapstructure:"username" yaml:"username,omitempty"`
	Password string `mapstructure:"password" yaml:"password,omitempty"`
}

// Hadoop locates the streaming tooling and the HDFS paths of the fires job.
type Hadoop struct {
	Bin          string `mapstructure:"bin" yaml:"bin,omitempty" validate:"required"`
	HDFSBin      string `mapstructure:"hdfs_bin" yaml:"hdfs_bin,omitempty" validate:"required"`
	StreamingJar string `mapstructure:"streaming_jar" yaml:"streaming_jar,omitempty" validate:"required"`
	Input        string `mapstructure:"input" yaml:"input,omitempty"`
	Output       string `mapstructure:"output" yaml:"output,omitempty"`
}

// Global configuration structure.
type Global struct {
	RunsDir   string `mapstructure:"runs_dir" yaml:"runs_dir,omitempty"`
	// DataDir resolves relative dataset paths that do not exist as given.
	DataDir   string `mapstructure:"data_dir" yaml:"data_dir,omitempty"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level,omitempty" validate:"oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format,omitempty" validate:"oneof=text json"`
	SeqURL    string `mapstructure:"seq_url" yaml:"seq_url,omitempty" validate:"omitempty,url"`
	SeqAPIKey string `mapstructure:"seq_api_key" yaml:"seq_api_key,omitempty"`

	// Modeling defaults
	Seed         int64   `mapstructure:"seed" yaml:"seed"`
	TestFraction float64 `mapstructure:"test_fraction" yaml:"test_fraction" validate:"gt=0,lt=1"`
	NEstimators  int     `mapstructure:"n_estimators" yaml:"n_estimators" validate:"min=1"`
	Workers      int     `mapstructure:"workers" yaml:"workers" validate:"min=0"`

	ChartFormat string `mapstructure:"chart_format" yaml:"chart_format,omitempty" validate:"oneof=png svg"`

	Hive   Hive   `mapstructure:"hive" yaml:"hive"`
	Hadoop Hadoop `mapstructure:"hadoop" yaml:"hadoop"`
}

var validate = validator.New()

// Validate checks field constraints after all layers are merged.
func (c *Global) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".edakit"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.edakit/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := defaultDir()
		if err != nil {
			return err
		}
		if err := utils.EnsureDir(dir); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults; flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("EDAKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("data_dir", ".")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("seed", 42)
	v.SetDefault("test_fraction", 0.2)
	v.SetDefault("n_estimators", 100)
	v.SetDefault("workers", 0)
	v.SetDefault("chart_format", "png")
	v.SetDefault("hive.host", "localhost")
	v.SetDefault("hive.port", 10000)
	v.SetDefault("hive.auth", "NONE")
	v.SetDefault("hive.database", "default")
	v.SetDefault("hadoop.bin", "hadoop")
	v.SetDefault("hadoop.hdfs_bin", "hdfs")
	v.SetDefault("hadoop.streaming_jar", "/usr/local/hadoop/share/hadoop/tools/lib/hadoop-streaming.jar")
	v.SetDefault("hadoop.input", "/user/forestfires/forestfires.csv")
	v.SetDefault("hadoop.output", "/user/forestfires/output")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := defaultDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.RunsDir == "" {
		dir, err := defaultDir()
		if err != nil {
			return nil, err
		}
		c.RunsDir = filepath.Join(dir, "runs")
	}
	return &c, nil
}
