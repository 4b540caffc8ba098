package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/edakit/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set edakit configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No config loaded")
			return nil
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "runs_dir: %s\n", cfg.RunsDir)
		fmt.Fprintf(w, "data_dir: %s\n", cfg.DataDir)
		fmt.Fprintf(w, "log_level: %s\n", cfg.LogLevel)
		fmt.Fprintf(w, "log_format: %s\n", cfg.LogFormat)
		if cfg.SeqURL != "" {
			fmt.Fprintf(w, "seq_url: %s\n", cfg.SeqURL)
			fmt.Fprintf(w, "seq_api_key: %s\n", mask(cfg.SeqAPIKey))
		}
		fmt.Fprintf(w, "seed: %d\n", cfg.Seed)
		fmt.Fprintf(w, "test_fraction: %.3f\n", cfg.TestFraction)
		fmt.Fprintf(w, "n_estimators: %d\n", cfg.NEstimators)
		fmt.Fprintf(w, "workers: %d\n", cfg.Workers)
		fmt.Fprintf(w, "chart_format: %s\n", cfg.ChartFormat)
		fmt.Fprintf(w, "hive: %s:%d/%s (auth %s)\n", cfg.Hive.Host, cfg.Hive.Port, cfg.Hive.Database, cfg.Hive.Auth)
		if cfg.Hive.Username != "" {
			fmt.Fprintf(w, "hive.username: %s\n", cfg.Hive.Username)
			fmt.Fprintf(w, "hive.password: %s\n", mask(cfg.Hive.Password))
		}
		fmt.Fprintf(w, "hadoop.bin: %s\n", cfg.Hadoop.Bin)
		fmt.Fprintf(w, "hadoop.hdfs_bin: %s\n", cfg.Hadoop.HDFSBin)
		fmt.Fprintf(w, "hadoop.streaming_jar: %s\n", cfg.Hadoop.StreamingJar)
		fmt.Fprintf(w, "hadoop.input: %s\n", cfg.Hadoop.Input)
		fmt.Fprintf(w, "hadoop.output: %s\n", cfg.Hadoop.Output)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := currentConfig()
		if err != nil {
			return err
		}
		if err := setConfigValue(c, key, val); err != nil {
			return err
		}
		if err := c.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func setConfigValue(c *cfgpkg.Global, key, val string) error {
	atoi := func() (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return 0, fmt.Errorf("invalid int for %s: %v", key, val)
		}
		return i, nil
	}
	var err error
	switch key {
	case "runs_dir":
		c.RunsDir = val
	case "data_dir":
		c.DataDir = val
	case "log_level":
		c.LogLevel = val
	case "log_format":
		c.LogFormat = val
	case "seq_url":
		c.SeqURL = val
	case "seq_api_key":
		c.SeqAPIKey = val
	case "seed":
		s, perr := strconv.ParseInt(val, 10, 64)
		if perr != nil {
			return fmt.Errorf("invalid int for seed: %w", perr)
		}
		c.Seed = s
	case "test_fraction":
		f, perr := strconv.ParseFloat(val, 64)
		if perr != nil {
			return fmt.Errorf("invalid float for test_fraction: %w", perr)
		}
		c.TestFraction = f
	case "n_estimators":
		c.NEstimators, err = atoi()
	case "workers":
		c.Workers, err = atoi()
	case "chart_format":
		c.ChartFormat = val
	case "hive.host":
		c.Hive.Host = val
	case "hive.port":
		c.Hive.Port, err = atoi()
	case "hive.auth":
		c.Hive.Auth = val
	case "hive.database":
		c.Hive.Database = val
	case "hive.username":
		c.Hive.Username = val
	case "hive.password":
		c.Hive.Password = val
	case "hadoop.bin":
		c.Hadoop.Bin = val
	case "hadoop.hdfs_bin":
		c.Hadoop.HDFSBin = val
	case "hadoop.streaming_jar":
		c.Hadoop.StreamingJar = val
	case "hadoop.input":
		c.Hadoop.Input = val
	case "hadoop.output":
		c.Hadoop.Output = val
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return err
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
