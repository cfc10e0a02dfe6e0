package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alnah/adiclip/internal/config"
)

// pathKeys are expanded (~) before being saved.
var pathKeys = map[string]bool{
	config.KeySegments:   true,
	config.KeyLabels:     true,
	config.KeyOutputDir:  true,
	config.KeyVideoDir:   true,
	config.KeyCookies:    true,
	config.KeyFailureLog: true,
	config.KeyLogFile:    true,
	config.KeyYtDlpPath:  true,
	config.KeyFFmpegPath: true,
}

// ConfigCmd creates the config command with subcommands.
// The env parameter provides injectable dependencies for testing.
func ConfigCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage persistent configuration settings.

Configuration is stored in ~/.config/adiclip/config.toml ($XDG_CONFIG_HOME is honored).
Every key can be overridden by an ADICLIP_<KEY> environment variable
(output-dir -> ADICLIP_OUTPUT_DIR) and by the matching flag of "adiclip run".`,
		Example: `  adiclip config set workers 8
  adiclip config set output-dir ~/corpora/adi17/clips
  adiclip config get workers
  adiclip config list`,
	}

	cmd.AddCommand(configSetCmd(env))
	cmd.AddCommand(configGetCmd(env))
	cmd.AddCommand(configListCmd(env))

	return cmd
}

// configSetCmd creates the "config set" subcommand.
func configSetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value in the config file.

The value is validated before it is written.`,
		Example: `  adiclip config set fetch-timeout 45m
  adiclip config set log-format json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(env, args[0], args[1])
		},
	}
}

// configGetCmd creates the "config get" subcommand.
func configGetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Long: `Print the effective value of a key: environment, then config file, then default.`,
		Example: `  adiclip config get output-dir`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(env, args[0])
		},
	}
}

// configListCmd creates the "config list" subcommand.
func configListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration values",
		Long: `List every key with its effective value and where it comes from.`,
		Example: `  adiclip config list`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigList(env)
		},
	}
}

// runConfigSet handles the "config set" command.
func runConfigSet(env *Env, key, value string) error {
	if pathKeys[key] {
		value = config.ExpandPath(value)
	}
	if err := config.Save(key, value); err != nil {
		return err
	}
	fmt.Fprintf(env.Stderr, "Set %s = %s\n", key, value)
	return nil
}

// runConfigGet handles the "config get" command.
func runConfigGet(env *Env, key string) error {
	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		return err
	}
	value, err := cfg.Value(key)
	if err != nil {
		return err
	}
	if value != "" {
		fmt.Fprintln(env.Stdout, value)
	}
	return nil
}

// runConfigList handles the "config list" command.
func runConfigList(env *Env) error {
	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		return err
	}
	fromFile, err := config.List()
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(config.Keys()))
	for _, key := range config.Keys() {
		value, _ := cfg.Value(key)
		rows = append(rows, []string{key, value, source(env, fromFile, key)})
	}
	fmt.Fprintln(env.Stdout, renderTable(
		[]string{"Key", "Value", "Source"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft},
	))
	return nil
}

// source names the layer that set key.
func source(env *Env, fromFile map[string]string, key string) string {
	if env.Getenv(config.EnvName(key)) != "" {
		return "env " + config.EnvName(key)
	}
	if _, ok := fromFile[key]; ok {
		return "file"
	}
	return "default"
}
