package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/orbit/internal/config"
	"github.com/conneroisu/orbit/internal/logging"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "orbit",
	Short: "Compiler front end for markup templates with embedded code",
	Long: `Orbit lexes, parses and compiles markup templates with embedded
code expressions into an intermediate representation that code
generators consume.

Quick Start:
  orbit compile page.orb          Print the IR of a template
  orbit check                     Compile and lint every template
  orbit serve                     Start the live playground`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .orbit.yml, can also use ORBIT_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	bindRootFlags()
}

func bindRootFlags() {
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log-format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig resolves the configuration file, highest priority first:
//  1. --config flag
//  2. ORBIT_CONFIG_FILE environment variable
//  3. .orbit.yml in the current directory
//
// Individual values can be overridden with ORBIT_<SECTION>_<OPTION>
// environment variables, e.g. ORBIT_COMPILER_CAPTURE=false.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("ORBIT_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".orbit")
	}

	viper.SetEnvPrefix("ORBIT")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	// A missing file leaves the defaults in place.
	_ = viper.ReadInConfig()
}

// newLogger builds the CLI logger from --log-level and --log-format.
// Logs go to stderr so command output stays clean.
func newLogger(cmd *cobra.Command) (logging.Logger, error) {
	level, err := logging.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		return nil, err
	}
	return logging.NewLogger(&logging.LoggerConfig{
		Level:     level,
		Format:    viper.GetString("log-format"),
		Output:    cmd.ErrOrStderr(),
		Component: "orbit",
	}), nil
}

// setup loads the configuration and the logger shared by every command.
func setup(cmd *cobra.Command) (*config.Config, logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := newLogger(cmd)
	if err != nil {
		return nil, nil, err
	}
	if used := viper.ConfigFileUsed(); used != "" {
		logger.Debug(cmd.Context(), "Using config file", "path", used)
	}
	return cfg, logger, nil
}

// readSource reads the template named by args, or stdin when args is empty
// or "-". It returns the name to report diagnostics against.
func readSource(cmd *cobra.Command, args []string) (string, string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "", fmt.Errorf("reading stdin: %w", err)
		}
		return "<stdin>", string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", fmt.Errorf("reading template: %w", err)
	}
	return args[0], string(data), nil
}
