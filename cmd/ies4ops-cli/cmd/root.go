package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"ies4ops/internal/application"
	"ies4ops/internal/bootstrap"
	"ies4ops/internal/config"
	"ies4ops/internal/logger"
)

var (
	configPath string
	overrides  config.Overrides

	// root flag form
	addKey     string
	delKey     string
	listFlag   bool
	diagnostic bool

	env *bootstrap.Env
)

var rootCmd = &cobra.Command{
	Use:   "ies4ops-cli",
	Short: "Place catalog equipment into IES4 regional data files",
	Long: `ies4ops-cli adds and removes catalog equipment records in the IES4
JSON data files used by the military database analysis service.

Every mutation writes a timestamped backup first, keeps the type
definitions consistent, and asks the analysis service to reload the
database afterwards. Service problems are reported as warnings.

Examples:
  ies4ops-cli add shahed136 OP7
  ies4ops-cli remove shahed136 --db OP7
  ies4ops-cli --del shahed136 --db OP7
  ies4ops-cli list --all`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE:              runFlagForm,
}

// Execute runs the root command
func Execute() {
	err := rootCmd.Execute()
	if closeErr := closeEnv(); err == nil && closeErr != nil {
		fmt.Fprintln(os.Stderr, "warning:", closeErr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "config file (default $"+config.EnvConfig+" or "+config.DefaultConfigPath()+")")
	pf.StringVar(&overrides.DefaultDatabase, "db", "", "database code (default from config, "+config.DefaultDatabase+")")
	pf.StringVar(&overrides.DataDir, "data-dir", "", "data directory, probed before the built-in candidates")
	pf.StringVar(&overrides.ServiceURL, "service-url", "", "analysis service base URL")
	pf.BoolVar(&overrides.NoService, "no-service", false, "do not contact the analysis service")
	pf.StringVar(&overrides.JournalPath, "journal", "", "operation journal path")
	pf.StringVar(&overrides.LogLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&overrides.LogFormat, "log-format", "", "pretty, text or json")

	f := rootCmd.Flags()
	f.StringVar(&addKey, "add", "", "add or update equipment (same as the add command)")
	f.StringVar(&delKey, "del", "", "remove equipment (same as the remove command)")
	f.BoolVar(&listFlag, "list", false, "list catalog presence (same as the list command)")
	f.BoolVar(&diagnostic, "diagnostic", false, "print data directory and file diagnostics")
	rootCmd.MarkFlagsMutuallyExclusive("add", "del", "list")
}

func setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "help" || cmd.Name() == "completion" {
		return nil
	}

	settings, err := config.Load(configPath)
	if err != nil {
		return err
	}
	settings = settings.With(overrides)

	log := logger.New(logger.Config{
		Writer: cmd.ErrOrStderr(),
		Format: settings.Logging.Format,
		Level:  logger.ParseLevel(settings.Logging.Level),
	})

	env, err = bootstrap.New(settings, log)
	if err != nil {
		return err
	}
	return nil
}

func closeEnv() error {
	if env == nil {
		return nil
	}
	err := env.Close()
	env = nil
	return err
}

// runFlagForm handles --add/--del/--list/--diagnostic on the root command
func runFlagForm(cmd *cobra.Command, args []string) error {
	if addKey == "" && delKey == "" && !listFlag && !diagnostic {
		return cmd.Help()
	}
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %v", args)
	}

	out := cmd.OutOrStdout()
	db := overrides.DefaultDatabase

	if diagnostic {
		if err := runDiagnostic(cmd, out, db); err != nil {
			return err
		}
	}

	switch {
	case addKey != "":
		return runAdd(cmd, out, addKey, db)
	case delKey != "":
		return runRemove(cmd, out, delKey, db)
	case listFlag:
		return runList(cmd, out, db)
	}
	return nil
}

// runner returns the wired runner
func runner() *application.Runner {
	return env.Runner
}

// databaseArg returns args[i] when present, else the --db flag
func databaseArg(args []string, i int) string {
	if len(args) > i {
		return args[i]
	}
	return overrides.DefaultDatabase
}

func printWarnings(w io.Writer, warnings []string) {
	for _, warning := range warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
}

// explain adds the closest catalog keys to an unknown equipment error
func explain(err error, key string) error {
	if !errors.Is(err, application.ErrUnknownEquipment) {
		return err
	}
	if hints := suggestKeys(key); len(hints) > 0 {
		return fmt.Errorf("%w (did you mean %v?)", err, hints)
	}
	return err
}
