package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"ies4ops/internal/adapters/editor"
	"ies4ops/internal/adapters/tui"
	"ies4ops/internal/bootstrap"
	"ies4ops/internal/config"
	"ies4ops/internal/logger"
)

func main() {
	configFlag := flag.String("config", "", "config file (default $"+config.EnvConfig+")")
	dataDirFlag := flag.String("data-dir", "", "data directory")
	dbFlag := flag.String("db", "", "database selected at start")
	noServiceFlag := flag.Bool("no-service", false, "do not contact the analysis service")
	logFileFlag := flag.String("log-file", "", "write logs to this file (the screen is owned by the UI)")
	flag.Parse()

	if err := run(*configFlag, *logFileFlag, config.Overrides{
		DataDir:         *dataDirFlag,
		DefaultDatabase: *dbFlag,
		NoService:       *noServiceFlag,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, logFile string, o config.Overrides) error {
	settings, err := config.Load(configPath)
	if err != nil {
		return err
	}
	settings = settings.With(o)

	lg := logger.Discard()
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		lg = newFileLogger(f, settings)
	}

	env, err := bootstrap.New(settings, lg)
	if err != nil {
		return err
	}
	defer env.Close()

	app := tui.NewApp(env.Runner, editor.NewOpener())

	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func newFileLogger(f *os.File, s config.Settings) *slog.Logger {
	return logger.New(logger.Config{
		Writer:  f,
		Format:  s.Logging.Format,
		Level:   logger.ParseLevel(s.Logging.Level),
		NoColor: true,
	})
}
