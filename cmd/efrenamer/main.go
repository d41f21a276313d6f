package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"efrenamer/internal/config"
	"efrenamer/internal/runapp"

	"github.com/spf13/pflag"
	"golang.org/x/term"
)

var (
	// Version is set at build time via -ldflags "-X main.Version=...".
	Version = "dev"
	Commit  = "none"
)

const shutdownTimeout = 10 * time.Second

func main() {
	waitExit, err := run(pflag.CommandLine, os.Args[1:], os.Stdout, os.Stderr)
	if err != nil {
		slog.Error("run failed", slog.String("error", err.Error()))
	}
	if waitExit {
		waitForEnter()
	}
	if err != nil {
		os.Exit(1)
	}
}

// run loads configuration from args on fs and performs one rename run.
// Version output goes to stdout, logs and usage go to stderr.
func run(fs *pflag.FlagSet, args []string, stdout, stderr io.Writer) (waitExit bool, err error) {
	fs.Bool("version", false, "Print version and exit")

	cfg, err := config.LoadFrom(fs, args)
	if err != nil {
		return false, fmt.Errorf("failed to load configuration: %w", err)
	}
	waitExit = cfg.WaitExit

	if showVersion, _ := fs.GetBool("version"); showVersion {
		fmt.Fprintf(stdout, "efrenamer %s (%s)\n", Version, Commit)
		return false, nil
	}

	if cfg.Observability.ServiceVersion == "" {
		cfg.Observability.ServiceVersion = Version
	}

	validationResult := cfg.Validate()
	for _, warn := range validationResult.Warnings {
		slog.Warn("configuration warning",
			slog.String("field", warn.Field),
			slog.String("message", warn.Message),
			slog.String("hint", warn.Hint),
		)
	}
	if validationResult.HasErrors() {
		for _, err := range validationResult.Errors {
			slog.Error("configuration error",
				slog.String("field", err.Field),
				slog.String("message", err.Message),
				slog.String("hint", err.Hint),
			)
		}
		fmt.Fprintf(stderr, "Usage: efrenamer [flags] [model.edmx]\n%s", fs.FlagUsages())
		return waitExit, fmt.Errorf("configuration validation failed")
	}

	logger, loggerProvider, err := runapp.InitLogger(cfg, stderr)
	if err != nil {
		return waitExit, fmt.Errorf("failed to initialize logging: %w", err)
	}

	app, err := runapp.New(cfg, logger)
	if err != nil {
		if loggerProvider != nil {
			_ = loggerProvider.Shutdown(context.Background(), logger.Logger)
		}
		return waitExit, err
	}
	app.AttachLoggerProvider(loggerProvider)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Init(ctx); err != nil {
		return waitExit, err
	}

	_, runErr := app.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	shutdownErr := app.Shutdown(shutdownCtx)
	cancel()

	if runErr != nil {
		return waitExit, runErr
	}
	return waitExit, shutdownErr
}

// waitForEnter keeps a console window open until the user presses Enter.
// It does nothing when stdin is not a terminal.
func waitForEnter() {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return
	}
	fmt.Fprint(os.Stderr, "Press Enter to exit...")
	_, _ = bufio.NewReader(os.Stdin).ReadString('\n')
}
