package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	trello "github.com/adamgary21/trello-backup"
	log "github.com/sirupsen/logrus"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

// run executes the command line and returns the exit status. Progress, help and errors all go to stdout.
func run(args []string, stdout io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	log.SetOutput(stdout)

	if wantsHelp(args) {
		printHelp(stdout, true)
		return 0
	}
	cmd := newRootCmd(stdout, backup)
	cmd.SetArgs(normalizeArgs(args))
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		exitErr = &ExitError{Code: 1, Err: err}
	}
	if exitErr.Usage {
		_, _ = fmt.Fprintf(stdout, "\nError: Invalid options (%v), please see usage:\n", exitErr.Err)
		printHelp(stdout, false)
	} else {
		log.WithField("cause", exitErr.Err).Error("Backup failed")
	}
	return exitErr.Code
}

func backup(ctx context.Context, stdout io.Writer, opts *options) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return &ExitError{Code: 2, Err: err}
	}
	if err := configureLogger(cfg.Log, stdout); err != nil {
		return &ExitError{Code: 2, Err: err}
	}
	client, err := trello.NewClient(opts.key, opts.token, clientOptions(cfg)...)
	if err != nil {
		return fmt.Errorf("could not create client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			log.WithField("cause", err).Warning("Could not close wire log")
		}
	}()

	report, err := trello.NewBackup(client, trello.Options{
		Name:        opts.name,
		OutputDir:   cfg.OutputDir,
		Attachments: opts.attachments,
		Concurrency: cfg.Concurrency,
	}).Run(ctx)
	if err != nil {
		return err
	}
	if cfg.S3.Enabled() {
		if err := mirror(ctx, *cfg.S3, report); err != nil {
			return err
		}
	}
	return report.Err()
}

func mirror(ctx context.Context, cfg trello.S3Config, report *trello.Report) error {
	m, err := trello.NewMirror(ctx, cfg)
	if err != nil {
		return err
	}
	if err := m.EnsureBucket(ctx); err != nil {
		return err
	}
	n, err := m.Upload(ctx, report)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"run":     report.RunID,
		"bucket":  cfg.Bucket,
		"objects": n,
	}).Info("Mirrored backup")
	return nil
}
