package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/Dosada05/bracket-role-sync/config"
	"github.com/Dosada05/bracket-role-sync/repositories"
	"github.com/Dosada05/bracket-role-sync/services"
	"github.com/Dosada05/bracket-role-sync/storage"
)

const reportUploadTimeout = 30 * time.Second

func main() {
	app := &cli.App{
		Name:      "bracket-role-sync",
		Usage:     "sync chat server roles and nicknames with tournament registrations",
		ArgsUsage: "<tournament-slug>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "role mapping file (YAML or JSON); overrides ROLE_SYNC_CONFIG",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "file with credentials; defaults to .env when present",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "log intended changes without applying them",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error; overrides LOG_LEVEL",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("sync failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one tournament slug, got %d arguments", c.NArg())
	}
	slug := c.Args().First()

	cfg, err := config.Load(c.String("env-file"))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if v := c.String("log-level"); v != "" {
		if cfg.LogLevel, err = config.ParseLogLevel(v); err != nil {
			return err
		}
	}
	if v := c.String("config"); v != "" {
		cfg.RolesFile = v
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	roleCfg, err := config.LoadRoles(cfg.RolesFile)
	if err != nil {
		return err
	}
	logger.Info("configuration loaded",
		slog.String("roles_file", cfg.RolesFile),
		slog.String("server_id", roleCfg.ServerID),
		slog.Int("temporary_roles", len(roleCfg.TemporaryRoles)),
		slog.Int("permanent_roles", len(roleCfg.PermanentRoles)))

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	directory := repositories.NewStartGGTournamentDirectory(repositories.StartGGConfig{
		Endpoint:   cfg.StartGGAPIURL,
		Token:      cfg.StartGGToken,
		HTTPClient: &http.Client{},
	}, logger)

	discord := repositories.NewDiscordRosterStore(repositories.DiscordConfig{
		BaseURL:           cfg.DiscordAPIURL,
		Token:             cfg.DiscordToken,
		ServerID:          roleCfg.ServerID,
		RequestsPerSecond: cfg.DiscordRPS,
	}, logger)
	defer discord.Close()

	var roster repositories.RosterStore = discord
	dryRun := c.Bool("dry-run")
	if dryRun {
		roster = repositories.NewDryRunRosterStore(discord, logger)
		logger.Info("dry run enabled, no changes will be applied")
	}

	syncService := services.NewSyncService(directory, roster, logger, dryRun)
	report, err := syncService.Run(ctx, slug, services.ManagedRoles{
		Temporary: roleCfg.TemporaryRoles,
		Permanent: roleCfg.PermanentRoles,
	})
	if err != nil {
		return describeFatal(err)
	}
	logger.Info("sync complete", report.LogAttrs()...)

	if cfg.R2.Enabled() {
		if err := archiveReport(ctx, cfg.R2, slug, report, logger); err != nil {
			logger.Error("failed to archive report", slog.Any("error", err))
		}
	}
	return nil
}

func archiveReport(ctx context.Context, r2 config.R2Config, slug string, report *services.SyncReport, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, reportUploadTimeout)
	defer cancel()

	uploader, err := storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2UploaderConfig{
		AccountID:       r2.AccountID,
		AccessKeyID:     r2.AccessKeyID,
		SecretAccessKey: r2.SecretAccessKey,
		BucketName:      r2.BucketName,
		PublicBaseURL:   r2.PublicBaseURL,
	})
	if err != nil {
		return err
	}

	res, err := storage.NewReportArchive(uploader).Save(ctx, slug, report.FinishedAt, report)
	if err != nil {
		return err
	}
	logger.Info("report archived", slog.String("key", res.Key), slog.String("url", res.Location))
	return nil
}

// describeFatal добавляет к фатальным ошибкам подсказку для оператора.
func describeFatal(err error) error {
	switch {
	case errors.Is(err, repositories.ErrServerNotFound):
		return fmt.Errorf("%w (check server_id and that the bot has joined the server)", err)
	case errors.Is(err, services.ErrNoManagedRoles):
		return fmt.Errorf("%w (check the role ids in the role mapping file)", err)
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return fmt.Errorf("%w (check the tournament slug)", err)
	}
	return err
}
