package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/teamline-io/teamline/internal/activity"
	"github.com/teamline-io/teamline/internal/comments"
	"github.com/teamline-io/teamline/internal/config"
	"github.com/teamline-io/teamline/internal/database"
	"github.com/teamline-io/teamline/internal/directory"
	"github.com/teamline-io/teamline/internal/logging"
	"github.com/teamline-io/teamline/internal/meetings"
	"github.com/teamline-io/teamline/internal/notify"
	"github.com/teamline-io/teamline/internal/scanner"
	"github.com/teamline-io/teamline/internal/server"
	"go.uber.org/zap"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "teamline-api",
		Short: "Teamline collaboration backend service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("base-url", defaults.GetString("app.base_url"), "Public base URL used in notification links")
	cmd.PersistentFlags().String("mail-provider", defaults.GetString("mail.provider"), "Mail provider (log, smtp, ses)")
	cmd.PersistentFlags().String("mail-from", defaults.GetString("mail.from"), "Sender address for outgoing mail")
	cmd.PersistentFlags().Bool("scanner-enabled", defaults.GetBool("scanner.enabled"), "Run the daily deadline scanner")
	cmd.PersistentFlags().Int("scanner-hour", defaults.GetInt("scanner.hour"), "Hour of day (0-23) for the deadline scan")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "app.base_url", "base-url")
	bindFlag(cmd, "mail.provider", "mail-provider")
	bindFlag(cmd, "mail.from", "mail-from")
	bindFlag(cmd, "scanner.enabled", "scanner-enabled")
	bindFlag(cmd, "scanner.hour", "scanner-hour")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func newProvider(appConfig config.AppConfig, logger *zap.Logger) (notify.Provider, error) {
	switch strings.ToLower(strings.TrimSpace(appConfig.MailProvider)) {
	case "smtp":
		return notify.NewSMTPProvider(notify.SMTPConfig{
			Host:     appConfig.SMTPHost,
			Port:     appConfig.SMTPPort,
			Username: appConfig.SMTPUsername,
			Password: appConfig.SMTPPassword,
		}), nil
	case "ses":
		return notify.NewSESProvider(appConfig.SESRegion)
	case "log":
		return notify.NewLogProvider(logger), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", appConfig.MailProvider)
	}
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	activityService, err := activity.NewService(activity.ServiceConfig{
		Database: db,
		Clock:    time.Now,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	directoryService, err := directory.NewService(directory.ServiceConfig{
		Database: db,
		Clock:    time.Now,
		Recorder: activityService,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	provider, err := newProvider(appConfig, logger)
	if err != nil {
		return err
	}

	dispatcher, err := notify.NewDispatcher(notify.DispatcherConfig{
		Database:    db,
		Provider:    provider,
		Clock:       time.Now,
		Logger:      logger,
		FromAddress: appConfig.MailFrom,
		FromName:    appConfig.MailFromName,
		SendTimeout: time.Duration(appConfig.SendTimeoutMS) * time.Millisecond,
	})
	if err != nil {
		return err
	}

	commentsService, err := comments.NewService(comments.ServiceConfig{
		Database:  db,
		Clock:     time.Now,
		Logger:    logger,
		Recorder:  activityService,
		Notifier:  dispatcher,
		Directory: directoryService,
		BaseURL:   appConfig.BaseURL,
	})
	if err != nil {
		return err
	}

	meetingsService, err := meetings.NewService(meetings.ServiceConfig{
		Database: db,
		Clock:    time.Now,
		Recorder: activityService,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	deadlineScanner, err := scanner.NewScanner(scanner.ScannerConfig{
		Database:   db,
		Directory:  directoryService,
		Dispatcher: dispatcher,
		Clock:      time.Now,
		Logger:     logger,
		BaseURL:    appConfig.BaseURL,
	})
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		CommentsService: commentsService,
		ActivityService: activityService,
		MeetingsService: meetingsService,
		Dispatcher:      dispatcher,
		Scanner:         deadlineScanner,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var runner *scanner.Runner
	if appConfig.ScannerEnabled {
		runner, err = scanner.NewRunner(scanner.RunnerConfig{
			Scanner: deadlineScanner,
			Hour:    appConfig.ScannerHour,
			Logger:  logger,
		})
		if err != nil {
			return err
		}
		runner.Start(signalCtx)
		defer runner.Stop()
		logger.Info("deadline scanner scheduled", zap.Int("hour", appConfig.ScannerHour))
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
