package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/aliexpress-dz/pricebot/internal/cache/memory"
	"github.com/aliexpress-dz/pricebot/internal/config"
	"github.com/aliexpress-dz/pricebot/internal/logging"
	"github.com/aliexpress-dz/pricebot/internal/provider"
	"github.com/aliexpress-dz/pricebot/internal/repository/sqlite"
	"github.com/aliexpress-dz/pricebot/internal/resolver"
	"github.com/aliexpress-dz/pricebot/internal/service"
	httpTransport "github.com/aliexpress-dz/pricebot/internal/transport/http"
	"github.com/aliexpress-dz/pricebot/internal/transport/telegram"
)

var rootCmd = &cobra.Command{
	Use:   "pricebot",
	Short: "A Telegram bot that prices AliExpress products",
	Long:  "A Telegram bot that resolves AliExpress product links, fetches prices through the affiliate API and replies with a full cost breakdown, plus an admin panel for broadcasts",
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the bot and the admin panel",
	RunE:  runServer,
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Admin account management",
}

var createUserCmd = &cobra.Command{
	Use:   "create-user [USERNAME]",
	Short: "Create an admin panel account",
	Args:  cobra.ExactArgs(1),
	RunE:  runCreateUser,
}

var broadcastCmd = &cobra.Command{
	Use:   "broadcast [MESSAGE]",
	Short: "Send a message to all subscribed users",
	Args:  cobra.ExactArgs(1),
	RunE:  runBroadcast,
}

func init() {
	// Secrets default from the environment so they stay out of shell history.
	rootCmd.PersistentFlags().String("db-path", "pricebot.db", "Database file path")

	serverCmd.Flags().String("bot-token", os.Getenv("TELEGRAM_BOT_TOKEN"), "Telegram bot token (env TELEGRAM_BOT_TOKEN)")
	serverCmd.Flags().String("app-key", os.Getenv("AFFILIATE_APP_KEY"), "Affiliate API app key (env AFFILIATE_APP_KEY)")
	serverCmd.Flags().String("app-secret", os.Getenv("AFFILIATE_APP_SECRET"), "Affiliate API app secret (env AFFILIATE_APP_SECRET)")
	serverCmd.Flags().String("tracking-id", os.Getenv("AFFILIATE_TRACKING_ID"), "Affiliate tracking id (env AFFILIATE_TRACKING_ID)")
	serverCmd.Flags().String("gateway", provider.DefaultGateway, "Affiliate API gateway URL")
	serverCmd.Flags().String("sign-method", "sha256", "API signing method (sha256 or md5)")
	serverCmd.Flags().Duration("provider-timeout", 15*time.Second, "Affiliate API request timeout")
	serverCmd.Flags().Duration("cache-ttl", 5*time.Minute, "Product cache TTL")
	serverCmd.Flags().Duration("min-interval", 1200*time.Millisecond, "Minimum spacing between affiliate API calls")
	serverCmd.Flags().String("currency", "USD", "Target currency for prices")
	serverCmd.Flags().String("language", "en", "Target language for product data")
	serverCmd.Flags().String("country", "DZ", "Ship-to country code")
	serverCmd.Flags().Int("broadcast-batch-size", 30, "Broadcast batch size")
	serverCmd.Flags().Duration("broadcast-batch-delay", 1200*time.Millisecond, "Delay between broadcast batches")
	serverCmd.Flags().StringP("admin-port", "p", "8080", "Admin panel port")
	serverCmd.Flags().String("admin-user", os.Getenv("ADMIN_USERNAME"), "Admin account to seed on first start (env ADMIN_USERNAME)")
	serverCmd.Flags().String("admin-password", os.Getenv("ADMIN_PASSWORD"), "Password for the seeded admin account (env ADMIN_PASSWORD)")
	serverCmd.Flags().String("log-level", "info", "Log level (debug, info, warn, error)")
	serverCmd.Flags().String("log-format", "json", "Log format (json, console)")

	createUserCmd.Flags().String("password", os.Getenv("ADMIN_PASSWORD"), "Password for the new account (env ADMIN_PASSWORD)")

	broadcastCmd.Flags().String("bot-token", os.Getenv("TELEGRAM_BOT_TOKEN"), "Telegram bot token (env TELEGRAM_BOT_TOKEN)")
	broadcastCmd.Flags().Int("batch-size", 30, "Broadcast batch size")
	broadcastCmd.Flags().Duration("batch-delay", 1200*time.Millisecond, "Delay between broadcast batches")

	adminCmd.AddCommand(createUserCmd)
	rootCmd.AddCommand(serverCmd, adminCmd, broadcastCmd)
}

func loadServerConfig(cmd *cobra.Command) (*config.Config, error) {
	dbPath, _ := cmd.Flags().GetString("db-path")
	botToken, _ := cmd.Flags().GetString("bot-token")
	appKey, _ := cmd.Flags().GetString("app-key")
	appSecret, _ := cmd.Flags().GetString("app-secret")
	trackingID, _ := cmd.Flags().GetString("tracking-id")
	gateway, _ := cmd.Flags().GetString("gateway")
	signMethod, _ := cmd.Flags().GetString("sign-method")
	providerTimeout, _ := cmd.Flags().GetDuration("provider-timeout")
	cacheTTL, _ := cmd.Flags().GetDuration("cache-ttl")
	minInterval, _ := cmd.Flags().GetDuration("min-interval")
	currency, _ := cmd.Flags().GetString("currency")
	language, _ := cmd.Flags().GetString("language")
	country, _ := cmd.Flags().GetString("country")
	batchSize, _ := cmd.Flags().GetInt("broadcast-batch-size")
	batchDelay, _ := cmd.Flags().GetDuration("broadcast-batch-delay")
	adminPort, _ := cmd.Flags().GetString("admin-port")
	adminUser, _ := cmd.Flags().GetString("admin-user")
	adminPassword, _ := cmd.Flags().GetString("admin-password")
	logLevel, _ := cmd.Flags().GetString("log-level")
	logFormat, _ := cmd.Flags().GetString("log-format")

	cfg := &config.Config{
		Bot: config.BotConfig{Token: botToken},
		Admin: config.AdminConfig{
			Port:            adminPort,
			DefaultUsername: adminUser,
			DefaultPassword: adminPassword,
		},
		Database: config.DatabaseConfig{Path: dbPath},
		Provider: config.ProviderConfig{
			AppKey:      appKey,
			AppSecret:   appSecret,
			TrackingID:  trackingID,
			Gateway:     gateway,
			SignMethod:  signMethod,
			Timeout:     providerTimeout,
			CacheTTL:    cacheTTL,
			MinInterval: minInterval,
		},
		Locale: config.LocaleConfig{
			Currency: currency,
			Language: language,
			Country:  country,
		},
		Broadcast: config.BroadcastConfig{
			BatchSize:  batchSize,
			BatchDelay: batchDelay,
		},
		Logging: config.LoggingConfig{
			Level:  logLevel,
			Format: logFormat,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadServerConfig(cmd)
	if err != nil {
		return err
	}

	if err := logging.Initialize(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format}); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()
	logger := logging.Logger

	repo, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("failed to close repository", zap.Error(err))
		}
	}()

	if err := seedDefaultAdmin(cmd.Context(), repo, cfg, logger); err != nil {
		return err
	}

	// Assemble the pipeline.
	productCache := memory.New(cfg.Provider.CacheTTL)
	limiter := provider.NewLimiter(cfg.Provider.MinInterval)
	fetcher := provider.New(provider.Config{
		Gateway:    cfg.Provider.Gateway,
		AppKey:     cfg.Provider.AppKey,
		AppSecret:  cfg.Provider.AppSecret,
		TrackingID: cfg.Provider.TrackingID,
		SignMethod: provider.SignMethod(cfg.Provider.SignMethod),
		Timeout:    cfg.Provider.Timeout,
	}, productCache, limiter, logger)

	linkResolver := resolver.New(logger)
	botClient := telegram.NewClient(cfg.Bot.Token)

	analyzer := service.NewAnalyzer(linkResolver, fetcher, botClient, repo, logger, service.AnalyzerConfig{
		Currency:    cfg.Locale.Currency,
		Language:    cfg.Locale.Language,
		Country:     cfg.Locale.Country,
		AffiliateID: cfg.Provider.TrackingID,
	})
	broadcaster := service.NewBroadcaster(repo, botClient, logger, service.BroadcasterConfig{
		BatchSize:  cfg.Broadcast.BatchSize,
		BatchDelay: cfg.Broadcast.BatchDelay,
	})

	poller := telegram.NewPoller(botClient, analyzer, logger)
	adminServer := httpTransport.NewServer(repo, repo, broadcaster, cfg.Admin.Port, logger)

	// Run both loops and shut down on the first signal or fatal error.
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 2)
	go func() {
		errChan <- adminServer.Start()
	}()
	go func() {
		errChan <- poller.Run(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil && ctx.Err() == nil {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-sigChan:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shut down admin panel", zap.Error(err))
	}

	logger.Info("stopped")
	return nil
}

func seedDefaultAdmin(ctx context.Context, repo *sqlite.Repository, cfg *config.Config, logger *zap.Logger) error {
	if cfg.Admin.DefaultUsername == "" || cfg.Admin.DefaultPassword == "" {
		return nil
	}

	existing, err := repo.FindAdmin(ctx, cfg.Admin.DefaultUsername)
	if err != nil {
		return fmt.Errorf("failed to look up admin account: %w", err)
	}
	if existing != nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Admin.DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	if _, err := repo.CreateAdmin(ctx, cfg.Admin.DefaultUsername, string(hash)); err != nil {
		return fmt.Errorf("failed to seed admin account: %w", err)
	}

	logger.Info("seeded admin account", zap.String("username", cfg.Admin.DefaultUsername))
	return nil
}

func runCreateUser(cmd *cobra.Command, args []string) error {
	username := args[0]
	password, _ := cmd.Flags().GetString("password")
	dbPath, _ := cmd.Flags().GetString("db-path")

	if password == "" {
		return fmt.Errorf("password is required (flag --password or env ADMIN_PASSWORD)")
	}

	repo, err := sqlite.New(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer repo.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	admin, err := repo.CreateAdmin(ctx, username, string(hash))
	if err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}

	fmt.Printf("Created admin account %q (id %d)\n", admin.Username, admin.ID)
	return nil
}

func runBroadcast(cmd *cobra.Command, args []string) error {
	text := args[0]
	dbPath, _ := cmd.Flags().GetString("db-path")
	botToken, _ := cmd.Flags().GetString("bot-token")
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	batchDelay, _ := cmd.Flags().GetDuration("batch-delay")

	if botToken == "" {
		return fmt.Errorf("bot token is required (flag --bot-token or env TELEGRAM_BOT_TOKEN)")
	}

	logging.InitializeDefault()
	defer logging.Sync()

	repo, err := sqlite.New(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer repo.Close()

	broadcaster := service.NewBroadcaster(repo, telegram.NewClient(botToken), logging.Logger, service.BroadcasterConfig{
		BatchSize:  batchSize,
		BatchDelay: batchDelay,
	})

	report, err := broadcaster.Broadcast(cmd.Context(), text)
	if err != nil {
		return fmt.Errorf("broadcast failed: %w", err)
	}

	fmt.Printf("Broadcast sent to %d of %d subscribers (%d failed)\n", report.Sent, report.Total, report.Failed)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
