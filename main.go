package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/go-co-op/gocron/v2"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm/logger"

	"github.com/rpupo63/team-portfolio-backend/api"
	"github.com/rpupo63/team-portfolio-backend/config"
	"github.com/rpupo63/team-portfolio-backend/database"
	"github.com/rpupo63/team-portfolio-backend/services"
)

func main() {
	fmt.Println("Initializing app...")

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: Error loading .env file: %v\n", err)
	}

	if err := run(); err != nil {
		log.Error().Err(err).Msg("exiting")
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := config.New()
	setupLogger(c)

	var awsCfg *aws.Config
	if needsAWS(c) {
		cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(config.GetString(c, "AWS_REGION", "us-east-1")))
		if err != nil {
			return fmt.Errorf("load aws config: %w", err)
		}
		awsCfg = &cfg
	}

	if path := config.GetString(c, "SSM_PARAMETER_PATH", ""); path != "" && awsCfg != nil {
		loaded, err := config.OverlaySSM(ctx, ssm.NewFromConfig(*awsCfg), path, c)
		if err != nil {
			return fmt.Errorf("load ssm parameters: %w", err)
		}
		log.Info().Int("parameters", loaded).Str("path", path).Msg("configuration loaded from SSM")
		// Overlay may have changed the log settings.
		setupLogger(c)
	}

	db, err := database.Open(database.Options{
		DSN:             config.GetString(c, "DATABASE_URL", ""),
		ReplicaDSN:      config.GetString(c, "DATABASE_REPLICA_URL", ""),
		MaxOpenConns:    config.GetInt(c, "DB_MAX_OPEN_CONNS", 20),
		MaxIdleConns:    config.GetInt(c, "DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: config.GetDuration(c, "DB_CONN_MAX_LIFETIME", 30*time.Minute),
		Logger: logger.New(
			stdlog.New(os.Stdout, "\r\n", stdlog.LstdFlags),
			logger.Config{
				SlowThreshold:             time.Duration(config.GetInt(c, "DB_SLOW_QUERY_MS", 2000)) * time.Millisecond,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  config.GetString(c, "LOG_FORMAT", "console") != "json",
			},
		),
	})
	if err != nil {
		return err
	}
	currentDB := database.New(db)
	defer currentDB.Close()

	if err := currentDB.Ping(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	if config.GetBool(c, "RUN_MIGRATIONS", false) {
		if err := database.Migrate(db); err != nil {
			return err
		}
	}

	verifier, err := api.NewTokenVerifier(
		config.GetString(c, "JWT_SECRET", ""),
		config.GetString(c, "JWT_ISSUER", ""),
		config.GetString(c, "JWT_AUDIENCE", ""),
	)
	if err != nil {
		return err
	}

	deps := api.Dependencies{
		Skills:   currentDB.SkillRepo(),
		Users:    currentDB.UserRepo(),
		Verifier: verifier,
		Ping:     currentDB.Ping,
	}

	var managerOpts []services.ManagerOption
	managerOpts = append(managerOpts, services.WithNotifyTimeout(config.GetDuration(c, "NOTIFY_TIMEOUT", 10*time.Second)))

	if bucket := config.GetString(c, "S3_BUCKET", ""); bucket != "" && awsCfg != nil {
		store := services.NewS3BlobStore(newS3Client(*awsCfg, c), bucket, config.GetString(c, "S3_PUBLIC_BASE_URL", ""))
		cleaner, err := services.NewBlobCleaner(store, config.GetInt(c, "BLOB_CLEANUP_WORKERS", 4), 30*time.Second)
		if err != nil {
			return fmt.Errorf("start blob cleaner: %w", err)
		}
		defer func() {
			if err := cleaner.Close(10 * time.Second); err != nil {
				log.Warn().Err(err).Msg("blob cleaner did not drain")
			}
		}()
		deps.BlobStore = store
		deps.BlobRemover = cleaner
		managerOpts = append(managerOpts, services.WithBlobRemover(cleaner))
	} else {
		log.Warn().Msg("S3_BUCKET not set, file uploads are disabled")
	}

	manager := services.NewProjectManager(currentDB.ProjectRepo(), currentDB.UserRepo(), newNotifier(c), managerOpts...)
	deps.Projects = manager

	if config.GetBool(c, "DIGEST_ENABLED", false) {
		scheduler, err := services.StartPendingDigest(manager, config.GetString(c, "DIGEST_CRON", services.DefaultDigestCron), time.Minute)
		if err != nil {
			return err
		}
		defer shutdownScheduler(scheduler)
	}

	server, err := api.NewServer(deps, c)
	if err != nil {
		return fmt.Errorf("initialize server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		errChannel := make(chan error, 1)
		go server.Start(errChannel)
		select {
		case err := <-errChannel:
			return err
		case <-gctx.Done():
			return nil
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		server.ShutdownGracefully(config.GetDuration(c, "SHUTDOWN_TIMEOUT", 30*time.Second))
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// setupLogger configures the global zerolog logger from LOG_LEVEL, LOG_FORMAT and LOG_FILE.
func setupLogger(c map[string]string) {
	level, err := zerolog.ParseLevel(strings.ToLower(config.GetString(c, "LOG_LEVEL", "info")))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var writers []io.Writer
	if config.GetString(c, "LOG_FORMAT", "console") == "json" {
		writers = append(writers, os.Stderr)
	} else {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	if file := config.GetString(c, "LOG_FILE", ""); file != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   file,
			MaxSize:    config.GetInt(c, "LOG_FILE_MAX_MB", 100),
			MaxBackups: config.GetInt(c, "LOG_FILE_MAX_BACKUPS", 3),
			MaxAge:     config.GetInt(c, "LOG_FILE_MAX_AGE_DAYS", 28),
			Compress:   true,
		})
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
}

func needsAWS(c map[string]string) bool {
	return config.GetString(c, "S3_BUCKET", "") != "" || config.GetString(c, "SSM_PARAMETER_PATH", "") != ""
}

// newS3Client honours S3_ENDPOINT for S3-compatible stores and static keys when given.
func newS3Client(awsCfg aws.Config, c map[string]string) *s3.Client {
	if key := config.GetString(c, "S3_ACCESS_KEY_ID", ""); key != "" {
		awsCfg.Credentials = credentials.NewStaticCredentialsProvider(key, config.GetString(c, "S3_SECRET_ACCESS_KEY", ""), "")
	}
	endpoint := config.GetString(c, "S3_ENDPOINT", "")
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
}

func newNotifier(c map[string]string) services.Notifier {
	apiKey := config.GetString(c, "RESEND_API_KEY", "")
	if apiKey == "" {
		log.Warn().Msg("RESEND_API_KEY not set, notifications are logged instead of sent")
		return services.LogNotifier{}
	}
	mailer, err := services.NewResendMailer(apiKey, config.GetString(c, "RESEND_FROM_EMAIL", ""), config.GetString(c, "RESEND_BASE_URL", ""), nil)
	if err != nil {
		log.Warn().Err(err).Msg("resend is misconfigured, notifications are logged instead of sent")
		return services.LogNotifier{}
	}
	return mailer
}

func shutdownScheduler(s gocron.Scheduler) {
	if err := s.Shutdown(); err != nil {
		log.Warn().Err(err).Msg("digest scheduler shutdown")
	}
}
