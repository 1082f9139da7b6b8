package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloo-solutions/pulsetrack/internal/api/handlers"
	"github.com/cloo-solutions/pulsetrack/internal/config"
	"github.com/cloo-solutions/pulsetrack/internal/database"
	"github.com/cloo-solutions/pulsetrack/internal/jobs"
	"github.com/cloo-solutions/pulsetrack/internal/llm"
	"github.com/cloo-solutions/pulsetrack/internal/repository"
	"github.com/cloo-solutions/pulsetrack/internal/server"
	"github.com/cloo-solutions/pulsetrack/internal/service"
	"github.com/cloo-solutions/pulsetrack/internal/telemetry"
	"github.com/cloo-solutions/pulsetrack/internal/vector"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the pulsetrack API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := database.NewPool(ctx, database.Config{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	memberRepo := repository.NewMemberRepository(pool)
	updateRepo := repository.NewStatusUpdateRepository(pool)
	goalRepo := repository.NewGoalRepository(pool)
	taskRepo := repository.NewTaskRepository(pool)
	vectorRepo := repository.NewVectorRecordRepository(pool)
	indexJobRepo := repository.NewIndexJobRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	llmClient := llm.NewClient(llm.Config{
		BaseURL:             cfg.LLMBaseURL,
		APIKey:              cfg.LLMAPIKey,
		Model:               cfg.LLMModel,
		EmbeddingModel:      cfg.EmbeddingModel,
		EmbeddingDimensions: cfg.EmbeddingDims,
		Timeout:             cfg.LLMTimeout(),
	})
	index := vector.NewIndex(llmClient, vectorRepo)

	memberSvc := service.NewMemberService(memberRepo)
	statusSvc := service.NewStatusUpdateService(updateRepo, memberRepo, taskRepo, txRunner)
	goalSvc := service.NewGoalService(goalRepo)
	taskSvc := service.NewTaskService(taskRepo, goalRepo, memberRepo)
	insightsSvc := service.NewInsightsService(updateRepo, memberRepo, index, llmClient)

	indexProcessor := jobs.NewIndexWorker(indexJobRepo, updateRepo, index)
	indexWorker := jobs.NewWorker(indexProcessor, cfg.IndexPollInterval())
	go indexWorker.Start(ctx)
	log.Println("index worker started")

	routerCfg := server.RouterConfig{
		MemberHandler:   handlers.NewMemberHandler(memberSvc),
		StatusHandler:   handlers.NewStatusUpdateHandler(statusSvc),
		GoalHandler:     handlers.NewGoalHandler(goalSvc),
		TaskHandler:     handlers.NewTaskHandler(taskSvc),
		InsightsHandler: handlers.NewInsightsHandler(insightsSvc),
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	indexWorker.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

func runMigrations(databaseURL string) error {
	// Create a sql.DB connection for golang-migrate
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
