package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	v1 "github.com/goatkit/timeflow/internal/api/v1"
	"github.com/goatkit/timeflow/internal/auth"
	"github.com/goatkit/timeflow/internal/config"
	"github.com/goatkit/timeflow/internal/database"
	"github.com/goatkit/timeflow/internal/history"
	"github.com/goatkit/timeflow/internal/middleware"
	"github.com/goatkit/timeflow/internal/refdata"
	"github.com/goatkit/timeflow/internal/repository"
	"github.com/goatkit/timeflow/internal/services/activity"
	"github.com/goatkit/timeflow/internal/services/approval"
	"github.com/goatkit/timeflow/internal/services/attachment"
	"github.com/goatkit/timeflow/internal/services/comment"
	"github.com/goatkit/timeflow/internal/services/epic"
	"github.com/goatkit/timeflow/internal/services/leave"
	"github.com/goatkit/timeflow/internal/services/masterdata"
	"github.com/goatkit/timeflow/internal/services/task"
	"github.com/goatkit/timeflow/internal/services/template"
	"github.com/goatkit/timeflow/internal/services/timesheet"
)

const (
	loginRateLimit  = 10
	loginRateWindow = time.Minute

	// How often the reference-data cache is rebuilt in the background.
	masterDataRefreshSpec = "@every 6h"

	shutdownGrace = 15 * time.Second
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	logger := log.New(os.Stdout, "[timeflow] ", log.LstdFlags)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	jwt, err := auth.NewJWTManager(cfg.Auth)
	if err != nil {
		return fmt.Errorf("initializing token manager: %w", err)
	}

	masters := repository.NewMasterRepository(db)
	tasks := repository.NewTaskRepository(db)
	epics := repository.NewEpicRepository(db)
	templates := repository.NewTemplateRepository(db)
	entries := repository.NewTimesheetRepository(db)
	leaves := repository.NewLeaveRepository(db)
	comments := repository.NewCommentRepository(db)

	validator := refdata.NewValidator(masters)
	recorder := history.NewRecorder()
	resolver := approval.NewResolver(masters, cfg)

	var cache *redis.Client
	if cfg.Redis.Addr != "" {
		cache = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer cache.Close()
	}

	masterData := masterdata.NewService(masters, cache, cfg.Redis.TTL, masterdata.WithLogger(logger))
	if cache != nil {
		if err := masterData.StartRefresher(masterDataRefreshSpec); err != nil {
			return fmt.Errorf("starting master data refresher: %w", err)
		}
		defer masterData.StopRefresher()
	}

	store := attachment.NewStore(db, comments, cfg.Uploads, attachment.WithLogger(logger))

	api := &v1.API{
		Auth:        auth.NewService(masters, jwt, cfg, auth.WithLogger(logger)),
		JWT:         jwt,
		Tasks:       task.NewService(db, tasks, epics, templates, validator, recorder, task.WithLogger(logger)),
		Epics:       epic.NewService(db, epics, masters, validator, recorder, cfg, epic.WithLogger(logger)),
		Templates:   template.NewService(db, templates, epics, tasks, validator, recorder, template.WithLogger(logger)),
		Timesheets:  timesheet.NewService(db, entries, tasks, validator, resolver, recorder, timesheet.WithLogger(logger)),
		Leaves:      leave.NewService(db, leaves, validator, resolver, leave.WithLogger(logger)),
		Comments:    comment.NewService(db, comments, validator, comment.WithLogger(logger)),
		Attachments: store,
		Activities:  activity.NewService(db, entries, validator, store, activity.WithLogger(logger)),
		MasterData:  masterData,
		LoginLimit:  middleware.NewRateLimiter(loginRateLimit, loginRateWindow),
		Logger:      logger,
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	api.RegisterRoutes(engine)

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: engine,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("listening on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
