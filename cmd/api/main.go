package main

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

	"github.com/go-chi/chi/v5"

	appai "github.com/attriscope/attriscope/internal/application/ai"
	appjobs "github.com/attriscope/attriscope/internal/application/jobs"
	appprojects "github.com/attriscope/attriscope/internal/application/projects"
	"github.com/attriscope/attriscope/internal/config"
	domjobs "github.com/attriscope/attriscope/internal/domain/jobs"
	openaiClient "github.com/attriscope/attriscope/internal/infra/ai/openai"
	mysqlp "github.com/attriscope/attriscope/internal/infra/db/mysql"
	postgresp "github.com/attriscope/attriscope/internal/infra/db/postgres"
	"github.com/attriscope/attriscope/internal/infra/httpserver"
	"github.com/attriscope/attriscope/internal/infra/loader"
	"github.com/attriscope/attriscope/internal/infra/pipeline"
	minioStore "github.com/attriscope/attriscope/internal/infra/storage"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	if len(cfg.Workspace.Projects) == 0 {
		log.Fatal("no projects configured")
	}

	ctx := context.Background()

	// load all project databases up front
	ws, err := loader.Load(ctx, cfg.Workspace.Projects)
	if err != nil {
		log.Fatalf("workspace load error: %v", err)
	}
	defer ws.Close()
	log.Printf("loaded %d project(s)", ws.Len())

	projectsSvc := appprojects.NewService(ws)

	// The job subsystem needs a database and object storage. Without them
	// the API still serves the browse endpoints.
	var db *sql.DB
	var jobsSvc *appjobs.Service
	if cfg.Database.Host != "" {
		var repo domjobs.Repository
		switch cfg.Database.Driver {
		case "postgres":
			db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
			if err != nil {
				log.Fatalf("postgres connect error: %v", err)
			}
			repo = postgresp.NewJobRepository(db)
		default:
			db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
			if err != nil {
				log.Fatalf("mysql connect error: %v", err)
			}
			repo = mysqlp.NewJobRepository(db)
		}
		defer db.Close()

		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}

		jobsSvc = &appjobs.Service{
			Repo:      repo,
			Runner:    &pipeline.Runner{Workspace: ws},
			Artifacts: store,
			Clock:     appjobs.SystemClock{},
		}
	}

	var aiSvc *appai.Service
	if cfg.OpenAI.APIKey != "" {
		aiSvc = appai.NewService(openaiClient.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model))
	}

	mux := chi.NewRouter()
	mux.Mount("/", httpserver.NewRouter(projectsSvc, jobsSvc, aiSvc, httpserver.Options{
		Debug:     cfg.Server.Debug,
		AuthToken: cfg.Server.AuthToken,
		DB:        db,
	}))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
