package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"persona-review/internal/analyses"
	"persona-review/internal/conversations"
	"persona-review/internal/documents"
	"persona-review/internal/llm"
	"persona-review/internal/llm/openai"
	"persona-review/internal/persona"
	"persona-review/internal/services/health"
	"persona-review/internal/shared/config"
	"persona-review/internal/shared/server"
	"persona-review/internal/shared/storage/db"
	"persona-review/internal/shared/storage/object"
	localstore "persona-review/internal/shared/storage/object/local"
	memstore "persona-review/internal/shared/storage/object/memory"
	s3store "persona-review/internal/shared/storage/object/s3"
	"persona-review/internal/shared/storage/sqlite"
)

const healthCheckTimeout = 2 * time.Second

// App holds shared dependencies and the wired router.
type App struct {
	Config  config.Config
	Router  *gin.Engine
	DB      *sql.DB
	Gorm    *gorm.DB
	Store   object.ObjectStore
	Persona *persona.Persona
	Health  *health.Service

	DocumentsService     *documents.Service
	AnalysesService      *analyses.Service
	ConversationsService *conversations.Service
}

// Deps overrides collaborators that would otherwise be built from config.
// Zero fields fall back to the configured implementation.
type Deps struct {
	Completion llm.Client
	Store      object.ObjectStore
	Extract    analyses.ExtractFunc
}

// Build prepares every dependency from cfg and wires the router.
func Build(cfg config.Config) (*App, error) {
	return BuildWith(context.Background(), cfg, Deps{})
}

// BuildWith is Build with explicit overrides, used by tests.
func BuildWith(ctx context.Context, cfg config.Config, deps Deps) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}

	p, err := persona.Load(cfg.PersonaFile)
	if err != nil {
		return nil, err
	}

	completion := deps.Completion
	if completion == nil {
		client, err := openai.NewClient(openai.Config{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.LLMModel,
			BaseURL: cfg.OpenAIBaseURL,
			Timeout: cfg.OpenAITimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("completion client: %w", err)
		}
		completion = client
	}

	store := deps.Store
	if store == nil {
		store, err = buildStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	app := &App{
		Config:  cfg,
		Store:   store,
		Persona: p,
		Health:  health.NewService(healthCheckTimeout),
	}

	repos, err := buildRepos(ctx, app)
	if err != nil {
		return nil, err
	}

	docSvc := &documents.Service{Store: store, Repo: repos.documents}
	analysisSvc := &analyses.Service{
		Repo:    repos.analyses,
		Docs:    docSvc,
		LLM:     completion,
		Persona: p,
		Extract: deps.Extract,
	}
	conversationSvc := &conversations.Service{
		Repo:     repos.conversations,
		Docs:     docSvc,
		Analyses: analysisSvc,
		LLM:      completion,
		Persona:  p,
	}
	docSvc.Purgers = []documents.Purger{conversationSvc, analysisSvc}

	docHandler := documents.NewHandler(docSvc,
		nestedAnalyses{svc: analysisSvc},
		nestedConversations{svc: conversationSvc},
	)
	if cfg.MaxUploadBytes > 0 {
		docHandler.MaxUploadBytes = cfg.MaxUploadBytes
	}

	app.DocumentsService = docSvc
	app.AnalysesService = analysisSvc
	app.ConversationsService = conversationSvc
	app.Router = server.NewRouter(server.RouterDeps{
		CORSAllowOrigins:     cfg.CORSAllowOrigin,
		CompletionRatePerMin: cfg.CompletionRatePerMin,
		Health:               app.Health,
		Features: []server.Routes{
			docHandler,
			analyses.NewHandler(analysisSvc),
			conversations.NewHandler(conversationSvc),
		},
	})

	return app, nil
}

type repoSet struct {
	documents     documents.Repo
	analyses      analyses.Repo
	conversations conversations.Repo
}

func memoryRepos() repoSet {
	return repoSet{
		documents:     documents.NewMemoryRepo(),
		analyses:      analyses.NewMemoryRepo(),
		conversations: conversations.NewMemoryRepo(),
	}
}

func buildRepos(ctx context.Context, app *App) (repoSet, error) {
	cfg := app.Config
	switch cfg.DBDriver {
	case config.DriverPostgres:
		pool, err := buildDB(ctx, cfg)
		if err != nil {
			return repoSet{}, err
		}
		if pool == nil {
			return memoryRepos(), nil
		}
		app.DB = pool
		app.Health.Register("database", func(ctx context.Context) error {
			return db.Ping(ctx, pool, healthCheckTimeout)
		})
		return repoSet{
			documents:     &documents.PGRepo{DB: pool},
			analyses:      &analyses.PGRepo{DB: pool},
			conversations: &conversations.PGRepo{DB: pool},
		}, nil

	case config.DriverSQLite:
		gdb, err := sqlite.Open(cfg.SQLitePath, false)
		if err != nil {
			return repoSet{}, err
		}
		if err := sqlite.Migrate(gdb, documents.AutoMigrate, analyses.AutoMigrate, conversations.AutoMigrate); err != nil {
			return repoSet{}, err
		}
		app.Gorm = gdb
		app.Health.Register("database", func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		})
		log.Printf("bootstrap: using sqlite at %s", cfg.SQLitePath)
		return repoSet{
			documents:     &documents.SQLiteRepo{DB: gdb},
			analyses:      &analyses.SQLiteRepo{DB: gdb},
			conversations: &conversations.SQLiteRepo{DB: gdb},
		}, nil

	default:
		log.Printf("bootstrap: using in-memory repositories")
		return memoryRepos(), nil
	}
}

// buildDB connects to Postgres. Dev-like environments fall back to memory
// (nil pool) when the database is unreachable.
func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, errors.New("DATABASE_URL is required")
	}

	var (
		pool   *sql.DB
		err    error
		shared = db.IsLambdaRuntime()
	)
	if shared {
		pool, err = db.Shared(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.Defaults(db.ProfileLambda)))
	} else {
		pool, err = db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.Defaults(db.ProfileServer)))
	}
	if err != nil {
		if cfg.IsDevLike() {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if cfg.IsDevLike() {
		return migrateOrClose(ctx, pool, !shared, db.RunMigrations)
	}
	return pool, nil
}

// migrateOrClose applies migrations and releases an owned pool when they
// fail. The Lambda pool is process-wide and stays open.
func migrateOrClose(ctx context.Context, pool *sql.DB, owned bool, migrate func(context.Context, *sql.DB) error) (*sql.DB, error) {
	if err := migrate(ctx, pool); err != nil {
		if owned {
			if cerr := pool.Close(); cerr != nil {
				log.Printf("bootstrap: close database after failed migrations: %v", cerr)
			}
		}
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return pool, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case config.StoreS3:
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, errors.New("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	case config.StoreMemory:
		return memstore.New(), nil
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

type nestedAnalyses struct {
	svc *analyses.Service
}

func (nestedAnalyses) Key() string { return "analyses" }

func (n nestedAnalyses) ForDocument(ctx context.Context, documentID string) (any, error) {
	items, err := n.svc.ForDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return analyses.ToResponses(items), nil
}

type nestedConversations struct {
	svc *conversations.Service
}

func (nestedConversations) Key() string { return "conversations" }

func (n nestedConversations) ForDocument(ctx context.Context, documentID string) (any, error) {
	turns, err := n.svc.ForDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return conversations.ToResponses(turns), nil
}
