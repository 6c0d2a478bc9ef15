package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"docvault-backend/internal/documents"
	"docvault-backend/internal/ocr"
	"docvault-backend/internal/quota"
	"docvault-backend/internal/search"
	"docvault-backend/internal/shared/auth"
	"docvault-backend/internal/shared/config"
	"docvault-backend/internal/shared/server"
	"docvault-backend/internal/shared/server/middleware"
	"docvault-backend/internal/shared/storage/db"
	"docvault-backend/internal/shared/storage/object"
	localstore "docvault-backend/internal/shared/storage/object/local"
	s3store "docvault-backend/internal/shared/storage/object/s3"
	"docvault-backend/internal/tags"
	"docvault-backend/internal/vault"
)

// App holds the wired application graph.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Blobs  object.BlobStore
	Vault  *vault.Vault

	DocumentsRepo documents.Repo
	TagsRepo      tags.Repo
	QuotaStore    quota.Store

	DocumentsService *documents.Service
	TagsService      *tags.Service
	QuotaService     *quota.Service
	SearchService    *search.Service

	DocumentsHandler *documents.Handler
	TagsHandler      *tags.Handler
	SearchHandler    *search.Handler

	// Resolver turns bearer tokens into tenant identities; nil keeps the
	// header-based dev identity only.
	Resolver middleware.TenantResolver
}

// Option mutates the app before routes are wired; used by tests to swap
// pieces of the graph.
type Option func(*App)

// WithVaultParams overrides the argon2 cost parameters.
func WithVaultParams(params vault.Params) Option {
	return func(app *App) {
		v, err := vault.NewWithParams(app.Config.VaultSecret, params)
		if err == nil {
			app.Vault = v
		}
	}
}

// WithRecognizer overrides the OCR recognizer (test fakes, alternate engines).
func WithRecognizer(rec ocr.Recognizer) Option {
	return func(app *App) {
		app.DocumentsService.Extractor = ocr.NewExtractor(rec, app.Config.TempDir)
	}
}

// WithResolver installs a bearer-token tenant resolver.
func WithResolver(resolver middleware.TenantResolver) Option {
	return func(app *App) {
		app.Resolver = resolver
	}
}

// Build prepares the dependency graph and wires the router. With an empty
// DATABASE_URL in dev-like environments every store falls back to memory.
func Build(cfg config.Config, opts ...Option) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	blobs, err := buildBlobStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	v, err := vault.New(cfg.VaultSecret)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: vault: %w", err)
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Blobs:  blobs,
		Vault:  v,
	}
	buildServices(app)

	if strings.TrimSpace(cfg.SessionSecret) != "" {
		keychain, err := auth.NewKeychain(cfg.SessionSecret)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: session keychain: %w", err)
		}
		app.Resolver = keychain
	}

	for _, opt := range opts {
		opt(app)
	}
	// Services capture the vault pointer at wiring time; re-point after opts.
	app.DocumentsService.Vault = app.Vault

	app.Router = server.NewRouter(server.RouterDeps{
		Config:           app.Config,
		Resolver:         app.Resolver,
		DocumentsHandler: app.DocumentsHandler,
		TagsHandler:      app.TagsHandler,
		SearchHandler:    app.SearchHandler,
	})
	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("bootstrap: migrations: %w", err)
	}
	return sqlDB, nil
}

func buildBlobStore(ctx context.Context, cfg config.Config) (object.BlobStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildServices(app *App) {
	var docRepo documents.Repo
	var tagRepo tags.Repo
	var quotaStore quota.Store
	var source search.Source

	if app.DB != nil {
		docRepo = documents.NewPGRepo(app.DB)
		tagRepo = tags.NewPGRepo(app.DB)
		quotaStore = quota.NewPGStore(app.DB)
		source = search.NewPGSource(app.DB)
	} else {
		docRepo = documents.NewMemoryRepo()
		tagRepo = tags.NewMemoryRepo()
		quotaStore = quota.NewMemoryStore()
		source = &search.RepoSource{Repo: docRepo}
	}

	var recognizer ocr.Recognizer
	if !app.Config.OCRDisabled {
		recognizer = ocr.NewTesseractRecognizer(app.Config.OCRBinary, app.Config.OCRLanguage)
	}

	tagSvc := tags.NewService(tagRepo)
	quotaSvc := quota.NewService(quotaStore, app.Config.DefaultQuota)
	docSvc := &documents.Service{
		Repo:      docRepo,
		Blobs:     app.Blobs,
		Vault:     app.Vault,
		Extractor: ocr.NewExtractor(recognizer, app.Config.TempDir),
		Tags:      tagSvc,
		Quota:     quotaSvc,
	}
	searchSvc := search.NewService(source)

	app.DocumentsRepo = docRepo
	app.TagsRepo = tagRepo
	app.QuotaStore = quotaStore
	app.DocumentsService = docSvc
	app.TagsService = tagSvc
	app.QuotaService = quotaSvc
	app.SearchService = searchSvc
	app.DocumentsHandler = documents.NewHandler(docSvc)
	app.TagsHandler = tags.NewHandler(tagSvc)
	app.SearchHandler = search.NewHandler(searchSvc)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
