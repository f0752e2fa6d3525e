package testutil

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dom/noteshare/internal/api"
	"github.com/dom/noteshare/internal/auth"
	"github.com/dom/noteshare/internal/config"
	"github.com/dom/noteshare/internal/metrics"
	"github.com/dom/noteshare/internal/repository"
	"github.com/dom/noteshare/internal/repository/memory"
	repoPostgres "github.com/dom/noteshare/internal/repository/postgres"
	"github.com/dom/noteshare/internal/service"
	"github.com/dom/noteshare/internal/storage"
	"github.com/dom/noteshare/internal/websocket"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB manages a testcontainers PostgreSQL instance
type TestDB struct {
	Container testcontainers.Container
	DB        *gorm.DB
	DSN       string
}

// NewTestDB creates a new PostgreSQL testcontainer and returns a migrated
// connection
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	container, err := tcPostgres.Run(ctx,
		"postgres:15-alpine",
		tcPostgres.WithDatabase("test_noteshare"),
		tcPostgres.WithUsername("test"),
		tcPostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	db, err := gorm.Open(gormPostgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}

	if err := repoPostgres.Migrate(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	testDB := &TestDB{
		Container: container,
		DB:        db,
		DSN:       dsn,
	}

	t.Cleanup(func() {
		testDB.Cleanup()
	})

	return testDB
}

// Cleanup terminates the container
func (tdb *TestDB) Cleanup() {
	if tdb.Container != nil {
		ctx := context.Background()
		tdb.Container.Terminate(ctx)
	}
}

// Truncate clears all tables for test isolation
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	for _, table := range []string{"notes", "users"} {
		if err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			t.Logf("warning: failed to truncate %s: %v", table, err)
		}
	}
}

// TestConfig returns a configuration suitable for testing
func TestConfig() *config.Config {
	return &config.Config{
		Port:               "0", // Random port
		Environment:        "test",
		LogLevel:           "error",
		Store:              config.StoreMemory,
		JWTSecret:          "test-jwt-secret-key-for-testing-only",
		TokenTTL:           config.TokenTTL,
		PasswordCost:       bcrypt.MinCost, // Fast hashing for tests
		MaxAvatarBytes:     config.MaxAvatarBytes,
		StorageTimeout:     2 * time.Second,
		CORSAllowedOrigins: []string{"http://localhost:3000"},
	}
}

// TestServer holds all components for integration testing
type TestServer struct {
	Server   *httptest.Server
	Repos    *repository.Repositories
	Services *service.Services
	Hub      *websocket.Hub
	Avatars  *storage.MemoryStore
	Metrics  *metrics.Metrics
	Tokens   *auth.TokenCodec
	Config   *config.Config
}

// NewTestServer creates a complete test server backed by the in-memory store
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	return newTestServer(t, memory.NewRepositories(memory.NewStore()))
}

// NewPostgresTestServer creates a complete test server backed by a
// PostgreSQL testcontainer
func NewPostgresTestServer(t *testing.T) *TestServer {
	t.Helper()
	testDB := NewTestDB(t)
	return newTestServer(t, repoPostgres.NewRepositories(testDB.DB))
}

func newTestServer(t *testing.T, repos *repository.Repositories) *TestServer {
	t.Helper()

	cfg := TestConfig()

	hub := websocket.NewHub()
	go hub.Run()

	m := metrics.New()
	avatars := storage.NewMemoryStore()
	tokens := auth.NewTokenCodec([]byte(cfg.JWTSecret), cfg.TokenTTL)

	services := service.NewServices(repos, cfg, service.Dependencies{
		Tokens:    tokens,
		Avatars:   avatars,
		Publisher: hub,
		Metrics:   m,
	})
	router := api.NewRouter(services, hub, cfg, m)

	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:   server,
		Repos:    repos,
		Services: services,
		Hub:      hub,
		Avatars:  avatars,
		Metrics:  m,
		Tokens:   tokens,
		Config:   cfg,
	}

	t.Cleanup(func() {
		server.Close()
		hub.Stop()
	})

	return ts
}

// BaseURL returns the test server's base URL
func (ts *TestServer) BaseURL() string {
	return ts.Server.URL
}

// APIURL returns the full API URL for a given path
func (ts *TestServer) APIURL(path string) string {
	return fmt.Sprintf("%s/api/v1%s", ts.Server.URL, path)
}

// FeedURL returns the public notes feed WebSocket URL
func (ts *TestServer) FeedURL() string {
	wsURL := "ws" + ts.Server.URL[4:] // Replace "http" with "ws"
	return wsURL + "/api/v1/feed"
}
