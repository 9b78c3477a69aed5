package testutil

import (
	"context"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dom/kavholm-api/internal/api"
	"github.com/dom/kavholm-api/internal/config"
	"github.com/dom/kavholm-api/internal/logging"
	"github.com/dom/kavholm-api/internal/notify"
	"github.com/dom/kavholm-api/internal/repository"
	repoPostgres "github.com/dom/kavholm-api/internal/repository/postgres"
	"github.com/dom/kavholm-api/internal/service"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestDB manages a testcontainers PostgreSQL instance
type TestDB struct {
	Container testcontainers.Container
	DB        *gorm.DB
	DSN       string
}

// NewTestDB starts a PostgreSQL container, connects to it and applies the
// migrations.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	container, err := tcPostgres.Run(ctx,
		"postgres:15-alpine",
		tcPostgres.WithDatabase("kavholm_test"),
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

	testDB := &TestDB{Container: container}
	t.Cleanup(func() {
		testDB.Cleanup()
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}
	testDB.DSN = dsn

	db, err := repoPostgres.NewConnection(dsn, repoPostgres.ConnectionOptions{})
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}
	testDB.DB = db

	if err := repoPostgres.Migrate(ctx, db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return testDB
}

// Cleanup closes the pool and terminates the container
func (tdb *TestDB) Cleanup() {
	if tdb.DB != nil {
		repoPostgres.Close(tdb.DB)
	}
	if tdb.Container != nil {
		tdb.Container.Terminate(context.Background())
	}
}

// Truncate clears all tables for test isolation
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	if err := tdb.DB.Exec("TRUNCATE TABLE users RESTART IDENTITY CASCADE").Error; err != nil {
		t.Fatalf("failed to truncate users: %v", err)
	}
}

// TestConfig returns a configuration suitable for testing
func TestConfig() *config.Config {
	return &config.Config{
		Port:               "0",
		Environment:        config.EnvTest,
		ApplicationName:    "Kavholm Homes",
		ClientURL:          "http://localhost:3000",
		CORSOrigin:         "http://localhost:3000",
		SecretKey:          "test-secret-key-for-testing-only",
		BcryptWorkFactor:   bcrypt.MinCost,
		EmailServiceActive: false,
		EmailFromAddress:   "noreply@kavholm.test",
		LogLevel:           "error",
	}
}

// TestServer holds all components for integration testing
type TestServer struct {
	Server   *httptest.Server
	DB       *TestDB
	Repos    *repository.Repositories
	Services *service.Services
	Mailbox  *notify.InactiveGateway
	Config   *config.Config
}

// NewTestServer creates a complete test server with all dependencies. Email
// goes to an InactiveGateway exposed as Mailbox.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	testDB := NewTestDB(t)
	cfg := TestConfig()
	logger := TestLogger(t)

	repos := repoPostgres.NewRepositories(testDB.DB)
	mailbox := notify.NewInactiveGateway(logger)
	services := service.NewServices(repos, mailbox, cfg, logger)
	router := api.NewRouter(services, cfg, logger)

	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:   server,
		DB:       testDB,
		Repos:    repos,
		Services: services,
		Mailbox:  mailbox,
		Config:   cfg,
	}

	t.Cleanup(func() {
		server.Close()
	})

	return ts
}

// Reset truncates the database and empties the mailbox.
func (ts *TestServer) Reset(t *testing.T) {
	t.Helper()
	ts.DB.Truncate(t)
	ts.Mailbox.Reset()
}

// URL returns the full URL for a given path
func (ts *TestServer) URL(path string) string {
	return fmt.Sprintf("%s%s", ts.Server.URL, path)
}

// TestLogger returns a logger that writes nowhere.
func TestLogger(t *testing.T) *logging.SlogLogger {
	t.Helper()
	l, err := logging.New(logging.Options{Level: "error", Writer: io.Discard})
	if err != nil {
		t.Fatalf("failed to build logger: %v", err)
	}
	return l
}
