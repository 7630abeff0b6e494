//go:build integration

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/saturnino-fabrica-de-software/emotune/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/emotune/internal/auth"
	"github.com/saturnino-fabrica-de-software/emotune/internal/capture"
	"github.com/saturnino-fabrica-de-software/emotune/internal/database"
	"github.com/saturnino-fabrica-de-software/emotune/internal/provider"
	providermock "github.com/saturnino-fabrica-de-software/emotune/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/emotune/internal/ratelimit"
	"github.com/saturnino-fabrica-de-software/emotune/internal/recommend"
	"github.com/saturnino-fabrica-de-software/emotune/internal/repository"
	"github.com/saturnino-fabrica-de-software/emotune/internal/service"
)

var testDB *pgxpool.Pool

func TestMain(m *testing.M) {
	os.Exit(runWithPostgres(m))
}

func runWithPostgres(m *testing.M) int {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "emotune_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		fmt.Printf("Failed to start container: %v\n", err)
		return 1
	}
	defer func() {
		if err := container.Terminate(ctx); err != nil {
			fmt.Printf("Failed to terminate container: %v\n", err)
		}
	}()

	host, _ := container.Host(ctx)
	port, _ := container.MappedPort(ctx, "5432")
	dsn := fmt.Sprintf("postgres://test:test@%s:%s/emotune_test?sslmode=disable", host, port.Port())

	sqlDB, err := database.OpenSQL(ctx, dsn)
	if err != nil {
		fmt.Printf("Failed to open database: %v\n", err)
		return 1
	}
	migrator, err := database.NewMigrator(sqlDB, "emotune_test")
	if err != nil {
		fmt.Printf("Failed to create migrator: %v\n", err)
		return 1
	}
	if err := migrator.Up(); err != nil {
		fmt.Printf("Failed to run migrations: %v\n", err)
		return 1
	}
	_ = migrator.Close()

	testDB, err = database.NewPool(ctx, database.DefaultPoolConfig(dsn))
	if err != nil {
		fmt.Printf("Failed to connect to database: %v\n", err)
		return 1
	}
	defer testDB.Close()

	return m.Run()
}

func newIntegrationRouter(t *testing.T) *Router {
	t.Helper()
	logger := testLogger()

	key, err := capture.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	store, err := capture.NewStore(t.TempDir(), key, logger)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	table := recommend.NewDefaultTable()
	tokens := auth.NewTokenService("integration-secret", "emotune", time.Hour)
	hasher := auth.NewPasswordHasher(auth.Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	accounts := service.NewAccountService(
		repository.NewUserRepository(testDB), hasher, tokens, logger,
		service.WithLoginThrottle(ratelimit.NewLoginThrottle(testDB, 10, time.Minute)),
	)

	router := NewRouter(logger, &Dependencies{
		Detection: service.NewDetectionService(
			providermock.NewDetector(),
			provider.NewEmotionClassifier(providermock.NewClassifier()),
			table,
			logger,
		),
		Captures:           store,
		Playlists:          table,
		Accounts:           accounts,
		Tokens:             tokens,
		DB:                 testDB,
		RateLimit:          middleware.DefaultRateLimiterConfig(),
		CaptureRequireAuth: true,
	})
	router.Setup()
	t.Cleanup(func() { _ = router.Shutdown() })
	return router
}

func TestIntegration_ReadyEndpoint(t *testing.T) {
	router := newIntegrationRouter(t)

	resp, err := router.App().Test(httptest.NewRequest("GET", "/ready", nil), -1)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}

	if resp.StatusCode != 200 {
		t.Errorf("Status = %d, want 200", resp.StatusCode)
	}

	var result ReadyBody
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if result.Checks["database"] != "ok" {
		t.Errorf("database check = %q, want ok", result.Checks["database"])
	}
}

// ReadyBody mirrors the readiness payload
type ReadyBody struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func TestIntegration_SignupLoginAndCapture(t *testing.T) {
	router := newIntegrationRouter(t)
	creds := map[string]string{"username": "integration-user", "password": "s3cretpass"}

	resp, err := router.App().Test(postJSON(t, "/signup", creds), -1)
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	if resp.StatusCode != 201 {
		t.Fatalf("signup status = %d, want 201", resp.StatusCode)
	}

	resp, err = router.App().Test(postJSON(t, "/signup", creds), -1)
	if err != nil {
		t.Fatalf("second signup failed: %v", err)
	}
	if resp.StatusCode != 400 {
		t.Errorf("duplicate signup status = %d, want 400", resp.StatusCode)
	}

	resp, err = router.App().Test(postJSON(t, "/login", map[string]string{"username": "integration-user", "password": "wrong-password"}), -1)
	if err != nil {
		t.Fatalf("bad login failed: %v", err)
	}
	if resp.StatusCode != 401 {
		t.Errorf("bad login status = %d, want 401", resp.StatusCode)
	}

	resp, err = router.App().Test(postJSON(t, "/login", creds), -1)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("login status = %d, want 200", resp.StatusCode)
	}

	var login struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil {
		t.Fatalf("decode login: %v", err)
	}

	req := httptest.NewRequest("GET", "/list_images", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	resp, err = router.App().Test(req, -1)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("list status = %d, want 200", resp.StatusCode)
	}
}
