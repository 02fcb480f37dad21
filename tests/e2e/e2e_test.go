//go:build integration

package e2e

// End-to-end integration tests against real Postgres + Redis via
// testcontainers. Run with: go test -tags integration ./tests/e2e/... -v
//
// Covered flows:
//   - Full sale cycle (login → open shift → sale → stock + ledger checks)
//   - Concurrent sales never oversell (real row locks, not stubs)
//   - Void restores stock
//   - Partial return refunds and the over-return guard
//   - Shift close records the variance

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"posledger/internal/config"
	"posledger/internal/infra"
	"posledger/internal/router"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/crypto/bcrypt"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server     *httptest.Server
	token      string // admin JWT
	businessID uuid.UUID
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("posledger_test"),
		tcPostgres.WithUsername("posledger"),
		tcPostgres.WithPassword("posledger"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:               8000,
		Env:                "test",
		JWTSecret:          "test-secret-key",
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
		DatabaseURL:        pgURL,
		RedisURL:           rdURL,
		WorkerPoolSize:     1,
		PDFStoragePath:     t.TempDir(),
		BusinessName:       "E2E Store",
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	// Seed an admin user
	businessID := uuid.New()
	hash, err := bcrypt.GenerateFromPassword([]byte("e2e-password"), 12)
	require.NoError(t, err)
	require.NoError(t, db.Exec(`
		INSERT INTO users (id, business_id, username, name, email, password_hash, role, commission_rate, active, created_at, updated_at)
		VALUES (gen_random_uuid(), ?, 'admin-e2e', 'Admin E2E', 'admin@e2e.test', ?, 'admin', 0.05, true, NOW(), NOW())
	`, businessID, string(hash)).Error)

	r := router.New(cfg, db, rdb)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	loginResp := do(t, srv, "POST", "/v1/auth/login",
		jsonBody(t, map[string]string{"username": "admin-e2e", "password": "e2e-password"}),
		"",
	)
	require.Equal(t, http.StatusOK, loginResp.StatusCode)
	var loginBody struct {
		AccessToken string `json:"access_token"`
	}
	decodeJSON(t, loginResp, &loginBody)
	require.NotEmpty(t, loginBody.AccessToken)

	return &testEnv{server: srv, token: loginBody.AccessToken, businessID: businessID}
}

func (env *testEnv) createProduct(t *testing.T, barcode string, price float64, stock int) string {
	t.Helper()
	resp := do(t, env.server, "POST", "/v1/products",
		jsonBody(t, map[string]any{
			"barcode":       barcode,
			"name":          "Product " + barcode,
			"category":      "test",
			"cost_price":    price / 2,
			"unit_price":    price,
			"opening_stock": stock,
			"min_stock":     1,
		}), env.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var prod struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp, &prod)
	return prod.ID
}

func (env *testEnv) openShift(t *testing.T, register int, opening float64) string {
	t.Helper()
	resp := do(t, env.server, "POST", "/v1/shifts/open",
		jsonBody(t, map[string]any{"register_id": register, "opening_balance": opening}),
		env.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var shift struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp, &shift)
	return shift.ID
}

func (env *testEnv) stockOf(t *testing.T, productID string) int {
	t.Helper()
	resp := do(t, env.server, "GET", "/v1/inventory/stock/"+productID, nil, env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Stock int `json:"stock"`
	}
	decodeJSON(t, resp, &body)
	return body.Stock
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestE2E_FullSaleCycle(t *testing.T) {
	env := setupTestEnv(t)
	productID := env.createProduct(t, "7890001000001", 250.0, 20)
	shiftID := env.openShift(t, 1, 1000.0)

	saleResp := do(t, env.server, "POST", "/v1/sales",
		jsonBody(t, map[string]any{
			"shift_id":       shiftID,
			"lines":          []map[string]any{{"product_id": productID, "quantity": 3}},
			"payment_method": "cash",
		}), env.token)
	require.Equal(t, http.StatusCreated, saleResp.StatusCode)
	var sale struct {
		ID           string `json:"id"`
		TicketNumber int    `json:"ticket_number"`
		Total        string `json:"total"`
		Status       string `json:"status"`
	}
	decodeJSON(t, saleResp, &sale)
	assert.Equal(t, 1, sale.TicketNumber)
	assert.Equal(t, "completed", sale.Status)
	assert.Equal(t, "750", sale.Total)

	assert.Equal(t, 17, env.stockOf(t, productID))

	// Ledger and store agree
	verifyResp := do(t, env.server, "GET", "/v1/inventory/verify/"+productID, nil, env.token)
	require.Equal(t, http.StatusOK, verifyResp.StatusCode)

	listResp := do(t, env.server, "GET", "/v1/sales", nil, env.token)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
}

func TestE2E_ConcurrentSalesNeverOversell(t *testing.T) {
	env := setupTestEnv(t)
	productID := env.createProduct(t, "7890001000002", 100.0, 5)
	shiftID := env.openShift(t, 1, 500.0)

	const attempts = 10
	var wg sync.WaitGroup
	statuses := make([]int, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			resp := do(t, env.server, "POST", "/v1/sales",
				jsonBody(t, map[string]any{
					"shift_id":       shiftID,
					"lines":          []map[string]any{{"product_id": productID, "quantity": 1}},
					"payment_method": "cash",
				}), env.token)
			resp.Body.Close()
			statuses[idx] = resp.StatusCode
		}(i)
	}
	wg.Wait()

	created := 0
	for _, code := range statuses {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusConflict, http.StatusServiceUnavailable:
			// insufficient stock or retry exhaustion — both acceptable
		default:
			t.Fatalf("unexpected status %d", code)
		}
	}
	assert.LessOrEqual(t, created, 5)
	assert.Equal(t, 5-created, env.stockOf(t, productID))

	verifyResp := do(t, env.server, "GET", "/v1/inventory/verify/"+productID, nil, env.token)
	require.Equal(t, http.StatusOK, verifyResp.StatusCode)
}

func TestE2E_VoidRestoresStock(t *testing.T) {
	env := setupTestEnv(t)
	productID := env.createProduct(t, "7890001000003", 200.0, 10)
	shiftID := env.openShift(t, 1, 500.0)

	saleResp := do(t, env.server, "POST", "/v1/sales",
		jsonBody(t, map[string]any{
			"shift_id":       shiftID,
			"lines":          []map[string]any{{"product_id": productID, "quantity": 3}},
			"payment_method": "cash",
		}), env.token)
	require.Equal(t, http.StatusCreated, saleResp.StatusCode)
	var sale struct {
		ID string `json:"id"`
	}
	decodeJSON(t, saleResp, &sale)
	require.Equal(t, 7, env.stockOf(t, productID))

	voidResp := do(t, env.server, "POST", "/v1/sales/"+sale.ID+"/void",
		jsonBody(t, map[string]any{"reason": "entered by mistake"}), env.token)
	require.Equal(t, http.StatusOK, voidResp.StatusCode)
	var voided struct {
		Status string `json:"status"`
	}
	decodeJSON(t, voidResp, &voided)
	assert.Equal(t, "voided", voided.Status)
	assert.Equal(t, 10, env.stockOf(t, productID))
}

func TestE2E_PartialReturnAndOverReturnGuard(t *testing.T) {
	env := setupTestEnv(t)
	productID := env.createProduct(t, "7890001000004", 50.0, 10)
	shiftID := env.openShift(t, 1, 500.0)

	saleResp := do(t, env.server, "POST", "/v1/sales",
		jsonBody(t, map[string]any{
			"shift_id":       shiftID,
			"lines":          []map[string]any{{"product_id": productID, "quantity": 5}},
			"payment_method": "cash",
		}), env.token)
	require.Equal(t, http.StatusCreated, saleResp.StatusCode)
	var sale struct {
		ID    string `json:"id"`
		Lines []struct {
			ID string `json:"id"`
		} `json:"lines"`
	}
	decodeJSON(t, saleResp, &sale)
	require.Len(t, sale.Lines, 1)

	// Return 2 of the 5
	retResp := do(t, env.server, "POST", "/v1/returns",
		jsonBody(t, map[string]any{
			"sale_id":  sale.ID,
			"shift_id": shiftID,
			"lines":    []map[string]any{{"sale_line_id": sale.Lines[0].ID, "quantity": 2}},
			"reason":   "customer returned two units",
			"type":     "return",
		}), env.token)
	require.Equal(t, http.StatusCreated, retResp.StatusCode)
	var ret struct {
		RefundTotal string `json:"refund_total"`
	}
	decodeJSON(t, retResp, &ret)
	assert.Equal(t, "100", ret.RefundTotal)
	assert.Equal(t, 7, env.stockOf(t, productID))

	// Asking for 4 more exceeds the remaining 3
	overResp := do(t, env.server, "POST", "/v1/returns",
		jsonBody(t, map[string]any{
			"sale_id":  sale.ID,
			"shift_id": shiftID,
			"lines":    []map[string]any{{"sale_line_id": sale.Lines[0].ID, "quantity": 4}},
			"reason":   "trying to over-return",
			"type":     "return",
		}), env.token)
	defer overResp.Body.Close()
	require.Equal(t, http.StatusConflict, overResp.StatusCode)
	assert.Equal(t, 7, env.stockOf(t, productID))
}

func TestE2E_ShiftCloseVariance(t *testing.T) {
	env := setupTestEnv(t)
	productID := env.createProduct(t, "7890001000005", 50.0, 10)
	shiftID := env.openShift(t, 1, 100.0)

	saleResp := do(t, env.server, "POST", "/v1/sales",
		jsonBody(t, map[string]any{
			"shift_id":       shiftID,
			"lines":          []map[string]any{{"product_id": productID, "quantity": 1}},
			"payment_method": "cash",
		}), env.token)
	require.Equal(t, http.StatusCreated, saleResp.StatusCode)
	saleResp.Body.Close()

	// Expected 150.00, counted 145.00 → variance -5.00; close must succeed
	closeResp := do(t, env.server, "POST", "/v1/shifts/close",
		jsonBody(t, map[string]any{"shift_id": shiftID, "counted_balance": 145.0}),
		env.token)
	require.Equal(t, http.StatusOK, closeResp.StatusCode)
	var closed struct {
		ExpectedBalance string `json:"expected_balance"`
		Variance        string `json:"variance"`
		Status          string `json:"status"`
	}
	decodeJSON(t, closeResp, &closed)
	assert.Equal(t, "150", closed.ExpectedBalance)
	assert.Equal(t, "-5", closed.Variance)
	assert.Equal(t, "closed", closed.Status)

	// Register is free for a new shift
	_ = env.openShift(t, 1, 100.0)
}
