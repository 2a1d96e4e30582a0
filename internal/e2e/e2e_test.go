package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/invoicer/internal/auth/session"
	"github.com/smallbiznis/invoicer/internal/clock"
	"github.com/smallbiznis/invoicer/internal/config"
	"github.com/smallbiznis/invoicer/internal/migration"
	"github.com/smallbiznis/invoicer/internal/observability"
	"github.com/smallbiznis/invoicer/internal/server"
	"github.com/smallbiznis/invoicer/pkg/db"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

const (
	adminEmail    = "admin@invoicer.test"
	adminPassword = "e2e-admin-password"
)

type testEnv struct {
	app     *fx.App
	db      *gorm.DB
	baseURL string
	httpSrv *httptest.Server
}

var env *testEnv

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	setDefaultEnv()

	var err error
	env, err = startEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to start test environment:", err)
		os.Exit(1)
	}

	code := m.Run()
	env.shutdown()
	os.Exit(code)
}

func TestE2E_HealthCheck(t *testing.T) {
	resp, err := http.Get(env.baseURL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
}

func TestE2E_AdminSeededAndSessionRequired(t *testing.T) {
	resetDatabase(t, env.db)

	if countRows(t, env.db, "users", "email = ?", adminEmail) != 1 {
		t.Fatalf("expected seeded admin user")
	}

	resp, body := doJSON(t, newHTTPClient(), http.MethodGet, env.baseURL+"/api/invoices", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status 401 without session, got %d: %s", resp.StatusCode, string(body))
	}

	client := loginAdmin(t)
	resp, body = doJSON(t, client, http.MethodGet, env.baseURL+"/auth/me", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200 for me, got %d: %s", resp.StatusCode, string(body))
	}
}

func TestE2E_InvoiceFlow(t *testing.T) {
	resetDatabase(t, env.db)
	client := loginAdmin(t)

	clientID := createClient(t, client, "Clinica Norte")

	resp, body := doJSON(t, client, http.MethodPost, env.baseURL+"/api/quote", map[string]any{
		"protocol_count": 12,
		"onsite_visits":  40,
		"remote_visits":  20,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("quote failed: %d: %s", resp.StatusCode, string(body))
	}
	if total := dataField(t, body, "total"); total != "655" {
		t.Fatalf("expected quote total 655, got %v", total)
	}

	resp, body = doJSON(t, client, http.MethodGet, env.baseURL+"/api/invoices/next-number", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("next number failed: %d: %s", resp.StatusCode, string(body))
	}
	number, _ := dataField(t, body, "invoice_number").(string)
	if number != "INV-0001" {
		t.Fatalf("expected INV-0001, got %q", number)
	}

	resp, body = doJSON(t, client, http.MethodPost, env.baseURL+"/api/invoices", map[string]any{
		"client_id":                  clientID,
		"invoice_number":             number,
		"date":                       "2025-03-01",
		"period":                     "March 2025",
		"protocol_count":             12,
		"onsite_visits":              40,
		"remote_visits":              20,
		"include_implementation_fee": true,
		"items": []map[string]any{
			{"description": "Travel", "quantity": "2", "unit_price": "12.5"},
		},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create invoice failed: %d: %s", resp.StatusCode, string(body))
	}
	invoice, _ := dataField(t, body, "invoice").(map[string]any)
	invoiceID, _ := invoice["id"].(string)
	if invoice["total"] != "1680" {
		t.Fatalf("expected invoice total 1680, got %v", invoice["total"])
	}
	if countRows(t, env.db, "invoice_items", "invoice_id = ?", mustParseID(t, invoiceID)) != 1 {
		t.Fatalf("expected one stored line item")
	}

	resp, body = doJSON(t, client, http.MethodGet, env.baseURL+"/api/invoices/"+invoiceID+"/pdf", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("pdf failed: %d: %s", resp.StatusCode, string(body))
	}
	if !bytes.HasPrefix(body, []byte("%PDF")) {
		t.Fatalf("expected a pdf document")
	}
	if !strings.Contains(resp.Header.Get("Content-Disposition"), "invoice-inv-0001.pdf") {
		t.Fatalf("unexpected content disposition %q", resp.Header.Get("Content-Disposition"))
	}

	resp, body = doJSON(t, client, http.MethodGet, env.baseURL+"/api/invoices/"+invoiceID+"/html", nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "INV-0001") {
		t.Fatalf("html failed: %d", resp.StatusCode)
	}

	resp, body = doJSON(t, client, http.MethodPatch, env.baseURL+"/api/invoices/"+invoiceID+"/status", map[string]any{"status": "paid"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status update failed: %d: %s", resp.StatusCode, string(body))
	}

	resp, body = doJSON(t, client, http.MethodGet, env.baseURL+"/api/dashboard", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dashboard failed: %d: %s", resp.StatusCode, string(body))
	}
	byStatus, _ := dataField(t, body, "by_status").(map[string]any)
	paid, _ := byStatus["paid"].(map[string]any)
	if paid["count"] != float64(1) || paid["total"] != "1680" {
		t.Fatalf("unexpected paid stats: %v", paid)
	}

	resp, body = doJSON(t, client, http.MethodGet, env.baseURL+"/api/audit-logs?target_id="+invoiceID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("audit logs failed: %d: %s", resp.StatusCode, string(body))
	}
	var audit struct {
		Data []struct {
			Action string `json:"action"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &audit); err != nil {
		t.Fatalf("decode audit logs: %v", err)
	}
	actions := make([]string, 0, len(audit.Data))
	for _, entry := range audit.Data {
		actions = append(actions, entry.Action)
	}
	want := []string{"invoice.status_change", "invoice.pdf_download", "invoice.create"}
	if strings.Join(actions, ",") != strings.Join(want, ",") {
		t.Fatalf("expected audit actions %v, got %v", want, actions)
	}
}

func TestE2E_DeleteClientWithInvoicesConflicts(t *testing.T) {
	resetDatabase(t, env.db)
	client := loginAdmin(t)

	clientID := createClient(t, client, "Laboratorio Sur")
	resp, body := doJSON(t, client, http.MethodPost, env.baseURL+"/api/invoices", map[string]any{
		"client_id":      clientID,
		"invoice_number": "INV-0042",
		"date":           "2025-04-01",
		"protocol_count": 3,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create invoice failed: %d: %s", resp.StatusCode, string(body))
	}
	invoice, _ := dataField(t, body, "invoice").(map[string]any)
	invoiceID, _ := invoice["id"].(string)

	resp, body = doJSON(t, client, http.MethodDelete, env.baseURL+"/api/clients/"+clientID, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected status 409, got %d: %s", resp.StatusCode, string(body))
	}

	resp, body = doJSON(t, client, http.MethodDelete, env.baseURL+"/api/invoices/"+invoiceID, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete invoice failed: %d: %s", resp.StatusCode, string(body))
	}

	resp, body = doJSON(t, client, http.MethodDelete, env.baseURL+"/api/clients/"+clientID, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete client failed: %d: %s", resp.StatusCode, string(body))
	}
	if countRows(t, env.db, "clients", "1 = 1") != 0 {
		t.Fatalf("expected no clients left")
	}
}

func startEnv() (*testEnv, error) {
	var (
		engine *gin.Engine
		dbConn *gorm.DB
	)

	app := fx.New(
		fx.NopLogger,
		config.Module,
		observability.Module,
		fx.Provide(db.NewTest),
		clock.Module,
		fx.Provide(func() (*snowflake.Node, error) {
			return snowflake.NewNode(1)
		}),
		server.Module,
		migration.Module,
		fx.Populate(&engine, &dbConn),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.Start(ctx); err != nil {
		return nil, err
	}

	httpSrv := httptest.NewServer(engine)

	return &testEnv{
		app:     app,
		db:      dbConn,
		baseURL: httpSrv.URL,
		httpSrv: httpSrv,
	}, nil
}

func (e *testEnv) shutdown() {
	if e == nil {
		return
	}
	if e.httpSrv != nil {
		e.httpSrv.Close()
	}
	if e.app != nil {
		_ = e.app.Stop(context.Background())
	}
}

func setDefaultEnv() {
	setEnvIfEmpty("ENVIRONMENT", "test")
	setEnvIfEmpty("DATABASE_TYPE", "sqlite")
	setEnvIfEmpty("HTTP_ADDR", "127.0.0.1:0")
	setEnvIfEmpty("AUTH_COOKIE_SECURE", "false")
	setEnvIfEmpty("LOG_LEVEL", "error")
	setEnvIfEmpty("ADMIN_EMAIL", adminEmail)
	setEnvIfEmpty("ADMIN_PASSWORD", adminPassword)
}

func setEnvIfEmpty(key, value string) {
	if strings.TrimSpace(os.Getenv(key)) != "" {
		return
	}
	_ = os.Setenv(key, value)
}

// resetDatabase clears business data. The seeded admin and its sessions stay.
func resetDatabase(t *testing.T, dbConn *gorm.DB) {
	t.Helper()
	for _, table := range []string{"audit_logs", "invoice_items", "invoices", "clients"} {
		if err := dbConn.Exec("DELETE FROM " + table).Error; err != nil {
			t.Fatalf("clear %s: %v", table, err)
		}
	}
}

func loginAdmin(t *testing.T) *http.Client {
	t.Helper()
	client := newHTTPClient()

	req := map[string]any{
		"email":    adminEmail,
		"password": adminPassword,
	}
	resp, body := doJSON(t, client, http.MethodPost, env.baseURL+"/auth/login", req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d: %s", resp.StatusCode, string(body))
	}

	baseURL, err := url.Parse(env.baseURL)
	if err == nil {
		found := false
		for _, cookie := range client.Jar.Cookies(baseURL) {
			if cookie.Name == session.DefaultCookieName && strings.TrimSpace(cookie.Value) != "" {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("expected session cookie after login")
		}
	}
	return client
}

func createClient(t *testing.T, client *http.Client, name string) string {
	t.Helper()
	resp, body := doJSON(t, client, http.MethodPost, env.baseURL+"/api/clients", map[string]any{
		"name":    name,
		"address": "Av. Principal 100",
		"email":   "billing@example.test",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create client failed: %d: %s", resp.StatusCode, string(body))
	}
	id, _ := dataField(t, body, "id").(string)
	if id == "" {
		t.Fatalf("expected client id: %s", string(body))
	}
	return id
}

func dataField(t *testing.T, body []byte, key string) any {
	t.Helper()
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("decode response: %v: %s", err, string(body))
	}
	return envelope.Data[key]
}

func countRows(t *testing.T, dbConn *gorm.DB, table string, where string, args ...any) int64 {
	t.Helper()
	var count int64
	if err := dbConn.Table(table).Where(where, args...).Count(&count).Error; err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return count
}

func mustParseID(t *testing.T, value string) snowflake.ID {
	t.Helper()
	parsed, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || parsed == 0 {
		t.Fatalf("invalid snowflake id: %s", value)
	}
	return parsed
}

func doJSON(t *testing.T, client *http.Client, method, reqURL string, payload any) (*http.Response, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("encode json: %v", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, reqURL, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp, data
}

func newHTTPClient() *http.Client {
	jar, _ := cookiejar.New(nil)
	return &http.Client{
		Timeout: 15 * time.Second,
		Jar:     jar,
	}
}
