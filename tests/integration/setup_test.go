//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"gorm.io/gorm"

	"github.com/alvesdmateus/image-builder/internal/api"
	"github.com/alvesdmateus/image-builder/internal/state"
	"github.com/alvesdmateus/image-builder/pkg/database"
)

// APITestEnvironment holds the test server and database for API integration tests
type APITestEnvironment struct {
	Server *httptest.Server
	DB     *gorm.DB
	Repo   *state.Repository
	t      *testing.T
}

// SetupAPITestEnvironment creates a test environment backed by an in-memory
// SQLite database; queue-dependent endpoints are not exercised here.
func SetupAPITestEnvironment(t *testing.T) *APITestEnvironment {
	t.Helper()

	db, err := database.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	if err := state.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	server := api.NewServer(db, nil, nil, nil)
	testServer := httptest.NewServer(server.Handler())

	t.Cleanup(func() {
		testServer.Close()
		database.Close(db)
	})

	return &APITestEnvironment{
		Server: testServer,
		DB:     db,
		Repo:   state.NewRepository(db),
		t:      t,
	}
}

// GET makes a GET request to the test server
func (e *APITestEnvironment) GET(path string) *http.Response {
	e.t.Helper()

	resp, err := http.Get(e.Server.URL + path)
	if err != nil {
		e.t.Fatalf("GET %s failed: %v", path, err)
	}
	return resp
}

// POST makes a POST request with a JSON body to the test server
func (e *APITestEnvironment) POST(path string, body interface{}) *http.Response {
	e.t.Helper()

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			e.t.Fatalf("Failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	resp, err := http.Post(e.Server.URL+path, "application/json", reqBody)
	if err != nil {
		e.t.Fatalf("POST %s failed: %v", path, err)
	}
	return resp
}

// DecodeResponse decodes a JSON response body into the given value
func (e *APITestEnvironment) DecodeResponse(resp *http.Response, v interface{}) {
	e.t.Helper()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		e.t.Fatalf("Failed to decode response: %v", err)
	}
}
