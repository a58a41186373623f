package test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/dvelichkov/storefront/api"
	"github.com/dvelichkov/storefront/api/background"
	"github.com/dvelichkov/storefront/config"
	"github.com/dvelichkov/storefront/database"
	"github.com/dvelichkov/storefront/pubsub"
	"github.com/dvelichkov/storefront/rate"
	"github.com/jmoiron/sqlx"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/sirupsen/logrus"
)

const adminToken = "test-admin-token"

// TestEnv spins up a postgres container and the full API on top of it.
// One env per test function, in the name of isolation over speed.
type TestEnv struct {
	DB     *sqlx.DB
	Server *httptest.Server
	URL    string
	Bus    *pubsub.Bus

	client *http.Client
}

func NewTestEnv(t *testing.T, name string) (*TestEnv, error) {
	t.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, fmt.Errorf("connecting to docker: %w", err)
	}

	res, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "15-alpine",
		Env: []string{
			"POSTGRES_USER=postgres",
			"POSTGRES_PASSWORD=postgres",
			"POSTGRES_DB=" + name,
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, fmt.Errorf("starting postgres container: %w", err)
	}
	_ = res.Expire(300)

	t.Cleanup(func() {
		if err := pool.Purge(res); err != nil {
			t.Logf("purging container: %v", err)
		}
	})

	var db *sqlx.DB
	if err := pool.Retry(func() error {
		db, err = database.Open(config.DB{
			User:       "postgres",
			Password:   "postgres",
			Host:       res.GetHostPort("5432/tcp"),
			Name:       name,
			DisableTLS: true,
		})
		return err
	}); err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrating: %w", err)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	sm := scs.New()
	sm.Lifetime = time.Hour

	bg := background.New(logger)
	bus := pubsub.New()

	limiter := rate.New(100, time.Millisecond, time.Hour)
	t.Cleanup(limiter.Stop)

	mux := api.APIMux(api.APIConfig{
		Log:         logger,
		DB:          db,
		Session:     sm,
		Background:  bg,
		Bus:         bus,
		AdminToken:  adminToken,
		SubmitLimit: limiter,
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	return &TestEnv{
		DB:     db,
		Server: srv,
		URL:    srv.URL,
		Bus:    bus,
		client: &http.Client{Jar: jar},
	}, nil
}

// Client shares one cookie jar across requests: the same browser
// session, cart included.
func (te *TestEnv) Client() *http.Client {
	return te.client
}

func (te *TestEnv) request(t *testing.T, method, path string, body any, admin bool) *http.Response {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request body: %v", err)
		}
		rd = bytes.NewReader(b)
	}

	r, err := http.NewRequest(method, te.URL+path, rd)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if admin {
		r.Header.Set("Authorization", "Bearer "+adminToken)
	}

	w, err := te.client.Do(r)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return w
}

func (te *TestEnv) Do(t *testing.T, method, path string, body any) *http.Response {
	return te.request(t, method, path, body, false)
}

func (te *TestEnv) DoAdmin(t *testing.T, method, path string, body any) *http.Response {
	return te.request(t, method, path, body, true)
}

func decode(t *testing.T, w *http.Response, into any) {
	t.Helper()
	defer w.Body.Close()

	if err := json.NewDecoder(w.Body).Decode(into); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func wantStatus(t *testing.T, w *http.Response, want int) {
	t.Helper()

	if w.StatusCode != want {
		b, _ := io.ReadAll(w.Body)
		w.Body.Close()
		t.Fatalf("expected status %d, got %s: %s", want, w.Status, b)
	}
}
