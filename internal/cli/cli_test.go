package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcity/incidentmap/internal/config"
	"github.com/smartcity/incidentmap/internal/domain"
)

const seedJSON = `[
	{"id": 1, "datetime": "2024-01-01 10:00:00", "complaint": "Theft", "address": "MG Road",
	 "district": "Bhopal", "call_type": "Emergency", "lon": 77.41, "lat": 23.26},
	{"id": 2, "datetime": "2024-01-02 11:00:00", "complaint": "Assault", "address": "",
	 "district": "Indore", "call_type": "Information", "lon": 75.86, "lat": 22.72},
	{"id": 3, "datetime": "", "complaint": "Theft", "address": "",
	 "district": "Bhopal", "call_type": "Information", "lon": null, "lat": null}
]`

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, Execute(context.Background(), args, &out))
	return out.String()
}

func seededDB(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	file := filepath.Join(dir, "incidents.json")
	require.NoError(t, os.WriteFile(file, []byte(seedJSON), 0o600))

	db := filepath.Join(dir, "db", "incidents.db")
	out := run(t, "seed", "--sqlite", db, "--file", file)
	assert.Contains(t, out, "seeded 3 incidents")
	return db
}

func TestVocab(t *testing.T) {
	db := seededDB(t)

	var vocab domain.Vocabularies
	require.NoError(t, json.Unmarshal([]byte(run(t, "vocab", "--driver", "sqlite", "--sqlite", db)), &vocab))
	assert.Equal(t, []string{"Bhopal", "Indore"}, vocab.District)
	assert.Equal(t, []string{"Assault", "Theft"}, vocab.Complaint)
	assert.Equal(t, []string{"Emergency", "Information"}, vocab.CallType)
}

func TestFilter_StoreAndLocalAgree(t *testing.T) {
	db := seededDB(t)

	var remote, local []domain.Incident
	require.NoError(t, json.Unmarshal([]byte(
		run(t, "filter", "--driver", "sqlite", "--sqlite", db, "--complaint", "Theft")), &remote))
	require.NoError(t, json.Unmarshal([]byte(
		run(t, "filter", "--driver", "sqlite", "--sqlite", db, "--complaint", "Theft", "--local")), &local))

	require.Len(t, remote, 2)
	assert.Equal(t, remote, local)
}

func TestRender(t *testing.T) {
	db := seededDB(t)

	out := run(t, "render", "--driver", "sqlite", "--sqlite", db,
		"--district", "Bhopal", "--zoom", "10", "--boundaries", filepath.Join(t.TempDir(), "missing.json"))

	var res struct {
		Matched    int  `json:"matched"`
		Positioned int  `json:"positioned"`
		Zoom       int  `json:"zoom"`
		NoChange   bool `json:"no_change"`
		Clusters   []struct {
			Count   int               `json:"count"`
			Members []json.RawMessage `json:"members"`
		} `json:"clusters"`
		Viewport struct {
			Source string `json:"source"`
		} `json:"viewport"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 2, res.Matched)
	assert.Equal(t, 1, res.Positioned)
	assert.Equal(t, 10, res.Zoom)
	assert.False(t, res.NoChange)
	require.Len(t, res.Clusters, 1)
	assert.Equal(t, 1, res.Clusters[0].Count)
	assert.Nil(t, res.Clusters[0].Members)
	// no boundary file, so the clusters drive the viewport
	assert.Equal(t, "clusters", res.Viewport.Source)
}

func TestUnknownDriver(t *testing.T) {
	var out bytes.Buffer
	err := Execute(context.Background(), []string{"vocab", "--driver", "oracle"}, &out)
	assert.Error(t, err)
}

func TestRootOptions_KeepConfiguredLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DATABASE_DRIVER", "mock")

	cfg, err := config.Load()
	require.NoError(t, err)
	(&RootOptions{}).apply(cfg)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, config.DriverMock, cfg.Database.Driver)

	(&RootOptions{LogLevel: "error", Driver: config.DriverSQLite, SQLitePath: "/tmp/x.db"}).apply(cfg)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, config.DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "/tmp/x.db", cfg.Database.SQLitePath)
}

func TestLogLevelFlag(t *testing.T) {
	var out bytes.Buffer
	err := Execute(context.Background(), []string{"vocab", "--driver", "mock", "--log-level", "loud"}, &out)
	assert.Error(t, err)

	t.Setenv("LOG_LEVEL", "loud")
	err = Execute(context.Background(), []string{"vocab", "--driver", "mock"}, &out)
	assert.Error(t, err, "LOG_LEVEL is validated when the flag is absent")

	t.Setenv("LOG_LEVEL", "debug")
	out.Reset()
	require.NoError(t, Execute(context.Background(), []string{"vocab", "--driver", "mock", "--log-level", "error"}, &out))
	var vocab domain.Vocabularies
	require.NoError(t, json.Unmarshal(out.Bytes(), &vocab))
	assert.NotEmpty(t, vocab.District)
}
