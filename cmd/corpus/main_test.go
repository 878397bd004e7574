package main

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestJobsCommandFlags(t *testing.T) {
	var captured *cli.Context
	app := &cli.App{
		Name: "corpus",
		Commands: []*cli.Command{
			{
				Name: "jobs",
				Action: func(c *cli.Context) error {
					captured = c
					return nil
				},
				Flags: []cli.Flag{
					dbFlag(),
					&cli.StringFlag{Name: "repository", Aliases: []string{"r"}, Required: true},
					&cli.IntFlag{Name: "page-size", Value: 20},
					&cli.StringFlag{Name: "cursor"},
				},
			},
		},
	}

	t.Run("repository is required", func(t *testing.T) {
		err := app.Run([]string{"corpus", "jobs", "--db", "/tmp/test"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "repository")
	})

	t.Run("db is required", func(t *testing.T) {
		err := app.Run([]string{"corpus", "jobs", "--repository", "repo-1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db")
	})

	t.Run("defaults apply", func(t *testing.T) {
		err := app.Run([]string{"corpus", "jobs", "--db", "/tmp/test", "-r", "repo-1"})
		require.NoError(t, err)
		require.NotNil(t, captured)
		assert.Equal(t, 20, captured.Int("page-size"))
		assert.Empty(t, captured.String("cursor"))
	})
}

func TestStoreFlagDefaults(t *testing.T) {
	var captured *cli.Context
	app := &cli.App{
		Name: "corpus",
		Commands: []*cli.Command{
			{
				Name: "submit",
				Action: func(c *cli.Context) error {
					captured = c
					return nil
				},
				Flags: storeFlags(),
			},
		},
	}

	err := app.Run([]string{"corpus", "submit", "--db", "/tmp/test", "--bucket", "docs"})
	require.NoError(t, err)
	require.NotNil(t, captured)
	assert.Equal(t, "localhost", captured.String("qdrant-host"))
	assert.Equal(t, "6334", captured.String("qdrant-port"))
	assert.Equal(t, uint64(768), captured.Uint64("vector-size"))
	assert.Equal(t, "localhost:9000", captured.String("minio-endpoint"))
}

func TestSetupLogger(t *testing.T) {
	defer slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	app := &cli.App{
		Name: "corpus",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: "info"},
		},
		Before: setupLogger,
		Action: func(c *cli.Context) error { return nil },
	}

	assert.NoError(t, app.Run([]string{"corpus", "--log-level", "debug"}))
	assert.NoError(t, app.Run([]string{"corpus", "--log-level", "WARN"}))
	assert.Error(t, app.Run([]string{"corpus", "--log-level", "verbose"}))
}
