// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/corpus"
	"github.com/poiesic/corpus/ai"
	"github.com/poiesic/corpus/blob/minio"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/ingestion"
	"github.com/poiesic/corpus/vectorstore"
	"github.com/poiesic/corpus/vectorstore/qdrant"
)

func main() {
	app := &cli.App{
		Name:  "corpus",
		Usage: "Document ingestion for a retrieval index",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "submit",
				Usage:  "Submit a document for ingestion and wait for the job to settle",
				Action: submitCommand,
				Flags: append(storeFlags(),
					&cli.StringFlag{
						Name:     "path",
						Usage:    "Source object path within the bucket",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "repository",
						Aliases:  []string{"r"},
						Usage:    "Repository identifier",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name (defaults to the repository model)",
					},
					&cli.StringFlag{
						Name:  "username",
						Usage: "Submitting user recorded on the job",
					},
					&cli.IntFlag{
						Name:  "max-batch-chars",
						Usage: "Per-batch embedding payload budget in characters",
						Value: ingestion.DefaultMaxBatchChars,
					},
					&cli.DurationFlag{
						Name:  "wait",
						Usage: "How long to wait for the job to reach a terminal state",
						Value: 5 * time.Minute,
					},
				),
			},
			{
				Name:   "remove",
				Usage:  "Remove an ingested document and its vectors",
				Action: removeCommand,
				Flags: append(storeFlags(),
					&cli.StringFlag{
						Name:     "path",
						Usage:    "Source object path within the bucket",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "repository",
						Aliases:  []string{"r"},
						Usage:    "Repository identifier",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "username",
						Usage: "Requesting user recorded on the job",
					},
				),
			},
			{
				Name:   "status",
				Usage:  "Show every job ever recorded for a source path",
				Action: statusCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.StringFlag{
						Name:     "path",
						Usage:    "Source object path within the bucket",
						Required: true,
					},
				},
			},
			{
				Name:   "jobs",
				Usage:  "List a repository's jobs in creation order",
				Action: jobsCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.StringFlag{
						Name:     "repository",
						Aliases:  []string{"r"},
						Usage:    "Repository identifier",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "page-size",
						Usage: "Jobs per page",
						Value: 20,
					},
					&cli.StringFlag{
						Name:  "cursor",
						Usage: "Resume listing from a previously printed cursor",
					},
				},
			},
			{
				Name:   "cleanup",
				Usage:  "Remove every document, vector and object belonging to a repository",
				Action: cleanupCommand,
				Flags: append(storeFlags(),
					&cli.StringFlag{
						Name:     "repository",
						Aliases:  []string{"r"},
						Usage:    "Repository identifier",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "archive-prefix",
						Usage: "Copy each source object under this prefix before deleting it (empty disables archiving)",
						Value: "archive/",
					},
					&cli.DurationFlag{
						Name:  "poll-interval",
						Usage: "How often to re-check for active deletion jobs",
						Value: 2 * time.Second,
					},
					&cli.DurationFlag{
						Name:  "poll-timeout",
						Usage: "How long to wait for active deletion jobs to settle",
						Value: 5 * time.Minute,
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func dbFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "db",
		Aliases:  []string{"d"},
		Usage:    "Path to BadgerDB database directory",
		Required: true,
	}
}

// storeFlags are shared by the commands that touch the vector and object
// stores in addition to the local database.
func storeFlags() []cli.Flag {
	return []cli.Flag{
		dbFlag(),
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-token",
			Usage: "Embedding service API token",
			Value: "none",
		},
		&cli.StringFlag{
			Name:  "qdrant-host",
			Usage: "Qdrant host",
			Value: "localhost",
		},
		&cli.StringFlag{
			Name:  "qdrant-port",
			Usage: "Qdrant gRPC port",
			Value: "6334",
		},
		&cli.Uint64Flag{
			Name:  "vector-size",
			Usage: "Embedding vector dimension",
			Value: 768,
		},
		&cli.StringFlag{
			Name:  "minio-endpoint",
			Usage: "MinIO endpoint",
			Value: "localhost:9000",
		},
		&cli.StringFlag{
			Name:  "minio-access-key",
			Usage: "MinIO access key",
			Value: "minioadmin",
		},
		&cli.StringFlag{
			Name:  "minio-secret-key",
			Usage: "MinIO secret key",
			Value: "minioadmin",
		},
		&cli.StringFlag{
			Name:     "bucket",
			Usage:    "Bucket holding the source documents",
			Required: true,
		},
	}
}

// openCorpus assembles the full stack from the store flags.
func openCorpus(ctx context.Context, c *cli.Context) (*corpus.Corpus, error) {
	vectors, err := qdrant.NewStore(c.String("qdrant-host"), c.String("qdrant-port"), c.Uint64("vector-size"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to vector store: %w", err)
	}

	blobs, err := minio.NewStore(ctx, minio.Config{
		Endpoint:  c.String("minio-endpoint"),
		AccessKey: c.String("minio-access-key"),
		SecretKey: c.String("minio-secret-key"),
		Bucket:    c.String("bucket"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to object store: %w", err)
	}

	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("embedding-host")),
		ai.WithToken(c.String("embedding-token")),
	)

	return corpus.New(c.String("db"),
		corpus.WithAIConfig(aiConfig),
		corpus.WithVectorStore(vectors),
		corpus.WithBlobStore(blobs),
	)
}

func submitCommand(c *cli.Context) error {
	ctx := context.Background()

	cp, err := openCorpus(ctx, c)
	if err != nil {
		return err
	}
	defer cp.Close()

	svc, err := cp.NewIngestionService([]ingestion.BatcherOption{
		ingestion.WithMaxBatchChars(c.Int("max-batch-chars")),
	})
	if err != nil {
		return err
	}
	defer svc.Release()

	repo := &core.RepositoryConfig{
		Id:                    c.String("repository"),
		DefaultEmbeddingModel: c.String("embedding-model"),
	}
	req := &core.IngestionRequest{
		SourcePath: c.String("path"),
		Username:   c.String("username"),
	}

	job, err := svc.CreateJob(ctx, repo, nil, req)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Created job %s (%s)\n", job.Id, job.Status)

	if err := svc.SubmitIngest(job); err != nil {
		return fmt.Errorf("failed to submit job: %w", err)
	}

	final, err := waitForTerminal(ctx, cp, job.Id, c.Duration("wait"))
	if err != nil {
		return err
	}
	printJob(final)
	if final.Status == core.StatusIngestionFailed {
		return fmt.Errorf("ingestion failed: %s", final.Failure)
	}
	return nil
}

func removeCommand(c *cli.Context) error {
	ctx := context.Background()

	cp, err := openCorpus(ctx, c)
	if err != nil {
		return err
	}
	defer cp.Close()

	svc, err := cp.NewIngestionService(nil)
	if err != nil {
		return err
	}
	defer svc.Release()

	job, err := svc.CreateDeletionJob(ctx, c.String("repository"), c.String("path"), c.String("username"))
	if err != nil {
		return fmt.Errorf("failed to create deletion job: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Created deletion job %s\n", job.Id)

	if err := svc.Delete(ctx, job); err != nil {
		return fmt.Errorf("deletion failed: %w", err)
	}
	printJob(job)
	return nil
}

func statusCommand(c *cli.Context) error {
	ctx := context.Background()

	cp, err := openLocal(c)
	if err != nil {
		return err
	}
	defer cp.Close()

	jobs, err := cp.JobRepository().FindByPath(ctx, c.String("path"))
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		fmt.Println("no jobs recorded for this path")
		return nil
	}
	for _, job := range jobs {
		printJob(job)
	}
	return nil
}

func jobsCommand(c *cli.Context) error {
	ctx := context.Background()

	cp, err := openLocal(c)
	if err != nil {
		return err
	}
	defer cp.Close()

	svc, err := cp.NewIngestionService(nil)
	if err != nil {
		return err
	}
	defer svc.Release()

	jobs, next, err := svc.ListJobs(ctx, c.String("repository"), c.Int("page-size"), c.String("cursor"), time.Minute)
	if err != nil {
		return err
	}
	for _, job := range jobs {
		printJob(job)
	}
	if next != "" {
		fmt.Printf("next cursor: %s\n", next)
	}
	return nil
}

func cleanupCommand(c *cli.Context) error {
	ctx := context.Background()

	cp, err := openCorpus(ctx, c)
	if err != nil {
		return err
	}
	defer cp.Close()

	var svcOpts []ingestion.ServiceOption
	if prefix := c.String("archive-prefix"); prefix != "" {
		svcOpts = append(svcOpts, ingestion.WithCleanupArchivePrefix(prefix))
	}
	svc, err := cp.NewIngestionService(nil, svcOpts...)
	if err != nil {
		return err
	}
	defer svc.Release()

	repositoryID := c.String("repository")

	// Wait for in-flight deletion jobs before tearing the repository down.
	deadline := time.Now().Add(c.Duration("poll-timeout"))
	for {
		done, err := svc.PendingDeletionsComplete(ctx, repositoryID)
		if err != nil {
			return err
		}
		if done {
			break
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("deletion jobs for %s still active after %s", repositoryID, c.Duration("poll-timeout"))
		}
		fmt.Fprintln(os.Stderr, "waiting for active deletion jobs...")
		time.Sleep(c.Duration("poll-interval"))
	}

	total := 0
	cursor := ""
	for {
		removed, next, err := svc.CleanupPage(ctx, repositoryID, cursor)
		if err != nil {
			return fmt.Errorf("cleanup failed after %d documents: %w", total, err)
		}
		total += removed
		if next == "" {
			break
		}
		cursor = next
	}

	fmt.Printf("removed %d documents from %s\n", total, repositoryID)
	return nil
}

// openLocal opens only the local database, with the remote stores mocked
// out. Used by read-only commands.
func openLocal(c *cli.Context) (*corpus.Corpus, error) {
	return corpus.New(c.String("db"),
		corpus.WithEmbedder(noEmbedder{}),
		corpus.WithVectorStore(noVectors{}),
		corpus.WithBlobStore(noBlobs{}),
	)
}

// Stubs satisfying the store interfaces for commands that never touch the
// remote services.
type noEmbedder struct{}

func (noEmbedder) Embed(ctx context.Context, texts []string, model string) ([][]float32, error) {
	return nil, fmt.Errorf("embedding service not configured")
}

type noVectors struct{}

func (noVectors) Add(ctx context.Context, collection string, records []vectorstore.Record) error {
	return fmt.Errorf("vector store not configured")
}

func (noVectors) DeleteByFilter(ctx context.Context, collection string, filter vectorstore.Filter) error {
	return fmt.Errorf("vector store not configured")
}

type noBlobs struct{}

func (noBlobs) Get(ctx context.Context, path string) ([]byte, error) {
	return nil, fmt.Errorf("object store not configured")
}

func (noBlobs) Copy(ctx context.Context, srcPath, dstPath string) error {
	return fmt.Errorf("object store not configured")
}

func (noBlobs) Delete(ctx context.Context, path string) error {
	return fmt.Errorf("object store not configured")
}

func waitForTerminal(ctx context.Context, cp *corpus.Corpus, id core.JobID, wait time.Duration) (*core.IngestionJob, error) {
	deadline := time.Now().Add(wait)
	for {
		job, err := cp.JobRepository().FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if core.IsTerminalStatus(job.Status) {
			return job, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("job %s still %s after %s", id, job.Status, wait)
		}
		time.Sleep(500 * time.Millisecond)
	}
}

func printJob(job *core.IngestionJob) {
	fmt.Printf("%s  %-20s  %s", job.Id, job.Status, job.SourcePath)
	if job.Failure != "" {
		fmt.Printf("  (%s)", job.Failure)
	}
	fmt.Println()
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
