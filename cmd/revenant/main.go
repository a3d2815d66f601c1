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
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	revenant "github.com/poiesic/revenant"
	"github.com/poiesic/revenant/config"
	"github.com/poiesic/revenant/engine"
	"github.com/poiesic/revenant/reembed"
	"github.com/poiesic/revenant/server"
)

func main() {
	app := &cli.App{
		Name:  "revenant",
		Usage: "Digital ghost built from a person's written archive",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory (overrides REVENANT_DB_PATH)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the chat API over HTTP",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "HTTP listen address (overrides HTTP_ADDR)",
					},
				},
			},
			{
				Name:  "checkpoint",
				Usage: "Manage persona checkpoints",
				Subcommands: []*cli.Command{
					{
						Name:      "create",
						Usage:     "Create a new checkpoint",
						ArgsUsage: "<version>",
						Action:    checkpointCreateCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "description",
								Usage: "Human-readable description",
							},
							&cli.StringFlag{
								Name:  "config",
								Usage: "Persona config as a JSON object",
							},
						},
					},
					{
						Name:   "list",
						Usage:  "List checkpoints, newest first",
						Action: checkpointListCommand,
					},
					{
						Name:      "activate",
						Usage:     "Make a checkpoint the active one",
						ArgsUsage: "<version>",
						Action:    checkpointActivateCommand,
					},
					{
						Name:      "delete",
						Usage:     "Delete a checkpoint and its embedded corpus",
						ArgsUsage: "<version>",
						Action:    checkpointDeleteCommand,
					},
				},
			},
			{
				Name:      "ingest",
				Usage:     "Ingest archive files into a checkpoint's corpus",
				ArgsUsage: "<path>",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "checkpoint",
						Aliases:  []string{"c"},
						Usage:    "Target checkpoint version",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Input format: text or json",
						Value: "text",
					},
					&cli.StringFlag{
						Name:  "type",
						Usage: "Source type label recorded with each chunk",
						Value: "text",
					},
					&cli.StringFlag{
						Name:  "extensions",
						Usage: "Comma-separated extensions for directory ingestion",
					},
					&cli.StringFlag{
						Name:  "field",
						Usage: "JSON field holding message text (json format only)",
						Value: "text",
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Recompute all embeddings for a checkpoint's corpus",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "checkpoint",
						Aliases:  []string{"c"},
						Usage:    "Target checkpoint version",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of entries to process in each batch",
						Value: 50,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of concurrent embedding workers (0 = auto)",
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// openDatabase wires a Database from the environment, with the --db flag
// taking precedence over REVENANT_DB_PATH.
func openDatabase(c *cli.Context, cfg *config.Config) (*revenant.Database, error) {
	dbPath := c.String("db")
	if dbPath == "" {
		dbPath = cfg.DBPath
	}

	aiConfig := cfg.AIConfig()
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	db, err := revenant.NewDatabase(dbPath, revenant.WithAIConfig(aiConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func serveCommand(c *cli.Context) error {
	cfg := config.Load()

	db, err := openDatabase(c, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	addr := c.String("addr")
	if addr == "" {
		addr = cfg.HTTPAddr
	}

	ghost := db.NewEngine(
		engine.WithTemperature(cfg.Temperature),
		engine.WithMaxContextMessages(cfg.MaxContextMessages),
	)

	api := server.NewServer(ghost, db.NewCheckpointManager(), db.MessageRepository())
	return api.ListenAndServe(addr)
}

func checkpointCreateCommand(c *cli.Context) error {
	version := c.Args().First()
	if version == "" {
		return fmt.Errorf("checkpoint version is required")
	}

	var personaConfig map[string]any
	if raw := c.String("config"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &personaConfig); err != nil {
			return fmt.Errorf("invalid --config JSON: %w", err)
		}
	}

	db, err := openDatabase(c, config.Load())
	if err != nil {
		return err
	}
	defer db.Close()

	created, err := db.NewCheckpointManager().Create(
		context.Background(), version, c.String("description"), personaConfig, nil,
	)
	if err != nil {
		return err
	}

	fmt.Printf("Created checkpoint %s\n", created.Version)
	return nil
}

func checkpointListCommand(c *cli.Context) error {
	db, err := openDatabase(c, config.Load())
	if err != nil {
		return err
	}
	defer db.Close()

	checkpoints, err := db.NewCheckpointManager().List(context.Background())
	if err != nil {
		return err
	}

	if len(checkpoints) == 0 {
		fmt.Println("No checkpoints")
		return nil
	}

	for _, ckpt := range checkpoints {
		marker := " "
		if ckpt.IsActive {
			marker = "*"
		}
		fmt.Printf("%s %-12s %s  %s\n",
			marker, ckpt.Version, ckpt.CreatedAt.Format("2006-01-02 15:04"), ckpt.Description)
	}
	return nil
}

func checkpointActivateCommand(c *cli.Context) error {
	version := c.Args().First()
	if version == "" {
		return fmt.Errorf("checkpoint version is required")
	}

	db, err := openDatabase(c, config.Load())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.NewCheckpointManager().Activate(context.Background(), version); err != nil {
		return err
	}

	fmt.Printf("Checkpoint %s is now active\n", version)
	return nil
}

func checkpointDeleteCommand(c *cli.Context) error {
	version := c.Args().First()
	if version == "" {
		return fmt.Errorf("checkpoint version is required")
	}

	db, err := openDatabase(c, config.Load())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.NewCheckpointManager().Delete(context.Background(), version); err != nil {
		return err
	}

	fmt.Printf("Checkpoint %s deleted\n", version)
	return nil
}

func ingestCommand(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("input path is required")
	}

	format := c.String("format")
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid format %q: must be text or json", format)
	}

	db, err := openDatabase(c, config.Load())
	if err != nil {
		return err
	}
	defer db.Close()

	pipeline, err := db.NewIngestionPipeline()
	if err != nil {
		return err
	}

	ctx := context.Background()
	version := c.String("checkpoint")

	var ids []string
	switch {
	case format == "json":
		ids, err = pipeline.IngestMessages(ctx, version, path, c.String("field"))
	default:
		info, statErr := os.Stat(path)
		if statErr != nil {
			return statErr
		}
		if info.IsDir() {
			var extensions []string
			if raw := c.String("extensions"); raw != "" {
				for _, ext := range strings.Split(raw, ",") {
					extensions = append(extensions, strings.TrimSpace(ext))
				}
			}
			ids, err = pipeline.IngestDirectory(ctx, version, path, c.String("type"), extensions)
		} else {
			ids, err = pipeline.IngestFile(ctx, version, path, c.String("type"))
		}
	}
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("Ingested %d chunks into checkpoint %s\n", len(ids), version)
	return nil
}

func reembedCommand(c *cli.Context) error {
	db, err := openDatabase(c, config.Load())
	if err != nil {
		return err
	}
	defer db.Close()

	reembedConfig := reembed.DefaultConfig()
	reembedConfig.BatchSize = c.Int("batch-size")
	reembedConfig.MaxRetries = c.Int("max-retries")
	reembedConfig.RetryDelay = c.Duration("retry-delay")
	if workers := c.Int("workers"); workers > 0 {
		reembedConfig.Workers = workers
	}

	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	reembedder, err := db.NewReembedder(reembedConfig, os.Stderr)
	if err != nil {
		return err
	}

	version := c.String("checkpoint")
	fmt.Fprintf(os.Stderr, "Checkpoint: %s\n\n", version)

	if err := reembedder.Run(context.Background(), version); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
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
