package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	gcpubsub "cloud.google.com/go/pubsub"
	gcstorage "cloud.google.com/go/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dictbatch/internal/api"
	"dictbatch/internal/batch"
	"dictbatch/internal/bing"
	"dictbatch/internal/config"
	"dictbatch/internal/dict"
	collyfetch "dictbatch/internal/fetch/colly"
	"dictbatch/internal/fetch/retry"
	"dictbatch/internal/logging"
	"dictbatch/internal/output"
	"dictbatch/internal/pgstore"
	"dictbatch/internal/progress"
	"dictbatch/internal/progress/sinks"
	pubsubpub "dictbatch/internal/publisher/pubsub"
	"dictbatch/internal/storage/gcs"
	"dictbatch/internal/storage/local"
	"dictbatch/internal/wordlist"
)

func newFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Run the batch lookup over the configured word list",
		Long: `Loads the word list, fans lookups over the worker pool, and writes
results incrementally so the output file stays a valid JSON document
even if the run is interrupted.`,
		RunE: runFetchCommand,
	}
	cmd.Flags().String("input", "", "word list path (overrides batch.input_path)")
	cmd.Flags().String("output", "", "result file path (overrides output.path)")
	cmd.Flags().Int("concurrency", 0, "worker count (overrides batch.concurrency)")
	return cmd
}

func runFetchCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := applyFlagOverrides(cmd, &cfg); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	words, err := wordlist.Load(cfg.Batch.InputPath)
	if err != nil {
		return fmt.Errorf("load word list: %w", err)
	}
	logger.Info("word list loaded",
		zap.String("path", cfg.Batch.InputPath),
		zap.Int("words", len(words)),
	)

	transport := collyfetch.New(collyfetch.Config{
		UserAgent: cfg.HTTP.UserAgent,
		Timeout:   cfg.RequestTimeout(),
	})
	client := bing.NewClient(bing.Config{
		Endpoint:  cfg.Dict.Endpoint,
		Market:    cfg.Dict.Market,
		SetLang:   cfg.Dict.SetLang,
		ClientVer: cfg.Dict.ClientVer,
		Form:      cfg.Dict.Form,
	}, transport)
	fetcher := retry.New(client, retry.Policy{
		MaxAttempts:  cfg.Retry.MaxAttempts,
		InitialDelay: cfg.InitialBackoff(),
		MaxDelay:     cfg.MaxBackoff(),
	}, logger.Named("retry"))

	sink, err := buildSink(cfg, logger.Named("output"))
	if err != nil {
		return err
	}

	blobs, err := buildBlobStore(ctx, cfg)
	if err != nil {
		return err
	}

	var publisher dict.Publisher
	if cfg.PubSub.Enabled {
		psClient, err := gcpubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			return fmt.Errorf("init pubsub client: %w", err)
		}
		pub, err := pubsubpub.New(psClient)
		if err != nil {
			return fmt.Errorf("init publisher: %w", err)
		}
		defer func() {
			if cerr := pub.Close(); cerr != nil {
				logger.Warn("close publisher", zap.Error(cerr))
			}
		}()
		publisher = pub
	}

	var ledger dict.OutcomeLedger
	if cfg.DB.Enabled {
		store, err := pgstore.New(ctx, pgstore.Config{
			DSN:      cfg.DB.DSN,
			Table:    cfg.DB.Table,
			MaxConns: cfg.DB.MaxConns,
		})
		if err != nil {
			return fmt.Errorf("init outcome ledger: %w", err)
		}
		defer store.Close()
		ledger = store
	}

	registry := prometheus.NewRegistry()
	hubSinks := []progress.Sink{sinks.NewLogSink(logger.Named("progress"))}
	if cfg.Metrics.Enabled {
		promSink, err := sinks.NewPrometheusSink(registry)
		if err != nil {
			return fmt.Errorf("init prometheus sink: %w", err)
		}
		hubSinks = append(hubSinks, promSink)
	}
	hub := progress.NewHub(progress.Config{Logger: logger.Named("hub")}, hubSinks...)

	if cfg.Metrics.Enabled {
		srv := api.NewServer(fmt.Sprintf(":%d", cfg.Metrics.Port), registry, logger.Named("api"))
		srv.Start()
		logger.Info("metrics listener started", zap.Int("port", cfg.Metrics.Port))
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if serr := srv.Shutdown(shutdownCtx); serr != nil {
				logger.Warn("metrics listener shutdown", zap.Error(serr))
			}
		}()
	}

	orch, err := batch.New(batch.Deps{
		Fetcher:   fetcher,
		Sink:      sink,
		Blobs:     blobs,
		Publisher: publisher,
		Ledger:    ledger,
		Emitter:   hub,
		Logger:    logger.Named("batch"),
	}, batch.Config{
		Concurrency:         cfg.Batch.Concurrency,
		Resume:              cfg.Batch.Resume,
		SnapshotPrefix:      cfg.Snapshot.Prefix,
		SnapshotContentType: cfg.Snapshot.ContentType,
		Topic:               cfg.PubSub.TopicName,
	})
	if err != nil {
		return fmt.Errorf("init orchestrator: %w", err)
	}

	summary, runErr := orch.Run(ctx, words)

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := hub.Close(closeCtx); err != nil {
		logger.Warn("close progress hub", zap.Error(err))
	}

	logger.Info("summary",
		zap.String("run_id", summary.RunID),
		zap.Int("total", summary.Total),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("not_found", summary.NotFound),
		zap.Int("skipped", summary.Skipped),
		zap.Int("dropped", summary.Dropped),
		zap.Duration("elapsed", summary.Elapsed),
	)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("run batch: %w", runErr)
	}
	return nil
}

func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("input") {
		cfg.Batch.InputPath, _ = cmd.Flags().GetString("input")
	}
	if cmd.Flags().Changed("output") {
		cfg.Output.Path, _ = cmd.Flags().GetString("output")
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Batch.Concurrency, _ = cmd.Flags().GetInt("concurrency")
	}
	if cfg.Batch.InputPath == "" {
		return fmt.Errorf("a word list is required: set batch.input_path or pass --input")
	}
	if cfg.Batch.Concurrency <= 0 {
		return fmt.Errorf("batch.concurrency must be > 0")
	}
	return nil
}

// buildSink selects the result sink. Resumed runs attach to the
// previous run's output file so skipped words keep their records and
// new appends extend it; a fresh run (or a resume with no file yet)
// starts from an empty file.
func buildSink(cfg config.Config, logger *zap.Logger) (dict.ResultSink, error) {
	switch cfg.Output.Format {
	case "ndjson":
		if cfg.Batch.Resume {
			w, err := output.OpenNDJSONWriter(cfg.Output.Path, logger)
			if err == nil {
				return w, nil
			}
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("open existing result file: %w", err)
			}
		}
		return output.NewNDJSONWriter(cfg.Output.Path, logger), nil
	default:
		if cfg.Batch.Resume {
			w, err := output.OpenArrayWriter(cfg.Output.Path, logger)
			if err == nil {
				return w, nil
			}
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("open existing result file: %w", err)
			}
		}
		return output.NewArrayWriter(cfg.Output.Path, logger), nil
	}
}

func buildBlobStore(ctx context.Context, cfg config.Config) (dict.BlobStore, error) {
	if !cfg.Snapshot.Enabled {
		return nil, nil
	}
	switch cfg.Snapshot.Backend {
	case "gcs":
		client, err := gcstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("init gcs client: %w", err)
		}
		store, err := gcs.New(client, gcs.Config{Bucket: cfg.Snapshot.GCSBucket})
		if err != nil {
			return nil, fmt.Errorf("init gcs store: %w", err)
		}
		return store, nil
	default:
		store, err := local.New(local.Config{BaseDir: cfg.Snapshot.BaseDir})
		if err != nil {
			return nil, fmt.Errorf("init local snapshot store: %w", err)
		}
		return store, nil
	}
}
