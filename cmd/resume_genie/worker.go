package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/streadway/amqp"

	"github.com/jonathan/resume-genie/internal/config"
	"github.com/jonathan/resume-genie/internal/worker"
)

func amqpOverride(url *string) override {
	return override{"amqp-url", func(d, _ *config.Config) { d.AMQPURL = *url }}
}

func newWorkerCmd(g *globalFlags) *cobra.Command {
	var (
		amqpURL     string
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Consume queued runs from RabbitMQ",
		Long: fmt.Sprintf(`Consumes run requests from the %q queue and publishes progress to the %q topic exchange under run.<run id>.`,
			worker.QueueName, worker.UpdatesExchange),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := runContext(cmd)
			defer stop()

			cfg, err := g.resolve(cmd,
				amqpOverride(&amqpURL),
				override{"concurrency", func(d, _ *config.Config) { d.Concurrency = concurrency }},
			)
			if err != nil {
				return err
			}
			if cfg.AMQPURL == "" {
				return fmt.Errorf("RABBITMQ_URL environment variable or --amqp-url flag is required")
			}
			logger, err := newLogger(cmd.ErrOrStderr(), cfg)
			if err != nil {
				return err
			}

			p, closeGen, err := buildPipeline(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = closeGen() }()

			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			if store != nil {
				defer func() { _ = store.Close() }()
			}

			conn, err := amqp.Dial(cfg.AMQPURL)
			if err != nil {
				return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
			}
			defer func() { _ = conn.Close() }()

			pub, err := worker.NewAMQPPublisher(conn)
			if err != nil {
				return err
			}
			defer func() { _ = pub.Close() }()

			consumer := &worker.Consumer{
				URL:         cfg.AMQPURL,
				Concurrency: cfg.Concurrency,
				Worker:      worker.New(p, store, pub, logger),
				Logger:      logger,
			}
			logger.Info("worker starting", "queue", worker.QueueName, "concurrency", cfg.Concurrency)
			return consumer.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&amqpURL, "amqp-url", "", "RabbitMQ URL (defaults to RABBITMQ_URL)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Runs processed at once (default from config, 2)")
	return cmd
}

func newSubmitCmd(g *globalFlags) *cobra.Command {
	var (
		amqpURL string
		job     string
		resume  string
		id      string
	)
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Queue a run for the worker",
		Long:  "Loads the inputs locally and publishes a run request to RabbitMQ. Progress arrives on the updates exchange.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := runContext(cmd)
			defer stop()

			local := append(inputOverrides(&job, &resume), amqpOverride(&amqpURL))
			cfg, err := g.resolve(cmd, local...)
			if err != nil {
				return err
			}
			if cfg.AMQPURL == "" {
				return fmt.Errorf("RABBITMQ_URL environment variable or --amqp-url flag is required")
			}
			if cfg.JobPosting == "" || cfg.Resume == "" {
				return fmt.Errorf("--job and --resume must be provided (via flag, config or JOB_POSTING_PATH/RESUME_PATH)")
			}
			logger, err := newLogger(cmd.ErrOrStderr(), cfg)
			if err != nil {
				return err
			}

			jobText, resumeText, err := loadInputs(ctx, cfg.JobPosting, cfg.Resume, ingestOptions(cfg, logger))
			if err != nil {
				return err
			}

			conn, err := amqp.Dial(cfg.AMQPURL)
			if err != nil {
				return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
			}
			defer func() { _ = conn.Close() }()

			pub, err := worker.NewAMQPPublisher(conn)
			if err != nil {
				return err
			}
			defer func() { _ = pub.Close() }()

			req := worker.Request{
				ID:             id,
				JobPosting:     jobText,
				Resume:         resumeText,
				ValidateOutput: cfg.ValidateOutput,
			}
			if err := pub.Submit(ctx, req); err != nil {
				return fmt.Errorf("failed to submit run: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Queued run request %s on %s\n", id, worker.QueueName)
			return nil
		},
	}
	cmd.Flags().StringVar(&amqpURL, "amqp-url", "", "RabbitMQ URL (defaults to RABBITMQ_URL)")
	cmd.Flags().StringVarP(&job, "job", "j", "", "Job posting source (defaults to JOB_POSTING_PATH)")
	cmd.Flags().StringVarP(&resume, "resume", "r", "", "Resume source (defaults to RESUME_PATH)")
	cmd.Flags().StringVar(&id, "id", "", "Correlation ID echoed in updates (default: a new UUID)")
	cmd.PreRun = func(_ *cobra.Command, _ []string) {
		if id == "" {
			id = uuid.NewString()
		}
	}
	return cmd
}
