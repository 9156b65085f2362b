package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zhouzirui/z-interview/backend/internal/config"
	"github.com/zhouzirui/z-interview/backend/internal/logger"
	"github.com/zhouzirui/z-interview/backend/internal/model/interview"
	"github.com/zhouzirui/z-interview/backend/internal/service/ai"
	"github.com/zhouzirui/z-interview/backend/internal/service/feedback"
	interviewService "github.com/zhouzirui/z-interview/backend/internal/service/interview"
)

const app = "practice"

var rootCmd = &cobra.Command{
	Use:           app,
	Short:         "practice is a terminal shell for rehearsing a five-question job interview",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd)
	},
}

// Execute executes the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output on stderr")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.Flags().String("env-file", ".env", "dotenv file loaded before the environment is read")
}

func run(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	envFile, _ := cmd.Flags().GetString("env-file")
	if err := godotenv.Load(envFile); err != nil {
		log.Printf("warning: failed to load %s: %v", envFile, err)
	}

	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, config.ErrMissingCredential) {
			return fmt.Errorf("configuration error: %w", err)
		}
		return fmt.Errorf("loading configuration: %w", err)
	}

	debug, _ := cmd.Flags().GetBool("debug")
	jsonLogs, _ := cmd.Flags().GetBool("json")
	zl := zap.NewNop()
	if debug {
		if zl, err = logger.New(jsonLogs, true); err != nil {
			return fmt.Errorf("creating a logger: %w", err)
		}
		defer func() { _ = zl.Sync() }()
	}

	aiService, err := ai.NewService(ctx, cfg.AI, zl)
	if err != nil {
		return err
	}
	evaluator, err := feedback.NewService(ctx, aiService, zl)
	if err != nil {
		return err
	}

	sh := &shell{
		session:   interviewService.NewSession(uuid.NewString()),
		catalog:   interview.NewMemoryStore(interview.Seed()),
		responder: aiService,
		evaluator: evaluator,
		prompter:  terminalPrompter{},
		out:       cmd.OutOrStdout(),
		logger:    zl,
	}
	err = sh.Run(ctx)
	if errors.Is(err, errQuit) {
		return nil
	}
	return err
}
