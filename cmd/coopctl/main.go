// Command coopctl is the terminal client for the cooperative registration
// platform. It keeps the signed-in token in a file and offers the same
// screens as the web UI, gated by the same route policy.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"

	"github.com/dalemusser/coophub/internal/app/system/apiclient"
	"github.com/dalemusser/coophub/internal/app/system/credstore"
	"github.com/dalemusser/coophub/internal/app/system/guard"
	"github.com/dalemusser/coophub/internal/app/system/notify"
	"github.com/dalemusser/coophub/internal/app/system/session"
	"github.com/dalemusser/coophub/internal/cli"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, cli.ErrReported) {
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	// A missing .env is normal; a malformed one is not.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	defaultAPI := os.Getenv("COOPHUB_API_BASE_URL")
	if defaultAPI == "" {
		defaultAPI = "http://localhost:8001"
	}

	global := pflag.NewFlagSet("coopctl", pflag.ContinueOnError)
	global.SetInterspersed(false)
	apiURL := global.String("api", defaultAPI, "cooperative API base URL ($COOPHUB_API_BASE_URL)")
	tokenFile := global.String("token-file", credstore.DefaultTokenPath(), "where the signed-in token is kept ($COOPHUB_TOKEN_FILE)")
	policyFile := global.String("policy", "", "route policy YAML (default: built-in)")
	verbose := global.BoolP("verbose", "v", false, "log API calls to stderr")
	if err := global.Parse(args); err != nil {
		return err
	}

	logger, err := newLogger(*verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	api, err := apiclient.New(apiclient.Config{BaseURL: *apiURL}, logger)
	if err != nil {
		return err
	}
	policy := guard.Default()
	if *policyFile != "" {
		data, err := os.ReadFile(*policyFile)
		if err != nil {
			return fmt.Errorf("read route policy: %w", err)
		}
		if policy, err = guard.Load(data); err != nil {
			return fmt.Errorf("route policy %s: %w", *policyFile, err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := session.New(api, credstore.NewFile(*tokenFile), notify.Writer{W: os.Stderr}, logger)
	m.Restore(ctx)

	app := &cli.App{
		Session: m,
		Policy:  policy,
		Log:     logger,
		In:      os.Stdin,
		Out:     os.Stdout,
		Err:     os.Stderr,
	}
	return app.Run(ctx, global.Args())
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}
