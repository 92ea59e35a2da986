package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-social-graph/config"
	"github.com/oksasatya/go-social-graph/internal/application"
	"github.com/oksasatya/go-social-graph/internal/bootstrap"
	"github.com/oksasatya/go-social-graph/internal/cli"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	open := func(ctx context.Context, logger *logrus.Logger) (*application.Service, func(), error) {
		store, err := bootstrap.OpenStore(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		index, err := bootstrap.OpenSearch(ctx, cfg, store, logger)
		if err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		return application.NewService(store, index, nil, logger), func() { _ = store.Close() }, nil
	}

	if err := cli.NewRootCmd(open, os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
