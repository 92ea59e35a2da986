package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/oksasatya/go-social-graph/config"
	"github.com/oksasatya/go-social-graph/internal/application"
	"github.com/oksasatya/go-social-graph/internal/bootstrap"
	"github.com/oksasatya/go-social-graph/internal/domain"
	"github.com/oksasatya/go-social-graph/pkg/helpers"
)

// seed loads a small demo graph into the configured store:
// alice->bob, bob->carol, bob->dave, carol->dave. Every password is "password123".
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)
	ctx := context.Background()

	store, err := bootstrap.OpenStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer func() { _ = store.Close() }()

	index, err := bootstrap.OpenSearch(ctx, cfg, store, logger)
	if err != nil {
		log.Fatalf("failed to open search index: %v", err)
	}
	svc := application.NewService(store, index, nil, logger)

	const password = "password123"
	users := []application.CreateUserInput{
		{Username: "alice", Name: "Alice Anders", Email: "alice@example.com", Bio: "first in line"},
		{Username: "bob", Name: "Bob Builder", Email: "bob@example.com"},
		{Username: "carol", Name: "Carol Chen", Email: "carol@example.com"},
		{Username: "dave", Name: "Dave Dunn", Email: "dave@example.com"},
	}
	for _, in := range users {
		in.Password = password
		_, err := svc.CreateUser(ctx, in)
		switch {
		case errors.Is(err, domain.ErrConflict):
			fmt.Printf("user %s already exists\n", in.Username)
		case err != nil:
			log.Fatalf("failed to seed user %s: %v", in.Username, err)
		default:
			fmt.Printf("seeded user: username=%s name=%q password=%s\n", in.Username, in.Name, password)
		}
	}

	edges := [][2]string{{"alice", "bob"}, {"bob", "carol"}, {"bob", "dave"}, {"carol", "dave"}}
	for _, e := range edges {
		created, err := svc.Follow(ctx, e[0], e[1])
		if err != nil {
			log.Fatalf("failed to seed edge %s->%s: %v", e[0], e[1], err)
		}
		if created {
			fmt.Printf("seeded edge: %s -> %s\n", e[0], e[1])
		}
	}
	if cfg.StoreBackend == bootstrap.StoreMemory {
		fmt.Println("note: STORE_BACKEND=memory, the seeded graph is gone when this process exits")
	}
}
