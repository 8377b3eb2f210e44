package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/socialsuit/Backend-Socialsuit/internal/config"
	"github.com/socialsuit/Backend-Socialsuit/internal/database"
	"github.com/socialsuit/Backend-Socialsuit/internal/queue"
	"github.com/socialsuit/Backend-Socialsuit/internal/ratelimit"
)

// NewPingCmd creates the store connectivity probe command.
func NewPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Probe every configured backing store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			pingRedis(ctx, cfg.RedisURL)
			pingPostgres(ctx, cfg.DatabaseURL)
			pingMongo(ctx, cfg.MongoURL)
			pingRabbitMQ(cfg.RabbitMQURL)
			return nil
		},
	}
}

func pingRedis(ctx context.Context, url string) {
	if url == "" {
		fmt.Println("redis:    not configured")
		return
	}
	store, err := ratelimit.NewRedisStore(url)
	if err != nil {
		fmt.Printf("redis:    FAILED (%v)\n", err)
		return
	}
	defer func() { _ = store.Close() }()
	fmt.Println("redis:    ok")
}

func pingPostgres(ctx context.Context, url string) {
	if url == "" {
		fmt.Println("postgres: not configured")
		return
	}
	db, err := database.New(ctx, url)
	if err != nil {
		fmt.Printf("postgres: FAILED (%v)\n", err)
		return
	}
	defer func() { _ = db.Close() }()
	fmt.Println("postgres: ok")
}

func pingMongo(ctx context.Context, url string) {
	if url == "" {
		fmt.Println("mongo:    not configured")
		return
	}
	m, err := database.NewMongo(ctx, url)
	if err != nil {
		fmt.Printf("mongo:    FAILED (%v)\n", err)
		return
	}
	defer func() { _ = m.Close(ctx) }()
	fmt.Println("mongo:    ok")
}

func pingRabbitMQ(url string) {
	if url == "" {
		fmt.Println("rabbitmq: not configured")
		return
	}
	p, err := queue.NewRabbitMQPublisher(url)
	if err != nil {
		fmt.Printf("rabbitmq: FAILED (%v)\n", err)
		return
	}
	defer func() { _ = p.Close() }()
	fmt.Println("rabbitmq: ok")
}
