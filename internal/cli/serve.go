package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/motmystere/internal/content"
	"github.com/robalobadob/motmystere/internal/httpserver"
	"github.com/robalobadob/motmystere/internal/identity"
	"github.com/robalobadob/motmystere/internal/ids"
	"github.com/robalobadob/motmystere/internal/progress"
	"github.com/robalobadob/motmystere/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE:  runServe,
	}
	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDB(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	images, err := imageStore(ctx)
	if err != nil {
		return err
	}

	rounds := store.NewMemoryStore()
	go pruneRounds(ctx, rounds, cfg.RoundIdle)

	srv := httpserver.New(httpserver.Deps{
		Config: cfg,
		Rounds: rounds,
		Poems:  content.NewStore(db, ids.UUID{}),
		Images: images,
		Progress: progress.NewService(
			progress.NewGuestStore(progress.NewSQLKV(db)),
			progress.NewStore(db),
			ids.ULID{},
		),
		Tokens: identity.NewIssuer(cfg.JWTSecret, cfg.TokenTTL),
	})

	log.Info().Str("port", cfg.Port).Str("db", cfg.DBType).Str("images", cfg.ImageStore).Msg("starting motmystere")
	return srv.Start(ctx, ":"+cfg.Port)
}

func imageStore(ctx context.Context) (content.ImageStore, error) {
	switch cfg.ImageStore {
	case "local", "":
		return content.NewLocalImageStore(cfg.ImageDir, cfg.ImageBaseURL), nil
	case "s3":
		s3, err := content.NewS3ImageStore(ctx, cfg.S3Bucket, cfg.AWSRegion)
		if err != nil {
			return nil, err
		}
		return s3, nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported image store: %s", cfg.ImageStore)
	}
}

// pruneRounds drops rounds idle for longer than idle until ctx ends.
func pruneRounds(ctx context.Context, rounds store.Store, idle time.Duration) {
	if idle <= 0 {
		return
	}
	t := time.NewTicker(idle / 4)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := rounds.Prune(ctx, now.Add(-idle)); n > 0 {
				log.Info().Int("rounds", n).Msg("pruned idle rounds")
			}
		}
	}
}
