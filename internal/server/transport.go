package server

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/deojon/studio/config"
	"github.com/deojon/studio/internal/cloudsync"
	"github.com/deojon/studio/internal/db"
	"github.com/deojon/studio/internal/mq"
	"github.com/deojon/studio/internal/storage"
	"github.com/deojon/studio/internal/store"
	"github.com/deojon/studio/types"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// OpenTransport connects the envelope transport selected by
// cfg.Sync.Transport. The returned closer releases its connections.
func OpenTransport(ctx context.Context, cfg config.Config) (cloudsync.Transport, io.Closer, error) {
	switch cfg.Sync.Transport {
	case "bucket":
		s, err := storage.Open(ctx, cfg.Storage)
		if err != nil {
			return nil, nil, fmt.Errorf("open storage: %w", err)
		}
		log.Printf("[sync] using bucket transport on %s (prefix %q)", s.Bucket(), cfg.Sync.Prefix)
		return cloudsync.NewBucketTransport(s, cfg.Sync.Prefix), s, nil

	case "queue":
		broker, err := mq.Open(ctx, cfg.MQ)
		if err != nil {
			return nil, nil, fmt.Errorf("open mq: %w", err)
		}
		transport := cloudsync.NewQueueTransport(broker)
		subCtx, cancel := context.WithCancel(ctx)
		transport.Start(subCtx, types.SyncCategories)
		log.Printf("[sync] using queue transport (%s)", cfg.MQ.Backend)
		return transport, closerFunc(func() error {
			cancel()
			err := broker.Close()
			transport.Wait()
			return err
		}), nil

	case "log":
		conn, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		log.Printf("[sync] using postgres envelope log on %s", cfg.Database.Host)
		return cloudsync.NewLogTransport(store.NewEnvelopeRepository(conn)), conn, nil

	case "", "memory":
		return cloudsync.NewMemoryTransport(), closerFunc(func() error { return nil }), nil

	default:
		return nil, nil, fmt.Errorf("unknown sync transport %q", cfg.Sync.Transport)
	}
}
