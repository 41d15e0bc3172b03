package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	sessioncache "tourbook/internal/adapters/cache/redis"
	"tourbook/internal/adapters/db/memory"
	"tourbook/internal/adapters/db/mongo"
	"tourbook/internal/adapters/db/postgres"
	"tourbook/internal/adapters/email/smtp"
	"tourbook/internal/adapters/payment/stripe"
	"tourbook/internal/adapters/storage/minio"
	"tourbook/internal/config"
	"tourbook/internal/domain/auth"
	"tourbook/internal/domain/media"
	"tourbook/internal/domain/notification"
	"tourbook/internal/domain/payment"
	"tourbook/internal/domain/tour"
)

// tourStore persists tours, reviews and bookings together
type tourStore interface {
	tour.Repository
	tour.ReviewRepository
	tour.BookingRepository
}

type stores struct {
	users    auth.UserRepository
	sessions auth.SessionRepository
	tours    tourStore
	closers  []func(context.Context) error
}

func (s *stores) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			log.Warn().Err(err).Msg("failed to close store")
		}
	}
}

// openStores picks the primary store, then the session store and its cache
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	st := &stores{}

	switch cfg.Database.Driver {
	case "mongo":
		log.Info().Msg("Initializing MongoDB repositories")
		db, err := mongo.New(ctx, cfg.Database.MongoURL)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, db.Close)
		st.users = mongo.NewUserRepository(db)
		st.sessions = mongo.NewSessionRepository(db)
		st.tours = mongo.NewTourRepository(db)
	default:
		log.Warn().Msg("DB_DRIVER=memory - data is lost on restart")
		st.users = memory.NewUserRepository()
		st.sessions = memory.NewSessionRepository()
		st.tours = memory.NewTourRepository()
	}

	if cfg.Sessions.Store == "postgres" {
		log.Info().Msg("Initializing Postgres session store")
		pg, err := postgres.New(ctx, cfg.Sessions.PostgresDSN)
		if err != nil {
			st.close()
			return nil, err
		}
		st.closers = append(st.closers, func(context.Context) error { pg.Close(); return nil })
		if err := pg.Migrate(ctx); err != nil {
			st.close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		st.sessions = postgres.NewSessionRepository(pg)
	}

	if cfg.Sessions.CacheURL != "" {
		client, err := sessioncache.NewClient(ctx, cfg.Sessions.CacheURL)
		if err != nil {
			st.close()
			return nil, err
		}
		st.closers = append(st.closers, func(context.Context) error { return client.Close() })
		st.sessions = sessioncache.NewSessionRepository(st.sessions, client, cfg.Sessions.CacheTTL)
		log.Info().Dur("ttl", cfg.Sessions.CacheTTL).Msg("Session cache enabled")
	}

	return st, nil
}

// collaborators are the optional external services. A nil field disables its feature.
type collaborators struct {
	images   media.ImageStore
	payments payment.Provider
	mailer   notification.Mailer
}

func openCollaborators(ctx context.Context, cfg *config.Config) (collaborators, error) {
	var c collaborators

	if cfg.S3.Endpoint != "" {
		images, err := minio.New(ctx, cfg.S3)
		if err != nil {
			return c, err
		}
		c.images = images
	} else {
		log.Warn().Msg("S3_ENDPOINT not set - image uploads disabled")
	}

	if cfg.Stripe.SecretKey != "" {
		c.payments = stripe.New(cfg.Stripe, nil)
	} else {
		log.Warn().Msg("STRIPE_SECRET_KEY not set - checkout disabled")
	}

	if cfg.SMTP.Host != "" {
		mailer, err := smtp.New(cfg.SMTP, cfg.HTTP.BaseURL)
		if err != nil {
			return c, err
		}
		c.mailer = mailer
	} else {
		log.Warn().Msg("SMTP_HOST not set - emails are discarded")
	}

	return c, nil
}
