package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskdeck.org/internal/auth"
	"taskdeck.org/internal/config"
	"taskdeck.org/internal/httpapi"
	"taskdeck.org/internal/identity"
	"taskdeck.org/internal/mail"
	"taskdeck.org/internal/media"
	"taskdeck.org/internal/notes"
	"taskdeck.org/internal/obs"
	"taskdeck.org/internal/store/pg"
	"taskdeck.org/internal/tasks"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	cfg := config.FromEnv()
	ctx := context.Background()

	codec, err := auth.NewTokenCodec(cfg.TokenSecret, auth.WithSessionTTL(cfg.SessionTTL))
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}

	var mediaStore media.Store
	if cfg.MediaConfigured() {
		mediaStore, err = media.NewS3Store(ctx, media.S3Config{
			Region:        cfg.S3Region,
			Endpoint:      cfg.S3Endpoint,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Bucket:        cfg.S3Bucket,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
		if err != nil {
			log.Fatalf("media store: %v", err)
		}
	} else {
		log.Println("media store not configured, image uploads disabled")
	}

	var mailer mail.Mailer = mail.LogMailer{}
	if cfg.MailConfigured() {
		mailer = mail.NewRelay(mail.RelayConfig{
			FromEmail:    cfg.MailFrom,
			ResendAPIKey: cfg.ResendAPIKey,
			SMTPEnabled:  cfg.SMTPEnabled,
			SMTPHost:     cfg.SMTPHost,
			SMTPPort:     cfg.SMTPPort,
			SMTPUser:     cfg.SMTPUser,
			SMTPPass:     cfg.SMTPPass,
		}, nil)
	}

	var (
		identStore identity.Store
		noteStore  notes.Store
		taskStore  tasks.Store
		db         *sql.DB
		pgStore    *pg.Store
	)
	if cfg.PGDSN != "" {
		pgStore, err = pg.Open(cfg.PGDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		identStore = pgStore.Identities()
		noteStore = pgStore.Notes()
		taskStore = pgStore.Tasks()
		db = pgStore.DB()
	} else {
		log.Println("no TASKDECK_PG_DSN set, using in-memory stores")
		identMem := identity.NewInMemory()
		resolve := func(ctx context.Context, id string) (identity.Ref, error) {
			ident, err := identMem.Find(ctx, id)
			if err != nil {
				return identity.Ref{}, err
			}
			return identity.Ref{ID: ident.ID, Username: ident.Username}, nil
		}
		noteMem := notes.NewInMemory(resolve)
		taskMem := tasks.NewInMemory(resolve)
		identMem.AddCascadeTarget(noteMem)
		identMem.AddCascadeTarget(taskMem)
		identStore = identMem
		noteStore = noteMem
		taskStore = taskMem
	}

	identSvc, err := identity.NewService(identStore, codec, mediaStore, mailer,
		identity.WithResetBaseURL(cfg.ResetBaseURL))
	if err != nil {
		log.Fatalf("identity service: %v", err)
	}
	noteSvc := notes.NewService(noteStore)
	taskSvc, err := tasks.NewService(taskStore, mediaStore, func(ctx context.Context, id string) (identity.Ref, error) {
		ident, err := identStore.Find(ctx, id)
		if err != nil {
			return identity.Ref{}, err
		}
		return identity.Ref{ID: ident.ID, Username: ident.Username}, nil
	})
	if err != nil {
		log.Fatalf("task service: %v", err)
	}

	api := httpapi.New(identSvc, noteSvc, taskSvc, codec, httpapi.ReadyProbe{DB: db}, httpapi.Config{
		CookieSecure:  cfg.CookieSecure,
		DevMode:       cfg.DevMode,
		MaxBodyBytes:  cfg.MaxBodyBytes,
		RateBurst:     cfg.RateBurst,
		RatePerSecond: cfg.RatePerSecond,
	}, version)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting taskdeck-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(shutdownCtx)
	if pgStore != nil {
		_ = pgStore.Close()
	}
	log.Println("Stopped")
}
