// console serves the signup flow, the organisation dashboard API and the gRPC health service.
package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"

	"authx-console/internal/audit"
	auditrepo "authx-console/internal/audit/repository"
	"authx-console/internal/authapi"
	"authx-console/internal/config"
	"authx-console/internal/db"
	"authx-console/internal/db/migrate"
	"authx-console/internal/health"
	"authx-console/internal/security"
	"authx-console/internal/server"
	"authx-console/internal/server/interceptors"
	"authx-console/internal/signup"
	"authx-console/internal/telemetry"
	otelsetup "authx-console/internal/telemetry/otel"
	"authx-console/internal/telemetry/producer"
	"authx-console/internal/throttle"
	"authx-console/internal/widget"
	"authx-console/internal/widget/policy"
)

const (
	sweepInterval  = time.Minute
	healthInterval = 15 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ────────────────────────────────────────────
	providers, err := otelsetup.NewProviders(ctx, otelsetup.Options{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: "authx-console",
		Environment: cfg.Env,
		Insecure:    cfg.OTLPInsecure,
	})
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()
	var emitter telemetry.EventEmitter = otelsetup.NewEventEmitter(providers.LoggerProvider)
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		kafkaEmitter := producer.NewKafkaEmitter(brokers, cfg.KafkaTopic)
		defer kafkaEmitter.Close()
		emitter = telemetry.Fanout{emitter, kafkaEmitter}
		log.Printf("console: telemetry events also go to kafka topic %s", cfg.KafkaTopic)
	}
	outcomes, err := telemetry.NewOutcomes(otel.Meter("authx-console"))
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}

	checker := health.NewChecker()

	// ── Auth API ─────────────────────────────────────────────
	api := authapi.NewClient(cfg.AuthAPIBaseURL, cfg.APITimeout())
	api.Outcomes = outcomes

	// ── Resend limiter ───────────────────────────────────────
	var limiter throttle.Limiter = throttle.NewMemoryLimiter(cfg.Cooldown())
	if cfg.RedisAddr != "" {
		rdb, err := throttle.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer rdb.Close()
		limiter = throttle.NewRedisLimiter(rdb, cfg.Cooldown())
		checker.Add("redis", redisPinger(rdb))
	}

	// ── Storage ──────────────────────────────────────────────
	var (
		widgets   widget.Repository    = widget.NewMemoryRepository()
		auditRepo auditrepo.Repository = auditrepo.NewMemoryRepository()
		logos     widget.LogoStore     = widget.NewMemoryLogoStore()
	)
	if cfg.DatabaseURL != "" {
		if err := migrate.Run(cfg.DatabaseURL, migrate.Up); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		database, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		defer database.Close()
		widgets = widget.NewPostgresRepository(database)
		auditRepo = auditrepo.NewPostgresRepository(database)
		checker.Add("postgres", database)
	} else {
		log.Println("console: DATABASE_URL not set; widget drafts and audit logs are kept in memory")
	}
	if cfg.MinioEndpoint != "" {
		store, err := widget.NewMinioLogoStore(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Fatalf("minio connect: %v", err)
		}
		logos = store
	}

	evaluator, err := policy.New(ctx, "")
	if err != nil {
		log.Fatalf("policy: %v", err)
	}

	widgetSvc := widget.NewService(widget.ServiceOptions{
		Repo:        widgets,
		Logos:       logos,
		Validator:   evaluator,
		Publisher:   api,
		Audit:       audit.NewLogger(auditRepo, interceptors.ClientIPFromContext),
		Emitter:     emitter,
		LogoBaseURL: "/logos",
	})

	// ── Signup flows ─────────────────────────────────────────
	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		if secret, err = security.RandomSecret(); err != nil {
			log.Fatalf("session secret: %v", err)
		}
		log.Println("console: SESSION_SECRET not set; using a random secret, flows will not survive a restart")
	}
	tokens, err := security.NewFlowTokenProvider(secret, "authx-console", cfg.FlowTTL())
	if err != nil {
		log.Fatalf("session tokens: %v", err)
	}
	placeholders := signup.Placeholders{
		FullName: cfg.SignupFullName,
		IsPool:   cfg.SignupIsPool,
		Link:     cfg.SignupLink,
		Ref:      cfg.SignupRef,
		Types:    cfg.SignupTypes,
	}
	flows := server.NewFlowRegistry(tokens, func(sessionID string) *signup.Flow {
		return signup.NewFlow(api, signup.Options{
			SessionID:    sessionID,
			Placeholders: &placeholders,
			Limiter:      limiter,
			Emitter:      emitter,
			Outcomes:     outcomes,
			OnNavigate: func(to string) {
				log.Printf("console: flow %s verified, redirecting to %s", sessionID, to)
			},
		})
	})
	go flows.Run(ctx, sweepInterval)

	// ── gRPC health ──────────────────────────────────────────
	hs := grpchealth.NewServer()
	go checker.Watch(ctx, hs, healthInterval)
	var grpcSrv *grpc.Server
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			log.Fatalf("listen: %v", err)
		}
		grpcSrv = server.NewGRPCServer(hs)
		go func() {
			log.Printf("gRPC health listening on %s", cfg.GRPCAddr)
			if err := grpcSrv.Serve(lis); err != nil {
				log.Fatalf("grpc serve: %v", err)
			}
		}()
	}

	// ── HTTP ─────────────────────────────────────────────────
	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: server.NewRouter(server.Deps{
			Flows:          flows,
			Widgets:        widgetSvc,
			Health:         checker,
			AllowedOrigins: cfg.AllowedOrigins(),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("console listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http serve: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down console...")
	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
	flows.Close()

	// Let async telemetry emits finish before the exporters go away.
	time.Sleep(telemetry.ShutdownDrainDuration)
	if err := providers.Shutdown(shutCtx); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
	log.Println("console stopped")
}

func redisPinger(rdb *redis.Client) health.Pinger {
	return health.PingerFunc(func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
}
