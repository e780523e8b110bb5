// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

// Package main is the entry point for the TraceLens ingest service.
//
// ingestd receives LLM telemetry spans, archives the raw form, redacts
// PII, enriches cost attributes, and writes the idempotent projections
// the query and billing layers read. It also answers usage-metering
// questions for the request-handling layer.
//
// Usage:
//
//	./ingestd -config /etc/tracelens/ingestd.yaml
//
// Every backend is optional: without the analytical store the
// projections drop writes, without Postgres the tenant lookup treats
// each team as its own organization, and without Redis the usage cache
// is in-process.
package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gocql/gocql"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tracelens/platform/archive"
	"tracelens/platform/config"
	"tracelens/platform/ingest/enrichment"
	"tracelens/platform/ingest/redaction"
	"tracelens/platform/license"
	"tracelens/platform/projection/evalrun"
	"tracelens/platform/projection/spanstore"
	"tracelens/platform/projection/tracesummary"
	"tracelens/platform/tenant"
	"tracelens/platform/usage"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	flag.Parse()

	log.Println("Starting TraceLens ingestd...")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	session := connectAnalyticalStore(cfg)
	if session != nil {
		defer session.Close()
	}

	mongoDB := connectSearchStore(ctx, cfg)
	sqlDB := connectRelationalStore(cfg)
	if sqlDB != nil {
		defer func() { _ = sqlDB.Close() }()
	}

	// Projections: analytical store when configured, no-ops otherwise
	var (
		spanRepo    spanstore.Repository
		summaryRepo tracesummary.Repository
		runRepo     evalrun.Repository
	)
	if session != nil {
		spanRepo = spanstore.NewCassandraRepository(session)
		summaryRepo = tracesummary.NewCassandraRepository(session)
		runRepo = evalrun.NewCassandraRepository(session)
	} else {
		spanRepo = spanstore.NewNoopRepository()
		summaryRepo = tracesummary.NewNoopRepository()
		runRepo = evalrun.NewNoopRepository()
	}
	spans := spanstore.NewService(spanRepo)
	summaries := tracesummary.NewService(summaryRepo)
	runs := evalrun.NewService(runRepo)

	// Tenant lookup and cost overrides share the relational store
	var tenants tenant.Store
	var overrides enrichment.OverrideRepository
	if sqlDB != nil {
		tenants = tenant.NewPostgresStore(sqlDB)
		overrides = enrichment.NewPostgresOverrideRepository(sqlDB)
	} else {
		tenants = selfHostedTenantStore{}
		overrides = enrichment.NewNoopOverrideRepository()
	}

	// Ingest pre-processing
	var detector redaction.Detector
	if cfg.Redaction.Endpoint != "" {
		detector = redaction.NewHTTPDetector(cfg.Redaction.Endpoint)
	}
	redactor := redaction.NewService(detector, redaction.Config{
		GloballyDisabled: cfg.Redaction.Disabled,
		Production:       cfg.Deployment.Production,
	})
	enricher := enrichment.NewService(overrides)

	archiver := buildArchiver(ctx, cfg)

	// Usage metering
	usageSvc := usage.NewService(
		tenants,
		license.NewSelfHostedResolver(cfg.License.Token, cfg.License.Secret),
		buildCounters(session, mongoDB),
		buildCache(cfg),
		session != nil,
	)

	r := mux.NewRouter()
	r.HandleFunc("/health", healthHandler).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	usage.NewHandler(usageSvc).RegisterRoutes(r)

	ingest := newIngestHandler(archiver, redactor, enricher, spans, summaries, runs)
	ingest.RegisterRoutes(r)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	log.Printf("TraceLens ingestd listening on %s", cfg.Server.ListenAddr)
	log.Fatal(http.ListenAndServe(cfg.Server.ListenAddr, c.Handler(r)))
}

// connectAnalyticalStore builds a session against the columnar store, or
// nil when it is disabled or unreachable. Projections degrade to no-ops.
func connectAnalyticalStore(cfg *config.Config) *gocql.Session {
	if !cfg.AnalyticalStore.Enabled || cfg.AnalyticalStore.ConnectionURL == "" {
		return nil
	}

	hosts, keyspace, err := config.ParseAnalyticalStoreURL(cfg.AnalyticalStore.ConnectionURL)
	if err != nil {
		log.Printf("invalid analytical store URL, projections disabled: %v", err)
		return nil
	}

	cluster := gocql.NewCluster(hosts...)
	cluster.Keyspace = keyspace
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = 10 * time.Second

	session, err := cluster.CreateSession()
	if err != nil {
		log.Printf("analytical store unreachable, projections disabled: %v", err)
		return nil
	}
	log.Printf("connected to analytical store (keyspace: %s)", keyspace)
	return session
}

// connectSearchStore builds the document-store handle used for fallback
// usage counting, or nil when unconfigured
func connectSearchStore(ctx context.Context, cfg *config.Config) *mongo.Database {
	if cfg.SearchStore.URI == "" {
		return nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.SearchStore.URI))
	if err != nil {
		log.Printf("search store unreachable, fallback counting disabled: %v", err)
		return nil
	}
	return client.Database(cfg.SearchStore.Database)
}

func connectRelationalStore(cfg *config.Config) *sql.DB {
	if cfg.Relational.URL == "" {
		return nil
	}

	db, err := sql.Open("postgres", cfg.Relational.URL)
	if err != nil {
		log.Printf("relational store unavailable: %v", err)
		return nil
	}
	return db
}

func buildArchiver(ctx context.Context, cfg *config.Config) archive.Archiver {
	if cfg.Archive.Bucket == "" {
		return archive.NewNoopArchiver()
	}

	a, err := archive.NewS3Archiver(ctx, archive.Config{
		Bucket:          cfg.Archive.Bucket,
		Region:          cfg.Archive.Region,
		Endpoint:        cfg.Archive.Endpoint,
		AccessKeyID:     cfg.Archive.AccessKeyID,
		SecretAccessKey: cfg.Archive.SecretAccessKey,
		ForcePathStyle:  cfg.Archive.ForcePathStyle,
	})
	if err != nil {
		log.Fatalf("failed to build span archiver: %v", err)
	}
	log.Printf("raw spans archived to bucket %s", cfg.Archive.Bucket)
	return a
}

func buildCounters(session *gocql.Session, db *mongo.Database) usage.Counters {
	var counters usage.Counters
	if session != nil {
		counters.TracesPrimary = usage.NewCassandraTraceCounter(session)
		counters.EventsPrimary = usage.NewCassandraEventCounter(session)
	}
	if db != nil {
		counters.TracesFallback = usage.NewMongoCounter(db, "traces", "timestamp")
		counters.EventsFallback = usage.NewMongoCounter(db, "observations", "start_time")
		counters.BillingEvents = usage.NewMongoCounter(db, "billing_events", "timestamp")
	}
	return counters
}

func buildCache(cfg *config.Config) usage.CountCache {
	if cfg.Redis.Addr == "" {
		return usage.NewMemoryCache(usage.DefaultCacheTTL)
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return usage.NewRedisCache(client, usage.DefaultCacheTTL)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// selfHostedTenantStore is the tenant lookup used when no relational
// store is configured: each team is its own organization and its only
// project, and no feature flags exist.
type selfHostedTenantStore struct{}

func (selfHostedTenantStore) GetOrganizationIDByTeamID(ctx context.Context, teamID string) (string, error) {
	return teamID, nil
}

func (selfHostedTenantStore) GetProjectIDs(ctx context.Context, orgID string) ([]string, error) {
	return []string{orgID}, nil
}

func (selfHostedTenantStore) GetFeature(ctx context.Context, orgID, name string) (*tenant.Feature, error) {
	return nil, nil
}
