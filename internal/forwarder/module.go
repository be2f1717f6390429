// Package forwarder provides the zaak forwarding bounded context module.
// This file defines the module that encapsulates all forwarding setup.
package forwarder

import (
	"zaakbrug_backend/internal/events"
	"zaakbrug_backend/internal/forwarder/casetypes"
	"zaakbrug_backend/internal/forwarder/documents"
	"zaakbrug_backend/internal/forwarder/refstore"
	"zaakbrug_backend/internal/forwarder/roles"
	"zaakbrug_backend/internal/submissions/repository"
	"zaakbrug_backend/internal/submissions/storage"
	"zaakbrug_backend/internal/zgw"
	"zaakbrug_backend/platform/config"
	"zaakbrug_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// ModuleConfig combines the config interfaces the forwarder needs.
type ModuleConfig interface {
	config.ForwarderConfig
	config.ReferenceStoreConfig
	config.MinIOConfig
	GetZakenAPIBaseURL() string
	GetDocumentenAPIBaseURL() string
	GetZGWClientID() string
	GetZGWClientSecret() string
	GetZGWRequestsPerSecond() float64
}

// Module is the zaak forwarding bounded context module.
type Module struct {
	orchestrator *Orchestrator
	repo         *repository.Repository
}

// NewModule creates and initializes the forwarding module. The case-type
// table is loaded and validated here, so a broken deployment fails at
// startup.
func NewModule(cfg ModuleConfig, pool *pgxpool.Pool, redisClient *redis.Client, bus events.Bus, log *logger.Logger) (*Module, error) {
	resolver, err := casetypes.Load()
	if err != nil {
		return nil, err
	}
	if !resolver.HasBranch(cfg.GetBranch()) {
		return nil, casetypes.UnknownBranchError(cfg.GetBranch())
	}

	payloads, err := storage.New(cfg)
	if err != nil {
		return nil, err
	}

	client := zgw.New(cfg, log)
	repo := repository.New(pool)
	refs := refstore.New(redisClient, cfg.GetReferenceTTL())
	assigner := roles.New(client, log)
	uploader := documents.New(client, log)

	orchestrator := New(
		resolver,
		cfg.GetBranch(),
		client,
		refs,
		repo,
		repo,
		payloads,
		assigner,
		uploader,
		bus,
		log,
	)

	log.Info("forwarder module initialized", "branch", cfg.GetBranch())

	return &Module{orchestrator: orchestrator, repo: repo}, nil
}

// Orchestrator returns the forwarding orchestrator.
func (m *Module) Orchestrator() *Orchestrator {
	return m.orchestrator
}

// Repository returns the submissions repository for ops surfaces.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}
