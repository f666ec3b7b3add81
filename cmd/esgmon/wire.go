package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/YX-UOM/Plithos/internal/adapters/driven/ai"
	"github.com/YX-UOM/Plithos/internal/adapters/driven/config/file"
	"github.com/YX-UOM/Plithos/internal/adapters/driven/publish/email"
	"github.com/YX-UOM/Plithos/internal/adapters/driven/publish/github"
	"github.com/YX-UOM/Plithos/internal/adapters/driven/reasoning"
	"github.com/YX-UOM/Plithos/internal/adapters/driven/render"
	"github.com/YX-UOM/Plithos/internal/adapters/driven/retrieval"
	"github.com/YX-UOM/Plithos/internal/adapters/driven/storage/memory"
	"github.com/YX-UOM/Plithos/internal/adapters/driven/storage/sqlite"
	"github.com/YX-UOM/Plithos/internal/adapters/driving/cli"
	"github.com/YX-UOM/Plithos/internal/core/domain"
	"github.com/YX-UOM/Plithos/internal/core/ports/driven"
	"github.com/YX-UOM/Plithos/internal/core/services"
	"github.com/YX-UOM/Plithos/internal/logger"
)

// bootstrap wires adapters into core services. Missing LLM or search
// credentials are not fatal here: listing and settings commands still work,
// and a run reports ErrLLMUnavailable or ErrRetrievalFailure.
func bootstrap(ctx context.Context, opts cli.Options) (*cli.Services, func(), error) {
	defer logger.Timed("bootstrap")()

	var closers []func()
	release := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*cli.Services, func(), error) {
		release()
		return nil, nil, err
	}

	home, err := file.HomeDir()
	if err != nil {
		return fail(err)
	}

	// Settings
	var configStore driven.ConfigStore
	if opts.Ephemeral {
		configStore, err = ephemeralConfig(home)
		if err != nil {
			return fail(err)
		}
	} else {
		fileStore, err := file.NewConfigStore(home)
		if err != nil {
			return fail(fmt.Errorf("open config: %w", err))
		}
		configStore = fileStore
	}
	settingsSvc := services.NewSettingsService(configStore, ai.NewProber())
	settingsSvc.SetEnv(os.Getenv)

	settings, err := settingsSvc.Get()
	if err != nil {
		return fail(err)
	}

	// Prompts are user-editable files; ephemeral runs use the shipped text.
	var prompts *file.PromptStore
	var promptStore driven.PromptStore = file.ShippedPrompts{}
	if !opts.Ephemeral {
		prompts, err = file.NewPromptStore(filepath.Join(home, "prompts"))
		if err != nil {
			return fail(err)
		}
		promptStore = prompts
	}

	// Reasoner
	llm, err := ai.Connect(ctx, &settings.LLM)
	if err != nil {
		logger.Debug("LLM unavailable: %v", err)
	} else {
		closers = append(closers, func() { _ = llm.Close() })
	}
	reasoner := reasoning.NewLLMReasoner(llm, promptStore, reasoning.Config{
		MaxTokens: settings.Delegation.MaxTokens,
	})

	// Registry and retrieval
	registry, registryPath, err := loadRegistry(settings.Retrieval.SourcesFile)
	if err != nil {
		return fail(err)
	}

	backends, err := retrieval.Build(ctx, settings.Retrieval)
	if err != nil {
		logger.Debug("retrieval unavailable: %v", err)
	}
	if backends == nil {
		backends = &retrieval.Backends{}
	}
	for _, w := range backends.Warnings {
		logger.Debug("retrieval: %s", w)
	}
	retrievalSvc := services.NewRetrievalService(
		registry, backends.Retrievers, backends.Fetcher, settings.Retrieval.Concurrency,
	)

	// Storage
	var digestStore driven.DigestStore
	var schedulerStore driven.SchedulerStore
	if opts.Ephemeral {
		digestStore = memory.NewDigestStore()
		schedulerStore = memory.NewSchedulerStore()
	} else {
		store, err := sqlite.NewStore(filepath.Join(home, "data"))
		if err != nil {
			return fail(fmt.Errorf("open digest store: %w", err))
		}
		closers = append(closers, func() {
			if err := store.Close(); err != nil {
				logger.Warn("closing digest store: %v", err)
			}
		})
		digestStore = store.DigestStore()
		schedulerStore = store.SchedulerStore()
	}

	// Pipeline
	fw := domain.DefaultFramework()
	delegator := services.NewDelegator(reasoner, services.DelegatorConfig{
		Timeout:     settings.Delegation.Timeout,
		MaxAttempts: settings.Delegation.MaxAttempts,
		Backoff:     settings.Delegation.Backoff,
		ChunkSize:   settings.Delegation.ChunkSize,
	})
	engine := services.NewSynthesisEngine(fw, registry, delegator)
	digestSvc := services.NewDigestService(retrievalSvc, engine, digestStore, registry, services.DigestServiceConfig{
		WindowDays: settings.Digest.WindowDays,
		Policy:     settings.Digest.ConflictPolicy,
	})

	renderer := render.New(fw)
	if !opts.Ephemeral {
		digestSvc.SetExporter(render.NewFileExporter(renderer, outputDir(home, settings.Digest.OutputDir),
			settings.Digest.Formats))
		addPublishers(ctx, digestSvc, settings, renderer)
	}

	scheduler := services.NewScheduler(settings.Scheduler, schedulerStore, digestSvc)

	s := &cli.Services{
		Digests:         digestSvc,
		Retrieval:       retrievalSvc,
		Settings:        settingsSvc,
		Renderer:        renderer,
		Scheduler:       scheduler,
		SchedulerConfig: settings.Scheduler,
		RegistryPath:    registryPath,
		SaveRegistry:    file.SaveRegistry,
	}
	if prompts != nil {
		s.Prompts = prompts
	}
	return s, release, nil
}

// loadRegistry overlays the configured registry file, or the default path,
// onto the built-in registry.
func loadRegistry(sourcesFile string) (domain.SourceRegistry, string, error) {
	path := expandHome(sourcesFile)
	if path == "" {
		var err error
		if path, err = file.DefaultRegistryPath(); err != nil {
			return domain.SourceRegistry{}, "", err
		}
	}

	reg, err := file.LoadRegistry(path, domain.DefaultSourceRegistry())
	if err != nil {
		return domain.SourceRegistry{}, "", err
	}
	return reg, path, nil
}

func addPublishers(ctx context.Context, svc *services.DigestService, settings *domain.AppSettings, r *render.Renderer) {
	if settings.Email.Enabled {
		p, err := email.New(settings.Email, r)
		if err != nil {
			logger.Warn("email delivery disabled: %v", err)
		} else {
			svc.AddPublisher(p)
		}
	}

	if settings.GitHub.Enabled {
		p, err := github.New(ctx, github.Config{GitHubSettings: settings.GitHub}, r)
		if errors.Is(err, github.ErrNotConfigured) {
			logger.Warn("GitHub publishing disabled: set github.token, github.owner and github.repo")
		} else if err != nil {
			logger.Warn("GitHub publishing disabled: %v", err)
		} else {
			svc.AddPublisher(p)
		}
	}
}

// outputDir expands ~ and falls back to HomeDir()/outputs.
func outputDir(home, dir string) string {
	dir = expandHome(dir)
	if dir == "" {
		return filepath.Join(home, domain.DefaultOutputDir)
	}
	return dir
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// ephemeralConfig reads saved settings when a config file exists but keeps
// every change in memory.
func ephemeralConfig(home string) (driven.ConfigStore, error) {
	if _, err := os.Stat(filepath.Join(home, file.ConfigFile)); err != nil {
		return memory.NewConfigStore(), nil
	}
	base, err := file.NewConfigStore(home)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	return memory.NewOverlayConfigStore(base), nil
}
