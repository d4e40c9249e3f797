package app

import (
	"fmt"

	"github.com/yungbote/glossary-backend/internal/data/db"
	"github.com/yungbote/glossary-backend/internal/data/repos"
	httpserver "github.com/yungbote/glossary-backend/internal/http"
	httpH "github.com/yungbote/glossary-backend/internal/http/handlers"
	"github.com/yungbote/glossary-backend/internal/jobs/manager"
	"github.com/yungbote/glossary-backend/internal/jobs/pipeline"
	"github.com/yungbote/glossary-backend/internal/jobs/runtime"
	"github.com/yungbote/glossary-backend/internal/modules/glossary/steps"
	"github.com/yungbote/glossary-backend/internal/platform/logger"
	"github.com/yungbote/glossary-backend/internal/platform/openai"
	"github.com/yungbote/glossary-backend/internal/realtime"
	"github.com/yungbote/glossary-backend/internal/services"
)

type Services struct {
	Projects  services.ProjectService
	Documents services.DocumentService
	Glossary  services.GlossaryService
	Runs      services.RunService
}

func wireExecutor(cfg Config, log *logger.Logger, reposet repos.Set) (*pipeline.Executor, error) {
	llm, err := openai.NewClient(cfg.OpenAI, log)
	if err != nil {
		return nil, fmt.Errorf("init openai: %w", err)
	}
	prompts, err := steps.LoadPrompts(cfg.PromptsPath)
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}
	stages := runtime.NewRegistry()
	if err := steps.Register(stages, steps.Deps{
		LLM:         llm,
		Prompts:     prompts,
		Log:         log,
		BatchSize:   cfg.DraftBatchSize,
		Concurrency: cfg.StageConcurrency,
	}); err != nil {
		return nil, fmt.Errorf("register stages: %w", err)
	}
	documents := pipeline.NewDocumentSource(reposet.Document, cfg.DocumentRoot, log)
	return pipeline.NewExecutor(stages, documents, log), nil
}

func wireServices(log *logger.Logger, reposet repos.Set, runs *manager.Registry) Services {
	projects := services.NewProjectService(log, reposet.Project)
	return Services{
		Projects:  projects,
		Documents: services.NewDocumentService(log, projects, reposet.Document),
		Glossary:  services.NewGlossaryService(projects, reposet),
		Runs:      services.NewRunService(log, projects, reposet.Run, runs),
	}
}

func wireRouter(cfg Config, log *logger.Logger, svc Services, hub *realtime.Hub, dbService *db.Service) httpserver.RouterConfig {
	return httpserver.RouterConfig{
		Log:             log,
		ServiceName:     cfg.ServiceName,
		CORSOrigins:     cfg.CORSOrigins,
		ProjectHandler:  httpH.NewProjectHandler(log, svc.Projects),
		DocumentHandler: httpH.NewDocumentHandler(log, svc.Documents),
		GlossaryHandler: httpH.NewGlossaryHandler(log, svc.Glossary),
		RunHandler:      httpH.NewRunHandler(log, svc.Runs, hub, cfg.Keepalive),
		HealthHandler:   httpH.NewHealthHandler(dbService),
	}
}
