package di

import (
	"fmt"

	"chatbot-api/backend/internal/chat"
	"chatbot-api/backend/internal/llm"
	"chatbot-api/backend/pkg/config"
	"chatbot-api/backend/pkg/logger"
	"chatbot-api/backend/pkg/observability"
)

// Container holds all the dependencies for the application
type Container struct {
	Config       *config.Config
	Logger       *logger.Logger
	ModelClient  llm.Client
	HistoryStore *chat.HistoryStore
	Registry     *chat.Registry
	ChatService  *chat.Service
}

// New creates a new dependency injection container. The model client is
// passed in so tests can substitute a mock; pass nil to build one from
// configuration (fails without a provider credential).
func New(cfg *config.Config, log *logger.Logger, client llm.Client) (*Container, error) {
	if cfg == nil {
		cfg = config.Get()
	}
	if log == nil {
		log = logger.GetGlobal()
	}

	if client == nil {
		var err error
		client, err = llm.NewClientFromConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create model client: %w", err)
		}
	}

	store := chat.NewHistoryStore(cfg.Chat.HistoryFile, log)
	registry := chat.NewRegistry(store, cfg.Chat.DefaultSessionID, log)

	service := chat.NewService(registry, client, chat.ServiceConfig{
		Model:        cfg.Model.Name,
		SystemPrompt: cfg.Chat.SystemPrompt,
		Temperature:  cfg.Model.Temperature,
		MaxTokens:    cfg.Model.MaxTokens,
		Timeout:      cfg.Model.Timeout,
	}, log)

	observability.RegisterActiveSessions(registry.Count)

	return &Container{
		Config:       cfg,
		Logger:       log,
		ModelClient:  client,
		HistoryStore: store,
		Registry:     registry,
		ChatService:  service,
	}, nil
}
