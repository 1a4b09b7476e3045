package bootstrap

import (
	"github.com/N1c0zz/NeuraMind/internal/config"
	"github.com/N1c0zz/NeuraMind/internal/pkg/logger"
	"github.com/N1c0zz/NeuraMind/pkg/api"
	"github.com/N1c0zz/NeuraMind/pkg/ask"
	"github.com/N1c0zz/NeuraMind/pkg/conversation"
)

// Container wires the client stack once at startup. The config is
// validated before anything touches the network; everything downstream
// receives its dependencies by injection.
type Container struct {
	Config *config.Config
	Logger logger.ILogger

	Client        *api.Client
	Documents     *api.DocumentGateway
	Retrieval     *api.RetrievalGateway
	Orchestrator  *ask.Orchestrator
	Conversations *conversation.Registry
}

func NewContainer(cfg *config.Config) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Debug)

	client := api.NewClient(cfg.API, sysLogger)
	retrieval := api.NewRetrievalGateway(client)
	documents := api.NewDocumentGateway(client, cfg.Upload)

	return &Container{
		Config:        cfg,
		Logger:        sysLogger,
		Client:        client,
		Documents:     documents,
		Retrieval:     retrieval,
		Orchestrator:  ask.NewOrchestrator(retrieval, sysLogger),
		Conversations: conversation.NewRegistry(),
	}, nil
}

// NewConversation opens a transcript for the default user and registers it
// for TTL-based reaping.
func (c *Container) NewConversation() *conversation.Conversation {
	conv := conversation.New(c.Orchestrator, c.Config.API.DefaultUserID, c.Logger)
	c.Conversations.Save(conv)
	return conv
}
