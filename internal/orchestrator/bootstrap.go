package orchestrator

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/grippy-ci/grippy/internal/ciconfig"
	"github.com/grippy-ci/grippy/internal/db"
	"github.com/grippy-ci/grippy/internal/llmclient"
	"github.com/grippy-ci/grippy/internal/posting"
	"github.com/grippy-ci/grippy/internal/store"
	"github.com/grippy-ci/grippy/internal/vectorstore"
)

// embeddingDim is the vector width produced by the embedding endpoint,
// matching the dimension of OpenAI-compatible "small" embedding models.
const embeddingDim = 1536

// openVectorStore opens the vector store rooted at cfg.DataDir.
func openVectorStore(cfg ciconfig.Config) (*vectorstore.Store, error) {
	return vectorstore.Open(vectorstore.DefaultDir(cfg.DataDir), embeddingDim)
}

// Bootstrap assembles the production Dependencies from a resolved
// Config: it resolves the transport, constructs the agent and embedder,
// and opens the graph/vector stores. Callers (cmd/grippy) are
// responsible for closing the returned teardown func once Run returns.
func Bootstrap(cfg ciconfig.Config, log *slog.Logger) (Dependencies, func(), error) {
	transport, err := llmclient.ResolveTransport(llmclient.TransportConfig{
		EnvTransport: cfg.Transport,
		HasAPIKey:    cfg.APIKey != "",
	}, log)
	if err != nil {
		return Dependencies{}, nil, err
	}

	transportCfg := llmclient.TransportConfig{
		EndpointBaseURL: cfg.EndpointURL,
		Model:           cfg.Model,
		APIKey:          cfg.APIKey,
		Timeout:         time.Duration(cfg.TimeoutSeconds) * time.Second,
	}

	agent, err := llmclient.NewAgent(transport, transportCfg)
	if err != nil {
		return Dependencies{}, nil, err
	}

	vcs := posting.NewClient(cfg.Token, "")

	embedder := llmclient.NewHTTPEmbedder(transportCfg, cfg.EmbeddingModel)

	sqliteStore, err := db.NewSqliteStore(&db.SqliteConfig{
		DatabaseFileName: db.DefaultDBPath(cfg.DataDir),
	}, log)
	if err != nil {
		return Dependencies{}, nil, fmt.Errorf("failed to open graph database: %w", err)
	}

	vec, err := openVectorStore(cfg)
	if err != nil {
		sqliteStore.Close()
		return Dependencies{}, nil, fmt.Errorf("failed to open vector store: %w", err)
	}

	edgeStore := store.New(sqliteStore.Store, vec, embedder)

	teardown := func() {
		vec.Close()
		sqliteStore.Close()
	}

	return Dependencies{
		Log:       log,
		Agent:     agent,
		VCS:       vcs,
		Embedder:  embedder,
		EdgeStore: edgeStore,
	}, teardown, nil
}
