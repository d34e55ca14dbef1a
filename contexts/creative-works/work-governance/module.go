package workgovernance

import (
	"log/slog"
	"time"

	httpadapter "atelier/contexts/creative-works/work-governance/adapters/http"
	"atelier/contexts/creative-works/work-governance/adapters/memory"
	"atelier/contexts/creative-works/work-governance/application/commands"
	"atelier/contexts/creative-works/work-governance/application/queries"
	"atelier/contexts/creative-works/work-governance/ports"
)

// Module is the composition surface for work governance.
// Runtime wiring consumes Handler; Store is set only by NewInMemoryModule.
type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Authors        ports.AuthorRepository
	Works          ports.WorkRepository
	Tx             ports.TxManager
	Transfers      ports.ValueTransfer
	Idempotency    ports.IdempotencyStore
	Outbox         ports.OutboxWriter
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	VoteFee        int64
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	authors := commands.AuthorUseCase{
		Authors:     deps.Authors,
		Tx:          deps.Tx,
		Outbox:      deps.Outbox,
		IDGenerator: deps.IDGenerator,
		Clock:       deps.Clock,
		Logger:      deps.Logger,
	}
	works := commands.WorkUseCase{
		Authors:     deps.Authors,
		Works:       deps.Works,
		Tx:          deps.Tx,
		Outbox:      deps.Outbox,
		IDGenerator: deps.IDGenerator,
		Clock:       deps.Clock,
		Logger:      deps.Logger,
	}
	governance := commands.GovernanceUseCase{
		Works:          deps.Works,
		Tx:             deps.Tx,
		Outbox:         deps.Outbox,
		Idempotency:    deps.Idempotency,
		IDGenerator:    deps.IDGenerator,
		Clock:          deps.Clock,
		VoteFee:        deps.VoteFee,
		IdempotencyTTL: deps.IdempotencyTTL,
		Logger:         deps.Logger,
	}
	engagement := commands.EngagementUseCase{
		Authors:     deps.Authors,
		Works:       deps.Works,
		Tx:          deps.Tx,
		Outbox:      deps.Outbox,
		IDGenerator: deps.IDGenerator,
		Clock:       deps.Clock,
		Logger:      deps.Logger,
	}
	funds := commands.FundsUseCase{
		Works:          deps.Works,
		Tx:             deps.Tx,
		Outbox:         deps.Outbox,
		Transfers:      deps.Transfers,
		Idempotency:    deps.Idempotency,
		IDGenerator:    deps.IDGenerator,
		Clock:          deps.Clock,
		IdempotencyTTL: deps.IdempotencyTTL,
		Logger:         deps.Logger,
	}

	handler := httpadapter.Handler{
		Authors:    authors,
		Works:      works,
		Governance: governance,
		Engagement: engagement,
		Funds:      funds,
		WorkReads: queries.WorkQueries{
			Works:  deps.Works,
			Logger: deps.Logger,
		},
		AuthorReads: queries.AuthorQueries{
			Authors: deps.Authors,
			Works:   deps.Works,
			Logger:  deps.Logger,
		},
		Logger: deps.Logger,
	}
	return Module{Handler: handler}
}

// NewInMemoryModule wires every port to one in-memory store. Transfers land
// in the store's ledger.
func NewInMemoryModule(voteFee int64, logger *slog.Logger) Module {
	store := memory.NewStore(logger)
	module := NewModule(Dependencies{
		Authors:        store,
		Works:          store,
		Tx:             store,
		Transfers:      store,
		Idempotency:    store,
		Outbox:         store,
		Clock:          store,
		IDGenerator:    store,
		VoteFee:        voteFee,
		IdempotencyTTL: 7 * 24 * time.Hour,
		Logger:         logger,
	})
	module.Store = store
	return module
}
