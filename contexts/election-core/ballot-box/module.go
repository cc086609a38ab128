package ballotbox

import (
	"context"
	"log/slog"
	"time"

	httpadapter "safeballot/contexts/election-core/ballot-box/adapters/http"
	"safeballot/contexts/election-core/ballot-box/adapters/memory"
	"safeballot/contexts/election-core/ballot-box/application/commands"
	"safeballot/contexts/election-core/ballot-box/application/queries"
	"safeballot/contexts/election-core/ballot-box/application/workers"
	"safeballot/contexts/election-core/ballot-box/ports"

	"github.com/google/uuid"
)

type Module struct {
	Handler httpadapter.Handler
	Sweep   workers.StatusSweep
	Store   *memory.Store
}

type Dependencies struct {
	Elections   ports.ElectionRepository
	Candidates  ports.CandidateRepository
	Ballots     ports.BallotRepository
	Eligibility ports.EligibilityRepository
	BallotBox   ports.BallotBox
	Codec       ports.VoteCodec
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	adminUseCase := commands.ElectionAdminUseCase{
		Elections:  deps.Elections,
		Candidates: deps.Candidates,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Logger:     deps.Logger,
	}
	rosterUseCase := commands.RosterUseCase{
		Elections:   deps.Elections,
		Eligibility: deps.Eligibility,
		Clock:       deps.Clock,
		Logger:      deps.Logger,
	}
	castUseCase := commands.CastVoteUseCase{
		Elections:   deps.Elections,
		Candidates:  deps.Candidates,
		Eligibility: deps.Eligibility,
		BallotBox:   deps.BallotBox,
		Codec:       deps.Codec,
		Clock:       deps.Clock,
		IDGen:       deps.IDGen,
		Logger:      deps.Logger,
	}
	publishUseCase := commands.PublishUseCase{
		Elections: deps.Elections,
		Clock:     deps.Clock,
		Logger:    deps.Logger,
	}
	tallyUseCase := queries.TallyUseCase{
		Elections:   deps.Elections,
		Candidates:  deps.Candidates,
		Ballots:     deps.Ballots,
		Eligibility: deps.Eligibility,
		Codec:       deps.Codec,
		Clock:       deps.Clock,
		Logger:      deps.Logger,
	}
	overviewUseCase := queries.OverviewUseCase{
		Elections:   deps.Elections,
		Candidates:  deps.Candidates,
		Ballots:     deps.Ballots,
		Eligibility: deps.Eligibility,
	}
	return Module{
		Handler: httpadapter.Handler{
			Admin:    adminUseCase,
			Roster:   rosterUseCase,
			Cast:     castUseCase,
			Publish:  publishUseCase,
			Tally:    tallyUseCase,
			Export:   queries.ExportUseCase{Tally: tallyUseCase},
			Overview: overviewUseCase,
			Logger:   deps.Logger,
		},
		Sweep: workers.StatusSweep{
			Elections: deps.Elections,
			Clock:     deps.Clock,
			Logger:    deps.Logger,
		},
	}
}

// NewInMemoryModule wires the module onto the in-memory store. Tests
// and the DSN-less dev mode use this; the codec is still the real one.
func NewInMemoryModule(codec ports.VoteCodec, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Elections:   store,
		Candidates:  store,
		Ballots:     store,
		Eligibility: store,
		BallotBox:   store,
		Codec:       codec,
		Clock:       store,
		IDGen:       store,
		Logger:      logger,
	})
	module.Store = store
	return module
}

// SystemClock is the production clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// UUIDGenerator issues uuid-v4 identifiers.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
