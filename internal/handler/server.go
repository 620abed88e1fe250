// Package handler implements the HTTP handlers for the claims API.
// All handlers are methods on Server. Methods are split into resource files
// (health.go, claim.go, expense.go, tag.go, export.go, remote.go) but share
// the Server struct so they can reach its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/claimtrack/internal/domain"
)

// ClaimServicer defines the claim operations the handlers depend on.
// Defining the interface here, in the consumer package, lets handler tests
// inject a mock without touching the store or service layer.
type ClaimServicer interface {
	Claims() []domain.Claim
	Get(id string) (domain.Claim, bool)
	AddClaim(ctx context.Context, c domain.Claim) error
	Delete(ctx context.Context, id string, user domain.User) error
	Edit(ctx context.Context, id string, editor domain.User, fn func(*domain.ClaimBuilder) *domain.ClaimBuilder) (domain.Claim, error)
	Submit(ctx context.Context, id string, claimant domain.User) (domain.Claim, error)
	Approve(ctx context.Context, id string, approver domain.User, comment string) (domain.Claim, error)
	Return(ctx context.Context, id string, approver domain.User, comment string) (domain.Claim, error)
	ForClaimant(user domain.User) []domain.Claim
	ForApprover(user domain.User) []domain.Claim
}

// TagServicer defines the tag registry operations the handlers depend on.
type TagServicer interface {
	GetOrCreate(ctx context.Context, name string) (domain.Tag, error)
	FindByID(id string) (domain.Tag, bool)
	List(prefix string) []domain.Tag
	Rename(ctx context.Context, tag domain.Tag, newName string) (domain.Tag, error)
	DeleteByID(ctx context.Context, id string)
}

// ExportServicer produces the flat export table.
type ExportServicer interface {
	Export() []domain.ExportRow
}

// RemoteReader reads back the claims mirrored to the remote index.
type RemoteReader interface {
	ReadClaims(ctx context.Context) ([]domain.Claim, error)
}

// Server holds the dependencies shared by every handler.
type Server struct {
	claims ClaimServicer
	tags   TagServicer
	export ExportServicer
	remote RemoteReader
	log    *slog.Logger
}

// NewServer constructs the Server. remote may be nil when no remote index is
// configured; GET /remote/claims then answers 503.
func NewServer(claims ClaimServicer, tags TagServicer, export ExportServicer, remote RemoteReader, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{claims: claims, tags: tags, export: export, remote: remote, log: log}
}

// Routes returns a chi router serving the whole API.
// Middleware (request ID, logging, CORS, body limits, acting user) is applied
// by the caller.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Route("/claims", func(r chi.Router) {
		r.Get("/", s.ListClaims)
		r.Post("/", s.CreateClaim)
		r.Route("/{claimID}", func(r chi.Router) {
			r.Get("/", s.GetClaim)
			r.Patch("/", s.UpdateClaim)
			r.Delete("/", s.DeleteClaim)

			r.Post("/submit", s.SubmitClaim)
			r.Post("/approve", s.ApproveClaim)
			r.Post("/return", s.ReturnClaim)

			r.Post("/expenses", s.CreateExpense)
			r.Put("/expenses/{expenseID}", s.UpdateExpense)
			r.Delete("/expenses/{expenseID}", s.DeleteExpense)

			r.Post("/tags", s.AddTagToClaim)
			r.Delete("/tags/{tagID}", s.RemoveTagFromClaim)
		})
	})

	r.Route("/tags", func(r chi.Router) {
		r.Get("/", s.ListTags)
		r.Post("/", s.CreateTag)
		r.Put("/{tagID}", s.RenameTag)
		r.Delete("/{tagID}", s.DeleteTag)
	})

	r.Get("/export", s.GetExport)
	r.Get("/remote/claims", s.ListRemoteClaims)

	return r
}
