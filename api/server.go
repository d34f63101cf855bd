package api

import (
	"context"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/raushankrgupta/tailor-connect/apperrors"
	"github.com/raushankrgupta/tailor-connect/config"
	"github.com/raushankrgupta/tailor-connect/middleware"
	"github.com/raushankrgupta/tailor-connect/models"
	"github.com/raushankrgupta/tailor-connect/onboarding"
	"github.com/raushankrgupta/tailor-connect/profile"
	"github.com/raushankrgupta/tailor-connect/session"
	"github.com/raushankrgupta/tailor-connect/store"
	"github.com/raushankrgupta/tailor-connect/utils"
	"go.uber.org/zap"
)

// Identities holds email identities and their pending sign-in codes.
type Identities interface {
	SaveCode(ctx context.Context, email string, code store.Code) (string, error)
	Identity(ctx context.Context, email string) (*models.Identity, error)
	RecordAttempt(ctx context.Context, email string) error
	ClearCode(ctx context.Context, email string) error
}

// CodeSender delivers one-time sign-in codes.
type CodeSender interface {
	SendSignInCode(ctx context.Context, email, code string) error
}

// PhotoStore keeps profile photos.
type PhotoStore interface {
	Upload(ctx context.Context, file io.Reader, objectKey string, contentType string) (string, error)
	PresignedURL(ctx context.Context, objectKey string) (string, error)
}

// Recommender finds tailors for a customer request.
type Recommender interface {
	Recommend(ctx context.Context, req models.RecommendationRequest) ([]models.TailorCandidate, error)
}

// Pinger reports backing store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators of the HTTP API. Photos, Google, Recommender and Database are optional;
// their routes answer with an error when unset.
type Deps struct {
	Auth        config.AuthConfig
	Profiles    *profile.Gateway
	Flow        *onboarding.Flow
	Resolver    *session.Resolver
	Hub         *session.Hub
	Identities  Identities
	Mailer      CodeSender
	Photos      PhotoStore
	Google      GoogleIdentity
	Recommender Recommender
	Database    Pinger
	Log         *zap.Logger
}

type Server struct {
	Deps
	secret   []byte
	validate *validator.Validate
	handle   func(middleware.AppHandler) http.HandlerFunc
}

func NewServer(d Deps) *Server {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Server{
		Deps:     d,
		secret:   []byte(d.Auth.JWTSecret),
		validate: validate,
		handle:   middleware.ErrorHandler(d.Log),
	}
}

// Routes builds the router. Every route runs behind Authenticate; routes that need an identity
// add RequireSession or RequireRole.
func (s *Server) Routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Authenticate(s.verifyToken))

	r.HandleFunc("/health", s.handle(s.Health)).Methods(http.MethodGet)

	r.HandleFunc("/{role:customer|tailor}/login/email", s.handle(s.SendLoginCode)).Methods(http.MethodPost)
	r.HandleFunc("/{role:customer|tailor}/login/email/verify", s.handle(s.VerifyLoginCode)).Methods(http.MethodPost)
	r.HandleFunc("/{role:customer|tailor}/login/google", s.handle(s.GoogleLogin)).Methods(http.MethodGet)
	r.HandleFunc("/auth/google/callback", s.handle(s.GoogleCallback)).Methods(http.MethodGet)

	authed := r.NewRoute().Subrouter()
	authed.Use(middleware.RequireSession)
	authed.HandleFunc("/auth/logout", s.handle(s.Logout)).Methods(http.MethodPost)
	authed.HandleFunc("/session/route", s.handle(s.SessionRoute)).Methods(http.MethodGet)
	authed.HandleFunc("/onboarding", s.handle(s.OnboardingState)).Methods(http.MethodGet)
	authed.HandleFunc("/onboarding/steps/{step:[0-9]+}", s.handle(s.OnboardingSubmit)).Methods(http.MethodPost)
	authed.HandleFunc("/onboarding/back", s.handle(s.OnboardingBack)).Methods(http.MethodPost)
	authed.HandleFunc("/{role:customer|tailor}/profile", s.handle(s.GetProfile)).Methods(http.MethodGet)
	authed.HandleFunc("/{role:customer|tailor}/profile", s.handle(s.UpdateProfile)).Methods(http.MethodPatch)
	authed.HandleFunc("/{role:customer|tailor}/profile/photo", s.handle(s.UploadPhoto)).Methods(http.MethodPost)
	authed.HandleFunc("/{role:customer|tailor}/dashboard", s.handle(s.Dashboard)).Methods(http.MethodGet)

	customer := r.PathPrefix("/customer").Subrouter()
	customer.Use(middleware.RequireRole(models.RoleCustomer))
	customer.HandleFunc("/measurements", s.handle(s.GetMeasurements)).Methods(http.MethodGet)
	customer.HandleFunc("/measurements", s.handle(s.PutMeasurements)).Methods(http.MethodPut)
	customer.HandleFunc("/measurements/unit", s.handle(s.PutMeasurementUnit)).Methods(http.MethodPut)
	customer.HandleFunc("/recommendations", s.handle(s.Recommendations)).Methods(http.MethodPost)

	return r
}

func (s *Server) verifyToken(token string) (*utils.SessionClaims, error) {
	return utils.ValidateToken(s.secret, s.Auth.Issuer, token)
}

// Health reports liveness and, when configured, database reachability.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) error {
	if s.Database != nil {
		if err := s.Database.Ping(r.Context()); err != nil {
			return apperrors.Persistence("Database unavailable.", err)
		}
	}
	utils.RespondSuccess(w, http.StatusOK, "ok", map[string]string{"status": "ok"})
	return nil
}

// pathRole returns the role named in the route, which must be the session's role.
func pathRole(r *http.Request, sess session.Session) (models.Role, error) {
	role, err := models.ParseRole(mux.Vars(r)["role"])
	if err != nil {
		return "", apperrors.NotFound("Unknown role.")
	}
	if sess.Role != role {
		return "", apperrors.Forbidden("This account is not registered as a " + string(role) + ".")
	}
	return role, nil
}
