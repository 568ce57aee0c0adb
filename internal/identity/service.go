package identity

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/geocoder89/authcore/internal/actorctx"
	"github.com/geocoder89/authcore/internal/apperr"
	"github.com/geocoder89/authcore/internal/auth"
	"github.com/geocoder89/authcore/internal/dbx"
	"github.com/geocoder89/authcore/internal/domain/user"
	"github.com/geocoder89/authcore/internal/security"
)

var (
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrDeleteSelf       = errors.New("cannot delete own account")
)

// Metrics receives operation outcomes. *observability.Prom implements it.
type Metrics interface {
	ObserveAuth(op string, err error)
	TokenIssued(tokenType string)
}

type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// Service is the boundary the HTTP layer talks to. Every method runs as one
// independent unit of work on its own scoped database handle.
type Service struct {
	sessions Sessions
	stores   Stores
	resolver *Resolver
	issuer   *auth.Issuer
	hasher   *security.Hasher
	log      *slog.Logger
	metrics  Metrics
	tracer   trace.Tracer
}

type Option func(*Service)

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

func WithMetrics(m Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

func NewService(sessions Sessions, stores Stores, resolver *Resolver, issuer *auth.Issuer, hasher *security.Hasher, opts ...Option) *Service {
	s := &Service{
		sessions: sessions,
		stores:   stores,
		resolver: resolver,
		issuer:   issuer,
		hasher:   hasher,
		log:      slog.Default(),
		tracer:   otel.Tracer("github.com/geocoder89/authcore/internal/identity"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) start(ctx context.Context, op string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "identity."+op)
}

// finish records the outcome of op. Faults are logged here; caller-facing
// kinds are only counted.
func (s *Service) finish(ctx context.Context, span trace.Span, op string, err error) error {
	defer span.End()

	if s.metrics != nil {
		s.metrics.ObserveAuth(op, err)
	}

	if err == nil {
		span.SetStatus(codes.Ok, "")
		return nil
	}

	kind := apperr.KindName(err)
	span.SetAttributes(attribute.String("error.kind", kind))

	if apperr.IsFault(err) {
		span.RecordError(err)
		span.SetStatus(codes.Error, kind)
		s.log.ErrorContext(ctx, "identity operation failed", "op", op, "kind", kind, "err", err)
	}

	return err
}

func (s *Service) issued(typ auth.TokenType) {
	if s.metrics != nil {
		s.metrics.TokenIssued(typ.String())
	}
}

// Register creates a user with the default role.
func (s *Service) Register(ctx context.Context, in RegisterInput) (id user.Identity, err error) {
	ctx, span := s.start(ctx, "register")
	defer func() { err = s.finish(ctx, span, "register", err) }()

	const op = "identity.register"

	email := user.NormalizeEmail(in.Email)
	for _, verr := range []error{
		user.ValidateName(in.Name),
		user.ValidateEmail(email),
		user.ValidatePassword(in.Password),
	} {
		if verr != nil {
			return user.Identity{}, apperr.New(op, apperr.ErrInvalidArgument, verr)
		}
	}
	if in.Password != in.ConfirmPassword {
		return user.Identity{}, apperr.New(op, apperr.ErrInvalidArgument, ErrPasswordMismatch)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return user.Identity{}, err
	}

	err = s.sessions.Tx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		newID, err := s.stores.Users(tx).InsertUser(ctx, in.Name, email, hash, 0)
		if err != nil {
			return err
		}
		id = user.Identity{ID: newID, Name: in.Name, Email: email}
		return nil
	})
	if err != nil {
		return user.Identity{}, err
	}

	s.log.InfoContext(ctx, "user registered", "user_id", id.ID)
	return id, nil
}

// Login returns an access/refresh pair for valid credentials.
func (s *Service) Login(ctx context.Context, email, password string) (pair auth.TokenPair, err error) {
	ctx, span := s.start(ctx, "login")
	defer func() { err = s.finish(ctx, span, "login", err) }()

	var id user.Identity
	err = s.sessions.Session(ctx, func(ctx context.Context, db dbx.DBTX) error {
		id, err = s.resolver.Login(ctx, s.stores.Users(db), email, password)
		return err
	})
	if err != nil {
		return auth.TokenPair{}, err
	}

	ctx = actorctx.WithIdentity(ctx, id)

	pair, err = s.issuer.IssuePair(id)
	if err != nil {
		return auth.TokenPair{}, err
	}
	s.issued(auth.TokenTypeAccess)
	s.issued(auth.TokenTypeRefresh)

	s.log.InfoContext(ctx, "login succeeded")
	return pair, nil
}

// Refresh exchanges a refresh token for a new access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (access string, err error) {
	ctx, span := s.start(ctx, "refresh")
	defer func() { err = s.finish(ctx, span, "refresh", err) }()

	var id user.Identity
	err = s.sessions.Session(ctx, func(ctx context.Context, db dbx.DBTX) error {
		id, err = s.resolver.AuthenticateForRefresh(ctx, s.stores.Users(db), refreshToken)
		return err
	})
	if err != nil {
		return "", err
	}

	access, err = s.issuer.Issue(id, auth.TokenTypeAccess)
	if err != nil {
		return "", err
	}
	s.issued(auth.TokenTypeAccess)

	return access, nil
}

func (s *Service) CurrentUser(ctx context.Context, accessToken string) (p user.Profile, err error) {
	ctx, span := s.start(ctx, "current_user")
	defer func() { err = s.finish(ctx, span, "current_user", err) }()

	var id user.Identity
	err = s.sessions.Session(ctx, func(ctx context.Context, db dbx.DBTX) error {
		id, err = s.resolver.AuthenticateForAccess(ctx, s.stores.Users(db), accessToken)
		return err
	})
	if err != nil {
		return user.Profile{}, err
	}

	return id.Profile(), nil
}

// UpdateCurrentUser patches the caller's name and/or email. An empty patch
// is accepted and changes nothing.
func (s *Service) UpdateCurrentUser(ctx context.Context, accessToken string, patch user.Patch) (err error) {
	ctx, span := s.start(ctx, "update_current_user")
	defer func() { err = s.finish(ctx, span, "update_current_user", err) }()

	const op = "identity.update_current_user"

	if patch.Email != nil {
		email := user.NormalizeEmail(*patch.Email)
		patch.Email = &email
	}

	return s.sessions.Session(ctx, func(ctx context.Context, db dbx.DBTX) error {
		users := s.stores.Users(db)

		id, err := s.resolver.AuthenticateForAccess(ctx, users, accessToken)
		if err != nil {
			return err
		}
		if err := patch.Validate(); err != nil {
			return apperr.New(op, apperr.ErrInvalidArgument, err)
		}
		if patch.Empty() {
			return nil
		}

		ctx = actorctx.WithIdentity(ctx, id)
		if err := users.UpdateUser(ctx, id.ID, patch); err != nil {
			return err
		}

		s.log.InfoContext(ctx, "user updated", "user_id", id.ID)
		return nil
	})
}

func (s *Service) ListUsersAsAdmin(ctx context.Context, accessToken string) (out []user.Listing, err error) {
	ctx, span := s.start(ctx, "list_users")
	defer func() { err = s.finish(ctx, span, "list_users", err) }()

	err = s.asAdmin(ctx, accessToken, func(ctx context.Context, db dbx.DBTX, _ user.Identity) error {
		out, err = s.stores.Users(db).ListAll(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) CreateRole(ctx context.Context, accessToken, name string) (role user.Role, err error) {
	ctx, span := s.start(ctx, "create_role")
	defer func() { err = s.finish(ctx, span, "create_role", err) }()

	err = s.asAdmin(ctx, accessToken, func(ctx context.Context, db dbx.DBTX, _ user.Identity) error {
		role, err = s.stores.Roles(db).Add(ctx, name)
		return err
	})
	if err != nil {
		return user.Role{}, err
	}

	s.log.InfoContext(ctx, "role created", "role_id", role.ID, "role", role.Name)
	return role, nil
}

func (s *Service) DeleteRole(ctx context.Context, accessToken string, roleID int64) (err error) {
	ctx, span := s.start(ctx, "delete_role")
	defer func() { err = s.finish(ctx, span, "delete_role", err) }()

	return s.asAdmin(ctx, accessToken, func(ctx context.Context, db dbx.DBTX, _ user.Identity) error {
		return s.stores.Roles(db).Delete(ctx, roleID)
	})
}

func (s *Service) DeleteUser(ctx context.Context, accessToken string, userID int64) (err error) {
	ctx, span := s.start(ctx, "delete_user")
	defer func() { err = s.finish(ctx, span, "delete_user", err) }()

	return s.asAdmin(ctx, accessToken, func(ctx context.Context, db dbx.DBTX, caller user.Identity) error {
		if caller.ID == userID {
			return apperr.New("identity.delete_user", apperr.ErrInvalidArgument, ErrDeleteSelf)
		}
		return s.stores.Users(db).DeleteUser(ctx, userID)
	})
}

// asAdmin authenticates the access token, checks the admin role and runs fn
// on the same session.
func (s *Service) asAdmin(ctx context.Context, accessToken string, fn func(ctx context.Context, db dbx.DBTX, caller user.Identity) error) error {
	return s.sessions.Session(ctx, func(ctx context.Context, db dbx.DBTX) error {
		users := s.stores.Users(db)

		caller, claims, err := s.resolver.AuthenticateToken(ctx, users, accessToken, auth.TokenTypeAccess)
		if err != nil {
			return err
		}

		ctx = actorctx.WithIdentity(ctx, caller)
		if err := s.resolver.AuthorizeAdmin(ctx, users, claims); err != nil {
			return err
		}

		return fn(ctx, db, caller)
	})
}
