package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tourbook/internal/apperr"
	"tourbook/internal/application/session"
	"tourbook/internal/domain/auth"
	"tourbook/internal/domain/media"
	"tourbook/internal/domain/notification"
	"tourbook/internal/domain/query"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// Login is the result of every flow that opens a session
type Login struct {
	User    *auth.User
	Session *auth.Session
	Tokens  session.Tokens
}

// Service handles account and credential flows
type Service struct {
	users     auth.UserRepository
	sessions  *session.Manager
	mailer    notification.Mailer
	images    media.ImageStore
	cost      int
	dummyHash []byte
	now       func() time.Time
}

// NewService creates a new authentication service
func NewService(users auth.UserRepository, sessions *session.Manager, mailer notification.Mailer, images media.ImageStore, bcryptCost int) *Service {
	if mailer == nil {
		mailer = notification.Discard{}
	}
	if images == nil {
		images = media.Disabled{}
	}
	// compared against for unknown emails
	dummy, _ := bcrypt.GenerateFromPassword([]byte("tourbook-dummy-password"), bcryptCost)

	return &Service{
		users:     users,
		sessions:  sessions,
		mailer:    mailer,
		images:    images,
		cost:      bcryptCost,
		dummyHash: dummy,
		now:       time.Now,
	}
}

// Signup creates a regular user and opens a first session
func (s *Service) Signup(ctx context.Context, req auth.SignupRequest, meta auth.SessionMeta) (*Login, error) {
	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &auth.User{
		ID:                uuid.NewString(),
		Name:              req.Name,
		Email:             auth.NormalizeEmail(req.Email),
		Role:              auth.RoleUser,
		PasswordHash:      hash,
		PasswordChangedAt: now,
		Active:            true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, userError(err)
	}

	s.notify(ctx, notification.TemplateWelcome, user, nil)

	return s.open(ctx, user, meta)
}

// Login checks credentials and opens a new session. Unknown emails, inactive
// accounts and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req auth.LoginRequest, meta auth.SessionMeta) (*Login, error) {
	user, err := s.users.GetUserByEmail(ctx, auth.NormalizeEmail(req.Email))
	if err != nil && !errors.Is(err, auth.ErrUserNotFound) {
		return nil, apperr.Internal(err)
	}

	if user == nil || !user.Active {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(req.Password))
		return nil, apperr.Unauthenticated(apperr.MsgBadCredentials)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, apperr.Unauthenticated(apperr.MsgBadCredentials)
	}

	return s.open(ctx, user, meta)
}

// Logout invalidates the current session. A missing or unknown session is not an error.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	err := s.sessions.InvalidateSession(ctx, sessionID)
	if err != nil && !errors.Is(err, auth.ErrSessionNotFound) {
		return apperr.Internal(err)
	}
	return nil
}

// UpdatePassword verifies the current password, stores the new one, revokes every
// session of the user and opens a fresh one.
func (s *Service) UpdatePassword(ctx context.Context, userID string, req auth.UpdatePasswordRequest, meta auth.SessionMeta) (*Login, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.PasswordCurrent)) != nil {
		return nil, apperr.Unauthenticated("your current password is wrong")
	}

	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash
	user.PasswordChangedAt = s.now()
	user.UpdatedAt = user.PasswordChangedAt
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, userError(err)
	}

	n, err := s.sessions.InvalidateUserSessions(ctx, user.ID, "")
	if err != nil {
		return nil, apperr.Internal(err)
	}
	log.Info().Str("user_id", user.ID).Int("sessions", n).Msg("password changed, sessions revoked")

	return s.open(ctx, user, meta)
}

// Me returns the current stored state of the caller
func (s *Service) Me(ctx context.Context, userID string) (*auth.User, error) {
	return s.getUser(ctx, userID)
}

// UpdateMe changes the caller's name, email and photo. Role and activity are ignored.
func (s *Service) UpdateMe(ctx context.Context, userID string, req auth.UserUpdateRequest, photo []byte) (*auth.User, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = auth.NormalizeEmail(*req.Email)
	}
	if len(photo) > 0 {
		url, err := s.images.Upload(ctx, photo, media.FolderUsers, user.ID)
		if err != nil {
			return nil, mediaError(err)
		}
		user.Photo = url
	}

	user.UpdatedAt = s.now()
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, userError(err)
	}
	return user, nil
}

// DeleteMe deactivates the caller and revokes all their sessions
func (s *Service) DeleteMe(ctx context.Context, userID string) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	user.Active = false
	user.UpdatedAt = s.now()
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return userError(err)
	}
	if _, err := s.sessions.InvalidateUserSessions(ctx, user.ID, ""); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// Sessions lists the caller's sessions, valid or not
func (s *Service) Sessions(ctx context.Context, userID string) ([]*auth.Session, error) {
	sessions, err := s.sessions.ListUserSessions(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return sessions, nil
}

// ListUsers returns users matching a translated query
func (s *Service) ListUsers(ctx context.Context, q query.Spec) ([]*auth.User, error) {
	users, err := s.users.ListUsers(ctx, q)
	if err != nil {
		return nil, userError(err)
	}
	return users, nil
}

// GetUser returns one user
func (s *Service) GetUser(ctx context.Context, userID string) (*auth.User, error) {
	return s.getUser(ctx, userID)
}

// CreateUser creates a user with an explicit role
func (s *Service) CreateUser(ctx context.Context, req auth.UserCreateRequest) (*auth.User, error) {
	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &auth.User{
		ID:                uuid.NewString(),
		Name:              req.Name,
		Email:             auth.NormalizeEmail(req.Email),
		Role:              req.Role,
		PasswordHash:      hash,
		PasswordChangedAt: now,
		Active:            true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, userError(err)
	}
	return user, nil
}

// UpdateUser applies an administrative partial update. Deactivating a user revokes their sessions.
func (s *Service) UpdateUser(ctx context.Context, userID string, req auth.UserUpdateRequest) (*auth.User, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = auth.NormalizeEmail(*req.Email)
	}
	if req.Role != nil {
		if !req.Role.Valid() {
			return nil, apperr.Validation(fmt.Sprintf("invalid role %q", *req.Role))
		}
		user.Role = *req.Role
	}
	deactivated := false
	if req.Active != nil {
		deactivated = user.Active && !*req.Active
		user.Active = *req.Active
	}

	user.UpdatedAt = s.now()
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, userError(err)
	}
	if deactivated {
		if _, err := s.sessions.InvalidateUserSessions(ctx, user.ID, ""); err != nil {
			return nil, apperr.Internal(err)
		}
	}
	return user, nil
}

// DeleteUser removes a user and revokes their sessions
func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	if err := s.users.DeleteUser(ctx, userID); err != nil {
		return userError(err)
	}
	if _, err := s.sessions.InvalidateUserSessions(ctx, userID, ""); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func (s *Service) open(ctx context.Context, user *auth.User, meta auth.SessionMeta) (*Login, error) {
	sess, err := s.sessions.CreateSession(ctx, user.ID, meta)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	tokens, err := s.sessions.IssueTokens(user, sess.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &Login{User: user, Session: sess, Tokens: tokens}, nil
}

func (s *Service) getUser(ctx context.Context, userID string) (*auth.User, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, userError(err)
	}
	return user, nil
}

func (s *Service) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", apperr.Validation("password must be at most 72 bytes")
		}
		return "", apperr.Internal(err)
	}
	return string(hash), nil
}

// notify sends an email without failing the calling flow
func (s *Service) notify(ctx context.Context, template string, user *auth.User, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	data["Name"] = user.Name
	if err := s.mailer.Send(ctx, template, user.Email, data); err != nil {
		log.Warn().Err(err).Str("template", template).Str("user_id", user.ID).Msg("failed to send email")
	}
}

func userError(err error) error {
	switch {
	case errors.Is(err, auth.ErrUserNotFound):
		return apperr.NotFound("no user found with that ID")
	case errors.Is(err, auth.ErrEmailTaken):
		return apperr.Validation("email is already in use")
	case errors.Is(err, query.ErrUnsupported):
		return apperr.Validation(err.Error())
	default:
		return apperr.Internal(err)
	}
}

func mediaError(err error) error {
	switch {
	case errors.Is(err, media.ErrStorageDisabled), errors.Is(err, media.ErrUnsupportedImage):
		return apperr.Validation(err.Error())
	default:
		return apperr.Internal(err)
	}
}
