package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/techpulse/marketplace/internal/logger"
	"github.com/techpulse/marketplace/internal/model"
	"github.com/techpulse/marketplace/internal/repository"
	"github.com/techpulse/marketplace/internal/utils"
)

// Principal is the identity behind a verified bearer token.
type Principal struct {
	UserID uint64
	Role   string
	JTI    string
	Exp    time.Time
}

func (p Principal) IsAdmin() bool { return p.Role == model.RoleAdmin }

// RequireAdmin fails unless p holds the admin role.
func RequireAdmin(p Principal) error {
	if !p.IsAdmin() {
		return forbiddenf("admin access required")
	}
	return nil
}

type AuthConfig struct {
	Secret     string
	TokenTTL   time.Duration
	BcryptCost int
}

type AuthService struct {
	users     UserStore
	favorites FavoriteStore
	denylist  TokenDenylist
	cfg       AuthConfig
}

func NewAuthService(users UserStore, favorites FavoriteStore, denylist TokenDenylist, cfg AuthConfig) *AuthService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 7 * 24 * time.Hour
	}
	return &AuthService{users: users, favorites: favorites, denylist: denylist, cfg: cfg}
}

type SignupInput struct {
	FirstName string `json:"firstName" validate:"required,min=2,max=50"`
	LastName  string `json:"lastName" validate:"required,min=2,max=50"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfilePatch carries the optional fields of a profile update.
type ProfilePatch struct {
	FirstName *string `json:"firstName" validate:"omitempty,min=2,max=50"`
	LastName  *string `json:"lastName" validate:"omitempty,min=2,max=50"`
	Email     *string `json:"email" validate:"omitempty,email,max=254"`
}

// AuthResult is returned by signup and login.
type AuthResult struct {
	Token string           `json:"token"`
	User  model.PublicUser `json:"user"`
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Signup registers a new user with the user role.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (AuthResult, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = normalizeEmail(in.Email)
	if err := check(in); err != nil {
		return AuthResult{}, err
	}
	u, err := s.register(ctx, in, model.RoleUser)
	if err != nil {
		return AuthResult{}, err
	}
	return s.issue(u)
}

func (s *AuthService) register(ctx context.Context, in SignupInput, role string) (model.User, error) {
	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return model.User{}, err
	}
	u := model.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return model.User{}, conflictf("an account with this email already exists")
		}
		return model.User{}, err
	}
	return u, nil
}

// Login verifies credentials. Unknown emails and wrong passwords fail the
// same way.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (AuthResult, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return AuthResult{}, validationf("email and password are required")
	}
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return AuthResult{}, errInvalidCredentials
	}
	if err != nil {
		return AuthResult{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, in.Password) {
		return AuthResult{}, errInvalidCredentials
	}
	return s.issue(u)
}

func (s *AuthService) issue(u model.User) (AuthResult, error) {
	tok, err := utils.NewAccessToken(s.cfg.Secret, u.ID, u.Role, s.cfg.TokenTTL)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Token: tok.Token, User: u.Public()}, nil
}

// Identify resolves a bearer token to a principal. The role is taken from
// the stored user so that a role change applies to tokens already issued.
func (s *AuthService) Identify(ctx context.Context, raw string) (Principal, error) {
	claims, err := utils.ParseAccessToken(s.cfg.Secret, raw)
	if err != nil {
		return Principal{}, &Error{Kind: ErrAuthentication, Msg: "invalid or expired token"}
	}
	if s.denylist != nil && claims.JTI != "" {
		revoked, err := s.denylist.IsRevoked(ctx, claims.JTI)
		if err != nil {
			logger.Warn(ctx).Err(err).Msg("auth: denylist lookup failed")
			return Principal{}, newError(ErrDependency, "token check unavailable")
		}
		if revoked {
			return Principal{}, &Error{Kind: ErrAuthentication, Msg: "token has been revoked"}
		}
	}
	u, err := s.users.GetByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return Principal{}, &Error{Kind: ErrAuthentication, Msg: "user no longer exists"}
	}
	if err != nil {
		return Principal{}, err
	}
	return Principal{UserID: u.ID, Role: u.Role, JTI: claims.JTI, Exp: claims.Exp}, nil
}

// Me returns the profile of the user with the given id.
func (s *AuthService) Me(ctx context.Context, userID uint64) (model.Profile, error) {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Profile{}, notFoundf("user not found")
	}
	if err != nil {
		return model.Profile{}, err
	}
	favs, err := s.favorites.IDs(ctx, userID)
	if err != nil {
		return model.Profile{}, err
	}
	if favs == nil {
		favs = []uint64{}
	}
	return model.Profile{
		PublicUser:   u.Public(),
		Favorites:    favs,
		SellerRating: u.SellerRating,
		SellerSales:  u.SellerSales,
		CreatedAt:    u.CreatedAt,
	}, nil
}

// UpdateProfile applies the provided fields of patch.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uint64, patch ProfilePatch) (model.PublicUser, error) {
	trimPtr(patch.FirstName)
	trimPtr(patch.LastName)
	if patch.Email != nil {
		*patch.Email = normalizeEmail(*patch.Email)
	}
	if err := check(patch); err != nil {
		return model.PublicUser{}, err
	}
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.PublicUser{}, notFoundf("user not found")
	}
	if err != nil {
		return model.PublicUser{}, err
	}
	if patch.FirstName != nil {
		u.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		u.LastName = *patch.LastName
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if err := s.users.UpdateProfile(ctx, u.ID, u.FirstName, u.LastName, u.Email); err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return model.PublicUser{}, conflictf("an account with this email already exists")
		case errors.Is(err, repository.ErrNotFound):
			return model.PublicUser{}, notFoundf("user not found")
		}
		return model.PublicUser{}, err
	}
	return u.Public(), nil
}

// Logout revokes the token of p until its natural expiry. Without a
// denylist it does nothing.
func (s *AuthService) Logout(ctx context.Context, p Principal) error {
	if s.denylist == nil || p.JTI == "" {
		return nil
	}
	if err := s.denylist.Revoke(ctx, p.JTI, p.Exp); err != nil {
		return newError(ErrDependency, "logout unavailable")
	}
	return nil
}

// EnsureAdmin creates the bootstrap admin account when no user with email
// exists yet. An existing account is left untouched.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	in := SignupInput{FirstName: "Admin", LastName: "TechPulse", Email: normalizeEmail(email), Password: password}
	if err := check(in); err != nil {
		return false, err
	}
	_, err := s.users.GetByEmail(ctx, in.Email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}
	if _, err := s.register(ctx, in, model.RoleAdmin); err != nil {
		if errors.Is(err, ErrConflict) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
