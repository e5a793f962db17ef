package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/mentormatch/mentor-match-go/internal/config"
	"github.com/mentormatch/mentor-match-go/internal/database"
	apperrors "github.com/mentormatch/mentor-match-go/internal/errors"
	"github.com/mentormatch/mentor-match-go/internal/model"
	"github.com/mentormatch/mentor-match-go/internal/repository"
	"github.com/mentormatch/mentor-match-go/internal/util"
)

type SignupInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	IsMentor bool   `json:"isMentor"`
}

func (in SignupInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperrors.MissingRequired("name")
	}
	if in.Email == "" {
		return apperrors.MissingRequired("email")
	}
	if !util.IsValidEmail(in.Email) {
		return apperrors.InvalidInput("email", "must be a valid email address")
	}
	return validatePassword("password", in.Password)
}

func validatePassword(field, password string) error {
	if password == "" {
		return apperrors.MissingRequired(field)
	}
	if len(password) < config.MinPasswordLength {
		return apperrors.InvalidInput(field, fmt.Sprintf("must be at least %d characters", config.MinPasswordLength))
	}
	return nil
}

type AuthResult struct {
	User        *model.User    `json:"-"`
	Profile     *model.Profile `json:"profile"`
	AccessToken string         `json:"accessToken"`
}

type AuthService struct {
	cfg      *config.Config
	tx       database.Transactor
	users    repository.UserRepository
	profiles repository.ProfileRepository
	tokens   repository.AuthTokenRepository
	resets   repository.PasswordResetRepository
	mailer   Mailer
	verifier IDTokenVerifier

	bcryptCost int
	now        func() time.Time
}

func NewAuthService(
	cfg *config.Config,
	tx database.Transactor,
	users repository.UserRepository,
	profiles repository.ProfileRepository,
	tokens repository.AuthTokenRepository,
	resets repository.PasswordResetRepository,
	mailer Mailer,
	verifier IDTokenVerifier,
) *AuthService {
	return &AuthService{
		cfg:        cfg,
		tx:         tx,
		users:      users,
		profiles:   profiles,
		tokens:     tokens,
		resets:     resets,
		mailer:     mailer,
		verifier:   verifier,
		bcryptCost: config.BcryptCost,
		now:        time.Now,
	}
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	in.Email = util.NormalizeEmail(in.Email)
	if err := in.validate(); err != nil {
		return nil, err
	}

	hash, err := util.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, profile, err := s.createAccount(ctx, in.Email, hash, strings.TrimSpace(in.Name), in.IsMentor)
	if err != nil {
		return nil, err
	}

	log.Info().Str("userId", user.ID).Bool("isMentor", profile.IsMentor).Msg("user signed up")
	return s.issue(ctx, user, profile)
}

func (s *AuthService) createAccount(ctx context.Context, email, passwordHash, name string, isMentor bool) (*model.User, *model.Profile, error) {
	var user *model.User
	var profile *model.Profile

	err := s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		user, err = s.users.WithTx(tx).Create(ctx, model.CreateUserParams{
			ID:           util.NewID(),
			Email:        email,
			PasswordHash: passwordHash,
		})
		if repository.IsUniqueViolation(err) {
			return apperrors.AlreadyExists("User")
		}
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}

		profile, err = s.profiles.WithTx(tx).Create(ctx, model.CreateProfileParams{
			ID:       util.NewID(),
			UserID:   user.ID,
			Name:     name,
			IsMentor: isMentor,
		})
		if err != nil {
			return fmt.Errorf("create profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return user, profile, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = util.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperrors.ValidationError("Email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil || !util.CheckPasswordHash(password, user.PasswordHash) {
		return nil, apperrors.Unauthorized("Wrong email or password")
	}

	profile, err := s.profileOf(ctx, user)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, user, profile)
}

// GoogleLogin signs in with a verified Google ID token, creating a mentee
// account on first use.
func (s *AuthService) GoogleLogin(ctx context.Context, idToken string) (*AuthResult, error) {
	if idToken == "" {
		return nil, apperrors.MissingRequired("idToken")
	}

	identity, err := s.verifier.Verify(ctx, idToken)
	switch {
	case errors.Is(err, ErrInvalidIDToken):
		return nil, apperrors.InvalidToken("Invalid Google credential")
	case err != nil:
		return nil, apperrors.External("Google", err)
	}
	if !identity.EmailVerified {
		return nil, apperrors.Unauthorized("Google email is not verified")
	}

	email := util.NormalizeEmail(identity.Email)
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if user != nil {
		profile, err := s.profileOf(ctx, user)
		if err != nil {
			return nil, err
		}
		return s.issue(ctx, user, profile)
	}

	// The account gets a random password nobody knows; the reset flow can
	// set a real one later.
	random, err := util.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("generate password: %w", err)
	}
	hash, err := util.HashPassword(random, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	name := identity.Name
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}

	user, profile, err := s.createAccount(ctx, email, hash, name, false)
	if err != nil {
		return nil, err
	}

	if identity.Picture != "" {
		if updated, err := s.profiles.Update(ctx, profile.ID, model.UpdateProfileParams{AvatarURL: &identity.Picture}); err == nil && updated != nil {
			profile = updated
		}
	}

	log.Info().Str("userId", user.ID).Msg("user signed up with Google")
	return s.issue(ctx, user, profile)
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.tokens.DeleteByHash(ctx, util.HashToken(token))
}

// Authenticate resolves a bearer token. It returns nil values without error
// for unknown or expired tokens.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.User, *model.Profile, error) {
	stored, err := s.tokens.FindValidByHash(ctx, util.HashToken(token))
	if err != nil {
		return nil, nil, fmt.Errorf("find token: %w", err)
	}
	if stored == nil {
		return nil, nil, nil
	}

	user, err := s.users.FindByID(ctx, stored.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, nil, nil
	}

	profile, err := s.profiles.FindByUserID(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("find profile: %w", err)
	}
	if profile == nil {
		return nil, nil, nil
	}
	return user, profile, nil
}

// ForgotPassword mails a single-use reset link. The token is stored as an
// HMAC so a database leak does not leak usable links.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = util.NormalizeEmail(email)
	if email == "" {
		return apperrors.MissingRequired("email")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return apperrors.NotFound("User")
	}

	token, err := util.GenerateToken()
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}

	_, err = s.resets.Create(ctx, model.CreatePasswordResetParams{
		ID:        util.NewID(),
		UserID:    user.ID,
		TokenHash: util.HmacSHA256(s.cfg.ResetTokenSecret, token),
		ExpiresAt: s.now().Add(s.cfg.ResetTokenTTL()),
	})
	if err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	link := strings.TrimRight(s.cfg.ClientURL, "/") + "/resetpassword/" + token
	body := fmt.Sprintf(
		"Someone asked to reset the password of your Mentor Match account.\n\n"+
			"Open this link within %d minutes to choose a new password:\n%s\n\n"+
			"If this was not you, ignore this email.\n",
		s.cfg.ResetTokenTTLMinutes, link)

	if err := s.mailer.Send(ctx, user.Email, "Reset your Mentor Match password", body); err != nil {
		return apperrors.External("mail", err)
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return apperrors.MissingRequired("resetToken")
	}
	if err := validatePassword("newPassword", newPassword); err != nil {
		return err
	}

	reset, err := s.resets.FindActiveByHash(ctx, util.HmacSHA256(s.cfg.ResetTokenSecret, token))
	if err != nil {
		return fmt.Errorf("find reset token: %w", err)
	}
	if reset == nil {
		return apperrors.InvalidToken("Reset link is invalid or has expired")
	}

	hash, err := util.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		ok, err := s.resets.WithTx(tx).MarkUsed(ctx, reset.ID)
		if err != nil {
			return fmt.Errorf("mark reset used: %w", err)
		}
		if !ok {
			return apperrors.InvalidToken("Reset link is invalid or has expired")
		}
		if err := s.users.WithTx(tx).UpdatePassword(ctx, reset.UserID, hash); err != nil {
			return fmt.Errorf("update password: %w", err)
		}
		if err := s.tokens.WithTx(tx).DeleteByUser(ctx, reset.UserID); err != nil {
			return fmt.Errorf("revoke tokens: %w", err)
		}
		return nil
	})
}

func (s *AuthService) profileOf(ctx context.Context, user *model.User) (*model.Profile, error) {
	profile, err := s.profiles.FindByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}
	if profile == nil {
		return nil, apperrors.NotFound("Profile")
	}
	return profile, nil
}

func (s *AuthService) issue(ctx context.Context, user *model.User, profile *model.Profile) (*AuthResult, error) {
	token, err := util.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	_, err = s.tokens.Create(ctx, model.CreateAuthTokenParams{
		ID:        util.NewID(),
		UserID:    user.ID,
		TokenHash: util.HashToken(token),
		ExpiresAt: s.now().Add(s.cfg.AuthTokenTTL()),
	})
	if err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}

	return &AuthResult{User: user, Profile: profile, AccessToken: token}, nil
}

// PurgeExpired drops expired access and reset tokens.
func (s *AuthService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.tokens.DeleteExpired(ctx)
	if err != nil {
		return 0, err
	}
	m, err := s.resets.DeleteExpired(ctx)
	if err != nil {
		return n, err
	}
	return n + m, nil
}
