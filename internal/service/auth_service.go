package service

import (
	"coachlink/fitness-platform/internal/domain"
	"coachlink/fitness-platform/internal/repository"
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// --- Error Definitions ---
var (
	ErrUserAlreadyExists    = errors.New("user with this email or username already exists")
	ErrAuthenticationFailed = errors.New("authentication failed: invalid credentials")
	ErrTrainerNotValidated  = errors.New("trainer account is awaiting admin approval")
	ErrHashingFailed        = errors.New("failed to hash password")
	ErrTokenGeneration      = errors.New("failed to generate authentication token")
	ErrLoginTokenInvalid    = errors.New("login token is invalid, expired or already used")
)

// --- Service Interface ---
type AuthService interface {
	Register(ctx context.Context, username, email, password string, role domain.Role) (*domain.User, error)
	Login(ctx context.Context, email, password string) (token string, user *domain.User, err error)

	// QR one-time login: the logged-in user issues a short-lived single-use
	// token, renders it as a QR code, and another device exchanges it for a
	// regular JWT.
	IssueLoginToken(ctx context.Context, userID primitive.ObjectID) (*domain.LoginToken, error)
	ExchangeLoginToken(ctx context.Context, token string) (jwtToken string, user *domain.User, err error)

	GetProfile(ctx context.Context, userID primitive.ObjectID) (*domain.User, error)
	GetJWTSecret() string
}

// --- Service Implementation ---

// authService implements the AuthService interface.
type authService struct {
	userRepo       repository.UserRepository
	loginTokenRepo repository.LoginTokenRepository
	jwtSecret      string
	jwtExpiration  time.Duration
	loginTokenTTL  time.Duration
}

// NewAuthService creates a new instance of authService.
func NewAuthService(
	userRepo repository.UserRepository,
	loginTokenRepo repository.LoginTokenRepository,
	jwtSecret string,
	jwtExpiration time.Duration,
	loginTokenTTL time.Duration,
) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty") // Critical configuration
	}
	if jwtExpiration <= 0 {
		jwtExpiration = time.Hour * 1
	}
	if loginTokenTTL <= 0 {
		loginTokenTTL = 2 * time.Minute
	}
	return &authService{
		userRepo:       userRepo,
		loginTokenRepo: loginTokenRepo,
		jwtSecret:      jwtSecret,
		jwtExpiration:  jwtExpiration,
		loginTokenTTL:  loginTokenTTL,
	}
}

// Register handles new user registration. The role is chosen at signup;
// trainer accounts start unvalidated and cannot log in until an admin
// approves them.
func (s *authService) Register(ctx context.Context, username, email, password string, role domain.Role) (*domain.User, error) {
	if username == "" || email == "" || password == "" || role == "" {
		return nil, errors.New("username, email, password, and role cannot be empty")
	}
	if role != domain.RoleClient && role != domain.RoleTrainer {
		// Admin accounts are provisioned out-of-band, not via signup.
		return nil, errors.New("role must be client or trainer")
	}

	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	_, err = s.userRepo.GetByUsername(ctx, username)
	if err == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrHashingFailed
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         role,
		IsValidated:  role != domain.RoleTrainer, // trainers await admin approval
	}
	if role == domain.RoleTrainer {
		user.MaxClients = domain.DefaultMaxClients
	}

	userID, err := s.userRepo.Create(ctx, user)
	if err != nil {
		// Unique indexes catch the race between the existence checks and the
		// insert.
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}
	user.ID = userID

	user.PasswordHash = ""
	return user, nil
}

// Login handles user authentication and JWT generation.
func (s *authService) Login(ctx context.Context, email, password string) (token string, user *domain.User, err error) {
	if email == "" || password == "" {
		err = errors.New("email and password cannot be empty")
		return
	}

	user, err = s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			err = ErrAuthenticationFailed // User not found maps to auth failure
			return
		}
		return
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if err != nil {
		err = ErrAuthenticationFailed
		user = nil
		return
	}

	// Unvalidated trainers authenticate but are not let in.
	if user.IsTrainer() && !user.IsValidated {
		err = ErrTrainerNotValidated
		user = nil
		return
	}

	token, err = s.generateJWT(user)
	if err != nil {
		return "", nil, ErrTokenGeneration
	}

	user.PasswordHash = ""
	return token, user, nil
}

// === QR one-time login ===

// IssueLoginToken creates a short-lived single-use login token for the user.
func (s *authService) IssueLoginToken(ctx context.Context, userID primitive.ObjectID) (*domain.LoginToken, error) {
	if userID == primitive.NilObjectID {
		return nil, errors.New("user ID is required")
	}

	now := time.Now().UTC()
	token := &domain.LoginToken{
		Token:     uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.loginTokenTTL),
	}

	id, err := s.loginTokenRepo.Create(ctx, token)
	if err != nil {
		return nil, err
	}
	token.ID = id
	return token, nil
}

// ExchangeLoginToken consumes a one-time token and returns a fresh JWT for
// its owner. A token exchanges at most once; retries and replays fail with
// ErrLoginTokenInvalid.
func (s *authService) ExchangeLoginToken(ctx context.Context, token string) (string, *domain.User, error) {
	if token == "" {
		return "", nil, ErrLoginTokenInvalid
	}

	consumed, err := s.loginTokenRepo.Consume(ctx, token, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrStaleState) {
			return "", nil, ErrLoginTokenInvalid
		}
		return "", nil, err
	}

	user, err := s.userRepo.GetByID(ctx, consumed.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrLoginTokenInvalid
		}
		return "", nil, err
	}

	jwtToken, err := s.generateJWT(user)
	if err != nil {
		return "", nil, ErrTokenGeneration
	}

	user.PasswordHash = ""
	return jwtToken, user, nil
}

// GetProfile returns the user's own account record.
func (s *authService) GetProfile(ctx context.Context, userID primitive.ObjectID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

// --- JWT Helper ---

// jwtClaims defines the structure of the JWT payload.
type jwtClaims struct {
	UserID string      `json:"uid"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// generateJWT creates a new JWT token for the given user.
func (s *authService) generateJWT(user *domain.User) (string, error) {
	expirationTime := time.Now().Add(s.jwtExpiration)
	claims := &jwtClaims{
		UserID: user.ID.Hex(),
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "coaching-platform",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedToken, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", err
	}
	return signedToken, nil
}

// GetJWTSecret returns the JWT secret for middleware authentication
func (s *authService) GetJWTSecret() string {
	return s.jwtSecret
}
