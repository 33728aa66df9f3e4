package services

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	userrepo "github.com/openlearnhq/openlearn-backend/internal/data/repos/user"
	"github.com/openlearnhq/openlearn-backend/internal/domain"
	"github.com/openlearnhq/openlearn-backend/internal/platform/apperr"
	"github.com/openlearnhq/openlearn-backend/internal/platform/logger"
	"github.com/openlearnhq/openlearn-backend/internal/utils"
)

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthTokens struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type AuthResult struct {
	User   *domain.User `json:"user"`
	Tokens AuthTokens   `json:"tokens"`
}

type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role"`
	jwt.RegisteredClaims
}

type UpdateProfileInput struct {
	Name      *string `json:"name"`
	AvatarURL *string `json:"avatar_url"`
	Bio       *string `json:"bio"`
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, input LoginInput) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)
	Logout(ctx context.Context, accessToken string) error
	ValidateAccessToken(ctx context.Context, accessToken string) (*Claims, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*domain.User, error)
}

type authService struct {
	db        *gorm.DB
	userRepo  userrepo.UserRepo
	tokenRepo userrepo.UserTokenRepo
	secret    []byte
	accessTTL time.Duration
	log       *logger.Logger
}

func NewAuthService(
	db *gorm.DB,
	userRepo userrepo.UserRepo,
	tokenRepo userrepo.UserTokenRepo,
	baseLog *logger.Logger,
) AuthService {
	secret := utils.GetEnv("JWT_SECRET", "dev-secret-change-me", baseLog)
	accessTTLMinutes := utils.GetEnvAsInt("JWT_ACCESS_TTL_MINUTES", 60*24, baseLog)
	return &authService{
		db:        db,
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		secret:    []byte(secret),
		accessTTL: time.Duration(accessTTLMinutes) * time.Minute,
		log:       baseLog.With("service", "AuthService"),
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperr.E(apperr.KindValidation, "a valid email is required")
	}
	if len(input.Password) < 8 {
		return nil, apperr.E(apperr.KindValidation, "password must be at least 8 characters")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperr.E(apperr.KindValidation, "name is required")
	}

	role := input.Role
	switch role {
	case "", domain.RoleStudent:
		role = domain.RoleStudent
	case domain.RoleInstructor:
	default:
		return nil, apperr.E(apperr.KindValidation, "role must be student or instructor")
	}

	exists, err := s.userRepo.EmailExists(ctx, nil, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.E(apperr.KindConflict, "email is already registered")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:      email,
		Password:   string(hashed),
		Name:       strings.TrimSpace(input.Name),
		Role:       role,
		LastActive: time.Now(),
	}

	var result *AuthResult
	err = s.db.Transaction(func(tx *gorm.DB) error {
		created, err := s.userRepo.Create(ctx, tx, []*domain.User{user})
		if err != nil {
			return err
		}
		tokens, err := s.issueTokens(ctx, tx, created[0])
		if err != nil {
			return err
		}
		result = &AuthResult{User: created[0], Tokens: tokens}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Registered user", "user_id", result.User.ID, "role", result.User.Role)
	return result, nil
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	users, err := s.userRepo.GetByEmails(ctx, nil, []string{email})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, apperr.E(apperr.KindNotAuthorized, "invalid email or password")
	}
	user := users[0]

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		return nil, apperr.E(apperr.KindNotAuthorized, "invalid email or password")
	}

	user.LastActive = time.Now()
	var result *AuthResult
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.Update(ctx, tx, user); err != nil {
			return err
		}
		tokens, err := s.issueTokens(ctx, tx, user)
		if err != nil {
			return err
		}
		result = &AuthResult{User: user, Tokens: tokens}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	tokens, err := s.tokenRepo.GetByRefreshTokens(ctx, nil, []string{refreshToken})
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, apperr.E(apperr.KindNotAuthorized, "unknown refresh token")
	}
	stored := tokens[0]

	users, err := s.userRepo.GetByIDs(ctx, nil, []uuid.UUID{stored.UserID})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, apperr.E(apperr.KindNotAuthorized, "user no longer exists")
	}
	user := users[0]

	var result *AuthResult
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.tokenRepo.FullDeleteByIDs(ctx, tx, []uuid.UUID{stored.ID}); err != nil {
			return err
		}
		fresh, err := s.issueTokens(ctx, tx, user)
		if err != nil {
			return err
		}
		result = &AuthResult{User: user, Tokens: fresh}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *authService) Logout(ctx context.Context, accessToken string) error {
	tokens, err := s.tokenRepo.GetByAccessTokens(ctx, nil, []string{accessToken})
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return nil
	}
	return s.tokenRepo.FullDeleteByIDs(ctx, nil, []uuid.UUID{tokens[0].ID})
}

func (s *authService) ValidateAccessToken(ctx context.Context, accessToken string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(accessToken, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.E(apperr.KindNotAuthorized, "unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, apperr.Wrap(apperr.KindNotAuthorized, "invalid access token", err)
	}

	stored, err := s.tokenRepo.GetByAccessTokens(ctx, nil, []string{accessToken})
	if err != nil {
		return nil, err
	}
	if len(stored) == 0 {
		return nil, apperr.E(apperr.KindNotAuthorized, "token has been revoked")
	}
	return claims, nil
}

func (s *authService) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	users, err := s.userRepo.GetByIDs(ctx, nil, []uuid.UUID{userID})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, apperr.E(apperr.KindNotFound, "user not found")
	}
	return users[0], nil
}

func (s *authService) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*domain.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, apperr.E(apperr.KindValidation, "name cannot be empty")
		}
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.AvatarURL != nil {
		user.AvatarURL = *input.AvatarURL
	}
	if input.Bio != nil {
		user.Bio = *input.Bio
	}

	if err := s.userRepo.Update(ctx, nil, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *authService) issueTokens(ctx context.Context, tx *gorm.DB, user *domain.User) (AuthTokens, error) {
	expiresAt := time.Now().Add(s.accessTTL)
	claims := Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ID:        uuid.NewString(),
		},
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return AuthTokens{}, err
	}
	refreshToken := uuid.NewString() + uuid.NewString()

	_, err = s.tokenRepo.Create(ctx, tx, []*domain.UserToken{{
		UserID:       user.ID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}})
	if err != nil {
		return AuthTokens{}, err
	}
	return AuthTokens{AccessToken: accessToken, RefreshToken: refreshToken, ExpiresAt: expiresAt}, nil
}
