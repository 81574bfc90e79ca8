package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"trivia-service/internal/domain"
	"trivia-service/internal/mailer"
	"trivia-service/internal/middleware"
	"trivia-service/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"
)

const verificationTTL = 10 * time.Minute

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// AuthService handles registration, login and profile management.
// Redis holds pending verification codes; without it (or without a
// mail account) new users are verified immediately, matching local
// development setups.
type AuthService struct {
	Users UserStore
	Redis *redis.Client
	Mail  *mailer.Mailer
	JWT   *middleware.JWTManager
}

func NewAuthService(users UserStore, redisClient *redis.Client, mail *mailer.Mailer, jwtManager *middleware.JWTManager) *AuthService {
	return &AuthService{Users: users, Redis: redisClient, Mail: mail, JWT: jwtManager}
}

type RegisterInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

// Register creates an account and returns the user plus a signed
// token. The admin role can never be self-assigned.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)

	if in.Name == "" || !emailRegex.MatchString(in.Email) || len(in.Password) < 6 {
		return nil, "", domain.ErrInvalidInput
	}
	role := in.Role
	if role == "" {
		role = models.RoleParticipant
	}
	if role == models.RoleAdmin || !models.ValidRole(role) {
		return nil, "", domain.ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	user := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
		IsVerified:   s.Redis == nil,
		CreatedAt:    time.Now(),
	}
	if err := s.Users.Create(ctx, user); err != nil {
		return nil, "", err
	}

	if s.Redis != nil {
		code := uuid.NewString()
		if err := s.Redis.Set(ctx, "email_verify:"+user.Email, code, verificationTTL).Err(); err == nil {
			go s.Mail.SendVerificationCode(user.Email, code)
		}
	}

	token, err := s.JWT.Generate(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// VerifyEmail redeems a pending verification code.
func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) error {
	if s.Redis == nil {
		return domain.ErrNotFound
	}
	email = strings.ToLower(strings.TrimSpace(email))
	stored, err := s.Redis.Get(ctx, "email_verify:"+email).Result()
	if err != nil || stored != code {
		return domain.ErrNotFound
	}
	user, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := s.Users.Update(ctx, user.ID, bson.M{"is_verified": true}); err != nil {
		return err
	}
	s.Redis.Del(ctx, "email_verify:"+email)
	return nil
}

// Login checks credentials and issues a token. Invalid email and
// invalid password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", domain.ErrUnauthenticated
	}
	if !user.IsActive {
		return nil, "", domain.ErrUnauthenticated
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", domain.ErrUnauthenticated
	}

	now := time.Now()
	user.LastLogin = now
	_ = s.Users.Update(ctx, user.ID, bson.M{"last_login": now})

	token, err := s.JWT.Generate(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// UpdateProfile changes the display name.
func (s *AuthService) UpdateProfile(ctx context.Context, userID, name string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if len(name) < 2 {
		return nil, domain.ErrInvalidInput
	}
	if err := s.Users.Update(ctx, userID, bson.M{"name": name}); err != nil {
		return nil, err
	}
	return s.Users.FindByID(ctx, userID)
}

// ChangePassword verifies the current password before setting a new
// one.
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) error {
	if len(next) < 6 {
		return domain.ErrInvalidInput
	}
	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return domain.ErrUnauthenticated
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.Users.Update(ctx, userID, bson.M{"password_hash": string(hash)})
}
