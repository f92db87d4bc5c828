package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/uniportal/registrar-api/internal/models"
	"github.com/uniportal/registrar-api/pkg/config"
	appErrors "github.com/uniportal/registrar-api/pkg/errors"
)

type authUserRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, userID int) (*models.User, error)
	UpdatePassword(ctx context.Context, userID int, passwordHash string, updatedAt time.Time) error
}

type authDirectoryRepository interface {
	FindStudentByUserID(ctx context.Context, userID int) (*models.Student, error)
	FindTeacherByUserID(ctx context.Context, userID int) (*models.Teacher, error)
}

// AuthService issues and validates access tokens. Tokens carry the subject
// id (student_id or teacher_id) so downstream handlers can scope data to the
// caller without another lookup.
type AuthService struct {
	users     authUserRepository
	directory authDirectoryRepository
	cfg       config.JWTConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAuthService constructs AuthService.
func NewAuthService(users authUserRepository, directory authDirectoryRepository, cfg config.JWTConfig, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Expiration <= 0 {
		cfg.Expiration = 24 * time.Hour
	}
	return &AuthService{users: users, directory: directory, cfg: cfg, validator: validate, logger: logger}
}

// Login verifies credentials and returns a signed token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}
	user, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid username or password")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid username or password")
	}

	subjectID, err := s.resolveSubject(ctx, user)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	claims := models.JWTClaims{
		UserID:    user.UserID,
		Username:  user.Username,
		Role:      user.Role,
		SubjectID: subjectID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   fmt.Sprintf("%d", user.UserID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.Expiration)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign token")
	}

	s.logger.Info("user logged in", zap.Int("user_id", user.UserID), zap.String("role", string(user.Role)))
	return &models.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.cfg.Expiration.Seconds()),
		IssuedAt:    now,
		User: models.UserInfo{
			UserID:    user.UserID,
			Username:  user.Username,
			Role:      user.Role,
			SubjectID: subjectID,
		},
	}, nil
}

// ChangePassword rotates the caller's password after verifying the old one.
func (s *AuthService) ChangePassword(ctx context.Context, userID int, req models.ChangePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid password payload")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return appErrors.Clone(appErrors.ErrInvalidCredentials, "old password does not match")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	if err := s.users.UpdatePassword(ctx, userID, string(hash), time.Now().UTC()); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update password")
	}
	s.logger.Info("password changed", zap.Int("user_id", userID))
	return nil
}

// ValidateToken parses and verifies an access token.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	return claims, nil
}

func (s *AuthService) resolveSubject(ctx context.Context, user *models.User) (string, error) {
	switch user.Role {
	case models.RoleStudent:
		student, err := s.directory.FindStudentByUserID(ctx, user.UserID)
		if err != nil {
			if err == sql.ErrNoRows {
				return "", nil
			}
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve student")
		}
		return student.StudentID, nil
	case models.RoleTeacher:
		teacher, err := s.directory.FindTeacherByUserID(ctx, user.UserID)
		if err != nil {
			if err == sql.ErrNoRows {
				return "", nil
			}
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve teacher")
		}
		return teacher.TeacherID, nil
	default:
		return "", nil
	}
}
