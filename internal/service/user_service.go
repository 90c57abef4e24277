package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/lottery-ticketing/internal/apperror"
	"github.com/iliyamo/lottery-ticketing/internal/model"
	"github.com/iliyamo/lottery-ticketing/internal/ratelimit"
	"github.com/iliyamo/lottery-ticketing/internal/repository"
	"github.com/iliyamo/lottery-ticketing/internal/utils"
)

// UserStore is the users table.  *repository.UserRepo satisfies it.
type UserStore interface {
	Create(ctx context.Context, u model.User) (uint64, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	GetByPhone(ctx context.Context, phone string) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, id uint64, u repository.UserUpdate) error
}

// RegisterInput is a new buyer.
type RegisterInput struct {
	FullName  string
	Phone     string
	Email     string
	Birthdate time.Time
	Gender    *string
}

// UserUpdateInput carries optional changes; nil fields stay untouched.
type UserUpdateInput struct {
	FullName  *string
	Phone     *string
	IsDeleted *bool
}

// GuessCounter counts verification attempts per phone.  *ratelimit.Counter
// satisfies it.
type GuessCounter interface {
	Consume(ctx context.Context, key string) (ratelimit.Result, error)
	Reset(ctx context.Context, key string) error
}

// OTPOptions bounds a sent code: it lives for TTL and survives at most
// MaxGuesses wrong attempts.
type OTPOptions struct {
	TTL        time.Duration
	MaxGuesses int
	Guesses    GuessCounter
}

// UserService handles buyers and phone verification.
type UserService struct {
	users UserStore
	otps  OTPStore
	sms   SMSSender
	auth  *AuthService
	opts  OTPOptions
	log   *zap.Logger
}

func NewUserService(users UserStore, otps OTPStore, sms SMSSender, auth *AuthService, opts OTPOptions, log *zap.Logger) (*UserService, error) {
	if opts.Guesses == nil {
		return nil, errors.New("users: guess counter is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if opts.TTL <= 0 {
		opts.TTL = 5 * time.Minute
	}
	if opts.MaxGuesses < 1 {
		opts.MaxGuesses = 5
	}
	return &UserService{users: users, otps: otps, sms: sms, auth: auth, opts: opts, log: log.Named("users")}, nil
}

func phoneError(err error) error {
	if errors.Is(err, utils.ErrInvalidPhone) {
		return apperror.BadRequest("Phone number is invalid")
	}
	return err
}

// Register creates a user and starts a session for it.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (model.User, Session, error) {
	phone, err := utils.NormalizePhone(in.Phone)
	if err != nil {
		return model.User{}, Session{}, phoneError(err)
	}
	u := model.User{
		FullName:  strings.TrimSpace(in.FullName),
		Email:     strings.TrimSpace(in.Email),
		Phone:     phone.National,
		Birthdate: in.Birthdate.UTC(),
		Gender:    in.Gender,
	}
	id, err := s.users.Create(ctx, u)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.User{}, Session{}, apperror.Conflict("Phone number is already registered")
		}
		return model.User{}, Session{}, apperror.Internal("Failed to create user", err)
	}
	created, err := s.users.GetByID(ctx, id)
	if err != nil {
		return model.User{}, Session{}, apperror.Internal("Failed to load user", err)
	}
	sess, err := s.auth.IssueSession(ctx, model.PrincipalRef{ID: id, Audience: model.AudienceUser})
	if err != nil {
		return model.User{}, Session{}, err
	}
	return created, sess, nil
}

// List returns live users.
func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	list, err := s.users.List(ctx)
	if err != nil {
		return nil, apperror.Internal("Failed to fetch users", err)
	}
	return list, nil
}

// Update changes a user's name, phone or deleted flag.
func (s *UserService) Update(ctx context.Context, id uint64, in UserUpdateInput) (model.User, error) {
	upd := repository.UserUpdate{FullName: in.FullName, IsDeleted: in.IsDeleted}
	if in.Phone != nil {
		phone, err := utils.NormalizePhone(*in.Phone)
		if err != nil {
			return model.User{}, phoneError(err)
		}
		upd.Phone = &phone.National
	}
	if err := s.users.Update(ctx, id, upd); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return model.User{}, apperror.NotFound("User not found")
		case errors.Is(err, repository.ErrDuplicate):
			return model.User{}, apperror.Conflict("Phone number is already registered")
		}
		return model.User{}, apperror.Internal("Failed to update user", err)
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return model.User{}, notFoundOr(err, "User not found", "Failed to load user")
	}
	return u, nil
}

// SendOTP texts a fresh code to rawPhone.  With login set the phone must
// belong to a registered user.
func (s *UserService) SendOTP(ctx context.Context, rawPhone string, login bool) error {
	phone, err := utils.NormalizePhone(rawPhone)
	if err != nil {
		return phoneError(err)
	}
	if login {
		if _, err := s.users.GetByPhone(ctx, phone.National); err != nil {
			return notFoundOr(err, "No user found with this phone number", "Failed to look up user")
		}
	}
	code, err := GenerateCode()
	if err != nil {
		return apperror.Internal("Failed to send OTP", err)
	}
	if err := s.sms.SendVerification(ctx, phone.International, code); err != nil {
		s.log.Error("sms delivery failed", zap.Error(err))
		return apperror.Internal("Failed to send OTP", err)
	}
	if err := s.otps.Save(ctx, phone.National, code, s.opts.TTL); err != nil {
		s.log.Error("otp store failed", zap.Error(err))
		return apperror.Internal("Failed to send OTP", err)
	}
	if err := s.opts.Guesses.Reset(ctx, phone.National); err != nil {
		s.log.Warn("otp guess reset failed", zap.Error(err))
	}
	return nil
}

// VerifyCode consumes the pending code of rawPhone.  With login set it also
// opens a session for the phone's owner.  Every attempt counts against the
// code; the attempt that exhausts MaxGuesses drops the code, so a new one
// has to be sent.
func (s *UserService) VerifyCode(ctx context.Context, rawPhone, code string, login bool) (*model.User, *Session, error) {
	if strings.TrimSpace(rawPhone) == "" || strings.TrimSpace(code) == "" {
		return nil, nil, apperror.BadRequest("Phone number and code are required")
	}
	phone, err := utils.NormalizePhone(rawPhone)
	if err != nil {
		return nil, nil, phoneError(err)
	}
	stored, err := s.otps.Get(ctx, phone.National)
	if err != nil {
		return nil, nil, apperror.Internal("Failed to verify OTP", err)
	}
	if stored == "" {
		return nil, nil, apperror.BadRequest("Code expired or not found")
	}
	res, err := s.opts.Guesses.Consume(ctx, phone.National)
	if err != nil {
		return nil, nil, apperror.Internal("Failed to verify OTP", err)
	}
	if res.ConsumedPoints > int64(s.opts.MaxGuesses) {
		s.dropCode(ctx, phone.National)
		return nil, nil, errTooManyGuesses()
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		if res.ConsumedPoints == int64(s.opts.MaxGuesses) {
			s.dropCode(ctx, phone.National)
			return nil, nil, errTooManyGuesses()
		}
		return nil, nil, apperror.BadRequest("Invalid code")
	}
	s.dropCode(ctx, phone.National)
	if err := s.opts.Guesses.Reset(ctx, phone.National); err != nil {
		s.log.Warn("otp guess reset failed", zap.Error(err))
	}
	if !login {
		return nil, nil, nil
	}

	u, err := s.users.GetByPhone(ctx, phone.National)
	if err != nil {
		return nil, nil, notFoundOr(err, "User not found", "Failed to look up user")
	}
	sess, err := s.auth.IssueSession(ctx, model.PrincipalRef{ID: u.ID, Audience: model.AudienceUser})
	if err != nil {
		return nil, nil, err
	}
	return &u, &sess, nil
}

func errTooManyGuesses() error {
	return apperror.New(apperror.CodeTooManyAttempts, http.StatusTooManyRequests,
		"Too many wrong codes. Please request a new code")
}

func (s *UserService) dropCode(ctx context.Context, phone string) {
	if err := s.otps.Delete(ctx, phone); err != nil {
		s.log.Warn("otp delete failed", zap.Error(err))
	}
}
