package users

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmerrifield20/SkillSwap/internal/marketplace/model"
	"github.com/jmerrifield20/SkillSwap/internal/photos"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned by Login for an unknown username or a
// wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrBanned is returned by Login when the account has been banned.
var ErrBanned = errors.New("user is banned")

// userRepo is the storage interface consumed by UserService.
type userRepo interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Search(ctx context.Context, skill, availability string) ([]*SearchRow, error)
	Skills(ctx context.Context, userID int64) (offered, wanted []SkillRef, err error)
	UpdateProfile(ctx context.Context, userID int64, req UpdateProfileRequest) (int64, error)
	SetPhoto(ctx context.Context, userID int64, url string) error
	ListAll(ctx context.Context) ([]*AdminView, error)
	UpdateFlags(ctx context.Context, userID int64, isBanned, isAdmin *bool) (int64, error)
	ListBroadcastEmails(ctx context.Context) ([]string, error)
}

// RatingAverager returns a user's mean received score, rounded to one
// decimal, or nil when the user has not been rated.
type RatingAverager interface {
	AverageFor(ctx context.Context, userID int64) (*float64, error)
}

// UserService implements business logic for user accounts and profiles.
type UserService struct {
	repo       userRepo
	photos     photos.Store
	ratings    RatingAverager
	validate   *validator.Validate
	bcryptCost int
	logger     *zap.Logger
}

// NewUserService creates a new UserService. photoStore may be nil, in which
// case UploadPhoto fails.
func NewUserService(repo userRepo, photoStore photos.Store, logger *zap.Logger) *UserService {
	return &UserService{
		repo:       repo,
		photos:     photoStore,
		validate:   validator.New(),
		bcryptCost: bcrypt.DefaultCost,
		logger:     logger,
	}
}

// SetRatingAverager configures where public profiles read their average
// rating from. Without one, profiles carry no rating.
func (s *UserService) SetRatingAverager(r RatingAverager) {
	s.ratings = r
}

// SetBcryptCost overrides the password hashing cost. Values outside bcrypt's
// accepted range are ignored.
func (s *UserService) SetBcryptCost(cost int) {
	if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
		s.bcryptCost = cost
	}
}

var registerMessages = map[string]string{
	"Username": "username must be at least 3 characters",
	"Email":    "email must be a valid address",
	"Password": "password must be at least 6 characters",
}

// Register validates and stores a new account.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, fmt.Errorf("validate registration: %w", err)
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, registerMessages[fe.Field()])
		}
		return nil, &model.ErrValidation{Msg: strings.Join(msgs, "; ")}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Name:         req.Name,
		Location:     req.Location,
		Availability: req.Availability,
		IsPublic:     true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrDuplicateEmail) || errors.Is(err, ErrDuplicateUsername) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered", zap.Int64("user_id", u.ID), zap.String("username", u.Username))
	return u, nil
}

// Login checks username and password. Banned accounts are refused before
// the password is compared.
func (s *UserService) Login(ctx context.Context, username, password string) (*User, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if u.IsBanned {
		return nil, ErrBanned
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// Search lists public, non-banned users matching the optional filters.
func (s *UserService) Search(ctx context.Context, skill, availability string) ([]*SearchResult, error) {
	rows, err := s.repo.Search(ctx, strings.TrimSpace(skill), strings.TrimSpace(availability))
	if err != nil {
		return nil, err
	}
	out := make([]*SearchResult, 0, len(rows))
	for _, r := range rows {
		out = append(out, &SearchResult{
			ID:            r.ID,
			Username:      r.Username,
			Name:          r.Name,
			Location:      r.Location,
			ProfilePhoto:  r.ProfilePhoto,
			IsPublic:      r.IsPublic,
			Availability:  r.Availability,
			IsAdmin:       r.IsAdmin,
			SkillsOffered: nonNil(r.Offered),
			SkillsWanted:  nonNil(r.Wanted),
			Rating:        formatRating(r.AvgRating),
		})
	}
	return out, nil
}

// GetPublic returns the profile other users see. Private and banned
// accounts are reported as ErrNotFound.
func (s *UserService) GetPublic(ctx context.Context, id int64) (*PublicProfile, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.IsPublic || u.IsBanned {
		return nil, ErrNotFound
	}
	offered, wanted, err := s.repo.Skills(ctx, id)
	if err != nil {
		return nil, err
	}
	var rating *string
	if s.ratings != nil {
		avg, err := s.ratings.AverageFor(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("average rating: %w", err)
		}
		rating = model.FormatAverage(avg)
	}
	return &PublicProfile{
		ID:            u.ID,
		Username:      u.Username,
		Name:          u.Name,
		Location:      u.Location,
		ProfilePhoto:  u.ProfilePhoto,
		IsPublic:      u.IsPublic,
		Availability:  u.Availability,
		SkillsOffered: withoutRowIDs(offered),
		SkillsWanted:  withoutRowIDs(wanted),
		Rating:        rating,
	}, nil
}

// GetOwn returns the signed-in user's profile with removable skill rows.
func (s *UserService) GetOwn(ctx context.Context, id int64) (*OwnProfile, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	offered, wanted, err := s.repo.Skills(ctx, id)
	if err != nil {
		return nil, err
	}
	return &OwnProfile{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		Name:          u.Name,
		Location:      u.Location,
		ProfilePhoto:  u.ProfilePhoto,
		IsPublic:      u.IsPublic,
		Availability:  u.Availability,
		SkillsOffered: offered,
		SkillsWanted:  wanted,
	}, nil
}

// UpdateProfile overwrites the editable profile fields.
func (s *UserService) UpdateProfile(ctx context.Context, id int64, req UpdateProfileRequest) error {
	n, err := s.repo.UpdateProfile(ctx, id, req)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UploadPhoto stores the photo and points the profile at it.
func (s *UserService) UploadPhoto(ctx context.Context, id int64, filename string, r io.Reader) (string, error) {
	if s.photos == nil {
		return "", fmt.Errorf("photo uploads are not configured")
	}
	url, err := s.photos.Save(ctx, filename, r)
	if err != nil {
		if errors.Is(err, photos.ErrEmpty) {
			return "", &model.ErrValidation{Msg: "No photo uploaded"}
		}
		if errors.Is(err, photos.ErrTooLarge) {
			return "", &model.ErrValidation{Msg: "Photo is too large"}
		}
		return "", fmt.Errorf("store photo: %w", err)
	}
	if err := s.repo.SetPhoto(ctx, id, url); err != nil {
		return "", err
	}
	s.logger.Info("profile photo updated", zap.Int64("user_id", id), zap.String("url", url))
	return url, nil
}

// ListAll returns every account for the admin dashboard.
func (s *UserService) ListAll(ctx context.Context) ([]*AdminView, error) {
	return s.repo.ListAll(ctx)
}

// UpdateFlags bans, unbans, promotes or demotes a user. At least one flag
// must be supplied. Returns the number of rows changed.
func (s *UserService) UpdateFlags(ctx context.Context, adminID, userID int64, req UpdateFlagsRequest) (int64, error) {
	if req.IsBanned == nil && req.IsAdmin == nil {
		return 0, &model.ErrValidation{Msg: "No valid updates provided"}
	}
	n, err := s.repo.UpdateFlags(ctx, userID, req.IsBanned, req.IsAdmin)
	if err != nil {
		return 0, err
	}
	fields := []zap.Field{zap.Int64("admin_id", adminID), zap.Int64("user_id", userID), zap.Int64("changes", n)}
	if req.IsBanned != nil {
		fields = append(fields, zap.Bool("is_banned", *req.IsBanned))
	}
	if req.IsAdmin != nil {
		fields = append(fields, zap.Bool("is_admin", *req.IsAdmin))
	}
	s.logger.Info("user flags updated", fields...)
	return n, nil
}

// ListBroadcastEmails returns the address of every non-banned user.
func (s *UserService) ListBroadcastEmails(ctx context.Context) ([]string, error) {
	return s.repo.ListBroadcastEmails(ctx)
}

func formatRating(avg *float64) *string {
	if avg == nil {
		return nil
	}
	r := model.RoundAverage(*avg)
	return model.FormatAverage(&r)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func withoutRowIDs(refs []SkillRef) []SkillRef {
	out := make([]SkillRef, len(refs))
	for i, r := range refs {
		out[i] = SkillRef{ID: r.ID, Name: r.Name}
	}
	return out
}
