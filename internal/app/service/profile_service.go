package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"algoryth/internal/common"
	"algoryth/internal/domain/model"
	"algoryth/internal/domain/repository"
	"algoryth/internal/platform/database"

	"github.com/google/uuid"
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,30}$`)
	newID         = uuid.NewString
)

const (
	maxBioLength      = 500
	minEditorFontSize = 8
	maxEditorFontSize = 40
)

type ProfileService struct {
	userRepo        repository.UserRepository
	profileRepo     repository.ProfileRepository
	userProblemRepo repository.UserProblemRepository
	tx              database.Transactor
	now             func() time.Time
}

func NewProfileService(
	userRepo repository.UserRepository,
	profileRepo repository.ProfileRepository,
	userProblemRepo repository.UserProblemRepository,
	tx database.Transactor,
) *ProfileService {
	return &ProfileService{
		userRepo:        userRepo,
		profileRepo:     profileRepo,
		userProblemRepo: userProblemRepo,
		tx:              tx,
		now:             time.Now,
	}
}

type ProfileResponse struct {
	User    *model.User        `json:"user"`
	Profile *model.UserProfile `json:"profile"`
}

type PreferencesUpdate struct {
	DefaultLanguage *string `json:"default_language"`
	Theme           *string `json:"theme"`
	EditorFontSize  *int    `json:"editor_font_size"`
}

type SocialLinksUpdate struct {
	GitHub   *string `json:"github"`
	LinkedIn *string `json:"linkedin"`
	Twitter  *string `json:"twitter"`
	Website  *string `json:"website"`
}

// UpdateProfileRequest lists the editable fields. Absent fields are left alone.
type UpdateProfileRequest struct {
	Username    *string            `json:"username"`
	Bio         *string            `json:"bio"`
	Avatar      *string            `json:"avatar"`
	Preferences *PreferencesUpdate `json:"preferences"`
	SocialLinks *SocialLinksUpdate `json:"social_links"`
}

func (s *ProfileService) GetMine(ctx context.Context, userID string) (*ProfileResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.Errorf("user not found: %w", common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	profile, err := s.ensureProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if ids, err := s.solvedProblemIDs(ctx, userID); err == nil {
		profile.SolvedProblemIDs = ids
	}
	return &ProfileResponse{User: user, Profile: profile}, nil
}

func (s *ProfileService) UpdateMine(ctx context.Context, userID string, req UpdateProfileRequest) (*ProfileResponse, error) {
	profile, err := s.ensureProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := applyProfileUpdate(profile, req); err != nil {
		return nil, err
	}

	now := s.now()
	profile.LastActive = now
	profile.UpdatedAt = now

	err = s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		return s.profileRepo.Update(ctx, tx, profile)
	})
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return s.GetMine(ctx, userID)
}

func applyProfileUpdate(p *model.UserProfile, req UpdateProfileRequest) error {
	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		switch {
		case username == "":
			p.Username = nil
		case !usernameRegex.MatchString(username):
			return common.ValidationError("INVALID_USERNAME", "username", "Username must be 3-30 characters of letters, digits, underscores or dashes")
		default:
			p.Username = &username
		}
	}
	if req.Bio != nil {
		if len([]rune(*req.Bio)) > maxBioLength {
			return common.ValidationError("INVALID_BIO", "bio", fmt.Sprintf("Bio must be at most %d characters", maxBioLength))
		}
		p.Bio = *req.Bio
	}
	if req.Avatar != nil {
		p.Avatar = strings.TrimSpace(*req.Avatar)
	}

	if prefs := req.Preferences; prefs != nil {
		if prefs.DefaultLanguage != nil {
			if _, ok := model.LookupLanguage(*prefs.DefaultLanguage); !ok {
				return common.ValidationError(common.CodeUnsupportedLanguage, "preferences.default_language", fmt.Sprintf("Unsupported language: %s", *prefs.DefaultLanguage))
			}
			p.Preferences.DefaultLanguage = *prefs.DefaultLanguage
		}
		if prefs.Theme != nil {
			switch *prefs.Theme {
			case model.ThemeLight, model.ThemeDark, model.ThemeSystem:
				p.Preferences.Theme = *prefs.Theme
			default:
				return common.ValidationError("INVALID_THEME", "preferences.theme", "Theme must be light, dark or system")
			}
		}
		if prefs.EditorFontSize != nil {
			size := *prefs.EditorFontSize
			if size < minEditorFontSize || size > maxEditorFontSize {
				return common.ValidationError("INVALID_FONT_SIZE", "preferences.editor_font_size",
					fmt.Sprintf("Editor font size must be between %d and %d", minEditorFontSize, maxEditorFontSize))
			}
			p.Preferences.EditorFontSize = size
		}
	}

	if links := req.SocialLinks; links != nil {
		setIfPresent(&p.SocialLinks.GitHub, links.GitHub)
		setIfPresent(&p.SocialLinks.LinkedIn, links.LinkedIn)
		setIfPresent(&p.SocialLinks.Twitter, links.Twitter)
		setIfPresent(&p.SocialLinks.Website, links.Website)
	}
	return nil
}

func setIfPresent(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

// Public resolves usernameOrID as a user id when it parses as a uuid, else as a username.
func (s *ProfileService) Public(ctx context.Context, usernameOrID string) (*model.PublicProfile, error) {
	var (
		profile *model.UserProfile
		err     error
	)
	if _, perr := uuid.Parse(usernameOrID); perr == nil {
		profile, err = s.profileRepo.FindByUserID(ctx, usernameOrID)
	} else {
		profile, err = s.profileRepo.FindByUsername(ctx, usernameOrID)
	}
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.Errorf("user not found: %w", common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}

	user, err := s.userRepo.FindByID(ctx, profile.UserID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user != nil && !user.IsActive {
		return nil, common.Errorf("user not found: %w", common.ErrNotFound)
	}
	out := profile.Public(user)
	return &out, nil
}

func (s *ProfileService) ensureProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	profile, err := s.profileRepo.FindByUserID(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}

	profile = model.NewUserProfile(newID(), userID, s.now())
	if err := s.profileRepo.Create(ctx, nil, profile); err != nil {
		if errors.Is(err, common.ErrConflict) {
			// Created concurrently.
			return s.profileRepo.FindByUserID(ctx, userID)
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	return profile, nil
}

func (s *ProfileService) solvedProblemIDs(ctx context.Context, userID string) ([]string, error) {
	ups, err := s.userProblemRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := []string{}
	for _, up := range ups {
		if up.Status == model.ProblemSolved {
			ids = append(ids, up.ProblemID)
		}
	}
	return ids, nil
}
