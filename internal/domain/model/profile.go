package model

import (
	"math"
	"time"
)

const DefaultRating = 1500

const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

type SolvedStats struct {
	Easy   int `json:"easy"`
	Medium int `json:"medium"`
	Hard   int `json:"hard"`
	Total  int `json:"total"`
}

type SubmissionStats struct {
	Total          int `json:"total"`
	Accepted       int `json:"accepted"`
	AcceptanceRate int `json:"acceptance_rate"`
}

type Preferences struct {
	DefaultLanguage string `json:"default_language"`
	Theme           string `json:"theme"`
	EditorFontSize  int    `json:"editor_font_size"`
}

type SocialLinks struct {
	GitHub   string `json:"github"`
	LinkedIn string `json:"linkedin"`
	Twitter  string `json:"twitter"`
	Website  string `json:"website"`
}

type UserProfile struct {
	ID                 string          `json:"id"`
	UserID             string          `json:"user_id"`
	Username           *string         `json:"username,omitempty"`
	Bio                string          `json:"bio"`
	Avatar             string          `json:"avatar"`
	Rating             int             `json:"rating"`
	Rank               string          `json:"rank"`
	Solved             SolvedStats     `json:"solved"`
	Submissions        SubmissionStats `json:"submissions"`
	SolvedProblemIDs   []string        `json:"solved_problem_ids"`
	BookmarkedProblems []string        `json:"bookmarked_problems"`
	Preferences        Preferences     `json:"preferences"`
	SocialLinks        SocialLinks     `json:"social_links"`
	LastActive         time.Time       `json:"last_active"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// PublicProfile is what other users may see.
type PublicProfile struct {
	UserID      string          `json:"user_id"`
	Name        string          `json:"name"`
	Username    *string         `json:"username,omitempty"`
	Bio         string          `json:"bio"`
	Avatar      string          `json:"avatar"`
	Rating      int             `json:"rating"`
	Rank        string          `json:"rank"`
	Solved      SolvedStats     `json:"solved"`
	Submissions SubmissionStats `json:"submissions"`
	SocialLinks SocialLinks     `json:"social_links"`
	JoinedAt    time.Time       `json:"joined_at"`
}

func DefaultPreferences() Preferences {
	return Preferences{DefaultLanguage: "javascript", Theme: ThemeLight, EditorFontSize: 14}
}

// NewUserProfile returns an empty profile for userID with default rating and preferences.
func NewUserProfile(id, userID string, now time.Time) *UserProfile {
	return &UserProfile{
		ID:                 id,
		UserID:             userID,
		Rating:             DefaultRating,
		Rank:               RankForRating(DefaultRating),
		SolvedProblemIDs:   []string{},
		BookmarkedProblems: []string{},
		Preferences:        DefaultPreferences(),
		LastActive:         now,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

var rankThresholds = []struct {
	below int
	name  string
}{
	{1200, "Newbie"},
	{1400, "Pupil"},
	{1600, "Specialist"},
	{1900, "Expert"},
	{2100, "Candidate Master"},
	{2400, "Master"},
	{2700, "International Master"},
}

func RankForRating(rating int) string {
	for _, t := range rankThresholds {
		if rating < t.below {
			return t.name
		}
	}
	return "Grandmaster"
}

// AcceptanceRate is round(accepted/total*100), 0 when nothing was submitted.
func AcceptanceRate(accepted, total int) int {
	if total <= 0 {
		return 0
	}
	if accepted > total {
		accepted = total
	}
	return int(math.Round(float64(accepted) / float64(total) * 100))
}

func (p *UserProfile) Public(user *User) PublicProfile {
	out := PublicProfile{
		UserID:      p.UserID,
		Username:    p.Username,
		Bio:         p.Bio,
		Avatar:      p.Avatar,
		Rating:      p.Rating,
		Rank:        p.Rank,
		Solved:      p.Solved,
		Submissions: p.Submissions,
		SocialLinks: p.SocialLinks,
		JoinedAt:    p.CreatedAt,
	}
	if user != nil {
		out.Name = user.Name
		out.JoinedAt = user.CreatedAt
	}
	return out
}
