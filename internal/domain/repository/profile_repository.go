package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"algoryth/internal/common"
	"algoryth/internal/domain/model"
)

type ProfileRepository interface {
	Create(ctx context.Context, tx *sql.Tx, p *model.UserProfile) error
	FindByUserID(ctx context.Context, userID string) (*model.UserProfile, error)
	FindByUsername(ctx context.Context, username string) (*model.UserProfile, error)
	// Update writes the user-editable fields and last_active.
	Update(ctx context.Context, tx *sql.Tx, p *model.UserProfile) error
	UpdateStats(ctx context.Context, tx *sql.Tx, userID string, solved model.SolvedStats, subs model.SubmissionStats) error
	Leaderboard(ctx context.Context, sortBy string, limit, offset int) ([]model.LeaderboardRow, int, error)
}

type pgProfileRepository struct {
	db *sql.DB
}

func NewPgProfileRepository(db *sql.DB) ProfileRepository {
	return &pgProfileRepository{db: db}
}

const profileColumns = `p.id, p.user_id, p.username, p.bio, p.avatar, p.rating, p.solved_easy, p.solved_medium, p.solved_hard,
	p.total_submissions, p.accepted_submissions, p.bookmarked_problems, p.preferences, p.social_links,
	p.last_active, p.created_at, p.updated_at`

func (r *pgProfileRepository) Create(ctx context.Context, tx *sql.Tx, p *model.UserProfile) error {
	prefs, err := toJSON(p.Preferences)
	if err != nil {
		return fmt.Errorf("pgProfileRepository.Create preferences: %w", err)
	}
	links, err := toJSON(p.SocialLinks)
	if err != nil {
		return fmt.Errorf("pgProfileRepository.Create social_links: %w", err)
	}
	bookmarks, err := toJSON(p.BookmarkedProblems)
	if err != nil {
		return fmt.Errorf("pgProfileRepository.Create bookmarks: %w", err)
	}

	query := `INSERT INTO user_profiles (id, user_id, username, bio, avatar, rating, bookmarked_problems, preferences, social_links, last_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err = conn(r.db, tx).ExecContext(ctx, query,
		p.ID, p.UserID, nullString(p.Username), p.Bio, p.Avatar, p.Rating, bookmarks, prefs, links,
		p.LastActive, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("profile already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgProfileRepository.Create: %w", err)
	}
	return nil
}

func (r *pgProfileRepository) FindByUserID(ctx context.Context, userID string) (*model.UserProfile, error) {
	p, err := scanProfile(r.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM user_profiles p WHERE p.user_id = $1`, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgProfileRepository.FindByUserID: %w", err)
	}
	return p, nil
}

func (r *pgProfileRepository) FindByUsername(ctx context.Context, username string) (*model.UserProfile, error) {
	p, err := scanProfile(r.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM user_profiles p WHERE LOWER(p.username) = LOWER($1)`, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgProfileRepository.FindByUsername: %w", err)
	}
	return p, nil
}

func (r *pgProfileRepository) Update(ctx context.Context, tx *sql.Tx, p *model.UserProfile) error {
	prefs, err := toJSON(p.Preferences)
	if err != nil {
		return fmt.Errorf("pgProfileRepository.Update preferences: %w", err)
	}
	links, err := toJSON(p.SocialLinks)
	if err != nil {
		return fmt.Errorf("pgProfileRepository.Update social_links: %w", err)
	}

	query := `UPDATE user_profiles SET
	            username = $1, bio = $2, avatar = $3, preferences = $4, social_links = $5,
	            last_active = $6, updated_at = $6
	          WHERE user_id = $7`
	res, err := conn(r.db, tx).ExecContext(ctx, query,
		nullString(p.Username), p.Bio, p.Avatar, prefs, links, p.LastActive, p.UserID,
	)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return common.NewCodedError(common.ErrConflict, common.CodeUsernameTaken, "Username already taken")
		}
		return fmt.Errorf("pgProfileRepository.Update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgProfileRepository) UpdateStats(ctx context.Context, tx *sql.Tx, userID string, solved model.SolvedStats, subs model.SubmissionStats) error {
	query := `UPDATE user_profiles SET
	            solved_easy = $1, solved_medium = $2, solved_hard = $3,
	            total_submissions = $4, accepted_submissions = $5,
	            last_active = NOW(), updated_at = NOW()
	          WHERE user_id = $6`
	res, err := conn(r.db, tx).ExecContext(ctx, query, solved.Easy, solved.Medium, solved.Hard, subs.Total, subs.Accepted, userID)
	if err != nil {
		return fmt.Errorf("pgProfileRepository.UpdateStats: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

var leaderboardOrder = map[string]string{
	model.LeaderboardSortRating:      "p.rating",
	model.LeaderboardSortSolved:      "(p.solved_easy + p.solved_medium + p.solved_hard)",
	model.LeaderboardSortSubmissions: "p.total_submissions",
}

func (r *pgProfileRepository) Leaderboard(ctx context.Context, sortBy string, limit, offset int) ([]model.LeaderboardRow, int, error) {
	orderCol, ok := leaderboardOrder[sortBy]
	if !ok {
		orderCol = leaderboardOrder[model.LeaderboardSortRating]
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_profiles`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgProfileRepository.Leaderboard count: %w", err)
	}

	query := `SELECT ` + profileColumns + `, u.name
	          FROM user_profiles p
	          JOIN users u ON u.id = p.user_id
	          ORDER BY ` + orderCol + ` DESC, p.accepted_submissions DESC, p.created_at ASC
	          LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("pgProfileRepository.Leaderboard query: %w", err)
	}
	defer rows.Close()

	out := []model.LeaderboardRow{}
	for rows.Next() {
		var name string
		p, err := scanProfile(rows, &name)
		if err != nil {
			return nil, 0, fmt.Errorf("pgProfileRepository.Leaderboard scan: %w", err)
		}
		out = append(out, model.LeaderboardRow{Profile: *p, Name: name})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("pgProfileRepository.Leaderboard rows.Err: %w", err)
	}
	return out, total, nil
}

func scanProfile(row scanner, extra ...interface{}) (*model.UserProfile, error) {
	p := &model.UserProfile{}
	var username sql.NullString
	var bookmarks, prefs, links []byte
	dest := []interface{}{
		&p.ID, &p.UserID, &username, &p.Bio, &p.Avatar, &p.Rating,
		&p.Solved.Easy, &p.Solved.Medium, &p.Solved.Hard,
		&p.Submissions.Total, &p.Submissions.Accepted,
		&bookmarks, &prefs, &links,
		&p.LastActive, &p.CreatedAt, &p.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	if username.Valid {
		p.Username = &username.String
	}
	p.Preferences = model.DefaultPreferences()
	if err := fromJSON(prefs, &p.Preferences); err != nil {
		return nil, fmt.Errorf("decode preferences: %w", err)
	}
	if err := fromJSON(links, &p.SocialLinks); err != nil {
		return nil, fmt.Errorf("decode social_links: %w", err)
	}
	p.BookmarkedProblems = []string{}
	if err := fromJSON(bookmarks, &p.BookmarkedProblems); err != nil {
		return nil, fmt.Errorf("decode bookmarked_problems: %w", err)
	}
	p.SolvedProblemIDs = []string{}
	p.Solved.Total = p.Solved.Easy + p.Solved.Medium + p.Solved.Hard
	p.Submissions.AcceptanceRate = model.AcceptanceRate(p.Submissions.Accepted, p.Submissions.Total)
	p.Rank = model.RankForRating(p.Rating)
	return p, nil
}
