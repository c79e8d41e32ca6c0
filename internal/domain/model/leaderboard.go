package model

const (
	LeaderboardSortRating      = "rating"
	LeaderboardSortSolved      = "solved"
	LeaderboardSortSubmissions = "submissions"
)

type LeaderboardEntry struct {
	Position       int    `json:"position"`
	UserID         string `json:"user_id"`
	Username       string `json:"username"`
	Name           string `json:"name"`
	Avatar         string `json:"avatar"`
	Rating         int    `json:"rating"`
	Rank           string `json:"rank"`
	ProblemsSolved int    `json:"problems_solved"`
	Submissions    int    `json:"submissions"`
	Accepted       int    `json:"accepted"`
	AcceptanceRate int    `json:"acceptance_rate"`
}

// LeaderboardRow is one profile joined with its owner, as read from storage.
type LeaderboardRow struct {
	Profile UserProfile
	Name    string
}
