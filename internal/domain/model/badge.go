package model

import "time"

type BadgeCondition string

const (
	ConditionSolvedTotal       BadgeCondition = "solved_total"
	ConditionSolvedEasy        BadgeCondition = "solved_easy"
	ConditionSolvedMedium      BadgeCondition = "solved_medium"
	ConditionSolvedHard        BadgeCondition = "solved_hard"
	ConditionAcceptedStreak    BadgeCondition = "accepted_streak"
	ConditionFailedBeforeSolve BadgeCondition = "failed_before_solve"
	ConditionFastestOnProblem  BadgeCondition = "fastest_on_problem"
	ConditionLanguagesAccepted BadgeCondition = "languages_accepted"
)

type Badge struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Icon        string         `json:"icon"`
	Category    string         `json:"category"`
	Condition   BadgeCondition `json:"condition"`
	Threshold   int            `json:"threshold"`
	IsActive    bool           `json:"is_active"`
	SortOrder   int            `json:"-"`
}

type UserBadge struct {
	UserID    string    `json:"user_id"`
	BadgeID   string    `json:"badge_id"`
	AwardedAt time.Time `json:"awarded_at"`
	Badge     *Badge    `json:"badge_details,omitempty"`
}

// DefaultBadges is the seeded catalog, in display order.
var DefaultBadges = []Badge{
	{ID: "first-blood", Name: "First Blood", Description: "Solve your first problem", Icon: "🩸", Category: "milestone", Condition: ConditionSolvedTotal, Threshold: 1},
	{ID: "problem-solver", Name: "Problem Solver", Description: "Solve 10 problems", Icon: "🧩", Category: "milestone", Condition: ConditionSolvedTotal, Threshold: 10},
	{ID: "centurion", Name: "Centurion", Description: "Solve 100 problems", Icon: "💯", Category: "milestone", Condition: ConditionSolvedTotal, Threshold: 100},
	{ID: "easy-rider", Name: "Easy Rider", Description: "Solve 10 easy problems", Icon: "🟢", Category: "difficulty", Condition: ConditionSolvedEasy, Threshold: 10},
	{ID: "medium-well", Name: "Medium Well", Description: "Solve 10 medium problems", Icon: "🟡", Category: "difficulty", Condition: ConditionSolvedMedium, Threshold: 10},
	{ID: "hard-core", Name: "Hard Core", Description: "Solve 5 hard problems", Icon: "🔴", Category: "difficulty", Condition: ConditionSolvedHard, Threshold: 5},
	{ID: "no-errors", Name: "No Errors", Description: "20 accepted submissions in a row", Icon: "✅", Category: "skill", Condition: ConditionAcceptedStreak, Threshold: 20},
	{ID: "debug-master", Name: "Debug Master", Description: "Get accepted after 50 failed attempts on one problem", Icon: "🐛", Category: "skill", Condition: ConditionFailedBeforeSolve, Threshold: 50},
	{ID: "speed-demon", Name: "Speed Demon", Description: "Submit the fastest accepted solution to a problem", Icon: "⚡", Category: "skill", Condition: ConditionFastestOnProblem, Threshold: 1},
	{ID: "polyglot", Name: "Polyglot", Description: "Get accepted in 3 different languages", Icon: "🌐", Category: "skill", Condition: ConditionLanguagesAccepted, Threshold: 3},
}

func init() {
	for i := range DefaultBadges {
		DefaultBadges[i].IsActive = true
		DefaultBadges[i].SortOrder = i + 1
	}
}
