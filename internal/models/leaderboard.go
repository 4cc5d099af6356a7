package models

// SexAll disables the sex filter on leaderboard queries.
const SexAll = "ALL"

type LeaderboardFilter struct {
	Sex          string
	WeightClass  *float64
	TopN         int
	IncludeZeros bool
}

type LeaderboardVideos struct {
	Squat    string `json:"squat"`
	Bench    string `json:"bench"`
	Deadlift string `json:"deadlift"`
}

type LeaderboardRow struct {
	UID         string            `json:"uid"`
	Name        string            `json:"name"`
	Sex         Sex               `json:"sex"`
	WeightClass float64           `json:"weightClass"`
	SquatKg     float64           `json:"squatKg"`
	BenchKg     float64           `json:"benchKg"`
	DeadliftKg  float64           `json:"deadliftKg"`
	TotalKg     float64           `json:"totalKg"`
	Video       LeaderboardVideos `json:"video"`
}

// ProfileQuery is what the projector asks the store for: equality filters
// and a fetch limit applied before zero-total rows are dropped.
type ProfileQuery struct {
	Sex         *Sex
	WeightClass *float64
	Limit       int
}
