package models

// LeaderboardEntry is one ranked profile row.
type LeaderboardEntry struct {
	ProfileID    string  `db:"profile_id" json:"profile_id"`
	DisplayName  string  `db:"display_name" json:"display_name"`
	Rating       float64 `db:"rating" json:"rating"`
	TotalReviews int     `db:"total_reviews" json:"total_reviews"`
	Upvotes      int     `db:"upvotes" json:"upvotes"`
	Downvotes    int     `db:"downvotes" json:"downvotes"`
	IsMentor     bool    `db:"is_mentor" json:"is_mentor"`
}

// PlatformStats aggregates platform-wide counters for the dashboard.
type PlatformStats struct {
	Students       int     `db:"students" json:"students"`
	Teachers       int     `db:"teachers" json:"teachers"`
	Mentors        int     `db:"mentors" json:"mentors"`
	Homeworks      int     `db:"homeworks" json:"homeworks"`
	OpenHomeworks  int     `db:"open_homeworks" json:"open_homeworks"`
	ReviewsGiven   int     `db:"reviews_given" json:"reviews_given"`
	QuestionsAsked int     `db:"questions_asked" json:"questions_asked"`
	AnsweredRatio  float64 `db:"answered_ratio" json:"answered_ratio"`
}
