package model

import "time"

/*

UserStreak is the per-user daily ritual record

UserID: primary key, one row per user, created lazily on first visit
CurrentStreak: consecutive calendar days visited, ending today or yesterday
LongestStreak: the longest streak ever reached, never decreases and is
	always >= CurrentStreak after any update
LastVisitDate: the UTC calendar date of the most recent counted visit,
	null before the first visit. Stored as a date column so the
	conditional update guarding against double counting compares whole
	days, not timestamps.
TotalVisits: count of distinct days visited, monotonically non-decreasing

*/

type UserStreak struct {
	UserID        string `gorm:"primaryKey"`
	CurrentStreak int
	LongestStreak int
	LastVisitDate *time.Time `gorm:"type:date"`
	TotalVisits   int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
