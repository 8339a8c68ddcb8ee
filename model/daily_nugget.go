package model

import "time"

/*

DailyNugget memoizes the deterministic daily selection

Date: primary key, the UTC calendar date the selection is for
NuggetID:
Nugget: the selected nugget, "belongs-to" relation

A row, once written for a date, is immutable: writers use an
upsert-do-nothing so all concurrent readers on the same day converge on
the first writer's answer even if the published pool changes intra-day.

*/

type DailyNugget struct {
	Date      time.Time `gorm:"primaryKey;type:date"`
	NuggetID  string
	Nugget    *Nugget
	CreatedAt time.Time
}
