package domain

import "time"

type Person struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type Photo struct {
	ID        int64      `json:"id"`
	FileName  string     `json:"fileName"`
	TakenAt   *time.Time `json:"takenAt,omitempty"`
	TagCount  int        `json:"tagCount"`
	CreatedAt time.Time  `json:"createdAt"`
}

// PhotoTag is one entry of a photo's ordered tag list.
type PhotoTag struct {
	PhotoID  int64 `json:"photoId"`
	PersonID int64 `json:"personId"`
	Position int   `json:"position"`
}

// AggregateCount reports the rebuild result for one person.
type AggregateCount struct {
	PersonID    int64  `json:"personId"`
	PersonName  string `json:"personName"`
	SourceCount int    `json:"sourceCount"`
}
