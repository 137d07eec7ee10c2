package models

import "time"

type Comment struct {
	ID         int64     `json:"id"`
	Text       string    `json:"text"`
	UserID     int64     `json:"user_id"`
	Username   string    `json:"username"`
	QuestionID int64     `json:"question_id"`
	CreatedAt  time.Time `json:"created_at"`
}
