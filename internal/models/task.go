package models

import "time"

type Task struct {
	ID          int64
	UserID      string
	Title       string
	Description string
	Complete    bool
	CreatedAt   time.Time
}
