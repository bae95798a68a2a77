package model

import (
	"time"

	"github.com/google/uuid"
)

// Attendance is a single check-in record
type Attendance struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	CreatedAt time.Time `json:"createdAt"`
}

type CreateAttendanceRequest struct {
	Name string `json:"name"`
	Time string `json:"time"`
	Date string `json:"date"`
}
