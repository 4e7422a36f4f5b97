package model

import (
	"time"
)

// BlockedDay is an administrative closure of an entire calendar date. A
// blocked date rejects all new bookings and reschedules regardless of
// interval availability.
type BlockedDay struct {
	Date      Date      `db:"date" json:"date"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type BlockDayRequest struct {
	Date Date `json:"date" binding:"required"`
}
