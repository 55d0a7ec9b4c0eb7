package model

import "time"

const (
	RoleParticipant = "participant"
	RoleOrganizer   = "organizer"
)

const (
	EventStatusOpen   = "open"
	EventStatusClosed = "closed"
)

const (
	RequestStatusPending  = "Pending"
	RequestStatusApproved = "Approved"
	RequestStatusDeclined = "Declined"
)

type User struct {
	ID           int       `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Name         string    `db:"name" json:"name"`
	Role         string    `db:"role" json:"role"`
	Avatar       string    `db:"avatar,omitempty" json:"avatar,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type Event struct {
	ID               int       `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	Location         string    `db:"location,omitempty" json:"location,omitempty"`
	Description      string    `db:"description,omitempty" json:"description,omitempty"`
	Date             time.Time `db:"date" json:"date"`
	Type             string    `db:"type,omitempty" json:"type,omitempty"`
	OrganizerID      int       `db:"organizer_id" json:"organizer_id"`
	Image            string    `db:"image,omitempty" json:"image,omitempty"`
	Status           string    `db:"status" json:"status"`
	ParticipantCount int       `db:"participant_count" json:"participant_count"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// Participation links one user to one event. A user holds at most one
// row per event; rows are immutable once created.
type Participation struct {
	ID        int       `db:"id" json:"id"`
	UserID    int       `db:"user_id" json:"user_id"`
	EventID   int       `db:"event_id" json:"event_id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Email     string    `db:"email,omitempty" json:"email,omitempty"`
	Phone     string    `db:"phone,omitempty" json:"phone,omitempty"`
	Age       int       `db:"age,omitempty" json:"age,omitempty"`
	Gender    string    `db:"gender,omitempty" json:"gender,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type OrganizerRequest struct {
	ID           int        `db:"id" json:"id"`
	UserID       int        `db:"user_id" json:"user_id"`
	Status       string     `db:"status" json:"status"`
	RequestDate  time.Time  `db:"request_date" json:"request_date"`
	DateReviewed *time.Time `db:"date_reviewed,omitempty" json:"date_reviewed,omitempty"`
}

// RequestStatusTerminal reports whether no further transition is
// permitted out of the given request status.
func RequestStatusTerminal(status string) bool {
	return status == RequestStatusApproved || status == RequestStatusDeclined
}
