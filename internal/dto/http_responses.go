package dto

import (
	"github.com/wb-go/wbf/ginext"
	"time"
)

const (
	FieldBadFormat     = "FIELD_BADFORMAT"
	FieldIncorrect     = "FIELD_INCORRECT"
	ServiceUnavailable = "SERVICE_UNAVAILABLE"
	InternalError      = "Service is currently unavailable. Please try again later."

	UserNotFound     = "USER_NOT_FOUND"
	EventNotFound    = "EVENT_NOT_FOUND"
	RequestNotFound  = "REQUEST_NOT_FOUND"
	InvalidAction    = "INVALID_ACTION"
	InvalidState     = "INVALID_STATE"
	NotOrganizer     = "NOT_ORGANIZER"
	EmailTaken       = "EMAIL_TAKEN"
	DataInconsistent = "DATA_INCONSISTENT"
)

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required,min=2,max=255"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserResponse struct {
	ID        int       `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateEventRequest struct {
	Name        string    `json:"name" validate:"required,min=3,max=255"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	Date        time.Time `json:"date" validate:"required,future"`
	Type        string    `json:"type"`
	OrganizerID int       `json:"organizer_id" validate:"required,positive"`
	Image       string    `json:"image"`
}

type EventResponse struct {
	ID               int       `json:"id"`
	Name             string    `json:"name"`
	Location         string    `json:"location,omitempty"`
	Description      string    `json:"description,omitempty"`
	Date             time.Time `json:"date"`
	Type             string    `json:"type,omitempty"`
	OrganizerID      int       `json:"organizer_id"`
	Image            string    `json:"image,omitempty"`
	Status           string    `json:"status"`
	ParticipantCount int       `json:"participant_count"`
	CreatedAt        time.Time `json:"created_at"`
}

// EventAdminResponse extends the event payload with the participation
// rows for the admin view.
type EventAdminResponse struct {
	EventResponse
	Participations []ParticipationResponse `json:"participations,omitempty"`
}

type ParticipationResponse struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	EventID   int       `json:"event_id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type JoinEventRequest struct {
	UserID             int                `json:"user_id" validate:"required,positive"`
	EventID            int                `json:"event_id" validate:"required,positive"`
	ParticipantDetails ParticipantDetails `json:"participant_details" validate:"required"`
}

// ParticipantDetails is the denormalized snapshot captured on the
// participation row at join time.
type ParticipantDetails struct {
	FullName string `json:"full_name" validate:"required,min=3,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone"`
	Age      int    `json:"age"`
	Gender   string `json:"gender"`
}

type SubmitRequestRequest struct {
	UserID int `json:"user_id" validate:"required,positive"`
}

type RequestActionRequest struct {
	RequestID int    `json:"request_id" validate:"required,positive"`
	Action    string `json:"action" validate:"required"`
	UserID    int    `json:"user_id" validate:"required,positive"`
}

type OrganizerRequestResponse struct {
	ID           int        `json:"id"`
	UserID       int        `json:"user_id"`
	Status       string     `json:"status"`
	RequestDate  time.Time  `json:"request_date"`
	DateReviewed *time.Time `json:"date_reviewed,omitempty"`
}

// ActionResponse reports workflow outcomes. Success false marks a benign
// negative outcome (duplicate request, failed login), not a failure.
type ActionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type NotificationMessage struct {
	UserID  int    `json:"user_id"`
	Email   string `json:"email"`
	Kind    string `json:"kind"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type Response struct {
	Status string `json:"status"`
	Error  *Error `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

type Error struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
}

func BadResponseError(c *ginext.Context, code, desc string) {
	c.JSON(400, Response{
		Status: "error",
		Error: &Error{
			Code: code,
			Desc: desc,
		},
	})
}

func InternalServerError(c *ginext.Context) {
	c.JSON(500, Response{
		Status: "error",
		Error: &Error{
			Code: ServiceUnavailable,
			Desc: InternalError,
		},
	})
}

// DataIntegrityError reports a partially committed unit of work that
// needs operator reconciliation.
func DataIntegrityError(c *ginext.Context, desc string) {
	c.JSON(500, Response{
		Status: "error",
		Error: &Error{
			Code: DataInconsistent,
			Desc: desc,
		},
	})
}

func UserNotFoundError(c *ginext.Context) {
	BadResponseError(c, UserNotFound, "User not found")
}

func EventNotFoundError(c *ginext.Context) {
	BadResponseError(c, EventNotFound, "Event not found")
}

func RequestNotFoundError(c *ginext.Context) {
	BadResponseError(c, RequestNotFound, "Request not found")
}

func InvalidActionError(c *ginext.Context, action string) {
	BadResponseError(c, InvalidAction, "Unknown action '"+action+"': must be Approve or Decline")
}

func InvalidStateError(c *ginext.Context) {
	BadResponseError(c, InvalidState, "Request has already been resolved")
}

func SuccessResponse(c *ginext.Context, data any) {
	c.JSON(200, Response{
		Status: "ok",
		Data:   data,
	})
}

func SuccessCreatedResponse(c *ginext.Context, data any) {
	c.JSON(201, Response{
		Status: "ok",
		Data:   data,
	})
}
