package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"
	"golang.org/x/crypto/bcrypt"

	"github.com/dabidkayl/metro-backend/internal/dto"
	"github.com/dabidkayl/metro-backend/internal/model"
	"github.com/dabidkayl/metro-backend/internal/repo"
	"github.com/dabidkayl/metro-backend/pkg/validator"
)

type Service interface {
	Register(ctx *ginext.Context)
	Login(ctx *ginext.Context)
	GetAllUsers(ctx *ginext.Context)
	CreateEvent(ctx *ginext.Context)
	GetEvent(ctx *ginext.Context)
	GetAllEvents(ctx *ginext.Context)
	JoinEvent(ctx *ginext.Context)
	SubmitRequest(ctx *ginext.Context)
	ResolveRequest(ctx *ginext.Context)
	GetAllRequests(ctx *ginext.Context)
}

// Notifier publishes user notification messages. Satisfied by
// rabbit.Client; nil disables notifications.
type Notifier interface {
	Publish(message []byte) error
}

type service struct {
	repo repo.Repository
	log  *zerolog.Logger
	rbt  Notifier
}

func NewService(repo repo.Repository, logger *zerolog.Logger, rbt Notifier) Service {
	return &service{
		repo: repo,
		log:  logger,
		rbt:  rbt,
	}
}

func (s *service) Register(ctx *ginext.Context) {
	var req dto.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		s.log.Error().Err(err).Msg("failed to parse register request")
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to hash password")
		dto.InternalServerError(ctx)
		return
	}

	user := &model.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		Name:         req.Name,
		Role:         model.RoleParticipant,
	}

	id, err := s.repo.CreateUser(ctx.Request.Context(), user)
	if err != nil {
		if errors.Is(err, repo.ErrEmailTaken) {
			dto.BadResponseError(ctx, dto.EmailTaken, "Email is already registered")
			return
		}
		s.log.Error().Err(err).Msg("failed to create user in DB")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().Int64("user_id", id).Msg("user registered successfully")

	dto.SuccessCreatedResponse(ctx, dto.UserResponse{
		ID:        int(id),
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		CreatedAt: time.Now(),
	})
}

func (s *service) Login(ctx *ginext.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	user, err := s.repo.GetUserByEmail(ctx.Request.Context(), req.Email)
	if err != nil {
		dto.SuccessResponse(ctx, dto.ActionResponse{Success: false, Message: "Failed"})
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		dto.SuccessResponse(ctx, dto.ActionResponse{Success: false, Message: "Failed"})
		return
	}

	s.log.Info().Int("user_id", user.ID).Msg("user logged in")
	dto.SuccessResponse(ctx, dto.ActionResponse{Success: true, Message: "Success"})
}

func (s *service) GetAllUsers(ctx *ginext.Context) {
	users, err := s.repo.GetAllUsers(ctx.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get users")
		dto.InternalServerError(ctx)
		return
	}

	resp := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, dto.UserResponse{
			ID:        u.ID,
			Email:     u.Email,
			Name:      u.Name,
			Role:      u.Role,
			Avatar:    u.Avatar,
			CreatedAt: u.CreatedAt,
		})
	}

	dto.SuccessResponse(ctx, resp)
}

func (s *service) CreateEvent(ctx *ginext.Context) {
	var req dto.CreateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		s.log.Error().Err(err).Msg("failed to parse create event request")
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	organizer, err := s.repo.GetUserByID(ctx.Request.Context(), int64(req.OrganizerID))
	if err != nil {
		dto.UserNotFoundError(ctx)
		return
	}
	if organizer.Role != model.RoleOrganizer {
		dto.BadResponseError(ctx, dto.NotOrganizer, "Only organizers can create events")
		return
	}

	event := &model.Event{
		Name:        req.Name,
		Location:    req.Location,
		Description: req.Description,
		Date:        req.Date,
		Type:        req.Type,
		OrganizerID: req.OrganizerID,
		Image:       req.Image,
		Status:      model.EventStatusOpen,
	}

	id, err := s.repo.CreateEvent(ctx.Request.Context(), event)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to create event in DB")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().Int64("event_id", id).Msg("event created successfully")

	dto.SuccessCreatedResponse(ctx, dto.EventResponse{
		ID:          int(id),
		Name:        event.Name,
		Location:    event.Location,
		Description: event.Description,
		Date:        event.Date,
		Type:        event.Type,
		OrganizerID: event.OrganizerID,
		Image:       event.Image,
		Status:      event.Status,
		CreatedAt:   time.Now(),
	})
}

func (s *service) GetEvent(ctx *ginext.Context) {
	eventID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid event ID")
		return
	}

	isAdmin := ctx.Query("admin") == "true"

	event, err := s.repo.GetEventByID(ctx.Request.Context(), eventID)
	if err != nil {
		dto.EventNotFoundError(ctx)
		return
	}

	if !isAdmin {
		dto.SuccessResponse(ctx, eventToResponse(event))
		return
	}

	count, err := s.repo.CountParticipations(ctx.Request.Context(), eventID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to count participations")
		dto.InternalServerError(ctx)
		return
	}
	if count != event.ParticipantCount {
		s.log.Error().
			Int64("event_id", eventID).
			Int("participant_count", event.ParticipantCount).
			Int("participation_rows", count).
			Msg("participant counter out of sync with participation rows")
	}

	participations, err := s.repo.GetParticipationsByEventID(ctx.Request.Context(), eventID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get participations for admin view")
		dto.InternalServerError(ctx)
		return
	}

	resp := dto.EventAdminResponse{EventResponse: eventToResponse(event)}
	for _, p := range participations {
		resp.Participations = append(resp.Participations, dto.ParticipationResponse{
			ID:        p.ID,
			UserID:    p.UserID,
			EventID:   p.EventID,
			FullName:  p.FullName,
			Email:     p.Email,
			CreatedAt: p.CreatedAt,
		})
	}

	dto.SuccessResponse(ctx, resp)
}

func (s *service) GetAllEvents(ctx *ginext.Context) {
	events, err := s.repo.GetAllEvents(ctx.Request.Context())
	if err != nil {
		dto.InternalServerError(ctx)
		return
	}

	resp := make([]dto.EventResponse, 0, len(events))
	for i := range events {
		resp = append(resp, eventToResponse(&events[i]))
	}

	dto.SuccessResponse(ctx, resp)
}

// JoinEvent enrolls a user into an event. The operation is idempotent:
// a repeated join reports success with an "already a participant"
// message and mutates nothing.
func (s *service) JoinEvent(ctx *ginext.Context) {
	var req dto.JoinEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	participation := &model.Participation{
		UserID:   req.UserID,
		EventID:  req.EventID,
		FullName: req.ParticipantDetails.FullName,
		Email:    req.ParticipantDetails.Email,
		Phone:    req.ParticipantDetails.Phone,
		Age:      req.ParticipantDetails.Age,
		Gender:   req.ParticipantDetails.Gender,
	}

	id, already, err := s.repo.JoinEventTx(ctx.Request.Context(), participation)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrEventNotFound):
			dto.EventNotFoundError(ctx)
		case errors.Is(err, repo.ErrUserNotFound):
			dto.UserNotFoundError(ctx)
		case errors.Is(err, repo.ErrPartialEnrollment):
			s.log.Error().Err(err).
				Int("user_id", req.UserID).
				Int("event_id", req.EventID).
				Msg("data-integrity incident: enrollment unit of work did not complete")
			dto.DataIntegrityError(ctx, "Enrollment could not be completed consistently")
		default:
			s.log.Error().Err(err).Msg("failed to join event")
			dto.InternalServerError(ctx)
		}
		return
	}

	if already {
		dto.SuccessResponse(ctx, dto.ActionResponse{
			Success: true,
			Message: "You are already a participant of this event",
		})
		return
	}

	s.log.Info().
		Int64("participation_id", id).
		Int("user_id", req.UserID).
		Int("event_id", req.EventID).
		Msg("user joined event")

	s.notify(dto.NotificationMessage{
		UserID:  req.UserID,
		Email:   req.ParticipantDetails.Email,
		Kind:    "joined",
		Subject: "You have joined an event",
		Body:    "Your participation has been recorded. See you there!",
	})

	dto.SuccessCreatedResponse(ctx, dto.ActionResponse{
		Success: true,
		Message: "Successfully joined the event",
	})
}

// SubmitRequest opens an organizer promotion request. A second request
// while one is Pending is a normal negative outcome, not an error.
func (s *service) SubmitRequest(ctx *ginext.Context) {
	var req dto.SubmitRequestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	id, duplicate, err := s.repo.CreatePendingRequest(ctx.Request.Context(), int64(req.UserID))
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			dto.UserNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to submit organizer request")
		dto.InternalServerError(ctx)
		return
	}

	if duplicate {
		dto.SuccessResponse(ctx, dto.ActionResponse{
			Success: false,
			Message: "Duplicate request: you already have a pending organizer request",
		})
		return
	}

	s.log.Info().
		Int64("request_id", id).
		Int("user_id", req.UserID).
		Msg("organizer request submitted")

	dto.SuccessCreatedResponse(ctx, dto.ActionResponse{
		Success: true,
		Message: "Organizer request submitted",
	})
}

// ResolveRequest applies an Approve or Decline decision to a Pending
// organizer request. Approval promotes the owning user to organizer in
// the same unit of work. Terminal requests cannot be resolved again.
func (s *service) ResolveRequest(ctx *ginext.Context) {
	var req dto.RequestActionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	var newStatus string
	switch req.Action {
	case "Approve":
		newStatus = model.RequestStatusApproved
	case "Decline":
		newStatus = model.RequestStatusDeclined
	default:
		dto.InvalidActionError(ctx, req.Action)
		return
	}

	resolved, err := s.repo.ResolveRequestTx(ctx.Request.Context(), int64(req.RequestID), newStatus)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrRequestNotFound):
			dto.RequestNotFoundError(ctx)
		case errors.Is(err, repo.ErrInvalidState):
			dto.InvalidStateError(ctx)
		case errors.Is(err, repo.ErrPartialPromotion):
			s.log.Error().Err(err).
				Int("request_id", req.RequestID).
				Msg("data-integrity incident: promotion unit of work did not complete")
			dto.DataIntegrityError(ctx, "Promotion could not be completed consistently")
		default:
			s.log.Error().Err(err).Msg("failed to resolve organizer request")
			dto.InternalServerError(ctx)
		}
		return
	}

	s.log.Info().
		Int("request_id", resolved.ID).
		Int("user_id", resolved.UserID).
		Str("status", resolved.Status).
		Msg("organizer request resolved")

	var message string
	if newStatus == model.RequestStatusApproved {
		message = "Request approved: user promoted to organizer"
	} else {
		message = "Request declined"
	}

	if user, err := s.repo.GetUserByID(ctx.Request.Context(), int64(resolved.UserID)); err == nil {
		s.notify(dto.NotificationMessage{
			UserID:  user.ID,
			Email:   user.Email,
			Kind:    "request_" + resolved.Status,
			Subject: "Your organizer request has been reviewed",
			Body:    message,
		})
	}

	dto.SuccessResponse(ctx, dto.ActionResponse{
		Success: true,
		Message: message,
	})
}

func (s *service) GetAllRequests(ctx *ginext.Context) {
	reqs, err := s.repo.GetAllRequests(ctx.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get organizer requests")
		dto.InternalServerError(ctx)
		return
	}

	resp := make([]dto.OrganizerRequestResponse, 0, len(reqs))
	for _, r := range reqs {
		resp = append(resp, dto.OrganizerRequestResponse{
			ID:           r.ID,
			UserID:       r.UserID,
			Status:       r.Status,
			RequestDate:  r.RequestDate,
			DateReviewed: r.DateReviewed,
		})
	}

	dto.SuccessResponse(ctx, resp)
}

// notify publishes a notification message; delivery is best effort and
// never fails the request.
func (s *service) notify(msg dto.NotificationMessage) {
	if s.rbt == nil {
		return
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to marshal notification message")
		return
	}
	if err := s.rbt.Publish(payload); err != nil {
		s.log.Error().Err(err).Msg("failed to publish notification to RabbitMQ")
	}
}

func eventToResponse(e *model.Event) dto.EventResponse {
	return dto.EventResponse{
		ID:               e.ID,
		Name:             e.Name,
		Location:         e.Location,
		Description:      e.Description,
		Date:             e.Date,
		Type:             e.Type,
		OrganizerID:      e.OrganizerID,
		Image:            e.Image,
		Status:           e.Status,
		ParticipantCount: e.ParticipantCount,
		CreatedAt:        e.CreatedAt,
	}
}
