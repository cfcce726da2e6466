package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/studybud/internal/apperrors"
	"github.com/thereayou/studybud/internal/database"
	"github.com/thereayou/studybud/internal/forms"
	"github.com/thereayou/studybud/internal/logger"
	"github.com/thereayou/studybud/internal/models"
	"github.com/thereayou/studybud/internal/storage"
	ws "github.com/thereayou/studybud/internal/websocket"
	"github.com/thereayou/studybud/pkg/auth"
)

// Publisher receives the room events produced by writes.
type Publisher interface {
	Publish(roomID uuid.UUID, eventType ws.EventType, data interface{})
}

// Files stores uploads and removes them when the write that needed them fails.
type Files interface {
	SaveUpload(category storage.Category, fh *multipart.FileHeader) (*storage.Stored, error)
	Delete(rel string) error
}

// Uploads are the files sent along with a message.
type Uploads struct {
	Image    *multipart.FileHeader
	Document *multipart.FileHeader
	Extra    []*multipart.FileHeader
}

const EmptyUploadMessage = "The submitted file is empty."

// Community runs every write the web pages, the API and the admin console
// share: it authorizes, validates, stores files and persists.
type Community struct {
	db     *database.Database
	files  Files
	events Publisher
	now    func() time.Time
}

func NewCommunity(db *database.Database, files Files, events Publisher) *Community {
	return &Community{db: db, files: files, events: events, now: time.Now}
}

// Register creates an active account. Validation failures come back as
// forms.Errors; anything else is logged and reported as
// apperrors.ErrRegistrationFailed.
func (s *Community) Register(ctx context.Context, form forms.RegisterForm) (*models.User, error) {
	reg, err := form.Validate(ctx, s.db)
	if err != nil {
		var ferrs forms.Errors
		if errors.As(err, &ferrs) {
			return nil, err
		}
		return nil, s.registrationFailed(err, form.Email)
	}

	hash, err := auth.HashPassword(reg.Password)
	if err != nil {
		return nil, s.registrationFailed(err, reg.Email)
	}

	user := &models.User{
		Name:         reg.Name,
		Username:     reg.Username,
		Email:        reg.Email,
		PasswordHash: hash,
		Avatar:       models.DefaultAvatar,
		IsActive:     true,
	}
	if err := s.db.CreateUser(ctx, user); err != nil {
		return nil, s.registrationFailed(err, reg.Email)
	}

	logger.Info().Str("user_id", user.ID.String()).Msg("User registered")
	return user, nil
}

func (s *Community) registrationFailed(err error, email string) error {
	logger.Error().Err(err).Str("email", email).Msg("Registration failed")
	return apperrors.NewCustomError(apperrors.ErrRegistrationFailed, "An error occurred during registration. Please try again.")
}

// Authenticate checks an email and password pair and records the login.
func (s *Community) Authenticate(ctx context.Context, form forms.LoginForm) (*models.User, error) {
	email, err := form.Validate()
	if err != nil {
		return nil, err
	}

	user, err := s.db.FindUserByEmail(ctx, email)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.NewInvalidCredentialsError("User with this email does not exist.")
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive || !auth.CheckPassword(user.PasswordHash, form.Password) {
		return nil, apperrors.NewInvalidCredentialsError("Invalid email or password.")
	}

	now := s.now()
	if err := s.db.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	user.LastLogin = &now
	return user, nil
}

// CreateRoom makes hostID the host of a new room under the named topic.
func (s *Community) CreateRoom(ctx context.Context, hostID uuid.UUID, form forms.RoomForm, image *multipart.FileHeader) (*models.Room, error) {
	in, err := form.Validate()
	if err != nil {
		return nil, err
	}
	topic, _, err := s.db.GetOrCreateTopic(ctx, in.Topic)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve topic: %w", err)
	}

	room := &models.Room{
		HostID:      &hostID,
		TopicID:     &topic.ID,
		Name:        in.Name,
		Description: in.Description,
	}
	if image != nil {
		stored, err := s.save(storage.RoomMedia, "room_image", image)
		if err != nil {
			return nil, err
		}
		room.RoomImage = stored.Path
	}

	if err := s.db.CreateRoom(ctx, room); err != nil {
		s.discard(room.RoomImage)
		return nil, fmt.Errorf("failed to create room: %w", err)
	}
	room.Topic = topic
	return room, nil
}

// UpdateRoom edits a room. Only its host may do so.
func (s *Community) UpdateRoom(ctx context.Context, actorID, roomID uuid.UUID, form forms.RoomForm, image *multipart.FileHeader) (*models.Room, error) {
	room, err := s.db.GetRoom(ctx, roomID)
	if err != nil {
		return nil, apperrors.NotFoundAs(err, "Room not found")
	}
	if !room.HostedBy(actorID) {
		return nil, apperrors.NewForbiddenError("You are not allowed to edit this room.")
	}

	in, err := form.Validate()
	if err != nil {
		return nil, err
	}
	topic, _, err := s.db.GetOrCreateTopic(ctx, in.Topic)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve topic: %w", err)
	}

	room.Name = in.Name
	room.Description = in.Description
	room.TopicID = &topic.ID
	room.Topic = topic
	previousImage := ""
	if image != nil {
		stored, err := s.save(storage.RoomMedia, "room_image", image)
		if err != nil {
			return nil, err
		}
		previousImage, room.RoomImage = room.RoomImage, stored.Path
	}

	if err := s.db.UpdateRoom(ctx, room); err != nil {
		if image != nil {
			s.discard(room.RoomImage)
		}
		return nil, fmt.Errorf("failed to update room: %w", err)
	}
	s.discard(previousImage)

	s.events.Publish(room.ID, ws.EventRoomUpdated, map[string]interface{}{
		"name":  room.Name,
		"topic": topic.Name,
	})
	return room, nil
}

// DeleteRoom removes a room on behalf of its host and returns what was removed.
func (s *Community) DeleteRoom(ctx context.Context, actorID, roomID uuid.UUID) (*models.Room, error) {
	room, err := s.db.GetRoom(ctx, roomID)
	if err != nil {
		return nil, apperrors.NotFoundAs(err, "Room not found")
	}
	if !room.HostedBy(actorID) {
		return nil, apperrors.NewForbiddenError("You are not allowed to delete this room.")
	}
	if err := s.RemoveRoom(ctx, roomID); err != nil {
		return nil, err
	}
	return room, nil
}

// RemoveRoom deletes a room without an ownership check.
func (s *Community) RemoveRoom(ctx context.Context, roomID uuid.UUID) error {
	if err := s.db.DeleteRoom(ctx, roomID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewNotFoundError("Room not found")
		}
		return fmt.Errorf("failed to delete room: %w", err)
	}
	s.events.Publish(roomID, ws.EventRoomDeleted, nil)
	return nil
}

// PostMessage adds a message to a room and makes the author a participant.
func (s *Community) PostMessage(ctx context.Context, authorID, roomID uuid.UUID, form forms.MessageForm, uploads Uploads) (*models.Message, error) {
	if _, err := s.db.GetRoom(ctx, roomID); err != nil {
		return nil, apperrors.NotFoundAs(err, "Room not found")
	}

	form.HasImage = uploads.Image != nil
	form.HasDocument = uploads.Document != nil
	in, err := form.Validate()
	if err != nil {
		return nil, err
	}

	msg := &models.Message{UserID: authorID, RoomID: roomID, Body: in.Body}
	if msg.Image, err = s.attach(msg, "image", uploads.Image); err != nil {
		s.discardAttachments(msg)
		return nil, err
	}
	if msg.Document, err = s.attach(msg, "document", uploads.Document); err != nil {
		s.discardAttachments(msg)
		return nil, err
	}
	for _, fh := range uploads.Extra {
		if _, err := s.attach(msg, "attachments", fh); err != nil {
			s.discardAttachments(msg)
			return nil, err
		}
	}

	joined, err := s.db.CreateMessage(ctx, msg)
	if err != nil {
		s.discardAttachments(msg)
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	created, err := s.db.GetMessage(ctx, msg.ID)
	if err != nil {
		return nil, err
	}
	if joined {
		s.events.Publish(roomID, ws.EventParticipantJoined, participantEvent(&created.User))
	}
	s.events.Publish(roomID, ws.EventMessageCreated, map[string]interface{}{
		"id":              created.ID,
		"user_id":         created.UserID,
		"username":        created.User.Username,
		"body":            created.Body,
		"has_attachments": created.HasAttachments(),
		"created":         created.CreatedAt,
	})
	return created, nil
}

// attach stores fh as a message attachment and returns its stored path.
func (s *Community) attach(msg *models.Message, field string, fh *multipart.FileHeader) (string, error) {
	if fh == nil {
		return "", nil
	}
	stored, err := s.save(storage.MessageAttachments, field, fh)
	if err != nil {
		return "", err
	}
	msg.Attachments = append(msg.Attachments, models.Attachment{
		File:     stored.Path,
		FileType: stored.Type,
		FileName: stored.Name,
		FileSize: stored.Size,
	})
	return stored.Path, nil
}

// save stores fh. An empty file is reported against field so forms can
// redisplay it like any other validation error.
func (s *Community) save(category storage.Category, field string, fh *multipart.FileHeader) (*storage.Stored, error) {
	stored, err := s.files.SaveUpload(category, fh)
	if errors.Is(err, storage.ErrEmptyUpload) {
		return nil, forms.Errors{field: {EmptyUploadMessage}}
	}
	return stored, err
}

func (s *Community) discardAttachments(msg *models.Message) {
	for _, a := range msg.Attachments {
		s.discard(a.File)
	}
}

func (s *Community) discard(rel string) {
	if rel == "" {
		return
	}
	if err := s.files.Delete(rel); err != nil {
		logger.Warn().Err(err).Str("path", rel).Msg("Failed to remove orphaned upload")
	}
}

// DeleteMessage removes a message on behalf of its author or the room host.
func (s *Community) DeleteMessage(ctx context.Context, actorID, messageID uuid.UUID) (*models.Message, error) {
	msg, err := s.db.GetMessage(ctx, messageID)
	if err != nil {
		return nil, apperrors.NotFoundAs(err, "Message not found")
	}
	if msg.UserID != actorID && !msg.Room.HostedBy(actorID) {
		return nil, apperrors.NewForbiddenError("You are not allowed to delete this message.")
	}
	if err := s.RemoveMessage(ctx, msg.RoomID, msg.ID); err != nil {
		return nil, err
	}
	return msg, nil
}

// RemoveMessage deletes a message without an authorization check.
func (s *Community) RemoveMessage(ctx context.Context, roomID, messageID uuid.UUID) error {
	if err := s.db.DeleteMessage(ctx, messageID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewNotFoundError("Message not found")
		}
		return fmt.Errorf("failed to delete message: %w", err)
	}
	s.events.Publish(roomID, ws.EventMessageDeleted, map[string]interface{}{"id": messageID})
	return nil
}

// UpdateProfile edits the account of userID, replacing the avatar when one
// is uploaded.
func (s *Community) UpdateProfile(ctx context.Context, userID uuid.UUID, form forms.UserForm, avatar *multipart.FileHeader) (*models.User, error) {
	user, err := s.db.GetUser(ctx, userID)
	if err != nil {
		return nil, apperrors.NotFoundAs(err, "User not found")
	}
	in, err := form.Validate(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}

	user.Name = in.Name
	user.Username = in.Username
	user.Email = in.Email
	user.Bio = in.Bio
	previousAvatar := ""
	if avatar != nil {
		stored, err := s.save(storage.Avatars, "avatar", avatar)
		if err != nil {
			return nil, err
		}
		previousAvatar, user.Avatar = user.Avatar, stored.Path
	}

	if err := s.db.UpdateUser(ctx, user); err != nil {
		if avatar != nil {
			s.discard(user.Avatar)
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	s.discard(previousAvatar)
	return user, nil
}

// JoinRoom adds userID to the room. Joining again changes nothing.
func (s *Community) JoinRoom(ctx context.Context, userID, roomID uuid.UUID) error {
	if _, err := s.db.GetRoom(ctx, roomID); err != nil {
		return apperrors.NotFoundAs(err, "Room not found")
	}
	added, err := s.db.JoinRoom(ctx, roomID, userID)
	if err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}
	if added {
		s.publishParticipant(ctx, roomID, userID, ws.EventParticipantJoined)
	}
	return nil
}

// LeaveRoom removes userID from the room. Leaving a room never joined changes nothing.
func (s *Community) LeaveRoom(ctx context.Context, userID, roomID uuid.UUID) error {
	if _, err := s.db.GetRoom(ctx, roomID); err != nil {
		return apperrors.NotFoundAs(err, "Room not found")
	}
	removed, err := s.db.LeaveRoom(ctx, roomID, userID)
	if err != nil {
		return fmt.Errorf("failed to leave room: %w", err)
	}
	if removed {
		s.publishParticipant(ctx, roomID, userID, ws.EventParticipantLeft)
	}
	return nil
}

func (s *Community) publishParticipant(ctx context.Context, roomID, userID uuid.UUID, eventType ws.EventType) {
	user, err := s.db.GetUser(ctx, userID)
	if err != nil {
		logger.Warn().Err(err).Str("user_id", userID.String()).Msg("Participant vanished before event")
		return
	}
	s.events.Publish(roomID, eventType, participantEvent(user))
}

func participantEvent(u *models.User) map[string]interface{} {
	return map[string]interface{}{
		"user_id":  u.ID,
		"username": u.Username,
		"name":     u.DisplayName(),
	}
}

// DeleteUser removes an account with its messages. Rooms it hosted stay.
func (s *Community) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	if err := s.db.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewNotFoundError("User not found")
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	logger.Info().Str("user_id", userID.String()).Msg("User deleted")
	return nil
}
