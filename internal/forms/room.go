package forms

import (
	"strings"
	"unicode/utf8"
)

const minRoomNameLength = 3

// RoomForm creates or edits a room. Topic is the topic name; unknown names
// become new topics.
type RoomForm struct {
	Name        string `form:"name" json:"name" validate:"required,max=200"`
	Topic       string `form:"topic" json:"topic" validate:"required,max=200"`
	Description string `form:"description" json:"description"`
}

// RoomInput is a validated room form.
type RoomInput struct {
	Name        string
	Topic       string
	Description string
}

func (f RoomForm) Validate() (*RoomInput, error) {
	f.Name = strings.TrimSpace(f.Name)
	f.Topic = strings.TrimSpace(f.Topic)
	f.Description = strings.TrimSpace(f.Description)

	errs := Errors{}
	check(f, errs)
	if f.Name != "" && utf8.RuneCountInString(f.Name) < minRoomNameLength {
		errs.Add("name", "Room name must be at least 3 characters long.")
	}
	if err := errs.orNil(); err != nil {
		return nil, err
	}
	return &RoomInput{Name: f.Name, Topic: f.Topic, Description: f.Description}, nil
}

// MessageForm is a post in a room. The file flags say whether the request
// carried an image or a document upload.
type MessageForm struct {
	Body        string `form:"body" json:"body"`
	HasImage    bool   `form:"-" json:"-"`
	HasDocument bool   `form:"-" json:"-"`
}

// MessageInput is a validated message form.
type MessageInput struct {
	Body string
}

func (f MessageForm) Validate() (*MessageInput, error) {
	body := strings.TrimSpace(f.Body)
	if body == "" && !f.HasImage && !f.HasDocument {
		errs := Errors{}
		errs.Add(NonField, "Please provide either a message, image, or document.")
		return nil, errs
	}
	return &MessageInput{Body: body}, nil
}
