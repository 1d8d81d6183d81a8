package web

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/neonet-app/go-auth"
)

// RegisterPayload is the registration body
type RegisterPayload struct {
	Username       string `json:"username" form:"username"`
	Password       string `json:"password" form:"password"`
	ProfilePicture string `json:"profile_picture" form:"profile_picture"`
	Description    string `json:"description" form:"description"`
	Mood           string `json:"mood" form:"mood"`
	ZKPAck         bool   `json:"zkp_ack" form:"zkp_ack"`
}

// Validate checks the payload for a handler
func (r RegisterPayload) Validate(requireZKP bool) error {
	zkpRules := []validation.Rule{}
	if requireZKP {
		zkpRules = append(zkpRules, validation.Required)
	}

	if verr := errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.Username, validation.Required),
			validation.Field(&r.Password, validation.Required),
			validation.Field(&r.ZKPAck, zkpRules...),
		)
	}, "Invalid registration payload"); verr != nil {
		return verr.WithTextCode(auth.TextCodeInvalidData)
	}
	return nil
}

// CreateUser converts the payload to handler input
func (r RegisterPayload) CreateUser() auth.CreateUser {
	return auth.CreateUser{
		Username:       r.Username,
		Password:       r.Password,
		ProfilePicture: r.ProfilePicture,
		Description:    r.Description,
		Mood:           r.Mood,
	}
}

// LoginPayload is the login body
type LoginPayload struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// TokenPayload carries a token in the body when no bearer header is sent
type TokenPayload struct {
	Token string `json:"token" form:"token"`
}

// LoginResponse is either a refresh token or a redirect
type LoginResponse struct {
	Token    string `json:"token,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

// AccessTokenResponse carries a new access token
type AccessTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// HandlerInfo describes a loaded handler
type HandlerInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
	RequireZKP  bool   `json:"require_zkp"`
}
