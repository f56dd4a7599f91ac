// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Bandmate Harmony Contributors

package httpapi

import (
	"time"

	"github.com/bandmate/harmony/internal/auth"
	"github.com/bandmate/harmony/internal/events"
	"github.com/bandmate/harmony/internal/profile"
)

// accountDTO is the wire shape of an account. It never carries the
// password hash.
type accountDTO struct {
	ID         string    `json:"id"`
	Handle     string    `json:"handle"`
	Email      string    `json:"email"`
	GivenName  *string   `json:"given_name,omitempty"`
	FamilyName *string   `json:"family_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func toAccountDTO(a *auth.Account) accountDTO {
	return accountDTO{
		ID:         a.ID.String(),
		Handle:     a.Handle,
		Email:      a.Email,
		GivenName:  a.GivenName,
		FamilyName: a.FamilyName,
		CreatedAt:  a.CreatedAt,
	}
}

type registerRequest struct {
	Email      string  `json:"email"`
	Password   string  `json:"password"`
	GivenName  *string `json:"given_name"`
	FamilyName *string `json:"family_name"`
}

func toRegisterParams(r registerRequest) auth.RegisterParams {
	return auth.RegisterParams{
		Email:      r.Email,
		Password:   r.Password,
		GivenName:  r.GivenName,
		FamilyName: r.FamilyName,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authResponse carries the session token and the account it names.
type authResponse struct {
	Token string     `json:"token"`
	User  accountDTO `json:"user"`
}

// meResponse wraps the caller's account for GET /auth/me.
type meResponse struct {
	User accountDTO `json:"user"`
}

type profileDTO struct {
	ID           string         `json:"id"`
	Handle       string         `json:"handle"`
	GivenName    *string        `json:"given_name,omitempty"`
	FamilyName   *string        `json:"family_name,omitempty"`
	City         *string        `json:"city,omitempty"`
	Bio          *string        `json:"bio,omitempty"`
	AvatarURL    *string        `json:"avatar_url,omitempty"`
	Instruments  []string       `json:"instruments"`
	Genres       []string       `json:"genres"`
	Experience   *string        `json:"experience,omitempty"`
	Availability map[string]any `json:"availability,omitempty"`
	Contacts     map[string]any `json:"contacts,omitempty"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func toProfileDTO(p *profile.Profile) profileDTO {
	return profileDTO{
		ID:           p.ID.String(),
		Handle:       p.Handle,
		GivenName:    p.GivenName,
		FamilyName:   p.FamilyName,
		City:         p.City,
		Bio:          p.Bio,
		AvatarURL:    p.AvatarURL,
		Instruments:  p.Instruments,
		Genres:       p.Genres,
		Experience:   p.Experience,
		Availability: p.Availability,
		Contacts:     p.Contacts,
		UpdatedAt:    p.UpdatedAt,
	}
}

type profileUpdateRequest struct {
	GivenName    *string        `json:"given_name"`
	FamilyName   *string        `json:"family_name"`
	City         *string        `json:"city"`
	Bio          *string        `json:"bio"`
	AvatarURL    *string        `json:"avatar_url"`
	Instruments  []string       `json:"instruments"`
	Genres       []string       `json:"genres"`
	Experience   *string        `json:"experience"`
	Availability map[string]any `json:"availability"`
	Contacts     map[string]any `json:"contacts"`
}

func (r profileUpdateRequest) toUpdate() profile.Update {
	return profile.Update{
		GivenName:    r.GivenName,
		FamilyName:   r.FamilyName,
		City:         r.City,
		Bio:          r.Bio,
		AvatarURL:    r.AvatarURL,
		Instruments:  r.Instruments,
		Genres:       r.Genres,
		Experience:   r.Experience,
		Availability: r.Availability,
		Contacts:     r.Contacts,
	}
}

type eventDTO struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	StartsAt    time.Time `json:"starts_at"`
	Venue       *string   `json:"venue,omitempty"`
	Kind        *string   `json:"kind,omitempty"`
	Genre       *string   `json:"genre,omitempty"`
	Capacity    *int      `json:"capacity,omitempty"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

func toEventDTO(e *events.Event) eventDTO {
	return eventDTO{
		ID:          e.ID.String(),
		Title:       e.Title,
		Description: e.Description,
		StartsAt:    e.StartsAt,
		Venue:       e.Venue,
		Kind:        e.Kind,
		Genre:       e.Genre,
		Capacity:    e.Capacity,
		CreatedBy:   e.CreatedBy.String(),
		CreatedAt:   e.CreatedAt,
	}
}

func toEventDTOs(list []*events.Event) []eventDTO {
	out := make([]eventDTO, 0, len(list))
	for _, e := range list {
		out = append(out, toEventDTO(e))
	}
	return out
}

type createEventRequest struct {
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	StartsAt    time.Time `json:"starts_at"`
	Venue       *string   `json:"venue"`
	Kind        *string   `json:"kind"`
	Genre       *string   `json:"genre"`
	Capacity    *int      `json:"capacity"`
}
