package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/found/internal/auth"
	"github.com/sakif/found/internal/model"
)

// ProfileSyncer is the slice of *service.ProfileService the handler needs.
type ProfileSyncer interface {
	Load(ctx context.Context, sess *auth.Session) (*model.Profile, error)
	Update(ctx context.Context, sess *auth.Session, patch model.ProfilePatch) error
}

// ProfileHandler exposes Profile Sync over HTTP.
//
// Both routes sit behind OptionalAuth: the session, if any, is taken from
// the request context and handed to the service, which owns the "nobody
// signed in" rules.
type ProfileHandler struct {
	profiles ProfileSyncer
	logger   *slog.Logger
}

// NewProfileHandler creates a ProfileHandler.
func NewProfileHandler(profiles ProfileSyncer, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, logger: logger}
}

// HandleGet returns the caller's profile.
//
// HTTP: GET /api/profile
// RESPONSE: 200 Profile, or 200 null when nobody is signed in or the user
// has never saved a profile.
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sess := sessionOrNil(r)

	profile, err := h.profiles.Load(r.Context(), sess)
	if err != nil {
		writeError(w, err)
		return
	}

	// A nil *model.Profile encodes as JSON null.
	writeJSON(w, http.StatusOK, profile)
}

// HandleUpdate applies a partial update and answers with the stored result.
//
// HTTP: PUT /api/profile
// REQUEST BODY: any subset of
//
//	{"name": "...", "role": "...", "location": "...", "domain": "...",
//	 "avatar_url": "...", "skills": ["Go"], "interests": []}
//
// "skills": [] clears the collection; leaving "skills" out keeps it.
// RESPONSE: 200 Profile, 401 without a session, 500 when a write fails.
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	sess := sessionOrNil(r)

	var patch model.ProfilePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, err)
		return
	}

	if err := h.profiles.Update(r.Context(), sess, patch); err != nil {
		writeError(w, err)
		return
	}

	profile, err := h.profiles.Load(r.Context(), sess)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func sessionOrNil(r *http.Request) *auth.Session {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		return nil
	}
	return sess
}
