package api

import (
	"net/http"
)

// @Summary      Get current user info
// @Description  Returns the identity claims resolved from the caller's bearer token.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  auth.Identity
// @Failure      401  {object}  map[string]string
// @Router       /me [get]
func (s *Server) GetCurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentityFromContext(r.Context())
	if identity == nil {
		respondError(w, http.StatusInternalServerError, "Could not resolve identity from token")
		return
	}

	respondJSON(w, http.StatusOK, identity)
}

// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /health [get]
func (s *Server) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.store.GetPool().Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
