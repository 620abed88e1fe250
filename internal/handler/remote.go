package handler

import "net/http"

// ListRemoteClaims handles GET /remote/claims.
// It reads back the claims mirrored to the remote index, including deleted
// markers, and answers 503 when no remote index is configured.
func (s *Server) ListRemoteClaims(w http.ResponseWriter, r *http.Request) {
	if s.remote == nil {
		writeErrorBody(w, http.StatusServiceUnavailable, "remote_disabled", "no remote index configured")
		return
	}
	claims, err := s.remote.ReadClaims(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, paged(r, claims))
}
