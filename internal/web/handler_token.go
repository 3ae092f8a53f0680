package web

import (
	"net/http"

	"potterylog/internal/auth"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// handleToken implements the OAuth2 password flow: an urlencoded form with
// username and password, answered with a bearer token.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.writeDetail(w, http.StatusBadRequest, "Failed to parse form.")
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if username == "" || password == "" {
		s.writeDetail(w, http.StatusUnprocessableEntity, "Fields 'username' and 'password' are required.")
		return
	}

	user, err := s.users.GetByUsername(r.Context(), username)
	if err != nil {
		s.writeDetail(w, http.StatusInternalServerError, "Failed to authenticate.")
		s.logger.Error("user lookup failed", "username", username, "error", err)
		return
	}
	if user == nil || !auth.CheckPassword(user.HashedPassword, password) {
		s.unauthorized(w, "Incorrect username or password")
		return
	}
	if user.Disabled {
		s.unauthorized(w, "Inactive user")
		return
	}

	token, err := s.issuer.Issue(user)
	if err != nil {
		s.writeDetail(w, http.StatusInternalServerError, "Failed to issue token.")
		s.logger.Error("token issue failed", "username", username, "error", err)
		return
	}

	s.logger.Info("user authenticated", "username", username)
	s.writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (s *Server) unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	s.writeDetail(w, http.StatusUnauthorized, detail)
}
