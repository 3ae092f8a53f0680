package web

import (
	"net/http"

	"potterylog/internal/version"
)

type versionResponse struct {
	BackendVersion     string `json:"backend_version"`
	MinFrontendVersion string `json:"min_frontend_version"`
	UpdateRequired     *bool  `json:"update_required,omitempty"`
}

// handleVersion reports the backend version and the oldest frontend version it
// still supports. When the client sends its own version, the response also says
// whether it must update before continuing.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	resp := versionResponse{
		BackendVersion:     version.Backend,
		MinFrontendVersion: s.minFrontendVersion,
	}

	if clientVersion := r.URL.Query().Get("client_version"); clientVersion != "" {
		required, err := version.UpdateRequired(clientVersion, s.minFrontendVersion)
		if err != nil {
			s.writeDetail(w, http.StatusBadRequest, "Invalid client_version format. Expected major.minor.patch.")
			return
		}
		resp.UpdateRequired = &required
	}

	s.writeJSON(w, http.StatusOK, resp)
}
