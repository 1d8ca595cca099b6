package auth

import (
	"net/http"

	"doctorsportal/apperr"
	"doctorsportal/utils"

	"github.com/julienschmidt/httprouter"
)

// GetJWT handles GET /jwt?email=. Unknown emails get 403 with an empty token.
func (s *TokenService) GetJWT(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	email := r.URL.Query().Get("email")

	token, err := s.Issue(r.Context(), email)
	if apperr.Is(err, apperr.KindForbidden) {
		utils.RespondWithJSON(w, http.StatusForbidden, map[string]string{"accessToken": ""})
		return
	}
	if err != nil {
		utils.RespondWithAppError(w, r, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"accessToken": token})
}
