package directory

import (
	"net/http"

	"doctorsportal/middleware"
	"doctorsportal/models"
	"doctorsportal/utils"

	"github.com/julienschmidt/httprouter"
)

// RegisterUser handles POST /user.
func (s *Service) RegisterUser(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var u models.User
	if err := utils.DecodeJSON(r, &u); err != nil {
		utils.RespondWithAppError(w, r, err)
		return
	}

	res, err := s.Register(r.Context(), u)
	if err != nil {
		utils.RespondWithAppError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}

func (s *Service) GetUsers(w http.ResponseWriter, r *http.Request, _ httprouter.Params, _ middleware.Principal) {
	users, err := s.ListUsers(r.Context())
	if err != nil {
		utils.RespondWithAppError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, users)
}

// RemoveUser handles DELETE /user?_id=.
func (s *Service) RemoveUser(w http.ResponseWriter, r *http.Request, _ httprouter.Params, _ middleware.Principal) {
	id, err := utils.ParseObjectID("_id", r.URL.Query().Get("_id"))
	if err != nil {
		utils.RespondWithAppError(w, r, err)
		return
	}

	res, err := s.DeleteUser(r.Context(), id)
	if err != nil {
		utils.RespondWithAppError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}

// MakeAdmin handles PUT /users/makeAdmin/:id.
func (s *Service) MakeAdmin(w http.ResponseWriter, r *http.Request, ps httprouter.Params, _ middleware.Principal) {
	id, err := utils.ParseObjectID("id", ps.ByName("id"))
	if err != nil {
		utils.RespondWithAppError(w, r, err)
		return
	}

	res, err := s.PromoteToAdmin(r.Context(), id)
	if err != nil {
		utils.RespondWithAppError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}

// CheckIsAdmin handles GET /users/checkIsAdmin/:email.
func (s *Service) CheckIsAdmin(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	admin, err := s.IsAdmin(r.Context(), ps.ByName("email"))
	if err != nil {
		utils.RespondWithAppError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]bool{"isAdmin": admin})
}

func (s *Service) GetSpecialties(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	specialties, err := s.Specialties(r.Context())
	if err != nil {
		utils.RespondWithAppError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, specialties)
}

func (s *Service) AddDoctor(w http.ResponseWriter, r *http.Request, _ httprouter.Params, _ middleware.Principal) {
	var d models.Doctor
	if err := utils.DecodeJSON(r, &d); err != nil {
		utils.RespondWithAppError(w, r, err)
		return
	}

	res, err := s.CreateDoctor(r.Context(), d)
	if err != nil {
		utils.RespondWithAppError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}

func (s *Service) GetDoctors(w http.ResponseWriter, r *http.Request, _ httprouter.Params, _ middleware.Principal) {
	doctors, err := s.ListDoctors(r.Context())
	if err != nil {
		utils.RespondWithAppError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, doctors)
}

// RemoveDoctor handles DELETE /doctor?_id=.
func (s *Service) RemoveDoctor(w http.ResponseWriter, r *http.Request, _ httprouter.Params, _ middleware.Principal) {
	id, err := utils.ParseObjectID("_id", r.URL.Query().Get("_id"))
	if err != nil {
		utils.RespondWithAppError(w, r, err)
		return
	}

	res, err := s.DeleteDoctor(r.Context(), id)
	if err != nil {
		utils.RespondWithAppError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}
