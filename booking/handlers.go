package booking

import (
	"net/http"
	"strconv"

	"doctorsportal/middleware"
	"doctorsportal/models"
	"doctorsportal/utils"

	"github.com/julienschmidt/httprouter"
)

// GetAppointmentOptions handles GET /appointmentOptions?date=.
func (s *Service) GetAppointmentOptions(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	options, err := s.Availability(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		utils.RespondWithAppError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, options)
}

// CreateBooking handles POST /bookings. Duplicates are acknowledged with
// {acknowledged:false} and a 200.
func (s *Service) CreateBooking(w http.ResponseWriter, r *http.Request, _ httprouter.Params, _ middleware.Principal) {
	var b models.Booking
	if err := utils.DecodeJSON(r, &b); err != nil {
		utils.RespondWithAppError(w, r, err)
		return
	}

	res, err := s.Create(r.Context(), b)
	if err != nil {
		utils.RespondWithAppError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}

// GetPatientAppointments handles GET /patientAppointments?email=&date=.
func (s *Service) GetPatientAppointments(w http.ResponseWriter, r *http.Request, _ httprouter.Params, p middleware.Principal) {
	q := r.URL.Query()
	lists, err := s.PatientAppointments(r.Context(), p.Email, q.Get("email"), q.Get("date"))
	if err != nil {
		utils.RespondWithAppError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, lists)
}

// GetAppointment handles GET /appointment/:id and answers null when absent.
func (s *Service) GetAppointment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := utils.ParseObjectID("id", ps.ByName("id"))
	if err != nil {
		utils.RespondWithAppError(w, r, err)
		return
	}

	b, err := s.GetByID(r.Context(), id)
	if err != nil {
		utils.RespondWithAppError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, b)
}

// GetReceipt handles GET /appointment/:id/receipt.
func (s *Service) GetReceipt(w http.ResponseWriter, r *http.Request, ps httprouter.Params, p middleware.Principal) {
	id, err := utils.ParseObjectID("id", ps.ByName("id"))
	if err != nil {
		utils.RespondWithAppError(w, r, err)
		return
	}

	pdf, err := s.Receipt(r.Context(), p.Email, id)
	if err != nil {
		utils.RespondWithAppError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=receipt-"+id.Hex()+".pdf")
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}
