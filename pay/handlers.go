package pay

import (
	"net/http"

	"doctorsportal/models"
	"doctorsportal/utils"

	"github.com/julienschmidt/httprouter"
)

type intentRequest struct {
	Price float64 `json:"price"`
}

// CreatePaymentIntent handles POST /create-payment-intent.
func (s *Service) CreatePaymentIntent(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body intentRequest
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.RespondWithAppError(w, r, err)
		return
	}

	secret, err := s.CreateIntent(r.Context(), body.Price)
	if err != nil {
		utils.RespondWithAppError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"clientSecret": secret})
}

// RecordPayment handles POST /payment.
func (s *Service) RecordPayment(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var p models.Payment
	if err := utils.DecodeJSON(r, &p); err != nil {
		utils.RespondWithAppError(w, r, err)
		return
	}

	res, err := s.Record(r.Context(), p)
	if err != nil {
		utils.RespondWithAppError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}
