package handlers

import (
	"net/http"

	"membership-portal/errors"
	"membership-portal/logger"
	"membership-portal/services"
	"membership-portal/utils"
)

// Handler carries the services the HTTP layer dispatches into. Every
// dependency is injected; handlers hold no package-level state.
type Handler struct {
	Payments      *services.PaymentService
	Directory     *services.DirectoryService
	Recaptcha     *services.RecaptchaVerifier
	WebhookSecret string
	Log           *logger.Logger
}

// New builds the handler set.
func New(payments *services.PaymentService, directory *services.DirectoryService, recaptcha *services.RecaptchaVerifier, webhookSecret string, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Handler{
		Payments:      payments,
		Directory:     directory,
		Recaptcha:     recaptcha,
		WebhookSecret: webhookSecret,
		Log:           log,
	}
}

// fail maps an application error onto the HTTP error contract:
// invalid input is the caller's to fix (400), everything else is a
// retryable failure (500).
func (h *Handler) fail(w http.ResponseWriter, err error, fallback string) {
	if errors.KindOf(err) == errors.Invalid {
		utils.SendFailure(w, http.StatusBadRequest, errMessage(err, fallback))
		return
	}
	h.Log.Error("%s: %v", fallback, err)
	utils.SendFailure(w, http.StatusInternalServerError, fallback)
}

func errMessage(err error, fallback string) string {
	var e *errors.Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fallback
}
