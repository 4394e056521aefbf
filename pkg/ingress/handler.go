package ingress

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	cqerrors "github.com/shifthive/capturequeue/pkg/errors"
	"github.com/shifthive/capturequeue/pkg/logger"
)

// Router mounts the webhook route plus a read-only session lookup used by
// operators to check what the store thinks happened to a given session.
func Router(adapter *Adapter) chi.Router {
	r := chi.NewRouter()
	r.Post("/webhook", webhookHandler(adapter))
	r.Get("/sessions/{sessionID}", sessionHandler(adapter))
	return r
}

type webhookResponse struct {
	Reply string `json:"reply"`
}

// webhookHandler catches everything, replies with a generic failure
// message on error, and always returns 200 to the transport so it does not
// retry indefinitely, per the error handling design's ingress propagation
// policy.
func webhookHandler(adapter *Adapter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var update Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			writeReply(w, http.StatusOK, "could not read request")
			return
		}

		reply, err := adapter.Handle(r.Context(), update)
		if err != nil {
			logger.Errorw("ingress webhook handler failed", "error", err, "user_id", update.UserID)
			writeReply(w, http.StatusOK, "something went wrong, please try again")
			return
		}
		writeReply(w, http.StatusOK, reply)
	}
}

func writeReply(w http.ResponseWriter, status int, reply string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(webhookResponse{Reply: reply})
}

type sessionResponse struct {
	ID       string `json:"id"`
	UserID   int64  `json:"user_id"`
	State    string `json:"state"`
	ErrorMsg string `json:"error,omitempty"`
}

// sessionHandler is a diagnostics read, unlike the webhook it answers with
// the real status code via statusFor so operators can tell NotFound from a
// transient failure.
func sessionHandler(adapter *Adapter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		s, err := adapter.sessions.GetByID(r.Context(), id)
		if err != nil {
			w.WriteHeader(statusFor(err))
			return
		}

		resp := sessionResponse{ID: s.ID.String(), UserID: s.UserID, State: string(s.State)}
		if s.Error != nil {
			resp.ErrorMsg = *s.Error
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// statusFor exposes pkg/errors' Code mapping to HTTP callers that want the
// real status, unlike the webhook which always answers 200.
func statusFor(err error) int {
	return cqerrors.Code(err)
}
