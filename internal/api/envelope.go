package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dando385/chain-relayer/internal/apierr"
)

// envelope is the wire shape every response shares: {code, data, message}.
// code is 0 on success, one of apierr's taxonomy codes otherwise; data is
// omitted on error.
type envelope struct {
	Code    int         `json:"code"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func writeData(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, envelope{Code: int(apierr.CodeSuccess), Data: data})
}

// writeError maps a relayer error to its taxonomy code on the envelope.
// Every error raised through apierr.New/apierr.Wrap round-trips its code;
// anything else surfaces as apierr.CodeUnknown. Errors are always reported
// with HTTP 200, with the code carried in the response body rather than the
// HTTP status.
func writeError(w http.ResponseWriter, err error) {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		writeJSON(w, http.StatusOK, envelope{Code: int(ae.Code), Message: ae.Message})
		return
	}
	writeJSON(w, http.StatusOK, envelope{Code: int(apierr.CodeUnknown), Message: err.Error()})
}
