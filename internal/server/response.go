package server

import (
	"encoding/json"
	"net/http"

	"github.com/rakunlabs/mockllm/internal/apierr"
)

type responseMessage struct {
	Message string `json:"message"`
}

func httpResponse(w http.ResponseWriter, msg string, code int) {
	v, _ := json.Marshal(responseMessage{Message: msg})
	httpResponseJSONByte(w, v, code)
}

func httpResponseJSON(w http.ResponseWriter, msg any, code int) {
	v, _ := json.Marshal(msg)
	httpResponseJSONByte(w, v, code)
}

func httpResponseJSONByte(w http.ResponseWriter, msg []byte, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(msg)
}

// wireError is the {"error": {"message", "type"}} envelope every client
// error uses, per the teacher's own gateway error responses.
type wireError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code,omitempty"`
	} `json:"error"`
}

func httpAPIError(w http.ResponseWriter, err *apierr.Error) {
	var body wireError
	body.Error.Message = err.Message
	body.Error.Type = string(err.Kind)
	if err.Kind == apierr.ReloadFailed {
		httpResponseJSON(w, map[string]any{
			"error":   body.Error,
			"details": err.Details,
		}, err.Kind.HTTPStatus())
		return
	}
	httpResponseJSON(w, body, err.Kind.HTTPStatus())
}
