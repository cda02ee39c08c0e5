package handler

import (
	"encoding/json"
	"net/http"
)

type ErrorDetail struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Details map[string][]string `json:"details,omitempty"`
}

type errorBody struct {
	Error ErrorDetail `json:"error"`
}

type jsonResponse struct {
	status int
	body   any
}

func (j jsonResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSON renders v as the response body with status 200.
func JSON(v any) Response {
	return jsonResponse{status: http.StatusOK, body: v}
}

func JSONWithStatus(status int, v any) Response {
	return jsonResponse{status: status, body: v}
}

// JSONError renders the classified error envelope.
func JSONError(info ErrorInfo) Response {
	return jsonResponse{
		status: info.StatusCode,
		body: errorBody{Error: ErrorDetail{
			Code:    info.Code,
			Message: info.Message,
			Details: info.Details,
		}},
	}
}
