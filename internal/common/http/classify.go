package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"events-client/internal/common/errors"
)

// errorBody covers the message shapes the API uses for failures
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Msg     string `json:"msg"`
}

// serverMessage extracts a human readable message from a failed response,
// or "" when the body carries none.
func serverMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		for _, m := range []string{eb.Message, eb.Error, eb.Msg} {
			if m = strings.TrimSpace(m); m != "" {
				return m
			}
		}
		return ""
	}
	text := strings.TrimSpace(string(body))
	if text == "" || strings.HasPrefix(text, "<") || len(text) > 200 {
		return ""
	}
	return text
}

// classify maps a non-2xx response onto the error taxonomy. credentials is
// set for auth endpoints, where a 401 means the credentials were rejected.
func classify(resp *response, credentials bool) error {
	msg := serverMessage(resp.body)

	var appErr *errors.AppError
	switch resp.status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		appErr = errors.ValidationError(orGeneric(msg))
	case http.StatusUnauthorized:
		if credentials {
			if msg == "" {
				msg = "Invalid email or password."
			}
			appErr = errors.ValidationError(msg)
		} else {
			appErr = errors.SessionExpiredError(nil)
		}
	case http.StatusForbidden:
		appErr = errors.PermissionError(msg)
	case http.StatusNotFound:
		appErr = errors.NotFoundError("resource")
		if msg != "" {
			appErr.Message = msg
		}
	case http.StatusTooManyRequests:
		appErr = errors.RateLimitError(msg)
	default:
		appErr = errors.ServerError(msg)
	}
	return appErr.WithStatus(resp.status)
}

func orGeneric(msg string) string {
	if msg == "" {
		return errors.MsgGeneric
	}
	return msg
}
