package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"agri-auth/internal/model"
	"agri-auth/pkg/apierror"
)

func writeJSON(w http.ResponseWriter, status int, body model.AuthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError is the one place errors become HTTP. Only APIError text reaches
// the client; everything else is logged and reported as a generic failure.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := model.AuthResponse{
		Success: false,
		Code:    apierror.CodeInternal,
		Message: "Unexpected server error",
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		status = apiErr.HTTPStatus
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
		if status >= http.StatusInternalServerError {
			slog.Error("request failed", "code", apiErr.Code, "error", err)
		}
	} else {
		// Log unclassified errors so they are visible in container logs.
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	writeJSON(w, status, body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	defer r.Body.Close()

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		return apierror.New(apierror.CodeBadRequest, "invalid JSON body", "", http.StatusBadRequest)
	}
	return nil
}
