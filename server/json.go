package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"smilabus.dev/schedule"
)

func writeJSON(writer http.ResponseWriter, status int, body any) {
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	writer.WriteHeader(status)
	err := json.NewEncoder(writer).Encode(body)
	if err != nil {
		log.Printf("server: writing response: %v", err)
	}
}

func writeError(writer http.ResponseWriter, status int, err error) {
	writeJSON(writer, status, ErrorJSON{Error: err.Error()})
}

// Maps errors from the schedule package to a status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, schedule.ErrRouteNotFound), errors.Is(err, schedule.ErrStopNotFound):
		return http.StatusNotFound
	case errors.Is(err, schedule.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, schedule.ErrNoTimetable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeErrorFor(writer http.ResponseWriter, err error) {
	writeError(writer, statusFor(err), err)
}
