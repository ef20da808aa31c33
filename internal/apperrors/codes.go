// Package apperrors provides the error taxonomy shared by the game engine,
// the stores and the HTTP controllers.
package apperrors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	CodeInvalidInput         Code = "INVALID_INPUT"
	CodeGameNotFound         Code = "GAME_NOT_FOUND"
	CodeAlbumNotFound        Code = "ALBUM_NOT_FOUND"
	CodeMaxGuessesReached    Code = "MAX_GUESSES_REACHED"
	CodeGameAlreadyCompleted Code = "GAME_ALREADY_COMPLETED"
	CodeProviderUnavailable  Code = "PROVIDER_UNAVAILABLE"
	CodeInternal             Code = "INTERNAL"
)

// HTTPStatus maps the code to the status the API responds with.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeGameNotFound, CodeAlbumNotFound:
		return http.StatusNotFound
	case CodeMaxGuessesReached, CodeGameAlreadyCompleted:
		return http.StatusConflict
	case CodeProviderUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
