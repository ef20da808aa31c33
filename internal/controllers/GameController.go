package controllers

import (
	"errors"
	"io"
	"net/http"

	json "github.com/goccy/go-json"

	"musicwordle/internal/apperrors"
	"musicwordle/internal/models"
	"musicwordle/internal/providers"
	"musicwordle/internal/services"
)

const maxRequestBodySize = 1 << 20 // 1 MB

type GameController struct {
	logger  providers.Logger
	service services.GameServiceInterface
}

func NewGameController(logger providers.Logger, service services.GameServiceInterface) *GameController {
	return &GameController{
		logger:  logger,
		service: service,
	}
}

type newGameRequest struct {
	Genre string `json:"genre"`
}

type searchRequest struct {
	Query *string `json:"query"`
}

type searchResponse struct {
	Albums []models.Album `json:"albums"`
}

type guessRequest struct {
	GameID    string        `json:"game_id"`
	AlbumID   string        `json:"album_id"`
	GuessText string        `json:"guess_text"`
	Album     *models.Album `json:"album"`
}

type errorResponse struct {
	Error string         `json:"error"`
	Code  apperrors.Code `json:"code"`
}

func (gc *GameController) NewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameRequest
	if err := decodeBody(w, r, &req, true); err != nil {
		gc.writeError(w, r, err)
		return
	}
	res, err := gc.service.NewGame(r.Context(), req.Genre)
	if err != nil {
		gc.writeError(w, r, err)
		return
	}
	gc.writeJSON(w, http.StatusOK, res)
}

func (gc *GameController) SearchAlbums(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		gc.writeError(w, r, err)
		return
	}
	if req.Query == nil {
		gc.writeError(w, r, apperrors.Wrap(apperrors.CodeInvalidInput, "query is required", nil))
		return
	}
	albums := gc.service.SearchAlbums(r.Context(), *req.Query)
	gc.writeJSON(w, http.StatusOK, searchResponse{Albums: albums})
}

func (gc *GameController) Guess(w http.ResponseWriter, r *http.Request) {
	var req guessRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		gc.writeError(w, r, err)
		return
	}
	res, err := gc.service.Guess(r.Context(), services.GuessInput{
		GameID:    req.GameID,
		AlbumID:   req.AlbumID,
		Album:     req.Album,
		GuessText: req.GuessText,
	})
	if err != nil {
		gc.writeError(w, r, err)
		return
	}
	gc.writeJSON(w, http.StatusOK, res)
}

func (gc *GameController) GameStatus(w http.ResponseWriter, r *http.Request) {
	st, err := gc.service.Status(r.Context(), r.URL.Query().Get("game_id"))
	if err != nil {
		gc.writeError(w, r, err)
		return
	}
	gc.writeJSON(w, http.StatusOK, st)
}

// decodeBody reads a JSON object from the request. An empty body is only
// accepted when allowEmpty is set.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	err := json.NewDecoder(r.Body).Decode(dst)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF) && allowEmpty:
		return nil
	case errors.Is(err, io.EOF):
		return apperrors.Wrap(apperrors.CodeInvalidInput, "request body is required", nil)
	default:
		return apperrors.Wrap(apperrors.CodeInvalidInput, "malformed JSON body", err)
	}
}

func (gc *GameController) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperrors.CodeOf(err)
	if code == apperrors.CodeInternal {
		gc.logger.Errorf(providers.GetLogTypeByRequestType(r.Method), "%s %s: %s", r.Method, r.URL.Path, err)
	} else {
		gc.logger.Debugf(providers.GetLogTypeByRequestType(r.Method), "%s %s rejected: %s", r.Method, r.URL.Path, err)
	}
	gc.writeJSON(w, code.HTTPStatus(), errorResponse{
		Error: apperrors.PublicMessage(err),
		Code:  code,
	})
}

func (gc *GameController) writeJSON(w http.ResponseWriter, status int, body any) {
	gson, err := json.Marshal(body)
	if err != nil {
		gc.logger.Errorf(providers.TypeApp, "encode response: %s", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}
