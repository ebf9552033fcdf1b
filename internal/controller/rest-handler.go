package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sharetube/partyqueue/internal/service/room"
	"github.com/sharetube/partyqueue/pkg/qrcode"
	"github.com/sharetube/partyqueue/pkg/rest"
)

func (c controller) writeError(w http.ResponseWriter, r *http.Request, err error) {
	msg, status := toErrorMessage(err)
	if status >= http.StatusInternalServerError {
		c.logger.ErrorContext(r.Context(), "request failed", "error", err)
	} else {
		c.logger.InfoContext(r.Context(), "request rejected", "error", err, "error_type", msg.Type)
	}

	rest.WriteJSON(w, status, rest.Envelope{"error": msg})
}

func (c controller) healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

type CreateRoomOutput struct {
	RoomId           string `json:"roomId"`
	PlayerKey        string `json:"playerKey"`
	ControlMasterKey string `json:"controlMasterKey"`
	QrCode           string `json:"qrCode"`
}

func (c controller) createRoom(w http.ResponseWriter, r *http.Request) {
	resp, err := c.roomService.CreateRoom(r.Context())
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	qr, err := qrcode.DataURL(qrcode.ControlURL(c.frontendOrigin, resp.RoomId, resp.ControlMasterKey), 0)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to render qr code", "room_id", resp.RoomId, "error", err)
	}

	rest.WriteJSON(w, http.StatusCreated, CreateRoomOutput{
		RoomId:           resp.RoomId,
		PlayerKey:        resp.PlayerKey,
		ControlMasterKey: resp.ControlMasterKey,
		QrCode:           qr,
	})
}

func (c controller) getRoom(w http.ResponseWriter, r *http.Request) {
	view, err := c.roomService.GetRoomState(r.Context(), chi.URLParam(r, "room-id"))
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, view)
}

func (c controller) getRoomQr(w http.ResponseWriter, r *http.Request) {
	playerKey := c.bearerToken(r)
	if playerKey == "" {
		c.writeError(w, r, errMissingAuth)
		return
	}

	roomId := chi.URLParam(r, "room-id")
	resp, err := c.roomService.AuthorizePlayer(r.Context(), &room.AuthorizePlayerParams{
		RoomId:    roomId,
		PlayerKey: playerKey,
	})
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	png, err := qrcode.PNG(qrcode.ControlURL(c.frontendOrigin, roomId, resp.ControlMasterKey), 0)
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

type searchQuery struct {
	Query     string `json:"q" validate:"required,query"`
	PageToken string `json:"pageToken"`
}

func (c controller) search(w http.ResponseWriter, r *http.Request) {
	token := c.bearerToken(r)
	if token == "" {
		c.writeError(w, r, errMissingAuth)
		return
	}

	if err := c.roomService.AuthorizeSearch(r.Context(), token); err != nil {
		c.writeError(w, r, err)
		return
	}

	query := searchQuery{
		Query:     r.URL.Query().Get("q"),
		PageToken: r.URL.Query().Get("pageToken"),
	}
	if validationErrors, ok := c.validate.Validate(query); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	page, err := c.searcher.Search(r.Context(), query.Query, query.PageToken)
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, page)
}
