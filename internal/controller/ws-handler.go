package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sharetube/partyqueue/internal/domain"
	"github.com/sharetube/partyqueue/internal/repository/connection"
	"github.com/sharetube/partyqueue/internal/service/room"
	"github.com/sharetube/partyqueue/pkg/ctxlogger"
)

const (
	EventRoomState               = room.EventRoomState
	EventControllerRegistered    = "controller-registered"
	EventControllerAuthenticated = "controller-authenticated"
	EventControllerRenamed       = "controller-renamed"
	EventControllerColorUpdated  = "controller-color-updated"
	EventErrorMessage            = "error-message"
)

func (c controller) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}

	cl := newClient(c.generateTimeBasedId(), conn, c.sendQueueSize, c.logger)
	ctx := ctxlogger.AppendCtx(r.Context(), slog.String("conn_id", cl.Id()))
	c.logger.InfoContext(ctx, "websocket connected", "remote_addr", r.RemoteAddr)

	go cl.writePump()
	cl.readPump(ctx, c.wsRouter, c.maxMessageSize)

	c.roomService.Disconnect(ctx, cl)
	c.logger.InfoContext(ctx, "websocket disconnected")
}

func (c controller) writeToConn(ctx context.Context, conn *client, msgType string, payload any) {
	data, err := json.Marshal(&connection.Message{Type: msgType, Payload: payload})
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to marshal message", "type", msgType, "error", err)
		return
	}

	conn.Send(data)
}

type JoinRoomInput struct {
	RoomId string `json:"roomId" validate:"required"`
}

func (c controller) handleJoinRoom(ctx context.Context, conn *client, input JoinRoomInput) error {
	return c.roomService.JoinRoom(ctx, &room.JoinRoomParams{
		RoomId: input.RoomId,
		Conn:   conn,
	})
}

type GetRoomStateInput struct {
	RoomId string `json:"roomId" validate:"required"`
}

func (c controller) handleGetRoomState(ctx context.Context, conn *client, input GetRoomStateInput) error {
	view, err := c.roomService.GetRoomState(ctx, input.RoomId)
	if err != nil {
		return fmt.Errorf("failed to get room state: %w", err)
	}

	c.writeToConn(ctx, conn, EventRoomState, view)
	return nil
}

type JoinRoomAdminInput struct {
	RoomId    string `json:"roomId" validate:"required"`
	PlayerKey string `json:"playerKey" validate:"required"`
}

func (c controller) handleJoinRoomAdmin(ctx context.Context, conn *client, input JoinRoomAdminInput) error {
	return c.roomService.JoinRoomAdmin(ctx, &room.JoinRoomAdminParams{
		RoomId:    input.RoomId,
		PlayerKey: input.PlayerKey,
		Conn:      conn,
	})
}

type ControllerRegisteredOutput struct {
	ControllerKey string                `json:"controllerKey"`
	Controller    domain.ControllerView `json:"controller"`
}

type ControllerOutput struct {
	Controller domain.ControllerView `json:"controller"`
}

type RegisterControllerInput struct {
	RoomId    string `json:"roomId" validate:"required"`
	MasterKey string `json:"masterKey" validate:"required"`
	Username  string `json:"username"`
}

func (c controller) handleRegisterController(ctx context.Context, conn *client, input RegisterControllerInput) error {
	resp, err := c.roomService.RegisterController(ctx, &room.RegisterControllerParams{
		RoomId:    input.RoomId,
		MasterKey: input.MasterKey,
		Username:  input.Username,
		Conn:      conn,
	})
	if err != nil {
		return err
	}

	c.writeToConn(ctx, conn, EventControllerRegistered, ControllerRegisteredOutput{
		ControllerKey: resp.Controller.Key,
		Controller:    resp.Controller.View(),
	})
	return nil
}

type AuthControllerInput struct {
	RoomId        string `json:"roomId" validate:"required"`
	ControllerKey string `json:"controllerKey" validate:"required"`
}

func (c controller) handleAuthController(ctx context.Context, conn *client, input AuthControllerInput) error {
	resp, err := c.roomService.AuthController(ctx, &room.AuthControllerParams{
		RoomId:        input.RoomId,
		ControllerKey: input.ControllerKey,
		Conn:          conn,
	})
	if err != nil {
		return err
	}

	c.writeToConn(ctx, conn, EventControllerAuthenticated, ControllerOutput{Controller: resp.Controller.View()})
	return nil
}

type RenameControllerInput struct {
	RoomId        string `json:"roomId" validate:"required"`
	ControllerKey string `json:"controllerKey" validate:"required"`
	Username      string `json:"username"`
}

func (c controller) handleRenameController(ctx context.Context, conn *client, input RenameControllerInput) error {
	resp, err := c.roomService.RenameController(ctx, &room.RenameControllerParams{
		RoomId:        input.RoomId,
		ControllerKey: input.ControllerKey,
		Username:      input.Username,
	})
	if err != nil {
		return err
	}

	c.writeToConn(ctx, conn, EventControllerRenamed, ControllerOutput{Controller: resp.Controller.View()})
	return nil
}

type UpdateControllerColorInput struct {
	RoomId        string `json:"roomId" validate:"required"`
	ControllerKey string `json:"controllerKey" validate:"required"`
	Color         *int   `json:"color" validate:"required,gte=0,lte=359"`
}

func (c controller) handleUpdateControllerColor(ctx context.Context, conn *client, input UpdateControllerColorInput) error {
	resp, err := c.roomService.UpdateControllerColor(ctx, &room.UpdateControllerColorParams{
		RoomId:        input.RoomId,
		ControllerKey: input.ControllerKey,
		Color:         *input.Color,
	})
	if err != nil {
		return err
	}

	c.writeToConn(ctx, conn, EventControllerColorUpdated, ControllerOutput{Controller: resp.Controller.View()})
	return nil
}

type VideoInput struct {
	Id           string `json:"id" validate:"required,videoid"`
	Title        string `json:"title" validate:"required,title"`
	ChannelTitle string `json:"channelTitle" validate:"channeltitle"`
	IsPlaylist   bool   `json:"isPlaylist"`
}

type AddToQueueInput struct {
	RoomId        string     `json:"roomId" validate:"required"`
	ControllerKey string     `json:"controllerKey" validate:"required"`
	Video         VideoInput `json:"video" validate:"required"`
}

func (c controller) handleAddToQueue(ctx context.Context, _ *client, input AddToQueueInput) error {
	_, err := c.roomService.AddToQueue(ctx, &room.AddToQueueParams{
		RoomId:        input.RoomId,
		ControllerKey: input.ControllerKey,
		Video: domain.Video{
			Id:           input.Video.Id,
			Title:        input.Video.Title,
			ChannelTitle: input.Video.ChannelTitle,
			IsPlaylist:   input.Video.IsPlaylist,
		},
	})
	return err
}

type RemoveFromQueueInput struct {
	RoomId        string `json:"roomId" validate:"required"`
	ControllerKey string `json:"controllerKey" validate:"required"`
	Index         *int   `json:"index" validate:"required,gte=0"`
}

func (c controller) handleRemoveFromQueue(ctx context.Context, _ *client, input RemoveFromQueueInput) error {
	return c.roomService.RemoveFromQueue(ctx, &room.RemoveFromQueueParams{
		RoomId:        input.RoomId,
		ControllerKey: input.ControllerKey,
		Index:         *input.Index,
	})
}

type PlayNextInput struct {
	RoomId        string `json:"roomId" validate:"required"`
	ControllerKey string `json:"controllerKey" validate:"required"`
}

func (c controller) handlePlayNext(ctx context.Context, _ *client, input PlayNextInput) error {
	return c.roomService.PlayNext(ctx, &room.PlayNextParams{
		RoomId:        input.RoomId,
		ControllerKey: input.ControllerKey,
	})
}

type SettingsInput struct {
	RoundRobinEnabled bool `json:"roundRobinEnabled"`
}

type UpdateSettingsInput struct {
	RoomId        string        `json:"roomId" validate:"required"`
	ControllerKey string        `json:"controllerKey" validate:"required"`
	Settings      SettingsInput `json:"settings"`
}

func (c controller) handleUpdateSettings(ctx context.Context, _ *client, input UpdateSettingsInput) error {
	return c.roomService.UpdateSettings(ctx, &room.UpdateSettingsParams{
		RoomId:        input.RoomId,
		ControllerKey: input.ControllerKey,
		Settings:      domain.Settings{RoundRobinEnabled: input.Settings.RoundRobinEnabled},
	})
}

// Player reports come from a background loop on the display client. Their
// failures are logged and never answered.

type PlayerPlayNextInput struct {
	RoomId    string `json:"roomId"`
	PlayerKey string `json:"playerKey"`
}

func (c controller) handlePlayerPlayNext(ctx context.Context, _ *client, input PlayerPlayNextInput) error {
	if err := c.roomService.PlayerPlayNext(ctx, &room.PlayerPlayNextParams{
		RoomId:    input.RoomId,
		PlayerKey: input.PlayerKey,
	}); err != nil {
		c.logger.DebugContext(ctx, "player skip ignored", "room_id", input.RoomId, "error", err)
	}

	return nil
}

type PlaybackStateInput struct {
	RoomId    string   `json:"roomId"`
	PlayerKey string   `json:"playerKey"`
	State     string   `json:"state"`
	Position  float64  `json:"position"`
	Duration  *float64 `json:"duration"`
	VideoId   string   `json:"videoId"`
}

func (c controller) handlePlaybackState(ctx context.Context, _ *client, input PlaybackStateInput) error {
	if err := c.roomService.UpdatePlaybackState(ctx, &room.UpdatePlaybackStateParams{
		RoomId:    input.RoomId,
		PlayerKey: input.PlayerKey,
		Report: domain.PlaybackReport{
			State:    input.State,
			Position: input.Position,
			Duration: input.Duration,
			VideoId:  input.VideoId,
		},
	}); err != nil {
		c.logger.DebugContext(ctx, "playback report ignored", "room_id", input.RoomId, "error", err)
	}

	return nil
}

type AdminControllerInput struct {
	RoomId       string `json:"roomId" validate:"required"`
	PlayerKey    string `json:"playerKey" validate:"required"`
	ControllerId string `json:"controllerId" validate:"required"`
}

func (c controller) handleAdminToggleController(ctx context.Context, _ *client, input AdminControllerInput) error {
	return c.roomService.ToggleController(ctx, &room.ToggleControllerParams{
		RoomId:       input.RoomId,
		PlayerKey:    input.PlayerKey,
		ControllerId: input.ControllerId,
	})
}

func (c controller) handleAdminRemoveController(ctx context.Context, _ *client, input AdminControllerInput) error {
	return c.roomService.RemoveController(ctx, &room.RemoveControllerParams{
		RoomId:       input.RoomId,
		PlayerKey:    input.PlayerKey,
		ControllerId: input.ControllerId,
	})
}

type AdminToggleRegistrationInput struct {
	RoomId    string `json:"roomId" validate:"required"`
	PlayerKey string `json:"playerKey" validate:"required"`
}

func (c controller) handleAdminToggleRegistration(ctx context.Context, _ *client, input AdminToggleRegistrationInput) error {
	_, err := c.roomService.ToggleRegistration(ctx, &room.ToggleRegistrationParams{
		RoomId:    input.RoomId,
		PlayerKey: input.PlayerKey,
	})
	return err
}
