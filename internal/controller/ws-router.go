package controller

import (
	"github.com/sharetube/partyqueue/pkg/wsrouter"
)

func (c controller) getWSRouter() *wsrouter.WSRouter[*client] {
	mux := wsrouter.New[*client](c.validate)
	mux.Use(c.wsRequestIdWSMw(), c.loggerWSMw(), c.recovererWSMw())
	mux.SetErrorHandler(c.wsErrorHandler)

	// public
	wsrouter.Handle(mux, "join-room", c.handleJoinRoom)
	wsrouter.Handle(mux, "get-room-state", c.handleGetRoomState)

	// controller
	wsrouter.Handle(mux, "register-controller", c.handleRegisterController)
	wsrouter.Handle(mux, "auth-controller", c.handleAuthController)
	wsrouter.Handle(mux, "rename-controller", c.handleRenameController)
	wsrouter.Handle(mux, "update-controller-color", c.handleUpdateControllerColor)
	wsrouter.Handle(mux, "add-to-queue", c.handleAddToQueue)
	wsrouter.Handle(mux, "remove-from-queue", c.handleRemoveFromQueue)
	wsrouter.Handle(mux, "play-next", c.handlePlayNext)
	wsrouter.Handle(mux, "update-settings", c.handleUpdateSettings)

	// player
	wsrouter.Handle(mux, "join-room-admin", c.handleJoinRoomAdmin)
	wsrouter.Handle(mux, "player-play-next", c.handlePlayerPlayNext)
	wsrouter.Handle(mux, "playback-state", c.handlePlaybackState)
	wsrouter.Handle(mux, "admin-toggle-controller", c.handleAdminToggleController)
	wsrouter.Handle(mux, "admin-remove-controller", c.handleAdminRemoveController)
	wsrouter.Handle(mux, "admin-toggle-registration", c.handleAdminToggleRegistration)

	return mux
}
