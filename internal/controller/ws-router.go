package controller

import (
	"github.com/sharetube/listenroom/pkg/wsrouter"
)

func (c controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()
	mux.Use(c.wsRequestIdWSMw(), c.loggerWSMw())
	mux.OnError(c.reportError)

	wsrouter.AddRoute(mux, "ALIVE", c.handleAlive)

	// host rotation
	wsrouter.AddRoute(mux, "TOGGLE_HOST_QUEUE", c.handleToggleHostQueue)
	wsrouter.AddRoute(mux, "NEXT_MEDIA", c.handleNextMedia)

	// votes
	wsrouter.AddRoute(mux, "TOGGLE_SKIP", c.handleToggleSkip)
	wsrouter.AddRoute(mux, "TOGGLE_LIKE", c.handleToggleLike)

	// chat
	wsrouter.AddRoute(mux, "SEND_CHAT_MESSAGE", c.handleSendChatMessage)

	// media
	wsrouter.AddRoute(mux, "SEARCH_MEDIA", c.handleSearchMedia)

	// profile
	wsrouter.AddRoute(mux, "UPDATE_PROFILE", c.handleUpdateProfile)

	return mux
}
