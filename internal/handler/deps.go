package handler

import (
	"wirechat/internal/app/chat"
	"wirechat/internal/configs"
	"wirechat/internal/store"
)

// AppDeps bundles the shared dependencies injected into every handler.
type AppDeps struct {
	Hub    *chat.Hub
	Config *configs.AppConfig
	Store  *store.Store
}
