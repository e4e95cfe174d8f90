package handler

import (
	"github.com/l1jgo/armory/internal/net"
	"github.com/l1jgo/armory/internal/net/packet"
	"go.uber.org/zap"
)

// HandleQuit closes the session. InputSystem.handleDisconnect does all cleanup.
func HandleQuit(sess *net.Session, _ *packet.Reader, deps *Deps) {
	deps.Log.Info("client quit", zap.Uint64("session", sess.ID), zap.String("actor", sess.Actor))
	sess.Close()
}
