package handler

import (
	"context"
	"time"

	"github.com/l1jgo/armory/internal/ability"
	"github.com/l1jgo/armory/internal/net"
	"github.com/l1jgo/armory/internal/net/packet"
	"go.uber.org/zap"
)

const maxActorIDLen = 64

// HandleHello binds the session to an actor, spawning it from persisted
// storage when it is not yet in the world. A second hello for the same actor
// takes ownership and kicks the previous session.
func HandleHello(sess *net.Session, r *packet.Reader, deps *Deps) {
	var msg packet.Hello
	if err := r.Decode(&msg); err != nil || msg.Actor == "" || len(msg.Actor) > maxActorIDLen {
		deps.Log.Warn("hello rejected", zap.Uint64("session", sess.ID), zap.String("actor", msg.Actor))
		sendResult(sess, packet.C_Hello, packet.CodeBadRequest)
		return
	}

	actor, ok := deps.World.Get(msg.Actor)
	if !ok {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		stacks, err := deps.Store.LoadInventory(ctx, msg.Actor)
		if err != nil {
			deps.Log.Error("load inventory failed", zap.String("actor", msg.Actor), zap.Error(err))
			sendError(sess, packet.C_Hello, err)
			return
		}
		actor, err = deps.World.Spawn(msg.Actor, stacks)
		if err != nil {
			deps.Log.Error("spawn failed", zap.String("actor", msg.Actor), zap.Error(err))
			sendError(sess, packet.C_Hello, err)
			return
		}
	}

	if actor.Authority == nil || !actor.Authority.Active() {
		auth := ability.NewSystem(msg.Actor, deps.Effects, deps.Log)
		if err := deps.World.AttachAuthority(msg.Actor, auth); err != nil {
			sendError(sess, packet.C_Hello, err)
			return
		}
	}

	prev, err := deps.World.SetOwner(msg.Actor, sess.ID)
	if err != nil {
		sendError(sess, packet.C_Hello, err)
		return
	}
	if prev != 0 && prev != sess.ID {
		kickSession(prev, "actor claimed by another session", deps)
	}

	sess.Actor = msg.Actor
	sess.Mirrored = false
	sess.SetState(packet.StateBound)

	deps.Log.Info("session bound",
		zap.Uint64("session", sess.ID),
		zap.String("actor", msg.Actor),
		zap.String("ip", sess.IP),
	)
	sess.Send(packet.Encode(packet.Welcome{Type: packet.S_Welcome, Session: sess.ID, Actor: msg.Actor}))
}

func kickSession(id uint64, reason string, deps *Deps) {
	old := deps.Sessions.Get(id)
	if old == nil {
		return
	}
	deps.Log.Info("kicking session", zap.Uint64("session", id), zap.String("actor", old.Actor), zap.String("reason", reason))
	old.Actor = ""
	old.Send(packet.Encode(packet.Kicked{Type: packet.S_Kicked, Reason: reason}))
	old.FlushOutput()
	old.Close()
}
