package equipment

import "go.uber.org/zap"

// storageBridge binds the manager to its storage service exactly once.
type storageBridge struct {
	locate      StorageLocator
	storage     Storage
	unsubscribe func()
	attempted   bool
	log         *zap.Logger
}

// bind resolves the storage and subscribes onChange. It reports true only
// for the call that actually bound. A failed bind is final.
func (b *storageBridge) bind(onChange func()) bool {
	if b.attempted {
		return false
	}
	b.attempted = true

	var (
		s  Storage
		ok bool
	)
	if b.locate != nil {
		s, ok = b.locate()
	}
	if !ok || s == nil {
		b.log.Error("storage service not found, equipment stays inert")
		return false
	}
	b.storage = s
	b.unsubscribe = s.OnChange(onChange)
	b.log.Info("bridged to storage")
	return true
}

func (b *storageBridge) ready() bool { return b.storage != nil }

func (b *storageBridge) unbind() {
	if b.unsubscribe != nil {
		b.unsubscribe()
		b.unsubscribe = nil
	}
	b.storage = nil
}
