package contract

import "github.com/bitfold/bsv/pkg/script"

// Raw is the passthrough template: pre-built locking and unlocking scripts
// used as-is. It exists so hand-assembled scripts run through the same
// simulation driver as the structured templates.
type Raw struct {
	LockScript   script.Script
	UnlockScript script.Script
}

// NewRaw returns a passthrough template over pre-built scripts.
func NewRaw(lock, unlock script.Script) *Raw {
	return &Raw{LockScript: lock, UnlockScript: unlock}
}

// Lock returns the pre-built locking script.
func (t *Raw) Lock() (script.Script, error) {
	if t.LockScript == nil {
		return nil, paramErrorf("raw", "LockScript", "required")
	}
	return t.LockScript, nil
}

// Unlock returns the pre-built unlocking script.
func (t *Raw) Unlock(ctx *Context) (script.Script, error) {
	if t.UnlockScript == nil {
		return nil, paramErrorf("raw", "UnlockScript", "required")
	}
	return t.UnlockScript, nil
}
