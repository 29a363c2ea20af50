package world

import (
	"time"

	"tileworld.ai/internal/sim/world/terrain/store"
)

// AuditActionSetTile is the action recorded for an accepted tile edit.
const AuditActionSetTile = "SET_TILE"

type AuditLogger interface {
	WriteAudit(entry AuditEntry) error
}

// AuditEntry records one accepted tile edit. From and To are packed tiles.
type AuditEntry struct {
	Time   time.Time `json:"time"`
	World  string    `json:"world"`
	Actor  string    `json:"actor"`
	Action string    `json:"action"`
	Pos    [3]int    `json:"pos"`
	From   uint32    `json:"from"`
	To     uint32    `json:"to"`
	Reason string    `json:"reason,omitempty"`
}

func (w *World) SetAuditLogger(l AuditLogger) {
	w.auditMu.Lock()
	w.auditLogger = l
	w.auditMu.Unlock()
}

func (w *World) auditSetTile(actor string, pos store.Pos, from, to store.Tile, reason string) {
	w.auditMu.RLock()
	l := w.auditLogger
	w.auditMu.RUnlock()
	if l == nil {
		return
	}
	x, y, z := pos.XYZ()
	_ = l.WriteAudit(AuditEntry{
		Time:   w.now().UTC(),
		World:  w.cfg.ID,
		Actor:  actor,
		Action: AuditActionSetTile,
		Pos:    [3]int{int(x), int(y), int(z)},
		From:   from.Pack(),
		To:     to.Pack(),
		Reason: reason,
	})
}
