// Package event carries the per-tick trigger buffer and the outward-facing
// streams (animation events, combat log, scheduled transitions) consumed by
// the presentation layer and the flow controller.
package event

import (
	"fmt"

	"github.com/gbrowdy/dungeon-delver-sub005/internal/data"
	"github.com/gbrowdy/dungeon-delver-sub005/internal/entity"
)

// TriggerEvent is one combat event recorded during a tick for the
// trigger/effect processor. Actor is the entity whose abilities are
// consulted; Damage/Crit/PowerID carry the triggering context.
type TriggerEvent struct {
	Trigger data.Trigger
	Actor   entity.ID
	Damage  int32
	Crit    bool
	PowerID string
}

// Buffer is the per-tick trigger event queue. It is owned by the scheduler,
// passed by reference into systems, and cleared deterministically at tick
// end — events recorded while the processor is draining do not cascade
// within the same tick.
type Buffer struct {
	events []TriggerEvent
}

// Record appends an event.
func (b *Buffer) Record(ev TriggerEvent) {
	b.events = append(b.events, ev)
}

// Drain returns the recorded events and empties the buffer.
func (b *Buffer) Drain() []TriggerEvent {
	out := b.events
	b.events = nil
	return out
}

// Clear drops all pending events without processing them.
func (b *Buffer) Clear() {
	b.events = nil
}

// Len returns the number of pending events.
func (b *Buffer) Len() int { return len(b.events) }

// AnimationType classifies animation events for the presentation layer.
type AnimationType string

const (
	AnimAttack        AnimationType = "attack"
	AnimDodge         AnimationType = "dodge"
	AnimHeal          AnimationType = "heal"
	AnimShieldBroken  AnimationType = "shield_broken"
	AnimDeath         AnimationType = "death"
	AnimStatusApplied AnimationType = "status_applied"
	AnimEnemyAbility  AnimationType = "enemy_ability"
	AnimItemProc      AnimationType = "item_proc"
	AnimPowerUse      AnimationType = "power_use"
	AnimStanceSwitch  AnimationType = "stance_switch"
)

// AnimationPayload carries the numeric outcome of the event. Only the
// fields relevant to the type are set.
type AnimationPayload struct {
	Target  entity.ID
	Damage  int32
	Amount  int32
	Crit    bool
	Blocked bool
	Status  string
	Power   string
	Ability string
	Item    string
}

// AnimationEvent is one append-only record in the animation stream.
type AnimationEvent struct {
	ID               uint64
	Type             AnimationType
	Payload          AnimationPayload
	CreatedAtTick    uint64
	DisplayUntilTick uint64
	Consumed         bool
}

// AnimationStream is the append-only animation event queue.
type AnimationStream struct {
	nextID uint64
	events []AnimationEvent
}

// Push appends an event and returns its id.
func (s *AnimationStream) Push(t AnimationType, p AnimationPayload, tick, displayTicks uint64) uint64 {
	s.nextID++
	s.events = append(s.events, AnimationEvent{
		ID:               s.nextID,
		Type:             t,
		Payload:          p,
		CreatedAtTick:    tick,
		DisplayUntilTick: tick + displayTicks,
	})
	return s.nextID
}

// Pending returns the unconsumed events still within their display window.
func (s *AnimationStream) Pending(tick uint64) []AnimationEvent {
	var out []AnimationEvent
	for i := range s.events {
		e := &s.events[i]
		if !e.Consumed && e.DisplayUntilTick >= tick {
			out = append(out, *e)
		}
	}
	return out
}

// Consume marks an event consumed. Unknown ids are ignored.
func (s *AnimationStream) Consume(id uint64) {
	for i := range s.events {
		if s.events[i].ID == id {
			s.events[i].Consumed = true
			return
		}
	}
}

// Len returns the total number of events ever pushed.
func (s *AnimationStream) Len() int { return len(s.events) }

// All returns the full stream, consumed events included.
func (s *AnimationStream) All() []AnimationEvent { return s.events }

// CombatLog is the append-only list of human-readable combat lines.
type CombatLog struct {
	lines []string
}

// Appendf formats and appends one line.
func (l *CombatLog) Appendf(format string, args ...any) {
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

// Lines returns all lines in order.
func (l *CombatLog) Lines() []string { return l.lines }

// Len returns the number of lines.
func (l *CombatLog) Len() int { return len(l.lines) }

// Phase names the screens the external flow controller moves between.
type Phase string

const (
	PhaseCombat        Phase = "combat"
	PhaseShop          Phase = "shop"
	PhaseFloorComplete Phase = "floor_complete"
	PhaseDefeat        Phase = "defeat"
)

// Transition is a scheduled phase change for the flow controller.
type Transition struct {
	ToPhase Phase
	DelayMs int32
}

// SpawnRequest asks the flow controller to spawn the next encounter.
type SpawnRequest struct {
	DelayMs int32
}

// Outbox collects scheduled transitions and spawn requests. The flow
// controller drains it; the core never acts on them itself.
type Outbox struct {
	transitions []Transition
	spawns      []SpawnRequest
}

// ScheduleTransition appends a phase transition.
func (o *Outbox) ScheduleTransition(to Phase, delayMs int32) {
	o.transitions = append(o.transitions, Transition{ToPhase: to, DelayMs: delayMs})
}

// ScheduleSpawn appends a spawn request.
func (o *Outbox) ScheduleSpawn(delayMs int32) {
	o.spawns = append(o.spawns, SpawnRequest{DelayMs: delayMs})
}

// DrainTransitions returns and clears the pending transitions.
func (o *Outbox) DrainTransitions() []Transition {
	out := o.transitions
	o.transitions = nil
	return out
}

// DrainSpawns returns and clears the pending spawn requests.
func (o *Outbox) DrainSpawns() []SpawnRequest {
	out := o.spawns
	o.spawns = nil
	return out
}
