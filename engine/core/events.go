package core

import (
	"reflect"

	"github.com/spaghettifunk/lumen/engine/containers"
)

type EventContext struct {
	Data struct {
		I64 [2]int64
		U64 [2]uint64
		F64 [2]float64

		I32 [4]int32
		U32 [4]uint32
		F32 [4]float32
	}
}

// System internal event codes. Application should use codes beyond 255.
type SystemEventCode int

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT SystemEventCode = 0x01

	// Resized/resolution changed from the OS.
	/* Context usage:
	 * u32 width = data.Data.U32[0];
	 * u32 height = data.Data.U32[1];
	 */
	EVENT_CODE_RESIZED SystemEventCode = 0x08

	// An asset on disk changed and was reloaded. The sender is the reload
	// result.
	/* Context usage:
	 * u32 asset kind = data.Data.U32[0];
	 */
	EVENT_CODE_ASSET_RELOADED SystemEventCode = 0x09

	MAX_EVENT_CODE SystemEventCode = 0xFF
)

// This should be more than enough codes...
const MAX_MESSAGE_CODES = 16384

// Should return true if handled.
type FnOnEvent func(code SystemEventCode, sender interface{}, listenerInst interface{}, data EventContext) bool

type registeredEvent struct {
	listener interface{}
	callback FnOnEvent
}

type queuedEvent struct {
	code    SystemEventCode
	sender  interface{}
	context EventContext
}

// EventBus dispatches events by code. Fire delivers immediately; Post queues the
// event until the next Dispatch so window callbacks never re-enter the renderer.
type EventBus struct {
	registered map[SystemEventCode][]*registeredEvent
	pending    *containers.RingQueue[queuedEvent]
}

func NewEventBus(queueSize int) *EventBus {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &EventBus{
		registered: make(map[SystemEventCode][]*registeredEvent),
		pending:    containers.NewRingQueue[queuedEvent](queueSize),
	}
}

func (eb *EventBus) Shutdown() error {
	// Free the events arrays. And objects pointed to should be destroyed on their own.
	for code := range eb.registered {
		delete(eb.registered, code)
	}
	for !eb.pending.IsEmpty() {
		_, _ = eb.pending.Dequeue()
	}
	return nil
}

/**
 * Register to listen for when events are sent with the provided code. Events with duplicate
 * listener/callback combos will not be registered again and will cause this to return FALSE.
 * @param code The event code to listen for.
 * @param listener A pointer to a listener instance. Can be nil.
 * @param onEvent The callback function to be invoked when the event code is fired.
 * @returns TRUE if the event is successfully registered; otherwise false.
 */
func (eb *EventBus) Register(code SystemEventCode, listener interface{}, onEvent FnOnEvent) bool {
	if code < 0 || code >= MAX_MESSAGE_CODES || onEvent == nil {
		return false
	}
	for _, e := range eb.registered[code] {
		if e.listener == listener && sameCallback(e.callback, onEvent) {
			LogWarn("event code %d already has this listener registered", code)
			return false
		}
	}
	eb.registered[code] = append(eb.registered[code], &registeredEvent{
		listener: listener,
		callback: onEvent,
	})
	return true
}

/**
 * Unregister from listening for when events are sent with the provided code. If no matching
 * registration is found, this function returns FALSE.
 */
func (eb *EventBus) Unregister(code SystemEventCode, listener interface{}, onEvent FnOnEvent) bool {
	events := eb.registered[code]
	for i, e := range events {
		if e.listener == listener && sameCallback(e.callback, onEvent) {
			eb.registered[code] = append(events[:i], events[i+1:]...)
			return true
		}
	}
	// Not found.
	return false
}

/**
 * Fires an event to listeners of the given code. If an event handler returns
 * TRUE, the event is considered handled and is not passed on to any more listeners.
 * @returns TRUE if handled, otherwise FALSE.
 */
func (eb *EventBus) Fire(code SystemEventCode, sender interface{}, context EventContext) bool {
	for _, e := range eb.registered[code] {
		if e.callback(code, sender, e.listener, context) {
			// Message has been handled, do not send to other listeners.
			return true
		}
	}
	return false
}

// Post queues an event for the next Dispatch. A full queue drops the event.
func (eb *EventBus) Post(code SystemEventCode, sender interface{}, context EventContext) error {
	if err := eb.pending.Enqueue(queuedEvent{code: code, sender: sender, context: context}); err != nil {
		LogWarn("event queue full, dropping event code %d", code)
		return err
	}
	return nil
}

// Dispatch fires every queued event in posting order and returns how many were delivered.
func (eb *EventBus) Dispatch() int {
	n := 0
	for !eb.pending.IsEmpty() {
		ev, err := eb.pending.Dequeue()
		if err != nil {
			break
		}
		eb.Fire(ev.code, ev.sender, ev.context)
		n++
	}
	return n
}

// ResizeContext packs a width/height pair for EVENT_CODE_RESIZED.
func ResizeContext(width, height uint32) EventContext {
	ctx := EventContext{}
	ctx.Data.U32[0] = width
	ctx.Data.U32[1] = height
	return ctx
}

func sameCallback(a, b FnOnEvent) bool {
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}
