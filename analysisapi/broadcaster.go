package analysisapi

import "sync"

// EventType names the kind of event a WebSocket subscriber receives.
// **G** teacher's api/broadcaster.go EventType, the VM's "state" and
// "event" kinds replaced by a diagnostics refresh and a debugger
// stop/output notification.
type EventType string

const (
	// EventDiagnostics fires whenever a session's diagnostic set changes.
	EventDiagnostics EventType = "diagnostics"
	// EventStopped fires when a debug session pauses at a breakpoint,
	// watchpoint, or step boundary.
	EventStopped EventType = "stopped"
	// EventOutput carries text a session produces while running, sent
	// through BroadcastOutput; nothing in this module calls it.
	EventOutput EventType = "output"
)

// BroadcastEvent is one message sent to subscribed WebSocket clients.
type BroadcastEvent struct {
	Type      EventType      `json:"type"`
	SessionID string         `json:"sessionId"`
	Data      map[string]any `json:"data"`
}

// Subscription is one client's filtered view of the broadcast stream.
type Subscription struct {
	SessionID  string
	EventTypes map[EventType]bool
	Channel    chan BroadcastEvent
}

// Broadcaster fans out session events to every subscribed WebSocket
// client. **G** teacher's api/broadcaster.go: the same
// register/unregister/broadcast channel loop, unchanged in shape since
// the fan-out problem is identical regardless of what the events mean.
type Broadcaster struct {
	mu            sync.RWMutex
	subscriptions map[*Subscription]bool
	broadcast     chan BroadcastEvent
	register      chan *Subscription
	unregister    chan *Subscription
	done          chan struct{}
}

// NewBroadcaster creates and starts a new event broadcaster.
func NewBroadcaster() *Broadcaster {
	b := &Broadcaster{
		subscriptions: make(map[*Subscription]bool),
		broadcast:     make(chan BroadcastEvent, 256),
		register:      make(chan *Subscription),
		unregister:    make(chan *Subscription),
		done:          make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Broadcaster) run() {
	for {
		select {
		case sub := <-b.register:
			b.mu.Lock()
			b.subscriptions[sub] = true
			b.mu.Unlock()

		case sub := <-b.unregister:
			b.mu.Lock()
			if b.subscriptions[sub] {
				delete(b.subscriptions, sub)
				close(sub.Channel)
			}
			b.mu.Unlock()

		case event := <-b.broadcast:
			b.mu.RLock()
			for sub := range b.subscriptions {
				if sub.SessionID != "" && sub.SessionID != event.SessionID {
					continue
				}
				if len(sub.EventTypes) > 0 && !sub.EventTypes[event.Type] {
					continue
				}
				select {
				case sub.Channel <- event:
				default:
				}
			}
			b.mu.RUnlock()

		case <-b.done:
			b.mu.Lock()
			for sub := range b.subscriptions {
				close(sub.Channel)
			}
			b.subscriptions = make(map[*Subscription]bool)
			b.mu.Unlock()
			return
		}
	}
}

// Subscribe registers a new subscription, optionally filtered to one
// session ID and/or a set of event types.
func (b *Broadcaster) Subscribe(sessionID string, eventTypes []EventType) *Subscription {
	typeSet := make(map[EventType]bool)
	for _, et := range eventTypes {
		typeSet[et] = true
	}
	sub := &Subscription{SessionID: sessionID, EventTypes: typeSet, Channel: make(chan BroadcastEvent, 64)}
	b.register <- sub
	return sub
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broadcaster) Unsubscribe(sub *Subscription) { b.unregister <- sub }

// Broadcast sends an event to all matching subscriptions, dropping it
// if the broadcaster's internal queue is full rather than blocking the
// caller (a debugger step or analysis run).
func (b *Broadcaster) Broadcast(event BroadcastEvent) {
	select {
	case b.broadcast <- event:
	default:
	}
}

// BroadcastDiagnostics notifies subscribers that a session's
// diagnostics changed.
func (b *Broadcaster) BroadcastDiagnostics(sessionID string, count int) {
	b.Broadcast(BroadcastEvent{Type: EventDiagnostics, SessionID: sessionID, Data: map[string]any{"count": count}})
}

// BroadcastStopped notifies subscribers that a debug session paused.
func (b *Broadcaster) BroadcastStopped(sessionID string, reason string) {
	b.Broadcast(BroadcastEvent{Type: EventStopped, SessionID: sessionID, Data: map[string]any{"reason": reason}})
}

// BroadcastOutput notifies subscribers of a line of session output.
func (b *Broadcaster) BroadcastOutput(sessionID string, line string) {
	b.Broadcast(BroadcastEvent{Type: EventOutput, SessionID: sessionID, Data: map[string]any{"line": line}})
}

// Close shuts down the broadcaster and closes every subscription.
func (b *Broadcaster) Close() { close(b.done) }

// SubscriptionCount returns the number of active subscriptions.
func (b *Broadcaster) SubscriptionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscriptions)
}
