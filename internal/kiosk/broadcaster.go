package kiosk

import (
	"encoding/base64"
	"encoding/json"
	"sync"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dj-oyu/face-attendance-kiosk/internal/logger"
)

// SerializedEvent holds one state event in both wire formats.
type SerializedEvent struct {
	JSONData     []byte
	ProtobufData []byte // base64 for SSE transport
}

func serializeState(st State) (*SerializedEvent, error) {
	jsonData, err := json.Marshal(st)
	if err != nil {
		return nil, err
	}

	pbState, err := structpb.NewStruct(st.asMap())
	if err != nil {
		return nil, err
	}
	pbData, err := proto.Marshal(pbState)
	if err != nil {
		return nil, err
	}

	return &SerializedEvent{
		JSONData:     jsonData,
		ProtobufData: []byte(base64.StdEncoding.EncodeToString(pbData)),
	}, nil
}

// StateBroadcaster fans state changes out to SSE clients. Each change is
// serialized once, whatever the number of clients.
type StateBroadcaster struct {
	mu      sync.Mutex
	clients map[int]chan *SerializedEvent
	nextID  int
	stop    chan struct{}
	started bool
	stopped bool

	state   func() State
	changes <-chan struct{}
}

// NewStateBroadcaster creates a broadcaster that reads state on every
// notification received from changes.
func NewStateBroadcaster(state func() State, changes <-chan struct{}) *StateBroadcaster {
	return &StateBroadcaster{
		clients: make(map[int]chan *SerializedEvent),
		stop:    make(chan struct{}),
		state:   state,
		changes: changes,
	}
}

// Subscribe adds a new client and returns a channel for receiving state events.
func (b *StateBroadcaster) Subscribe() (int, <-chan *SerializedEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan *SerializedEvent, 2)
	if b.stopped {
		close(ch)
		return id, ch
	}
	b.clients[id] = ch

	logger.Debug("StateBroadcaster", "Client #%d subscribed (total clients: %d)", id, len(b.clients))
	return id, ch
}

// Unsubscribe removes a client.
func (b *StateBroadcaster) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.clients[id]; ok {
		close(ch)
		delete(b.clients, id)
		logger.Debug("StateBroadcaster", "Client #%d unsubscribed (remaining clients: %d)", id, len(b.clients))
	}
}

// Start begins the event loop. Only the first call on a running broadcaster
// starts it; later calls report false.
func (b *StateBroadcaster) Start() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started || b.stopped {
		return false
	}
	b.started = true
	go b.run()
	return true
}

// Stop halts the broadcaster and disconnects every client.
func (b *StateBroadcaster) Stop() {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return
	}
	close(b.stop)
	b.stopped = true
	for id, ch := range b.clients {
		close(ch)
		delete(b.clients, id)
	}
	b.mu.Unlock()
}

// Current serializes the state as it is now.
func (b *StateBroadcaster) Current() (*SerializedEvent, error) {
	return serializeState(b.state())
}

func (b *StateBroadcaster) run() {
	for {
		select {
		case <-b.stop:
			return
		case _, ok := <-b.changes:
			if !ok {
				return
			}
			event, err := b.Current()
			if err != nil {
				logger.Error("StateBroadcaster", "State serialization error: %v", err)
				continue
			}
			b.broadcast(event)
		}
	}
}

func (b *StateBroadcaster) broadcast(event *SerializedEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.clients {
		select {
		case ch <- event:
		default:
			// Client too slow, it will catch up on the next change.
		}
	}
}
