package sse

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	redisclient "github.com/mentormatch/mentor-match-go/internal/redis"
)

const (
	HeartbeatInterval = 30 * time.Second
	clientBufferSize  = 32
)

type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type Client struct {
	ProfileID string
	Events    chan Event
	Done      chan struct{}
}

// Broker fans session events out to the SSE connections of a profile. Events
// travel through Redis pubsub so every server instance sees them.
type Broker struct {
	redis   *redisclient.Client
	clients map[string]map[*Client]bool // profileID -> set of clients
	subs    map[string]context.CancelFunc
	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewBroker(redisClient *redisclient.Client) *Broker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Broker{
		redis:   redisClient,
		clients: make(map[string]map[*Client]bool),
		subs:    make(map[string]context.CancelFunc),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (b *Broker) Subscribe(profileID string) *Client {
	client := &Client{
		ProfileID: profileID,
		Events:    make(chan Event, clientBufferSize),
		Done:      make(chan struct{}),
	}

	b.mu.Lock()
	if b.clients[profileID] == nil {
		b.clients[profileID] = make(map[*Client]bool)
		subCtx, cancel := context.WithCancel(b.ctx)
		b.subs[profileID] = cancel
		go b.subscribeToRedis(subCtx, profileID)
	}
	b.clients[profileID][client] = true
	clientCount := len(b.clients[profileID])
	b.mu.Unlock()

	log.Info().
		Str("profileId", profileID).
		Int("clientCount", clientCount).
		Msg("sse client subscribed")

	return client
}

func (b *Broker) Unsubscribe(client *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if clients, ok := b.clients[client.ProfileID]; ok {
		if _, ok := clients[client]; !ok {
			return
		}
		delete(clients, client)
		close(client.Done)

		if len(clients) == 0 {
			delete(b.clients, client.ProfileID)
			if cancel, ok := b.subs[client.ProfileID]; ok {
				cancel()
				delete(b.subs, client.ProfileID)
			}
		}

		log.Info().
			Str("profileId", client.ProfileID).
			Int("clientCount", len(clients)).
			Msg("sse client unsubscribed")
	}
}

// Publish sends an event to every connection of profileID on any instance.
func (b *Broker) Publish(ctx context.Context, profileID string, eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	msg, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		return err
	}

	return b.redis.Publish(ctx, redisclient.ProfileEventChannel(profileID), msg).Err()
}

func (b *Broker) subscribeToRedis(ctx context.Context, profileID string) {
	channel := redisclient.ProfileEventChannel(profileID)
	pubsub := b.redis.Subscribe(ctx, channel)
	defer pubsub.Close()

	log.Debug().
		Str("profileId", profileID).
		Str("channel", channel).
		Msg("redis pubsub subscribed")

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Error().Err(err).Msg("failed to unmarshal event")
				continue
			}

			b.broadcast(profileID, event)
		}
	}
}

func (b *Broker) broadcast(profileID string, event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for client := range b.clients[profileID] {
		select {
		case client.Events <- event:
		default:
			log.Warn().
				Str("profileId", profileID).
				Str("eventType", event.Type).
				Msg("client event buffer full, dropping event")
		}
	}
}

func (b *Broker) Close() {
	b.cancel()

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, clients := range b.clients {
		for client := range clients {
			close(client.Done)
		}
	}
	b.clients = make(map[string]map[*Client]bool)
	b.subs = make(map[string]context.CancelFunc)
}

func (b *Broker) ClientCount(profileID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients[profileID])
}

func (b *Broker) TotalClients() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	total := 0
	for _, clients := range b.clients {
		total += len(clients)
	}
	return total
}
