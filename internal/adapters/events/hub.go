package events

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/zatekoja/notefhir/internal/domain/entities"
)

const subscriberBuffer = 100

// hub fans events out to local subscriber channels. Slow subscribers drop events rather than
// block the publisher.
type hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan *entities.ResourceEvent]struct{}
	logger      *zerolog.Logger
}

func newHub(logger *zerolog.Logger) *hub {
	return &hub{
		subscribers: make(map[string]map[chan *entities.ResourceEvent]struct{}),
		logger:      logger,
	}
}

// add registers a subscriber and reports whether it is the first on the channel.
func (h *hub) add(channel string) (chan *entities.ResourceEvent, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	first := len(h.subscribers[channel]) == 0
	if h.subscribers[channel] == nil {
		h.subscribers[channel] = make(map[chan *entities.ResourceEvent]struct{})
	}
	ch := make(chan *entities.ResourceEvent, subscriberBuffer)
	h.subscribers[channel][ch] = struct{}{}
	return ch, first
}

// remove closes a subscriber and reports whether the channel has none left.
func (h *hub) remove(channel string, ch chan *entities.ResourceEvent) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.subscribers[channel]
	if !ok {
		return false
	}
	if _, ok := subs[ch]; !ok {
		return false
	}
	delete(subs, ch)
	close(ch)
	if len(subs) == 0 {
		delete(h.subscribers, channel)
		return true
	}
	return false
}

func (h *hub) broadcast(channel string, event *entities.ResourceEvent) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for sub := range h.subscribers[channel] {
		select {
		case sub <- event:
			delivered++
		default:
			h.logger.Warn().Str("channel", channel).Str("event_id", event.ID).Msg("subscriber channel full, skipping event")
		}
	}
	return delivered
}

func (h *hub) closeChannel(channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subscribers[channel] {
		close(sub)
	}
	delete(h.subscribers, channel)
}

func (h *hub) channels() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]string, 0, len(h.subscribers))
	for c := range h.subscribers {
		out = append(out, c)
	}
	return out
}

func (h *hub) count(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[channel])
}
