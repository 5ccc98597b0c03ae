package eventpubsub

import (
	"github.com/asaskevich/EventBus"
	log "github.com/sirupsen/logrus"
)

// PubSub wraps an EventBus instance so observers (CLI output, exporters) can
// watch a running simulation. Each engine owns at most one bus; there is no
// process-wide instance.
type PubSub struct {
	bus EventBus.Bus
}

func New() *PubSub {
	return &PubSub{bus: EventBus.New()}
}

func (p *PubSub) Publish(topic string, event interface{}) {
	p.bus.Publish(topic, event)
}

// Subscribe registers a synchronous callback so observers see events in the
// exact order the engine appended them.
func (p *PubSub) Subscribe(topic string, callbackFn interface{}) error {
	if err := p.bus.Subscribe(topic, callbackFn); err != nil {
		return err
	}

	log.Infof("Subscribed to topic %s", topic)
	return nil
}
