package downloads

import (
	evbus "github.com/asaskevich/EventBus"
)

const (
	topicTitle   = "downloads:title"
	topicLoading = "downloads:loading"
	topicItems   = "downloads:items"
)

// Notifier fans out the fire-and-forget host notifications
// (title/loading/item-count) over an event bus instead of raw
// delegates, preserving at-most-one terminal emission per session.
type Notifier struct {
	bus evbus.Bus
}

func NewNotifier() *Notifier {
	return &Notifier{bus: evbus.New()}
}

func (n *Notifier) Title(text string) {
	n.bus.Publish(topicTitle, text)
}

func (n *Notifier) Loading(loading bool) {
	n.bus.Publish(topicLoading, loading)
}

func (n *Notifier) ItemsChanged(delta int) {
	n.bus.Publish(topicItems, delta)
}

func (n *Notifier) OnTitleChanged(fn func(text string)) error {
	return n.bus.Subscribe(topicTitle, fn)
}

func (n *Notifier) OnLoadingChanged(fn func(loading bool)) error {
	return n.bus.Subscribe(topicLoading, fn)
}

func (n *Notifier) OnItemCountChanged(fn func(delta int)) error {
	return n.bus.Subscribe(topicItems, fn)
}

func (n *Notifier) Unsubscribe(topicFn any) {
	// callers that registered on a topic tear down with the same func
	switch fn := topicFn.(type) {
	case func(string):
		n.bus.Unsubscribe(topicTitle, fn)
	case func(bool):
		n.bus.Unsubscribe(topicLoading, fn)
	case func(int):
		n.bus.Unsubscribe(topicItems, fn)
	}
}
