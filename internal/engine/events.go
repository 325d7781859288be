package engine

type EventType string

const (
	EventMarket        EventType = "market"
	EventOpportunities EventType = "opportunities"
	EventTrade         EventType = "trade"
	EventAdvisory      EventType = "advisory"
	EventSettings      EventType = "settings"
)

// Event is a state change pushed to observers. Data is always a copy.
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

// Observer receives engine events. Notify must not block.
type Observer interface {
	Notify(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Notify(ev Event) { f(ev) }
