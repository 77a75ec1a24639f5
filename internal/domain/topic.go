package domain

// Direction is the left/right lean of a policy vote, used to apportion
// votes for and against.
type Direction string

const (
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// TopicMapping describes one externally identified policy ("dreammp").
type TopicMapping struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Direction   Direction `json:"direction"`
}

// DiscoveredTopic is an {id, description} pair reported by the data source.
type DiscoveredTopic struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}
