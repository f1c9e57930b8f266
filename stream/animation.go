package stream

// An Animation renders the current state of the show into a Frame.
type Animation interface {
	CalculateFrame() *Frame
}
