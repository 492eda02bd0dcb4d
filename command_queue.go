package simstore

// Command is a deferred mutation applied against a registry by Execute.
type Command interface {
	Apply(r *Registry) error
}

// CommandFunc adapts a function to Command.
type CommandFunc func(r *Registry) error

func (f CommandFunc) Apply(r *Registry) error {
	return f(r)
}

// CommandQueue accumulates deferred commands in FIFO order.
type CommandQueue struct {
	commands []Command
}

// NewCommandQueue creates an empty queue.
func NewCommandQueue() *CommandQueue {
	return &CommandQueue{}
}

// Len reports how many commands are queued.
func (q *CommandQueue) Len() int {
	return len(q.commands)
}

// Push appends a command to the queue.
func (q *CommandQueue) Push(cmd Command) {
	if cmd == nil {
		return
	}
	q.commands = append(q.commands, cmd)
}

// Drain returns queued commands and resets the queue. Commands pushed after Drain land
// in a fresh backing array and are not part of the returned slice.
func (q *CommandQueue) Drain() []Command {
	drained := q.commands
	q.commands = nil
	return drained
}
