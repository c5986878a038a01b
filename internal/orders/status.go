package orders

type Status string

const (
	StatusPending          Status = "Pending"
	StatusQueueingFailed   Status = "Queueing Failed"
	StatusProcessed        Status = "Processed"
	StatusProcessingFailed Status = "Processing Failed"
)

var validNext = map[Status]map[Status]bool{
	StatusPending:          {StatusQueueingFailed: true, StatusProcessed: true, StatusProcessingFailed: true},
	StatusQueueingFailed:   {},
	StatusProcessed:        {},
	StatusProcessingFailed: {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func (s Status) Valid() bool {
	_, ok := validNext[s]
	return ok
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s.Valid() && len(validNext[s]) == 0
}
