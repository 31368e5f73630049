package intake

// State is a step of the submission state machine.
type State int

const (
	Editing State = iota
	Validating
	Persisting
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Editing:
		return "editing"
	case Validating:
		return "validating"
	case Persisting:
		return "persisting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}
