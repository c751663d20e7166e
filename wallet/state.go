package wallet

import "fmt"

type State byte

const (
	State_Uninitialized State = iota
	State_Constructing
	State_Ready
	State_Failed
)

func (s State) String() string {
	switch s {
	case State_Uninitialized:
		return "Uninitialized"
	case State_Constructing:
		return "Constructing"
	case State_Ready:
		return "Ready"
	case State_Failed:
		return "Failed"
	default:
		return fmt.Sprintf("Unknown(%d)", byte(s))
	}
}
