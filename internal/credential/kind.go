package credential

// Kind is the trust tier a credential grants.
type Kind int

const (
	KindPlayer Kind = iota + 1
	KindControlMaster
	KindController
)

func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindControlMaster:
		return "control-master"
	case KindController:
		return "controller"
	default:
		return "unknown"
	}
}
