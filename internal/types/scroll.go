package types

type ScrollPhase string

const (
	ScrollPhaseIdle         ScrollPhase = "idle"
	ScrollPhaseStreamFollow ScrollPhase = "stream-follow"
	ScrollPhaseCatchup      ScrollPhase = "catchup"
)

type ScrollSnapshot struct {
	Phase     ScrollPhase `json:"phase"`
	Suspended bool        `json:"suspended"`
}
