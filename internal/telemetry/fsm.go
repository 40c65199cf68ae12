package telemetry

// stageNext defines the only legal stage transitions. Anything not listed,
// including regressions caused by a backward clock correction, is rejected.
var stageNext = map[StageStatus]StageStatus{
	StageAttached:  StageSeparated,
	StageSeparated: StageLanding,
	StageLanding:   StageLanded,
}

var fairingNext = map[FairingStatus]FairingStatus{
	FairingAttached: FairingSeparated,
}

// stageRank orders stage statuses along the one-way path.
var stageRank = map[StageStatus]int{
	StageAttached:  0,
	StageSeparated: 1,
	StageLanding:   2,
	StageLanded:    3,
}

// Tracker latches the furthest-reached stage and fairing status for one
// viewing session, so elapsed-time regression never reverts a separation
// that was already shown.
type Tracker struct {
	stage   StageStatus
	fairing FairingStatus
}

// NewTracker returns a tracker in the pre-launch resting state.
func NewTracker() *Tracker {
	return &Tracker{stage: StageAttached, fairing: FairingAttached}
}

// Observe folds a synthesized point into the tracker and returns the point
// with its statuses replaced by the latched values. Forward transitions walk
// the transition table one step at a time; multi-step jumps (a long sleep)
// advance through each intermediate state.
func (tr *Tracker) Observe(p Point) Point {
	tr.stage = advanceStage(tr.stage, p.StageStatus)
	tr.fairing = advanceFairing(tr.fairing, p.FairingStatus)
	p.StageStatus = tr.stage
	p.FairingStatus = tr.fairing
	return p
}

// Stage returns the latched stage status.
func (tr *Tracker) Stage() StageStatus {
	return tr.stage
}

// Fairing returns the latched fairing status.
func (tr *Tracker) Fairing() FairingStatus {
	return tr.fairing
}

func advanceStage(cur, want StageStatus) StageStatus {
	if stageRank[want] <= stageRank[cur] {
		return cur
	}
	for cur != want {
		next, ok := stageNext[cur]
		if !ok {
			return cur
		}
		cur = next
	}
	return cur
}

func advanceFairing(cur, want FairingStatus) FairingStatus {
	if cur == FairingSeparated || want != FairingSeparated {
		return cur
	}
	return fairingNext[cur]
}
