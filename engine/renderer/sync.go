package renderer

import (
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

type FenceState int

const (
	FenceUnset FenceState = iota
	FencePending
)

func (s FenceState) String() string {
	if s == FencePending {
		return "pending"
	}
	return "unset"
}

/**
 * @brief Guards the persistent mapped buffers. A fence is locked after the
 * last draw that reads them and must be waited on before the CPU writes into
 * them again.
 */
type SyncController struct {
	backend   Backend
	timeoutNs uint64

	fence metadata.Fence
	state FenceState

	polls      int
	totalPolls int
	overlaps   int
}

func NewSyncController(backend Backend, timeoutNs uint64) *SyncController {
	return &SyncController{
		backend:   backend,
		timeoutNs: timeoutNs,
	}
}

func (s *SyncController) State() FenceState {
	return s.state
}

// LockFence inserts a fence after the commands submitted so far. A fence
// still pending is deleted and replaced.
func (s *SyncController) LockFence() {
	if s.state == FencePending {
		s.backend.DeleteSync(s.fence)
	}
	s.fence = s.backend.FenceSync()
	s.state = FencePending
}

// WaitFence blocks until the pending fence signals, polling with the
// configured timeout. It returns false if the wait failed.
func (s *SyncController) WaitFence() bool {
	s.polls = 0
	if s.state != FencePending {
		return true
	}

	ok := true
	for {
		s.polls++
		s.totalPolls++
		status := s.backend.ClientWaitSync(s.fence, s.timeoutNs)
		if status == metadata.SyncTimeoutExpired {
			continue
		}
		if status == metadata.SyncWaitFailed {
			core.LogError("fence wait failed after %d polls", s.polls)
			ok = false
		}
		break
	}

	s.backend.DeleteSync(s.fence)
	s.fence = metadata.Fence{}
	s.state = FenceUnset
	return ok
}

// BeginWrite marks the start of a CPU write into persistent memory. Writing
// while a fence is pending races with the GPU; each occurrence is counted.
func (s *SyncController) BeginWrite(region string) {
	if s.state == FencePending {
		s.overlaps++
		core.LogError("write into '%s' while the GPU may still read it", region)
	}
}

// Overlaps is the number of writes that happened while a fence was pending.
func (s *SyncController) Overlaps() int {
	return s.overlaps
}

// Polls returns the polls of the last WaitFence and of every wait so far.
func (s *SyncController) Polls() (last, total int) {
	return s.polls, s.totalPolls
}

func (s *SyncController) Shutdown() {
	if s.state == FencePending {
		s.backend.DeleteSync(s.fence)
		s.fence = metadata.Fence{}
		s.state = FenceUnset
	}
}
