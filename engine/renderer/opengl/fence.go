package opengl

import (
	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// FenceSync inserts a fence after every command submitted so far.
func (r *OpenGLRenderer) FenceSync() metadata.Fence {
	r.FrameNumber++
	return metadata.Fence{Handle: gl.FenceSync(gl.SYNC_GPU_COMMANDS_COMPLETE, 0)}
}

// ClientWaitSync waits up to timeoutNs, flushing first so the fence is
// guaranteed to reach the GPU.
func (r *OpenGLRenderer) ClientWaitSync(f metadata.Fence, timeoutNs uint64) metadata.SyncStatus {
	if f.Handle == 0 {
		return metadata.SyncAlreadySignaled
	}
	result := gl.ClientWaitSync(f.Handle, gl.SYNC_FLUSH_COMMANDS_BIT, timeoutNs)
	switch result {
	case gl.ALREADY_SIGNALED:
		return metadata.SyncAlreadySignaled
	case gl.CONDITION_SATISFIED:
		return metadata.SyncConditionSatisfied
	case gl.TIMEOUT_EXPIRED:
		return metadata.SyncTimeoutExpired
	case gl.WAIT_FAILED:
		core.LogError("glClientWaitSync - GL_WAIT_FAILED: %s", errorString(gl.GetError()))
	default:
		core.LogError("glClientWaitSync - An unknown result has occurred: 0x%x", result)
	}
	return metadata.SyncWaitFailed
}

func (r *OpenGLRenderer) DeleteSync(f metadata.Fence) {
	if f.Handle != 0 {
		gl.DeleteSync(f.Handle)
	}
}
