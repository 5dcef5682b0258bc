package metadata

type BufferTarget int

const (
	BufferArray BufferTarget = iota
	BufferElementArray
	BufferDrawIndirect
	BufferShaderStorage
	BufferUniform
)

/**
 * @brief Describes a GPU buffer. Persistent buffers are allocated with immutable
 * storage and stay mapped for writing, coherently, until destroyed.
 */
type BufferDesc struct {
	Name       string
	Target     BufferTarget
	Size       int
	Persistent bool
}

type Buffer struct {
	ID     uint32
	Name   string
	Target BufferTarget
	Size   int
	/** @brief CPU view of a persistent mapping. Nil for non-persistent buffers. */
	Mapped []byte
}

func (b *Buffer) Persistent() bool {
	return b.Mapped != nil
}

/**
 * @brief A float vertex attribute inside an interleaved vertex buffer.
 */
type VertexAttribute struct {
	Location   uint32
	Components int32
	Offset     int
}

type VertexArrayDesc struct {
	Vertices   *Buffer
	Indices    *Buffer
	Stride     int32
	Attributes []VertexAttribute
}

type VertexArray struct {
	ID uint32
}

/**
 * @brief A GPU fence. Handle is the driver sync object; zero means no fence.
 */
type Fence struct {
	Handle uintptr
}

type SyncStatus int

const (
	SyncAlreadySignaled SyncStatus = iota
	SyncConditionSatisfied
	SyncTimeoutExpired
	SyncWaitFailed
)

func (s SyncStatus) String() string {
	switch s {
	case SyncAlreadySignaled:
		return "already signaled"
	case SyncConditionSatisfied:
		return "condition satisfied"
	case SyncTimeoutExpired:
		return "timeout expired"
	default:
		return "wait failed"
	}
}

type ClearFlags uint32

const (
	ClearColor ClearFlags = 1 << iota
	ClearDepth
)

type CullFace int

const (
	CullNone CullFace = iota
	CullBack
	CullFront
)
