package protocol

const (
	FrameHello   = 1
	FrameData    = 2
	FrameBarrier = 3

	FrameHeaderSize  = 1
	BarrierFrameSize = 1 + 4

	// PayloadFill is the byte written into every payload slot so each
	// exchange moves real data instead of a zeroed probe.
	PayloadFill = 0x5a

	Version = "1"
)
