package exchange

// Byte layout of the Exchange structure, mirrored from shlaunch.h's
// packed struct. Offsets are fixed so the layout is stable across minor
// additions; the trailing reserved span absorbs future fields without
// bumping Size.
const (
	offSize            = 0
	offCycles          = 4
	offProcessID       = 8
	offStatus          = 12
	offLaunchProcessID = 16
	offLaunch          = 20
	offShutdown        = 24
	offBuild           = 28
	buildLen           = 8
	offDataDir         = offBuild + buildLen // 36
	dataDirLen         = 1024                // bytes, UTF-8, NUL-padded
	offReserved        = offDataDir + dataDirLen
	reservedLen        = 128

	// Size is the total byte size of the region. Must match across every
	// process that attaches; a mismatch means a stale or foreign region.
	Size = offReserved + reservedLen
)

// LaunchFlagKillFirst is bit 16 of the launch word: "kill existing
// backends before launching a new one."
const LaunchFlagKillFirst = 0x10000

// LaunchMask isolates the low 16 bits of the launch word, the launch
// code. Any non-zero code means "launch".
const LaunchMask = 0x0ffff
