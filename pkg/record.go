package decoder

const (
	// Energy reported for records flagged as saturated.
	SaturatedEnergy = 32767
	NumQdcSums      = 8
	// Module numbers of crates other than 0 are encoded as crate*100 + module.
	crateModuleStride = 100
)

// ChannelRecord is one decoded channel hit.
type ChannelRecord struct {
	Energy         uint32
	Time           uint64
	CfdTime        uint32
	Crate          int
	Slot           int
	Module         int
	Channel        int
	HeaderLength   uint32
	EventLength    uint32
	VirtualChannel bool
	Pileup         bool
	Saturated      bool
	OutOfRange     bool
	HasQdc         bool
	QdcSums        [NumQdcSums]uint32
	Trace          []uint16
}

// WidenModule returns the module identifier used across a multi-crate setup.
func WidenModule(crate int, physicalModule int) int {
	return crate*crateModuleStride + physicalModule
}

// ModuleID is the crate-widened module number.
func (r *ChannelRecord) ModuleID() int {
	return r.Module
}

// PhysicalModule strips the crate offset from the module number.
func (r *ChannelRecord) PhysicalModule() int {
	return r.Module % crateModuleStride
}

// Address returns the (module, channel) pair of the record.
func (r *ChannelRecord) Address() ChannelAddress {
	return ChannelAddress{Module: r.Module, Channel: r.Channel}
}

// Flags packs the boolean flags into the bit layout written to file.
func (r *ChannelRecord) Flags() uint8 {
	var flags uint8
	if r.VirtualChannel {
		flags |= 0x01
	}
	if r.Pileup {
		flags |= 0x02
	}
	if r.Saturated {
		flags |= 0x04
	}
	if r.OutOfRange {
		flags |= 0x08
	}
	return flags
}
