package message

// Output is the aggregator-bound interpretation of a SIGNAL-command
// node-plane frame: where a tile reads a SIGNAL frame's payload as
// {address, slot_mode, data}, the column aggregator that ultimately
// receives it reads the same 64 bits as {slot, mask, bypass, data} -- the
// two node-plane consumers disagree on the payload layout by design, since
// a tile and its column aggregator never interpret the same frame twice.
// Grounded on node_output_t / NXAggregator::step in nxaggregator.cpp.
type Output struct {
	Header
	Slot   uint8 // 2 bits: which of the aggregator's slots to update
	Mask   uint8 // 8 bits: read-modify-write mask
	Bypass bool  // forward straight to host instead of updating a slot
	Data   uint8
}

const (
	outputSlotShift   = 52
	outputMaskShift   = 44
	outputBypassShift = 43
	outputDataShift   = 35
)

// PackOutput encodes an Output frame bit-exactly into a 64-bit frame.
func PackOutput(m Output) Raw {
	u := packHeader(m.Header)
	u |= uint64(m.Slot&0x3) << outputSlotShift
	u |= uint64(m.Mask) << outputMaskShift
	if m.Bypass {
		u |= 1 << outputBypassShift
	}
	u |= uint64(m.Data) << outputDataShift
	return Raw(u)
}

// UnpackOutput decodes an Output frame. Caller must know the frame's
// header.Command == CommandSignal and that it is addressed to an
// aggregator rather than a tile.
func UnpackOutput(raw Raw) Output {
	u := uint64(raw)
	return Output{
		Header: HeaderOf(raw),
		Slot:   uint8((u >> outputSlotShift) & 0x3),
		Mask:   uint8((u >> outputMaskShift) & 0xFF),
		Bypass: (u>>outputBypassShift)&0x1 != 0,
		Data:   uint8((u >> outputDataShift) & 0xFF),
	}
}

// AsSignal converts an Output frame into a SIGNAL message with the same
// header and data byte, used when forwarding a bypassed output on to the
// host as an ordinary SIGNAL packet. The output's slot, mask and bypass
// fields are not carried over: the SIGNAL's address and slot mode are zero.
func (m Output) AsSignal() Signal {
	return Signal{Header: m.Header, Data: m.Data}
}
