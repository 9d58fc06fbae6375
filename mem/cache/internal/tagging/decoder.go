package tagging

// A Decoder splits an address into its tag, set index and block offset
// fields.
type Decoder struct {
	OffsetBits int
	IndexBits  int
}

// NewDecoder creates a decoder for blocks of 2^offsetBits bytes and
// 2^indexBits sets.
func NewDecoder(offsetBits, indexBits int) Decoder {
	if offsetBits < 0 || indexBits < 0 {
		panic("negative field width")
	}

	return Decoder{OffsetBits: offsetBits, IndexBits: indexBits}
}

// Decode returns the fields of the address.
func (d Decoder) Decode(addr uint64) (tag, index, offset uint64) {
	offset = addr & (1<<d.OffsetBits - 1)
	rest := addr >> d.OffsetBits
	index = rest & (1<<d.IndexBits - 1)
	tag = rest >> d.IndexBits

	return tag, index, offset
}

// BlockAddress rebuilds the address of the first byte of a line.
func (d Decoder) BlockAddress(tag, index uint64) uint64 {
	return (tag<<d.IndexBits | index) << d.OffsetBits
}

// BlockSize returns the number of bytes in a line.
func (d Decoder) BlockSize() int {
	return 1 << d.OffsetBits
}

// NumSets returns the number of sets the index field can address.
func (d Decoder) NumSets() int {
	return 1 << d.IndexBits
}
