package clusterlight

// mortonCode computes the 32-bit Z-order code of a light's base (x,z)
// world position: xi/zi are truncated to u32, each is bit-spread over
// 16 bits, and z is interleaved into the odd bits.
//
// This governs radix-sort locality only; it is never used for
// addressing correctness, so lights with identical or out-of-range
// codes still sort and remove correctly, just without the locality win.
func mortonCode(x, z float32) uint32 {
	xi := uint32(int32(x))
	zi := uint32(int32(z))
	return spreadBits16(xi) | (spreadBits16(zi) << 1)
}

// spreadBits16 interleaves zeros between each of the low 16 bits of v,
// the standard Morton bit-spread ("Insert one 0 bit"). Only the low 16
// bits of v are considered; Morton locality degrades gracefully for
// coordinates outside [0, 2^16) rather than being undefined.
func spreadBits16(v uint32) uint32 {
	v &= 0x0000ffff
	v = (v | (v << 8)) & 0x00ff00ff
	v = (v | (v << 4)) & 0x0f0f0f0f
	v = (v | (v << 2)) & 0x33333333
	v = (v | (v << 1)) & 0x55555555
	return v
}

// radixSortMortonLSD sorts idx (a permutation of [0, len(idx))) in place
// by keys[idx[i]] ascending, using a 4-pass, radix-256 LSD counting sort
// (one pass per byte of the 32-bit key). scratch must have the same
// length as idx and is used as ping-pong storage; callers own scratch's
// lifetime (the Light Store's sort helpers allocate it per sort call).
func radixSortMortonLSD(idx []int32, keys []uint32, scratch []int32) {
	n := len(idx)
	if n < 3 {
		return
	}

	src, dst := idx, scratch
	var count [256]int32

	for pass := 0; pass < 4; pass++ {
		shift := uint(pass * 8)

		for i := range count {
			count[i] = 0
		}
		for _, id := range src {
			b := byte(keys[id] >> shift)
			count[b]++
		}

		sum := int32(0)
		for i := range count {
			c := count[i]
			count[i] = sum
			sum += c
		}

		for _, id := range src {
			b := byte(keys[id] >> shift)
			dst[count[b]] = id
			count[b]++
		}

		src, dst = dst, src
	}

	// After 4 passes src and idx alias the same backing array only when
	// the number of passes is even; copy if the ping-pong left the
	// result in scratch.
	if &src[0] != &idx[0] {
		copy(idx, src)
	}
}
