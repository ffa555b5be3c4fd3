package mac

// nCCETable approximates the number of PDCCH control channel elements
// available per subframe for a given downlink bandwidth at typical
// 3-symbol PDCCH configurations (3GPP TS 36.213 Table 9.1.5-1 gives the
// exact aggregation-level budget; this core only needs the coarse
// per-subframe DCI headroom the scheduler checks against).
var nCCETable = map[int]int{
	6: 2, 15: 4, 25: 7, 50: 12, 75: 18, 100: 25,
}

// NCCE returns the number of DCI grants that can be signalled in one
// subframe for the given downlink resource block count.
func NCCE(nRbDl int) int {
	if n, ok := nCCETable[nRbDl]; ok {
		return n
	}
	// Fall back to a linear estimate for any bandwidth not in the
	// table, rather than silently returning zero DCI headroom.
	return nRbDl / 4
}
