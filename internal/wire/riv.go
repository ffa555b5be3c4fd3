package wire

// RIV computes the Resource Indication Value for a contiguous uplink PRB
// allocation of nPRB resource blocks starting at rbStart, out of nRbUL
// total uplink resource blocks. Grounded on LTE_fdd_enb_mac.cc's RIV
// construction in the RAR and UL-grant scheduling paths (3GPP TS 36.213
// 8.1.1).
func RIV(nRbUL, nPRB, rbStart int) int {
	if (nPRB - 1) <= nRbUL/2 {
		return nRbUL*(nPRB-1) + rbStart
	}
	return nRbUL*(nRbUL-nPRB+1) + (nRbUL - 1 - rbStart)
}
