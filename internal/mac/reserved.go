package mac

import "github.com/bwojtowicz/lte-fdd-enb/internal/paramdb"

// sib1PRBs and schedInfoPRBs are the fixed PRB costs of the SIB1 and
// per-scheduling-info-entry transport blocks; the original computes
// these from the packed message size, which this core fixes at a small
// constant adequate for the handful of SIBs it carries.
const (
	sib1PRBs      = 2
	schedInfoPRBs = 2
	mibPRBs       = 6
)

// ReservedPRBs returns the number of PRBs unavailable to the scheduler
// in the subframe named by tti because the MIB, SIB1, or a
// scheduling-info entry must be transmitted there. Grounded on
// LTE_fdd_enb_mac::get_n_reserved_prbs.
func ReservedPRBs(tti uint32, si *paramdb.SysInfo) int {
	sfn := int(tti / 10)
	subframe := int(tti % 10)

	reserved := 0
	if subframe == 0 {
		reserved += mibPRBs
	}
	if subframe == 5 && sfn%2 == 0 {
		reserved += sib1PRBs
	}

	if si == nil {
		return reserved
	}

	siWinLen := si.SIWinLen
	if siWinLen <= 0 {
		siWinLen = 1
	}
	periodicityT := si.SIPeriodicityT
	if periodicityT <= 0 {
		periodicityT = 8
	}

	for i := range si.SchedInfo {
		if (i*siWinLen)%10 == subframe && (i*siWinLen)/10 == sfn%periodicityT {
			reserved += schedInfoPRBs
		}
	}

	return reserved
}
