// Package registry implements the UserRegistry: the IMSI- and C-RNTI-keyed
// user directory, C-RNTI allocation, and the bounded-timeout reclamation
// of PRACH-originated placeholder users. Grounded on LTE_fdd_enb_user_mgr.cc
// and LTE_fdd_enb_c_rnti_mgr.cc, with the cleanup-ticker goroutine shaped
// after nf/nrf/internal/repository.MemoryRepository.cleanup.
package registry

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bwojtowicz/lte-fdd-enb/internal/enberr"
)

// C-RNTI allocation range, mirroring LIBLTE_MAC_C_RNTI_START/END.
const (
	CRNTIStart uint16 = 0x003D
	CRNTIEnd   uint16 = 0xFFF3
)

// PlaceholderTimeout bounds how long a PRACH-originated placeholder user
// may hold a C-RNTI without contention resolution completing. The
// original left this as an explicit FIXME ("need timer to control how
// long this RNTI stays allocated"); this reimplementation supplies it.
const PlaceholderTimeout = 10 * time.Second

// Registry owns the User directory.
type Registry struct {
	imsiMu  sync.RWMutex
	byIMSI  map[string]*User

	crntiMu    sync.Mutex
	byCRNTI    map[uint16]*User
	nextCRNTI  uint16
	crntiCount int

	logger *zap.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// New constructs an empty registry and starts its placeholder-reclamation
// sweep goroutine.
func New(logger *zap.Logger) *Registry {
	r := &Registry{
		byIMSI:    make(map[string]*User),
		byCRNTI:   make(map[uint16]*User),
		nextCRNTI: CRNTIStart,
		logger:    logger,
		stopCh:    make(chan struct{}),
	}
	r.wg.Add(1)
	go r.sweepPlaceholders()
	return r
}

// Close stops the reclamation goroutine.
func (r *Registry) Close() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	r.wg.Wait()
}

func (r *Registry) sweepPlaceholders() {
	defer r.wg.Done()
	ticker := time.NewTicker(PlaceholderTimeout / 2)
	defer ticker.Stop()
	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.reclaimExpiredPlaceholders()
		}
	}
}

func (r *Registry) reclaimExpiredPlaceholders() {
	now := time.Now()

	r.imsiMu.Lock()
	var expired []string
	for imsi, u := range r.byIMSI {
		if u.Placeholder && now.Sub(u.CreatedAt) > PlaceholderTimeout {
			expired = append(expired, imsi)
		}
	}
	for _, imsi := range expired {
		crnti := r.byIMSI[imsi].CRNTI
		delete(r.byIMSI, imsi)
		r.freeCRNTILocked(crnti)
		if r.logger != nil {
			r.logger.Debug("reclaimed expired placeholder user", zap.String("imsi", imsi), zap.Uint16("c_rnti", crnti))
		}
	}
	r.imsiMu.Unlock()
}

func (r *Registry) freeCRNTILocked(crnti uint16) {
	r.crntiMu.Lock()
	if _, ok := r.byCRNTI[crnti]; ok {
		delete(r.byCRNTI, crnti)
		r.crntiCount--
	}
	r.crntiMu.Unlock()
}

// GetFreeCRNTI scans from a rotating cursor for the first unused C-RNTI
// in [CRNTIStart, CRNTIEnd]. Unlike the original get_free_c_rnti (which
// used an uninitialized iterator in its while-condition and could return
// cursor-1 while aliasing a live entry), occupancy is tracked explicitly
// via crntiCount so exhaustion is detected before any aliasing can occur.
func (r *Registry) GetFreeCRNTI() (uint16, error) {
	r.crntiMu.Lock()
	defer r.crntiMu.Unlock()

	rangeSize := int(CRNTIEnd-CRNTIStart) + 1
	if r.crntiCount >= rangeSize {
		return 0, enberr.New("GetFreeCRNTI", enberr.NoFreeCRnti, "")
	}

	start := r.nextCRNTI
	for {
		candidate := r.nextCRNTI
		r.nextCRNTI++
		if r.nextCRNTI > CRNTIEnd {
			r.nextCRNTI = CRNTIStart
		}
		if _, taken := r.byCRNTI[candidate]; !taken {
			return candidate, nil
		}
		if r.nextCRNTI == start {
			// Should be unreachable given the crntiCount guard above.
			return 0, enberr.New("GetFreeCRNTI", enberr.NoFreeCRnti, "")
		}
	}
}

// AssignCRNTI installs a C-RNTI -> User mapping, overwriting any prior
// occupant (idempotent by design, mirroring assign_c_rnti).
func (r *Registry) AssignCRNTI(crnti uint16, u *User) {
	r.crntiMu.Lock()
	if _, already := r.byCRNTI[crnti]; !already {
		r.crntiCount++
	}
	r.byCRNTI[crnti] = u
	r.crntiMu.Unlock()
}

// FreeCRNTI releases a C-RNTI. The original's del_c_rnti left a literal
// "FIXME: Remove entry from map" with an empty body; this reimplementation
// resolves that by actually deleting, matching the sibling free_c_rnti
// which already did so.
func (r *Registry) FreeCRNTI(crnti uint16) error {
	r.crntiMu.Lock()
	defer r.crntiMu.Unlock()
	if _, ok := r.byCRNTI[crnti]; !ok {
		return enberr.New("FreeCRNTI", enberr.CRntiNotFound, "")
	}
	delete(r.byCRNTI, crnti)
	r.crntiCount--
	return nil
}

// AddUser creates a user keyed by a real IMSI.
func (r *Registry) AddUser(imsi string) error {
	r.imsiMu.Lock()
	defer r.imsiMu.Unlock()
	if _, exists := r.byIMSI[imsi]; exists {
		return enberr.New("AddUser", enberr.UserAlreadyExists, imsi)
	}
	r.byIMSI[imsi] = NewUser(imsi)
	return nil
}

// AddPlaceholderUser creates a synthesized-IMSI user for a C-RNTI
// allocated during random access, before contention resolution confirms
// a real IMSI. Matches add_user(c_rnti)'s "F"+decimal(c_rnti) convention.
func (r *Registry) AddPlaceholderUser(crnti uint16) (*User, error) {
	fakeIMSI := fmt.Sprintf("F%d", crnti)

	r.imsiMu.Lock()
	u := NewUser(fakeIMSI)
	u.Placeholder = true
	u.CRNTI = crnti
	r.byIMSI[fakeIMSI] = u
	r.imsiMu.Unlock()

	r.AssignCRNTI(crnti, u)
	return u, nil
}

// FindByIMSI looks up a user by IMSI.
func (r *Registry) FindByIMSI(imsi string) (*User, error) {
	r.imsiMu.RLock()
	defer r.imsiMu.RUnlock()
	u, ok := r.byIMSI[imsi]
	if !ok {
		return nil, enberr.New("FindByIMSI", enberr.UserNotFound, imsi)
	}
	return u, nil
}

// FindByCRNTI looks up a user by C-RNTI.
func (r *Registry) FindByCRNTI(crnti uint16) (*User, error) {
	r.crntiMu.Lock()
	defer r.crntiMu.Unlock()
	u, ok := r.byCRNTI[crnti]
	if !ok || u == nil {
		return nil, enberr.New("FindByCRNTI", enberr.UserNotFound, "")
	}
	return u, nil
}

// DeleteByIMSI removes a user by IMSI.
func (r *Registry) DeleteByIMSI(imsi string) error {
	r.imsiMu.Lock()
	defer r.imsiMu.Unlock()
	if _, ok := r.byIMSI[imsi]; !ok {
		return enberr.New("DeleteByIMSI", enberr.UserNotFound, imsi)
	}
	delete(r.byIMSI, imsi)
	return nil
}

// DeleteByCRNTI removes the placeholder user associated with a C-RNTI,
// mirroring del_user(c_rnti)'s fake-IMSI lookup.
func (r *Registry) DeleteByCRNTI(crnti uint16) error {
	fakeIMSI := fmt.Sprintf("F%d", crnti)

	r.imsiMu.Lock()
	defer r.imsiMu.Unlock()
	if _, ok := r.byIMSI[fakeIMSI]; !ok {
		return enberr.New("DeleteByCRNTI", enberr.UserNotFound, "")
	}
	delete(r.byIMSI, fakeIMSI)
	r.freeCRNTILocked(crnti)
	return nil
}
