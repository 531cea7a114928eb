package domain

// LockType classifies how a token's pooled liquidity is secured.
type LockType string

const (
	LockNone        LockType = "none"        // no lock detected
	LockTraditional LockType = "traditional" // time-locked LP tokens
	LockManaged     LockType = "managed"     // protocol-managed pool (DLMM etc.)
)

// String returns the string representation of LockType.
func (t LockType) String() string {
	return string(t)
}

// DefaultLockDays is assumed when a traditional lock reports no duration.
const DefaultLockDays = 365

// LiquidityLock describes the lock status of a token's dominant liquidity.
type LiquidityLock struct {
	Type    LockType // none | traditional | managed
	Percent float64  // locked share of the pool, traditional only
	Days    int      // lock duration in days, traditional only
}

// Locked reports whether any form of lock protects the liquidity.
func (l LiquidityLock) Locked() bool {
	return l.Type == LockTraditional || l.Type == LockManaged
}
