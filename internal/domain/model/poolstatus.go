package model

// PoolStatus is a snapshot of the warehouse connection pool. Built is false
// until the first lease and after every credential-driven teardown.
type PoolStatus struct {
	Built            bool
	CredentialSource CredentialSource
	TotalConns       int32
	IdleConns        int32
	AcquiredConns    int32
	MaxConns         int32
}
