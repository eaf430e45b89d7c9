// Package aggregates owns the transactional review writes: asset lifecycle
// transitions, comment threads and request assignment.
//
// Each write locks the rows it reads, applies the state machine from
// internal/domain/review, swaps the row with CASGuard and appends the
// approval or audit entries in the same transaction. Notification and
// object store side effects are returned to the caller and never run here.
package aggregates
