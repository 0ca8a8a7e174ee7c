// Package booking decides whether a study-room request may proceed,
// writes admitted reservations atomically, and turns recorded attendance
// into no-show sanctions.
package booking

import (
	"context"
	"errors"

	"github.com/Matipousi/UcuDB1/internal/model"
	"github.com/Matipousi/UcuDB1/internal/repository"
)

// EnrollmentStore loads one enrollment of a participant.
type EnrollmentStore interface {
	ResolveEnrollment(ctx context.Context, participantID string) (model.Enrollment, error)
}

// RoleResolver returns the role and program level used for a
// participant's bookings.
type RoleResolver struct {
	store EnrollmentStore
}

// NewRoleResolver returns a RoleResolver backed by store.
func NewRoleResolver(store EnrollmentStore) *RoleResolver {
	return &RoleResolver{store: store}
}

// Resolve returns one of the participant's enrollments.  A participant
// enrolled in several programs gets whichever enrollment storage yields
// first; there is no tie-break.
func (r *RoleResolver) Resolve(ctx context.Context, participantID string) (model.Enrollment, error) {
	e, err := r.store.ResolveEnrollment(ctx, participantID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Enrollment{}, reject(ReasonNoEnrollment, "participant %s has no enrollment", participantID)
	}
	if err != nil {
		return model.Enrollment{}, persistence("resolve enrollment", err)
	}
	return e, nil
}
