package repositories

import (
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestPendingPairViolation(t *testing.T) {
	hit := &pq.Error{Code: "23505", Constraint: "idx_friend_requests_active_pair"}
	assert.True(t, pendingPairViolation(hit))

	otherConstraint := &pq.Error{Code: "23505", Constraint: "friend_requests_pkey"}
	assert.False(t, pendingPairViolation(otherConstraint))

	otherCode := &pq.Error{Code: "23503", Constraint: "idx_friend_requests_active_pair"}
	assert.False(t, pendingPairViolation(otherCode))

	assert.False(t, pendingPairViolation(assert.AnError))
}
