package repository

import "errors"

var (
	// ErrStaleMembership is returned when a membership row changed between read and write.
	ErrStaleMembership = errors.New("membership changed concurrently")
	// ErrEnrollmentFull is returned when a course has no seats left for a new student.
	ErrEnrollmentFull = errors.New("course enrollment limit reached")
)
