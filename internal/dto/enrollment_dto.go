package dto

// EnrollmentStateRequest sets the membership state of a student explicitly.
type EnrollmentStateRequest struct {
	State string `json:"state" validate:"required,oneof=enrolled removed"`
}

// EnrollmentResponse reports the outcome of an enrollment change.
type EnrollmentResponse struct {
	CourseID  uint   `json:"course_id"`
	StudentID uint   `json:"student_id"`
	Action    string `json:"action"`
	State     string `json:"state"`
}

// ParticipantAddRequest adds a trainer, volunteer or student to a course by email.
type ParticipantAddRequest struct {
	Role  string `json:"role" validate:"required,oneof=student trainer volunteer"`
	Email string `json:"email" validate:"required,email,max=255"`
	Name  string `json:"name" validate:"required,min=1,max=255"`
}

// ParticipantAddResponse returns the course and the participant that was added.
type ParticipantAddResponse struct {
	Course        CourseResponse `json:"course"`
	ParticipantID uint           `json:"participant_id"`
	Role          string         `json:"role"`
	Action        string         `json:"action"`
}

// ParticipantEvent is the payload of participantAdded and participantRemoved room events.
type ParticipantEvent struct {
	UserID uint   `json:"user_id"`
	Name   string `json:"name,omitempty"`
	Role   string `json:"role"`
}
