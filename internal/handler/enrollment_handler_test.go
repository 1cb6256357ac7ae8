package handler_test

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-classroom/internal/dto"
)

func studentPath(courseID, studentID uint, suffix string) string {
	return coursePath(courseID, "/students/"+strconv.FormatUint(uint64(studentID), 10)+suffix)
}

func TestToggleEnrollmentRoundTrip(t *testing.T) {
	env := newTestApp(t)
	admin, courseID, roomID := env.createOrganizationAndCourse(t, 0)
	studentID := env.addParticipant(t, admin, courseID, "student", "toggle@example.com")

	status, payload := env.do(t, http.MethodPatch, studentPath(courseID, studentID, "/toggle"), admin, nil)
	require.Equal(t, fiber.StatusOK, status, payload.Message)
	var result dto.EnrollmentResponse
	decodeData(t, payload, &result)
	require.Equal(t, "removed", result.Action)

	status, payload = env.do(t, http.MethodGet, coursePath(courseID, "/chat-room"), admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	var room dto.ChatRoomResponse
	decodeData(t, payload, &room)
	require.Equal(t, roomID, room.ChatRoomID)
	require.NotContains(t, room.Participants, studentID)

	status, payload = env.do(t, http.MethodGet, coursePath(courseID, ""), admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	var detail dto.CourseDetailResponse
	decodeData(t, payload, &detail)
	require.Empty(t, detail.EnrolledStudents)
	require.Len(t, detail.EnrolledStudentsRemoved, 1)

	status, payload = env.do(t, http.MethodPatch, studentPath(courseID, studentID, "/toggle"), admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	decodeData(t, payload, &result)
	require.Equal(t, "re-enrolled", result.Action)

	status, payload = env.do(t, http.MethodGet, "/api/v2/users/me/courses", caller{userID: studentID, role: "student"}, nil)
	require.Equal(t, fiber.StatusOK, status)
	var courses dto.UserCoursesResponse
	decodeData(t, payload, &courses)
	require.Len(t, courses.EnrolledCourses, 1)
	require.Equal(t, courseID, courses.EnrolledCourses[0].ID)
	require.Empty(t, courses.EnrolledCoursesRemoved)
}

func TestCourseDetailsHideEmailsFromNonStaff(t *testing.T) {
	env := newTestApp(t)
	admin, courseID, _ := env.createOrganizationAndCourse(t, 0)
	studentID := env.addParticipant(t, admin, courseID, "student", "private@example.com")
	env.addParticipant(t, admin, courseID, "trainer", "coach@example.com")

	for _, viewer := range []caller{anonymous, {userID: studentID, role: "student"}} {
		status, payload := env.do(t, http.MethodGet, coursePath(courseID, ""), viewer, nil)
		require.Equal(t, fiber.StatusOK, status)
		require.NotContains(t, string(payload.Data), "@example.com")

		var detail dto.CourseDetailResponse
		decodeData(t, payload, &detail)
		require.Len(t, detail.EnrolledStudents, 1)
		require.Equal(t, studentID, detail.EnrolledStudents[0].UserID)
		require.Len(t, detail.Instructors, 1)
	}

	status, payload := env.do(t, http.MethodGet, coursePath(courseID, ""), admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	var detail dto.CourseDetailResponse
	decodeData(t, payload, &detail)
	require.Equal(t, "private@example.com", detail.EnrolledStudents[0].Email)
	require.Equal(t, "coach@example.com", detail.Instructors[0].Email)
}

func TestSetEnrollmentStateIsIdempotent(t *testing.T) {
	env := newTestApp(t)
	admin, courseID, _ := env.createOrganizationAndCourse(t, 0)
	studentID := env.addParticipant(t, admin, courseID, "student", "state@example.com")

	status, payload := env.do(t, http.MethodPut, studentPath(courseID, studentID, ""), admin, map[string]string{"state": "removed"})
	require.Equal(t, fiber.StatusOK, status, payload.Message)
	var result dto.EnrollmentResponse
	decodeData(t, payload, &result)
	require.Equal(t, "removed", result.Action)

	status, payload = env.do(t, http.MethodPut, studentPath(courseID, studentID, ""), admin, map[string]string{"state": "removed"})
	require.Equal(t, fiber.StatusOK, status)
	decodeData(t, payload, &result)
	require.Equal(t, "unchanged", result.Action)
	require.Equal(t, "removed", result.State)

	status, payload = env.do(t, http.MethodPut, studentPath(courseID, studentID, ""), admin, map[string]string{"state": "archived"})
	require.Equal(t, fiber.StatusBadRequest, status)
	require.Equal(t, "invalid_input", payload.Details.Kind)
}

func TestEnrollmentErrorKinds(t *testing.T) {
	env := newTestApp(t)
	admin, courseID, _ := env.createOrganizationAndCourse(t, 0)
	otherAdmin, _, _ := env.createOrganizationAndCourse(t, 0)
	studentID := env.addParticipant(t, admin, courseID, "student", "kinds@example.com")

	status, payload := env.do(t, http.MethodPatch, studentPath(courseID, 4242, "/toggle"), admin, nil)
	require.Equal(t, fiber.StatusConflict, status)
	require.Equal(t, "not_enrolled_or_removed", payload.Details.Kind)

	status, payload = env.do(t, http.MethodPut, studentPath(courseID, 4242, ""), admin, map[string]string{"state": "removed"})
	require.Equal(t, fiber.StatusConflict, status)
	require.Equal(t, "not_enrolled", payload.Details.Kind)

	status, payload = env.do(t, http.MethodPatch, studentPath(courseID, studentID, "/toggle"), otherAdmin, nil)
	require.Equal(t, fiber.StatusNotFound, status)
	require.Equal(t, "not_found", payload.Details.Kind)

	status, payload = env.do(t, http.MethodPatch, studentPath(courseID, studentID, "/toggle"), caller{userID: studentID, role: "student"}, nil)
	require.Equal(t, fiber.StatusForbidden, status)
	require.Equal(t, "forbidden", payload.Details.Kind)

	status, payload = env.do(t, http.MethodPatch, studentPath(courseID, studentID, "/toggle"), caller{userID: 9000, role: "admin"}, nil)
	require.Equal(t, fiber.StatusForbidden, status)
	require.Equal(t, "forbidden", payload.Details.Kind)
}

func TestAddParticipantIsIdempotentAndHonoursLimit(t *testing.T) {
	env := newTestApp(t)
	admin, courseID, _ := env.createOrganizationAndCourse(t, 1)

	first := env.addParticipant(t, admin, courseID, "student", "first@example.com")
	again := env.addParticipant(t, admin, courseID, "student", "FIRST@example.com")
	require.Equal(t, first, again)

	status, payload := env.do(t, http.MethodPost, coursePath(courseID, "/participants"), admin, map[string]string{
		"role":  "student",
		"email": "second@example.com",
		"name":  "Second",
	})
	require.Equal(t, fiber.StatusConflict, status)
	require.Equal(t, "conflict", payload.Details.Kind)

	// Trainers do not count against the enrollment limit.
	trainer := env.addParticipant(t, admin, courseID, "trainer", "coach@example.com")
	require.NotZero(t, trainer)

	status, payload = env.do(t, http.MethodGet, coursePath(courseID, "/chat-room"), admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	var room dto.ChatRoomResponse
	decodeData(t, payload, &room)
	require.ElementsMatch(t, []uint{first, trainer}, room.Participants)
}
