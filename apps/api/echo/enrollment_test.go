package echoapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/trezcool/coursetools/core/course"
	"github.com/trezcool/coursetools/core/enrollment"
	"github.com/trezcool/coursetools/core/user"
	"github.com/trezcool/coursetools/testutil"
)

func Test_enrollmentApi(t *testing.T) {
	app := setup(t)
	setupCourse(t, app)
	learner := testutil.CreateUser(t, app.svcs.UserRepo, "Awe", "awe", "awe@test.cd", "", []string{user.RoleLearner}, true)
	token := getToken(t, learner)
	path := "/v1/courses/" + courseID + "/enrollment"

	tests := []httpTest{
		{name: "auth required", method: http.MethodPost, path: path, wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{name: "not enrolled", path: path, token: token, wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "enrollment not found"})},
		{
			name: "unknown mode", method: http.MethodPost, path: path, token: token, body: []byte(`{"mode": "gold"}`),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, map[string]string{"mode": "unknown course mode"}),
		},
		{
			name: "mode not offered", method: http.MethodPost, path: path, token: token, body: []byte(`{"mode": "professional"}`),
			wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "course mode not found"}),
		},
		{
			name: "unknown course", method: http.MethodPost, path: "/v1/courses/course-v1:edX+Unknown+2024/enrollment", token: token,
			wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "course not found"}),
		},
		{name: "enroll (audit by default)", method: http.MethodPost, path: path, token: token, body: []byte(`{}`), wantCode: http.StatusCreated},
		{name: "enrolled", path: path, token: token, wantCode: http.StatusOK},
		{name: "unenroll", method: http.MethodDelete, path: path, token: token, wantCode: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.run(t, app)
		})
	}

	enr, err := app.svcs.Enrollments.Get(context.Background(), learner.ID, courseID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if enr.IsActive || enr.Mode != course.ModeAudit || enr.UpgradeDeadline == nil {
		t.Errorf("enrollment = %+v", enr)
	}
}

func Test_enrollmentApi_enroll(t *testing.T) {
	app := setup(t)
	setupCourse(t, app)
	learner := testutil.CreateUser(t, app.svcs.UserRepo, "Awe", "awe", "awe@test.cd", "", []string{user.RoleLearner}, true)

	req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+courseID+"/enrollment", getToken(t, learner), []byte(`{"mode": "Verified"}`))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("enroll() code = %v, want %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var enr enrollment.Enrollment
	if err := json.Unmarshal(rec.Body.Bytes(), &enr); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if enr.UserID != learner.ID || enr.CourseID != courseID || enr.Mode != course.ModeVerified || !enr.IsActive {
		t.Errorf("enroll() = %+v", enr)
	}
}

func Test_enrollmentApi_enrollAfterDeadline(t *testing.T) {
	app := setup(t)
	setupCourse(t, app)
	learner := testutil.CreateUser(t, app.svcs.UserRepo, "Awe", "awe", "awe@test.cd", "", []string{user.RoleLearner}, true)
	testutil.Enroll(t, app.svcs.Enrollments, learner.ID, courseID, course.ModeAudit)
	testutil.SetMode(t, app.svcs.Courses, courseID, course.ModeVerified, testutil.TimeRef(time.Now().UTC().AddDate(0, 0, -1)))
	token := getToken(t, learner)
	path := "/v1/courses/" + courseID + "/enrollment"

	tests := []httpTest{
		{
			name: "upgrade refused", method: http.MethodPost, path: path, token: token, body: []byte(`{"mode": "verified"}`),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, httpErr{Error: "the upgrade deadline has passed"}),
		},
		{name: "audit still allowed", method: http.MethodPost, path: path, token: token, body: []byte(`{"mode": "audit"}`), wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.run(t, app)
		})
	}

	enr, err := app.svcs.Enrollments.Get(context.Background(), learner.ID, courseID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if enr.Mode != course.ModeAudit {
		t.Errorf("mode = %v, want %v", enr.Mode, course.ModeAudit)
	}
}
