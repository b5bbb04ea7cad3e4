package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/coursetools/apps/api/echo"
	"github.com/trezcool/coursetools/core"
	"github.com/trezcool/coursetools/core/coursetool"
	"github.com/trezcool/coursetools/core/reminder"
	"github.com/trezcool/coursetools/core/task"
	"github.com/trezcool/coursetools/core/user"
	"github.com/trezcool/coursetools/services/email"
	"github.com/trezcool/coursetools/testutil"
)

const courseID = "course-v1:edX+DemoX+2024"

var (
	conf = &core.Config{
		TestMode:        true,
		AppName:         "Course Tools",
		SecretKey:       "test-secret",
		FrontendBaseURL: "http://localhost:3000",
		Server: core.ServerConfig{
			DisableReqLogs:            true,
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: time.Hour,
			PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		},
		Upgrade: core.UpgradeConfig{DeadlineDays: 21, ReminderWindow: 48 * time.Hour},
		Tasks:   core.TasksConfig{Workers: 1, QueueSize: 10},
	}

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

type testApp struct {
	Server
	svcs   *testutil.Services
	mailer *emailsvc.ConsoleServiceMock
	logger *testutil.Logger
}

func setup(t *testing.T) *testApp {
	svcs := testutil.NewServices(t)
	logger := &testutil.Logger{}
	mailer := emailsvc.NewConsoleServiceMock(conf, logger)

	tools := coursetool.NewDefaultManager(coursetool.Deps{
		Courses:     svcs.Courses,
		Enrollments: svcs.Enrollments,
		Deadlines:   svcs.Deadlines,
	}, conf.FrontendBaseURL)
	upgradeTool, _ := tools.Tool(coursetool.VerifiedUpgradeID)

	queue := task.NewQueue(conf.Tasks, logger)
	reminder.Register(queue, reminder.Deps{
		Conf:        conf,
		Courses:     svcs.Courses,
		Enrollments: svcs.Enrollments,
		Users:       svcs.Users,
		UpgradeTool: upgradeTool,
		Mailer:      mailer,
		Logger:      logger,
	})
	queue.Start(context.Background())
	t.Cleanup(queue.Stop)

	srv := NewServer("", nil, &Deps{
		Conf:          conf,
		Logger:        logger,
		UserSvc:       svcs.Users,
		PasswordReset: user.NewPasswordReset(svcs.Users, conf, mailer),
		CourseSvc:     svcs.Courses,
		DeadlineSvc:   svcs.Deadlines,
		EnrollmentSvc: svcs.Enrollments,
		Tools:         tools,
		Tasks:         queue,
	})
	return &testApp{Server: srv, svcs: svcs, mailer: mailer, logger: logger}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func (tt httpTest) run(t *testing.T, app http.Handler) *httptest.ResponseRecorder {
	method := tt.method
	if method == "" {
		method = http.MethodGet
	}
	req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, tt, rec)
	return rec
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	token, err := GenerateToken(conf, GetUserClaims(conf, usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}

func marshallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marshallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if _, ok := j1.([]interface{}); !ok {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func TestServer_home(t *testing.T) {
	app := setup(t)
	req, rec := newRequest(http.MethodGet, "/")
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "Welcome to Course Tools API!" {
		t.Errorf("home = %d %q", rec.Code, rec.Body.String())
	}
}
