package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/dewinurmalitasari/geoviz-server/apps/api/echo"
	"github.com/dewinurmalitasari/geoviz-server/core/practice"
	"github.com/dewinurmalitasari/geoviz-server/core/statistic"
	"github.com/dewinurmalitasari/geoviz-server/core/user"
	"github.com/dewinurmalitasari/geoviz-server/tests"
)

func Test_practiceApi_submit(t *testing.T) {
	srv, r := setup(t)
	student := newPrincipal(user.RoleStudent)
	studentToken := getToken(t, student)

	tests := []httpTest{
		{
			name: "Students only", method: http.MethodPost, path: "/practices", token: getToken(t, newPrincipal(user.RoleAdmin)),
			body: []byte(`{"code":"P1","score":{"correct":1,"total":2}}`), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Negative score", method: http.MethodPost, path: "/practices", token: studentToken,
			body: []byte(`{"code":"P1","score":{"correct":-1,"total":2}}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{
				Message: "correct must be 0 or greater",
				Fields:  map[string]string{"correct": "correct must be 0 or greater"},
			}),
		},
		{
			name: "Content must be an object", method: http.MethodPost, path: "/practices", token: studentToken,
			body: []byte(`{"code":"P1","score":{"correct":1,"total":2},"content":"lol"}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{
				Message: "content must be an object",
				Fields:  map[string]string{"content": "content must be an object"},
			}),
		},
	}
	runHTTPTests(t, srv, tests)

	req, rec := newAuthRequest(http.MethodPost, "/practices", studentToken,
		[]byte(`{"code":"P1","score":{"correct":3,"total":4},"content":{"answers":[1,2,3,4]}}`))
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp PracticeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Practice submitted successfully", resp.Message)
	assert.Equal(t, "P1", resp.Practice.Code)
	assert.Equal(t, practice.Score{Correct: 3, Total: 4}, resp.Practice.Score)
	assert.Equal(t, student.ID, resp.Practice.UserID)

	// the submission is tracked as a completed practice
	events, err := r.events.QueryEventsByUser(context.Background(), student.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, statistic.PracticeCompletedPayload{Code: "P1", PracticeRef: resp.Practice.ID}, events[0].Payload)
}

func Test_practiceApi_queryByUser(t *testing.T) {
	srv, r := setup(t)
	student := newPrincipal(user.RoleStudent)
	prac := testutil.SubmitPractice(t, r.practices, r.events, student.ID, "P1", practice.Score{Correct: 1, Total: 1})
	path := "/practices/user/" + student.ID

	want := marchallObj(t, PracticesResponse{Message: "Practices retrieved successfully", Practices: []practice.Practice{prac}})

	tests := []httpTest{
		{name: "Auth required", path: path, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Other student", path: path, token: getToken(t, newPrincipal(user.RoleStudent)),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{name: "Self", path: path, token: getToken(t, student), wantData: want},
		{name: "Teacher", path: path, token: getToken(t, newPrincipal(user.RoleTeacher)), wantData: want},
		{
			name: "Malformed ID", path: "/practices/user/lol", token: getToken(t, newPrincipal(user.RoleAdmin)),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errUserNotFound),
		},
		{
			name: "Malformed ID (student)", path: "/practices/user/lol", token: getToken(t, student),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errUserNotFound),
		},
	}
	runHTTPTests(t, srv, tests)
}
