package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/dewinurmalitasari/geoviz-server/apps/api/echo"
	"github.com/dewinurmalitasari/geoviz-server/core"
	"github.com/dewinurmalitasari/geoviz-server/core/reaction"
	"github.com/dewinurmalitasari/geoviz-server/core/user"
	"github.com/dewinurmalitasari/geoviz-server/tests"
)

var errReactionNotFound = httpErr{Message: "reaction not found"}

func Test_reactionApi_react(t *testing.T) {
	srv, r := setup(t)
	student := newPrincipal(user.RoleStudent)
	studentToken := getToken(t, student)
	mat := testutil.CreateMaterial(t, r.materials, "Pythagoras")

	invalid := func(field, msg string) []byte {
		return marchallObj(t, httpErr{Message: msg, Fields: map[string]string{field: msg}})
	}

	tests := []httpTest{
		{
			name: "Auth required", method: http.MethodPost, path: "/reactions",
			body: []byte(`{"reaction":"happy","type":"practice","practiceCode":"P1"}`),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Students only", method: http.MethodPost, path: "/reactions", token: getToken(t, newPrincipal(user.RoleTeacher)),
			body:     []byte(`{"reaction":"happy","type":"practice","practiceCode":"P1"}`),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Missing reaction", method: http.MethodPost, path: "/reactions", token: studentToken,
			body: []byte(`{"type":"practice","practiceCode":"P1"}`), wantCode: http.StatusBadRequest,
			wantData: invalid("reaction", "reaction is required"),
		},
		{
			name: "Material without ID", method: http.MethodPost, path: "/reactions", token: studentToken,
			body: []byte(`{"reaction":"happy","type":"material"}`), wantCode: http.StatusBadRequest,
			wantData: invalid("materialId", "materialId is required"),
		},
		{
			name: "Material with bad ID", method: http.MethodPost, path: "/reactions", token: studentToken,
			body: []byte(`{"reaction":"happy","type":"material","materialId":"lol"}`), wantCode: http.StatusBadRequest,
			wantData: invalid("materialId", "materialId is invalid"),
		},
		{
			name: "Unknown material", method: http.MethodPost, path: "/reactions", token: studentToken,
			body:     []byte(`{"reaction":"happy","type":"material","materialId":"` + core.NewID() + `"}`),
			wantCode: http.StatusBadRequest, wantData: invalid("materialId", "material not found"),
		},
		{
			name: "Practice without code", method: http.MethodPost, path: "/reactions", token: studentToken,
			body: []byte(`{"reaction":"sad","type":"practice"}`), wantCode: http.StatusBadRequest,
			wantData: invalid("practiceCode", "practiceCode is required"),
		},
	}
	runHTTPTests(t, srv, tests)

	post := func(body string) reaction.Reaction {
		req, rec := newAuthRequest(http.MethodPost, "/reactions", studentToken, []byte(body))
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp ReactionResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Reaction saved successfully", resp.Message)
		return resp.Reaction
	}

	first := post(`{"reaction":"happy","type":"material","materialId":"` + mat.ID + `"}`)
	assert.Equal(t, reaction.KindMaterial, first.Type)
	assert.Equal(t, mat.ID, first.MaterialID)
	assert.Equal(t, student.ID, first.UserID)

	// reacting again replaces the reaction in place
	second := post(`{"reaction":"confused","type":"material","materialId":"` + mat.ID + `"}`)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "confused", second.Reaction)

	post(`{"reaction":"neutral","type":"practice","practiceCode":"P1"}`)

	reactions, err := r.reactions.QueryReactionsByUser(context.Background(), student.ID)
	require.NoError(t, err)
	assert.Len(t, reactions, 2)
}

func Test_reactionApi_queryByUser(t *testing.T) {
	srv, r := setup(t)
	student := newPrincipal(user.RoleStudent)
	mat := testutil.CreateMaterial(t, r.materials, "Circles")

	onMaterial := testutil.React(t, r.reactions, student.ID, reaction.KindMaterial, mat.ID, reaction.Happy)
	time.Sleep(time.Millisecond)
	onPractice := testutil.React(t, r.reactions, student.ID, reaction.KindPractice, "P1", reaction.Sad)
	testutil.React(t, r.reactions, newPrincipal(user.RoleStudent).ID, reaction.KindPractice, "P1", reaction.Happy)

	path := "/reactions/user/" + student.ID
	want := marchallObj(t, ReactionsResponse{
		Message:   "Reactions retrieved successfully",
		Reactions: []reaction.Reaction{onMaterial, onPractice},
	})

	tests := []httpTest{
		{name: "Auth required", path: path, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Other student", path: path, token: getToken(t, newPrincipal(user.RoleStudent)),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{name: "Self", path: path, token: getToken(t, student), wantData: want},
		{name: "Teacher", path: path, token: getToken(t, newPrincipal(user.RoleTeacher)), wantData: want},
		{
			name: "No reactions", path: "/reactions/user/" + newPrincipal(user.RoleStudent).ID,
			token: getToken(t, newPrincipal(user.RoleAdmin)),
			wantData: marchallObj(t, ReactionsResponse{
				Message:   "Reactions retrieved successfully",
				Reactions: []reaction.Reaction{},
			}),
		},
		{
			name: "Malformed ID (student)", path: "/reactions/user/lol", token: getToken(t, student),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errUserNotFound),
		},
	}
	runHTTPTests(t, srv, tests)
}

func Test_reactionApi_retrieveAndDestroy(t *testing.T) {
	srv, r := setup(t)
	student := newPrincipal(user.RoleStudent)
	studentToken := getToken(t, student)
	mat := testutil.CreateMaterial(t, r.materials, "Triangles")

	onMaterial := testutil.React(t, r.reactions, student.ID, reaction.KindMaterial, mat.ID, reaction.Happy)
	onPractice := testutil.React(t, r.reactions, student.ID, reaction.KindPractice, "P1", reaction.Sad)
	deleted := marchallObj(t, httpErr{Message: "Reaction deleted successfully"})

	tests := []httpTest{
		{
			name: "Students only", path: "/reactions/material/" + mat.ID, token: getToken(t, newPrincipal(user.RoleAdmin)),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Material reaction", path: "/reactions/material/" + mat.ID, token: studentToken,
			wantData: marchallObj(t, ReactionResponse{Message: "Reaction retrieved successfully", Reaction: onMaterial}),
		},
		{
			name: "Practice reaction", path: "/reactions/practice/P1", token: studentToken,
			wantData: marchallObj(t, ReactionResponse{Message: "Reaction retrieved successfully", Reaction: onPractice}),
		},
		{
			name: "Malformed material ID", path: "/reactions/material/lol", token: studentToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errMaterialNotFound),
		},
		{
			name: "Other student's view", path: "/reactions/practice/P1", token: getToken(t, newPrincipal(user.RoleStudent)),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errReactionNotFound),
		},
		{
			name: "Delete material reaction", method: http.MethodDelete, path: "/reactions/material/" + mat.ID,
			token: studentToken, wantData: deleted,
		},
		{
			name: "Delete again", method: http.MethodDelete, path: "/reactions/material/" + mat.ID,
			token: studentToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, errReactionNotFound),
		},
		{
			name: "Delete practice reaction", method: http.MethodDelete, path: "/reactions/practice/P1",
			token: studentToken, wantData: deleted,
		},
		{
			name: "Gone", path: "/reactions/practice/P1", token: studentToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errReactionNotFound),
		},
	}
	runHTTPTests(t, srv, tests)
}
