package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	. "github.com/dewinurmalitasari/geoviz-server/apps/api/echo"
	"github.com/dewinurmalitasari/geoviz-server/core"
	"github.com/dewinurmalitasari/geoviz-server/core/material"
	"github.com/dewinurmalitasari/geoviz-server/core/practice"
	"github.com/dewinurmalitasari/geoviz-server/core/reaction"
	"github.com/dewinurmalitasari/geoviz-server/core/statistic"
	"github.com/dewinurmalitasari/geoviz-server/core/user"
	"github.com/dewinurmalitasari/geoviz-server/storage/database/inmem"
)

var (
	conf = &core.Config{
		AppName:   "GeoViz",
		SecretKey: "test-secret",
		TestMode:  true,
		Server:    core.ServerConfig{JWTExpirationDelta: time.Hour},
	}

	errMissingToken = httpErr{Message: "missing or malformed jwt"}
	errForbidden    = httpErr{Message: "permission denied"}
	errUserNotFound = httpErr{Message: "user not found"}
)

type repos struct {
	events    statistic.Repository
	materials material.Repository
	practices practice.Repository
	reactions reaction.Repository
}

func setup(t *testing.T) (Server, repos) {
	t.Helper()

	// set up DB & repos
	db := inmemdb.NewDB()
	r := repos{
		events:    inmemdb.NewStatisticRepository(db),
		materials: inmemdb.NewMaterialRepository(db),
		practices: inmemdb.NewPracticeRepository(db),
		reactions: inmemdb.NewReactionRepository(db),
	}

	// set up services
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)

	logger := nopLogger{}
	statSvc := statistic.NewService(r.events, r.materials, r.practices, validate)
	matSvc := material.NewService(r.materials, nil, logger, validate)
	pracSvc := practice.NewService(inmemdb.NewTxRunner(db), r.practices, r.events, nil, logger, validate)
	reactSvc := reaction.NewService(r.reactions, r.materials, validate)

	// set up server
	srv := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		StatisticSvc:   statSvc,
		MaterialSvc:    matSvc,
		PracticeSvc:    pracSvc,
		ReactionSvc:    reactSvc,
		Translator:     translator,
		DisableReqLogs: true,
	})
	return srv, r
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type httpErr struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
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

func getToken(t *testing.T, p user.Principal) string {
	token, err := GenerateToken(GetPrincipalClaims(p, conf), conf)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func newPrincipal(role string) user.Principal {
	return user.Principal{ID: core.NewID(), Role: role}
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, srv Server, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			if tt.wantCode == 0 {
				tt.wantCode = http.StatusOK
			}
			req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
			srv.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
