package httpHandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"wattwise-server/db"
	"wattwise-server/identity"
	"wattwise-server/middleware"
	"wattwise-server/repositories"
	"wattwise-server/usecases"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// tokenVerifier accepts "Bearer <subject>" and derives the email from it.
type tokenVerifier struct{}

func (tokenVerifier) VerifyToken(_ context.Context, token string) (*identity.Claims, error) {
	if token == "expired" {
		return nil, identity.ErrTokenExpired
	}
	return &identity.Claims{Subject: token, Email: token + "@example.com"}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Stack   string          `json:"stack"`
}

type profileView struct {
	ID                  string `json:"id"`
	IdentitySubjectID   string `json:"identitySubjectId"`
	Email               string `json:"email"`
	DisplayName         *string
	MonthlyBudget       float64 `json:"monthlyBudget"`
	Currency            string  `json:"currency"`
	OnboardingCompleted bool    `json:"onboardingCompleted"`
	Address             struct {
		State *string `json:"state"`
		City  *string `json:"city"`
	} `json:"address"`
	Household struct {
		PeopleCount int     `json:"peopleCount"`
		HouseType   *string `json:"houseType"`
	} `json:"household"`
	Appliances []map[string]interface{} `json:"appliances"`
	ActivePlan json.RawMessage          `json:"activePlan"`
}

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	database := &db.GormDatabase{DB: gdb}
	t.Cleanup(func() { _ = database.Close() })

	repo := repositories.NewProfilePgRepository(database)
	uc := usecases.NewProfileUseCase(repo, zap.NewNop())
	gate := middleware.NewGate(identity.Enabled(tokenVerifier{}), uc, zap.NewNop())

	r := gin.New()
	r.Use(middleware.Errors(zap.NewNop(), false), middleware.Recovery(), middleware.BodyLimit(10*1024))
	authHandler := NewAuthHandler()
	profileHandler := NewProfileHandler(uc)

	api := r.Group("/api/v1", gate.RequireAuth())
	api.POST("/auth/sync", authHandler.Sync)
	api.GET("/users/me", profileHandler.GetMe)
	api.PUT("/users/me", profileHandler.UpdateMe)
	api.PUT("/users/me/appliances", profileHandler.UpdateAppliances)
	return r, gdb
}

func call(t *testing.T, r http.Handler, method, path, token, body string) (int, envelope) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: body is not an envelope: %s", method, path, w.Body.String())
	}
	return w.Code, env
}

func decodeProfile(t *testing.T, env envelope) profileView {
	t.Helper()
	var p profileView
	if err := json.Unmarshal(env.Data, &p); err != nil {
		t.Fatalf("decode profile: %v (%s)", err, env.Data)
	}
	return p
}

func TestSyncCreatesThenReturnsSameProfile(t *testing.T) {
	r, _ := setupRouter(t)

	code, env := call(t, r, http.MethodPost, "/api/v1/auth/sync", "uid-1", "")
	if code != http.StatusOK || !env.Success || env.Message != "User synced successfully." {
		t.Fatalf("unexpected response %d %+v", code, env)
	}
	first := decodeProfile(t, env)
	if first.IdentitySubjectID != "uid-1" || first.Email != "uid-1@example.com" {
		t.Fatalf("unexpected profile %+v", first)
	}
	if first.Currency != "INR" || first.Household.PeopleCount != 2 || first.OnboardingCompleted {
		t.Fatalf("defaults not applied: %+v", first)
	}

	_, env = call(t, r, http.MethodPost, "/api/v1/auth/sync", "uid-1", "")
	if second := decodeProfile(t, env); second.ID != first.ID {
		t.Fatalf("second sync must return the same profile, got %s and %s", first.ID, second.ID)
	}
}

func TestProfileProjectionHasNoStoreInternals(t *testing.T) {
	r, _ := setupRouter(t)
	_, env := call(t, r, http.MethodGet, "/api/v1/users/me", "uid-1", "")

	var raw map[string]interface{}
	if err := json.Unmarshal(env.Data, &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"id", "identitySubjectId", "email", "appliances", "planPreferences", "createdAt"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
	for _, key := range []string{"ID", "deletedAt", "__v", "_id", "password"} {
		if _, ok := raw[key]; ok {
			t.Errorf("unexpected key %q", key)
		}
	}
}

func TestGateRejectsExpiredToken(t *testing.T) {
	r, _ := setupRouter(t)
	code, env := call(t, r, http.MethodGet, "/api/v1/users/me", "expired", "")
	if code != http.StatusUnauthorized || env.Message != "Token expired or revoked. Please sign in again." {
		t.Fatalf("unexpected response %d %+v", code, env)
	}
}

func TestUpdateMeMergesAddressKeys(t *testing.T) {
	r, _ := setupRouter(t)

	code, env := call(t, r, http.MethodPut, "/api/v1/users/me", "uid-1", `{"address":{"state":"MH","city":"Mumbai"}}`)
	if code != http.StatusOK {
		t.Fatalf("first update: %d %+v", code, env)
	}

	code, env = call(t, r, http.MethodPut, "/api/v1/users/me", "uid-1", `{"address":{"city":"Pune"},"monthlyBudget":3000}`)
	if code != http.StatusOK || env.Message != "Profile updated." {
		t.Fatalf("second update: %d %+v", code, env)
	}
	p := decodeProfile(t, env)
	if p.Address.State == nil || *p.Address.State != "MH" {
		t.Fatalf("state should survive a city-only update: %+v", p.Address)
	}
	if p.Address.City == nil || *p.Address.City != "Pune" || p.MonthlyBudget != 3000 {
		t.Fatalf("update not applied: %+v", p)
	}
}

func TestUpdateMeIgnoresIdentityFields(t *testing.T) {
	r, _ := setupRouter(t)
	code, env := call(t, r, http.MethodPut, "/api/v1/users/me", "uid-1", `{"email":"evil@example.com","identitySubjectId":"other"}`)
	if code != http.StatusOK {
		t.Fatalf("unexpected status %d %+v", code, env)
	}
	p := decodeProfile(t, env)
	if p.Email != "uid-1@example.com" || p.IdentitySubjectID != "uid-1" {
		t.Fatalf("identity fields changed: %+v", p)
	}
}

func TestUpdateMeEmptyBodyReturnsProfile(t *testing.T) {
	r, _ := setupRouter(t)
	code, env := call(t, r, http.MethodPut, "/api/v1/users/me", "uid-1", "")
	if code != http.StatusOK || decodeProfile(t, env).IdentitySubjectID != "uid-1" {
		t.Fatalf("unexpected response %d %+v", code, env)
	}
}

func TestUpdateMeValidation(t *testing.T) {
	r, _ := setupRouter(t)
	_, _ = call(t, r, http.MethodPut, "/api/v1/users/me", "uid-1", `{"currency":"USD"}`)

	for _, body := range []string{
		`{"currency":"XYZ","monthlyBudget":10}`,
		`{"monthlyBudget":"lots"}`,
		`{"household":{"peopleCount":"four"}}`,
		`{not json`,
	} {
		code, env := call(t, r, http.MethodPut, "/api/v1/users/me", "uid-1", body)
		if code != http.StatusBadRequest || env.Success {
			t.Errorf("%s: expected 400, got %d %+v", body, code, env)
		}
		if env.Stack == "" {
			t.Errorf("%s: stack expected outside production", body)
		}
	}

	_, env := call(t, r, http.MethodGet, "/api/v1/users/me", "uid-1", "")
	p := decodeProfile(t, env)
	if p.Currency != "USD" || p.MonthlyBudget != 0 {
		t.Fatalf("rejected updates must not be written: %+v", p)
	}
}

func TestUpdateMeClearsNullableFields(t *testing.T) {
	r, _ := setupRouter(t)
	_, _ = call(t, r, http.MethodPut, "/api/v1/users/me", "uid-1", `{"household":{"houseType":"flat"},"activePlan":{"id":"eco"}}`)

	code, env := call(t, r, http.MethodPut, "/api/v1/users/me", "uid-1", `{"household":{"houseType":null},"activePlan":null}`)
	if code != http.StatusOK {
		t.Fatalf("unexpected status %d %+v", code, env)
	}
	p := decodeProfile(t, env)
	if p.Household.HouseType != nil || p.Household.PeopleCount != 2 {
		t.Fatalf("unexpected household %+v", p.Household)
	}
	if string(p.ActivePlan) != "null" {
		t.Fatalf("active plan should be cleared, got %s", p.ActivePlan)
	}
}

func TestUpdateAppliances(t *testing.T) {
	r, _ := setupRouter(t)

	body := `{"appliances":[{"applianceId":"ac-1","title":"AC","category":"cooling","usageHours":6.5,"usageLevel":"high","count":2,"selectedDropdowns":{"tonnage":"1.5"}}]}`
	code, env := call(t, r, http.MethodPut, "/api/v1/users/me/appliances", "uid-1", body)
	if code != http.StatusOK || env.Message != "Appliances updated." {
		t.Fatalf("unexpected response %d %+v", code, env)
	}
	p := decodeProfile(t, env)
	if !p.OnboardingCompleted || len(p.Appliances) != 1 || p.Appliances[0]["title"] != "AC" {
		t.Fatalf("unexpected profile %+v", p)
	}

	// full replace, not append
	code, env = call(t, r, http.MethodPut, "/api/v1/users/me/appliances", "uid-1", `{"appliances":[]}`)
	p = decodeProfile(t, env)
	if code != http.StatusOK || len(p.Appliances) != 0 || !p.OnboardingCompleted {
		t.Fatalf("unexpected replace result %d %+v", code, p)
	}
}

func TestUpdateAppliancesRequiresArray(t *testing.T) {
	r, _ := setupRouter(t)
	rejected := []string{`{"appliances":{"title":"AC"}}`, `{"appliances":null}`, `{}`, `{"appliances":"AC"}`}
	reject := func() {
		t.Helper()
		for _, body := range rejected {
			code, env := call(t, r, http.MethodPut, "/api/v1/users/me/appliances", "uid-1", body)
			if code != http.StatusBadRequest || env.Message != "Appliances must be an array." {
				t.Errorf("%s: unexpected response %d %+v", body, code, env)
			}
		}
	}

	reject()
	_, env := call(t, r, http.MethodGet, "/api/v1/users/me", "uid-1", "")
	if decodeProfile(t, env).OnboardingCompleted {
		t.Fatal("rejected request must not complete onboarding")
	}

	code, _ := call(t, r, http.MethodPut, "/api/v1/users/me/appliances", "uid-1",
		`{"appliances":[{"applianceId":"ac-1","title":"AC","count":1}]}`)
	if code != http.StatusOK {
		t.Fatalf("storing appliances: %d", code)
	}

	reject()
	_, env = call(t, r, http.MethodGet, "/api/v1/users/me", "uid-1", "")
	p := decodeProfile(t, env)
	if len(p.Appliances) != 1 || p.Appliances[0]["title"] != "AC" || !p.OnboardingCompleted {
		t.Fatalf("rejected requests must leave the stored list unchanged: %+v", p.Appliances)
	}
}

func TestBodyTooLarge(t *testing.T) {
	r, _ := setupRouter(t)
	body := `{"displayName":"` + strings.Repeat("a", 11*1024) + `"}`
	code, env := call(t, r, http.MethodPut, "/api/v1/users/me", "uid-1", body)
	if code != http.StatusRequestEntityTooLarge || env.Success {
		t.Fatalf("expected 413, got %d %+v", code, env)
	}
}

func TestGetMeAfterProfileRemoved(t *testing.T) {
	r, gdb := setupRouter(t)
	_, env := call(t, r, http.MethodPost, "/api/v1/auth/sync", "uid-1", "")
	p := decodeProfile(t, env)

	// remove the row behind the gate's back, then hit the handler with a
	// principal that still carries the stale id
	if err := gdb.Exec("DELETE FROM profiles WHERE id = ?", p.ID).Error; err != nil {
		t.Fatalf("delete: %v", err)
	}

	repo := repositories.NewProfilePgRepository(&db.GormDatabase{DB: gdb})
	h := NewProfileHandler(usecases.NewProfileUseCase(repo, zap.NewNop()))
	stale := gin.New()
	stale.Use(middleware.Errors(zap.NewNop(), true))
	stale.GET("/me", func(c *gin.Context) {
		var principal middleware.Principal
		principal.Profile.ID = p.ID
		c.Request = c.Request.WithContext(middleware.WithPrincipal(c.Request.Context(), principal))
		c.Next()
	}, h.GetMe)

	code, env := call(t, stale, http.MethodGet, "/me", "", "")
	if code != http.StatusNotFound || env.Message != "User not found." {
		t.Fatalf("expected 404, got %d %+v", code, env)
	}
}
