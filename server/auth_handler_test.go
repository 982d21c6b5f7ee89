package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"soundvault/config"
	"soundvault/core/auth"
	"soundvault/core/media"
	"soundvault/model"
)

type testEnv struct {
	handler   *APIHandler
	users     *fakeUserRepo
	tracks    *fakeTrackRepo
	playlists *fakePlaylistRepo
	recents   *fakeRecentRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	auth.Configure("test-secret", time.Hour)

	cfg := &config.Config{
		CookieName:      "token",
		YtdlpPath:       "yt-dlp",
		DownloadDir:     t.TempDir(),
		DownloadTimeout: time.Minute,
		AllowedHosts:    []string{"youtube.com", "www.youtube.com", "youtu.be"},
	}

	tracks := newFakeTrackRepo()
	users := newFakeUserRepo(tracks)
	playlists := newFakePlaylistRepo()
	recents := newFakeRecentRepo()

	return &testEnv{
		handler:   NewAPIHandler(users, tracks, playlists, recents, media.NewConverter(cfg), cfg),
		users:     users,
		tracks:    tracks,
		playlists: playlists,
		recents:   recents,
	}
}

// addUser seeds an account and returns it as stored.
func (e *testEnv) addUser(t *testing.T, username, email, password, role string) *model.User {
	t.Helper()
	hash := ""
	if password != "" {
		var err error
		hash, err = auth.HashPassword(password)
		if err != nil {
			t.Fatalf("hash password: %v", err)
		}
	}
	user := &model.User{Username: username, Email: email, PasswordHash: hash, Role: role}
	if _, err := e.users.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

// asUser attaches an authenticated user to the request context, the way
// AuthMiddleware does after verifying a token.
func asUser(r *http.Request, user *model.User) *http.Request {
	stripped := *user
	stripped.PasswordHash = ""
	ctx := context.WithValue(r.Context(), userContextKey, &stripped)
	return r.WithContext(ctx)
}

func jsonBody(t *testing.T, v interface{}) *bytes.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return bytes.NewReader(data)
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}

func TestRegisterHandler(t *testing.T) {
	env := newTestEnv(t)

	body := jsonBody(t, map[string]string{
		"username": "alice",
		"email":    "Alice@Example.com",
		"password": "s3cret",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", body)
	rr := httptest.NewRecorder()
	env.handler.RegisterHandler(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rr.Code, rr.Body.String())
	}

	var resp authResponse
	decodeBody(t, rr, &resp)
	if !resp.Success || resp.Token == "" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.User == nil || resp.User.Email != "alice@example.com" {
		t.Errorf("email not lowercased: %+v", resp.User)
	}
	if resp.User.Role != model.RoleUser {
		t.Errorf("role = %q, want user", resp.User.Role)
	}

	var cookie *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == "token" {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("auth cookie not set")
	}
	if !cookie.HttpOnly {
		t.Error("auth cookie not http-only")
	}

	claims, err := auth.ParseToken(resp.Token)
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if claims.UserID != resp.User.ID {
		t.Errorf("token user = %d, want %d", claims.UserID, resp.User.ID)
	}
}

func TestRegisterHandlerDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", "alice@example.com", "s3cret", model.RoleUser)

	body := jsonBody(t, map[string]string{
		"username": "impostor",
		"email":    "ALICE@example.com",
		"password": "other",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", body)
	rr := httptest.NewRecorder()
	env.handler.RegisterHandler(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409: %s", rr.Code, rr.Body.String())
	}
}

func TestRegisterHandlerMissingFields(t *testing.T) {
	env := newTestEnv(t)

	body := jsonBody(t, map[string]string{"username": "alice"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", body)
	rr := httptest.NewRecorder()
	env.handler.RegisterHandler(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestLoginHandler(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", "alice@example.com", "s3cret", model.RoleUser)
	env.addUser(t, "ext", "ext@example.com", "", model.RoleUser)

	cases := []struct {
		name     string
		email    string
		password string
		want     int
	}{
		{"success", "alice@example.com", "s3cret", http.StatusOK},
		{"case insensitive email", "ALICE@EXAMPLE.COM", "s3cret", http.StatusOK},
		{"unknown email", "nobody@example.com", "s3cret", http.StatusNotFound},
		{"wrong password", "alice@example.com", "nope", http.StatusUnauthorized},
		{"no password set", "ext@example.com", "anything", http.StatusForbidden},
		{"missing fields", "", "", http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := jsonBody(t, map[string]string{"email": tc.email, "password": tc.password})
			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
			rr := httptest.NewRecorder()
			env.handler.LoginHandler(rr, req)

			if rr.Code != tc.want {
				t.Fatalf("status = %d, want %d: %s", rr.Code, tc.want, rr.Body.String())
			}
			if tc.want == http.StatusOK {
				var resp authResponse
				decodeBody(t, rr, &resp)
				if resp.Token == "" {
					t.Error("no token in login response")
				}
				if len(rr.Result().Cookies()) == 0 {
					t.Error("no cookie set on login")
				}
			}
		})
	}
}

func TestLogoutHandlerClearsCookie(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	rr := httptest.NewRecorder()
	env.handler.LogoutHandler(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "token" || cookies[0].MaxAge != -1 {
		t.Errorf("expected expired token cookie, got %+v", cookies)
	}
}

func TestFavoritesFlow(t *testing.T) {
	env := newTestEnv(t)
	user := env.addUser(t, "alice", "alice@example.com", "s3cret", model.RoleUser)
	track := env.tracks.add(&model.Track{Name: "Song", UserID: user.ID})

	save := func() *httptest.ResponseRecorder {
		body := jsonBody(t, map[string]int64{"trackId": track.ID})
		req := asUser(httptest.NewRequest(http.MethodPost, "/api/auth/saveToFavorites", body), user)
		rr := httptest.NewRecorder()
		env.handler.SaveToFavoritesHandler(rr, req)
		return rr
	}

	if rr := save(); rr.Code != http.StatusOK {
		t.Fatalf("first save status = %d: %s", rr.Code, rr.Body.String())
	}
	if rr := save(); rr.Code != http.StatusConflict {
		t.Fatalf("duplicate save status = %d, want 409", rr.Code)
	}

	// Membership check
	req := asUser(httptest.NewRequest(http.MethodGet, "/api/auth/isFavourite?trackId=1", nil), user)
	rr := httptest.NewRecorder()
	env.handler.IsFavouriteHandler(rr, req)
	var isFav struct {
		TrackID    int64 `json:"trackId"`
		IsFavorite bool  `json:"isFavorite"`
	}
	decodeBody(t, rr, &isFav)
	if !isFav.IsFavorite || isFav.TrackID != track.ID {
		t.Errorf("isFavourite = %+v, want favorite track %d", isFav, track.ID)
	}

	// Profile expands favorites to full tracks
	req = asUser(httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil), user)
	rr = httptest.NewRecorder()
	env.handler.ProfileHandler(rr, req)
	var profile struct {
		User struct {
			model.User
			Favorites []*model.Track `json:"favorites"`
		} `json:"user"`
	}
	decodeBody(t, rr, &profile)
	if len(profile.User.Favorites) != 1 || profile.User.Favorites[0].Name != "Song" {
		t.Errorf("profile favorites = %+v", profile.User.Favorites)
	}

	// Remove, then removing again is 404
	remove := func() *httptest.ResponseRecorder {
		body := jsonBody(t, map[string]int64{"trackId": track.ID})
		req := asUser(httptest.NewRequest(http.MethodPost, "/api/auth/removeFavourites", body), user)
		rr := httptest.NewRecorder()
		env.handler.RemoveFavouritesHandler(rr, req)
		return rr
	}
	if rr := remove(); rr.Code != http.StatusOK {
		t.Fatalf("remove status = %d", rr.Code)
	}
	if rr := remove(); rr.Code != http.StatusNotFound {
		t.Fatalf("second remove status = %d, want 404", rr.Code)
	}
}
