package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripgate/internal/arrivalcard"
	"tripgate/internal/audit"
	"tripgate/internal/challenge"
	"tripgate/internal/domain"
	"tripgate/internal/entry"
	"tripgate/internal/funds"
	"tripgate/internal/platform/config"
	"tripgate/internal/platform/middleware"
	"tripgate/internal/profile"
	"tripgate/internal/remote"
	"tripgate/internal/submission"
	"tripgate/internal/traveler"
)

// staticValidator maps bearer tokens straight to user IDs.
type staticValidator struct {
	users map[string]domain.UserID
}

func (v *staticValidator) ValidateToken(token string) (*middleware.JWTClaims, error) {
	userID, ok := v.users[token]
	if !ok {
		return nil, errors.New("unknown token")
	}
	return &middleware.JWTClaims{UserID: userID}, nil
}

type fakeRemote struct {
	result *remote.Result
	err    error
}

func (f *fakeRemote) Submit(_ context.Context, _ *domain.TravelerPayload, _ string) (*remote.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type apiFixture struct {
	t        *testing.T
	server   *httptest.Server
	token    string
	userID   domain.UserID
	profiles *profile.InMemoryStore
	funds    *funds.InMemoryStore
	remote   *fakeRemote
	sessions *challenge.InMemorySessionStore
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	userID := domain.NewUserID()
	validator := &staticValidator{users: map[string]domain.UserID{"valid-token": userID}}

	profiles := profile.NewInMemoryStore()
	fundStore := funds.NewInMemoryStore()
	entries := entry.NewInMemoryStore()
	cards := arrivalcard.NewInMemoryStore()
	sessions := challenge.NewInMemorySessionStore()
	events := audit.NewInMemoryStore()
	remoteClient := &fakeRemote{result: &remote.Result{ArrCardNo: "TH-2026-100", QRUri: "https://cards/100.png"}}

	recorder := audit.NewRecorder(events, nil, logger)
	recCtx, cancel := context.WithCancel(context.Background())
	go recorder.Run(recCtx)
	t.Cleanup(func() {
		cancel()
		recorder.Close()
	})

	builder := traveler.NewBuilder(
		profile.NewAccessor(profiles, fundStore),
		traveler.StaticRuleSource{Default: traveler.DefaultRuleSet()},
	)
	entryService := entry.NewService(entries, builder, logger)
	cfg := config.SubmissionConfig{
		WindowHours:       72,
		PollInterval:      time.Millisecond,
		MaxPolls:          5,
		DuplicateLookback: 7 * 24 * time.Hour,
		PersistRetries:    2,
		LockTTL:           time.Minute,
	}
	submitter := submission.NewService(
		entries, builder,
		arrivalcard.NewGuard(cards, 0), cards,
		sessions, challenge.NewExtractor(logger),
		remoteClient, recorder, submission.NewLocalLocker(),
		cfg, logger, nil,
	)

	router := NewRouter(logger, nil, nil,
		NewEntryHandler(entryService, submitter, cards, events, validator, logger),
		NewChallengeHandler(sessions, entryService, validator, logger),
		NewFundsHandler(funds.NewService(fundStore, logger), validator, logger),
		NewProfileHandler(profiles, validator, logger),
	)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &apiFixture{
		t:        t,
		server:   server,
		token:    "valid-token",
		userID:   userID,
		profiles: profiles,
		funds:    fundStore,
		remote:   remoteClient,
		sessions: sessions,
	}
}

func (f *apiFixture) do(method, path string, body any) (*http.Response, []byte) {
	f.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(f.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, f.server.URL+path, reader)
	require.NoError(f.t, err)
	req.Header.Set("Authorization", "Bearer "+f.token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := f.server.Client().Do(req)
	require.NoError(f.t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(f.t, err)
	resp.Body.Close()
	return resp, raw
}

// seedCompleteProfile loads every record a valid payload needs, arriving
// within the submission window.
func (f *apiFixture) seedCompleteProfile() {
	f.t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(f.t, f.profiles.PutPassport(ctx, f.userID, domain.Passport{
		Number: "X1234567", Surname: "DOE", GivenNames: "JANE",
		Nationality: "USA", Sex: "F",
		DateOfBirth: time.Date(1990, 4, 2, 0, 0, 0, 0, time.UTC),
		ExpiryDate:  now.Add(5 * 365 * 24 * time.Hour),
	}))
	require.NoError(f.t, f.profiles.PutPersonalInfo(ctx, f.userID, domain.PersonalInfo{
		Email: "jane@example.com", Phone: "+1 555 0100",
		Occupation: "engineer", CountryOfResidence: "USA",
	}))
	require.NoError(f.t, f.profiles.PutTravelInfo(ctx, f.userID, domain.TravelInfo{
		DestinationID: "TH",
		ArrivalAt:     now.Add(48 * time.Hour),
		DepartureAt:   now.Add(10 * 24 * time.Hour),
		FlightNo:      "TG 917", PurposeOfVisit: "tourism",
		AccommodationAddress: "123 Sukhumvit Rd, Bangkok",
	}))
	require.NoError(f.t, f.funds.Create(ctx, &domain.FundItem{
		ID: domain.NewFundItemID(), UserID: f.userID,
		Type: "cash", Amount: 50000, Currency: "THB",
	}))
}

func (f *apiFixture) createEntry() string {
	f.t.Helper()
	resp, raw := f.do(http.MethodPost, "/v1/entries", map[string]string{"destination_id": "TH"})
	require.Equal(f.t, http.StatusCreated, resp.StatusCode, string(raw))
	var entry entryDTO
	require.NoError(f.t, json.Unmarshal(raw, &entry))
	return entry.ID
}

// solvedSession creates a challenge session over the API and posts a token
// into it, as the widget would.
func (f *apiFixture) solvedSession(entryID string) string {
	f.t.Helper()
	resp, raw := f.do(http.MethodPost, "/v1/challenge/sessions", map[string]string{"entry_id": entryID})
	require.Equal(f.t, http.StatusCreated, resp.StatusCode, string(raw))
	var session sessionDTO
	require.NoError(f.t, json.Unmarshal(raw, &session))

	resp, raw = f.do(http.MethodPost, fmt.Sprintf("/v1/challenge/sessions/%s/token", session.ID), map[string]string{"token": "solved"})
	require.Equal(f.t, http.StatusNoContent, resp.StatusCode, string(raw))
	return session.ID
}

func TestEntries_Unauthorized(t *testing.T) {
	f := newAPIFixture(t)
	f.token = "wrong"
	resp, _ := f.do(http.MethodGet, "/v1/entries", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestEntries_CreateAndGet(t *testing.T) {
	f := newAPIFixture(t)
	entryID := f.createEntry()

	resp, raw := f.do(http.MethodGet, "/v1/entries/"+entryID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got entryDTO
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "TH", got.DestinationID)
	assert.Equal(t, string(domain.EntryStatusIncomplete), got.Status)

	resp, raw = f.do(http.MethodGet, "/v1/entries", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Entries []entryDTO `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(raw, &list))
	assert.Len(t, list.Entries, 1)
}

func TestEntries_RefreshCompletion(t *testing.T) {
	f := newAPIFixture(t)
	entryID := f.createEntry()

	resp, raw := f.do(http.MethodPost, "/v1/entries/"+entryID+"/refresh", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got entryDTO
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.False(t, got.Completion.Complete())

	f.seedCompleteProfile()
	resp, raw = f.do(http.MethodPost, "/v1/entries/"+entryID+"/refresh", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.True(t, got.Completion.Complete())
	assert.Equal(t, string(domain.EntryStatusReady), got.Status)
}

func TestSubmit_EndToEnd(t *testing.T) {
	f := newAPIFixture(t)
	f.seedCompleteProfile()
	entryID := f.createEntry()
	sessionID := f.solvedSession(entryID)

	resp, raw := f.do(http.MethodPost, "/v1/entries/"+entryID+"/submit",
		map[string]any{"challenge_session_id": sessionID})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var card cardDTO
	require.NoError(t, json.Unmarshal(raw, &card))
	assert.Equal(t, "TH-2026-100", card.ArrCardNo)
	assert.Equal(t, "success", card.Status)

	// Attempt history includes the new card.
	resp, raw = f.do(http.MethodGet, "/v1/entries/"+entryID+"/cards", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cards struct {
		Cards []cardDTO `json:"cards"`
	}
	require.NoError(t, json.Unmarshal(raw, &cards))
	require.Len(t, cards.Cards, 1)

	// Audit trail recorded the outcome.
	require.Eventually(t, func() bool {
		resp, raw = f.do(http.MethodGet, "/v1/entries/"+entryID+"/audit", nil)
		if resp.StatusCode != http.StatusOK {
			return false
		}
		var trail struct {
			Events []audit.Event `json:"events"`
		}
		if err := json.Unmarshal(raw, &trail); err != nil {
			return false
		}
		for _, e := range trail.Events {
			if e.Action == audit.ActionSubmissionSucceeded {
				return true
			}
		}
		return false
	}, 2*time.Second, 20*time.Millisecond)
}

func TestSubmit_IncompleteDataReturns422(t *testing.T) {
	f := newAPIFixture(t)
	entryID := f.createEntry()

	resp, raw := f.do(http.MethodPost, "/v1/entries/"+entryID+"/submit", nil)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var body errorBody
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "incomplete_data", body.Code)
	assert.Contains(t, body.Detail, "passport")
}

func TestSubmit_DuplicateReturns409WithExistingCard(t *testing.T) {
	f := newAPIFixture(t)
	f.seedCompleteProfile()
	entryID := f.createEntry()

	resp, raw := f.do(http.MethodPost, "/v1/entries/"+entryID+"/submit",
		map[string]any{"challenge_session_id": f.solvedSession(entryID)})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	resp, raw = f.do(http.MethodPost, "/v1/entries/"+entryID+"/submit",
		map[string]any{"challenge_session_id": f.solvedSession(entryID)})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	var body errorBody
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "duplicate_card", body.Code)
	assert.Contains(t, body.Detail, "existing")

	// Forced resubmission goes through.
	f.remote.result = &remote.Result{ArrCardNo: "TH-2026-101"}
	resp, raw = f.do(http.MethodPost, "/v1/entries/"+entryID+"/submit",
		map[string]any{"force": true, "challenge_session_id": f.solvedSession(entryID)})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var card cardDTO
	require.NoError(t, json.Unmarshal(raw, &card))
	assert.Equal(t, "TH-2026-101", card.ArrCardNo)
}

func TestSubmit_ChallengeTimeoutReturns408(t *testing.T) {
	f := newAPIFixture(t)
	f.seedCompleteProfile()
	entryID := f.createEntry()

	// Session exists but nobody solves the widget.
	resp, raw := f.do(http.MethodPost, "/v1/challenge/sessions", map[string]string{"entry_id": entryID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var session sessionDTO
	require.NoError(t, json.Unmarshal(raw, &session))

	resp, raw = f.do(http.MethodPost, "/v1/entries/"+entryID+"/submit",
		map[string]any{"challenge_session_id": session.ID})
	require.Equal(t, http.StatusRequestTimeout, resp.StatusCode)
	var body errorBody
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "challenge_timeout", body.Code)
}

func TestSubmit_RemoteFailureReturns502(t *testing.T) {
	f := newAPIFixture(t)
	f.seedCompleteProfile()
	entryID := f.createEntry()
	f.remote.err = &domain.RemoteSubmissionError{Code: "rate_limited", Err: errors.New("429")}

	resp, raw := f.do(http.MethodPost, "/v1/entries/"+entryID+"/submit",
		map[string]any{"challenge_session_id": f.solvedSession(entryID)})
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	var body errorBody
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "remote_failed", body.Code)
	assert.Equal(t, "rate_limited", body.Detail["remote_code"])
}

func TestChallengeSession_UnknownEntry(t *testing.T) {
	f := newAPIFixture(t)
	resp, _ := f.do(http.MethodPost, "/v1/challenge/sessions",
		map[string]string{"entry_id": domain.NewEntryID().String()})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestChallengeToken_UnknownSession(t *testing.T) {
	f := newAPIFixture(t)
	resp, _ := f.do(http.MethodPost, "/v1/challenge/sessions/nope/token",
		map[string]string{"token": "x"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
