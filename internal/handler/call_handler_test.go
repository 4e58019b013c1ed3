package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/callcore/campaign-engine/internal/domain"
	"github.com/callcore/campaign-engine/internal/service"
	"github.com/callcore/campaign-engine/internal/transport"
)

type stubAssignmentService struct {
	requestFn func(ctx context.Context, phone, pin, areaID string) (*service.Assignment, error)
}

func (s *stubAssignmentService) RequestAssignment(ctx context.Context, phone, pin, areaID string) (*service.Assignment, error) {
	return s.requestFn(ctx, phone, pin, areaID)
}

type stubOutcomeService struct {
	recordFn func(ctx context.Context, req service.OutcomeRequest) (*service.OutcomeResult, error)
}

func (s *stubOutcomeService) RecordOutcome(ctx context.Context, req service.OutcomeRequest) (*service.OutcomeResult, error) {
	return s.recordFn(ctx, req)
}

type stubProgressService struct {
	progressFn func(ctx context.Context, phone, pin, areaID string) (*domain.Progress, error)
	ledgerFn   func(ctx context.Context, phone, pin, areaID string, limit int) ([]domain.LedgerEntry, error)
}

func (s *stubProgressService) GetProgress(ctx context.Context, phone, pin, areaID string) (*domain.Progress, error) {
	return s.progressFn(ctx, phone, pin, areaID)
}

func (s *stubProgressService) CallLedger(ctx context.Context, phone, pin, areaID string, limit int) ([]domain.LedgerEntry, error) {
	return s.ledgerFn(ctx, phone, pin, areaID, limit)
}

func newCallTestApp(t *testing.T, assignments AssignmentService, outcomes OutcomeService, progress ProgressService) *fiber.App {
	t.Helper()

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(zap.NewNop()),
	})

	if err := RegisterCallRoutes(app, assignments, outcomes, progress); err != nil {
		t.Fatalf("RegisterCallRoutes() error = %v", err)
	}

	return app
}

func performRequest(t *testing.T, app *fiber.App, method string, path string, body string) (*http.Response, []byte) {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	_ = resp.Body.Close()

	return resp, respBody
}

func noopOutcomeService() *stubOutcomeService {
	return &stubOutcomeService{
		recordFn: func(ctx context.Context, req service.OutcomeRequest) (*service.OutcomeResult, error) {
			return &service.OutcomeResult{Status: domain.StatusCalled}, nil
		},
	}
}

func noopProgressService() *stubProgressService {
	return &stubProgressService{
		progressFn: func(ctx context.Context, phone, pin, areaID string) (*domain.Progress, error) {
			return &domain.Progress{}, nil
		},
		ledgerFn: func(ctx context.Context, phone, pin, areaID string, limit int) ([]domain.LedgerEntry, error) {
			return nil, nil
		},
	}
}

func TestRequestAssignmentEndpoint(t *testing.T) {
	t.Parallel()

	assignments := &stubAssignmentService{
		requestFn: func(ctx context.Context, phone, pin, areaID string) (*service.Assignment, error) {
			if phone != "+905551112233" || pin != "4321" || areaID != "area-1" {
				t.Errorf("credentials = (%q, %q, %q)", phone, pin, areaID)
			}
			return &service.Assignment{
				Campaign: &domain.Campaign{ID: "camp-1", AreaID: areaID, Name: "Drive"},
				Contact:  &domain.Contact{ID: "contact-1", Phone: "+905550000001", Name: "Ada"},
				Script:   &domain.ScriptVersion{Version: 2, Body: "Hello"},
			}, nil
		},
	}

	app := newCallTestApp(t, assignments, noopOutcomeService(), noopProgressService())

	body := `{"phone":"+905551112233","pin":"4321","areaId":"area-1"}`
	resp, respBody := performRequest(t, app, http.MethodPost, "/v1/calls/assignment", body)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, string(respBody))
	}

	var got assignmentResponse
	if err := json.Unmarshal(respBody, &got); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if got.AlreadyInCall {
		t.Fatal("alreadyInCall = true, want false")
	}
	if got.Contact.ID != "contact-1" {
		t.Fatalf("contact.id = %q, want contact-1", got.Contact.ID)
	}
	if got.Script.Version != 2 {
		t.Fatalf("script.version = %d, want 2", got.Script.Version)
	}
}

func TestRequestAssignmentEndpointAlreadyInCall(t *testing.T) {
	t.Parallel()

	assignments := &stubAssignmentService{
		requestFn: func(ctx context.Context, phone, pin, areaID string) (*service.Assignment, error) {
			return &service.Assignment{
				AlreadyInCall: true,
				Campaign:      &domain.Campaign{ID: "camp-1"},
				Contact:       &domain.Contact{ID: "contact-7"},
				Script:        &domain.ScriptVersion{Version: 1, Body: "Hello"},
			}, nil
		},
	}

	app := newCallTestApp(t, assignments, noopOutcomeService(), noopProgressService())

	resp, respBody := performRequest(t, app, http.MethodPost, "/v1/calls/assignment", `{"phone":"+905551112233","pin":"4321","areaId":"area-1"}`)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200 for idempotent re-request", resp.StatusCode)
	}

	var got assignmentResponse
	if err := json.Unmarshal(respBody, &got); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if !got.AlreadyInCall {
		t.Fatal("alreadyInCall = false, want true")
	}
}

func TestCallEndpointErrorMapping(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "validation", err: domain.ErrValidation, wantStatus: http.StatusBadRequest},
		{name: "invalid credential", err: domain.ErrInvalidCredential, wantStatus: http.StatusUnauthorized},
		{name: "no client available", err: domain.ErrNoClientAvailable, wantStatus: http.StatusNotFound},
		{name: "no current campaign", err: domain.ErrNoCurrentCampaign, wantStatus: http.StatusNotFound},
		{name: "not found", err: domain.ErrNotFound, wantStatus: http.StatusNotFound},
		{name: "not in call", err: domain.ErrNotInCall, wantStatus: http.StatusConflict},
		{name: "caller mismatch", err: domain.ErrCallerMismatch, wantStatus: http.StatusConflict},
		{name: "conflict", err: domain.ErrConflict, wantStatus: http.StatusConflict},
		{name: "internal inconsistency", err: domain.ErrInternalInconsistency, wantStatus: http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assignments := &stubAssignmentService{
				requestFn: func(ctx context.Context, phone, pin, areaID string) (*service.Assignment, error) {
					return nil, tc.err
				},
			}

			app := newCallTestApp(t, assignments, noopOutcomeService(), noopProgressService())

			resp, _ := performRequest(t, app, http.MethodPost, "/v1/calls/assignment", `{"phone":"+905551112233","pin":"4321","areaId":"area-1"}`)
			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.wantStatus)
			}
		})
	}
}

func TestRecordOutcomeEndpoint(t *testing.T) {
	t.Parallel()

	var gotReq service.OutcomeRequest
	outcomes := &stubOutcomeService{
		recordFn: func(ctx context.Context, req service.OutcomeRequest) (*service.OutcomeResult, error) {
			gotReq = req
			return &service.OutcomeResult{Status: domain.StatusCalled}, nil
		},
	}

	app := newCallTestApp(t, &stubAssignmentService{requestFn: func(ctx context.Context, phone, pin, areaID string) (*service.Assignment, error) {
		return nil, domain.ErrNoClientAvailable
	}}, outcomes, noopProgressService())

	body := `{"phone":"+905551112233","pin":"4321","areaId":"area-1","contactId":"contact-1","satisfaction":2,"comment":"done","durationMillis":60000}`
	resp, respBody := performRequest(t, app, http.MethodPost, "/v1/calls/outcome", body)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, string(respBody))
	}

	if gotReq.ContactID != "contact-1" || gotReq.Satisfaction != 2 || gotReq.DurationMillis != 60000 {
		t.Fatalf("request = %+v", gotReq)
	}

	var got outcomeResponse
	if err := json.Unmarshal(respBody, &got); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if got.Status != domain.StatusCalled.String() {
		t.Fatalf("status = %q, want CALLED", got.Status)
	}
}

func TestGetProgressEndpoint(t *testing.T) {
	t.Parallel()

	progress := &stubProgressService{
		progressFn: func(ctx context.Context, phone, pin, areaID string) (*domain.Progress, error) {
			if phone != "+905551112233" || pin != "4321" || areaID != "area-1" {
				t.Errorf("credentials = (%q, %q, %q)", phone, pin, areaID)
			}
			return &domain.Progress{CampaignID: "camp-1", Answered: 3, Total: 10}, nil
		},
		ledgerFn: func(ctx context.Context, phone, pin, areaID string, limit int) ([]domain.LedgerEntry, error) {
			return nil, nil
		},
	}

	app := newCallTestApp(t, &stubAssignmentService{requestFn: func(ctx context.Context, phone, pin, areaID string) (*service.Assignment, error) {
		return nil, domain.ErrNoClientAvailable
	}}, noopOutcomeService(), progress)

	resp, respBody := performRequest(t, app, http.MethodGet, "/v1/calls/progress?phone=%2B905551112233&pin=4321&areaId=area-1", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, string(respBody))
	}

	var got progressResponse
	if err := json.Unmarshal(respBody, &got); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if got.Answered != 3 || got.Total != 10 {
		t.Fatalf("progress = %d/%d, want 3/10", got.Answered, got.Total)
	}
}

func TestGetLedgerEndpoint(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	progress := &stubProgressService{
		progressFn: func(ctx context.Context, phone, pin, areaID string) (*domain.Progress, error) {
			return &domain.Progress{}, nil
		},
		ledgerFn: func(ctx context.Context, phone, pin, areaID string, limit int) ([]domain.LedgerEntry, error) {
			if limit != 5 {
				t.Errorf("limit = %d, want 5", limit)
			}
			return []domain.LedgerEntry{
				{ID: "led-1", ContactID: "contact-1", CampaignID: "camp-1", DurationMillis: 30000, CreatedAt: created},
			}, nil
		},
	}

	app := newCallTestApp(t, &stubAssignmentService{requestFn: func(ctx context.Context, phone, pin, areaID string) (*service.Assignment, error) {
		return nil, domain.ErrNoClientAvailable
	}}, noopOutcomeService(), progress)

	resp, respBody := performRequest(t, app, http.MethodGet, "/v1/calls/ledger?phone=%2B905551112233&pin=4321&areaId=area-1&limit=5", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, string(respBody))
	}

	var got struct {
		Data []ledgerEntryResponse `json:"data"`
	}
	if err := json.Unmarshal(respBody, &got); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if len(got.Data) != 1 || got.Data[0].DurationMillis != 30000 {
		t.Fatalf("data = %+v", got.Data)
	}
}

func TestRequestAssignmentEndpointRejectsBadBody(t *testing.T) {
	t.Parallel()

	app := newCallTestApp(t, &stubAssignmentService{requestFn: func(ctx context.Context, phone, pin, areaID string) (*service.Assignment, error) {
		t.Error("service must not be called for malformed bodies")
		return nil, nil
	}}, noopOutcomeService(), noopProgressService())

	resp, _ := performRequest(t, app, http.MethodPost, "/v1/calls/assignment", "{not-json")
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}
