package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"thermometer_alarm/internal/device"
	"thermometer_alarm/internal/models"
	"thermometer_alarm/internal/service"
)

func doRequest(t *testing.T, s *service.Service, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := newTestRouter(s)
	w := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	return w
}

func newDashboardServices(dash *mockDashboard) *service.Service {
	return &service.Service{Authorization: &mockAuth{parseID: 1}, Dashboard: dash}
}

func TestHealth(t *testing.T) {
	r := newTestRouter(&service.Service{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("health status=%d", w.Code)
	}
}

func TestDeviceHandlers_RequireAuth(t *testing.T) {
	r := newTestRouter(newDashboardServices(&mockDashboard{}))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/device/status", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestDeviceHandlers_StatusConnectDisconnect(t *testing.T) {
	dash := &mockDashboard{snapshot: models.DashboardSnapshot{Status: models.StatusConnected, DeviceAddress: "10.0.0.7"}}
	s := newDashboardServices(dash)

	w := doRequest(t, s, http.MethodGet, "/api/v1/device/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var snap models.DashboardSnapshot
	_ = json.Unmarshal(w.Body.Bytes(), &snap)
	if snap.DeviceAddress != "10.0.0.7" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	w = doRequest(t, s, http.MethodPost, "/api/v1/device/connect", "")
	if w.Code != http.StatusOK || dash.connectCalls != 1 {
		t.Fatalf("connect status=%d calls=%d", w.Code, dash.connectCalls)
	}
	var resp struct {
		Status   string                   `json:"status"`
		Snapshot models.DashboardSnapshot `json:"snapshot"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Status != "connected" || resp.Snapshot.Status != models.StatusConnected {
		t.Fatalf("unexpected connect response %+v", resp)
	}

	w = doRequest(t, s, http.MethodPost, "/api/v1/device/disconnect", "")
	if w.Code != http.StatusOK || dash.disconnectCalls != 1 {
		t.Fatalf("disconnect status=%d calls=%d", w.Code, dash.disconnectCalls)
	}
}

func TestDeviceHandlers_ConnectErrors(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{device.ErrSessionActive, http.StatusConflict},
		{fmt.Errorf("%w: no rows", device.ErrDirectoryUnavailable), http.StatusBadGateway},
		{fmt.Errorf("%w: refused", device.ErrTransport), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			s := newDashboardServices(&mockDashboard{connectErr: tc.err})
			w := doRequest(t, s, http.MethodPost, "/api/v1/device/connect", "")
			if w.Code != tc.want {
				t.Fatalf("got %d, want %d (body=%s)", w.Code, tc.want, w.Body.String())
			}
		})
	}
}

func TestDeviceHandlers_SetThreshold(t *testing.T) {
	dash := &mockDashboard{}
	s := newDashboardServices(dash)

	w := doRequest(t, s, http.MethodPut, "/api/v1/device/threshold", `{"threshold_c":37.5}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if dash.lastThreshold != 37.5 {
		t.Fatalf("threshold passed = %v", dash.lastThreshold)
	}

	// zero is a valid threshold
	w = doRequest(t, s, http.MethodPut, "/api/v1/device/threshold", `{"threshold_c":0}`)
	if w.Code != http.StatusOK || dash.lastThreshold != 0 {
		t.Fatalf("status=%d threshold=%v", w.Code, dash.lastThreshold)
	}

	w = doRequest(t, s, http.MethodPut, "/api/v1/device/threshold", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing threshold: expected 400, got %d", w.Code)
	}

	dash.thresholdErr = device.ErrInvalidThreshold
	w = doRequest(t, s, http.MethodPut, "/api/v1/device/threshold", `{"threshold_c":1}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid threshold: expected 400, got %d", w.Code)
	}

	dash.thresholdErr = errors.New("db down")
	w = doRequest(t, s, http.MethodPut, "/api/v1/device/threshold", `{"threshold_c":1}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("save failure: expected 500, got %d", w.Code)
	}
}
