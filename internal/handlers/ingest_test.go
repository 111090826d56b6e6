package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"embedpipe/internal/indexer"
	"embedpipe/internal/service"
	"embedpipe/internal/service/mocks"

	"go.uber.org/mock/gomock"
)

func ingestFixture() service.IngestResponse {
	return service.IngestResponse{
		Report: &indexer.RunReport{
			RunID:         "run-1",
			StartedAt:     time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
			FinishedAt:    time.Date(2024, 5, 1, 10, 2, 30, 0, time.UTC),
			DocsTotal:     2,
			DocsSucceeded: 1,
			DocsFailed:    1,
			RowsEmitted:   3,
			TokenStats:    indexer.TokenStats{Min: 2, Max: 5, Mean: 3.5, P95: 5},
			Documents: []indexer.DocumentResult{
				{RelPath: "a.txt", Title: "Alpha", Category: "finance", Status: indexer.StatusSucceeded, Chunks: 3, Tokens: 10},
				{RelPath: "b.txt", Status: indexer.StatusFailed, Error: "failed to classify document: boom"},
			},
		},
	}
}

func TestIngestHandler_ServeHTTP(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tests := []struct {
		name          string
		method        string
		body          interface{}
		mockSetup     func(*mocks.MockIngestService)
		wantStatus    int
		checkResponse func(*httptest.ResponseRecorder) bool
	}{
		{
			name:   "successful run",
			method: http.MethodPost,
			body:   IngestRequest{},
			mockSetup: func(m *mocks.MockIngestService) {
				m.EXPECT().
					ProcessIngest(gomock.Any(), service.IngestRequest{}).
					Return(ingestFixture(), nil)
			},
			wantStatus: http.StatusOK,
			checkResponse: func(w *httptest.ResponseRecorder) bool {
				var resp IngestResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					return false
				}
				report := resp.Report
				return report.RunID == "run-1" &&
					report.StartedAt == "2024-05-01T10:00:00Z" &&
					report.FinishedAt == "2024-05-01T10:02:30Z" &&
					report.DocsTotal == 2 &&
					report.RowsEmitted == 3 &&
					report.TokenStats.P95 == 5 &&
					len(report.Documents) == 2 &&
					report.Documents[1].Status == "failed" &&
					report.Documents[1].Error != "" &&
					resp.ExportPath == ""
			},
		},
		{
			name:   "run with export",
			method: http.MethodPost,
			body:   IngestRequest{ExportFormat: "csv", ExportPath: "/tmp/rows.csv"},
			mockSetup: func(m *mocks.MockIngestService) {
				resp := ingestFixture()
				resp.ExportPath = "/tmp/rows.csv"
				m.EXPECT().
					ProcessIngest(gomock.Any(), service.IngestRequest{ExportFormat: "csv", ExportPath: "/tmp/rows.csv"}).
					Return(resp, nil)
			},
			wantStatus: http.StatusOK,
			checkResponse: func(w *httptest.ResponseRecorder) bool {
				var resp IngestResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					return false
				}
				return resp.ExportPath == "/tmp/rows.csv"
			},
		},
		{
			name:   "empty body runs without export",
			method: http.MethodPost,
			mockSetup: func(m *mocks.MockIngestService) {
				m.EXPECT().
					ProcessIngest(gomock.Any(), service.IngestRequest{}).
					Return(ingestFixture(), nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "method not allowed",
			method: http.MethodGet,
			mockSetup: func(m *mocks.MockIngestService) {
				// No calls expected
			},
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:   "invalid JSON body",
			method: http.MethodPost,
			body:   "{not json",
			mockSetup: func(m *mocks.MockIngestService) {
				// No calls expected
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "validation error",
			method: http.MethodPost,
			body:   IngestRequest{ExportFormat: "xml", ExportPath: "out.xml"},
			mockSetup: func(m *mocks.MockIngestService) {
				m.EXPECT().
					ProcessIngest(gomock.Any(), service.IngestRequest{ExportFormat: "xml", ExportPath: "out.xml"}).
					Return(service.IngestResponse{}, &service.ValidationError{
						Field:   "export_format",
						Message: "must be csv or jsonl",
					})
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "run failure",
			method: http.MethodPost,
			body:   IngestRequest{},
			mockSetup: func(m *mocks.MockIngestService) {
				m.EXPECT().
					ProcessIngest(gomock.Any(), service.IngestRequest{}).
					Return(service.IngestResponse{}, errors.New("corpus unreadable"))
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockIngestService := mocks.NewMockIngestService(ctrl)
			tt.mockSetup(mockIngestService)

			handler := NewIngestHandler(mockIngestService)

			var req *http.Request
			if tt.body == nil {
				req = httptest.NewRequest(tt.method, "/api/ingest", nil)
			} else if s, ok := tt.body.(string); ok {
				req = httptest.NewRequest(tt.method, "/api/ingest", bytes.NewBufferString(s))
			} else {
				bodyBytes, _ := json.Marshal(tt.body)
				req = httptest.NewRequest(tt.method, "/api/ingest", bytes.NewBuffer(bodyBytes))
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("ServeHTTP() status = %v, want %v", w.Code, tt.wantStatus)
			}
			if tt.checkResponse != nil && !tt.checkResponse(w) {
				t.Error("ServeHTTP() response validation failed")
			}
		})
	}
}
