package service_test

import (
	"errors"
	"testing"

	"embedpipe/internal/llm"
	"embedpipe/internal/service"
	"embedpipe/internal/service/mocks"
	"embedpipe/internal/vectorstore"
	vsmocks "embedpipe/internal/vectorstore/mocks"

	"go.uber.org/mock/gomock"
)

func TestSearchService_Search(t *testing.T) {
	queryVec := []float32{0.1, 0.2}

	tests := []struct {
		name      string
		req       service.SearchRequest
		mockSetup func(emb *mocks.MockEmbedder, vs *vsmocks.MockVectorStore)
		wantErr   bool
		checkErr  func(error) bool
		checkResp func(*testing.T, service.SearchResponse)
	}{
		{
			name: "maps results with defaults",
			req:  service.SearchRequest{Query: "  market outlook  "},
			mockSetup: func(emb *mocks.MockEmbedder, vs *vsmocks.MockVectorStore) {
				emb.EXPECT().EmbedText(gomock.Any(), "market outlook").Return(queryVec, nil)
				vs.EXPECT().
					Search(gomock.Any(), "documents", queryVec, service.DefaultSearchK, nil).
					Return([]vectorstore.SearchResult{
						{
							PointID: "p1",
							Score:   0.92,
							Meta: map[string]any{
								"title":       "Q3 Report",
								"text":        "Markets rallied.",
								"category":    "finance",
								"chunk_index": int64(2),
								"document_id": "doc-1",
							},
						},
						{
							PointID: "p2",
							Score:   0.81,
							Meta: map[string]any{
								"title":       "Notes",
								"text":        "Misc.",
								"category":    "other",
								"chunk_index": 0,
								"document_id": "doc-2",
							},
						},
					}, nil)
			},
			checkResp: func(t *testing.T, resp service.SearchResponse) {
				if len(resp.Results) != 2 {
					t.Fatalf("len(Results) = %d, want 2", len(resp.Results))
				}
				first := resp.Results[0]
				if first.ID != "p1" || first.Score != 0.92 {
					t.Errorf("Results[0] = %+v, want id p1 score 0.92", first)
				}
				if first.Title != "Q3 Report" || first.Text != "Markets rallied." ||
					first.Category != "finance" || first.ChunkIndex != 2 || first.DocumentID != "doc-1" {
					t.Errorf("Results[0] metadata mismatch: %+v", first)
				}
				if resp.Results[1].ChunkIndex != 0 {
					t.Errorf("Results[1].ChunkIndex = %d, want 0", resp.Results[1].ChunkIndex)
				}
			},
		},
		{
			name: "category filter and explicit k",
			req:  service.SearchRequest{Query: "notes", K: 3, Category: "science"},
			mockSetup: func(emb *mocks.MockEmbedder, vs *vsmocks.MockVectorStore) {
				emb.EXPECT().EmbedText(gomock.Any(), "notes").Return(queryVec, nil)
				vs.EXPECT().
					Search(gomock.Any(), "documents", queryVec, 3, map[string]any{"category": "science"}).
					Return(nil, nil)
			},
			checkResp: func(t *testing.T, resp service.SearchResponse) {
				if len(resp.Results) != 0 {
					t.Errorf("len(Results) = %d, want 0", len(resp.Results))
				}
			},
		},
		{
			name: "k above maximum is clamped",
			req:  service.SearchRequest{Query: "notes", K: 50},
			mockSetup: func(emb *mocks.MockEmbedder, vs *vsmocks.MockVectorStore) {
				emb.EXPECT().EmbedText(gomock.Any(), "notes").Return(queryVec, nil)
				vs.EXPECT().
					Search(gomock.Any(), "documents", queryVec, service.MaxSearchK, nil).
					Return(nil, nil)
			},
		},
		{
			name:      "empty query",
			req:       service.SearchRequest{Query: "   "},
			mockSetup: func(emb *mocks.MockEmbedder, vs *vsmocks.MockVectorStore) {},
			wantErr:   true,
			checkErr: func(err error) bool {
				var validationErr *service.ValidationError
				return errors.As(err, &validationErr) && validationErr.Field == "query"
			},
		},
		{
			name: "query embedding failure",
			req:  service.SearchRequest{Query: "notes"},
			mockSetup: func(emb *mocks.MockEmbedder, vs *vsmocks.MockVectorStore) {
				emb.EXPECT().
					EmbedText(gomock.Any(), "notes").
					Return(nil, &llm.APIError{Status: 429, Message: "slow down", Err: llm.ErrRateLimited})
			},
			wantErr: true,
			checkErr: func(err error) bool {
				return errors.Is(err, service.ErrExternalService)
			},
		},
		{
			name: "vector store failure",
			req:  service.SearchRequest{Query: "notes"},
			mockSetup: func(emb *mocks.MockEmbedder, vs *vsmocks.MockVectorStore) {
				emb.EXPECT().EmbedText(gomock.Any(), "notes").Return(queryVec, nil)
				vs.EXPECT().
					Search(gomock.Any(), "documents", queryVec, service.DefaultSearchK, nil).
					Return(nil, errors.New("connection refused"))
			},
			wantErr: true,
			checkErr: func(err error) bool {
				return errors.Is(err, service.ErrExternalService)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockEmbedder := mocks.NewMockEmbedder(ctrl)
			mockStore := vsmocks.NewMockVectorStore(ctrl)
			tt.mockSetup(mockEmbedder, mockStore)
			svc := service.NewSearchService(mockEmbedder, mockStore, "documents")

			resp, err := svc.Search(testContext(), tt.req)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Search() expected error, got nil")
				}
				if tt.checkErr != nil && !tt.checkErr(err) {
					t.Errorf("Search() error type mismatch: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Search() unexpected error: %v", err)
			}
			if tt.checkResp != nil {
				tt.checkResp(t, resp)
			}
		})
	}
}
