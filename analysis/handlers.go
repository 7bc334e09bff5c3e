package analysis

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"phishguard/ai"
)

type AnalyzeRequest struct {
	URL string `json:"url"`
}

type TextRequest struct {
	Text string `json:"text"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server exposes the aggregator over HTTP for the extension client.
type Server struct {
	Agg    *Aggregator
	LLM    *ai.Client
	Model  *Model
	Brands *BrandTable
}

// Routes builds the router. The extension runs cross-origin, so CORS
// headers go on everything.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(corsMiddleware)
	r.Post("/analyze", s.AnalyzeHandler)
	r.Post("/analyze-text", s.AnalyzeTextHandler)
	r.Get("/healthz", s.HealthHandler)
	return r
}

// AnalyzeHandler runs the full detector pipeline over a URL.
func (s *Server) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	if req.URL == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "URL not provided"})
		return
	}

	verdict := s.Agg.Analyze(r.Context(), req.URL)
	writeJSON(w, http.StatusOK, verdict)

	log.Println("✔ Analysis completed for:", req.URL)
}

// AnalyzeTextHandler forwards arbitrary text to the LLM judgment. This
// endpoint has no fallback: without the credential it reports a
// configuration error rather than guessing.
func (s *Server) AnalyzeTextHandler(w http.ResponseWriter, r *http.Request) {
	if s.LLM == nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Gemini API not configured on the server."})
		return
	}

	var req TextRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	if req.Text == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "No text provided"})
		return
	}

	verdict, err := s.LLM.ClassifyText(r.Context(), req.Text)
	if err != nil {
		log.Printf("[LLM] text analysis failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to analyze text with AI."})
		return
	}
	writeJSON(w, http.StatusOK, verdict)
}

type healthResponse struct {
	ModelAccuracy     float64 `json:"model_accuracy"`
	BrandCount        int     `json:"brand_count"`
	LLMEnabled        bool    `json:"llm_enabled"`
	ReputationEnabled bool    `json:"reputation_enabled"`
}

// HealthHandler reports which optional features are live, so degraded
// modes are visible without reading logs.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		BrandCount: s.Brands.Len(),
		LLMEnabled: s.LLM != nil,
	}
	if s.Model != nil {
		resp.ModelAccuracy = s.Model.Accuracy
	}
	for _, d := range s.Agg.ordered {
		if rep, ok := d.(*Reputation); ok && rep.APIKey != "" {
			resp.ReputationEnabled = true
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
