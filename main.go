package main

import (
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"phishguard/ai"
	"phishguard/analysis"
)

func main() {
	_ = godotenv.Load()

	cfg := analysis.DefaultConfig()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		var err error
		cfg, err = analysis.LoadConfig(path)
		if err != nil {
			log.Fatalf("config: %v", err)
		}
	}

	// The classifier is mandatory: no model, no service.
	model, err := analysis.TrainModel(envOr("DATASET_FILE", "dataset.csv"))
	if err != nil {
		log.Fatalf("model training failed: %v", err)
	}

	brands := analysis.LoadBrandTable(os.Getenv("BRAND_LIST_URL"), envOr("BRAND_LIST_FILE", "brands.csv"))

	llm, err := ai.NewClient()
	if err != nil {
		log.Println("WARNING: Gemini not configured, text analysis disabled:", err)
		llm = nil
	}

	policy := analysis.PolicyWeighted
	if os.Getenv("POLICY") == "short-circuit" {
		policy = analysis.PolicyShortCircuit
	}

	agg := analysis.NewAggregator(policy, model, brands, llm, cfg)
	srv := &analysis.Server{Agg: agg, LLM: llm, Model: model, Brands: brands}

	port := envOr("PORT", "8080")

	log.Printf("✅ phishguard service listening on :%s\n", port)
	log.Println("📍 Endpoints:")
	log.Println("   POST /analyze       - URL risk verdict")
	log.Println("   POST /analyze-text  - LLM text judgment")
	log.Println("   GET  /healthz       - feature availability")

	if err := http.ListenAndServe(":"+port, srv.Routes()); err != nil {
		log.Fatal(err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
