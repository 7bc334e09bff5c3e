package analysis

import (
	"encoding/csv"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"

	randomforest "github.com/malaschitz/randomForest"
)

// splitSeed fixes the train/test shuffle so repeated startups on the
// same dataset produce the same held-out split.
const splitSeed = 42

const forestTrees = 100

// Model wraps the trained classifier. It is immutable after TrainModel
// returns and safe for concurrent use across requests.
type Model struct {
	forest   *randomforest.Forest
	Accuracy float64
}

// TrainModel reads a labeled dataset of "url,type" rows (type "phishing"
// marks the positive class, anything else is legitimate), trains a
// random forest on a deterministic 80/20 split and reports held-out
// accuracy. An unusable dataset is a startup-fatal error: the service
// cannot run without a model.
func TrainModel(datasetPath string) (*Model, error) {
	f, err := os.Open(datasetPath)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}

	var xs [][]float64
	var ys []int
	for i, row := range rows {
		if len(row) < 2 {
			continue
		}
		if i == 0 && strings.EqualFold(strings.TrimSpace(row[0]), "url") {
			continue // header
		}
		fv := ExtractFeatures(strings.TrimSpace(row[0]))
		xs = append(xs, fv[:])
		label := 0
		if strings.EqualFold(strings.TrimSpace(row[1]), "phishing") {
			label = 1
		}
		ys = append(ys, label)
	}
	if len(xs) < 10 {
		return nil, fmt.Errorf("dataset %s has only %d usable rows", datasetPath, len(xs))
	}

	rng := rand.New(rand.NewSource(splitSeed))
	perm := rng.Perm(len(xs))
	cut := len(xs) * 4 / 5

	trainX := make([][]float64, 0, cut)
	trainY := make([]int, 0, cut)
	testX := make([][]float64, 0, len(xs)-cut)
	testY := make([]int, 0, len(xs)-cut)
	for i, j := range perm {
		if i < cut {
			trainX = append(trainX, xs[j])
			trainY = append(trainY, ys[j])
		} else {
			testX = append(testX, xs[j])
			testY = append(testY, ys[j])
		}
	}

	forest := &randomforest.Forest{}
	forest.Data = randomforest.ForestData{X: trainX, Class: trainY}
	forest.Train(forestTrees)

	m := &Model{forest: forest}

	correct := 0
	for i, x := range testX {
		pred := 0
		if m.probability(x) >= 0.5 {
			pred = 1
		}
		if pred == testY[i] {
			correct++
		}
	}
	if len(testX) > 0 {
		m.Accuracy = float64(correct) / float64(len(testX))
	}
	log.Printf("[Model] trained on %d rows, held-out accuracy %.2f", len(trainX), m.Accuracy)

	return m, nil
}

// Probability returns the phishing-class vote fraction for a feature
// vector, in [0, 1].
func (m *Model) Probability(fv FeatureVector) float64 {
	return m.probability(fv[:])
}

func (m *Model) probability(x []float64) float64 {
	votes := m.forest.Vote(x)
	if len(votes) < 2 {
		return 0
	}
	return votes[1]
}
