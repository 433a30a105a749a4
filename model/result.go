package model

// Outcome tells how a rank result was produced
type Outcome string

const (
	OutcomeRetrieved           Outcome = "retrieved"
	OutcomeNoSeedEntity        Outcome = "no_seed_entity"
	OutcomeNoCandidatePaths    Outcome = "no_candidate_paths"
	OutcomeNoConcreteRetrieval Outcome = "no_concrete_retrieval"
	OutcomeFrequencyUndefined  Outcome = "frequency_undefined"
)

// RankResult is the chosen path for one utterance
type RankResult struct {
	Triplets   []Triplet `json:"triplets"`   // Materialized hops, empty if nothing was retrieved
	Relations  Path      `json:"relations"`  // Relation sequence actually traversed
	Confidence float64   `json:"confidence"` // Derived from relation frequencies, or a declared default
	Outcome    Outcome   `json:"outcome"`
	SeedEntity string    `json:"seed_entity,omitempty"`
}

// Texts returns the triplets rendered for the utterance generator
func (r RankResult) Texts() []string {
	return RetrievedPath{Triplets: r.Triplets}.Texts()
}

// EmptyRankResult creates a result without a path
func EmptyRankResult(confidence float64, outcome Outcome) RankResult {
	return RankResult{
		Triplets:   []Triplet{},
		Relations:  Path{},
		Confidence: confidence,
		Outcome:    outcome,
	}
}

// Reply is the generated text for one dialog item together with the
// ranked evidence it is grounded on
type Reply struct {
	Utterance string      `json:"utterance"`
	Entities  []EntityRef `json:"entities"`
	Text      string      `json:"text"`
	Rank      RankResult  `json:"rank"`
}
