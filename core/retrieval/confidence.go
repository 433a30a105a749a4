package retrieval

import "math"

// Frequencies resolves the corpus frequency of a relation
type Frequencies interface {
	Frequency(relation string) (float64, bool)
}

// PathConfidence scores a retrieved relation sequence from the mean
// frequency of its relations:
//
//	min(log(mean) / maxLogFreq, 1) * discount
//
// Relations without frequency count as 0. When the mean is not positive
// the logarithm is undefined and PathConfidence reports false.
// Negative logarithms clamp to 0.
func PathConfidence(relations []string, freq Frequencies, maxLogFreq float64, discount float64) (float64, bool) {
	if len(relations) == 0 || maxLogFreq <= 0 {
		return 0, false
	}

	var sum float64
	for _, relation := range relations {
		if f, ok := freq.Frequency(relation); ok {
			sum += f
		}
	}

	mean := sum / float64(len(relations))
	if mean <= 0 || math.IsNaN(mean) {
		return 0, false
	}

	confidence := math.Min(math.Log(mean)/maxLogFreq, 1.0)
	if confidence < 0 {
		confidence = 0
	}

	return confidence * discount, true
}
