package service

import "strings"

// CorrectionDetector decide si un mensaje del usuario corrige un hecho del CV.
type CorrectionDetector interface {
	IsCorrection(message string) bool
}

// PhraseDetector compara el mensaje en minusculas contra una lista fija de frases.
// Es una heuristica de substrings: "nothing is wrong" tambien cuenta como correccion.
type PhraseDetector struct {
	phrases []string
}

// DefaultCorrectionPhrases es la lista usada por NewPhraseDetector.
var DefaultCorrectionPhrases = []string{
	"i did not", "i didn't", "that's wrong", "that's incorrect", "not correct",
	"actually,", "correction:", "wrong", "incorrect", "i never", "not true",
	"that's not right", "i don't have", "i haven't", "my actual", "the correct",
	"should be", "is actually", "isn't right", "was not", "wasn't",
	"i do not", "not accurate", "mistake", "error", "fix that",
}

func NewPhraseDetector() PhraseDetector {
	return PhraseDetector{phrases: DefaultCorrectionPhrases}
}

func (d PhraseDetector) IsCorrection(message string) bool {
	lower := strings.ToLower(message)
	for _, phrase := range d.phrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
