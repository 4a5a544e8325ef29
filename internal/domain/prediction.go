package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Prediction labels. The scorer never produces a third value.
const (
	LabelFraud = "FRAUD"
	LabelLegit = "LEGIT"
)

// FeatureContribution is one signed attribution value for a named feature.
type FeatureContribution struct {
	Name  string
	Value float64
}

// TopFeatures is an ordered mapping of feature name to contribution,
// sorted by descending absolute value. It marshals as a JSON object whose
// key order preserves the ranking.
type TopFeatures []FeatureContribution

// MarshalJSON writes the contributions as an object in rank order.
func (t TopFeatures) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range t {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(c.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object preserving its key order.
func (t *TopFeatures) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("top_features: expected JSON object")
	}

	var out TopFeatures
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("top_features: expected string key")
		}

		valTok, err := dec.Token()
		if err != nil {
			return err
		}
		num, ok := valTok.(json.Number)
		if !ok {
			return fmt.Errorf("top_features: value for %q is not numeric", key)
		}
		val, err := num.Float64()
		if err != nil {
			return err
		}
		out = append(out, FeatureContribution{Name: key, Value: val})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*t = out
	return nil
}

// PredictionResult is the outcome of one inference call. Immutable once
// produced; the core keeps no copy after returning it.
type PredictionResult struct {
	FraudProbability float64     `json:"fraud_probability"`
	Prediction       string      `json:"prediction"`
	TopFeatures      TopFeatures `json:"top_features"`

	// Review is set by the triage policy when one is configured.
	// It never alters the probability or the label.
	Review *bool `json:"review,omitempty"`
}

// PredictionEvent is published on the event bus after each successful
// inference. Consumed by the session history recorder and the live feed.
type PredictionEvent struct {
	ID               string      `json:"id"`
	Amount           float64     `json:"amount"`
	Time             float64     `json:"time"`
	FraudProbability float64     `json:"fraudProbability"`
	Prediction       string      `json:"prediction"`
	TopFeatures      TopFeatures `json:"topFeatures,omitempty"`
	Review           *bool       `json:"review,omitempty"`
	ObservedAt       time.Time   `json:"observedAt"`
}
