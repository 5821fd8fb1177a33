// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesis

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/pdiddy/idea-engine/internal/fault"
)

var scoreRe = regexp.MustCompile(`(?i)Score:\s*(\d+(?:\.\d+)?)\s*/\s*10`)

// ParseScore extracts the first "Score: X/10" from text. The value must lie
// in [0, 10] and is rounded to one decimal.
func ParseScore(text, agent string) (float64, error) {
	m := scoreRe.FindStringSubmatch(text)
	if m == nil {
		return 0, &fault.ValidationError{
			Agent:    agent,
			Field:    "score",
			Reason:   "no score found",
			Expected: "Score: X/10",
		}
	}

	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, &fault.ValidationError{Agent: agent, Field: "score", Reason: fmt.Sprintf("%q is not a number", m[1])}
	}
	if v < 0 || v > 10 {
		return 0, &fault.ValidationError{
			Agent:    agent,
			Field:    "score",
			Reason:   fmt.Sprintf("%s is out of range", m[1]),
			Expected: "0-10",
		}
	}
	return round1(v), nil
}

// TotalScore is the mean of the three domain scores rounded to one decimal.
func TotalScore(market, buildability, business float64) float64 {
	return round1((market + buildability + business) / 3)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
