package score

import (
	"strings"

	"github.com/edumesones/anthropic-resume-day-to-day/internal/model"
)

const (
	baseline = 3
	minScore = 1
	maxScore = 5

	popularStars   = 10000
	lessKnownStars = 100
	keywordCommits = 2
	majorTagPrefix = "v"
)

// Reasons attached to a score.
const (
	ReasonPopular      = "popular repository"
	ReasonLessKnown    = "less known repository"
	ReasonRelease      = "new release available"
	ReasonMajorVersion = "possible major version"
	ReasonFeatures     = "new features"
	ReasonLanguage     = "popular language"
)

// featureKeywords are looked up as substrings of lowercased commit messages.
var featureKeywords = []string{"feat", "feature", "add", "implement", "breaking", "major"}

var popularLanguages = map[string]bool{
	"python":     true,
	"javascript": true,
	"typescript": true,
}

// Score rates how useful a repository's recent activity is, from 1 to 5.
// It is pure: the same activity always yields the same result.
func Score(r model.RepoActivity) model.ScoreResult {
	s := baseline
	var reasons []string

	switch {
	case r.Stars > popularStars:
		s++
		reasons = append(reasons, ReasonPopular)
	case r.Stars < lessKnownStars:
		s--
		reasons = append(reasons, ReasonLessKnown)
	}

	if len(r.Releases) > 0 {
		s++
		reasons = append(reasons, ReasonRelease)
		if IsMajorTag(r.Releases[0].Tag) {
			s++
			reasons = append(reasons, ReasonMajorVersion)
		}
	}

	if hasFeatureCommit(r.Commits) {
		s++
		reasons = append(reasons, ReasonFeatures)
	}

	if popularLanguages[strings.ToLower(r.Language)] {
		reasons = append(reasons, ReasonLanguage)
	}

	return model.ScoreResult{Score: clamp(s), Reasons: reasons}
}

// IsMajorTag matches tags like v2.0.0 or v3.0.
func IsMajorTag(tag string) bool {
	if !strings.HasPrefix(tag, majorTagPrefix) {
		return false
	}
	return strings.Contains(tag, ".0.") || strings.HasSuffix(tag, ".0")
}

// hasFeatureCommit checks the first two messages only; one hit is enough.
func hasFeatureCommit(commits []model.CommitSummary) bool {
	for i, c := range commits {
		if i >= keywordCommits {
			break
		}
		msg := strings.ToLower(c.Message)
		for _, kw := range featureKeywords {
			if strings.Contains(msg, kw) {
				return true
			}
		}
	}
	return false
}

func clamp(s int) int {
	if s < minScore {
		return minScore
	}
	if s > maxScore {
		return maxScore
	}
	return s
}
