package source

import (
	"fmt"
	"strings"
)

const (
	DefaultBaseURL  = "https://raw.githubusercontent.com"
	DefaultOwner    = "rohannarain"
	DefaultRepoName = "beat_the_streak"
	DefaultBranch   = "master"
)

// Kind identifies one of the daily CSV files
type Kind string

const (
	KindPredictions Kind = "predictions"
	KindPastResults Kind = "past_results"
	KindModelStats  Kind = "model_stats"
)

// filePrefix maps each kind to the file name prefix used in data/<kind>/
var filePrefix = map[Kind]string{
	KindPredictions: "predictions",
	KindPastResults: "past_results",
	KindModelStats:  "performance",
}

// Repo locates the data directory of a GitHub repository
type Repo struct {
	BaseURL string
	Owner   string
	Name    string
	Branch  string
}

// DefaultRepo returns the upstream beat_the_streak repository
func DefaultRepo() Repo {
	return Repo{
		BaseURL: DefaultBaseURL,
		Owner:   DefaultOwner,
		Name:    DefaultRepoName,
		Branch:  DefaultBranch,
	}
}

// URL returns the raw file URL for kind on the day encoded by urlDate
// (MM_DD_YYYY, see dates.FormatForURL).
func (r Repo) URL(kind Kind, urlDate string) (string, error) {
	prefix, ok := filePrefix[kind]
	if !ok {
		return "", fmt.Errorf("unknown file kind: %q", kind)
	}

	base := strings.TrimRight(r.BaseURL, "/")
	return fmt.Sprintf("%s/%s/%s/%s/data/%s/%s_%s.csv",
		base, r.Owner, r.Name, r.Branch, kind, prefix, urlDate), nil
}

// MustURL is URL for kinds known at compile time
func (r Repo) MustURL(kind Kind, urlDate string) string {
	u, err := r.URL(kind, urlDate)
	if err != nil {
		panic(err)
	}
	return u
}
