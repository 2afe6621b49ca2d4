// Package analytics holds aggregate statistics, technology clustering and
// citation network types for landscape reports.
package analytics

import (
	"sort"
	"strings"
	"unicode"

	"github.com/kailas-cloud/patentsearch/internal/domain/patent"
)

// UnknownCluster groups records without any classification.
const UnknownCluster = "UNKNOWN"

// ClusterCodeLength is the classification prefix length used for grouping.
const ClusterCodeLength = 4

// Count is a named aggregate bucket.
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// YearCount is one entry of the yearly distribution.
type YearCount struct {
	Year  string `json:"year"`
	Count int    `json:"count"`
}

// Statistics are corpus aggregates under a filter set.
type Statistics struct {
	TotalCount         int         `json:"totalCount"`
	YearlyDistribution []YearCount `json:"yearlyDistribution"`
	TopAssignees       []Count     `json:"topAssignees"`
	TopClassifications []Count     `json:"topClassifications"`
}

// Cluster is a naive technology grouping by classification prefix.
type Cluster struct {
	Code      string   `json:"code"`
	Size      int      `json:"size"`
	PatentIDs []string `json:"patentIds"`
	Keywords  []string `json:"keywords"`
}

// Node is a citation network vertex.
type Node struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Year  string `json:"year"`
}

// Network is the citation graph over a sample. EdgesAvailable is false when
// citation data could not be loaded; edges are never invented.
type Network struct {
	Nodes          []Node        `json:"nodes"`
	Edges          []patent.Edge `json:"edges"`
	EdgesAvailable bool          `json:"edgesAvailable"`
}

// Landscape is the full analytics payload for a query.
type Landscape struct {
	Query      string     `json:"query"`
	SampleSize int        `json:"sampleSize"`
	Statistics Statistics `json:"statistics"`
	Clusters   []Cluster  `json:"clusters"`
	Network    Network    `json:"network"`
}

// ClusterParams bounds clustering output.
type ClusterParams struct {
	MinSize     int
	MaxClusters int
	MaxPatents  int
	MaxKeywords int
}

// BuildClusters groups records by the first four characters of their primary
// classification. Clusters smaller than MinSize are dropped; the rest are
// ordered by size desc, then code asc, and capped at MaxClusters.
func BuildClusters(records []patent.Record, p ClusterParams) []Cluster {
	groups := make(map[string][]*patent.Record)
	for i := range records {
		code := clusterCode(&records[i])
		groups[code] = append(groups[code], &records[i])
	}

	clusters := []Cluster{}
	for code, members := range groups {
		if len(members) < p.MinSize {
			continue
		}
		c := Cluster{Code: code, Size: len(members), PatentIDs: []string{}}
		for _, m := range members {
			if len(c.PatentIDs) == p.MaxPatents {
				break
			}
			c.PatentIDs = append(c.PatentIDs, m.ID)
		}
		c.Keywords = topWords(members, p.MaxKeywords)
		clusters = append(clusters, c)
	}

	sort.Slice(clusters, func(i, j int) bool {
		if clusters[i].Size != clusters[j].Size {
			return clusters[i].Size > clusters[j].Size
		}
		return clusters[i].Code < clusters[j].Code
	})
	if p.MaxClusters > 0 && len(clusters) > p.MaxClusters {
		clusters = clusters[:p.MaxClusters]
	}
	return clusters
}

// BuildNodes returns network nodes for the first n records.
func BuildNodes(records []patent.Record, n int) []Node {
	if n > len(records) {
		n = len(records)
	}
	nodes := make([]Node, 0, n)
	for i := 0; i < n; i++ {
		nodes = append(nodes, Node{ID: records[i].ID, Title: records[i].Title, Year: records[i].Year()})
	}
	return nodes
}

func clusterCode(r *patent.Record) string {
	code := strings.ToUpper(strings.TrimSpace(r.PrimaryClassification()))
	if code == "" {
		return UnknownCluster
	}
	if runes := []rune(code); len(runes) > ClusterCodeLength {
		code = string(runes[:ClusterCodeLength])
	}
	return code
}

// topWords returns the most frequent lower-cased title words longer than
// three characters, ties broken alphabetically.
func topWords(members []*patent.Record, limit int) []string {
	freq := make(map[string]int)
	for _, m := range members {
		if m.Title == patent.DefaultTitle {
			continue
		}
		words := strings.FieldsFunc(strings.ToLower(m.Title), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		for _, w := range words {
			if len([]rune(w)) > 3 {
				freq[w]++
			}
		}
	}

	words := make([]string, 0, len(freq))
	for w := range freq {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if freq[words[i]] != freq[words[j]] {
			return freq[words[i]] > freq[words[j]]
		}
		return words[i] < words[j]
	})
	if len(words) > limit {
		words = words[:limit]
	}
	return words
}
