package batch

import (
	urlutil "github.com/maialino123/ecomate-extract/internal/utils/url"
	"github.com/maialino123/ecomate-extract/pkg/models"
)

// Group is the requests for one host, as indexes into the input slice.
type Group struct {
	Host    string
	Indexes []int
}

// GroupByHost groups requests by host, keeping the order in which hosts and
// requests first appear. Unparseable URLs share the "" group.
func GroupByHost(requests []models.FetchOptions) []Group {
	var groups []Group
	pos := make(map[string]int)
	for i, req := range requests {
		host := urlutil.Host(req.URL)
		g, ok := pos[host]
		if !ok {
			g = len(groups)
			pos[host] = g
			groups = append(groups, Group{Host: host})
		}
		groups[g].Indexes = append(groups[g].Indexes, i)
	}
	return groups
}
