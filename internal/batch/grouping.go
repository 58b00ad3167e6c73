package batch

import (
	"net/url"
	"sort"
)

// defaultGroup collects jobs whose URL cannot be parsed
const defaultGroup = "default"

// GroupByDomain groups jobs by the host of their target URL.
// Domains are returned sorted so runs are reproducible.
func GroupByDomain(jobs []Job) ([]string, map[string][]Job) {
	groups := make(map[string][]Job)

	for _, job := range jobs {
		domain := defaultGroup
		if u, err := url.Parse(job.Config.URL); err == nil && u.Host != "" {
			domain = u.Host
		}
		groups[domain] = append(groups[domain], job)
	}

	domains := make([]string, 0, len(groups))
	for d := range groups {
		domains = append(domains, d)
	}
	sort.Strings(domains)

	return domains, groups
}
