package survey

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// ReportLink is a weekly report candidate found on the publication index page.
type ReportLink struct {
	Path      string
	StartYear int
	EndYear   int
}

// The weekly municipality files are published as
// resumo_semanal_municipios_<start>_a_<end>.xlsx. The page occasionally drops
// the anchor markup, so a looser scan over the raw text backs up the
// href-anchored pass.
var (
	hrefReportPattern  = regexp.MustCompile(`(?i)href="([^"]*resumo_semanal_municipios[_-](\d{4})[_-]a[_-](\d{4})\.xlsx?)"`)
	looseReportPattern = regexp.MustCompile(`(?i)([^"'\s<>\[\]()]*resumo_semanal_municipios[_-](\d{4})[_-]a[_-](\d{4})\.xlsx?)`)
)

// FindReportLinks scans index page markup for weekly report candidates.
func FindReportLinks(page string) []ReportLink {
	links := collectLinks(hrefReportPattern, page)
	if len(links) == 0 {
		links = collectLinks(looseReportPattern, page)
	}
	return links
}

func collectLinks(pattern *regexp.Regexp, page string) []ReportLink {
	matches := pattern.FindAllStringSubmatch(page, -1)
	links := make([]ReportLink, 0, len(matches))
	for _, m := range matches {
		start, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		end, err := strconv.Atoi(m[3])
		if err != nil {
			continue
		}
		links = append(links, ReportLink{Path: m[1], StartYear: start, EndYear: end})
	}
	return links
}

// SelectLatestReport picks the candidate covering the most recent years: the
// largest end year wins, ties fall to the largest start year.
func SelectLatestReport(links []ReportLink) (ReportLink, error) {
	if len(links) == 0 {
		return ReportLink{}, ErrNoReportLink
	}
	best := links[0]
	for _, link := range links[1:] {
		if link.EndYear > best.EndYear ||
			(link.EndYear == best.EndYear && link.StartYear > best.StartYear) {
			best = link
		}
	}
	return best, nil
}

// ResolveReportURL turns a discovered path into an absolute URL. Site-rooted
// paths join the index page's scheme and host, bare filenames join the known
// archive directory, and absolute URLs pass through untouched.
func ResolveReportURL(path, pageURL, baseURL string) string {
	switch {
	case strings.HasPrefix(path, "/"):
		if u, err := url.Parse(pageURL); err == nil && u.Host != "" {
			return u.Scheme + "://" + u.Host + path
		}
		return path
	case !strings.Contains(path, "://"):
		return strings.TrimSuffix(baseURL, "/") + "/" + path
	default:
		return path
	}
}
