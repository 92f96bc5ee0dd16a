package robots

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Rules is a parsed robots.txt.
type Rules struct {
	Groups []Group
}

// Group is one user-agent section.
type Group struct {
	Agents     []string
	Allow      []string
	Disallow   []string
	CrawlDelay *time.Duration
}

// allowAll and disallowAll stand in for missing or unreachable files.
var (
	allowAll    = Rules{}
	disallowAll = Rules{Groups: []Group{{Agents: []string{"*"}, Disallow: []string{"/"}}}}
)

// Parse reads robots.txt text. Unknown directives and malformed lines are
// ignored.
func Parse(text string) Rules {
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var (
		groups []Group
		cur    Group
		// a user-agent line after rules starts a new group
		sawRule bool
	)
	flush := func() {
		if len(cur.Agents) > 0 {
			groups = append(groups, cur)
		}
		cur, sawRule = Group{}, false
	}
	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		val = strings.TrimSpace(val)
		switch key {
		case "user-agent", "useragent":
			if sawRule {
				flush()
			}
			cur.Agents = append(cur.Agents, strings.ToLower(val))
		case "allow":
			cur.Allow = append(cur.Allow, val)
			sawRule = true
		case "disallow":
			cur.Disallow = append(cur.Disallow, val)
			sawRule = true
		case "crawl-delay", "crawldelay":
			if secs, err := strconv.ParseFloat(val, 64); err == nil && secs >= 0 {
				d := time.Duration(secs * float64(time.Second))
				cur.CrawlDelay = &d
			}
			sawRule = true
		}
	}
	flush()
	return Rules{Groups: groups}
}

// IsAllowed reports whether path (query included) may be fetched by
// userAgent. The most specific agent group applies; within it the longest
// matching pattern wins and Allow wins ties. No match means allowed.
func (r Rules) IsAllowed(userAgent, path string) bool {
	g, ok := r.group(userAgent)
	if !ok {
		return true
	}
	best, allowed := -1, true
	consider := func(patterns []string, allow bool) {
		for _, p := range patterns {
			if p == "" || !matches(p, path) {
				continue
			}
			score := specificity(p)
			if score > best || (score == best && allow && !allowed) {
				best, allowed = score, allow
			}
		}
	}
	consider(g.Disallow, false)
	consider(g.Allow, true)
	return allowed
}

// CrawlDelayFor returns the delay of the matching group, or nil.
func (r Rules) CrawlDelayFor(userAgent string) *time.Duration {
	g, ok := r.group(userAgent)
	if !ok {
		return nil
	}
	return g.CrawlDelay
}

// group picks the longest agent token contained in userAgent; "*" matches
// anything but loses to every named token.
func (r Rules) group(userAgent string) (Group, bool) {
	ua := strings.ToLower(strings.TrimSpace(userAgent))
	bestIdx, bestScore := -1, -1
	for i, g := range r.Groups {
		for _, a := range g.Agents {
			score := -1
			switch {
			case a == "*":
				score = 0
			case a != "" && strings.Contains(ua, a):
				score = len(a)
			}
			if score > bestScore {
				bestIdx, bestScore = i, score
			}
		}
	}
	if bestIdx < 0 {
		return Group{}, false
	}
	return r.Groups[bestIdx], true
}

// matches applies a robots pattern: '*' is any run, a trailing '$' anchors
// the end, and matching starts at the beginning of the path.
func matches(pattern, path string) bool {
	body, anchored := strings.CutSuffix(pattern, "$")
	parts := strings.Split(body, "*")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	expr := "^" + strings.Join(parts, ".*")
	if anchored {
		expr += "$"
	}
	return regexp.MustCompile(expr).MatchString(path)
}

func specificity(pattern string) int {
	return len(strings.ReplaceAll(strings.TrimSuffix(pattern, "$"), "*", ""))
}
