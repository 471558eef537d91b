package route

// MatchResult describes a successful match of a request path.
type MatchResult struct {
	// Matched is the portion of the normalized path consumed by the pattern.
	Matched string
	// Route is the normalized template that matched.
	Route string
	// Params maps variable names to captured values.
	Params map[string]string
}

// Match matches path against p. The path is normalized and lower-cased
// first; the match must begin at offset zero.
func Match(path string, p *Pattern) (*MatchResult, bool) {
	if p == nil {
		return nil, false
	}

	normalized := NormalizePath(path)
	loc := p.regex.FindStringSubmatchIndex(normalized)
	if loc == nil || loc[0] != 0 {
		return nil, false
	}

	params := make(map[string]string, len(p.vars))
	for i, name := range p.vars {
		start, end := loc[2*(i+1)], loc[2*(i+1)+1]
		if start < 0 {
			continue
		}
		params[name] = normalized[start:end]
	}

	return &MatchResult{
		Matched: normalized[loc[0]:loc[1]],
		Route:   p.route,
		Params:  params,
	}, true
}

// Best matches path against every pattern and returns the result with the
// longest matched literal. Ties keep the earliest pattern.
func Best(path string, patterns []*Pattern) (*MatchResult, bool) {
	var best *MatchResult
	for _, p := range patterns {
		m, ok := Match(path, p)
		if !ok {
			continue
		}
		if best == nil || len(m.Matched) > len(best.Matched) {
			best = m
		}
	}
	return best, best != nil
}

// Longer reports whether a is a strictly better match than b.
func Longer(a, b *MatchResult) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	return len(a.Matched) > len(b.Matched)
}
