package ingest

import (
	"slices"
	"strconv"
	"strings"

	"github.com/agentic-research/sitemap/api"
)

// DirectivePrefix starts a site map directive in a Go line comment.
const DirectivePrefix = "//sitemap:"

// Directive verbs.
const (
	// VerbNode declares a node: //sitemap:node key=Home title="Home page"
	VerbNode = "node"
	// VerbAction overrides the action name: //sitemap:action Browse
	VerbAction = "action"
	// VerbVerbs lists accepted HTTP methods: //sitemap:verbs GET,POST
	VerbVerbs = "verbs"
)

var httpMethods = []string{"GET", "POST", "PUT", "DELETE", "HEAD", "PATCH", "OPTIONS"}

// Directive is one parsed //sitemap: comment.
type Directive struct {
	Verb  string
	Args  string
	Attrs []api.Attr // VerbNode
	Verbs []string   // VerbVerbs
	Line  int
}

// ParseDirective parses a single comment. ok is false when the comment is
// not a site map directive.
func ParseDirective(comment string) (d Directive, ok bool, err error) {
	rest, found := strings.CutPrefix(strings.TrimRight(comment, " \t\r"), DirectivePrefix)
	if !found {
		return Directive{}, false, nil
	}
	verb, args, _ := strings.Cut(rest, " ")
	d = Directive{Verb: verb, Args: strings.TrimSpace(args)}
	switch verb {
	case VerbNode:
		d.Attrs, err = parsePairs(d.Args)
	case VerbAction:
		if d.Args == "" || strings.ContainsAny(d.Args, " \t") {
			err = invalidf("sitemap:action takes exactly one name, got %q", d.Args)
		}
	case VerbVerbs:
		d.Verbs = splitList(strings.ToUpper(d.Args))
		if len(d.Verbs) == 0 {
			err = invalidf("sitemap:verbs needs at least one HTTP method")
		}
		for _, v := range d.Verbs {
			if !slices.Contains(httpMethods, v) {
				err = invalidf("sitemap:verbs: unknown HTTP method %q", v)
				break
			}
		}
	default:
		err = invalidf("unknown directive %q", DirectivePrefix+verb)
	}
	return d, true, err
}

// parsePairs reads space-separated key=value pairs. Values are bare words
// or Go string literals.
func parsePairs(s string) ([]api.Attr, error) {
	var attrs []api.Attr
	for {
		s = strings.TrimLeft(s, " \t")
		if s == "" {
			return attrs, nil
		}
		eq := strings.IndexAny(s, "= \t")
		if eq <= 0 || s[eq] != '=' {
			return nil, invalidf("expected key=value at %q", s)
		}
		key := s[:eq]
		s = s[eq+1:]

		var val string
		if s != "" && (s[0] == '"' || s[0] == '`') {
			q, err := strconv.QuotedPrefix(s)
			if err != nil {
				return nil, invalidf("bad quoted value for %q: %v", key, err)
			}
			val, _ = strconv.Unquote(q)
			s = s[len(q):]
			if s != "" && s[0] != ' ' && s[0] != '\t' {
				return nil, invalidf("expected space after value of %q", key)
			}
		} else {
			end := strings.IndexAny(s, " \t")
			if end < 0 {
				end = len(s)
			}
			val, s = s[:end], s[end:]
		}
		if slices.ContainsFunc(attrs, func(a api.Attr) bool { return a.Name == key }) {
			return nil, invalidf("duplicate key %q", key)
		}
		attrs = append(attrs, api.Attr{Name: key, Value: val})
	}
}
