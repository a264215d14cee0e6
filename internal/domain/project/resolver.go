package project

import "strings"

// Resolver decides which existing project a candidate name refers to.
type Resolver interface {
	Resolve(name string, projects []*Project) *Project
}

// SubstringResolver matches when an existing project name contains the
// candidate name, ignoring case. The first match in store order wins;
// several matching projects are not disambiguated.
type SubstringResolver struct{}

// Resolve implements Resolver.
func (SubstringResolver) Resolve(name string, projects []*Project) *Project {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil
	}
	for _, p := range projects {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			return p
		}
	}
	return nil
}
