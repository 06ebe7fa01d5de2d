package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// departments maps category labels to routing targets. "Food Services" has
// no category of its own and is reachable only through a keyword rule.
var departments = map[string]Department{
	"Academics":      {Name: "Academic Affairs", Email: "academics@university.edu"},
	"Administration": {Name: "Student Administration", Email: "admin@university.edu"},
	"Housing":        {Name: "Housing Services", Email: "housing@university.edu"},
	"Finance":        {Name: "Finance Office", Email: "finance@university.edu"},
	"Facilities":     {Name: "Facilities", Email: "facilities@university.edu"},
	"Food Services":  {Name: "Food Services", Email: "food@university.edu"},
	"Other":          {Name: "General Inquiries", Email: "info@university.edu"},
}

type keywordRule struct {
	Keyword    string `yaml:"keyword"`
	Department string `yaml:"department"`
}

// Rule order matters: the first keyword found in the text wins, so the
// built-ins are a slice rather than a map.
var defaultKeywordRules = []keywordRule{
	{Keyword: "food", Department: "Food Services"},
	{Keyword: "cafeteria", Department: "Food Services"},
	{Keyword: "dining", Department: "Food Services"},
	{Keyword: "canteen", Department: "Food Services"},
	{Keyword: "meal", Department: "Food Services"},
	{Keyword: "parking", Department: "Facilities"},
	{Keyword: "library", Department: "Facilities"},
}

// Router maps a category plus optional feedback text to a department.
// A keyword match in the text overrides the category lookup entirely.
type Router struct {
	rules []keywordRule
}

// NewRouter builds a router with the built-in keyword rules followed by any
// extra rules loaded from a routing-rules file.
func NewRouter(extra []keywordRule) *Router {
	rules := make([]keywordRule, 0, len(defaultKeywordRules)+len(extra))
	rules = append(rules, defaultKeywordRules...)
	rules = append(rules, extra...)
	return &Router{rules: rules}
}

// Route is a pure function: no state is mutated, unknown categories fall
// back to the Other department.
func (r *Router) Route(category, text string) Department {
	if text != "" {
		lower := strings.ToLower(text)
		for _, rule := range r.rules {
			if strings.Contains(lower, rule.Keyword) {
				if dept, ok := departments[rule.Department]; ok {
					return dept
				}
				return departments["Other"]
			}
		}
	}

	if dept, ok := departments[category]; ok {
		return dept
	}
	return departments["Other"]
}

type routingRulesFile struct {
	Rules []keywordRule `yaml:"rules"`
}

// LoadRoutingRules reads extra keyword rules from a YAML file. Every rule
// must name a known department; keywords are matched lowercased.
func LoadRoutingRules(path string) ([]keywordRule, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read routing rules: %w", err)
	}
	var file routingRulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse routing rules yaml: %w", err)
	}

	var rules []keywordRule
	for _, rule := range file.Rules {
		keyword := strings.ToLower(strings.TrimSpace(rule.Keyword))
		dept := strings.TrimSpace(rule.Department)
		if keyword == "" {
			return nil, fmt.Errorf("routing rule with empty keyword")
		}
		if _, ok := departments[dept]; !ok {
			return nil, fmt.Errorf("routing rule '%s' names unknown department '%s'", keyword, dept)
		}
		rules = append(rules, keywordRule{Keyword: keyword, Department: dept})
	}
	return rules, nil
}
