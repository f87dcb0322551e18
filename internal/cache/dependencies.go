package cache

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"storefront/internal/services/shopify"
)

// ExtractDependencies returns every remote identifier a cached result
// depends on: the values bound to ID typed variables plus every value found
// at a selection path ending in an "id" field. Lists in the result fan out,
// so connection edges are covered. A result without data has no
// dependencies.
func ExtractDependencies(operation string, variables map[string]any, result map[string]any) ([]string, error) {
	data, ok := result["data"].(map[string]any)
	if !ok {
		return nil, nil
	}

	doc, err := parser.ParseQuery(&ast.Source{Input: operation})
	if err != nil {
		return nil, fmt.Errorf("parse operation: %w", err)
	}

	var candidates []any
	for _, op := range doc.Operations {
		for _, def := range op.VariableDefinitions {
			if def.Type == nil || def.Type.Name() != "ID" {
				continue
			}
			if v, ok := variables[def.Variable]; ok {
				candidates = append(candidates, v)
			}
		}
	}

	var paths [][]string
	for _, op := range doc.Operations {
		paths = idPaths(doc, op.SelectionSet, nil, map[string]bool{}, paths)
	}
	for _, p := range paths {
		candidates = resolve(data, p, candidates)
	}

	seen := map[string]bool{}
	var ids []string
	for _, c := range flatten(candidates, nil) {
		if c == "" {
			continue
		}
		id := shopify.DecodeStorefront(c)
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

// idPaths collects the response paths of every field named id below set.
// Fragment spreads are expanded in place; active guards against cycles.
func idPaths(doc *ast.QueryDocument, set ast.SelectionSet, prefix []string, active map[string]bool, acc [][]string) [][]string {
	for _, sel := range set {
		switch s := sel.(type) {
		case *ast.Field:
			key := s.Alias
			if key == "" {
				key = s.Name
			}
			path := append(append([]string(nil), prefix...), key)
			if s.Name == "id" {
				acc = append(acc, path)
			}
			if len(s.SelectionSet) > 0 {
				acc = idPaths(doc, s.SelectionSet, path, active, acc)
			}
		case *ast.InlineFragment:
			acc = idPaths(doc, s.SelectionSet, prefix, active, acc)
		case *ast.FragmentSpread:
			def := doc.Fragments.ForName(s.Name)
			if def == nil || active[s.Name] {
				continue
			}
			active[s.Name] = true
			acc = idPaths(doc, def.SelectionSet, prefix, active, acc)
			delete(active, s.Name)
		}
	}
	return acc
}

// resolve follows path through node, applying the remainder of the path to
// every element of any list met on the way.
func resolve(node any, path []string, acc []any) []any {
	if node == nil {
		return acc
	}
	if list, ok := node.([]any); ok {
		for _, item := range list {
			acc = resolve(item, path, acc)
		}
		return acc
	}
	if len(path) == 0 {
		return append(acc, node)
	}
	m, ok := node.(map[string]any)
	if !ok {
		return acc
	}
	return resolve(m[path[0]], path[1:], acc)
}

func flatten(values []any, acc []string) []string {
	for _, v := range values {
		switch t := v.(type) {
		case string:
			acc = append(acc, t)
		case json.Number:
			acc = append(acc, t.String())
		case float64:
			acc = append(acc, strconv.FormatFloat(t, 'f', -1, 64))
		case []any:
			acc = flatten(t, acc)
		case []string:
			acc = append(acc, t...)
		}
	}
	return acc
}
