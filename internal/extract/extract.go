// Package extract implements generic searches over arbitrarily shaped JSON
// documents. The Nano API returns deeply nested, irregular trees; rather than
// modeling every response, callers describe the value they want (a key/value
// pair that identifies a node, plus an optional property to project) and the
// extractor walks the document for it.
package extract

import "github.com/tidwall/gjson"

// maxDepth bounds recursion for pathological inputs. Real Nano documents
// bottom out around depth 12.
const maxDepth = 64

// Predicate reports whether a node should contribute to a sum.
type Predicate func(node gjson.Result) bool

// FindByKey walks tree depth-first in document order and returns the first
// object whose property key compares equal to value. When project is
// non-empty, the result is that property of the matching object (which may
// not exist); otherwise it is the object itself. The second return is false
// when no object matches.
func FindByKey(tree gjson.Result, key, value, project string) (gjson.Result, bool) {
	return findByKey(tree, key, value, project, 0, nil)
}

func findByKey(node gjson.Result, key, value, project string, depth int, visited *int) (gjson.Result, bool) {
	if depth > maxDepth || !node.Exists() {
		return gjson.Result{}, false
	}
	if !node.IsObject() && !node.IsArray() {
		return gjson.Result{}, false
	}
	if visited != nil {
		*visited++
	}

	if node.IsObject() {
		if v := node.Get(key); v.Exists() && v.Type != gjson.JSON && v.String() == value {
			if project == "" {
				return node, true
			}
			return node.Get(project), true
		}
	}

	var (
		match gjson.Result
		found bool
	)
	node.ForEach(func(_, child gjson.Result) bool {
		if !child.IsObject() && !child.IsArray() {
			return true
		}
		if r, ok := findByKey(child, key, value, project, depth+1, visited); ok {
			match, found = r, true
			return false
		}
		return true
	})
	return match, found
}

// SumByPredicate walks tree depth-first and sums the numeric property
// amountKey off every object satisfying pred, recursing into arrays and
// objects uniformly. Scalar and null inputs contribute 0.
func SumByPredicate(tree gjson.Result, pred Predicate, amountKey string) float64 {
	return sumByPredicate(tree, pred, amountKey, 0)
}

func sumByPredicate(node gjson.Result, pred Predicate, amountKey string, depth int) float64 {
	if depth > maxDepth || !node.Exists() {
		return 0
	}
	if !node.IsObject() && !node.IsArray() {
		return 0
	}

	var sum float64
	if node.IsObject() && pred(node) {
		sum += node.Get(amountKey).Float()
	}
	node.ForEach(func(_, child gjson.Result) bool {
		sum += sumByPredicate(child, pred, amountKey, depth+1)
		return true
	})
	return sum
}
