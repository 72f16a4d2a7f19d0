// Package util contains helper functions used around the code.
package util

import "strings"

// In returns true if s is found in ss, false otherwise
func In[T comparable](ss []T, s T) bool {
	for _, v := range ss {
		if s == v {
			return true
		}
	}

	return false
}

// Symbols splits comma separated chain symbols, ie. from a query "?chain=btc,eth&chain=sol", returning them trimmed,
// uppercased and without repetitions or empties.
func Symbols(vals []string) []string {
	var res []string

	for _, v := range vals {
		for _, s := range strings.Split(v, ",") {
			if s = strings.ToUpper(strings.TrimSpace(s)); s != "" && !In(res, s) {
				res = append(res, s)
			}
		}
	}

	return res
}
