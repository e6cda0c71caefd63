// Package store is the persistence port: a string-keyed map of JSON documents scoped
// per device.
package store

import (
	"context"
	"sort"
	"strings"
)

// Store is a synchronous key to JSON-string map.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Lister reports the device namespaces that currently hold at least one key.
type Lister interface {
	Namespaces(ctx context.Context) ([]string, error)
}

const nsSeparator = ":"

type namespaced struct {
	base Store
	ns   string
}

// Namespace scopes s so every key is stored as "<ns>:<key>".
func Namespace(s Store, ns string) Store {
	return &namespaced{base: s, ns: ns}
}

func (n *namespaced) key(k string) string {
	return n.ns + nsSeparator + k
}

func (n *namespaced) Get(ctx context.Context, key string) (string, bool, error) {
	return n.base.Get(ctx, n.key(key))
}

func (n *namespaced) Set(ctx context.Context, key, value string) error {
	return n.base.Set(ctx, n.key(key), value)
}

func (n *namespaced) Remove(ctx context.Context, key string) error {
	return n.base.Remove(ctx, n.key(key))
}

// splitNamespace returns the namespace part of a fully scoped key.
func splitNamespace(key string) (string, bool) {
	i := strings.LastIndex(key, nsSeparator)
	if i <= 0 {
		return "", false
	}
	return key[:i], true
}

func uniqueSorted(in map[string]struct{}) []string {
	out := make([]string, 0, len(in))
	for k := range in {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
