package upstream

import (
	"context"
	"errors"
	"net/url"

	"detector/internal/domain"
)

// Registry reads one entity type from an upstream service:
//
//	GET /{resource}/{key}          -> V
//	GET /{resource}?{param}=k1&... -> []V
type Registry[V any] struct {
	client   *Client
	resource string
	param    string
	keyOf    func(V) string
}

func newRegistry[V any](client *Client, resource, param string, keyOf func(V) string) (*Registry[V], error) {
	if client == nil {
		return nil, errors.New("upstream client is required")
	}
	return &Registry[V]{
		client:   client,
		resource: resource,
		param:    param,
		keyOf:    keyOf,
	}, nil
}

// NewPersonRegistry reads persons by person code.
func NewPersonRegistry(client *Client) (*Registry[domain.Person], error) {
	return newRegistry(client, "persons", "codes", func(p domain.Person) string { return p.Code })
}

// NewDeviceRegistry reads devices by MAC address.
func NewDeviceRegistry(client *Client) (*Registry[domain.Device], error) {
	return newRegistry(client, "devices", "macs", func(d domain.Device) string { return d.Mac })
}

// NewAccountRegistry reads accounts by account number.
func NewAccountRegistry(client *Client) (*Registry[domain.Account], error) {
	return newRegistry(client, "accounts", "numbers", func(a domain.Account) string { return a.Number })
}

// Get returns the entity for key. An unknown key is an *Error that matches
// sentinel.ErrNotFound.
func (r *Registry[V]) Get(ctx context.Context, key string) (V, error) {
	var entity V
	if err := r.client.getJSON(ctx, "/"+r.resource+"/"+url.PathEscape(key), nil, &entity); err != nil {
		var zero V
		return zero, err
	}
	return entity, nil
}

// GetMany returns the entities the upstream knows among keys, indexed by key.
// Entries for keys that were not asked for are dropped.
func (r *Registry[V]) GetMany(ctx context.Context, keys []string) (map[string]V, error) {
	result := make(map[string]V, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	var entities []V
	if err := r.client.getJSON(ctx, "/"+r.resource, url.Values{r.param: keys}, &entities); err != nil {
		return nil, err
	}

	requested := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		requested[key] = struct{}{}
	}
	for _, entity := range entities {
		key := r.keyOf(entity)
		if _, ok := requested[key]; ok {
			result[key] = entity
		}
	}
	return result, nil
}
