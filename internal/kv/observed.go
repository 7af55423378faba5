package kv

import (
	"context"
	"errors"
)

// ErrorHook is told about every failed store operation except a missing key.
type ErrorHook func(operation, key string, err error)

type observed struct {
	Store
	hook ErrorHook
}

// Observe wraps store so failures are reported to hook before being returned.
func Observe(store Store, hook ErrorHook) Store {
	if hook == nil {
		return store
	}
	return &observed{Store: store, hook: hook}
}

func (o *observed) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := o.Store.Get(ctx, key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		o.hook("get", key, err)
	}
	return v, err
}

func (o *observed) Set(ctx context.Context, key string, value []byte) error {
	err := o.Store.Set(ctx, key, value)
	if err != nil {
		o.hook("set", key, err)
	}
	return err
}

func (o *observed) Clear(ctx context.Context) error {
	err := o.Store.Clear(ctx)
	if err != nil {
		o.hook("clear", "*", err)
	}
	return err
}
