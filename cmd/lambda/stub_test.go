package main

import (
	"context"

	"github.com/jward/lambda/internal/runtime"
)

type stubResolver struct{}

func (stubResolver) Resolve(context.Context, runtime.Event) ([]any, bool, error) {
	return nil, false, nil
}

func (stubResolver) Resolvers() []string { return nil }
