package lostcancel

import (
	"context"
	"time"
)

func checkContext(parent context.Context) context.Context {
	ctx, _ := context.WithTimeout(parent, time.Second) // want "the cancel function returned by context.WithTimeout should be called"
	return ctx
}

func check(parent context.Context, status func(context.Context) error) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	return status(ctx)
}
