package core

import "context"

// InputAdapter loads the input dataset for pipeline processing.
type InputAdapter[In any] interface {
	Load(ctx context.Context) (In, error)
}

// OutputAdapter persists the dataset produced by pipeline processing.
type OutputAdapter[Out any] interface {
	Store(ctx context.Context, out Out) error
}

// Processor transforms one input item into one output item.
type Processor[In any, Out any] interface {
	Process(ctx context.Context, in In) (Out, error)
}

// ProcessFunc adapts a function to the Processor interface.
type ProcessFunc[In any, Out any] func(ctx context.Context, in In) (Out, error)

func (f ProcessFunc[In, Out]) Process(ctx context.Context, in In) (Out, error) {
	return f(ctx, in)
}
