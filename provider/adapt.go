package provider

import "context"

// Adapt exposes a backend RequestResponse[BI, BO] as a domain
// RequestResponse[I, O]. mapIn builds the backend input; mapOut interprets
// the backend output together with its error, so callers can turn a failed
// run into a typed domain result instead of an error.
func Adapt[I, O, BI, BO any](
	inner RequestResponse[BI, BO],
	name string,
	mapIn func(ctx context.Context, input I) (BI, error),
	mapOut func(output BO, err error) (O, error),
) RequestResponse[I, O] {
	return &adaptedRR[I, O, BI, BO]{inner: inner, name: name, mapIn: mapIn, mapOut: mapOut}
}

type adaptedRR[I, O, BI, BO any] struct {
	inner  RequestResponse[BI, BO]
	name   string
	mapIn  func(ctx context.Context, input I) (BI, error)
	mapOut func(output BO, err error) (O, error)
}

func (a *adaptedRR[I, O, BI, BO]) Name() string { return a.name }

func (a *adaptedRR[I, O, BI, BO]) IsAvailable(ctx context.Context) bool {
	return a.inner.IsAvailable(ctx)
}

func (a *adaptedRR[I, O, BI, BO]) Execute(ctx context.Context, input I) (O, error) {
	backendInput, err := a.mapIn(ctx, input)
	if err != nil {
		var zero O
		return zero, err
	}
	return a.mapOut(a.inner.Execute(ctx, backendInput))
}
