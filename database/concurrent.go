package database

import (
	"golang.org/x/sync/errgroup"
)

// ConcurrentMapFuncWithError applies f to every input, up to `concurrency` at
// a time, and returns the outputs in input order. Zero concurrency disables
// parallelism; a negative value removes the limit.
func ConcurrentMapFuncWithError[Tin any, Tout any](inputs []Tin, concurrency int, f func(Tin) (Tout, error)) ([]Tout, error) {
	eg := errgroup.Group{}
	if concurrency == 0 {
		eg.SetLimit(1)
	} else if concurrency > 0 {
		eg.SetLimit(concurrency)
	}

	outputs := make([]Tout, len(inputs))
	for i := range inputs {
		i := i
		eg.Go(func() error {
			out, err := f(inputs[i])
			if err != nil {
				return err
			}
			outputs[i] = out
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}
