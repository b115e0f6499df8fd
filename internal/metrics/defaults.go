package metrics

import "github.com/san-kum/pidloop/internal/dynamo"

// DefaultWindow is the number of trailing samples used for steady-state error.
const DefaultWindow = 100

func Defaults() []dynamo.Metric {
	return []dynamo.Metric{
		NewControlEffort(),
		NewIAE(),
		NewOvershoot(),
		NewSteadyStateError(DefaultWindow),
	}
}
