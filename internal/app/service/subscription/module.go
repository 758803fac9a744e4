package subscription

import "go.uber.org/fx"

// Module exposes the subscription store and reconciler via Fx.
var Module = fx.Options(
	fx.Provide(NewStore),
	fx.Provide(NewReconciler),
)
