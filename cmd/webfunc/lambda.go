package main

import (
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/vyrodovalexey/webfunc/internal/adapter"
	"github.com/vyrodovalexey/webfunc/internal/observability"
)

// runLambda hands API Gateway events to the pipeline through the Lambda
// runtime. It returns only if the runtime stops.
func runLambda(app *application) {
	app.logger.Info("serving API Gateway proxy events",
		observability.String("hosting", string(app.currentConfig().HostingType())),
	)

	lambda.StartWithOptions(app.lambdaHandler(),
		lambda.WithEnableSIGTERM(func() {
			app.shutdown(nil)
		}),
	)
}

// lambdaHandler adapts the current pipeline to API Gateway proxy events.
func (a *application) lambdaHandler() adapter.LambdaFunc {
	cfg := a.currentConfig()
	return adapter.LambdaHandler(a.currentPipeline(),
		adapter.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
		adapter.WithLogger(a.logger),
	)
}
