package main

import (
	"fmt"
	"os"

	_ "time/tzdata" // zoneinfo for minimal images

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/rafaelordanini/ANP-GRU/internal/api"
	"github.com/rafaelordanini/ANP-GRU/internal/app"
)

func main() {
	a, err := app.NewApp(os.Getenv("ANPGRU_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "bootstrap failed: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	handler := api.NewLambdaHandler(a.GetService(), a.GetClock(), a.GetConfig(), a.GetLogger().Named("lambda"))
	lambda.Start(handler.Handle)
}
