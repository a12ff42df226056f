// @title           Identity API
// @version         1.0
// @description     Accounts, roles and token authentication.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
package main

import (
	"os"

	_ "github.com/emphasys/identity/docs"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
