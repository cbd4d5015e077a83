// cmd/main.go
package main

import (
	"go-ledger/app"
)

// @title           Go-Ledger API
// @version         1.0
// @description     Account balances and an auditable, reversible transaction ledger.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app.Run()
}
