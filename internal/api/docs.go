// Package api provides the admin REST API for the Aureus indexer
// @title Aureus Indexer API
// @version 1.0
// @description REST API for inspecting sync status and managing webhook subscriptions
// @contact.name API Support
// @contact.url https://github.com/aureus-network/aureus-indexer
// @license.name Apache 2.0
// @license.url https://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8080
// @basePath /api/v1
// @schemes http https
package api
