// Package swagger embeds the OpenAPI document for the users API.
package swagger

import _ "embed"

// Document is the OpenAPI 2.0 description of /api/users.
//
//go:embed user.swagger.json
var Document []byte
