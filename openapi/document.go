package openapi

import (
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/pomclinic/intake/config"
)

// Document builds the OpenAPI 3 description of the intake API. It is
// assembled once at startup and served read-only.
func Document(cfg *config.Config) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       cfg.App.Name,
			Version:     cfg.App.Version,
			Description: "Authentication, session and account API for the consultation intake backend.",
		},
		Paths: openapi3.NewPaths(),
		Components: &openapi3.Components{
			SecuritySchemes: openapi3.SecuritySchemes{
				"bearerAuth": &openapi3.SecuritySchemeRef{
					Value: &openapi3.SecurityScheme{
						Type:         "http",
						Scheme:       "bearer",
						BearerFormat: "JWT",
					},
				},
			},
			Schemas: openapi3.Schemas{
				"User":    userSchema(),
				"Message": messageSchema(),
			},
		},
	}

	doc.Tags = openapi3.Tags{
		{Name: "auth", Description: "Login, logout and token refresh"},
		{Name: "password", Description: "Password reset flow"},
		{Name: "users", Description: "Account management"},
		{Name: "sessions", Description: "Session inspection"},
	}

	addAuthPaths(doc)
	addPasswordPaths(doc)
	addUserPaths(doc)
	addSessionPaths(doc)

	return doc
}

func addAuthPaths(doc *openapi3.T) {
	doc.Paths.Set("/login", &openapi3.PathItem{
		Post: operation("auth", "login", "Log in with email and password",
			withJSONRequest(objectSchema(map[string]*openapi3.SchemaRef{
				"email":    stringSchema(),
				"password": stringSchema(),
			})),
			withResponse(201, "Logged in; token cookies set", refSchema("Message")),
			withResponse(401, "Invalid password", refSchema("Message")),
			withResponse(404, "Unknown user", refSchema("Message")),
		),
	})

	doc.Paths.Set("/logout/{userId}", &openapi3.PathItem{
		Post: operation("auth", "logout", "Log out and revoke the token pair",
			withPathParam("userId"),
			withResponse(204, "Logged out", nil),
			withResponse(401, "No active token record", refSchema("Message")),
		),
	})

	doc.Paths.Set("/refresh", &openapi3.PathItem{
		Post: operation("auth", "refresh", "Mint a new access token from a refresh token",
			withJSONRequest(objectSchema(map[string]*openapi3.SchemaRef{
				"refreshToken": stringSchema(),
			})),
			withResponse(200, "New access token", objectSchema(map[string]*openapi3.SchemaRef{
				"access_token": stringSchema(),
			})),
			withResponse(401, "Refresh token invalid or expired", refSchema("Message")),
		),
	})

	doc.Paths.Set("/authenticate", &openapi3.PathItem{
		Get: operation("auth", "authenticate", "Probe the cookie session",
			withResponse(200, "Session is live", objectSchema(map[string]*openapi3.SchemaRef{
				"userId":        intSchema(),
				"email":         stringSchema(),
				"authenticated": boolSchema(),
			})),
			withResponse(401, "No live session", refSchema("Message")),
		),
	})
}

func addPasswordPaths(doc *openapi3.T) {
	doc.Paths.Set("/password/forgot", &openapi3.PathItem{
		Post: operation("password", "forgotPassword", "Request a password reset token",
			withJSONRequest(objectSchema(map[string]*openapi3.SchemaRef{
				"email": stringSchema(),
			})),
			withResponse(201, "Reset requested", refSchema("Message")),
			withResponse(400, "Unknown email", refSchema("Message")),
		),
	})

	doc.Paths.Set("/password/reset", &openapi3.PathItem{
		Get: operation("password", "validateResetToken", "Check a reset token without consuming it",
			withQueryParam("token"),
			withQueryParam("userId"),
			withResponse(200, "Token is valid", boolSchema()),
			withResponse(400, "Token expired or wrong", refSchema("Message")),
			withResponse(404, "No pending reset", refSchema("Message")),
		),
		Post: operation("password", "resetPassword", "Complete the reset with a new password",
			withJSONRequest(objectSchema(map[string]*openapi3.SchemaRef{
				"new_password":         stringSchema(),
				"user_id":              intSchema(),
				"reset_password_token": stringSchema(),
			})),
			withResponse(200, "Password reset", refSchema("Message")),
			withResponse(400, "Token expired or wrong", refSchema("Message")),
		),
	})
}

func addUserPaths(doc *openapi3.T) {
	doc.Paths.Set("/users", &openapi3.PathItem{
		Get: operation("users", "listUsers", "List accounts",
			withBearerAuth(),
			withResponse(200, "All accounts", arraySchema(refSchema("User"))),
		),
		Post: operation("users", "registerUser", "Register an account",
			withJSONRequest(objectSchema(map[string]*openapi3.SchemaRef{
				"email":    stringSchema(),
				"password": stringSchema(),
			})),
			withResponse(201, "Account created", refSchema("User")),
			withResponse(302, "Email already registered", refSchema("User")),
		),
	})

	doc.Paths.Set("/users/{id}", &openapi3.PathItem{
		Get: operation("users", "getUser", "Read an account",
			withBearerAuth(),
			withPathParam("id"),
			withResponse(200, "The account", refSchema("User")),
			withResponse(404, "Unknown user", refSchema("Message")),
		),
		Put: operation("users", "updateUser", "Update email or password",
			withBearerAuth(),
			withPathParam("id"),
			withJSONRequest(objectSchema(map[string]*openapi3.SchemaRef{
				"email":    stringSchema(),
				"password": stringSchema(),
			})),
			withResponse(201, "Updated account", refSchema("User")),
			withResponse(404, "Unknown user", refSchema("Message")),
		),
		Delete: operation("users", "deleteUser", "Delete an account and its tokens",
			withBearerAuth(),
			withPathParam("id"),
			withResponse(204, "Deleted", nil),
			withResponse(404, "Unknown user", refSchema("Message")),
		),
	})
}

func addSessionPaths(doc *openapi3.T) {
	doc.Paths.Set("/session/{sessionId}", &openapi3.PathItem{
		Get: operation("sessions", "getSession", "Read a durable session record",
			withPathParam("sessionId"),
			withResponse(200, "The session", objectSchema(map[string]*openapi3.SchemaRef{
				"id":         stringSchema(),
				"user_id":    intSchema(),
				"logged_in":  boolSchema(),
				"ip_address": stringSchema(),
				"user_agent": stringSchema(),
			})),
			withResponse(404, "Expired or unknown session", refSchema("Message")),
		),
	})
}

type operationOption func(*openapi3.Operation)

func operation(tag, id, summary string, opts ...operationOption) *openapi3.Operation {
	op := &openapi3.Operation{
		Tags:        []string{tag},
		OperationID: id,
		Summary:     summary,
		Responses:   openapi3.NewResponses(),
	}
	for _, opt := range opts {
		opt(op)
	}
	return op
}

func withJSONRequest(schema *openapi3.SchemaRef) operationOption {
	return func(op *openapi3.Operation) {
		op.RequestBody = &openapi3.RequestBodyRef{
			Value: &openapi3.RequestBody{
				Required: true,
				Content:  openapi3.NewContentWithJSONSchemaRef(schema),
			},
		}
	}
}

func withResponse(status int, description string, schema *openapi3.SchemaRef) operationOption {
	return func(op *openapi3.Operation) {
		response := &openapi3.Response{Description: &description}
		if schema != nil {
			response.Content = openapi3.NewContentWithJSONSchemaRef(schema)
		}
		op.AddResponse(status, response)
	}
}

func withPathParam(name string) operationOption {
	return func(op *openapi3.Operation) {
		op.Parameters = append(op.Parameters, &openapi3.ParameterRef{
			Value: &openapi3.Parameter{
				Name:     name,
				In:       "path",
				Required: true,
				Schema:   stringSchema(),
			},
		})
	}
}

func withQueryParam(name string) operationOption {
	return func(op *openapi3.Operation) {
		op.Parameters = append(op.Parameters, &openapi3.ParameterRef{
			Value: &openapi3.Parameter{
				Name:     name,
				In:       "query",
				Required: true,
				Schema:   stringSchema(),
			},
		})
	}
}

func withBearerAuth() operationOption {
	return func(op *openapi3.Operation) {
		op.Security = openapi3.NewSecurityRequirements().
			With(openapi3.NewSecurityRequirement().Authenticate("bearerAuth"))
	}
}

func userSchema() *openapi3.SchemaRef {
	return objectSchema(map[string]*openapi3.SchemaRef{
		"id":         intSchema(),
		"email":      stringSchema(),
		"created_at": stringSchema(),
		"updated_at": stringSchema(),
	})
}

func messageSchema() *openapi3.SchemaRef {
	return objectSchema(map[string]*openapi3.SchemaRef{
		"message": stringSchema(),
	})
}

func objectSchema(props map[string]*openapi3.SchemaRef) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{
		Type:       &openapi3.Types{"object"},
		Properties: props,
	}}
}

func arraySchema(items *openapi3.SchemaRef) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{
		Type:  &openapi3.Types{"array"},
		Items: items,
	}}
}

func refSchema(name string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Ref: "#/components/schemas/" + name}
}

func stringSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}}
}

func intSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}}}
}

func boolSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}}
}
