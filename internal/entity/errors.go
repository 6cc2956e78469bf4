package entity

import "fmt"

// SchemaError reports a misconfigured schema or operation. It is raised at
// startup and prevents the registry from becoming ready.
type SchemaError struct {
	Subject string
	Reason  string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error: %s: %s", e.Subject, e.Reason)
}

func (e *SchemaError) Code() string { return "SCHEMA_ERROR" }
