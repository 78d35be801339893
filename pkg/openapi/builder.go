package openapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-grantforms/pkg/definitions"
	"github.com/goliatone/go-grantforms/pkg/model"
)

const (
	defaultTitle   = "Grant forms API"
	defaultVersion = "1.0.0"

	schemaFieldChange  = "FieldChange"
	schemaFieldResult  = "FieldResult"
	schemaFormState    = "FormState"
	schemaSubmitResult = "SubmitOutcome"
	schemaError        = "Error"
)

// Option customises the generated document.
type Option func(*builder)

// WithTitle overrides the info title.
func WithTitle(title string) Option {
	return func(b *builder) {
		if strings.TrimSpace(title) != "" {
			b.title = title
		}
	}
}

// WithVersion overrides the info version.
func WithVersion(version string) Option {
	return func(b *builder) {
		if strings.TrimSpace(version) != "" {
			b.version = version
		}
	}
}

// WithServerURL adds a server entry.
func WithServerURL(url string) Option {
	return func(b *builder) {
		if strings.TrimSpace(url) != "" {
			b.servers = append(b.servers, url)
		}
	}
}

type builder struct {
	title   string
	version string
	servers []string
}

// Build assembles and validates the document for every form in defs.
func Build(ctx context.Context, defs *definitions.Store, opts ...Option) (*openapi3.T, error) {
	if defs == nil {
		return nil, errors.New("openapi: definitions are required")
	}
	b := &builder{title: defaultTitle, version: defaultVersion}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}

	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:   b.title,
			Version: b.version,
		},
		Paths: openapi3.NewPaths(),
		Components: &openapi3.Components{
			Schemas: openapi3.Schemas{
				schemaFieldChange:  openapi3.NewSchemaRef("", fieldChangeSchema()),
				schemaFieldResult:  openapi3.NewSchemaRef("", fieldResultSchema()),
				schemaFormState:    openapi3.NewSchemaRef("", formStateSchema()),
				schemaSubmitResult: openapi3.NewSchemaRef("", submitOutcomeSchema()),
				schemaError:        openapi3.NewSchemaRef("", errorSchema()),
			},
		},
	}
	for _, url := range b.servers {
		doc.Servers = append(doc.Servers, &openapi3.Server{URL: url})
	}

	for _, form := range defs.Forms() {
		name := ValuesSchemaName(form.ID)
		doc.Components.Schemas[name] = openapi3.NewSchemaRef("", ValuesSchema(form))
		addFormPaths(doc, form, name)
	}

	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("openapi: validate: %w", err)
	}
	return doc, nil
}

// JSON builds the document and encodes it.
func JSON(ctx context.Context, defs *definitions.Store, opts ...Option) ([]byte, error) {
	doc, err := Build(ctx, defs, opts...)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("openapi: encode: %w", err)
	}
	return data, nil
}

// ValuesSchemaName converts a form id such as "ppa-check" to "PpaCheckValues".
func ValuesSchemaName(formID string) string {
	var b strings.Builder
	for _, part := range strings.FieldsFunc(formID, func(r rune) bool {
		return r == '-' || r == '_' || r == '.' || r == ' '
	}) {
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	b.WriteString("Values")
	return b.String()
}

// ValuesSchema describes a full set of answers for form. Required rules map to
// required properties; the consent flag is always required.
func ValuesSchema(form model.FormModel) *openapi3.Schema {
	schema := openapi3.NewObjectSchema()
	schema.Title = form.Title
	schema.Description = form.Summary
	closed := false
	schema.AdditionalProperties = openapi3.AdditionalProperties{Has: &closed}

	for _, field := range form.Fields {
		schema.WithPropertyRef(field.Name, openapi3.NewSchemaRef("", FieldSchema(field)))
		if _, ok := field.Rule(model.ValidationRuleRequired); ok {
			schema.Required = append(schema.Required, field.Name)
		}
	}

	consent := openapi3.NewBoolSchema()
	consent.Title = form.Consent.Label
	consent.Enum = []any{true}
	schema.WithPropertyRef(form.ConsentName(), openapi3.NewSchemaRef("", consent))
	schema.Required = append(schema.Required, form.ConsentName())
	return schema
}

// FieldSchema maps one field and its rules onto a JSON schema.
func FieldSchema(field model.Field) *openapi3.Schema {
	var schema *openapi3.Schema
	switch field.Type {
	case model.FieldTypeSet:
		items := openapi3.NewStringSchema()
		items.Enum = enumValues(field)
		schema = openapi3.NewArraySchema().WithItems(items)
		schema.UniqueItems = true
		if _, ok := field.Rule(model.ValidationRuleNonEmpty); ok {
			schema.MinItems = 1
		}
	case model.FieldTypeBoolean:
		schema = openapi3.NewBoolSchema()
	case model.FieldTypeNumber:
		schema = openapi3.NewFloat64Schema()
		if _, ok := field.Rule(model.ValidationRulePositive); ok {
			schema.WithMin(0).WithExclusiveMin(true)
		}
		if rule, ok := field.Rule(model.ValidationRuleMin); ok {
			if value, err := strconv.ParseFloat(rule.Param("value"), 64); err == nil {
				schema.WithMin(value).WithExclusiveMin(false)
			}
		}
	default:
		schema = openapi3.NewStringSchema()
		schema.Enum = enumValues(field)
		if rule, ok := field.Rule(model.ValidationRuleMinLength); ok {
			if value, err := strconv.ParseUint(rule.Param("value"), 10, 64); err == nil {
				schema.MinLength = value
			}
		}
		if rule, ok := field.Rule(model.ValidationRulePattern); ok {
			schema.Pattern = rule.Param("pattern")
		}
		if _, ok := field.Rule(model.ValidationRuleContact); ok {
			schema.Description = "Email address or UK mobile number"
		}
		if _, ok := field.Rule(model.ValidationRulePostcode); ok {
			schema.Description = "UK postcode"
		}
	}

	schema.Title = field.Label
	if field.Description != "" {
		schema.Description = field.Description
	}
	return schema
}

func enumValues(field model.Field) []any {
	if len(field.Options) == 0 {
		return nil
	}
	out := make([]any, 0, len(field.Options))
	for _, value := range field.OptionValues() {
		out = append(out, value)
	}
	return out
}

func addFormPaths(doc *openapi3.T, form model.FormModel, valuesSchema string) {
	base := "/api/forms/" + form.ID
	tags := []string{form.Scheme}

	doc.Paths.Set(base, &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: form.ID + ":state",
			Summary:     "Current values, validity and inline errors of " + form.Title,
			Tags:        tags,
			Responses: openapi3.NewResponses(
				openapi3.WithStatus(200, jsonResponse(doc, "Form state", schemaFormState)),
			),
		},
		Delete: &openapi3.Operation{
			OperationID: form.ID + ":reset",
			Summary:     "Clear every stored answer of " + form.Title,
			Tags:        tags,
			Responses: openapi3.NewResponses(
				openapi3.WithStatus(204, &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription("Answers cleared")}),
			),
		},
	})

	names := make([]any, 0, len(form.Fields)+1)
	for _, name := range form.FieldNames() {
		names = append(names, name)
	}
	names = append(names, form.ConsentName())
	nameSchema := openapi3.NewStringSchema()
	nameSchema.Enum = names

	doc.Paths.Set(base+"/fields/{name}", &openapi3.PathItem{
		Post: &openapi3.Operation{
			OperationID: form.ID + ":change",
			Summary:     "Set one field and validate it",
			Tags:        tags,
			Parameters: openapi3.Parameters{
				{Value: openapi3.NewPathParameter("name").WithSchema(nameSchema)},
			},
			RequestBody: &openapi3.RequestBodyRef{
				Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchemaRef(componentRef(doc, schemaFieldChange)),
			},
			Responses: openapi3.NewResponses(
				openapi3.WithStatus(200, jsonResponse(doc, "Validation result", schemaFieldResult)),
				openapi3.WithStatus(400, jsonResponse(doc, "Malformed body", schemaError)),
				openapi3.WithStatus(404, jsonResponse(doc, "Unknown field", schemaError)),
			),
		},
	})

	doc.Paths.Set(base+"/submit", &openapi3.PathItem{
		Post: &openapi3.Operation{
			OperationID: form.ID + ":submit",
			Summary:     "Apply the given answers, if any, and submit " + form.Title,
			Tags:        tags,
			RequestBody: &openapi3.RequestBodyRef{
				Value: openapi3.NewRequestBody().WithJSONSchemaRef(componentRef(doc, valuesSchema)),
			},
			Responses: openapi3.NewResponses(
				openapi3.WithStatus(200, jsonResponse(doc, "Submission accepted", schemaSubmitResult)),
				openapi3.WithStatus(422, jsonResponse(doc, "Submission rejected", schemaSubmitResult)),
			),
		},
	})
}

// componentRef points at a registered component. The resolved schema is
// attached so the document validates without a loader pass.
func componentRef(doc *openapi3.T, name string) *openapi3.SchemaRef {
	ref := openapi3.NewSchemaRef("#/components/schemas/"+name, nil)
	if registered := doc.Components.Schemas[name]; registered != nil {
		ref.Value = registered.Value
	}
	return ref
}

func jsonResponse(doc *openapi3.T, description, schema string) *openapi3.ResponseRef {
	return &openapi3.ResponseRef{
		Value: openapi3.NewResponse().WithDescription(description).WithJSONSchemaRef(componentRef(doc, schema)),
	}
}

func fieldChangeSchema() *openapi3.Schema {
	schema := openapi3.NewObjectSchema()
	schema.Description = "Either value, or option with checked for multi-select fields"
	schema.WithProperty("value", &openapi3.Schema{})
	schema.WithProperty("option", openapi3.NewStringSchema())
	schema.WithProperty("checked", openapi3.NewBoolSchema())
	return schema
}

func fieldResultSchema() *openapi3.Schema {
	schema := openapi3.NewObjectSchema()
	schema.WithProperty("message", openapi3.NewStringSchema())
	schema.WithProperty("valid", openapi3.NewBoolSchema())
	schema.WithProperty("canSubmit", openapi3.NewBoolSchema())
	schema.Required = []string{"message", "valid", "canSubmit"}
	return schema
}

func formStateSchema() *openapi3.Schema {
	stringMap := openapi3.NewObjectSchema()
	stringMap.AdditionalProperties = openapi3.AdditionalProperties{Schema: openapi3.NewSchemaRef("", openapi3.NewStringSchema())}
	boolMap := openapi3.NewObjectSchema()
	boolMap.AdditionalProperties = openapi3.AdditionalProperties{Schema: openapi3.NewSchemaRef("", openapi3.NewBoolSchema())}

	schema := openapi3.NewObjectSchema()
	schema.WithProperty("form", openapi3.NewStringSchema())
	schema.WithProperty("values", openapi3.NewObjectSchema())
	schema.WithProperty("errors", stringMap)
	schema.WithProperty("validity", boolMap)
	schema.WithProperty("consent", openapi3.NewBoolSchema())
	schema.WithProperty("canSubmit", openapi3.NewBoolSchema())
	return schema
}

func submitOutcomeSchema() *openapi3.Schema {
	errorsMap := openapi3.NewObjectSchema()
	errorsMap.AdditionalProperties = openapi3.AdditionalProperties{Schema: openapi3.NewSchemaRef("", openapi3.NewStringSchema())}

	schema := openapi3.NewObjectSchema()
	schema.WithProperty("accepted", openapi3.NewBoolSchema())
	schema.WithProperty("next", openapi3.NewStringSchema())
	schema.WithProperty("errors", errorsMap)
	schema.WithProperty("consentMissing", openapi3.NewBoolSchema())
	schema.Required = []string{"accepted"}
	return schema
}

func errorSchema() *openapi3.Schema {
	schema := openapi3.NewObjectSchema()
	schema.WithProperty("error", openapi3.NewStringSchema())
	schema.Required = []string{"error"}
	return schema
}
